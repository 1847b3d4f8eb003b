package application

import (
	"context"

	"github.com/nexusiam/iamcore/internal/application/projection"
	coreapp "github.com/nexusiam/iamcore/pkg/application"
	coredomain "github.com/nexusiam/iamcore/pkg/domain"
	"gorm.io/gorm"
)

// GetUserQuery fetches one user read-model row by ID.
type GetUserQuery struct{ UserID string `json:"user_id"` }

func (q GetUserQuery) QueryType() string { return "iam.user.get" }

// ListUsersQuery lists users within an org, optionally filtered by state.
type ListUsersQuery struct {
	OrgID string `json:"org_id"`
	State string `json:"state,omitempty"`
	Page  Page   `json:"page"`
}

func (q ListUsersQuery) QueryType() string { return "iam.user.list" }

type UserQueryHandlers struct{ db *gorm.DB }

func NewUserQueryHandlers(db *gorm.DB) *UserQueryHandlers { return &UserQueryHandlers{db: db} }

func (h *UserQueryHandlers) Get(ctx context.Context, log coredomain.Logger, p coreapp.Payload[GetUserQuery]) (coreapp.Response[any], error) {
	row, err := getRow[projection.UserRow](ctx, h.db, "user", p.Data.UserID)
	if err != nil {
		return errResponse(err)
	}
	return coreapp.Response[any]{Data: row}, nil
}

func (h *UserQueryHandlers) List(ctx context.Context, log coredomain.Logger, p coreapp.Payload[ListUsersQuery]) (coreapp.Response[any], error) {
	q := p.Data
	result, err := listRows[projection.UserRow](ctx, h.db, q.Page, func(db *gorm.DB) *gorm.DB {
		if q.OrgID != "" {
			db = db.Where("org_id = ?", q.OrgID)
		}
		if q.State != "" {
			db = db.Where("state = ?", q.State)
		}
		return db
	})
	if err != nil {
		return errResponse(err)
	}
	return coreapp.Response[any]{Data: result}, nil
}

// GetOrgQuery fetches one org read-model row by ID.
type GetOrgQuery struct{ OrgID string `json:"org_id"` }

func (q GetOrgQuery) QueryType() string { return "iam.org.get" }

// ListOrgsQuery lists orgs within an instance.
type ListOrgsQuery struct {
	InstanceID string `json:"instance_id"`
	Page       Page   `json:"page"`
}

func (q ListOrgsQuery) QueryType() string { return "iam.org.list" }

type OrgQueryHandlers struct{ db *gorm.DB }

func NewOrgQueryHandlers(db *gorm.DB) *OrgQueryHandlers { return &OrgQueryHandlers{db: db} }

func (h *OrgQueryHandlers) Get(ctx context.Context, log coredomain.Logger, p coreapp.Payload[GetOrgQuery]) (coreapp.Response[any], error) {
	row, err := getRow[projection.OrgRow](ctx, h.db, "org", p.Data.OrgID)
	if err != nil {
		return errResponse(err)
	}
	return coreapp.Response[any]{Data: row}, nil
}

func (h *OrgQueryHandlers) List(ctx context.Context, log coredomain.Logger, p coreapp.Payload[ListOrgsQuery]) (coreapp.Response[any], error) {
	q := p.Data
	result, err := listRows[projection.OrgRow](ctx, h.db, q.Page, func(db *gorm.DB) *gorm.DB {
		if q.InstanceID != "" {
			db = db.Where("instance_id = ?", q.InstanceID)
		}
		return db
	})
	if err != nil {
		return errResponse(err)
	}
	return coreapp.Response[any]{Data: result}, nil
}

// GetProjectQuery fetches one project read-model row by ID.
type GetProjectQuery struct{ ProjectID string `json:"project_id"` }

func (q GetProjectQuery) QueryType() string { return "iam.project.get" }

// ListProjectsQuery lists projects within an org.
type ListProjectsQuery struct {
	OrgID string `json:"org_id"`
	Page  Page   `json:"page"`
}

func (q ListProjectsQuery) QueryType() string { return "iam.project.list" }

type ProjectQueryHandlers struct{ db *gorm.DB }

func NewProjectQueryHandlers(db *gorm.DB) *ProjectQueryHandlers { return &ProjectQueryHandlers{db: db} }

func (h *ProjectQueryHandlers) Get(ctx context.Context, log coredomain.Logger, p coreapp.Payload[GetProjectQuery]) (coreapp.Response[any], error) {
	row, err := getRow[projection.ProjectRow](ctx, h.db, "project", p.Data.ProjectID)
	if err != nil {
		return errResponse(err)
	}
	return coreapp.Response[any]{Data: row}, nil
}

func (h *ProjectQueryHandlers) List(ctx context.Context, log coredomain.Logger, p coreapp.Payload[ListProjectsQuery]) (coreapp.Response[any], error) {
	q := p.Data
	result, err := listRows[projection.ProjectRow](ctx, h.db, q.Page, func(db *gorm.DB) *gorm.DB {
		if q.OrgID != "" {
			db = db.Where("org_id = ?", q.OrgID)
		}
		return db
	})
	if err != nil {
		return errResponse(err)
	}
	return coreapp.Response[any]{Data: result}, nil
}
