package application

import (
	"context"

	"github.com/nexusiam/iamcore/internal/application/projection"
	coreapp "github.com/nexusiam/iamcore/pkg/application"
	coredomain "github.com/nexusiam/iamcore/pkg/domain"
	"gorm.io/gorm"
)

// GetApplicationQuery fetches one application read-model row by ID.
type GetApplicationQuery struct{ ApplicationID string `json:"application_id"` }

func (q GetApplicationQuery) QueryType() string { return "iam.application.get" }

// ListApplicationsQuery lists the applications registered under a project.
type ListApplicationsQuery struct {
	ProjectID string `json:"project_id"`
	Page      Page   `json:"page"`
}

func (q ListApplicationsQuery) QueryType() string { return "iam.application.list" }

type ApplicationQueryHandlers struct{ db *gorm.DB }

func NewApplicationQueryHandlers(db *gorm.DB) *ApplicationQueryHandlers {
	return &ApplicationQueryHandlers{db: db}
}

func (h *ApplicationQueryHandlers) Get(ctx context.Context, log coredomain.Logger, p coreapp.Payload[GetApplicationQuery]) (coreapp.Response[any], error) {
	row, err := getRow[projection.ApplicationRow](ctx, h.db, "application", p.Data.ApplicationID)
	if err != nil {
		return errResponse(err)
	}
	return coreapp.Response[any]{Data: row}, nil
}

func (h *ApplicationQueryHandlers) List(ctx context.Context, log coredomain.Logger, p coreapp.Payload[ListApplicationsQuery]) (coreapp.Response[any], error) {
	q := p.Data
	result, err := listRows[projection.ApplicationRow](ctx, h.db, q.Page, func(db *gorm.DB) *gorm.DB {
		if q.ProjectID != "" {
			db = db.Where("project_id = ?", q.ProjectID)
		}
		return db
	})
	if err != nil {
		return errResponse(err)
	}
	return coreapp.Response[any]{Data: result}, nil
}

// GetUserGrantQuery fetches one user grant read-model row by ID.
type GetUserGrantQuery struct{ UserGrantID string `json:"user_grant_id"` }

func (q GetUserGrantQuery) QueryType() string { return "iam.user_grant.get" }

// ListUserGrantsQuery lists a user's grants, optionally scoped to a project.
type ListUserGrantsQuery struct {
	UserID    string `json:"user_id"`
	ProjectID string `json:"project_id,omitempty"`
	Page      Page   `json:"page"`
}

func (q ListUserGrantsQuery) QueryType() string { return "iam.user_grant.list" }

type UserGrantQueryHandlers struct{ db *gorm.DB }

func NewUserGrantQueryHandlers(db *gorm.DB) *UserGrantQueryHandlers {
	return &UserGrantQueryHandlers{db: db}
}

func (h *UserGrantQueryHandlers) Get(ctx context.Context, log coredomain.Logger, p coreapp.Payload[GetUserGrantQuery]) (coreapp.Response[any], error) {
	row, err := getRow[projection.UserGrantRow](ctx, h.db, "user_grant", p.Data.UserGrantID)
	if err != nil {
		return errResponse(err)
	}
	return coreapp.Response[any]{Data: row}, nil
}

func (h *UserGrantQueryHandlers) List(ctx context.Context, log coredomain.Logger, p coreapp.Payload[ListUserGrantsQuery]) (coreapp.Response[any], error) {
	q := p.Data
	result, err := listRows[projection.UserGrantRow](ctx, h.db, q.Page, func(db *gorm.DB) *gorm.DB {
		if q.UserID != "" {
			db = db.Where("user_id = ?", q.UserID)
		}
		if q.ProjectID != "" {
			db = db.Where("project_id = ?", q.ProjectID)
		}
		return db
	})
	if err != nil {
		return errResponse(err)
	}
	return coreapp.Response[any]{Data: result}, nil
}

// GetIDPConfigQuery fetches one IDP config read-model row by ID.
type GetIDPConfigQuery struct{ IDPConfigID string `json:"idp_config_id"` }

func (q GetIDPConfigQuery) QueryType() string { return "iam.idp_config.get" }

// ListIDPConfigsQuery lists the IDP configs registered under an org.
type ListIDPConfigsQuery struct {
	OrgID string `json:"org_id"`
	Page  Page   `json:"page"`
}

func (q ListIDPConfigsQuery) QueryType() string { return "iam.idp_config.list" }

type IDPConfigQueryHandlers struct{ db *gorm.DB }

func NewIDPConfigQueryHandlers(db *gorm.DB) *IDPConfigQueryHandlers {
	return &IDPConfigQueryHandlers{db: db}
}

func (h *IDPConfigQueryHandlers) Get(ctx context.Context, log coredomain.Logger, p coreapp.Payload[GetIDPConfigQuery]) (coreapp.Response[any], error) {
	row, err := getRow[projection.IDPConfigRow](ctx, h.db, "idp_config", p.Data.IDPConfigID)
	if err != nil {
		return errResponse(err)
	}
	return coreapp.Response[any]{Data: row}, nil
}

func (h *IDPConfigQueryHandlers) List(ctx context.Context, log coredomain.Logger, p coreapp.Payload[ListIDPConfigsQuery]) (coreapp.Response[any], error) {
	q := p.Data
	result, err := listRows[projection.IDPConfigRow](ctx, h.db, q.Page, func(db *gorm.DB) *gorm.DB {
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
