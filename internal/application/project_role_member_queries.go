package application

import (
	"context"

	"github.com/nexusiam/iamcore/internal/application/projection"
	coreapp "github.com/nexusiam/iamcore/pkg/application"
	coredomain "github.com/nexusiam/iamcore/pkg/domain"
	"gorm.io/gorm"
)

// GetProjectRoleQuery fetches one project role read-model row by ID.
type GetProjectRoleQuery struct{ ProjectRoleID string `json:"project_role_id"` }

func (q GetProjectRoleQuery) QueryType() string { return "iam.project_role.get" }

// ListProjectRolesQuery lists the roles defined within a project.
type ListProjectRolesQuery struct {
	ProjectID string `json:"project_id"`
	Page      Page   `json:"page"`
}

func (q ListProjectRolesQuery) QueryType() string { return "iam.project_role.list" }

type ProjectRoleQueryHandlers struct{ db *gorm.DB }

func NewProjectRoleQueryHandlers(db *gorm.DB) *ProjectRoleQueryHandlers {
	return &ProjectRoleQueryHandlers{db: db}
}

func (h *ProjectRoleQueryHandlers) Get(ctx context.Context, log coredomain.Logger, p coreapp.Payload[GetProjectRoleQuery]) (coreapp.Response[any], error) {
	row, err := getRow[projection.ProjectRoleRow](ctx, h.db, "project_role", p.Data.ProjectRoleID)
	if err != nil {
		return errResponse(err)
	}
	return coreapp.Response[any]{Data: row}, nil
}

func (h *ProjectRoleQueryHandlers) List(ctx context.Context, log coredomain.Logger, p coreapp.Payload[ListProjectRolesQuery]) (coreapp.Response[any], error) {
	q := p.Data
	result, err := listRows[projection.ProjectRoleRow](ctx, h.db, q.Page, func(db *gorm.DB) *gorm.DB {
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

// GetProjectMemberQuery fetches one project membership row by ID.
type GetProjectMemberQuery struct{ ProjectMemberID string `json:"project_member_id"` }

func (q GetProjectMemberQuery) QueryType() string { return "iam.project_member.get" }

// ListProjectMembersQuery lists the members of a project.
type ListProjectMembersQuery struct {
	ProjectID string `json:"project_id"`
	Page      Page   `json:"page"`
}

func (q ListProjectMembersQuery) QueryType() string { return "iam.project_member.list" }

type ProjectMemberQueryHandlers struct{ db *gorm.DB }

func NewProjectMemberQueryHandlers(db *gorm.DB) *ProjectMemberQueryHandlers {
	return &ProjectMemberQueryHandlers{db: db}
}

func (h *ProjectMemberQueryHandlers) Get(ctx context.Context, log coredomain.Logger, p coreapp.Payload[GetProjectMemberQuery]) (coreapp.Response[any], error) {
	row, err := getRow[projection.ProjectMemberRow](ctx, h.db, "project_member", p.Data.ProjectMemberID)
	if err != nil {
		return errResponse(err)
	}
	return coreapp.Response[any]{Data: row}, nil
}

func (h *ProjectMemberQueryHandlers) List(ctx context.Context, log coredomain.Logger, p coreapp.Payload[ListProjectMembersQuery]) (coreapp.Response[any], error) {
	q := p.Data
	result, err := listRows[projection.ProjectMemberRow](ctx, h.db, q.Page, func(db *gorm.DB) *gorm.DB {
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
