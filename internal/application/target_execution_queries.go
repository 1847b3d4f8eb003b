package application

import (
	"context"

	"github.com/nexusiam/iamcore/internal/application/projection"
	coreapp "github.com/nexusiam/iamcore/pkg/application"
	coredomain "github.com/nexusiam/iamcore/pkg/domain"
	"gorm.io/gorm"
)

// GetTargetQuery fetches one execution-hook target read-model row by ID.
type GetTargetQuery struct{ TargetID string `json:"target_id"` }

func (q GetTargetQuery) QueryType() string { return "iam.target.get" }

// ListTargetsQuery lists the targets registered under a project.
type ListTargetsQuery struct {
	ProjectID string `json:"project_id"`
	Page      Page   `json:"page"`
}

func (q ListTargetsQuery) QueryType() string { return "iam.target.list" }

type TargetQueryHandlers struct{ db *gorm.DB }

func NewTargetQueryHandlers(db *gorm.DB) *TargetQueryHandlers { return &TargetQueryHandlers{db: db} }

func (h *TargetQueryHandlers) Get(ctx context.Context, log coredomain.Logger, p coreapp.Payload[GetTargetQuery]) (coreapp.Response[any], error) {
	row, err := getRow[projection.TargetRow](ctx, h.db, "target", p.Data.TargetID)
	if err != nil {
		return errResponse(err)
	}
	return coreapp.Response[any]{Data: row}, nil
}

func (h *TargetQueryHandlers) List(ctx context.Context, log coredomain.Logger, p coreapp.Payload[ListTargetsQuery]) (coreapp.Response[any], error) {
	q := p.Data
	result, err := listRows[projection.TargetRow](ctx, h.db, q.Page, func(db *gorm.DB) *gorm.DB {
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

// GetExecutionQuery fetches one execution-hook read-model row by ID.
type GetExecutionQuery struct{ ExecutionID string `json:"execution_id"` }

func (q GetExecutionQuery) QueryType() string { return "iam.execution.get" }

// ListExecutionsQuery lists the execution hooks configured for a project,
// excluding removed ones unless IncludeRemoved is set.
type ListExecutionsQuery struct {
	ProjectID      string `json:"project_id"`
	TargetID       string `json:"target_id,omitempty"`
	IncludeRemoved bool   `json:"include_removed"`
	Page           Page   `json:"page"`
}

func (q ListExecutionsQuery) QueryType() string { return "iam.execution.list" }

type ExecutionQueryHandlers struct{ db *gorm.DB }

func NewExecutionQueryHandlers(db *gorm.DB) *ExecutionQueryHandlers {
	return &ExecutionQueryHandlers{db: db}
}

func (h *ExecutionQueryHandlers) Get(ctx context.Context, log coredomain.Logger, p coreapp.Payload[GetExecutionQuery]) (coreapp.Response[any], error) {
	row, err := getRow[projection.ExecutionRow](ctx, h.db, "execution", p.Data.ExecutionID)
	if err != nil {
		return errResponse(err)
	}
	return coreapp.Response[any]{Data: row}, nil
}

func (h *ExecutionQueryHandlers) List(ctx context.Context, log coredomain.Logger, p coreapp.Payload[ListExecutionsQuery]) (coreapp.Response[any], error) {
	q := p.Data
	result, err := listRows[projection.ExecutionRow](ctx, h.db, q.Page, func(db *gorm.DB) *gorm.DB {
		if q.ProjectID != "" {
			db = db.Where("project_id = ?", q.ProjectID)
		}
		if q.TargetID != "" {
			db = db.Where("target_id = ?", q.TargetID)
		}
		if !q.IncludeRemoved {
			db = db.Where("removed = ?", false)
		}
		return db
	})
	if err != nil {
		return errResponse(err)
	}
	return coreapp.Response[any]{Data: result}, nil
}
