package application

import (
	"context"
	"errors"

	iamdomain "github.com/nexusiam/iamcore/internal/domain"
	"github.com/nexusiam/iamcore/internal/idgen"
	coreapp "github.com/nexusiam/iamcore/pkg/application"
	coredomain "github.com/nexusiam/iamcore/pkg/domain"
)

type CreateProjectCommand struct {
	OrgID string `json:"org_id"`
	Name  string `json:"name"`
}

func (c CreateProjectCommand) CommandType() string { return "iam.project.create" }
func (c CreateProjectCommand) Validate() error {
	if c.OrgID == "" {
		return errors.New("org_id is required")
	}
	if c.Name == "" {
		return errors.New("name is required")
	}
	return nil
}

type ChangeProjectNameCommand struct {
	ProjectID string `json:"project_id"`
	Name      string `json:"name"`
}

func (c ChangeProjectNameCommand) CommandType() string { return "iam.project.change_name" }

type DeactivateProjectCommand struct{ ProjectID string `json:"project_id"` }

func (c DeactivateProjectCommand) CommandType() string { return "iam.project.deactivate" }

type ReactivateProjectCommand struct{ ProjectID string `json:"project_id"` }

func (c ReactivateProjectCommand) CommandType() string { return "iam.project.reactivate" }

type RemoveProjectCommand struct{ ProjectID string `json:"project_id"` }

func (c RemoveProjectCommand) CommandType() string { return "iam.project.remove" }

// ProjectCommandHandlers groups every project command handler.
type ProjectCommandHandlers struct {
	repo iamdomain.ProjectRepository
}

func NewProjectCommandHandlers(repo iamdomain.ProjectRepository) *ProjectCommandHandlers {
	return &ProjectCommandHandlers{repo: repo}
}

func (h *ProjectCommandHandlers) Create(ctx context.Context, log coredomain.Logger, p coreapp.Payload[CreateProjectCommand]) (coreapp.Response[any], error) {
	c := p.Data
	project, err := iamdomain.NewProject(ctx, log, idgen.New(), c.OrgID, c.Name)
	if err != nil {
		return errResponse(translateErr(err))
	}
	if err := h.repo.Save(ctx, project); err != nil {
		return errResponse(translateErr(err))
	}
	return coreapp.Response[any]{Data: project.ID(), Metadata: map[string]any{"version": project.Version()}}, nil
}

func (h *ProjectCommandHandlers) ChangeName(ctx context.Context, log coredomain.Logger, p coreapp.Payload[ChangeProjectNameCommand]) (coreapp.Response[any], error) {
	c := p.Data
	project, err := loadModifySave(ctx, h.repo, c.ProjectID, func(pr *iamdomain.Project) error { return pr.ChangeName(ctx, log, c.Name) })
	if err != nil {
		return errResponse(err)
	}
	return okResponse(project.Version()), nil
}

func (h *ProjectCommandHandlers) Deactivate(ctx context.Context, log coredomain.Logger, p coreapp.Payload[DeactivateProjectCommand]) (coreapp.Response[any], error) {
	project, err := loadModifySave(ctx, h.repo, p.Data.ProjectID, func(pr *iamdomain.Project) error { return pr.Deactivate(ctx, log) })
	if err != nil {
		return errResponse(err)
	}
	return okResponse(project.Version()), nil
}

func (h *ProjectCommandHandlers) Reactivate(ctx context.Context, log coredomain.Logger, p coreapp.Payload[ReactivateProjectCommand]) (coreapp.Response[any], error) {
	project, err := loadModifySave(ctx, h.repo, p.Data.ProjectID, func(pr *iamdomain.Project) error { return pr.Reactivate(ctx, log) })
	if err != nil {
		return errResponse(err)
	}
	return okResponse(project.Version()), nil
}

func (h *ProjectCommandHandlers) Remove(ctx context.Context, log coredomain.Logger, p coreapp.Payload[RemoveProjectCommand]) (coreapp.Response[any], error) {
	project, err := loadModifySave(ctx, h.repo, p.Data.ProjectID, func(pr *iamdomain.Project) error { return pr.Remove(ctx, log) })
	if err != nil {
		return errResponse(err)
	}
	return okResponse(project.Version()), nil
}
