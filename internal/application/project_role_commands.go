package application

import (
	"context"
	"errors"

	iamdomain "github.com/nexusiam/iamcore/internal/domain"
	"github.com/nexusiam/iamcore/internal/idgen"
	coreapp "github.com/nexusiam/iamcore/pkg/application"
	coredomain "github.com/nexusiam/iamcore/pkg/domain"
)

type CreateProjectRoleCommand struct {
	ProjectID   string   `json:"project_id"`
	Key         string   `json:"key"`
	DisplayName string   `json:"display_name"`
	Permissions []string `json:"permissions"`
}

func (c CreateProjectRoleCommand) CommandType() string { return "iam.project_role.create" }
func (c CreateProjectRoleCommand) Validate() error {
	if c.ProjectID == "" {
		return errors.New("project_id is required")
	}
	if c.Key == "" {
		return errors.New("key is required")
	}
	return nil
}

type ChangeProjectRoleCommand struct {
	ProjectRoleID string   `json:"project_role_id"`
	DisplayName   string   `json:"display_name"`
	Permissions   []string `json:"permissions"`
}

func (c ChangeProjectRoleCommand) CommandType() string { return "iam.project_role.change" }

type RemoveProjectRoleCommand struct{ ProjectRoleID string `json:"project_role_id"` }

func (c RemoveProjectRoleCommand) CommandType() string { return "iam.project_role.remove" }

// ProjectRoleCommandHandlers groups every project role command handler.
type ProjectRoleCommandHandlers struct {
	repo iamdomain.ProjectRoleRepository
}

func NewProjectRoleCommandHandlers(repo iamdomain.ProjectRoleRepository) *ProjectRoleCommandHandlers {
	return &ProjectRoleCommandHandlers{repo: repo}
}

func (h *ProjectRoleCommandHandlers) Create(ctx context.Context, log coredomain.Logger, p coreapp.Payload[CreateProjectRoleCommand]) (coreapp.Response[any], error) {
	c := p.Data
	role, err := iamdomain.NewProjectRole(ctx, log, idgen.New(), c.ProjectID, c.Key, c.DisplayName, c.Permissions)
	if err != nil {
		return errResponse(translateErr(err))
	}
	if err := h.repo.Save(ctx, role); err != nil {
		return errResponse(translateErr(err))
	}
	return coreapp.Response[any]{Data: role.ID(), Metadata: map[string]any{"version": role.Version()}}, nil
}

func (h *ProjectRoleCommandHandlers) Change(ctx context.Context, log coredomain.Logger, p coreapp.Payload[ChangeProjectRoleCommand]) (coreapp.Response[any], error) {
	c := p.Data
	role, err := loadModifySave(ctx, h.repo, c.ProjectRoleID, func(r *iamdomain.ProjectRole) error {
		return r.Change(ctx, log, c.DisplayName, c.Permissions)
	})
	if err != nil {
		return errResponse(err)
	}
	return okResponse(role.Version()), nil
}

func (h *ProjectRoleCommandHandlers) Remove(ctx context.Context, log coredomain.Logger, p coreapp.Payload[RemoveProjectRoleCommand]) (coreapp.Response[any], error) {
	role, err := loadModifySave(ctx, h.repo, p.Data.ProjectRoleID, func(r *iamdomain.ProjectRole) error { return r.Remove(ctx, log) })
	if err != nil {
		return errResponse(err)
	}
	return okResponse(role.Version()), nil
}
