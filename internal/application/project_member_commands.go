package application

import (
	"context"
	"errors"

	iamdomain "github.com/nexusiam/iamcore/internal/domain"
	"github.com/nexusiam/iamcore/internal/idgen"
	coreapp "github.com/nexusiam/iamcore/pkg/application"
	coredomain "github.com/nexusiam/iamcore/pkg/domain"
)

type AddProjectMemberCommand struct {
	ProjectID string   `json:"project_id"`
	UserID    string   `json:"user_id"`
	RoleKeys  []string `json:"role_keys"`
}

func (c AddProjectMemberCommand) CommandType() string { return "iam.project_member.add" }
func (c AddProjectMemberCommand) Validate() error {
	if c.ProjectID == "" {
		return errors.New("project_id is required")
	}
	if c.UserID == "" {
		return errors.New("user_id is required")
	}
	return nil
}

type ChangeProjectMemberRolesCommand struct {
	ProjectMemberID string   `json:"project_member_id"`
	RoleKeys        []string `json:"role_keys"`
}

func (c ChangeProjectMemberRolesCommand) CommandType() string { return "iam.project_member.change_roles" }

type RemoveProjectMemberCommand struct{ ProjectMemberID string `json:"project_member_id"` }

func (c RemoveProjectMemberCommand) CommandType() string { return "iam.project_member.remove" }

// ProjectMemberCommandHandlers groups every project member command handler.
type ProjectMemberCommandHandlers struct {
	repo iamdomain.ProjectMemberRepository
}

func NewProjectMemberCommandHandlers(repo iamdomain.ProjectMemberRepository) *ProjectMemberCommandHandlers {
	return &ProjectMemberCommandHandlers{repo: repo}
}

// Add creates the membership keyed on a synthetic (project, user) id so a
// user can never be added to the same project twice under different ids.
func (h *ProjectMemberCommandHandlers) Add(ctx context.Context, log coredomain.Logger, p coreapp.Payload[AddProjectMemberCommand]) (coreapp.Response[any], error) {
	c := p.Data
	id := idgen.New()
	member, err := iamdomain.NewProjectMember(ctx, log, id, c.ProjectID, c.UserID, c.RoleKeys)
	if err != nil {
		return errResponse(translateErr(err))
	}
	if err := h.repo.Save(ctx, member); err != nil {
		return errResponse(translateErr(err))
	}
	return coreapp.Response[any]{Data: member.ID(), Metadata: map[string]any{"version": member.Version()}}, nil
}

func (h *ProjectMemberCommandHandlers) ChangeRoles(ctx context.Context, log coredomain.Logger, p coreapp.Payload[ChangeProjectMemberRolesCommand]) (coreapp.Response[any], error) {
	c := p.Data
	member, err := loadModifySave(ctx, h.repo, c.ProjectMemberID, func(m *iamdomain.ProjectMember) error {
		return m.ChangeRoles(ctx, log, c.RoleKeys)
	})
	if err != nil {
		return errResponse(err)
	}
	return okResponse(member.Version()), nil
}

func (h *ProjectMemberCommandHandlers) Remove(ctx context.Context, log coredomain.Logger, p coreapp.Payload[RemoveProjectMemberCommand]) (coreapp.Response[any], error) {
	member, err := loadModifySave(ctx, h.repo, p.Data.ProjectMemberID, func(m *iamdomain.ProjectMember) error { return m.Remove(ctx, log) })
	if err != nil {
		return errResponse(err)
	}
	return okResponse(member.Version()), nil
}
