package application

import (
	"context"
	"errors"

	iamdomain "github.com/nexusiam/iamcore/internal/domain"
	"github.com/nexusiam/iamcore/internal/idgen"
	coreapp "github.com/nexusiam/iamcore/pkg/application"
	coredomain "github.com/nexusiam/iamcore/pkg/domain"
)

type GrantUserAccessCommand struct {
	UserID    string   `json:"user_id"`
	ProjectID string   `json:"project_id"`
	OrgID     string   `json:"org_id"`
	RoleKeys  []string `json:"role_keys"`
}

func (c GrantUserAccessCommand) CommandType() string { return "iam.user_grant.create" }
func (c GrantUserAccessCommand) Validate() error {
	if c.UserID == "" {
		return errors.New("user_id is required")
	}
	if c.ProjectID == "" {
		return errors.New("project_id is required")
	}
	return nil
}

type ChangeUserGrantRolesCommand struct {
	UserGrantID string   `json:"user_grant_id"`
	RoleKeys    []string `json:"role_keys"`
}

func (c ChangeUserGrantRolesCommand) CommandType() string { return "iam.user_grant.change_roles" }

type DeactivateUserGrantCommand struct{ UserGrantID string `json:"user_grant_id"` }

func (c DeactivateUserGrantCommand) CommandType() string { return "iam.user_grant.deactivate" }

type RemoveUserGrantCommand struct{ UserGrantID string `json:"user_grant_id"` }

func (c RemoveUserGrantCommand) CommandType() string { return "iam.user_grant.remove" }

// UserGrantCommandHandlers groups every user grant command handler.
type UserGrantCommandHandlers struct {
	repo iamdomain.UserGrantRepository
}

func NewUserGrantCommandHandlers(repo iamdomain.UserGrantRepository) *UserGrantCommandHandlers {
	return &UserGrantCommandHandlers{repo: repo}
}

func (h *UserGrantCommandHandlers) Create(ctx context.Context, log coredomain.Logger, p coreapp.Payload[GrantUserAccessCommand]) (coreapp.Response[any], error) {
	c := p.Data
	grant, err := iamdomain.NewUserGrant(ctx, log, idgen.New(), c.UserID, c.ProjectID, c.OrgID, c.RoleKeys)
	if err != nil {
		return errResponse(translateErr(err))
	}
	if err := h.repo.Save(ctx, grant); err != nil {
		return errResponse(translateErr(err))
	}
	return coreapp.Response[any]{Data: grant.ID(), Metadata: map[string]any{"version": grant.Version()}}, nil
}

func (h *UserGrantCommandHandlers) ChangeRoles(ctx context.Context, log coredomain.Logger, p coreapp.Payload[ChangeUserGrantRolesCommand]) (coreapp.Response[any], error) {
	c := p.Data
	grant, err := loadModifySave(ctx, h.repo, c.UserGrantID, func(g *iamdomain.UserGrant) error {
		return g.ChangeRoles(ctx, log, c.RoleKeys)
	})
	if err != nil {
		return errResponse(err)
	}
	return okResponse(grant.Version()), nil
}

func (h *UserGrantCommandHandlers) Deactivate(ctx context.Context, log coredomain.Logger, p coreapp.Payload[DeactivateUserGrantCommand]) (coreapp.Response[any], error) {
	grant, err := loadModifySave(ctx, h.repo, p.Data.UserGrantID, func(g *iamdomain.UserGrant) error { return g.Deactivate(ctx, log) })
	if err != nil {
		return errResponse(err)
	}
	return okResponse(grant.Version()), nil
}

func (h *UserGrantCommandHandlers) Remove(ctx context.Context, log coredomain.Logger, p coreapp.Payload[RemoveUserGrantCommand]) (coreapp.Response[any], error) {
	grant, err := loadModifySave(ctx, h.repo, p.Data.UserGrantID, func(g *iamdomain.UserGrant) error { return g.Remove(ctx, log) })
	if err != nil {
		return errResponse(err)
	}
	return okResponse(grant.Version()), nil
}
