package application

import (
	"context"
	"errors"

	iamdomain "github.com/nexusiam/iamcore/internal/domain"
	"github.com/nexusiam/iamcore/internal/idgen"
	coreapp "github.com/nexusiam/iamcore/pkg/application"
	coredomain "github.com/nexusiam/iamcore/pkg/domain"
)

type CreateOIDCApplicationCommand struct {
	ProjectID    string   `json:"project_id"`
	Name         string   `json:"name"`
	RedirectURIs []string `json:"redirect_uris"`
}

func (c CreateOIDCApplicationCommand) CommandType() string { return "iam.application.create_oidc" }
func (c CreateOIDCApplicationCommand) Validate() error {
	if c.ProjectID == "" {
		return errors.New("project_id is required")
	}
	return nil
}

type CreateSAMLApplicationCommand struct {
	ProjectID string `json:"project_id"`
	Name      string `json:"name"`
	EntityID  string `json:"entity_id"`
	ACSURL    string `json:"acs_url"`
}

func (c CreateSAMLApplicationCommand) CommandType() string { return "iam.application.create_saml" }
func (c CreateSAMLApplicationCommand) Validate() error {
	if c.ProjectID == "" {
		return errors.New("project_id is required")
	}
	return nil
}

type CreateAPIApplicationCommand struct {
	ProjectID string `json:"project_id"`
	Name      string `json:"name"`
}

func (c CreateAPIApplicationCommand) CommandType() string { return "iam.application.create_api" }
func (c CreateAPIApplicationCommand) Validate() error {
	if c.ProjectID == "" {
		return errors.New("project_id is required")
	}
	return nil
}

type ChangeApplicationSecretCommand struct {
	ApplicationID    string `json:"application_id"`
	ClientSecretHash string `json:"client_secret_hash"`
}

func (c ChangeApplicationSecretCommand) CommandType() string { return "iam.application.change_secret" }

type DeactivateApplicationCommand struct{ ApplicationID string `json:"application_id"` }

func (c DeactivateApplicationCommand) CommandType() string { return "iam.application.deactivate" }

type ReactivateApplicationCommand struct{ ApplicationID string `json:"application_id"` }

func (c ReactivateApplicationCommand) CommandType() string { return "iam.application.reactivate" }

type RemoveApplicationCommand struct{ ApplicationID string `json:"application_id"` }

func (c RemoveApplicationCommand) CommandType() string { return "iam.application.remove" }

// ApplicationCommandHandlers groups every application command handler.
type ApplicationCommandHandlers struct {
	repo iamdomain.ApplicationRepository
}

func NewApplicationCommandHandlers(repo iamdomain.ApplicationRepository) *ApplicationCommandHandlers {
	return &ApplicationCommandHandlers{repo: repo}
}

func (h *ApplicationCommandHandlers) CreateOIDC(ctx context.Context, log coredomain.Logger, p coreapp.Payload[CreateOIDCApplicationCommand]) (coreapp.Response[any], error) {
	c := p.Data
	app, err := iamdomain.NewOIDCApplication(ctx, log, idgen.New(), c.ProjectID, c.Name, c.RedirectURIs)
	if err != nil {
		return errResponse(translateErr(err))
	}
	if err := h.repo.Save(ctx, app); err != nil {
		return errResponse(translateErr(err))
	}
	return coreapp.Response[any]{Data: app.ID(), Metadata: map[string]any{"version": app.Version()}}, nil
}

func (h *ApplicationCommandHandlers) CreateSAML(ctx context.Context, log coredomain.Logger, p coreapp.Payload[CreateSAMLApplicationCommand]) (coreapp.Response[any], error) {
	c := p.Data
	app, err := iamdomain.NewSAMLApplication(ctx, log, idgen.New(), c.ProjectID, c.Name, c.EntityID, c.ACSURL)
	if err != nil {
		return errResponse(translateErr(err))
	}
	if err := h.repo.Save(ctx, app); err != nil {
		return errResponse(translateErr(err))
	}
	return coreapp.Response[any]{Data: app.ID(), Metadata: map[string]any{"version": app.Version()}}, nil
}

func (h *ApplicationCommandHandlers) CreateAPI(ctx context.Context, log coredomain.Logger, p coreapp.Payload[CreateAPIApplicationCommand]) (coreapp.Response[any], error) {
	c := p.Data
	app, err := iamdomain.NewAPIApplication(ctx, log, idgen.New(), c.ProjectID, c.Name)
	if err != nil {
		return errResponse(translateErr(err))
	}
	if err := h.repo.Save(ctx, app); err != nil {
		return errResponse(translateErr(err))
	}
	return coreapp.Response[any]{Data: app.ID(), Metadata: map[string]any{"version": app.Version()}}, nil
}

func (h *ApplicationCommandHandlers) ChangeSecret(ctx context.Context, log coredomain.Logger, p coreapp.Payload[ChangeApplicationSecretCommand]) (coreapp.Response[any], error) {
	c := p.Data
	app, err := loadModifySave(ctx, h.repo, c.ApplicationID, func(a *iamdomain.Application) error {
		return a.ChangeSecret(ctx, log, c.ClientSecretHash)
	})
	if err != nil {
		return errResponse(err)
	}
	return okResponse(app.Version()), nil
}

func (h *ApplicationCommandHandlers) Deactivate(ctx context.Context, log coredomain.Logger, p coreapp.Payload[DeactivateApplicationCommand]) (coreapp.Response[any], error) {
	app, err := loadModifySave(ctx, h.repo, p.Data.ApplicationID, func(a *iamdomain.Application) error { return a.Deactivate(ctx, log) })
	if err != nil {
		return errResponse(err)
	}
	return okResponse(app.Version()), nil
}

func (h *ApplicationCommandHandlers) Reactivate(ctx context.Context, log coredomain.Logger, p coreapp.Payload[ReactivateApplicationCommand]) (coreapp.Response[any], error) {
	app, err := loadModifySave(ctx, h.repo, p.Data.ApplicationID, func(a *iamdomain.Application) error { return a.Reactivate(ctx, log) })
	if err != nil {
		return errResponse(err)
	}
	return okResponse(app.Version()), nil
}

func (h *ApplicationCommandHandlers) Remove(ctx context.Context, log coredomain.Logger, p coreapp.Payload[RemoveApplicationCommand]) (coreapp.Response[any], error) {
	app, err := loadModifySave(ctx, h.repo, p.Data.ApplicationID, func(a *iamdomain.Application) error { return a.Remove(ctx, log) })
	if err != nil {
		return errResponse(err)
	}
	return okResponse(app.Version()), nil
}
