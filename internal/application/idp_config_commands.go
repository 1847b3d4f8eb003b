package application

import (
	"context"
	"errors"

	iamdomain "github.com/nexusiam/iamcore/internal/domain"
	"github.com/nexusiam/iamcore/internal/idgen"
	coreapp "github.com/nexusiam/iamcore/pkg/application"
	coredomain "github.com/nexusiam/iamcore/pkg/domain"
)

type CreateIDPConfigCommand struct {
	InstanceID string             `json:"instance_id"`
	OrgID      string             `json:"org_id,omitempty"`
	Type       iamdomain.IDPType  `json:"type"`
	Name       string             `json:"name"`
	Issuer     string             `json:"issuer"`
	ClientID   string             `json:"client_id"`
}

func (c CreateIDPConfigCommand) CommandType() string { return "iam.idp_config.create" }
func (c CreateIDPConfigCommand) Validate() error {
	if c.Issuer == "" {
		return errors.New("issuer is required")
	}
	return nil
}

type ChangeIDPConfigCommand struct {
	IDPConfigID string `json:"idp_config_id"`
	Name        string `json:"name,omitempty"`
	Issuer      string `json:"issuer,omitempty"`
	ClientID    string `json:"client_id,omitempty"`
}

func (c ChangeIDPConfigCommand) CommandType() string { return "iam.idp_config.change" }

type DeactivateIDPConfigCommand struct{ IDPConfigID string `json:"idp_config_id"` }

func (c DeactivateIDPConfigCommand) CommandType() string { return "iam.idp_config.deactivate" }

type ReactivateIDPConfigCommand struct{ IDPConfigID string `json:"idp_config_id"` }

func (c ReactivateIDPConfigCommand) CommandType() string { return "iam.idp_config.reactivate" }

type RemoveIDPConfigCommand struct{ IDPConfigID string `json:"idp_config_id"` }

func (c RemoveIDPConfigCommand) CommandType() string { return "iam.idp_config.remove" }

// IDPConfigCommandHandlers groups every IDP config command handler.
type IDPConfigCommandHandlers struct {
	repo iamdomain.IDPConfigRepository
}

func NewIDPConfigCommandHandlers(repo iamdomain.IDPConfigRepository) *IDPConfigCommandHandlers {
	return &IDPConfigCommandHandlers{repo: repo}
}

func (h *IDPConfigCommandHandlers) Create(ctx context.Context, log coredomain.Logger, p coreapp.Payload[CreateIDPConfigCommand]) (coreapp.Response[any], error) {
	c := p.Data
	cfg, err := iamdomain.NewIDPConfig(ctx, log, idgen.New(), c.InstanceID, c.OrgID, c.Type, c.Name, c.Issuer, c.ClientID)
	if err != nil {
		return errResponse(translateErr(err))
	}
	if err := h.repo.Save(ctx, cfg); err != nil {
		return errResponse(translateErr(err))
	}
	return coreapp.Response[any]{Data: cfg.ID(), Metadata: map[string]any{"version": cfg.Version()}}, nil
}

func (h *IDPConfigCommandHandlers) Change(ctx context.Context, log coredomain.Logger, p coreapp.Payload[ChangeIDPConfigCommand]) (coreapp.Response[any], error) {
	c := p.Data
	cfg, err := loadModifySave(ctx, h.repo, c.IDPConfigID, func(cc *iamdomain.IDPConfig) error {
		return cc.Change(ctx, log, c.Name, c.Issuer, c.ClientID)
	})
	if err != nil {
		return errResponse(err)
	}
	return okResponse(cfg.Version()), nil
}

func (h *IDPConfigCommandHandlers) Deactivate(ctx context.Context, log coredomain.Logger, p coreapp.Payload[DeactivateIDPConfigCommand]) (coreapp.Response[any], error) {
	cfg, err := loadModifySave(ctx, h.repo, p.Data.IDPConfigID, func(cc *iamdomain.IDPConfig) error { return cc.Deactivate(ctx, log) })
	if err != nil {
		return errResponse(err)
	}
	return okResponse(cfg.Version()), nil
}

func (h *IDPConfigCommandHandlers) Reactivate(ctx context.Context, log coredomain.Logger, p coreapp.Payload[ReactivateIDPConfigCommand]) (coreapp.Response[any], error) {
	cfg, err := loadModifySave(ctx, h.repo, p.Data.IDPConfigID, func(cc *iamdomain.IDPConfig) error { return cc.Reactivate(ctx, log) })
	if err != nil {
		return errResponse(err)
	}
	return okResponse(cfg.Version()), nil
}

func (h *IDPConfigCommandHandlers) Remove(ctx context.Context, log coredomain.Logger, p coreapp.Payload[RemoveIDPConfigCommand]) (coreapp.Response[any], error) {
	cfg, err := loadModifySave(ctx, h.repo, p.Data.IDPConfigID, func(cc *iamdomain.IDPConfig) error { return cc.Remove(ctx, log) })
	if err != nil {
		return errResponse(err)
	}
	return okResponse(cfg.Version()), nil
}
