package application

import (
	"context"
	"errors"

	iamdomain "github.com/nexusiam/iamcore/internal/domain"
	"github.com/nexusiam/iamcore/internal/idgen"
	coreapp "github.com/nexusiam/iamcore/pkg/application"
	coredomain "github.com/nexusiam/iamcore/pkg/domain"
)

type CreateTargetCommand struct {
	ProjectID string             `json:"project_id"`
	Name      string             `json:"name"`
	Type      iamdomain.TargetType `json:"type"`
	Endpoint  string             `json:"endpoint"`
}

func (c CreateTargetCommand) CommandType() string { return "iam.target.create" }
func (c CreateTargetCommand) Validate() error {
	if c.ProjectID == "" {
		return errors.New("project_id is required")
	}
	if c.Endpoint == "" {
		return errors.New("endpoint is required")
	}
	return nil
}

type ChangeTargetCommand struct {
	TargetID string `json:"target_id"`
	Name     string `json:"name,omitempty"`
	Endpoint string `json:"endpoint,omitempty"`
}

func (c ChangeTargetCommand) CommandType() string { return "iam.target.change" }

type RotateTargetSigningKeyCommand struct{ TargetID string `json:"target_id"` }

func (c RotateTargetSigningKeyCommand) CommandType() string { return "iam.target.rotate_signing_key" }

type DeactivateTargetCommand struct{ TargetID string `json:"target_id"` }

func (c DeactivateTargetCommand) CommandType() string { return "iam.target.deactivate" }

type ReactivateTargetCommand struct{ TargetID string `json:"target_id"` }

func (c ReactivateTargetCommand) CommandType() string { return "iam.target.reactivate" }

type RemoveTargetCommand struct{ TargetID string `json:"target_id"` }

func (c RemoveTargetCommand) CommandType() string { return "iam.target.remove" }

// TargetCommandHandlers groups every execution target command handler.
type TargetCommandHandlers struct {
	repo iamdomain.TargetRepository
}

func NewTargetCommandHandlers(repo iamdomain.TargetRepository) *TargetCommandHandlers {
	return &TargetCommandHandlers{repo: repo}
}

func (h *TargetCommandHandlers) Create(ctx context.Context, log coredomain.Logger, p coreapp.Payload[CreateTargetCommand]) (coreapp.Response[any], error) {
	c := p.Data
	target, err := iamdomain.NewTarget(ctx, log, idgen.New(), c.ProjectID, c.Name, c.Type, c.Endpoint)
	if err != nil {
		return errResponse(translateErr(err))
	}
	if err := h.repo.Save(ctx, target); err != nil {
		return errResponse(translateErr(err))
	}
	return coreapp.Response[any]{Data: target.ID(), Metadata: map[string]any{"version": target.Version()}}, nil
}

func (h *TargetCommandHandlers) Change(ctx context.Context, log coredomain.Logger, p coreapp.Payload[ChangeTargetCommand]) (coreapp.Response[any], error) {
	c := p.Data
	target, err := loadModifySave(ctx, h.repo, c.TargetID, func(t *iamdomain.Target) error {
		return t.Change(ctx, log, c.Name, c.Endpoint)
	})
	if err != nil {
		return errResponse(err)
	}
	return okResponse(target.Version()), nil
}

func (h *TargetCommandHandlers) RotateSigningKey(ctx context.Context, log coredomain.Logger, p coreapp.Payload[RotateTargetSigningKeyCommand]) (coreapp.Response[any], error) {
	target, err := loadModifySave(ctx, h.repo, p.Data.TargetID, func(t *iamdomain.Target) error { return t.RotateSigningKey(ctx, log) })
	if err != nil {
		return errResponse(err)
	}
	return okResponse(target.Version()), nil
}

func (h *TargetCommandHandlers) Deactivate(ctx context.Context, log coredomain.Logger, p coreapp.Payload[DeactivateTargetCommand]) (coreapp.Response[any], error) {
	target, err := loadModifySave(ctx, h.repo, p.Data.TargetID, func(t *iamdomain.Target) error { return t.Deactivate(ctx, log) })
	if err != nil {
		return errResponse(err)
	}
	return okResponse(target.Version()), nil
}

func (h *TargetCommandHandlers) Reactivate(ctx context.Context, log coredomain.Logger, p coreapp.Payload[ReactivateTargetCommand]) (coreapp.Response[any], error) {
	target, err := loadModifySave(ctx, h.repo, p.Data.TargetID, func(t *iamdomain.Target) error { return t.Reactivate(ctx, log) })
	if err != nil {
		return errResponse(err)
	}
	return okResponse(target.Version()), nil
}

func (h *TargetCommandHandlers) Remove(ctx context.Context, log coredomain.Logger, p coreapp.Payload[RemoveTargetCommand]) (coreapp.Response[any], error) {
	target, err := loadModifySave(ctx, h.repo, p.Data.TargetID, func(t *iamdomain.Target) error { return t.Remove(ctx, log) })
	if err != nil {
		return errResponse(err)
	}
	return okResponse(target.Version()), nil
}
