package application

import (
	"context"
	"errors"

	iamdomain "github.com/nexusiam/iamcore/internal/domain"
	"github.com/nexusiam/iamcore/internal/idgen"
	coreapp "github.com/nexusiam/iamcore/pkg/application"
	coredomain "github.com/nexusiam/iamcore/pkg/domain"
)

type CreateOrgCommand struct {
	InstanceID string `json:"instance_id"`
	Name       string `json:"name"`
}

func (c CreateOrgCommand) CommandType() string { return "iam.org.create" }
func (c CreateOrgCommand) Validate() error {
	if c.Name == "" {
		return errors.New("name is required")
	}
	return nil
}

type ChangeOrgNameCommand struct {
	OrgID string `json:"org_id"`
	Name  string `json:"name"`
}

func (c ChangeOrgNameCommand) CommandType() string { return "iam.org.change_name" }

type SetOrgPrimaryDomainCommand struct {
	OrgID  string `json:"org_id"`
	Domain string `json:"domain"`
}

func (c SetOrgPrimaryDomainCommand) CommandType() string { return "iam.org.set_primary_domain" }

type DeactivateOrgCommand struct{ OrgID string `json:"org_id"` }

func (c DeactivateOrgCommand) CommandType() string { return "iam.org.deactivate" }

type ReactivateOrgCommand struct{ OrgID string `json:"org_id"` }

func (c ReactivateOrgCommand) CommandType() string { return "iam.org.reactivate" }

type RemoveOrgCommand struct{ OrgID string `json:"org_id"` }

func (c RemoveOrgCommand) CommandType() string { return "iam.org.remove" }

// OrgCommandHandlers groups every org command handler.
type OrgCommandHandlers struct {
	repo iamdomain.OrgRepository
}

func NewOrgCommandHandlers(repo iamdomain.OrgRepository) *OrgCommandHandlers {
	return &OrgCommandHandlers{repo: repo}
}

func (h *OrgCommandHandlers) Create(ctx context.Context, log coredomain.Logger, p coreapp.Payload[CreateOrgCommand]) (coreapp.Response[any], error) {
	c := p.Data
	org, err := iamdomain.NewOrg(ctx, log, idgen.New(), c.InstanceID, c.Name)
	if err != nil {
		return errResponse(translateErr(err))
	}
	if err := h.repo.Save(ctx, org); err != nil {
		return errResponse(translateErr(err))
	}
	return coreapp.Response[any]{Data: org.ID(), Metadata: map[string]any{"version": org.Version()}}, nil
}

func (h *OrgCommandHandlers) ChangeName(ctx context.Context, log coredomain.Logger, p coreapp.Payload[ChangeOrgNameCommand]) (coreapp.Response[any], error) {
	c := p.Data
	org, err := loadModifySave(ctx, h.repo, c.OrgID, func(o *iamdomain.Org) error { return o.ChangeName(ctx, log, c.Name) })
	if err != nil {
		return errResponse(err)
	}
	return okResponse(org.Version()), nil
}

func (h *OrgCommandHandlers) SetPrimaryDomain(ctx context.Context, log coredomain.Logger, p coreapp.Payload[SetOrgPrimaryDomainCommand]) (coreapp.Response[any], error) {
	c := p.Data
	org, err := loadModifySave(ctx, h.repo, c.OrgID, func(o *iamdomain.Org) error { return o.SetPrimaryDomain(ctx, log, c.Domain) })
	if err != nil {
		return errResponse(err)
	}
	return okResponse(org.Version()), nil
}

func (h *OrgCommandHandlers) Deactivate(ctx context.Context, log coredomain.Logger, p coreapp.Payload[DeactivateOrgCommand]) (coreapp.Response[any], error) {
	org, err := loadModifySave(ctx, h.repo, p.Data.OrgID, func(o *iamdomain.Org) error { return o.Deactivate(ctx, log) })
	if err != nil {
		return errResponse(err)
	}
	return okResponse(org.Version()), nil
}

func (h *OrgCommandHandlers) Reactivate(ctx context.Context, log coredomain.Logger, p coreapp.Payload[ReactivateOrgCommand]) (coreapp.Response[any], error) {
	org, err := loadModifySave(ctx, h.repo, p.Data.OrgID, func(o *iamdomain.Org) error { return o.Reactivate(ctx, log) })
	if err != nil {
		return errResponse(err)
	}
	return okResponse(org.Version()), nil
}

// Remove triggers the org.removed cascade: the projection engine, not this
// handler, is responsible for cleaning up everything the org owns.
func (h *OrgCommandHandlers) Remove(ctx context.Context, log coredomain.Logger, p coreapp.Payload[RemoveOrgCommand]) (coreapp.Response[any], error) {
	org, err := loadModifySave(ctx, h.repo, p.Data.OrgID, func(o *iamdomain.Org) error { return o.Remove(ctx, log) })
	if err != nil {
		return errResponse(err)
	}
	return okResponse(org.Version()), nil
}
