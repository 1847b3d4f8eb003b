package domain

import (
	"context"

	coredomain "github.com/nexusiam/iamcore/pkg/domain"
)

// OrgState is the lifecycle state of an organization.
type OrgState string

const (
	OrgStateActive   OrgState = "active"
	OrgStateInactive OrgState = "inactive"
	OrgStateRemoved  OrgState = "removed"
)

// Org is the tenant-scoped organization aggregate: the resource owner for
// projects, applications, and the users that belong to it.
type Org struct {
	coredomain.Entity

	instanceID    string
	name          string
	primaryDomain string
	state         OrgState
}

type OrgAdded struct {
	InstanceID string `json:"instance_id"`
	Name       string `json:"name"`
}

type OrgNameChanged struct {
	Name string `json:"name"`
}

type OrgPrimaryDomainSet struct {
	Domain string `json:"domain"`
}

type OrgDeactivated struct{}
type OrgReactivated struct{}

// OrgRemoved triggers the org.removed cascade: the read-model rows scoped to
// this org's id (directly, or through its projects) are marked
// removed/terminated; no row is deleted.
type OrgRemoved struct{}

// NewOrg creates a new organization and emits org.added.
func NewOrg(ctx context.Context, logger coredomain.Logger, id, instanceID, name string) (*Org, error) {
	if name == "" {
		return nil, coredomain.NewValidationError("name", "must not be empty", name)
	}

	o := &Org{Entity: coredomain.NewEntity(id)}
	added := OrgAdded{InstanceID: instanceID, Name: name}
	emit(ctx, logger, o, "org", "added", added)
	o.apply(added)
	return o, nil
}

// ChangeName renames the org. No-op if unchanged.
func (o *Org) ChangeName(ctx context.Context, logger coredomain.Logger, name string) error {
	if name == "" {
		return coredomain.NewValidationError("name", "must not be empty", name)
	}
	if name == o.name {
		return nil
	}
	emit(ctx, logger, o, "org", "changed", OrgNameChanged{Name: name})
	o.name = name
	return nil
}

// SetPrimaryDomain sets the org's primary domain. No-op if unchanged.
func (o *Org) SetPrimaryDomain(ctx context.Context, logger coredomain.Logger, domain string) error {
	if domain == "" {
		return coredomain.NewValidationError("domain", "must not be empty", domain)
	}
	if domain == o.primaryDomain {
		return nil
	}
	emit(ctx, logger, o, "org", "domain.primary.set", OrgPrimaryDomainSet{Domain: domain})
	o.primaryDomain = domain
	return nil
}

// Deactivate transitions an active org to inactive.
func (o *Org) Deactivate(ctx context.Context, logger coredomain.Logger) error {
	if o.state != OrgStateActive {
		return coredomain.NewDomainError("PRECONDITION_FAILED", "org is not active", nil)
	}
	emit(ctx, logger, o, "org", "deactivated", OrgDeactivated{})
	o.state = OrgStateInactive
	return nil
}

// Reactivate transitions an inactive org back to active.
func (o *Org) Reactivate(ctx context.Context, logger coredomain.Logger) error {
	if o.state != OrgStateInactive {
		return coredomain.NewDomainError("PRECONDITION_FAILED", "org is not inactive", nil)
	}
	emit(ctx, logger, o, "org", "reactivated", OrgReactivated{})
	o.state = OrgStateActive
	return nil
}

// Remove permanently removes the org, triggering the cascade cleanup of
// everything it owns.
func (o *Org) Remove(ctx context.Context, logger coredomain.Logger) error {
	if o.state == OrgStateRemoved {
		return coredomain.NewDomainError("PRECONDITION_FAILED", "org is already removed", nil)
	}
	emit(ctx, logger, o, "org", "removed", OrgRemoved{})
	o.state = OrgStateRemoved
	return nil
}

func (o *Org) State() OrgState   { return o.state }
func (o *Org) Name() string      { return o.name }
func (o *Org) InstanceID() string { return o.instanceID }

func (o *Org) LoadFromHistory(events []coredomain.Event) {
	for _, event := range events {
		ee, ok := event.(*coredomain.EntityEvent)
		if !ok {
			continue
		}
		switch normalizeEventType("org", ee.EventType()) {
		case "org.added":
			var p OrgAdded
			DecodePayload(ee.Payload(), &p)
			o.apply(p)
		case "org.changed":
			var p OrgNameChanged
			DecodePayload(ee.Payload(), &p)
			o.apply(p)
		case "org.domain.primary.set":
			var p OrgPrimaryDomainSet
			DecodePayload(ee.Payload(), &p)
			o.apply(p)
		case "org.deactivated":
			o.apply(OrgDeactivated{})
		case "org.reactivated":
			o.apply(OrgReactivated{})
		case "org.removed":
			o.apply(OrgRemoved{})
		}
	}
	o.Entity.LoadFromHistory(events)
}

func (o *Org) apply(payload interface{}) {
	switch p := payload.(type) {
	case OrgAdded:
		o.instanceID = p.InstanceID
		o.name = p.Name
		o.state = OrgStateActive
	case OrgNameChanged:
		o.name = p.Name
	case OrgPrimaryDomainSet:
		o.primaryDomain = p.Domain
	case OrgDeactivated:
		o.state = OrgStateInactive
	case OrgReactivated:
		o.state = OrgStateActive
	case OrgRemoved:
		o.state = OrgStateRemoved
	}
}

// OrgRepository loads and saves Org aggregates.
type OrgRepository = coredomain.Repository[*Org]

// NewBlankOrg returns an unpopulated Org identified by id, ready for
// LoadFromHistory. Used by the event-sourced repository to reconstruct an
// aggregate from its event history.
func NewBlankOrg(id string) *Org {
	return &Org{Entity: coredomain.NewEntity(id)}
}
