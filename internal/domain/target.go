package domain

import (
	"context"

	coredomain "github.com/nexusiam/iamcore/pkg/domain"
)

// TargetState is the lifecycle state of an execution target.
type TargetState string

const (
	TargetStateActive   TargetState = "active"
	TargetStateInactive TargetState = "inactive"
	TargetStateRemoved  TargetState = "removed"
)

// TargetType is the delivery mechanism an execution target uses.
type TargetType string

const (
	TargetTypeWebhook TargetType = "webhook"
	TargetTypeAsync   TargetType = "async"
)

// Target is a project-scoped webhook (or async call) endpoint that an
// Execution node can deliver events to. Every target owns a rotatable HMAC
// signing key, generated and rotated with securecookie's CSPRNG-backed key
// generator, so receivers can verify delivery authenticity.
type Target struct {
	coredomain.Entity

	projectID  string
	name       string
	targetType TargetType
	endpoint   string
	signingKey string
	state      TargetState
}

type TargetAdded struct {
	ProjectID  string     `json:"project_id"`
	Name       string     `json:"name"`
	Type       TargetType `json:"type"`
	Endpoint   string     `json:"endpoint"`
	SigningKey string     `json:"signing_key"`
}

type TargetChanged struct {
	Name     string `json:"name,omitempty"`
	Endpoint string `json:"endpoint,omitempty"`
}

type TargetSigningKeyRotated struct {
	SigningKey string `json:"signing_key"`
}

type TargetDeactivated struct{}
type TargetReactivated struct{}
type TargetRemoved struct{}

// NewTarget registers a delivery endpoint for projectID, generating its
// initial signing key.
func NewTarget(ctx context.Context, logger coredomain.Logger, id, projectID, name string, targetType TargetType, endpoint string) (*Target, error) {
	if endpoint == "" {
		return nil, coredomain.NewValidationError("endpoint", "must not be empty", endpoint)
	}
	key, err := randomToken(32)
	if err != nil {
		return nil, err
	}
	t := &Target{Entity: coredomain.NewEntity(id)}
	added := TargetAdded{ProjectID: projectID, Name: name, Type: targetType, Endpoint: endpoint, SigningKey: key}
	emit(ctx, logger, t, "target", "added", added)
	t.apply(added)
	return t, nil
}

// Change updates the target's name and/or endpoint.
func (t *Target) Change(ctx context.Context, logger coredomain.Logger, name, endpoint string) error {
	emit(ctx, logger, t, "target", "changed", TargetChanged{Name: name, Endpoint: endpoint})
	if name != "" {
		t.name = name
	}
	if endpoint != "" {
		t.endpoint = endpoint
	}
	return nil
}

// RotateSigningKey replaces the HMAC key used to sign outgoing deliveries.
func (t *Target) RotateSigningKey(ctx context.Context, logger coredomain.Logger) error {
	key, err := randomToken(32)
	if err != nil {
		return err
	}
	emit(ctx, logger, t, "target", "signing_key.rotated", TargetSigningKeyRotated{SigningKey: key})
	t.signingKey = key
	return nil
}

func (t *Target) Deactivate(ctx context.Context, logger coredomain.Logger) error {
	if t.state != TargetStateActive {
		return coredomain.NewDomainError("PRECONDITION_FAILED", "target is not active", nil)
	}
	emit(ctx, logger, t, "target", "deactivated", TargetDeactivated{})
	t.state = TargetStateInactive
	return nil
}

func (t *Target) Reactivate(ctx context.Context, logger coredomain.Logger) error {
	if t.state != TargetStateInactive {
		return coredomain.NewDomainError("PRECONDITION_FAILED", "target is not inactive", nil)
	}
	emit(ctx, logger, t, "target", "reactivated", TargetReactivated{})
	t.state = TargetStateActive
	return nil
}

func (t *Target) Remove(ctx context.Context, logger coredomain.Logger) error {
	if t.state == TargetStateRemoved {
		return coredomain.NewDomainError("PRECONDITION_FAILED", "target is already removed", nil)
	}
	emit(ctx, logger, t, "target", "removed", TargetRemoved{})
	t.state = TargetStateRemoved
	return nil
}

func (t *Target) ProjectID() string    { return t.projectID }
func (t *Target) Endpoint() string     { return t.endpoint }
func (t *Target) SigningKey() string   { return t.signingKey }
func (t *Target) State() TargetState   { return t.state }

func (t *Target) LoadFromHistory(events []coredomain.Event) {
	for _, event := range events {
		ee, ok := event.(*coredomain.EntityEvent)
		if !ok {
			continue
		}
		switch normalizeEventType("target", ee.EventType()) {
		case "target.added":
			var v TargetAdded
			DecodePayload(ee.Payload(), &v)
			t.apply(v)
		case "target.changed":
			var v TargetChanged
			DecodePayload(ee.Payload(), &v)
			t.apply(v)
		case "target.signing_key.rotated":
			var v TargetSigningKeyRotated
			DecodePayload(ee.Payload(), &v)
			t.apply(v)
		case "target.deactivated":
			t.apply(TargetDeactivated{})
		case "target.reactivated":
			t.apply(TargetReactivated{})
		case "target.removed":
			t.apply(TargetRemoved{})
		}
	}
	t.Entity.LoadFromHistory(events)
}

func (t *Target) apply(payload interface{}) {
	switch v := payload.(type) {
	case TargetAdded:
		t.projectID = v.ProjectID
		t.name = v.Name
		t.targetType = v.Type
		t.endpoint = v.Endpoint
		t.signingKey = v.SigningKey
		t.state = TargetStateActive
	case TargetChanged:
		if v.Name != "" {
			t.name = v.Name
		}
		if v.Endpoint != "" {
			t.endpoint = v.Endpoint
		}
	case TargetSigningKeyRotated:
		t.signingKey = v.SigningKey
	case TargetDeactivated:
		t.state = TargetStateInactive
	case TargetReactivated:
		t.state = TargetStateActive
	case TargetRemoved:
		t.state = TargetStateRemoved
	}
}

// TargetRepository loads and saves Target aggregates.
type TargetRepository = coredomain.Repository[*Target]

// NewBlankTarget returns an unpopulated Target identified by id, ready for
// LoadFromHistory. Used by the event-sourced repository to reconstruct an
// aggregate from its event history.
func NewBlankTarget(id string) *Target {
	return &Target{Entity: coredomain.NewEntity(id)}
}
