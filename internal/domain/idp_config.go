package domain

import (
	"context"

	coredomain "github.com/nexusiam/iamcore/pkg/domain"
)

// IDPType distinguishes the external identity provider protocol.
type IDPType string

const (
	IDPTypeOIDC  IDPType = "oidc"
	IDPTypeSAML  IDPType = "saml"
	IDPTypeLDAP  IDPType = "ldap"
)

// IDPConfigState is the lifecycle state of an IDP configuration.
type IDPConfigState string

const (
	IDPConfigStateActive   IDPConfigState = "active"
	IDPConfigStateInactive IDPConfigState = "inactive"
	IDPConfigStateRemoved  IDPConfigState = "removed"
)

// IDPConfig is an org- or instance-level external identity provider
// registration. Org-level configs are scoped by OrgID; instance-level
// configs (OrgID empty) are available to every org in the instance.
type IDPConfig struct {
	coredomain.Entity

	instanceID string
	orgID      string
	idpType    IDPType
	name       string
	issuer     string
	clientID   string
	state      IDPConfigState
}

type IDPConfigAdded struct {
	InstanceID string  `json:"instance_id"`
	OrgID      string  `json:"org_id,omitempty"`
	Type       IDPType `json:"type"`
	Name       string  `json:"name"`
	Issuer     string  `json:"issuer"`
	ClientID   string  `json:"client_id"`
}

type IDPConfigChanged struct {
	Name     string `json:"name,omitempty"`
	Issuer   string `json:"issuer,omitempty"`
	ClientID string `json:"client_id,omitempty"`
}

type IDPConfigDeactivated struct{}
type IDPConfigReactivated struct{}
type IDPConfigRemoved struct{}

// NewIDPConfig registers an external identity provider. orgID is empty for
// an instance-wide configuration.
func NewIDPConfig(ctx context.Context, logger coredomain.Logger, id, instanceID, orgID string, idpType IDPType, name, issuer, clientID string) (*IDPConfig, error) {
	if issuer == "" {
		return nil, coredomain.NewValidationError("issuer", "must not be empty", issuer)
	}
	c := &IDPConfig{Entity: coredomain.NewEntity(id)}
	added := IDPConfigAdded{InstanceID: instanceID, OrgID: orgID, Type: idpType, Name: name, Issuer: issuer, ClientID: clientID}
	emit(ctx, logger, c, "idp.config", "added", added)
	c.apply(added)
	return c, nil
}

// Change updates the mutable registration fields.
func (c *IDPConfig) Change(ctx context.Context, logger coredomain.Logger, name, issuer, clientID string) error {
	emit(ctx, logger, c, "idp.config", "changed", IDPConfigChanged{Name: name, Issuer: issuer, ClientID: clientID})
	if name != "" {
		c.name = name
	}
	if issuer != "" {
		c.issuer = issuer
	}
	if clientID != "" {
		c.clientID = clientID
	}
	return nil
}

func (c *IDPConfig) Deactivate(ctx context.Context, logger coredomain.Logger) error {
	if c.state != IDPConfigStateActive {
		return coredomain.NewDomainError("PRECONDITION_FAILED", "idp config is not active", nil)
	}
	emit(ctx, logger, c, "idp.config", "deactivated", IDPConfigDeactivated{})
	c.state = IDPConfigStateInactive
	return nil
}

func (c *IDPConfig) Reactivate(ctx context.Context, logger coredomain.Logger) error {
	if c.state != IDPConfigStateInactive {
		return coredomain.NewDomainError("PRECONDITION_FAILED", "idp config is not inactive", nil)
	}
	emit(ctx, logger, c, "idp.config", "reactivated", IDPConfigReactivated{})
	c.state = IDPConfigStateActive
	return nil
}

func (c *IDPConfig) Remove(ctx context.Context, logger coredomain.Logger) error {
	if c.state == IDPConfigStateRemoved {
		return coredomain.NewDomainError("PRECONDITION_FAILED", "idp config is already removed", nil)
	}
	emit(ctx, logger, c, "idp.config", "removed", IDPConfigRemoved{})
	c.state = IDPConfigStateRemoved
	return nil
}

func (c *IDPConfig) OrgID() string        { return c.orgID }
func (c *IDPConfig) Type() IDPType        { return c.idpType }
func (c *IDPConfig) Issuer() string       { return c.issuer }
func (c *IDPConfig) State() IDPConfigState { return c.state }

func (c *IDPConfig) LoadFromHistory(events []coredomain.Event) {
	for _, event := range events {
		ee, ok := event.(*coredomain.EntityEvent)
		if !ok {
			continue
		}
		switch normalizeEventType("idp.config", ee.EventType()) {
		case "idp.config.added":
			var v IDPConfigAdded
			DecodePayload(ee.Payload(), &v)
			c.apply(v)
		case "idp.config.changed":
			var v IDPConfigChanged
			DecodePayload(ee.Payload(), &v)
			c.apply(v)
		case "idp.config.deactivated":
			c.apply(IDPConfigDeactivated{})
		case "idp.config.reactivated":
			c.apply(IDPConfigReactivated{})
		case "idp.config.removed":
			c.apply(IDPConfigRemoved{})
		}
	}
	c.Entity.LoadFromHistory(events)
}

func (c *IDPConfig) apply(payload interface{}) {
	switch v := payload.(type) {
	case IDPConfigAdded:
		c.instanceID = v.InstanceID
		c.orgID = v.OrgID
		c.idpType = v.Type
		c.name = v.Name
		c.issuer = v.Issuer
		c.clientID = v.ClientID
		c.state = IDPConfigStateActive
	case IDPConfigChanged:
		if v.Name != "" {
			c.name = v.Name
		}
		if v.Issuer != "" {
			c.issuer = v.Issuer
		}
		if v.ClientID != "" {
			c.clientID = v.ClientID
		}
	case IDPConfigDeactivated:
		c.state = IDPConfigStateInactive
	case IDPConfigReactivated:
		c.state = IDPConfigStateActive
	case IDPConfigRemoved:
		c.state = IDPConfigStateRemoved
	}
}

// IDPConfigRepository loads and saves IDPConfig aggregates.
type IDPConfigRepository = coredomain.Repository[*IDPConfig]

// NewBlankIDPConfig returns an unpopulated IDPConfig identified by id, ready for
// LoadFromHistory. Used by the event-sourced repository to reconstruct an
// aggregate from its event history.
func NewBlankIDPConfig(id string) *IDPConfig {
	return &IDPConfig{Entity: coredomain.NewEntity(id)}
}
