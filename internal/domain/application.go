package domain

import (
	"context"

	coredomain "github.com/nexusiam/iamcore/pkg/domain"
)

// AppType distinguishes the three application variants a project can own.
type AppType string

const (
	AppTypeOIDC AppType = "oidc"
	AppTypeSAML AppType = "saml"
	AppTypeAPI  AppType = "api"
)

// AppState is the lifecycle state of an application.
type AppState string

const (
	AppStateActive   AppState = "active"
	AppStateInactive AppState = "inactive"
	AppStateRemoved  AppState = "removed"
)

// Application is a project-owned OIDC, SAML, or API client registration.
// Each variant carries its own config blob; generic lifecycle transitions
// (deactivate/reactivate/remove) apply uniformly across all three, per the
// projection contract.
type Application struct {
	coredomain.Entity

	projectID string
	appType   AppType
	name      string

	// OIDC
	redirectURIs []string
	// SAML
	entityID string
	acsURL   string
	// API / shared
	clientSecretHash string

	state AppState
}

type ApplicationOIDCAdded struct {
	ProjectID    string   `json:"project_id"`
	Name         string   `json:"name"`
	RedirectURIs []string `json:"redirect_uris"`
}

type ApplicationSAMLAdded struct {
	ProjectID string `json:"project_id"`
	Name      string `json:"name"`
	EntityID  string `json:"entity_id"`
	ACSURL    string `json:"acs_url"`
}

type ApplicationAPIAdded struct {
	ProjectID string `json:"project_id"`
	Name      string `json:"name"`
}

type ApplicationChanged struct {
	Name         string   `json:"name,omitempty"`
	RedirectURIs []string `json:"redirect_uris,omitempty"`
	EntityID     string   `json:"entity_id,omitempty"`
	ACSURL       string   `json:"acs_url,omitempty"`
}

type ApplicationSecretChanged struct {
	ClientSecretHash string `json:"client_secret_hash"`
}

type ApplicationDeactivated struct{}
type ApplicationReactivated struct{}
type ApplicationRemoved struct{}

// NewOIDCApplication creates a project-owned OIDC client.
func NewOIDCApplication(ctx context.Context, logger coredomain.Logger, id, projectID, name string, redirectURIs []string) (*Application, error) {
	if name == "" {
		return nil, coredomain.NewValidationError("name", "must not be empty", name)
	}
	a := &Application{Entity: coredomain.NewEntity(id)}
	added := ApplicationOIDCAdded{ProjectID: projectID, Name: name, RedirectURIs: redirectURIs}
	emit(ctx, logger, a, "application.oidc", "added", added)
	a.appType = AppTypeOIDC
	a.applyOIDCAdded(added)
	return a, nil
}

// NewSAMLApplication creates a project-owned SAML service provider.
func NewSAMLApplication(ctx context.Context, logger coredomain.Logger, id, projectID, name, entityID, acsURL string) (*Application, error) {
	if entityID == "" {
		return nil, coredomain.NewValidationError("entity_id", "must not be empty", entityID)
	}
	a := &Application{Entity: coredomain.NewEntity(id)}
	added := ApplicationSAMLAdded{ProjectID: projectID, Name: name, EntityID: entityID, ACSURL: acsURL}
	emit(ctx, logger, a, "application.saml", "added", added)
	a.appType = AppTypeSAML
	a.applySAMLAdded(added)
	return a, nil
}

// NewAPIApplication creates a project-owned machine-to-machine API client.
func NewAPIApplication(ctx context.Context, logger coredomain.Logger, id, projectID, name string) (*Application, error) {
	if name == "" {
		return nil, coredomain.NewValidationError("name", "must not be empty", name)
	}
	a := &Application{Entity: coredomain.NewEntity(id)}
	added := ApplicationAPIAdded{ProjectID: projectID, Name: name}
	emit(ctx, logger, a, "application.api", "added", added)
	a.appType = AppTypeAPI
	a.applyAPIAdded(added)
	return a, nil
}

func (a *Application) applyOIDCAdded(v ApplicationOIDCAdded) {
	a.projectID, a.name, a.redirectURIs, a.state = v.ProjectID, v.Name, v.RedirectURIs, AppStateActive
}
func (a *Application) applySAMLAdded(v ApplicationSAMLAdded) {
	a.projectID, a.name, a.entityID, a.acsURL, a.state = v.ProjectID, v.Name, v.EntityID, v.ACSURL, AppStateActive
}
func (a *Application) applyAPIAdded(v ApplicationAPIAdded) {
	a.projectID, a.name, a.state = v.ProjectID, v.Name, AppStateActive
}

// ChangeSecret rotates the client secret hash for API/OIDC confidential clients.
func (a *Application) ChangeSecret(ctx context.Context, logger coredomain.Logger, hash string) error {
	eventType := string(a.appType) + ".secret.changed"
	emit(ctx, logger, a, "application", eventType, ApplicationSecretChanged{ClientSecretHash: hash})
	a.clientSecretHash = hash
	return nil
}

// Deactivate, Reactivate, Remove are generic across every app type.
func (a *Application) Deactivate(ctx context.Context, logger coredomain.Logger) error {
	if a.state != AppStateActive {
		return coredomain.NewDomainError("PRECONDITION_FAILED", "application is not active", nil)
	}
	emit(ctx, logger, a, "application", "deactivated", ApplicationDeactivated{})
	a.state = AppStateInactive
	return nil
}

func (a *Application) Reactivate(ctx context.Context, logger coredomain.Logger) error {
	if a.state != AppStateInactive {
		return coredomain.NewDomainError("PRECONDITION_FAILED", "application is not inactive", nil)
	}
	emit(ctx, logger, a, "application", "reactivated", ApplicationReactivated{})
	a.state = AppStateActive
	return nil
}

func (a *Application) Remove(ctx context.Context, logger coredomain.Logger) error {
	if a.state == AppStateRemoved {
		return coredomain.NewDomainError("PRECONDITION_FAILED", "application is already removed", nil)
	}
	emit(ctx, logger, a, "application", "removed", ApplicationRemoved{})
	a.state = AppStateRemoved
	return nil
}

func (a *Application) Type() AppType      { return a.appType }
func (a *Application) State() AppState    { return a.state }
func (a *Application) ProjectID() string  { return a.projectID }
func (a *Application) EntityID() string   { return a.entityID }

func (a *Application) LoadFromHistory(events []coredomain.Event) {
	for _, event := range events {
		ee, ok := event.(*coredomain.EntityEvent)
		if !ok {
			continue
		}
		eventType := ee.EventType()
		switch {
		case normalizeEventType("application.oidc", eventType) == "application.oidc.added":
			var v ApplicationOIDCAdded
			DecodePayload(ee.Payload(), &v)
			a.appType = AppTypeOIDC
			a.applyOIDCAdded(v)
		case normalizeEventType("application.saml", eventType) == "application.saml.added":
			var v ApplicationSAMLAdded
			DecodePayload(ee.Payload(), &v)
			a.appType = AppTypeSAML
			a.applySAMLAdded(v)
		case normalizeEventType("application.api", eventType) == "application.api.added":
			var v ApplicationAPIAdded
			DecodePayload(ee.Payload(), &v)
			a.appType = AppTypeAPI
			a.applyAPIAdded(v)
		case normalizeEventType("application", eventType) == "application.changed":
			var v ApplicationChanged
			DecodePayload(ee.Payload(), &v)
			a.applyChanged(v)
		case normalizeEventType("application", eventType) == "application.deactivated":
			a.state = AppStateInactive
		case normalizeEventType("application", eventType) == "application.reactivated":
			a.state = AppStateActive
		case normalizeEventType("application", eventType) == "application.removed":
			a.state = AppStateRemoved
		}
	}
	a.Entity.LoadFromHistory(events)
}

func (a *Application) applyChanged(v ApplicationChanged) {
	if v.Name != "" {
		a.name = v.Name
	}
	if v.RedirectURIs != nil {
		a.redirectURIs = v.RedirectURIs
	}
	if v.EntityID != "" {
		a.entityID = v.EntityID
	}
	if v.ACSURL != "" {
		a.acsURL = v.ACSURL
	}
}

// ApplicationRepository loads and saves Application aggregates.
type ApplicationRepository = coredomain.Repository[*Application]

// NewBlankApplication returns an unpopulated Application identified by id, ready for
// LoadFromHistory. Used by the event-sourced repository to reconstruct an
// aggregate from its event history.
func NewBlankApplication(id string) *Application {
	return &Application{Entity: coredomain.NewEntity(id)}
}
