package domain

import (
	"context"
	"encoding/base64"
	"time"

	"github.com/gorilla/securecookie"

	coredomain "github.com/nexusiam/iamcore/pkg/domain"
)

// IDPIntentState is the state of an in-progress external login handshake.
type IDPIntentState string

const (
	IDPIntentStateStarted   IDPIntentState = "started"
	IDPIntentStateSucceeded IDPIntentState = "succeeded"
	IDPIntentStateFailed    IDPIntentState = "failed"
	IDPIntentStateExpired   IDPIntentState = "expired"
)

// IDPIntent tracks one OIDC/SAML login round trip against an external
// identity provider: started carries the CSRF state/nonce/PKCE verifier,
// exactly one of succeeded/failed/expired follows.
type IDPIntent struct {
	coredomain.Entity

	idpConfigID  string
	orgID        string
	state        string
	nonce        string
	codeVerifier string
	successURL   string
	failureURL   string
	expiresAt    time.Time

	status     IDPIntentState
	externalID string
	failReason string
}

type IDPIntentStarted struct {
	IDPConfigID  string    `json:"idp_config_id"`
	OrgID        string    `json:"org_id"`
	State        string    `json:"state"`
	Nonce        string    `json:"nonce"`
	CodeVerifier string    `json:"code_verifier"`
	SuccessURL   string    `json:"success_url"`
	FailureURL   string    `json:"failure_url"`
	ExpiresAt    time.Time `json:"expires_at"`
}

type IDPIntentSucceeded struct {
	ExternalUserID string `json:"external_user_id"`
}

type IDPIntentFailed struct {
	Reason string `json:"reason"`
}

type IDPIntentExpired struct{}

// NewIDPIntent starts a login handshake against idpConfigID, generating
// CSRF-resistant state/nonce/PKCE verifier material with securecookie's
// CSPRNG-backed key generator (the same primitive the pack uses for signing
// keys, reused here for single-use handshake tokens rather than a MAC key).
// ttl comes from the caller's IntentsConfig rather than the command payload,
// mirroring Session.IssueToken: callers never get to choose how long a
// handshake stays live.
func NewIDPIntent(ctx context.Context, logger coredomain.Logger, id, idpConfigID, orgID, successURL, failureURL string, ttl time.Duration) (*IDPIntent, error) {
	if idpConfigID == "" {
		return nil, coredomain.NewValidationError("idp_config_id", "must not be empty", idpConfigID)
	}

	state, err := randomToken(32)
	if err != nil {
		return nil, coredomain.NewDomainError("RANDOM_SOURCE_FAILED", "failed to generate state token", err)
	}
	nonce, err := randomToken(32)
	if err != nil {
		return nil, coredomain.NewDomainError("RANDOM_SOURCE_FAILED", "failed to generate nonce", err)
	}
	// 32 random bytes, base64url-encoded without padding, yields the
	// spec's 43-character PKCE code verifier.
	verifier, err := randomToken(32)
	if err != nil {
		return nil, coredomain.NewDomainError("RANDOM_SOURCE_FAILED", "failed to generate code verifier", err)
	}

	i := &IDPIntent{Entity: coredomain.NewEntity(id)}
	started := IDPIntentStarted{
		IDPConfigID:  idpConfigID,
		OrgID:        orgID,
		State:        state,
		Nonce:        nonce,
		CodeVerifier: verifier,
		SuccessURL:   successURL,
		FailureURL:   failureURL,
		ExpiresAt:    time.Now().Add(ttl),
	}
	emit(ctx, logger, i, "idp.intent", "started", started)
	i.apply(started)
	return i, nil
}

func randomToken(n int) (string, error) {
	key := securecookie.GenerateRandomKey(n)
	if key == nil {
		return "", coredomain.NewDomainError("RANDOM_SOURCE_FAILED", "secure random source exhausted", nil)
	}
	return base64.RawURLEncoding.EncodeToString(key), nil
}

// Succeed completes the handshake, binding it to the provider's external
// user id. Only valid from started.
func (i *IDPIntent) Succeed(ctx context.Context, logger coredomain.Logger, externalUserID string) error {
	if i.status != IDPIntentStateStarted {
		return coredomain.NewDomainError("PRECONDITION_FAILED", "intent is not pending", nil)
	}
	succeeded := IDPIntentSucceeded{ExternalUserID: externalUserID}
	emit(ctx, logger, i, "idp.intent", "succeeded", succeeded)
	i.apply(succeeded)
	return nil
}

// Fail rejects the handshake, e.g. on a provider error callback or state
// mismatch. Only valid from started.
func (i *IDPIntent) Fail(ctx context.Context, logger coredomain.Logger, reason string) error {
	if i.status != IDPIntentStateStarted {
		return coredomain.NewDomainError("PRECONDITION_FAILED", "intent is not pending", nil)
	}
	failed := IDPIntentFailed{Reason: reason}
	emit(ctx, logger, i, "idp.intent", "failed", failed)
	i.apply(failed)
	return nil
}

// Expire marks the intent as expired because it was left pending past its
// TTL. Only valid from started.
func (i *IDPIntent) Expire(ctx context.Context, logger coredomain.Logger) error {
	if i.status != IDPIntentStateStarted {
		return coredomain.NewDomainError("PRECONDITION_FAILED", "intent is not pending", nil)
	}
	emit(ctx, logger, i, "idp.intent", "expired", IDPIntentExpired{})
	i.apply(IDPIntentExpired{})
	return nil
}

func (i *IDPIntent) State() IDPIntentState   { return i.status }
func (i *IDPIntent) CSRFState() string       { return i.state }
func (i *IDPIntent) Nonce() string           { return i.nonce }
func (i *IDPIntent) CodeVerifier() string    { return i.codeVerifier }
func (i *IDPIntent) IDPConfigID() string     { return i.idpConfigID }
func (i *IDPIntent) ExternalUserID() string  { return i.externalID }
func (i *IDPIntent) ExpiresAt() time.Time    { return i.expiresAt }

// Expired reports whether the intent is past its TTL and still pending.
// Expired intents must not authenticate: Succeed/Fail only ever see a
// started intent, so this is the predicate a command handler checks
// before trusting a lookup_by_state hit.
func (i *IDPIntent) Expired(now time.Time) bool {
	return i.status == IDPIntentStateStarted && !i.expiresAt.IsZero() && now.After(i.expiresAt)
}

func (i *IDPIntent) LoadFromHistory(events []coredomain.Event) {
	for _, event := range events {
		ee, ok := event.(*coredomain.EntityEvent)
		if !ok {
			continue
		}
		switch normalizeEventType("idp.intent", ee.EventType()) {
		case "idp.intent.started":
			var v IDPIntentStarted
			DecodePayload(ee.Payload(), &v)
			i.apply(v)
		case "idp.intent.succeeded":
			var v IDPIntentSucceeded
			DecodePayload(ee.Payload(), &v)
			i.apply(v)
		case "idp.intent.failed":
			var v IDPIntentFailed
			DecodePayload(ee.Payload(), &v)
			i.apply(v)
		case "idp.intent.expired":
			i.apply(IDPIntentExpired{})
		}
	}
	i.Entity.LoadFromHistory(events)
}

func (i *IDPIntent) apply(payload interface{}) {
	switch v := payload.(type) {
	case IDPIntentStarted:
		i.idpConfigID = v.IDPConfigID
		i.orgID = v.OrgID
		i.state = v.State
		i.nonce = v.Nonce
		i.codeVerifier = v.CodeVerifier
		i.successURL = v.SuccessURL
		i.failureURL = v.FailureURL
		i.expiresAt = v.ExpiresAt
		i.status = IDPIntentStateStarted
	case IDPIntentSucceeded:
		i.externalID = v.ExternalUserID
		i.status = IDPIntentStateSucceeded
	case IDPIntentFailed:
		i.failReason = v.Reason
		i.status = IDPIntentStateFailed
	case IDPIntentExpired:
		i.status = IDPIntentStateExpired
	}
}

// IDPIntentRepository loads and saves IDPIntent aggregates.
type IDPIntentRepository = coredomain.Repository[*IDPIntent]

// NewBlankIDPIntent returns an unpopulated IDPIntent identified by id, ready for
// LoadFromHistory. Used by the event-sourced repository to reconstruct an
// aggregate from its event history.
func NewBlankIDPIntent(id string) *IDPIntent {
	return &IDPIntent{Entity: coredomain.NewEntity(id)}
}
