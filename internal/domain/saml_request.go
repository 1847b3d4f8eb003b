package domain

import (
	"context"

	coredomain "github.com/nexusiam/iamcore/pkg/domain"
)

// SAMLRequestState is the state of an inbound SP-initiated SAML authentication
// request pending a decision against the requesting application.
type SAMLRequestState string

const (
	SAMLRequestStateAdded     SAMLRequestState = "added"
	SAMLRequestStateSucceeded SAMLRequestState = "succeeded"
	SAMLRequestStateFailed    SAMLRequestState = "failed"
)

// SAMLRequest tracks one inbound AuthnRequest from an Application of type
// saml, from receipt through to the user it was authorized for (or a
// rejection when the requesting user holds no active grant on the
// application's project).
type SAMLRequest struct {
	coredomain.Entity

	applicationID string
	issuer        string
	acsURL        string
	relayState    string

	status     SAMLRequestState
	userID     string
	failReason string
}

type SAMLRequestAdded struct {
	ApplicationID string `json:"application_id"`
	Issuer        string `json:"issuer"`
	ACSURL        string `json:"acs_url"`
	RelayState    string `json:"relay_state"`
}

type SAMLRequestSucceeded struct {
	UserID string `json:"user_id"`
}

type SAMLRequestFailed struct {
	Reason string `json:"reason"`
}

// NewSAMLRequest records an inbound AuthnRequest for applicationID.
func NewSAMLRequest(ctx context.Context, logger coredomain.Logger, id, applicationID, issuer, acsURL, relayState string) (*SAMLRequest, error) {
	if applicationID == "" {
		return nil, coredomain.NewValidationError("application_id", "must not be empty", applicationID)
	}
	r := &SAMLRequest{Entity: coredomain.NewEntity(id)}
	added := SAMLRequestAdded{ApplicationID: applicationID, Issuer: issuer, ACSURL: acsURL, RelayState: relayState}
	emit(ctx, logger, r, "saml.request", "added", added)
	r.apply(added)
	return r, nil
}

// LinkToUser authorizes the request for userID. Callers must have already
// verified userID holds an active grant on the application's project
// (the authorization check lives outside the aggregate, against the
// UserGrant projection, per the event-sourced cross-aggregate read rule).
func (r *SAMLRequest) LinkToUser(ctx context.Context, logger coredomain.Logger, userID string) error {
	if r.status != SAMLRequestStateAdded {
		return coredomain.NewDomainError("PRECONDITION_FAILED", "request is not pending", nil)
	}
	succeeded := SAMLRequestSucceeded{UserID: userID}
	emit(ctx, logger, r, "saml.request", "succeeded", succeeded)
	r.apply(succeeded)
	return nil
}

// Fail rejects the request, e.g. because the user has no grant on the
// application's project.
func (r *SAMLRequest) Fail(ctx context.Context, logger coredomain.Logger, reason string) error {
	if r.status != SAMLRequestStateAdded {
		return coredomain.NewDomainError("PRECONDITION_FAILED", "request is not pending", nil)
	}
	failed := SAMLRequestFailed{Reason: reason}
	emit(ctx, logger, r, "saml.request", "failed", failed)
	r.apply(failed)
	return nil
}

func (r *SAMLRequest) State() SAMLRequestState { return r.status }
func (r *SAMLRequest) ApplicationID() string   { return r.applicationID }
func (r *SAMLRequest) UserID() string          { return r.userID }

func (r *SAMLRequest) LoadFromHistory(events []coredomain.Event) {
	for _, event := range events {
		ee, ok := event.(*coredomain.EntityEvent)
		if !ok {
			continue
		}
		switch normalizeEventType("saml.request", ee.EventType()) {
		case "saml.request.added":
			var v SAMLRequestAdded
			DecodePayload(ee.Payload(), &v)
			r.apply(v)
		case "saml.request.succeeded":
			var v SAMLRequestSucceeded
			DecodePayload(ee.Payload(), &v)
			r.apply(v)
		case "saml.request.failed":
			var v SAMLRequestFailed
			DecodePayload(ee.Payload(), &v)
			r.apply(v)
		}
	}
	r.Entity.LoadFromHistory(events)
}

func (r *SAMLRequest) apply(payload interface{}) {
	switch v := payload.(type) {
	case SAMLRequestAdded:
		r.applicationID = v.ApplicationID
		r.issuer = v.Issuer
		r.acsURL = v.ACSURL
		r.relayState = v.RelayState
		r.status = SAMLRequestStateAdded
	case SAMLRequestSucceeded:
		r.userID = v.UserID
		r.status = SAMLRequestStateSucceeded
	case SAMLRequestFailed:
		r.failReason = v.Reason
		r.status = SAMLRequestStateFailed
	}
}

// SAMLRequestRepository loads and saves SAMLRequest aggregates.
type SAMLRequestRepository = coredomain.Repository[*SAMLRequest]

// NewBlankSAMLRequest returns an unpopulated SAMLRequest identified by id, ready for
// LoadFromHistory. Used by the event-sourced repository to reconstruct an
// aggregate from its event history.
func NewBlankSAMLRequest(id string) *SAMLRequest {
	return &SAMLRequest{Entity: coredomain.NewEntity(id)}
}
