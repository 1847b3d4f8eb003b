package application

import (
	"context"
	"errors"

	"github.com/nexusiam/iamcore/internal/application/authz"
	iamdomain "github.com/nexusiam/iamcore/internal/domain"
	"github.com/nexusiam/iamcore/internal/idgen"
	coreapp "github.com/nexusiam/iamcore/pkg/application"
	coredomain "github.com/nexusiam/iamcore/pkg/domain"
)

type StartSAMLRequestCommand struct {
	ApplicationID string `json:"application_id"`
	Issuer        string `json:"issuer"`
	ACSURL        string `json:"acs_url"`
	RelayState    string `json:"relay_state"`
}

func (c StartSAMLRequestCommand) CommandType() string { return "iam.saml_request.start" }
func (c StartSAMLRequestCommand) Validate() error {
	if c.ApplicationID == "" {
		return errors.New("application_id is required")
	}
	return nil
}

// LinkSAMLRequestCommand authorizes a pending request for a user.
// SAMLRequestCommandHandlers.Link checks the user holds an active grant on
// the requesting application's project before linking; LinkToUser's own
// precondition only enforces the request's state machine, not
// authorization.
type LinkSAMLRequestCommand struct {
	SAMLRequestID string `json:"saml_request_id"`
	UserID        string `json:"user_id"`
}

func (c LinkSAMLRequestCommand) CommandType() string { return "iam.saml_request.link" }
func (c LinkSAMLRequestCommand) Validate() error {
	if c.UserID == "" {
		return errors.New("user_id is required")
	}
	return nil
}

type FailSAMLRequestCommand struct {
	SAMLRequestID string `json:"saml_request_id"`
	Reason        string `json:"reason"`
}

func (c FailSAMLRequestCommand) CommandType() string { return "iam.saml_request.fail" }

// SAMLRequestCommandHandlers groups every SAML request command handler.
type SAMLRequestCommandHandlers struct {
	repo       iamdomain.SAMLRequestRepository
	authorizer *authz.Authorizer
}

func NewSAMLRequestCommandHandlers(repo iamdomain.SAMLRequestRepository, authorizer *authz.Authorizer) *SAMLRequestCommandHandlers {
	return &SAMLRequestCommandHandlers{repo: repo, authorizer: authorizer}
}

func (h *SAMLRequestCommandHandlers) Start(ctx context.Context, log coredomain.Logger, p coreapp.Payload[StartSAMLRequestCommand]) (coreapp.Response[any], error) {
	c := p.Data
	req, err := iamdomain.NewSAMLRequest(ctx, log, idgen.New(), c.ApplicationID, c.Issuer, c.ACSURL, c.RelayState)
	if err != nil {
		return errResponse(translateErr(err))
	}
	if err := h.repo.Save(ctx, req); err != nil {
		return errResponse(translateErr(err))
	}
	return coreapp.Response[any]{Data: req.ID(), Metadata: map[string]any{"version": req.Version()}}, nil
}

func (h *SAMLRequestCommandHandlers) Link(ctx context.Context, log coredomain.Logger, p coreapp.Payload[LinkSAMLRequestCommand]) (coreapp.Response[any], error) {
	c := p.Data
	pending, err := h.repo.Load(ctx, c.SAMLRequestID)
	if err != nil {
		return errResponse(translateErr(err))
	}
	granted, err := h.authorizer.HasActiveGrantForApplication(ctx, c.UserID, pending.ApplicationID())
	if err != nil {
		return errResponse(translateErr(err))
	}
	if !granted {
		err := coreapp.NewPermissionDeniedError(c.UserID, "saml_request.link")
		return errResponse(err)
	}

	req, err := loadModifySave(ctx, h.repo, c.SAMLRequestID, func(r *iamdomain.SAMLRequest) error {
		return r.LinkToUser(ctx, log, c.UserID)
	})
	if err != nil {
		return errResponse(err)
	}
	return okResponse(req.Version()), nil
}

func (h *SAMLRequestCommandHandlers) Fail(ctx context.Context, log coredomain.Logger, p coreapp.Payload[FailSAMLRequestCommand]) (coreapp.Response[any], error) {
	c := p.Data
	req, err := loadModifySave(ctx, h.repo, c.SAMLRequestID, func(r *iamdomain.SAMLRequest) error { return r.Fail(ctx, log, c.Reason) })
	if err != nil {
		return errResponse(err)
	}
	return okResponse(req.Version()), nil
}
