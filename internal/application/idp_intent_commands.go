package application

import (
	"context"
	"errors"
	"time"

	iamdomain "github.com/nexusiam/iamcore/internal/domain"
	"github.com/nexusiam/iamcore/internal/idgen"
	coreapp "github.com/nexusiam/iamcore/pkg/application"
	coredomain "github.com/nexusiam/iamcore/pkg/domain"
	"github.com/nexusiam/iamcore/pkg/infrastructure"
)

type StartIDPIntentCommand struct {
	IDPConfigID string `json:"idp_config_id"`
	OrgID       string `json:"org_id"`
	SuccessURL  string `json:"success_url"`
	FailureURL  string `json:"failure_url"`
}

func (c StartIDPIntentCommand) CommandType() string { return "iam.idp_intent.start" }
func (c StartIDPIntentCommand) Validate() error {
	if c.IDPConfigID == "" {
		return errors.New("idp_config_id is required")
	}
	return nil
}

// SucceedIDPIntentCommand completes a handshake. If ExistingUserID is set
// the caller (who resolves the user-lookup-by-external-id query) has
// matched an existing account and the identity is linked to it; otherwise
// a new user is provisioned inline from the IDP-supplied profile.
type SucceedIDPIntentCommand struct {
	IDPIntentID    string `json:"idp_intent_id"`
	ExternalUserID string `json:"external_user_id"`
	ExistingUserID string `json:"existing_user_id,omitempty"`
	OrgID          string `json:"org_id"`
	Username       string `json:"username,omitempty"`
	Email          string `json:"email,omitempty"`
	FirstName      string `json:"first_name,omitempty"`
	LastName       string `json:"last_name,omitempty"`
}

func (c SucceedIDPIntentCommand) CommandType() string { return "iam.idp_intent.succeed" }
func (c SucceedIDPIntentCommand) Validate() error {
	if c.IDPIntentID == "" {
		return errors.New("idp_intent_id is required")
	}
	if c.ExternalUserID == "" {
		return errors.New("external_user_id is required")
	}
	return nil
}

type FailIDPIntentCommand struct {
	IDPIntentID string `json:"idp_intent_id"`
	Reason      string `json:"reason"`
}

func (c FailIDPIntentCommand) CommandType() string { return "iam.idp_intent.fail" }

type ExpireIDPIntentCommand struct{ IDPIntentID string `json:"idp_intent_id"` }

func (c ExpireIDPIntentCommand) CommandType() string { return "iam.idp_intent.expire" }

// IDPIntentCommandHandlers groups the IDP login handshake command handlers.
// Succeed spans two aggregates (IDPIntent and User) that each keep their own
// event stream, so it issues two independent repository saves rather than a
// single shared UnitOfWork commit — unlike the org-provisioning composite
// command, there is no invariant here that requires both writes to land
// atomically; a user successfully provisioned with an intent that fails to
// mark itself succeeded is safe to retry or reconcile at read time.
type IDPIntentCommandHandlers struct {
	repo     iamdomain.IDPIntentRepository
	userRepo iamdomain.UserRepository
	config   infrastructure.IntentsConfig
}

func NewIDPIntentCommandHandlers(repo iamdomain.IDPIntentRepository, userRepo iamdomain.UserRepository, config infrastructure.IntentsConfig) *IDPIntentCommandHandlers {
	return &IDPIntentCommandHandlers{repo: repo, userRepo: userRepo, config: config}
}

func (h *IDPIntentCommandHandlers) Start(ctx context.Context, log coredomain.Logger, p coreapp.Payload[StartIDPIntentCommand]) (coreapp.Response[any], error) {
	c := p.Data
	intent, err := iamdomain.NewIDPIntent(ctx, log, idgen.New(), c.IDPConfigID, c.OrgID, c.SuccessURL, c.FailureURL, h.config.TTL)
	if err != nil {
		return errResponse(translateErr(err))
	}
	if err := h.repo.Save(ctx, intent); err != nil {
		return errResponse(translateErr(err))
	}
	return coreapp.Response[any]{
		Data: intent.ID(),
		Metadata: map[string]any{
			"version":       intent.Version(),
			"state":         intent.CSRFState(),
			"nonce":         intent.Nonce(),
			"code_verifier": intent.CodeVerifier(),
		},
	}, nil
}

func (h *IDPIntentCommandHandlers) Succeed(ctx context.Context, log coredomain.Logger, p coreapp.Payload[SucceedIDPIntentCommand]) (coreapp.Response[any], error) {
	c := p.Data

	current, err := h.repo.Load(ctx, c.IDPIntentID)
	if err != nil {
		return errResponse(translateErr(err))
	}
	if current.Expired(time.Now()) {
		return errResponse(translateErr(coredomain.NewDomainError("PRECONDITION_FAILED", "idp intent has expired", nil)))
	}

	var userID string
	if c.ExistingUserID != "" {
		user, err := loadModifySave(ctx, h.userRepo, c.ExistingUserID, func(u *iamdomain.User) error {
			return u.LinkIDPIdentity(ctx, log, c.IDPIntentID, c.ExternalUserID)
		})
		if err != nil {
			return errResponse(err)
		}
		userID = user.ID()
	} else {
		user, err := iamdomain.NewUserFromIDP(ctx, log, idgen.New(), c.OrgID, iamdomain.UserKindHuman, c.Username, c.Email, c.FirstName, c.LastName, c.IDPIntentID, c.ExternalUserID)
		if err != nil {
			return errResponse(translateErr(err))
		}
		if err := h.userRepo.Save(ctx, user); err != nil {
			return errResponse(translateErr(err))
		}
		userID = user.ID()
	}

	intent, err := loadModifySave(ctx, h.repo, c.IDPIntentID, func(i *iamdomain.IDPIntent) error {
		return i.Succeed(ctx, log, c.ExternalUserID)
	})
	if err != nil {
		return errResponse(err)
	}
	return coreapp.Response[any]{Data: userID, Metadata: map[string]any{"version": intent.Version()}}, nil
}

func (h *IDPIntentCommandHandlers) Fail(ctx context.Context, log coredomain.Logger, p coreapp.Payload[FailIDPIntentCommand]) (coreapp.Response[any], error) {
	c := p.Data
	intent, err := loadModifySave(ctx, h.repo, c.IDPIntentID, func(i *iamdomain.IDPIntent) error { return i.Fail(ctx, log, c.Reason) })
	if err != nil {
		return errResponse(err)
	}
	return okResponse(intent.Version()), nil
}

func (h *IDPIntentCommandHandlers) Expire(ctx context.Context, log coredomain.Logger, p coreapp.Payload[ExpireIDPIntentCommand]) (coreapp.Response[any], error) {
	intent, err := loadModifySave(ctx, h.repo, p.Data.IDPIntentID, func(i *iamdomain.IDPIntent) error { return i.Expire(ctx, log) })
	if err != nil {
		return errResponse(err)
	}
	return okResponse(intent.Version()), nil
}
