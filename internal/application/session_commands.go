package application

import (
	"context"
	"errors"

	iamdomain "github.com/nexusiam/iamcore/internal/domain"
	"github.com/nexusiam/iamcore/internal/idgen"
	coreapp "github.com/nexusiam/iamcore/pkg/application"
	coredomain "github.com/nexusiam/iamcore/pkg/domain"
	"github.com/nexusiam/iamcore/pkg/infrastructure"
)

type StartSessionCommand struct {
	UserID string `json:"user_id"`
	OrgID  string `json:"org_id"`
}

func (c StartSessionCommand) CommandType() string { return "iam.session.start" }
func (c StartSessionCommand) Validate() error {
	if c.UserID == "" {
		return errors.New("user_id is required")
	}
	return nil
}

type IssueSessionTokenCommand struct {
	SessionID string `json:"session_id"`
	TokenID   string `json:"token_id"`
}

func (c IssueSessionTokenCommand) CommandType() string { return "iam.session.issue_token" }
func (c IssueSessionTokenCommand) Validate() error {
	if c.TokenID == "" {
		return errors.New("token_id is required")
	}
	return nil
}

type RevokeSessionTokenCommand struct {
	SessionID string `json:"session_id"`
	TokenID   string `json:"token_id"`
}

func (c RevokeSessionTokenCommand) CommandType() string { return "iam.session.revoke_token" }

type TerminateSessionCommand struct{ SessionID string `json:"session_id"` }

func (c TerminateSessionCommand) CommandType() string { return "iam.session.terminate" }

// SessionCommandHandlers groups every session command handler. The signing
// key and token TTL come from SessionsConfig rather than the command
// payload, so callers never get to choose how long or with what key a
// token is minted.
type SessionCommandHandlers struct {
	repo   iamdomain.SessionRepository
	config infrastructure.SessionsConfig
}

func NewSessionCommandHandlers(repo iamdomain.SessionRepository, config infrastructure.SessionsConfig) *SessionCommandHandlers {
	return &SessionCommandHandlers{repo: repo, config: config}
}

func (h *SessionCommandHandlers) Start(ctx context.Context, log coredomain.Logger, p coreapp.Payload[StartSessionCommand]) (coreapp.Response[any], error) {
	c := p.Data
	session, err := iamdomain.NewSession(ctx, log, idgen.New(), c.UserID, c.OrgID)
	if err != nil {
		return errResponse(translateErr(err))
	}
	if err := h.repo.Save(ctx, session); err != nil {
		return errResponse(translateErr(err))
	}
	return coreapp.Response[any]{Data: session.ID(), Metadata: map[string]any{"version": session.Version()}}, nil
}

func (h *SessionCommandHandlers) IssueToken(ctx context.Context, log coredomain.Logger, p coreapp.Payload[IssueSessionTokenCommand]) (coreapp.Response[any], error) {
	c := p.Data
	session, err := h.repo.Load(ctx, c.SessionID)
	if err != nil {
		return errResponse(translateErr(err))
	}
	token, err := session.IssueToken(ctx, log, c.TokenID, h.config.TokenTTL, []byte(h.config.SigningKey))
	if err != nil {
		return errResponse(translateErr(err))
	}
	if err := h.repo.Save(ctx, session); err != nil {
		return errResponse(translateErr(err))
	}
	return coreapp.Response[any]{Data: token, Metadata: map[string]any{"version": session.Version()}}, nil
}

func (h *SessionCommandHandlers) RevokeToken(ctx context.Context, log coredomain.Logger, p coreapp.Payload[RevokeSessionTokenCommand]) (coreapp.Response[any], error) {
	c := p.Data
	session, err := loadModifySave(ctx, h.repo, c.SessionID, func(s *iamdomain.Session) error {
		return s.RevokeToken(ctx, log, c.TokenID)
	})
	if err != nil {
		return errResponse(err)
	}
	return okResponse(session.Version()), nil
}

func (h *SessionCommandHandlers) Terminate(ctx context.Context, log coredomain.Logger, p coreapp.Payload[TerminateSessionCommand]) (coreapp.Response[any], error) {
	session, err := loadModifySave(ctx, h.repo, p.Data.SessionID, func(s *iamdomain.Session) error { return s.Terminate(ctx, log) })
	if err != nil {
		return errResponse(err)
	}
	return okResponse(session.Version()), nil
}
