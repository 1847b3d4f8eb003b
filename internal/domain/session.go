package domain

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/golang-jwt/jwt/v5"

	coredomain "github.com/nexusiam/iamcore/pkg/domain"
)

// SessionState is the lifecycle state of a session.
type SessionState string

const (
	SessionStateActive    SessionState = "active"
	SessionStateTerminated SessionState = "terminated"
)

// sessionClaims is the JWT claim set minted for a session token.
type sessionClaims struct {
	jwt.RegisteredClaims
	UserID string `json:"uid"`
	OrgID  string `json:"org_id,omitempty"`
}

// SessionToken is one issued access token within a session. A session may
// carry several concurrent tokens (e.g. one per device); SetToken replaces
// the entry whose ID matches and appends otherwise, so re-issuing a token
// for the same device id never grows the set unbounded.
type SessionToken struct {
	ID        string    `json:"id"`
	Hash      string    `json:"hash"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Session tracks a user's authenticated session and its live tokens. The
// aggregate has no idle-timeout transition; the projection records the last
// activity time, and no query applies the configured idle TTL to it.
type Session struct {
	coredomain.Entity

	userID string
	orgID  string
	tokens []SessionToken
	state  SessionState
}

type SessionStarted struct {
	UserID string `json:"user_id"`
	OrgID  string `json:"org_id"`
}

type SessionTokenSet struct {
	Token SessionToken `json:"token"`
}

type SessionTokenRevoked struct {
	TokenID string `json:"token_id"`
}

type SessionTerminated struct{}

// NewSession starts a session for userID.
func NewSession(ctx context.Context, logger coredomain.Logger, id, userID, orgID string) (*Session, error) {
	if userID == "" {
		return nil, coredomain.NewValidationError("user_id", "must not be empty", userID)
	}
	s := &Session{Entity: coredomain.NewEntity(id)}
	started := SessionStarted{UserID: userID, OrgID: orgID}
	emit(ctx, logger, s, "session", "started", started)
	s.apply(started)
	return s, nil
}

// IssueToken mints a signed JWT bound to tokenID and records its hash via
// SetToken, so the session aggregate never stores the bearer token itself.
func (s *Session) IssueToken(ctx context.Context, logger coredomain.Logger, tokenID string, ttl time.Duration, signingKey []byte) (string, error) {
	if s.state != SessionStateActive {
		return "", coredomain.NewDomainError("PRECONDITION_FAILED", "session is not active", nil)
	}
	now := time.Now()
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.userID,
			ID:        tokenID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID: s.userID,
		OrgID:  s.orgID,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(signingKey)
	if err != nil {
		return "", coredomain.NewDomainError("TOKEN_SIGNING_FAILED", "failed to sign session token", err)
	}
	if err := s.SetToken(ctx, logger, SessionToken{ID: tokenID, Hash: hashToken(signed), ExpiresAt: now.Add(ttl)}); err != nil {
		return "", err
	}
	return signed, nil
}

// SetToken replaces the token with a matching ID or appends a new one.
func (s *Session) SetToken(ctx context.Context, logger coredomain.Logger, token SessionToken) error {
	if s.state != SessionStateActive {
		return coredomain.NewDomainError("PRECONDITION_FAILED", "session is not active", nil)
	}
	emit(ctx, logger, s, "session", "token.set", SessionTokenSet{Token: token})
	s.applySetToken(token)
	return nil
}

// RevokeToken removes a single token without terminating the session.
func (s *Session) RevokeToken(ctx context.Context, logger coredomain.Logger, tokenID string) error {
	emit(ctx, logger, s, "session", "token.revoked", SessionTokenRevoked{TokenID: tokenID})
	s.applyRevokeToken(tokenID)
	return nil
}

// Terminate ends the session and invalidates every token it holds.
func (s *Session) Terminate(ctx context.Context, logger coredomain.Logger) error {
	if s.state == SessionStateTerminated {
		return coredomain.NewDomainError("PRECONDITION_FAILED", "session is already terminated", nil)
	}
	emit(ctx, logger, s, "session", "terminated", SessionTerminated{})
	s.state = SessionStateTerminated
	return nil
}

func (s *Session) applySetToken(token SessionToken) {
	for i, t := range s.tokens {
		if t.ID == token.ID {
			s.tokens[i] = token
			return
		}
	}
	s.tokens = append(s.tokens, token)
}

func (s *Session) applyRevokeToken(tokenID string) {
	kept := s.tokens[:0]
	for _, t := range s.tokens {
		if t.ID != tokenID {
			kept = append(kept, t)
		}
	}
	s.tokens = kept
}

func (s *Session) State() SessionState    { return s.state }
func (s *Session) UserID() string         { return s.userID }
func (s *Session) Tokens() []SessionToken { return s.tokens }

func (s *Session) LoadFromHistory(events []coredomain.Event) {
	for _, event := range events {
		ee, ok := event.(*coredomain.EntityEvent)
		if !ok {
			continue
		}
		switch normalizeEventType("session", ee.EventType()) {
		case "session.started":
			var v SessionStarted
			DecodePayload(ee.Payload(), &v)
			s.apply(v)
		case "session.token.set":
			var v SessionTokenSet
			DecodePayload(ee.Payload(), &v)
			s.applySetToken(v.Token)
		case "session.token.revoked":
			var v SessionTokenRevoked
			DecodePayload(ee.Payload(), &v)
			s.applyRevokeToken(v.TokenID)
		case "session.terminated":
			s.state = SessionStateTerminated
		}
	}
	s.Entity.LoadFromHistory(events)
}

func (s *Session) apply(payload interface{}) {
	switch v := payload.(type) {
	case SessionStarted:
		s.userID = v.UserID
		s.orgID = v.OrgID
		s.state = SessionStateActive
	case SessionTerminated:
		s.state = SessionStateTerminated
	}
}

// hashToken stores a one-way digest of the signed token so the event log
// never carries the bearer credential itself.
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// SessionRepository loads and saves Session aggregates.
type SessionRepository = coredomain.Repository[*Session]

// NewBlankSession returns an unpopulated Session identified by id, ready for
// LoadFromHistory. Used by the event-sourced repository to reconstruct an
// aggregate from its event history.
func NewBlankSession(id string) *Session {
	return &Session{Entity: coredomain.NewEntity(id)}
}
