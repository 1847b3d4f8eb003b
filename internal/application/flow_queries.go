package application

import (
	"context"
	"time"

	"github.com/nexusiam/iamcore/internal/application/projection"
	iamdomain "github.com/nexusiam/iamcore/internal/domain"
	coreapp "github.com/nexusiam/iamcore/pkg/application"
	coredomain "github.com/nexusiam/iamcore/pkg/domain"
	"gorm.io/gorm"
)

// GetIDPIntentQuery fetches one IDP intent read-model row by ID. The row
// never carries the nonce or PKCE verifier — callers that need those must
// replay the aggregate directly.
type GetIDPIntentQuery struct{ IDPIntentID string `json:"idp_intent_id"` }

func (q GetIDPIntentQuery) QueryType() string { return "iam.idp_intent.get" }

// ListIDPIntentsQuery lists intents for an IDP config, optionally scoped by
// status (e.g. "started" intents awaiting a callback).
type ListIDPIntentsQuery struct {
	IDPConfigID string `json:"idp_config_id"`
	Status      string `json:"status,omitempty"`
	Page        Page   `json:"page"`
}

func (q ListIDPIntentsQuery) QueryType() string { return "iam.idp_intent.list" }

// LookupIDPIntentByStateQuery resolves the intent a provider's redirect is
// completing, by the CSRF state value it was started with. An intent is
// only resolvable this way while it is still pending and not past its TTL —
// expired intents must not authenticate, so a hit on a row that is
// expired-but-not-yet-reaped is treated the same as no row at all.
type LookupIDPIntentByStateQuery struct{ CSRFState string `json:"csrf_state"` }

func (q LookupIDPIntentByStateQuery) QueryType() string { return "iam.idp_intent.lookup_by_state" }

type IDPIntentQueryHandlers struct{ db *gorm.DB }

func NewIDPIntentQueryHandlers(db *gorm.DB) *IDPIntentQueryHandlers {
	return &IDPIntentQueryHandlers{db: db}
}

func (h *IDPIntentQueryHandlers) Get(ctx context.Context, log coredomain.Logger, p coreapp.Payload[GetIDPIntentQuery]) (coreapp.Response[any], error) {
	row, err := getRow[projection.IDPIntentRow](ctx, h.db, "idp_intent", p.Data.IDPIntentID)
	if err != nil {
		return errResponse(err)
	}
	return coreapp.Response[any]{Data: row}, nil
}

func (h *IDPIntentQueryHandlers) LookupByState(ctx context.Context, log coredomain.Logger, p coreapp.Payload[LookupIDPIntentByStateQuery]) (coreapp.Response[any], error) {
	row, err := getRowByScope[projection.IDPIntentRow](ctx, h.db, "idp_intent", func(db *gorm.DB) *gorm.DB {
		return db.Where(
			"csrf_state = ? AND status = ? AND expires_at > ?",
			p.Data.CSRFState, string(iamdomain.IDPIntentStateStarted), time.Now(),
		)
	})
	if err != nil {
		return errResponse(err)
	}
	return coreapp.Response[any]{Data: row}, nil
}

func (h *IDPIntentQueryHandlers) List(ctx context.Context, log coredomain.Logger, p coreapp.Payload[ListIDPIntentsQuery]) (coreapp.Response[any], error) {
	q := p.Data
	result, err := listRows[projection.IDPIntentRow](ctx, h.db, q.Page, func(db *gorm.DB) *gorm.DB {
		if q.IDPConfigID != "" {
			db = db.Where("idp_config_id = ?", q.IDPConfigID)
		}
		if q.Status != "" {
			db = db.Where("status = ?", q.Status)
		}
		return db
	})
	if err != nil {
		return errResponse(err)
	}
	return coreapp.Response[any]{Data: result}, nil
}

// GetSAMLRequestQuery fetches one SAML request read-model row by ID.
type GetSAMLRequestQuery struct{ SAMLRequestID string `json:"saml_request_id"` }

func (q GetSAMLRequestQuery) QueryType() string { return "iam.saml_request.get" }

// ListSAMLRequestsQuery lists requests against an application, optionally
// scoped by status.
type ListSAMLRequestsQuery struct {
	ApplicationID string `json:"application_id"`
	Status        string `json:"status,omitempty"`
	Page          Page   `json:"page"`
}

func (q ListSAMLRequestsQuery) QueryType() string { return "iam.saml_request.list" }

type SAMLRequestQueryHandlers struct{ db *gorm.DB }

func NewSAMLRequestQueryHandlers(db *gorm.DB) *SAMLRequestQueryHandlers {
	return &SAMLRequestQueryHandlers{db: db}
}

func (h *SAMLRequestQueryHandlers) Get(ctx context.Context, log coredomain.Logger, p coreapp.Payload[GetSAMLRequestQuery]) (coreapp.Response[any], error) {
	row, err := getRow[projection.SAMLRequestRow](ctx, h.db, "saml_request", p.Data.SAMLRequestID)
	if err != nil {
		return errResponse(err)
	}
	return coreapp.Response[any]{Data: row}, nil
}

func (h *SAMLRequestQueryHandlers) List(ctx context.Context, log coredomain.Logger, p coreapp.Payload[ListSAMLRequestsQuery]) (coreapp.Response[any], error) {
	q := p.Data
	result, err := listRows[projection.SAMLRequestRow](ctx, h.db, q.Page, func(db *gorm.DB) *gorm.DB {
		if q.ApplicationID != "" {
			db = db.Where("application_id = ?", q.ApplicationID)
		}
		if q.Status != "" {
			db = db.Where("status = ?", q.Status)
		}
		return db
	})
	if err != nil {
		return errResponse(err)
	}
	return coreapp.Response[any]{Data: result}, nil
}

// GetSessionQuery fetches one session read-model row by ID.
type GetSessionQuery struct{ SessionID string `json:"session_id"` }

func (q GetSessionQuery) QueryType() string { return "iam.session.get" }

// ListSessionsQuery lists a user's sessions, optionally filtered by state.
type ListSessionsQuery struct {
	UserID string `json:"user_id"`
	State  string `json:"state,omitempty"`
	Page   Page   `json:"page"`
}

func (q ListSessionsQuery) QueryType() string { return "iam.session.list" }

type SessionQueryHandlers struct{ db *gorm.DB }

func NewSessionQueryHandlers(db *gorm.DB) *SessionQueryHandlers { return &SessionQueryHandlers{db: db} }

func (h *SessionQueryHandlers) Get(ctx context.Context, log coredomain.Logger, p coreapp.Payload[GetSessionQuery]) (coreapp.Response[any], error) {
	row, err := getRow[projection.SessionRow](ctx, h.db, "session", p.Data.SessionID)
	if err != nil {
		return errResponse(err)
	}
	return coreapp.Response[any]{Data: row}, nil
}

func (h *SessionQueryHandlers) List(ctx context.Context, log coredomain.Logger, p coreapp.Payload[ListSessionsQuery]) (coreapp.Response[any], error) {
	q := p.Data
	result, err := listRows[projection.SessionRow](ctx, h.db, q.Page, func(db *gorm.DB) *gorm.DB {
		if q.UserID != "" {
			db = db.Where("user_id = ?", q.UserID)
		}
		if q.State != "" {
			db = db.Where("state = ?", q.State)
		}
		return db
	})
	if err != nil {
		return errResponse(err)
	}
	return coreapp.Response[any]{Data: result}, nil
}
