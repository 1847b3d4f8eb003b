package projection

import (
	"context"
	"errors"
	"strings"
	"time"

	iamdomain "github.com/nexusiam/iamcore/internal/domain"
	coredomain "github.com/nexusiam/iamcore/pkg/domain"
	"gorm.io/gorm"
)

// SessionRow is the read model for the Session aggregate. LastActivityAt is
// bumped on every token issue/set; no idle expiry is ever written back here,
// and no query in this repository compares LastActivityAt against the
// configured idle TTL. TokenIDs is a comma-joined set of live
// token IDs, kept in sync with Session.SetToken/RevokeToken's replace-or-
// append semantics so a re-issued token for the same device never inflates
// the count.
type SessionRow struct {
	ID             string `gorm:"primaryKey;size:64"`
	UserID         string `gorm:"index;size:64"`
	OrgID          string `gorm:"index;size:64"`
	State          string `gorm:"size:16"`
	TokenIDs       string `gorm:"type:text"`
	LastActivityAt time.Time
	Sequence       int64
	UpdatedAt      time.Time
}

func (SessionRow) TableName() string { return "session_projections" }

func (r SessionRow) tokenIDSet() []string {
	if r.TokenIDs == "" {
		return nil
	}
	return strings.Split(r.TokenIDs, ",")
}

func (r *SessionRow) addTokenID(id string) {
	for _, t := range r.tokenIDSet() {
		if t == id {
			return
		}
	}
	ids := r.tokenIDSet()
	ids = append(ids, id)
	r.TokenIDs = strings.Join(ids, ",")
}

func (r *SessionRow) removeTokenID(id string) {
	ids := r.tokenIDSet()
	kept := ids[:0]
	for _, t := range ids {
		if t != id {
			kept = append(kept, t)
		}
	}
	r.TokenIDs = strings.Join(kept, ",")
}

func (r SessionRow) ActiveTokenCount() int {
	return len(r.tokenIDSet())
}

// SessionProjection reduces every session.* event into SessionRow.
type SessionProjection struct {
	db *gorm.DB
}

func NewSessionProjection(db *gorm.DB) *SessionProjection { return &SessionProjection{db: db} }

func (p *SessionProjection) Name() string            { return "session" }
func (p *SessionProjection) AggregateTypes() []string { return []string{"session"} }
func (p *SessionProjection) BatchSize() int           { return 200 }
func (p *SessionProjection) Interval() time.Duration  { return time.Second }
func (p *SessionProjection) EventTypes() []string {
	return []string{"session.started", "session.token.set", "session.token.revoked", "session.terminated"}
}

func (p *SessionProjection) Init(ctx context.Context) error {
	return p.db.WithContext(ctx).AutoMigrate(&SessionRow{})
}

func (p *SessionProjection) Reduce(ctx context.Context, envelope coredomain.Envelope) error {
	ee, ok := envelope.Event().(*coredomain.EntityEvent)
	if !ok {
		return nil
	}
	id := ee.AggregateID()

	var row SessionRow
	found := true
	if err := p.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		found = false
		row = SessionRow{ID: id}
	}
	if found && row.Sequence >= ee.SequenceNo() {
		return nil
	}

	now := time.Now()
	switch NormalizeEventType("session", ee.EventType()) {
	case "session.started":
		var v iamdomain.SessionStarted
		iamdomain.DecodePayload(ee.Payload(), &v)
		row.UserID = v.UserID
		row.OrgID = v.OrgID
		row.State = string(iamdomain.SessionStateActive)
		row.LastActivityAt = now
	case "session.token.set":
		var v iamdomain.SessionTokenSet
		iamdomain.DecodePayload(ee.Payload(), &v)
		row.addTokenID(v.Token.ID)
		row.LastActivityAt = now
	case "session.token.revoked":
		var v iamdomain.SessionTokenRevoked
		iamdomain.DecodePayload(ee.Payload(), &v)
		row.removeTokenID(v.TokenID)
	case "session.terminated":
		row.State = string(iamdomain.SessionStateTerminated)
		row.TokenIDs = ""
	default:
		return nil
	}

	row.Sequence = ee.SequenceNo()
	row.UpdatedAt = now
	return p.db.WithContext(ctx).Save(&row).Error
}
