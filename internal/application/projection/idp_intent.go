package projection

import (
	"context"
	"errors"
	"time"

	iamdomain "github.com/nexusiam/iamcore/internal/domain"
	coredomain "github.com/nexusiam/iamcore/pkg/domain"
	"gorm.io/gorm"
)

// IDPIntentRow is the read model for the IDPIntent aggregate. The CSRF
// state value is indexed so the callback handler can resolve the intent id
// from the provider's redirect, but the nonce and PKCE code verifier are
// deliberately not projected: callers needing them load the aggregate
// itself from the eventstore rather than a cached read model.
type IDPIntentRow struct {
	ID          string `gorm:"primaryKey;size:64"`
	IDPConfigID string `gorm:"index;size:64"`
	OrgID       string `gorm:"index;size:64"`
	CSRFState   string `gorm:"index;size:128"`
	Status      string `gorm:"size:16"`
	ExternalID  string `gorm:"size:256"`
	FailReason  string `gorm:"size:512"`
	ExpiresAt   time.Time `gorm:"index"`
	Sequence    int64
	UpdatedAt   time.Time
}

func (IDPIntentRow) TableName() string { return "idp_intent_projections" }

// IDPIntentProjection reduces every idp.intent.* event into IDPIntentRow.
type IDPIntentProjection struct {
	db *gorm.DB
}

func NewIDPIntentProjection(db *gorm.DB) *IDPIntentProjection { return &IDPIntentProjection{db: db} }

func (p *IDPIntentProjection) Name() string            { return "idp_intent" }
func (p *IDPIntentProjection) AggregateTypes() []string { return []string{"idp.intent"} }
func (p *IDPIntentProjection) BatchSize() int           { return 200 }
func (p *IDPIntentProjection) Interval() time.Duration  { return time.Second }
func (p *IDPIntentProjection) EventTypes() []string {
	return []string{
		"idp.intent.started", "idp.intent.succeeded",
		"idp.intent.failed", "idp.intent.expired",
	}
}

func (p *IDPIntentProjection) Init(ctx context.Context) error {
	return p.db.WithContext(ctx).AutoMigrate(&IDPIntentRow{})
}

func (p *IDPIntentProjection) Reduce(ctx context.Context, envelope coredomain.Envelope) error {
	ee, ok := envelope.Event().(*coredomain.EntityEvent)
	if !ok {
		return nil
	}
	id := ee.AggregateID()

	var row IDPIntentRow
	found := true
	if err := p.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		found = false
		row = IDPIntentRow{ID: id}
	}
	if found && row.Sequence >= ee.SequenceNo() {
		return nil
	}

	switch NormalizeEventType("idp.intent", ee.EventType()) {
	case "idp.intent.started":
		var v iamdomain.IDPIntentStarted
		iamdomain.DecodePayload(ee.Payload(), &v)
		row.IDPConfigID = v.IDPConfigID
		row.OrgID = v.OrgID
		row.CSRFState = v.State
		row.ExpiresAt = v.ExpiresAt
		row.Status = string(iamdomain.IDPIntentStateStarted)
	case "idp.intent.succeeded":
		var v iamdomain.IDPIntentSucceeded
		iamdomain.DecodePayload(ee.Payload(), &v)
		row.ExternalID = v.ExternalUserID
		row.Status = string(iamdomain.IDPIntentStateSucceeded)
	case "idp.intent.failed":
		var v iamdomain.IDPIntentFailed
		iamdomain.DecodePayload(ee.Payload(), &v)
		row.FailReason = v.Reason
		row.Status = string(iamdomain.IDPIntentStateFailed)
	case "idp.intent.expired":
		row.Status = string(iamdomain.IDPIntentStateExpired)
	default:
		return nil
	}

	row.Sequence = ee.SequenceNo()
	row.UpdatedAt = time.Now()
	return p.db.WithContext(ctx).Save(&row).Error
}
