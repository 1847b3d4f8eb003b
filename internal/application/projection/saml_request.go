package projection

import (
	"context"
	"errors"
	"time"

	iamdomain "github.com/nexusiam/iamcore/internal/domain"
	coredomain "github.com/nexusiam/iamcore/pkg/domain"
	"gorm.io/gorm"
)

// SAMLRequestRow is the read model for the SAMLRequest aggregate.
type SAMLRequestRow struct {
	ID            string `gorm:"primaryKey;size:64"`
	ApplicationID string `gorm:"index;size:64"`
	Issuer        string `gorm:"size:512"`
	ACSURL        string `gorm:"size:512"`
	RelayState    string `gorm:"size:512"`
	Status        string `gorm:"size:16"`
	UserID        string `gorm:"index;size:64"`
	FailReason    string `gorm:"size:512"`
	Sequence      int64
	UpdatedAt     time.Time
}

func (SAMLRequestRow) TableName() string { return "saml_request_projections" }

// SAMLRequestProjection reduces every saml.request.* event into SAMLRequestRow.
type SAMLRequestProjection struct {
	db *gorm.DB
}

func NewSAMLRequestProjection(db *gorm.DB) *SAMLRequestProjection {
	return &SAMLRequestProjection{db: db}
}

func (p *SAMLRequestProjection) Name() string            { return "saml_request" }
func (p *SAMLRequestProjection) AggregateTypes() []string { return []string{"saml.request"} }
func (p *SAMLRequestProjection) BatchSize() int           { return 200 }
func (p *SAMLRequestProjection) Interval() time.Duration  { return time.Second }
func (p *SAMLRequestProjection) EventTypes() []string {
	return []string{"saml.request.added", "saml.request.succeeded", "saml.request.failed"}
}

func (p *SAMLRequestProjection) Init(ctx context.Context) error {
	return p.db.WithContext(ctx).AutoMigrate(&SAMLRequestRow{})
}

func (p *SAMLRequestProjection) Reduce(ctx context.Context, envelope coredomain.Envelope) error {
	ee, ok := envelope.Event().(*coredomain.EntityEvent)
	if !ok {
		return nil
	}
	id := ee.AggregateID()

	var row SAMLRequestRow
	found := true
	if err := p.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		found = false
		row = SAMLRequestRow{ID: id}
	}
	if found && row.Sequence >= ee.SequenceNo() {
		return nil
	}

	switch NormalizeEventType("saml.request", ee.EventType()) {
	case "saml.request.added":
		var v iamdomain.SAMLRequestAdded
		iamdomain.DecodePayload(ee.Payload(), &v)
		row.ApplicationID = v.ApplicationID
		row.Issuer = v.Issuer
		row.ACSURL = v.ACSURL
		row.RelayState = v.RelayState
		row.Status = string(iamdomain.SAMLRequestStateAdded)
	case "saml.request.succeeded":
		var v iamdomain.SAMLRequestSucceeded
		iamdomain.DecodePayload(ee.Payload(), &v)
		row.UserID = v.UserID
		row.Status = string(iamdomain.SAMLRequestStateSucceeded)
	case "saml.request.failed":
		var v iamdomain.SAMLRequestFailed
		iamdomain.DecodePayload(ee.Payload(), &v)
		row.FailReason = v.Reason
		row.Status = string(iamdomain.SAMLRequestStateFailed)
	default:
		return nil
	}

	row.Sequence = ee.SequenceNo()
	row.UpdatedAt = time.Now()
	return p.db.WithContext(ctx).Save(&row).Error
}
