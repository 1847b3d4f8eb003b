package projection

import (
	"context"
	"errors"
	"time"

	iamdomain "github.com/nexusiam/iamcore/internal/domain"
	coredomain "github.com/nexusiam/iamcore/pkg/domain"
	"gorm.io/gorm"
)

// OrgRow is the read model for the Org aggregate.
type OrgRow struct {
	ID            string `gorm:"primaryKey;size:64"`
	InstanceID    string `gorm:"index;size:64"`
	Name          string `gorm:"size:256"`
	PrimaryDomain string `gorm:"size:256"`
	State         string `gorm:"size:16"`
	Sequence      int64
	UpdatedAt     time.Time
}

func (OrgRow) TableName() string { return "org_projections" }

// OrgProjection reduces every org.* event into OrgRow.
type OrgProjection struct {
	db *gorm.DB
}

func NewOrgProjection(db *gorm.DB) *OrgProjection { return &OrgProjection{db: db} }

func (p *OrgProjection) Name() string            { return "org" }
func (p *OrgProjection) AggregateTypes() []string { return []string{"org"} }
func (p *OrgProjection) BatchSize() int           { return 200 }
func (p *OrgProjection) Interval() time.Duration  { return time.Second }
func (p *OrgProjection) EventTypes() []string {
	return []string{
		"org.added", "org.changed", "org.domain.primary.set",
		"org.deactivated", "org.reactivated", "org.removed",
	}
}

func (p *OrgProjection) Init(ctx context.Context) error {
	return p.db.WithContext(ctx).AutoMigrate(&OrgRow{})
}

func (p *OrgProjection) Reduce(ctx context.Context, envelope coredomain.Envelope) error {
	ee, ok := envelope.Event().(*coredomain.EntityEvent)
	if !ok {
		return nil
	}
	id := ee.AggregateID()

	var row OrgRow
	found := true
	if err := p.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		found = false
		row = OrgRow{ID: id}
	}
	if found && row.Sequence >= ee.SequenceNo() {
		return nil
	}

	switch NormalizeEventType("org", ee.EventType()) {
	case "org.added":
		var v iamdomain.OrgAdded
		iamdomain.DecodePayload(ee.Payload(), &v)
		row.InstanceID = v.InstanceID
		row.Name = v.Name
		row.State = string(iamdomain.OrgStateActive)
	case "org.changed":
		var v iamdomain.OrgNameChanged
		iamdomain.DecodePayload(ee.Payload(), &v)
		row.Name = v.Name
	case "org.domain.primary.set":
		var v iamdomain.OrgPrimaryDomainSet
		iamdomain.DecodePayload(ee.Payload(), &v)
		row.PrimaryDomain = v.Domain
	case "org.deactivated":
		row.State = string(iamdomain.OrgStateInactive)
	case "org.reactivated":
		row.State = string(iamdomain.OrgStateActive)
	case "org.removed":
		row.State = string(iamdomain.OrgStateRemoved)
	default:
		return nil
	}

	row.Sequence = ee.SequenceNo()
	row.UpdatedAt = time.Now()
	return p.db.WithContext(ctx).Save(&row).Error
}
