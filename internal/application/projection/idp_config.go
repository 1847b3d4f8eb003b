package projection

import (
	"context"
	"errors"
	"time"

	iamdomain "github.com/nexusiam/iamcore/internal/domain"
	coredomain "github.com/nexusiam/iamcore/pkg/domain"
	"gorm.io/gorm"
)

// IDPConfigRow is the read model for the IDPConfig aggregate. OrgID is empty
// for instance-wide configurations.
type IDPConfigRow struct {
	ID         string `gorm:"primaryKey;size:64"`
	InstanceID string `gorm:"index;size:64"`
	OrgID      string `gorm:"index;size:64"`
	Type       string `gorm:"size:16"`
	Name       string `gorm:"size:256"`
	Issuer     string `gorm:"size:512"`
	ClientID   string `gorm:"size:256"`
	State      string `gorm:"size:16"`
	Sequence   int64
	UpdatedAt  time.Time
}

func (IDPConfigRow) TableName() string { return "idp_config_projections" }

// IDPConfigProjection reduces every idp.config.* event into IDPConfigRow.
type IDPConfigProjection struct {
	db *gorm.DB
}

func NewIDPConfigProjection(db *gorm.DB) *IDPConfigProjection { return &IDPConfigProjection{db: db} }

func (p *IDPConfigProjection) Name() string            { return "idp_config" }
func (p *IDPConfigProjection) AggregateTypes() []string { return []string{"idp.config"} }
func (p *IDPConfigProjection) BatchSize() int           { return 200 }
func (p *IDPConfigProjection) Interval() time.Duration  { return time.Second }
func (p *IDPConfigProjection) EventTypes() []string {
	return []string{
		"idp.config.added", "idp.config.changed",
		"idp.config.deactivated", "idp.config.reactivated", "idp.config.removed",
	}
}

func (p *IDPConfigProjection) Init(ctx context.Context) error {
	return p.db.WithContext(ctx).AutoMigrate(&IDPConfigRow{})
}

func (p *IDPConfigProjection) Reduce(ctx context.Context, envelope coredomain.Envelope) error {
	ee, ok := envelope.Event().(*coredomain.EntityEvent)
	if !ok {
		return nil
	}
	id := ee.AggregateID()

	var row IDPConfigRow
	found := true
	if err := p.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		found = false
		row = IDPConfigRow{ID: id}
	}
	if found && row.Sequence >= ee.SequenceNo() {
		return nil
	}

	switch NormalizeEventType("idp.config", ee.EventType()) {
	case "idp.config.added":
		var v iamdomain.IDPConfigAdded
		iamdomain.DecodePayload(ee.Payload(), &v)
		row.InstanceID = v.InstanceID
		row.OrgID = v.OrgID
		row.Type = string(v.Type)
		row.Name = v.Name
		row.Issuer = v.Issuer
		row.ClientID = v.ClientID
		row.State = string(iamdomain.IDPConfigStateActive)
	case "idp.config.changed":
		var v iamdomain.IDPConfigChanged
		iamdomain.DecodePayload(ee.Payload(), &v)
		if v.Name != "" {
			row.Name = v.Name
		}
		if v.Issuer != "" {
			row.Issuer = v.Issuer
		}
		if v.ClientID != "" {
			row.ClientID = v.ClientID
		}
	case "idp.config.deactivated":
		row.State = string(iamdomain.IDPConfigStateInactive)
	case "idp.config.reactivated":
		row.State = string(iamdomain.IDPConfigStateActive)
	case "idp.config.removed":
		row.State = string(iamdomain.IDPConfigStateRemoved)
	default:
		return nil
	}

	row.Sequence = ee.SequenceNo()
	row.UpdatedAt = time.Now()
	return p.db.WithContext(ctx).Save(&row).Error
}
