package projection

import (
	"context"
	"errors"
	"time"

	iamdomain "github.com/nexusiam/iamcore/internal/domain"
	coredomain "github.com/nexusiam/iamcore/pkg/domain"
	"gorm.io/gorm"
)

// TargetRow is the read model for the Target aggregate. SigningKey is
// projected so a reader can get the target's current key without replaying
// the aggregate; nothing in this repository sends or signs deliveries.
type TargetRow struct {
	ID         string `gorm:"primaryKey;size:64"`
	ProjectID  string `gorm:"index;size:64"`
	Name       string `gorm:"size:256"`
	Type       string `gorm:"size:16"`
	Endpoint   string `gorm:"size:1024"`
	SigningKey string `gorm:"size:256"`
	State      string `gorm:"size:16"`
	Sequence   int64
	UpdatedAt  time.Time
}

func (TargetRow) TableName() string { return "target_projections" }

// TargetProjection reduces every target.* event into TargetRow.
type TargetProjection struct {
	db *gorm.DB
}

func NewTargetProjection(db *gorm.DB) *TargetProjection { return &TargetProjection{db: db} }

func (p *TargetProjection) Name() string            { return "target" }
func (p *TargetProjection) AggregateTypes() []string { return []string{"target"} }
func (p *TargetProjection) BatchSize() int           { return 200 }
func (p *TargetProjection) Interval() time.Duration  { return time.Second }
func (p *TargetProjection) EventTypes() []string {
	return []string{
		"target.added", "target.changed", "target.signing_key.rotated",
		"target.deactivated", "target.reactivated", "target.removed",
	}
}

func (p *TargetProjection) Init(ctx context.Context) error {
	return p.db.WithContext(ctx).AutoMigrate(&TargetRow{})
}

func (p *TargetProjection) Reduce(ctx context.Context, envelope coredomain.Envelope) error {
	ee, ok := envelope.Event().(*coredomain.EntityEvent)
	if !ok {
		return nil
	}
	id := ee.AggregateID()

	var row TargetRow
	found := true
	if err := p.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		found = false
		row = TargetRow{ID: id}
	}
	if found && row.Sequence >= ee.SequenceNo() {
		return nil
	}

	switch NormalizeEventType("target", ee.EventType()) {
	case "target.added":
		var v iamdomain.TargetAdded
		iamdomain.DecodePayload(ee.Payload(), &v)
		row.ProjectID = v.ProjectID
		row.Name = v.Name
		row.Type = string(v.Type)
		row.Endpoint = v.Endpoint
		row.SigningKey = v.SigningKey
		row.State = string(iamdomain.TargetStateActive)
	case "target.changed":
		var v iamdomain.TargetChanged
		iamdomain.DecodePayload(ee.Payload(), &v)
		if v.Name != "" {
			row.Name = v.Name
		}
		if v.Endpoint != "" {
			row.Endpoint = v.Endpoint
		}
	case "target.signing_key.rotated":
		var v iamdomain.TargetSigningKeyRotated
		iamdomain.DecodePayload(ee.Payload(), &v)
		row.SigningKey = v.SigningKey
	case "target.deactivated":
		row.State = string(iamdomain.TargetStateInactive)
	case "target.reactivated":
		row.State = string(iamdomain.TargetStateActive)
	case "target.removed":
		row.State = string(iamdomain.TargetStateRemoved)
	default:
		return nil
	}

	row.Sequence = ee.SequenceNo()
	row.UpdatedAt = time.Now()
	return p.db.WithContext(ctx).Save(&row).Error
}
