package projection

import (
	"context"
	"errors"
	"time"

	iamdomain "github.com/nexusiam/iamcore/internal/domain"
	coredomain "github.com/nexusiam/iamcore/pkg/domain"
	"gorm.io/gorm"
)

// ProjectRow is the read model for the Project aggregate.
type ProjectRow struct {
	ID        string `gorm:"primaryKey;size:64"`
	OrgID     string `gorm:"index;size:64"`
	Name      string `gorm:"size:256"`
	State     string `gorm:"size:16"`
	Sequence  int64
	UpdatedAt time.Time
}

func (ProjectRow) TableName() string { return "project_projections" }

// ProjectProjection reduces every project.* event into ProjectRow.
type ProjectProjection struct {
	db *gorm.DB
}

func NewProjectProjection(db *gorm.DB) *ProjectProjection { return &ProjectProjection{db: db} }

func (p *ProjectProjection) Name() string             { return "project" }
func (p *ProjectProjection) AggregateTypes() []string  { return []string{"project"} }
func (p *ProjectProjection) BatchSize() int            { return 200 }
func (p *ProjectProjection) Interval() time.Duration   { return time.Second }
func (p *ProjectProjection) EventTypes() []string {
	return []string{"project.added", "project.changed", "project.deactivated", "project.reactivated", "project.removed"}
}

func (p *ProjectProjection) Init(ctx context.Context) error {
	return p.db.WithContext(ctx).AutoMigrate(&ProjectRow{})
}

func (p *ProjectProjection) Reduce(ctx context.Context, envelope coredomain.Envelope) error {
	ee, ok := envelope.Event().(*coredomain.EntityEvent)
	if !ok {
		return nil
	}
	id := ee.AggregateID()

	var row ProjectRow
	found := true
	if err := p.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		found = false
		row = ProjectRow{ID: id}
	}
	if found && row.Sequence >= ee.SequenceNo() {
		return nil
	}

	switch NormalizeEventType("project", ee.EventType()) {
	case "project.added":
		var v iamdomain.ProjectAdded
		iamdomain.DecodePayload(ee.Payload(), &v)
		row.OrgID = v.OrgID
		row.Name = v.Name
		row.State = string(iamdomain.ProjectStateActive)
	case "project.changed":
		var v iamdomain.ProjectNameChanged
		iamdomain.DecodePayload(ee.Payload(), &v)
		row.Name = v.Name
	case "project.deactivated":
		row.State = string(iamdomain.ProjectStateInactive)
	case "project.reactivated":
		row.State = string(iamdomain.ProjectStateActive)
	case "project.removed":
		row.State = string(iamdomain.ProjectStateRemoved)
	default:
		return nil
	}

	row.Sequence = ee.SequenceNo()
	row.UpdatedAt = time.Now()
	return p.db.WithContext(ctx).Save(&row).Error
}
