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

// ExecutionRow is the read model for the Execution aggregate. Includes is a
// comma-joined list of included execution IDs, mirroring the aggregate's
// own adjacency list.
type ExecutionRow struct {
	ID        string `gorm:"primaryKey;size:64"`
	ProjectID string `gorm:"index;size:64"`
	Condition string `gorm:"size:512"`
	TargetID  string `gorm:"index;size:64"`
	Includes  string `gorm:"type:text"`
	Removed   bool
	Sequence  int64
	UpdatedAt time.Time
}

func (ExecutionRow) TableName() string { return "execution_projections" }

func (r ExecutionRow) IncludeIDs() []string {
	if r.Includes == "" {
		return nil
	}
	return strings.Split(r.Includes, ",")
}

// ExecutionProjection reduces every execution.* event into ExecutionRow, and
// doubles as the command layer's ExecutionGraphResolver: IncludesOf answers
// cycle-detection queries against committed state rather than a replayed
// aggregate, which is the only way a cross-aggregate DFS can work without
// loading every execution in the project on each AddInclude call.
type ExecutionProjection struct {
	db *gorm.DB
}

func NewExecutionProjection(db *gorm.DB) *ExecutionProjection { return &ExecutionProjection{db: db} }

func (p *ExecutionProjection) Name() string            { return "execution" }
func (p *ExecutionProjection) AggregateTypes() []string { return []string{"execution"} }
func (p *ExecutionProjection) BatchSize() int           { return 200 }
func (p *ExecutionProjection) Interval() time.Duration  { return time.Second }
func (p *ExecutionProjection) EventTypes() []string {
	return []string{
		"execution.added", "execution.condition.changed",
		"execution.include.added", "execution.include.removed", "execution.removed",
	}
}

func (p *ExecutionProjection) Init(ctx context.Context) error {
	return p.db.WithContext(ctx).AutoMigrate(&ExecutionRow{})
}

// IncludesOf satisfies ExecutionGraphResolver: the edges of executionID as
// last observed by the projection engine.
func (p *ExecutionProjection) IncludesOf(executionID string) []string {
	var row ExecutionRow
	if err := p.db.Where("id = ?", executionID).First(&row).Error; err != nil {
		return nil
	}
	return row.IncludeIDs()
}

func (p *ExecutionProjection) Reduce(ctx context.Context, envelope coredomain.Envelope) error {
	ee, ok := envelope.Event().(*coredomain.EntityEvent)
	if !ok {
		return nil
	}
	id := ee.AggregateID()

	var row ExecutionRow
	found := true
	if err := p.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		found = false
		row = ExecutionRow{ID: id}
	}
	if found && row.Sequence >= ee.SequenceNo() {
		return nil
	}

	switch NormalizeEventType("execution", ee.EventType()) {
	case "execution.added":
		var v iamdomain.ExecutionAdded
		iamdomain.DecodePayload(ee.Payload(), &v)
		row.ProjectID = v.ProjectID
		row.Condition = v.Condition
		row.TargetID = v.TargetID
		row.Includes = strings.Join(v.Includes, ",")
	case "execution.condition.changed":
		var v iamdomain.ExecutionConditionChanged
		iamdomain.DecodePayload(ee.Payload(), &v)
		row.Condition = v.Condition
	case "execution.include.added":
		var v iamdomain.ExecutionIncludeAdded
		iamdomain.DecodePayload(ee.Payload(), &v)
		ids := row.IncludeIDs()
		ids = append(ids, v.IncludeID)
		row.Includes = strings.Join(ids, ",")
	case "execution.include.removed":
		var v iamdomain.ExecutionIncludeRemoved
		iamdomain.DecodePayload(ee.Payload(), &v)
		ids := row.IncludeIDs()
		kept := ids[:0]
		for _, t := range ids {
			if t != v.IncludeID {
				kept = append(kept, t)
			}
		}
		row.Includes = strings.Join(kept, ",")
	case "execution.removed":
		row.Removed = true
	default:
		return nil
	}

	row.Sequence = ee.SequenceNo()
	row.UpdatedAt = time.Now()
	return p.db.WithContext(ctx).Save(&row).Error
}
