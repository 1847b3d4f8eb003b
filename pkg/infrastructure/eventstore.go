package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nexusiam/iamcore/pkg/application"
	"github.com/nexusiam/iamcore/pkg/domain"
	"github.com/segmentio/ksuid"
	"gorm.io/gorm"
)

// EventRecord is the database schema for the append-only event log. Position
// is the table's auto-incrementing primary key and doubles as the store's
// single global, monotonically increasing sequence that projection cursors
// checkpoint on. SequenceNo is the per-aggregate version instead, used for
// optimistic concurrency and aggregate replay ordering.
type EventRecord struct {
	Position      int64     `gorm:"primaryKey;autoIncrement"`
	ID            string    `gorm:"uniqueIndex;size:32"`
	InstanceID    string    `gorm:"index:idx_events_instance_aggregate;size:64"`
	AggregateID   string    `gorm:"index:idx_events_instance_aggregate;size:64"`
	AggregateType string    `gorm:"index;size:64"`
	ResourceOwner string    `gorm:"size:64"`
	EventType     string    `gorm:"index"`
	SequenceNo    int64
	Data          string    `gorm:"type:text"`
	Metadata      string    `gorm:"type:text"`
	Timestamp     time.Time `gorm:"index"`
	CreatedAt     time.Time
}

// TableName returns the table name for GORM
func (EventRecord) TableName() string {
	return "events"
}

// eventEnvelope implements the domain.Envelope interface
type eventEnvelope struct {
	event         domain.Event
	metadata      map[string]interface{}
	eventID       string
	timestamp     time.Time
	position      int64
	aggregateType string
}

func (e *eventEnvelope) Event() domain.Event              { return e.event }
func (e *eventEnvelope) Metadata() map[string]interface{} { return e.metadata }
func (e *eventEnvelope) EventID() string                  { return e.eventID }
func (e *eventEnvelope) Timestamp() time.Time             { return e.timestamp }
func (e *eventEnvelope) Position() int64                  { return e.position }
func (e *eventEnvelope) AggregateType() string             { return e.aggregateType }

// GormEventStore implements domain.EventStore on top of GORM. It enforces
// per-aggregate optimistic concurrency via a unique (instance_id,
// aggregate_id, sequence_no) index: a conflicting write fails the unique
// constraint and is translated to an application.ConcurrencyError.
type GormEventStore struct {
	db *gorm.DB
}

// NewGormEventStore creates a new GORM-based event store
func NewGormEventStore(db *gorm.DB) (*GormEventStore, error) {
	store := &GormEventStore{db: db}

	if err := db.AutoMigrate(&EventRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate events table: %w", err)
	}

	if err := db.Exec(
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_events_aggregate_version ON events (instance_id, aggregate_id, sequence_no)",
	).Error; err != nil {
		return nil, fmt.Errorf("failed to create aggregate version index: %w", err)
	}

	return store, nil
}

func aggregateTypeOf(event domain.Event) string {
	if ee, ok := event.(*domain.EntityEvent); ok {
		return ee.EntityType
	}
	if ee, ok := event.(domain.EntityEvent); ok {
		return ee.EntityType
	}
	// Fall back to the leading segment of a dotted "entitytype.eventtype" name.
	if idx := strings.IndexByte(event.EventType(), '.'); idx > 0 {
		return event.EventType()[:idx]
	}
	return ""
}

// Save persists events and returns envelopes with metadata
func (s *GormEventStore) Save(ctx context.Context, events []domain.Event) ([]domain.Envelope, error) {
	if len(events) == 0 {
		return []domain.Envelope{}, nil
	}

	instanceID, _ := ctx.Value(domain.InstanceIDKey).(string)
	resourceOwner, _ := ctx.Value(domain.ResourceOwner).(string)
	if resourceOwner == "" {
		resourceOwner = instanceID
	}

	records := make([]EventRecord, 0, len(events))
	now := time.Now()

	for _, event := range events {
		// Data stores only the event's own payload, not the whole envelope:
		// EventType/AggregateID/SequenceNo/CreatedAt are already columns, and
		// storing the full event here would make record.Data undecodable as
		// the domain-specific payload on reload.
		eventData := event.Payload()

		metadata := map[string]interface{}{
			"aggregate_id": event.AggregateID(),
			"event_type":   event.EventType(),
			"sequenceNo":   event.SequenceNo(),
			"created_at":   event.CreatedAt(),
		}
		metadataJSON, err := json.Marshal(metadata)
		if err != nil {
			return nil, fmt.Errorf("failed to serialize metadata for event %s: %w", event.EventType(), err)
		}

		records = append(records, EventRecord{
			ID:            ksuid.New().String(),
			InstanceID:    instanceID,
			AggregateID:   event.AggregateID(),
			AggregateType: aggregateTypeOf(event),
			ResourceOwner: resourceOwner,
			EventType:     event.EventType(),
			SequenceNo:    event.SequenceNo(),
			Data:          string(eventData),
			Metadata:      string(metadataJSON),
			Timestamp:     now,
			CreatedAt:     now,
		})
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		batchSize := 100
		if len(records) <= batchSize {
			return tx.Create(&records).Error
		}
		return tx.CreateInBatches(&records, batchSize).Error
	})

	if err != nil {
		if isUniqueConstraintErr(err) {
			first := events[0]
			return nil, application.NewConcurrencyError(first.AggregateID(), int(first.SequenceNo()), -1)
		}
		return nil, fmt.Errorf("failed to save events: %w", err)
	}

	envelopes := make([]domain.Envelope, len(records))
	for i, record := range records {
		envelopes[i] = &eventEnvelope{
			event:         events[i],
			metadata:      map[string]interface{}{"aggregate_id": record.AggregateID, "event_type": record.EventType},
			eventID:       record.ID,
			timestamp:     record.Timestamp,
			position:      record.Position,
			aggregateType: record.AggregateType,
		}
	}

	return envelopes, nil
}

func isUniqueConstraintErr(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}

// Load retrieves all events for an aggregate
func (s *GormEventStore) Load(ctx context.Context, aggregateID string) ([]domain.Envelope, error) {
	return s.LoadFromSequence(ctx, aggregateID, 0)
}

// LoadFromSequence retrieves events for an aggregate starting from a specific sequence number
func (s *GormEventStore) LoadFromSequence(ctx context.Context, aggregateID string, sequenceNo int64) ([]domain.Envelope, error) {
	var records []EventRecord

	query := s.db.WithContext(ctx).
		Where("aggregate_id = ? AND sequence_no >= ?", aggregateID, sequenceNo).
		Order("sequence_no ASC")

	if err := query.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to load events for aggregate %s: %w", aggregateID, err)
	}

	return recordsToEnvelopes(records)
}

// Query scans the global event stream in position order. It is the
// primitive the projection engine's catch-up/tail loop is built on.
func (s *GormEventStore) Query(ctx context.Context, filter domain.EventFilter) ([]domain.Envelope, error) {
	query := s.db.WithContext(ctx).Model(&EventRecord{}).Order("position ASC")

	if filter.InstanceID != "" {
		query = query.Where("instance_id = ?", filter.InstanceID)
	}
	if filter.AggregateType != "" {
		query = query.Where("aggregate_type = ?", filter.AggregateType)
	}
	if len(filter.EventTypes) > 0 {
		query = query.Where("event_type IN ?", filter.EventTypes)
	}
	if filter.MinPosition > 0 {
		query = query.Where("position > ?", filter.MinPosition)
	}
	if filter.MaxPosition > 0 {
		query = query.Where("position <= ?", filter.MaxPosition)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 500
	}
	query = query.Limit(limit)

	var records []EventRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}

	return recordsToEnvelopes(records)
}

func recordsToEnvelopes(records []EventRecord) ([]domain.Envelope, error) {
	if len(records) == 0 {
		return []domain.Envelope{}, nil
	}

	envelopes := make([]domain.Envelope, len(records))
	for i, record := range records {
		var metadata map[string]interface{}
		if record.Metadata != "" {
			if err := json.Unmarshal([]byte(record.Metadata), &metadata); err != nil {
				return nil, fmt.Errorf("failed to deserialize metadata for event %s: %w", record.ID, err)
			}
		} else {
			metadata = make(map[string]interface{})
		}

		event := &domain.EntityEvent{
			EntityType:    record.AggregateType,
			Type:          localEventType(record.EventType, record.AggregateType),
			AggregateId:   record.AggregateID,
			SequenceNum:   record.SequenceNo,
			CreatedTime:   record.Timestamp,
			InstanceId:    record.InstanceID,
			ResourceOwner: record.ResourceOwner,
			PayloadData:   []byte(record.Data),
		}

		envelopes[i] = &eventEnvelope{
			event:         event,
			metadata:      metadata,
			eventID:       record.ID,
			timestamp:     record.Timestamp,
			position:      record.Position,
			aggregateType: record.AggregateType,
		}
	}

	return envelopes, nil
}

// localEventType strips the "entitytype." prefix EntityEvent.EventType()
// re-adds on read, so EntityEvent.Type carries only the action suffix.
func localEventType(eventType, entityType string) string {
	prefix := entityType + "."
	if entityType != "" && strings.HasPrefix(eventType, prefix) {
		return eventType[len(prefix):]
	}
	return eventType
}
