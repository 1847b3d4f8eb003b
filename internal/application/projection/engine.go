// Package projection implements the read-model catch-up engine and its
// thirteen aggregate reducers. Unlike the teacher, which only ever
// dispatches events directly off Watermill with no durable cursor, this
// package polls the eventstore's global position sequence so a reducer can
// be added, removed, or rebuilt from scratch without touching the pub/sub
// wiring at all — EventStore.Query(filter) is the only primitive it needs.
package projection

import (
	"context"
	"errors"
	"fmt"
	"time"

	coredomain "github.com/nexusiam/iamcore/pkg/domain"
	"gorm.io/gorm"
)

// Projection is the capability interface every reducer implements. A
// catch-up run asks EventTypes()/AggregateTypes() to narrow the global
// event scan to what the reducer actually cares about, then hands each
// matching envelope to Reduce in position order.
type Projection interface {
	Name() string
	EventTypes() []string
	AggregateTypes() []string
	BatchSize() int
	Interval() time.Duration
	Init(ctx context.Context) error
	Reduce(ctx context.Context, envelope coredomain.Envelope) error
}

// ProjectionCursor is the durable checkpoint for one projection: the last
// global position it has fully applied, plus enough failure bookkeeping to
// drive the engine's health/summary surface and its backoff policy.
type ProjectionCursor struct {
	Name                  string `gorm:"primaryKey;size:64"`
	LastProcessedPosition int64
	LastProcessedAt       time.Time
	FailureCount          int
	LastError             string `gorm:"type:text"`
}

func (ProjectionCursor) TableName() string { return "projection_cursors" }

// Status is the read-only view of a ProjectionCursor returned by Summary.
type Status struct {
	Name                  string
	LastProcessedPosition int64
	LastProcessedAt       time.Time
	FailureCount          int
	LastError             string
	Healthy               bool
}

// Engine owns a registry of Projections and their cursors, and runs one
// catch-up/tail goroutine per registered projection.
type Engine struct {
	db             *gorm.DB
	eventStore     coredomain.EventStore
	logger         coredomain.Logger
	projections    []Projection
	backoffCeiling time.Duration
}

// NewEngine builds an Engine backed by db for cursor storage and eventStore
// for the global event scan. backoffCeiling bounds the exponential backoff
// a failing projection's tail loop climbs to; pass 0 for the default (5m).
func NewEngine(db *gorm.DB, eventStore coredomain.EventStore, logger coredomain.Logger, backoffCeiling time.Duration) (*Engine, error) {
	if err := db.AutoMigrate(&ProjectionCursor{}); err != nil {
		return nil, fmt.Errorf("failed to migrate projection cursors table: %w", err)
	}
	if backoffCeiling <= 0 {
		backoffCeiling = 5 * time.Minute
	}
	return &Engine{db: db, eventStore: eventStore, logger: logger, backoffCeiling: backoffCeiling}, nil
}

// Register adds a projection to the engine. Must be called before Start.
func (e *Engine) Register(p Projection) {
	e.projections = append(e.projections, p)
}

// Start initializes every registered projection, ensures it has a cursor
// row, and launches its tail loop. The loops run until ctx is cancelled.
func (e *Engine) Start(ctx context.Context) error {
	for _, p := range e.projections {
		if err := p.Init(ctx); err != nil {
			return fmt.Errorf("init projection %s: %w", p.Name(), err)
		}
		if err := e.ensureCursor(ctx, p.Name()); err != nil {
			return fmt.Errorf("ensure cursor for %s: %w", p.Name(), err)
		}
		go e.loop(ctx, p)
	}
	return nil
}

func (e *Engine) ensureCursor(ctx context.Context, name string) error {
	var cursor ProjectionCursor
	err := e.db.WithContext(ctx).Where("name = ?", name).First(&cursor).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return e.db.WithContext(ctx).Create(&ProjectionCursor{Name: name}).Error
}

func (e *Engine) loop(ctx context.Context, p Projection) {
	interval := p.Interval()
	if interval <= 0 {
		interval = time.Second
	}
	backoff := interval
	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}

		if err := e.CatchUp(ctx, p); err != nil {
			e.logger.Error("projection catch-up failed", "projection", p.Name(), "error", err)
			backoff *= 2
			if backoff > e.backoffCeiling {
				backoff = e.backoffCeiling
			}
			continue
		}
		backoff = interval
	}
}

// CatchUp drains every event newer than p's cursor, in position order, in
// batches of p.BatchSize(). It is exported so tests and a manual rebuild
// CLI can drive it synchronously without waiting on the tail loop's ticker.
func (e *Engine) CatchUp(ctx context.Context, p Projection) error {
	var cursor ProjectionCursor
	if err := e.db.WithContext(ctx).Where("name = ?", p.Name()).First(&cursor).Error; err != nil {
		return fmt.Errorf("load cursor: %w", err)
	}

	batchSize := p.BatchSize()
	if batchSize <= 0 {
		batchSize = 200
	}

	for {
		filter := coredomain.EventFilter{
			EventTypes:  p.EventTypes(),
			MinPosition: cursor.LastProcessedPosition,
			Limit:       batchSize,
		}
		envelopes, err := e.eventStore.Query(ctx, filter)
		if err != nil {
			e.recordFailure(ctx, p.Name(), err)
			return err
		}
		if len(envelopes) == 0 {
			break
		}

		for _, envelope := range envelopes {
			if !matchesAggregateType(p, envelope) {
				cursor.LastProcessedPosition = envelope.Position()
				continue
			}
			if err := p.Reduce(ctx, envelope); err != nil {
				e.recordFailure(ctx, p.Name(), err)
				return err
			}
			cursor.LastProcessedPosition = envelope.Position()
		}

		cursor.LastProcessedAt = time.Now()
		cursor.FailureCount = 0
		cursor.LastError = ""
		if err := e.db.WithContext(ctx).Save(&cursor).Error; err != nil {
			return fmt.Errorf("save cursor: %w", err)
		}

		if len(envelopes) < batchSize {
			break
		}
	}
	return nil
}

// NormalizeEventType strips a "v2."/"v3." version infix right after the
// entity prefix, the same normalization internal/domain's aggregates apply
// on replay, so a reducer's switch handles legacy and versioned event names
// identically rather than duplicating a case per version.
func NormalizeEventType(entityType, eventType string) string {
	prefix := entityType + "."
	if len(eventType) <= len(prefix) || eventType[:len(prefix)] != prefix {
		return eventType
	}
	rest := eventType[len(prefix):]
	for i := 0; i < len(rest); i++ {
		if rest[i] == '.' {
			if i >= 2 && rest[0] == 'v' {
				allDigits := true
				for j := 1; j < i; j++ {
					if rest[j] < '0' || rest[j] > '9' {
						allDigits = false
						break
					}
				}
				if allDigits {
					return entityType + "." + rest[i+1:]
				}
			}
			break
		}
	}
	return eventType
}

func matchesAggregateType(p Projection, envelope coredomain.Envelope) bool {
	types := p.AggregateTypes()
	if len(types) == 0 {
		return true
	}
	for _, t := range types {
		if t == envelope.AggregateType() {
			return true
		}
	}
	return false
}

func (e *Engine) recordFailure(ctx context.Context, name string, cause error) {
	var cursor ProjectionCursor
	if err := e.db.WithContext(ctx).Where("name = ?", name).First(&cursor).Error; err != nil {
		return
	}
	cursor.FailureCount++
	cursor.LastError = cause.Error()
	e.db.WithContext(ctx).Save(&cursor)
}

// Summary reports the current cursor state of every registered projection,
// the data backing the admin "projection status" surface.
func (e *Engine) Summary(ctx context.Context) ([]Status, error) {
	var cursors []ProjectionCursor
	if err := e.db.WithContext(ctx).Find(&cursors).Error; err != nil {
		return nil, err
	}
	statuses := make([]Status, len(cursors))
	for i, c := range cursors {
		statuses[i] = Status{
			Name:                  c.Name,
			LastProcessedPosition: c.LastProcessedPosition,
			LastProcessedAt:       c.LastProcessedAt,
			FailureCount:          c.FailureCount,
			LastError:             c.LastError,
			Healthy:               c.FailureCount == 0,
		}
	}
	return statuses, nil
}
