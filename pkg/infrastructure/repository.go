package infrastructure

import (
	"context"

	"github.com/nexusiam/iamcore/pkg/application"
	"github.com/nexusiam/iamcore/pkg/domain"
)

// EventSourcedRepository is a generic domain.Repository[T] implementation:
// Load replays an aggregate's full event history through the event store,
// Save registers its uncommitted events with a UnitOfWork and commits them.
// Every aggregate repository in internal/infrastructure/repositories.go is a
// thin constructor call around this type rather than its own hand-rolled
// persistence logic.
type EventSourcedRepository[T domain.AggregateRoot] struct {
	eventStore    domain.EventStore
	unitOfWorkFor UnitOfWorkFactory
	newBlank      func(id string) T
	typeName      string
}

// NewEventSourcedRepository builds a repository for aggregate type T.
// newBlank must return a T with its identity already set (e.g. via
// coredomain.NewEntity(id)) but otherwise unpopulated, ready for
// LoadFromHistory; typeName is used only for NotFoundError messages. A
// fresh UnitOfWork is requested from unitOfWorkFor on every Save, since a
// UnitOfWork commits exactly once.
func NewEventSourcedRepository[T domain.AggregateRoot](eventStore domain.EventStore, unitOfWorkFor UnitOfWorkFactory, typeName string, newBlank func(id string) T) *EventSourcedRepository[T] {
	return &EventSourcedRepository[T]{
		eventStore:    eventStore,
		unitOfWorkFor: unitOfWorkFor,
		newBlank:      newBlank,
		typeName:      typeName,
	}
}

// Load reconstructs the aggregate from its complete event history.
func (r *EventSourcedRepository[T]) Load(ctx context.Context, id string) (T, error) {
	var zero T

	envelopes, err := r.eventStore.Load(ctx, id)
	if err != nil {
		return zero, application.NewApplicationError("EVENT_LOAD_FAILED", "failed to load event history", err)
	}
	if len(envelopes) == 0 {
		return zero, application.NewNotFoundError(r.typeName, id)
	}

	events := make([]domain.Event, len(envelopes))
	for i, envelope := range envelopes {
		events[i] = envelope.Event()
	}

	aggregate := r.newBlank(id)
	aggregate.LoadFromHistory(events)
	return aggregate, nil
}

// Exists reports whether any events have been recorded for id.
func (r *EventSourcedRepository[T]) Exists(ctx context.Context, id string) (bool, error) {
	envelopes, err := r.eventStore.Load(ctx, id)
	if err != nil {
		return false, application.NewApplicationError("EVENT_LOAD_FAILED", "failed to check aggregate existence", err)
	}
	return len(envelopes) > 0, nil
}

// Save persists the aggregate's uncommitted events via the unit of work and
// marks them committed once the commit succeeds.
func (r *EventSourcedRepository[T]) Save(ctx context.Context, aggregate T) error {
	events := aggregate.UncommittedEvents()
	if len(events) == 0 {
		return nil
	}

	uow := r.unitOfWorkFor()
	uow.RegisterEvents(events)
	if _, err := uow.Commit(ctx); err != nil {
		return err
	}

	aggregate.MarkEventsAsCommitted()
	return nil
}
