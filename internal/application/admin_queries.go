package application

import (
	"context"

	"github.com/nexusiam/iamcore/internal/application/projection"
	coreapp "github.com/nexusiam/iamcore/pkg/application"
	coredomain "github.com/nexusiam/iamcore/pkg/domain"
)

// ProjectionStatusQuery surfaces every registered projection's cursor —
// position, last run, failure count — for an operator dashboard.
type ProjectionStatusQuery struct{}

func (q ProjectionStatusQuery) QueryType() string { return "iam.admin.projection_status" }

type ProjectionStatusQueryHandlers struct{ engine *projection.Engine }

func NewProjectionStatusQueryHandlers(engine *projection.Engine) *ProjectionStatusQueryHandlers {
	return &ProjectionStatusQueryHandlers{engine: engine}
}

func (h *ProjectionStatusQueryHandlers) Get(ctx context.Context, log coredomain.Logger, p coreapp.Payload[ProjectionStatusQuery]) (coreapp.Response[any], error) {
	statuses, err := h.engine.Summary(ctx)
	if err != nil {
		return errResponse(err)
	}
	return coreapp.Response[any]{Data: statuses}, nil
}

// ListEventsQuery exposes a raw scan of the global event stream for
// operator tooling — audit trails, debugging a stuck projection, replaying
// a narrow window by hand. It is a thin pass-through over EventStore.Query,
// not a read model of its own.
type ListEventsQuery struct {
	InstanceID    string   `json:"instance_id,omitempty"`
	AggregateType string   `json:"aggregate_type,omitempty"`
	EventTypes    []string `json:"event_types,omitempty"`
	MinPosition   int64    `json:"min_position,omitempty"`
	MaxPosition   int64    `json:"max_position,omitempty"`
	Limit         int      `json:"limit,omitempty"`
}

func (q ListEventsQuery) QueryType() string { return "iam.admin.event_list" }

// EventSummary is the flattened, JSON-friendly projection of an envelope
// this query returns — callers that need the full payload still have to go
// through the aggregate repository for that aggregate type.
type EventSummary struct {
	EventID       string `json:"event_id"`
	EventType     string `json:"event_type"`
	AggregateType string `json:"aggregate_type"`
	AggregateID   string `json:"aggregate_id"`
	SequenceNo    int64  `json:"sequence_no"`
	Position      int64  `json:"position"`
}

type EventQueryHandlers struct{ store coredomain.EventStore }

func NewEventQueryHandlers(store coredomain.EventStore) *EventQueryHandlers {
	return &EventQueryHandlers{store: store}
}

func (h *EventQueryHandlers) List(ctx context.Context, log coredomain.Logger, p coreapp.Payload[ListEventsQuery]) (coreapp.Response[any], error) {
	q := p.Data
	limit := q.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	envelopes, err := h.store.Query(ctx, coredomain.EventFilter{
		InstanceID:    q.InstanceID,
		AggregateType: q.AggregateType,
		EventTypes:    q.EventTypes,
		MinPosition:   q.MinPosition,
		MaxPosition:   q.MaxPosition,
		Limit:         limit,
	})
	if err != nil {
		return errResponse(err)
	}
	summaries := make([]EventSummary, 0, len(envelopes))
	for _, e := range envelopes {
		summaries = append(summaries, EventSummary{
			EventID:       e.EventID(),
			EventType:     e.Event().EventType(),
			AggregateType: e.AggregateType(),
			AggregateID:   e.Event().AggregateID(),
			SequenceNo:    e.Event().SequenceNo(),
			Position:      e.Position(),
		})
	}
	return coreapp.Response[any]{Data: summaries}, nil
}
