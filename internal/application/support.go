package application

import (
	"context"

	coreapp "github.com/nexusiam/iamcore/pkg/application"
	coredomain "github.com/nexusiam/iamcore/pkg/domain"
)

// loadModifySave is the shape nearly every IAM command handler follows:
// load the aggregate, apply one domain mutation, persist it. Factoring it
// out keeps each handler down to the one line that is actually specific to
// it — the mutate closure.
func loadModifySave[T coredomain.AggregateRoot](ctx context.Context, repo coredomain.Repository[T], id string, mutate func(T) error) (T, error) {
	agg, err := repo.Load(ctx, id)
	if err != nil {
		var zero T
		return zero, translateErr(err)
	}
	if err := mutate(agg); err != nil {
		var zero T
		return zero, translateErr(err)
	}
	if err := repo.Save(ctx, agg); err != nil {
		var zero T
		return zero, translateErr(err)
	}
	return agg, nil
}

// okResponse builds the common success shape: no data, just the aggregate's
// new version for optimistic-concurrency-aware clients.
func okResponse(version int) coreapp.Response[any] {
	return coreapp.Response[any]{Data: struct{}{}, Metadata: map[string]any{"version": version}}
}

func errResponse(err error) (coreapp.Response[any], error) {
	return coreapp.Response[any]{Error: err}, err
}

// adaptCommand lifts a concrete-command handler into the Handler[Command,
// any] shape the bus registers, so every *CommandHandlers method can be
// written against its own command type instead of re-asserting
// coreapp.Command on every line.
func adaptCommand[C coreapp.Command](h func(context.Context, coredomain.Logger, coreapp.Payload[C]) (coreapp.Response[any], error)) coreapp.Handler[coreapp.Command, any] {
	return func(ctx context.Context, log coredomain.Logger, p coreapp.Payload[coreapp.Command]) (coreapp.Response[any], error) {
		cmd, ok := p.Data.(C)
		if !ok {
			err := coreapp.NewValidationError("", "unexpected command type")
			return coreapp.Response[any]{Error: err}, err
		}
		return h(ctx, log, coreapp.Payload[C]{Data: cmd, Metadata: p.Metadata, TraceID: p.TraceID, UserID: p.UserID})
	}
}

// adaptQuery is adaptCommand's query-side counterpart.
func adaptQuery[Q coreapp.Query](h func(context.Context, coredomain.Logger, coreapp.Payload[Q]) (coreapp.Response[any], error)) coreapp.Handler[coreapp.Query, any] {
	return func(ctx context.Context, log coredomain.Logger, p coreapp.Payload[coreapp.Query]) (coreapp.Response[any], error) {
		q, ok := p.Data.(Q)
		if !ok {
			err := coreapp.NewValidationError("", "unexpected query type")
			return coreapp.Response[any]{Error: err}, err
		}
		return h(ctx, log, coreapp.Payload[Q]{Data: q, Metadata: p.Metadata, TraceID: p.TraceID, UserID: p.UserID})
	}
}
