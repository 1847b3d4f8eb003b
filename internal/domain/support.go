package domain

import (
	"context"

	coredomain "github.com/nexusiam/iamcore/pkg/domain"
)

// recorder is satisfied by any aggregate embedding coredomain.Entity: ID()
// and AddEvent() are promoted methods. emit centralizes the
// NewEntityEvent-then-AddEvent sequence every aggregate method follows.
type recorder interface {
	ID() string
	AddEvent(event coredomain.Event)
}

func emit(ctx context.Context, logger coredomain.Logger, a recorder, entityType, eventType string, data interface{}) *coredomain.EntityEvent {
	ev := coredomain.NewEntityEvent(ctx, logger, entityType, eventType, a.ID(), data)
	a.AddEvent(ev)
	return ev
}

// normalizeEventType returns a dotted event type with any "v2."/"v3."
// version infix right after the entity prefix removed, so a versioned name
// maps to its unversioned form. This is how
// LoadFromHistory switches accept both legacy and versioned event names
// without duplicating reducer logic, per the single-normalized-dispatcher
// design note.
func normalizeEventType(entityType, eventType string) string {
	prefix := entityType + "."
	if len(eventType) <= len(prefix) || eventType[:len(prefix)] != prefix {
		return eventType
	}
	rest := eventType[len(prefix):]
	// Strip a "v2." / "v3." ... version infix.
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
