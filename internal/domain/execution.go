package domain

import (
	"context"
	"fmt"

	coredomain "github.com/nexusiam/iamcore/pkg/domain"
)

// ExecutionState is the lifecycle state of an execution hook.
type ExecutionState string

const (
	ExecutionStateActive  ExecutionState = "active"
	ExecutionStateRemoved ExecutionState = "removed"
)

// Execution is a project-scoped hook: on a matching event condition it
// delivers to a Target, or includes another Execution node so hooks can be
// composed. The include graph must stay acyclic; AddInclude/SetIncludes
// reject any edge that would close a cycle.
type Execution struct {
	coredomain.Entity

	projectID string
	condition string
	targetID  string
	includes  []string
	state     ExecutionState

	graph executionGraph
}

// executionGraph resolves the current include edges of every sibling
// Execution in the same project, supplied by the caller (the projection
// layer keeps this in sync) so AddInclude can walk the full graph rather
// than just this node's own edges.
type executionGraph interface {
	IncludesOf(executionID string) []string
}

type ExecutionAdded struct {
	ProjectID string   `json:"project_id"`
	Condition string   `json:"condition"`
	TargetID  string   `json:"target_id,omitempty"`
	Includes  []string `json:"includes,omitempty"`
}

type ExecutionConditionChanged struct {
	Condition string `json:"condition"`
}

type ExecutionIncludeAdded struct {
	IncludeID string `json:"include_id"`
}

type ExecutionIncludeRemoved struct {
	IncludeID string `json:"include_id"`
}

type ExecutionRemoved struct{}

// NewExecution creates a hook for projectID. Exactly one of targetID or an
// initial include set should typically be set, though both are legal (a
// node may both deliver and fan out).
func NewExecution(ctx context.Context, logger coredomain.Logger, id, projectID, condition, targetID string) (*Execution, error) {
	if condition == "" {
		return nil, coredomain.NewValidationError("condition", "must not be empty", condition)
	}
	e := &Execution{Entity: coredomain.NewEntity(id)}
	added := ExecutionAdded{ProjectID: projectID, Condition: condition, TargetID: targetID}
	emit(ctx, logger, e, "execution", "added", added)
	e.apply(added)
	return e, nil
}

// ChangeCondition updates the trigger condition. No-op if unchanged.
func (e *Execution) ChangeCondition(ctx context.Context, logger coredomain.Logger, condition string) error {
	if condition == "" {
		return coredomain.NewValidationError("condition", "must not be empty", condition)
	}
	if condition == e.condition {
		return nil
	}
	emit(ctx, logger, e, "execution", "condition.changed", ExecutionConditionChanged{Condition: condition})
	e.condition = condition
	return nil
}

// AddInclude wires in another Execution node, rejecting the edge if it
// would close a cycle in the graph resolved via g.
func (e *Execution) AddInclude(ctx context.Context, logger coredomain.Logger, g executionGraph, includeID string) error {
	if includeID == e.ID() {
		return coredomain.NewDomainError("CYCLE_DETECTED", "an execution cannot include itself", nil)
	}
	for _, existing := range e.includes {
		if existing == includeID {
			return nil
		}
	}
	if wouldCycle(g, e.ID(), includeID) {
		return coredomain.NewDomainError("CYCLE_DETECTED", fmt.Sprintf("including %s would create a cycle", includeID), nil)
	}
	emit(ctx, logger, e, "execution", "include.added", ExecutionIncludeAdded{IncludeID: includeID})
	e.includes = append(e.includes, includeID)
	return nil
}

// RemoveInclude drops an include edge. No-op if absent.
func (e *Execution) RemoveInclude(ctx context.Context, logger coredomain.Logger, includeID string) error {
	found := false
	for _, id := range e.includes {
		if id == includeID {
			found = true
			break
		}
	}
	if !found {
		return nil
	}
	emit(ctx, logger, e, "execution", "include.removed", ExecutionIncludeRemoved{IncludeID: includeID})
	e.removeInclude(includeID)
	return nil
}

func (e *Execution) Remove(ctx context.Context, logger coredomain.Logger) error {
	if e.state == ExecutionStateRemoved {
		return coredomain.NewDomainError("PRECONDITION_FAILED", "execution is already removed", nil)
	}
	emit(ctx, logger, e, "execution", "removed", ExecutionRemoved{})
	e.state = ExecutionStateRemoved
	return nil
}

// wouldCycle reports whether adding the edge from->to would create a cycle
// in the include graph resolved by g, via depth-first search from `to`
// looking for a path back to `from`.
func wouldCycle(g executionGraph, from, to string) bool {
	visited := make(map[string]bool)
	var dfs func(node string) bool
	dfs = func(node string) bool {
		if node == from {
			return true
		}
		if visited[node] {
			return false
		}
		visited[node] = true
		for _, next := range g.IncludesOf(node) {
			if dfs(next) {
				return true
			}
		}
		return false
	}
	return dfs(to)
}

func (e *Execution) removeInclude(includeID string) {
	kept := e.includes[:0]
	for _, id := range e.includes {
		if id != includeID {
			kept = append(kept, id)
		}
	}
	e.includes = kept
}

func (e *Execution) State() ExecutionState { return e.state }
func (e *Execution) ProjectID() string     { return e.projectID }
func (e *Execution) Condition() string     { return e.condition }
func (e *Execution) TargetID() string      { return e.targetID }
func (e *Execution) Includes() []string    { return e.includes }

func (e *Execution) LoadFromHistory(events []coredomain.Event) {
	for _, event := range events {
		ee, ok := event.(*coredomain.EntityEvent)
		if !ok {
			continue
		}
		switch normalizeEventType("execution", ee.EventType()) {
		case "execution.added":
			var v ExecutionAdded
			DecodePayload(ee.Payload(), &v)
			e.apply(v)
		case "execution.condition.changed":
			var v ExecutionConditionChanged
			DecodePayload(ee.Payload(), &v)
			e.condition = v.Condition
		case "execution.include.added":
			var v ExecutionIncludeAdded
			DecodePayload(ee.Payload(), &v)
			e.includes = append(e.includes, v.IncludeID)
		case "execution.include.removed":
			var v ExecutionIncludeRemoved
			DecodePayload(ee.Payload(), &v)
			e.removeInclude(v.IncludeID)
		case "execution.removed":
			e.state = ExecutionStateRemoved
		}
	}
	e.Entity.LoadFromHistory(events)
}

func (e *Execution) apply(payload interface{}) {
	switch v := payload.(type) {
	case ExecutionAdded:
		e.projectID = v.ProjectID
		e.condition = v.Condition
		e.targetID = v.TargetID
		e.includes = v.Includes
		e.state = ExecutionStateActive
	}
}

// ExecutionRepository loads and saves Execution aggregates.
type ExecutionRepository = coredomain.Repository[*Execution]

// NewBlankExecution returns an unpopulated Execution identified by id, ready for
// LoadFromHistory. Used by the event-sourced repository to reconstruct an
// aggregate from its event history.
func NewBlankExecution(id string) *Execution {
	return &Execution{Entity: coredomain.NewEntity(id)}
}
