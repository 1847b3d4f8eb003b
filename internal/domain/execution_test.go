package domain

import (
	"context"
	"testing"
)

func TestNewExecution_RequiresCondition(t *testing.T) {
	ctx := context.Background()
	if _, err := NewExecution(ctx, nopLogger{}, "exec-1", "project-1", "", "target-1"); err == nil {
		t.Error("expected error for empty condition")
	}
}

func TestExecution_AddInclude_RejectsSelfInclude(t *testing.T) {
	ctx := context.Background()
	e, _ := NewExecution(ctx, nopLogger{}, "exec-1", "project-1", "event.created", "")

	err := e.AddInclude(ctx, nopLogger{}, fakeExecutionGraph{}, "exec-1")
	if err == nil {
		t.Fatal("expected error including self")
	}
}

func TestExecution_AddInclude_RejectsDirectCycle(t *testing.T) {
	ctx := context.Background()
	a, _ := NewExecution(ctx, nopLogger{}, "exec-a", "project-1", "event.created", "")

	// exec-b already includes exec-a; wiring exec-a -> exec-b would close a
	// 2-node cycle (a -> b -> a).
	graph := fakeExecutionGraph{"exec-b": {"exec-a"}}

	if err := a.AddInclude(ctx, nopLogger{}, graph, "exec-b"); err == nil {
		t.Fatal("expected cycle detection to reject exec-a -> exec-b")
	}
}

func TestExecution_AddInclude_RejectsTransitiveCycle(t *testing.T) {
	ctx := context.Background()
	a, _ := NewExecution(ctx, nopLogger{}, "exec-a", "project-1", "event.created", "")

	// exec-c includes exec-b, exec-b includes exec-a: wiring a -> c would
	// close the cycle a -> c -> b -> a.
	graph := fakeExecutionGraph{
		"exec-c": {"exec-b"},
		"exec-b": {"exec-a"},
	}

	if err := a.AddInclude(ctx, nopLogger{}, graph, "exec-c"); err == nil {
		t.Fatal("expected cycle detection to reject the transitive cycle")
	}
}

func TestExecution_AddInclude_AllowsAcyclicFanOut(t *testing.T) {
	ctx := context.Background()
	a, _ := NewExecution(ctx, nopLogger{}, "exec-a", "project-1", "event.created", "")

	graph := fakeExecutionGraph{"exec-d": {}}

	if err := a.AddInclude(ctx, nopLogger{}, graph, "exec-d"); err != nil {
		t.Fatalf("expected acyclic include to succeed, got error: %v", err)
	}
	if len(a.Includes()) != 1 || a.Includes()[0] != "exec-d" {
		t.Errorf("expected exec-d to be included, got %+v", a.Includes())
	}
}

func TestExecution_AddInclude_IdempotentOnDuplicate(t *testing.T) {
	ctx := context.Background()
	a, _ := NewExecution(ctx, nopLogger{}, "exec-a", "project-1", "event.created", "")
	graph := fakeExecutionGraph{}

	if err := a.AddInclude(ctx, nopLogger{}, graph, "exec-d"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	before := len(a.UncommittedEvents())
	if err := a.AddInclude(ctx, nopLogger{}, graph, "exec-d"); err != nil {
		t.Fatalf("unexpected error re-adding same include: %v", err)
	}
	if len(a.UncommittedEvents()) != before {
		t.Error("expected no new event for a duplicate include")
	}
}

func TestExecution_RemoveInclude(t *testing.T) {
	ctx := context.Background()
	a, _ := NewExecution(ctx, nopLogger{}, "exec-a", "project-1", "event.created", "")
	if err := a.AddInclude(ctx, nopLogger{}, fakeExecutionGraph{}, "exec-d"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	a.MarkEventsAsCommitted()

	if err := a.RemoveInclude(ctx, nopLogger{}, "exec-d"); err != nil {
		t.Fatalf("RemoveInclude returned unexpected error: %v", err)
	}
	if len(a.Includes()) != 0 {
		t.Errorf("expected no includes after removal, got %+v", a.Includes())
	}

	// Removing an absent include is a no-op.
	before := len(a.UncommittedEvents())
	if err := a.RemoveInclude(ctx, nopLogger{}, "exec-missing"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(a.UncommittedEvents()) != before {
		t.Error("expected no event removing an include that was never present")
	}
}

func TestExecution_RemoveIsTerminal(t *testing.T) {
	ctx := context.Background()
	a, _ := NewExecution(ctx, nopLogger{}, "exec-a", "project-1", "event.created", "target-1")
	a.MarkEventsAsCommitted()

	if err := a.Remove(ctx, nopLogger{}); err != nil {
		t.Fatalf("Remove returned unexpected error: %v", err)
	}
	if a.State() != ExecutionStateRemoved {
		t.Fatalf("expected removed, got %s", a.State())
	}
	if err := a.Remove(ctx, nopLogger{}); err == nil {
		t.Error("expected removing an already-removed execution to fail")
	}
}
