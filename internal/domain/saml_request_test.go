package domain

import (
	"context"
	"testing"
)

func TestNewSAMLRequest_RejectsEmptyApplicationID(t *testing.T) {
	ctx := context.Background()
	if _, err := NewSAMLRequest(ctx, nopLogger{}, "req-1", "", "issuer", "https://acs", "relay"); err == nil {
		t.Error("expected error for empty application_id")
	}
}

func TestSAMLRequest_LinkToUser(t *testing.T) {
	ctx := context.Background()
	r, err := NewSAMLRequest(ctx, nopLogger{}, "req-1", "app-1", "issuer", "https://acs", "relay")
	if err != nil {
		t.Fatalf("NewSAMLRequest returned unexpected error: %v", err)
	}
	if r.State() != SAMLRequestStateAdded {
		t.Fatalf("expected added, got %s", r.State())
	}
	r.MarkEventsAsCommitted()

	if err := r.LinkToUser(ctx, nopLogger{}, "user-1"); err != nil {
		t.Fatalf("LinkToUser returned unexpected error: %v", err)
	}
	if r.State() != SAMLRequestStateSucceeded {
		t.Fatalf("expected succeeded, got %s", r.State())
	}
	if r.UserID() != "user-1" {
		t.Errorf("expected user id recorded, got %s", r.UserID())
	}
}

func TestSAMLRequest_OnlyOneTerminalTransitionFromAdded(t *testing.T) {
	ctx := context.Background()

	for _, terminal := range []func(*SAMLRequest) error{
		func(r *SAMLRequest) error { return r.LinkToUser(ctx, nopLogger{}, "user-1") },
		func(r *SAMLRequest) error { return r.Fail(ctx, nopLogger{}, "no grant") },
	} {
		r, _ := NewSAMLRequest(ctx, nopLogger{}, "req-1", "app-1", "issuer", "https://acs", "relay")
		r.MarkEventsAsCommitted()

		if err := terminal(r); err != nil {
			t.Fatalf("first terminal transition returned unexpected error: %v", err)
		}
		if err := r.LinkToUser(ctx, nopLogger{}, "user-2"); err == nil {
			t.Error("expected LinkToUser to fail once the request is already terminal")
		}
		if err := r.Fail(ctx, nopLogger{}, "again"); err == nil {
			t.Error("expected Fail to fail once the request is already terminal")
		}
	}
}

func TestSAMLRequest_ReplayReconstructsState(t *testing.T) {
	ctx := context.Background()
	r, err := NewSAMLRequest(ctx, nopLogger{}, "req-1", "app-1", "issuer", "https://acs", "relay")
	if err != nil {
		t.Fatalf("NewSAMLRequest returned unexpected error: %v", err)
	}
	if err := r.LinkToUser(ctx, nopLogger{}, "user-1"); err != nil {
		t.Fatalf("LinkToUser returned unexpected error: %v", err)
	}

	events := r.UncommittedEvents()
	replayed := NewBlankSAMLRequest("req-1")
	replayed.LoadFromHistory(events)

	if replayed.State() != SAMLRequestStateSucceeded {
		t.Fatalf("expected replayed request succeeded, got %s", replayed.State())
	}
	if replayed.UserID() != "user-1" {
		t.Errorf("expected replay to reconstruct the linked user id, got %s", replayed.UserID())
	}
}
