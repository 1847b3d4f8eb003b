package domain

import (
	"context"
	"testing"
	"time"
)

func TestNewUser(t *testing.T) {
	ctx := context.Background()
	u, err := NewUser(ctx, nopLogger{}, "user-1", "org-1", UserKindHuman, "alice", "alice@example.com", "", "Alice", "Example")
	if err != nil {
		t.Fatalf("NewUser returned unexpected error: %v", err)
	}
	if u.State() != UserStateActive {
		t.Errorf("expected new user to be active, got %s", u.State())
	}
	if u.Email() != "alice@example.com" || u.Username() != "alice" {
		t.Errorf("unexpected email/username: %s %s", u.Email(), u.Username())
	}
	if u.OrgID() != "org-1" {
		t.Errorf("expected org-1, got %s", u.OrgID())
	}
	if len(u.UncommittedEvents()) != 1 {
		t.Fatalf("expected 1 uncommitted event, got %d", len(u.UncommittedEvents()))
	}
}

func TestNewUser_RejectsEmptyFields(t *testing.T) {
	ctx := context.Background()
	if _, err := NewUser(ctx, nopLogger{}, "u", "org-1", UserKindHuman, "", "a@b.com", "", "", ""); err == nil {
		t.Error("expected error for empty username")
	}
	if _, err := NewUser(ctx, nopLogger{}, "u", "org-1", UserKindHuman, "alice", "", "", "", ""); err == nil {
		t.Error("expected error for empty email")
	}
}

func TestUser_ChangeEmail_ResetsVerification(t *testing.T) {
	ctx := context.Background()
	u, _ := NewUser(ctx, nopLogger{}, "user-1", "org-1", UserKindHuman, "alice", "alice@example.com", "", "Alice", "Example")
	u.MarkEventsAsCommitted()

	if err := u.VerifyEmail(ctx, nopLogger{}, time.Now()); err != nil {
		t.Fatalf("VerifyEmail returned unexpected error: %v", err)
	}
	if !u.emailVerified {
		t.Fatal("expected email to be verified")
	}

	if err := u.ChangeEmail(ctx, nopLogger{}, "alice2@example.com"); err != nil {
		t.Fatalf("ChangeEmail returned unexpected error: %v", err)
	}
	if u.Email() != "alice2@example.com" {
		t.Errorf("expected updated email, got %s", u.Email())
	}
	if u.emailVerified {
		t.Error("expected email verification to reset after email change")
	}
}

func TestUser_ChangeEmail_NoOpWhenUnchanged(t *testing.T) {
	ctx := context.Background()
	u, _ := NewUser(ctx, nopLogger{}, "user-1", "org-1", UserKindHuman, "alice", "alice@example.com", "", "", "")
	u.MarkEventsAsCommitted()

	if err := u.ChangeEmail(ctx, nopLogger{}, "alice@example.com"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.HasUncommittedEvents() {
		t.Error("expected no event for an unchanged email")
	}
}

func TestUser_LockUnlockLifecycle(t *testing.T) {
	ctx := context.Background()
	u, _ := NewUser(ctx, nopLogger{}, "user-1", "org-1", UserKindHuman, "alice", "alice@example.com", "", "", "")
	u.MarkEventsAsCommitted()

	if err := u.Lock(ctx, nopLogger{}); err != nil {
		t.Fatalf("Lock returned unexpected error: %v", err)
	}
	if u.State() != UserStateLocked {
		t.Fatalf("expected locked, got %s", u.State())
	}

	if err := u.Lock(ctx, nopLogger{}); err == nil {
		t.Error("expected error locking an already-locked user")
	}

	if err := u.Unlock(ctx, nopLogger{}); err != nil {
		t.Fatalf("Unlock returned unexpected error: %v", err)
	}
	if u.State() != UserStateActive {
		t.Fatalf("expected active after unlock, got %s", u.State())
	}
}

func TestUser_RemoveIsTerminal(t *testing.T) {
	ctx := context.Background()
	u, _ := NewUser(ctx, nopLogger{}, "user-1", "org-1", UserKindHuman, "alice", "alice@example.com", "", "", "")
	u.MarkEventsAsCommitted()

	if err := u.Remove(ctx, nopLogger{}); err != nil {
		t.Fatalf("Remove returned unexpected error: %v", err)
	}
	if u.State() != UserStateDeleted {
		t.Fatalf("expected deleted, got %s", u.State())
	}
	if err := u.Lock(ctx, nopLogger{}); err == nil {
		t.Error("expected locking a removed user to fail")
	}
	if err := u.Remove(ctx, nopLogger{}); err == nil {
		t.Error("expected removing an already-removed user to fail")
	}
}

func TestUser_LinkIDPIdentity_IdempotentAndReplayable(t *testing.T) {
	ctx := context.Background()
	u, _ := NewUser(ctx, nopLogger{}, "user-1", "org-1", UserKindHuman, "alice", "alice@example.com", "", "", "")

	if err := u.LinkIDPIdentity(ctx, nopLogger{}, "idp-1", "ext-1"); err != nil {
		t.Fatalf("LinkIDPIdentity returned unexpected error: %v", err)
	}
	if len(u.IDPLinks()) != 1 {
		t.Fatalf("expected 1 idp link, got %d", len(u.IDPLinks()))
	}

	// Linking the same identity again is a no-op: no new event.
	before := len(u.UncommittedEvents())
	if err := u.LinkIDPIdentity(ctx, nopLogger{}, "idp-1", "ext-1"); err != nil {
		t.Fatalf("unexpected error re-linking same identity: %v", err)
	}
	if len(u.UncommittedEvents()) != before {
		t.Error("expected no new event when re-linking the same identity")
	}

	events := u.UncommittedEvents()
	replayed := NewBlankUser("user-1")
	replayed.LoadFromHistory(events)
	if replayed.State() != UserStateActive || replayed.Email() != "alice@example.com" {
		t.Errorf("replayed user state mismatch: state=%s email=%s", replayed.State(), replayed.Email())
	}
	if len(replayed.IDPLinks()) != 1 {
		t.Errorf("expected replayed user to have 1 idp link, got %d", len(replayed.IDPLinks()))
	}
}

func TestNewUserFromIDP_EmitsAddedThenProvisioned(t *testing.T) {
	ctx := context.Background()
	u, err := NewUserFromIDP(ctx, nopLogger{}, "user-2", "org-1", UserKindHuman, "bob", "bob@example.com", "Bob", "Example", "idp-1", "ext-2")
	if err != nil {
		t.Fatalf("NewUserFromIDP returned unexpected error: %v", err)
	}
	events := u.UncommittedEvents()
	if len(events) != 2 {
		t.Fatalf("expected 2 events (added + provisioned), got %d", len(events))
	}
	if events[0].EventType() != "user.added" || events[1].EventType() != "user.idp.provisioned" {
		t.Errorf("unexpected event order: %s, %s", events[0].EventType(), events[1].EventType())
	}
	if len(u.IDPLinks()) != 1 || u.IDPLinks()[0].ExternalID != "ext-2" {
		t.Errorf("expected provisioned user to carry the idp link, got %+v", u.IDPLinks())
	}
}
