package domain

import (
	"context"
	"testing"
	"time"
)

const testIntentTTL = 10 * time.Minute

func TestNewIDPIntent_GeneratesDistinctSecrets(t *testing.T) {
	ctx := context.Background()
	i, err := NewIDPIntent(ctx, nopLogger{}, "intent-1", "idp-1", "org-1", "https://ok", "https://fail", testIntentTTL)
	if err != nil {
		t.Fatalf("NewIDPIntent returned unexpected error: %v", err)
	}
	if i.State() != IDPIntentStateStarted {
		t.Fatalf("expected started, got %s", i.State())
	}
	if i.CSRFState() == "" || i.Nonce() == "" || i.CodeVerifier() == "" {
		t.Fatal("expected state/nonce/code verifier to be populated")
	}
	if i.CSRFState() == i.Nonce() || i.Nonce() == i.CodeVerifier() {
		t.Error("expected state, nonce and code verifier to be independently generated")
	}
}

func TestNewIDPIntent_RejectsEmptyIDPConfig(t *testing.T) {
	ctx := context.Background()
	if _, err := NewIDPIntent(ctx, nopLogger{}, "intent-1", "", "org-1", "https://ok", "https://fail", testIntentTTL); err == nil {
		t.Error("expected error for empty idp_config_id")
	}
}

func TestIDPIntent_Succeed(t *testing.T) {
	ctx := context.Background()
	i, _ := NewIDPIntent(ctx, nopLogger{}, "intent-1", "idp-1", "org-1", "", "", testIntentTTL)
	i.MarkEventsAsCommitted()

	if err := i.Succeed(ctx, nopLogger{}, "ext-user-1"); err != nil {
		t.Fatalf("Succeed returned unexpected error: %v", err)
	}
	if i.State() != IDPIntentStateSucceeded {
		t.Fatalf("expected succeeded, got %s", i.State())
	}
	if i.ExternalUserID() != "ext-user-1" {
		t.Errorf("expected external user id to be recorded, got %s", i.ExternalUserID())
	}
}

func TestIDPIntent_OnlyOneTerminalTransitionFromStarted(t *testing.T) {
	ctx := context.Background()

	for _, terminal := range []func(*IDPIntent) error{
		func(i *IDPIntent) error { return i.Succeed(ctx, nopLogger{}, "ext-1") },
		func(i *IDPIntent) error { return i.Fail(ctx, nopLogger{}, "provider rejected") },
		func(i *IDPIntent) error { return i.Expire(ctx, nopLogger{}) },
	} {
		i, _ := NewIDPIntent(ctx, nopLogger{}, "intent-1", "idp-1", "org-1", "", "", testIntentTTL)
		i.MarkEventsAsCommitted()

		if err := terminal(i); err != nil {
			t.Fatalf("first terminal transition returned unexpected error: %v", err)
		}

		// Any further transition from a terminal state must fail.
		if err := i.Succeed(ctx, nopLogger{}, "ext-2"); err == nil {
			t.Error("expected Succeed to fail once the intent is already terminal")
		}
		if err := i.Fail(ctx, nopLogger{}, "again"); err == nil {
			t.Error("expected Fail to fail once the intent is already terminal")
		}
		if err := i.Expire(ctx, nopLogger{}); err == nil {
			t.Error("expected Expire to fail once the intent is already terminal")
		}
	}
}

func TestIDPIntent_ReplayPreservesSecretsButNotAfterTerminal(t *testing.T) {
	ctx := context.Background()
	i, _ := NewIDPIntent(ctx, nopLogger{}, "intent-1", "idp-1", "org-1", "https://ok", "https://fail", testIntentTTL)
	if err := i.Fail(ctx, nopLogger{}, "timed out"); err != nil {
		t.Fatalf("Fail returned unexpected error: %v", err)
	}

	events := i.UncommittedEvents()
	replayed := NewBlankIDPIntent("intent-1")
	replayed.LoadFromHistory(events)

	if replayed.State() != IDPIntentStateFailed {
		t.Fatalf("expected replayed intent to be failed, got %s", replayed.State())
	}
	if replayed.CSRFState() != i.CSRFState() || replayed.Nonce() != i.Nonce() {
		t.Error("expected replay to reconstruct the original handshake secrets")
	}
}

func TestNewIDPIntent_CodeVerifierIs43Chars(t *testing.T) {
	ctx := context.Background()
	i, err := NewIDPIntent(ctx, nopLogger{}, "intent-1", "idp-1", "org-1", "", "", testIntentTTL)
	if err != nil {
		t.Fatalf("NewIDPIntent returned unexpected error: %v", err)
	}
	if got := len(i.CodeVerifier()); got != 43 {
		t.Errorf("expected a 43-character code verifier, got %d", got)
	}
}

func TestIDPIntent_ExpiresAtFollowsTTL(t *testing.T) {
	ctx := context.Background()
	i, _ := NewIDPIntent(ctx, nopLogger{}, "intent-1", "idp-1", "org-1", "", "", testIntentTTL)

	if i.Expired(time.Now()) {
		t.Error("expected a freshly started intent not to be expired yet")
	}
	if !i.Expired(time.Now().Add(testIntentTTL + time.Minute)) {
		t.Error("expected the intent to be expired once its TTL has passed")
	}

	i.MarkEventsAsCommitted()
	if err := i.Succeed(ctx, nopLogger{}, "ext-1"); err != nil {
		t.Fatalf("Succeed returned unexpected error: %v", err)
	}
	if i.Expired(time.Now().Add(testIntentTTL + time.Minute)) {
		t.Error("expected a succeeded intent never to report expired")
	}
}
