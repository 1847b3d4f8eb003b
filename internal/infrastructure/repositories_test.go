package infrastructure

import (
	"context"
	"fmt"
	"testing"

	iamdomain "github.com/nexusiam/iamcore/internal/domain"
	coredomain "github.com/nexusiam/iamcore/pkg/domain"
	coreinfra "github.com/nexusiam/iamcore/pkg/infrastructure"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{})  {}
func (nopLogger) Info(string, ...interface{})   {}
func (nopLogger) Warn(string, ...interface{})   {}
func (nopLogger) Error(string, ...interface{})  {}
func (nopLogger) Fatal(string, ...interface{})  {}
func (nopLogger) Debugf(string, ...interface{}) {}
func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}
func (nopLogger) Fatalf(string, ...interface{}) {}

// nopDispatcher discards every batch of envelopes; the round-trip below
// only cares about what the event store persisted, not about fan-out to
// projections.
type nopDispatcher struct{}

func (nopDispatcher) Dispatch(ctx context.Context, envelopes []coredomain.Envelope) error { return nil }

func newRepoTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	return db
}

// TestUserRepository_SaveThenLoad_RoundTripsAggregateState exercises the
// full stack a command handler runs on: a real GormEventStore persists the
// events a User aggregate records, and EventSourcedRepository.Load
// reconstructs an equivalent aggregate purely by replaying them back.
func TestUserRepository_SaveThenLoad_RoundTripsAggregateState(t *testing.T) {
	db := newRepoTestDB(t)
	store, err := coreinfra.NewGormEventStore(db)
	if err != nil {
		t.Fatalf("failed to build event store: %v", err)
	}

	uowFor := func() coredomain.UnitOfWork { return coreinfra.NewUnitOfWork(store, nopDispatcher{}) }
	repo := UserRepositoryProvider(store, uowFor)

	ctx := context.Background()
	u, err := iamdomain.NewUser(ctx, nopLogger{}, "user-1", "org-1", iamdomain.UserKindHuman, "alice", "alice@example.com", "", "Alice", "Example")
	if err != nil {
		t.Fatalf("NewUser returned unexpected error: %v", err)
	}
	if err := u.LinkIDPIdentity(ctx, nopLogger{}, "idp-1", "ext-1"); err != nil {
		t.Fatalf("LinkIDPIdentity returned unexpected error: %v", err)
	}

	if err := repo.Save(ctx, u); err != nil {
		t.Fatalf("Save returned unexpected error: %v", err)
	}
	if u.HasUncommittedEvents() {
		t.Error("expected Save to mark events committed")
	}

	loaded, err := repo.Load(ctx, "user-1")
	if err != nil {
		t.Fatalf("Load returned unexpected error: %v", err)
	}
	if loaded.State() != iamdomain.UserStateActive {
		t.Errorf("expected loaded user active, got %s", loaded.State())
	}
	if loaded.Email() != "alice@example.com" || loaded.Username() != "alice" {
		t.Errorf("unexpected loaded user fields: email=%s username=%s", loaded.Email(), loaded.Username())
	}
	if len(loaded.IDPLinks()) != 1 || loaded.IDPLinks()[0].ExternalID != "ext-1" {
		t.Errorf("expected loaded user to carry the linked idp identity, got %+v", loaded.IDPLinks())
	}

	// A second Save round-trip, applying further changes on top of the
	// reloaded aggregate, must append rather than clobber its history.
	if err := loaded.Lock(ctx, nopLogger{}); err != nil {
		t.Fatalf("Lock returned unexpected error: %v", err)
	}
	if err := repo.Save(ctx, loaded); err != nil {
		t.Fatalf("second Save returned unexpected error: %v", err)
	}

	reloaded, err := repo.Load(ctx, "user-1")
	if err != nil {
		t.Fatalf("reload returned unexpected error: %v", err)
	}
	if reloaded.State() != iamdomain.UserStateLocked {
		t.Errorf("expected reloaded user locked, got %s", reloaded.State())
	}
	if len(reloaded.IDPLinks()) != 1 {
		t.Errorf("expected idp link from the first save to survive, got %+v", reloaded.IDPLinks())
	}
}

// TestUserRepository_Load_UnknownID_ReturnsNotFound confirms the generic
// repository surfaces a not-found error rather than a zero-value aggregate
// when nothing was ever saved for an id.
func TestUserRepository_Load_UnknownID_ReturnsNotFound(t *testing.T) {
	db := newRepoTestDB(t)
	store, err := coreinfra.NewGormEventStore(db)
	if err != nil {
		t.Fatalf("failed to build event store: %v", err)
	}
	uowFor := func() coredomain.UnitOfWork { return coreinfra.NewUnitOfWork(store, nopDispatcher{}) }
	repo := UserRepositoryProvider(store, uowFor)

	if _, err := repo.Load(context.Background(), "does-not-exist"); err == nil {
		t.Error("expected loading an unknown aggregate id to fail")
	}
}
