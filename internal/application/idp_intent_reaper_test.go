package application

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/nexusiam/iamcore/internal/application/projection"
	iamdomain "github.com/nexusiam/iamcore/internal/domain"
	coreinfra "github.com/nexusiam/iamcore/internal/infrastructure"
	coredomain "github.com/nexusiam/iamcore/pkg/domain"
	pkginfra "github.com/nexusiam/iamcore/pkg/infrastructure"
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

type nopDispatcher struct{}

func (nopDispatcher) Dispatch(ctx context.Context, envelopes []coredomain.Envelope) error { return nil }

func newReaperTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	return db
}

// TestIDPIntentReaper_ReapOnce_ExpiresOnlyPastTTLPendingIntents exercises
// ReapOnce against the real event-sourced repository: a started intent
// whose TTL has already elapsed must come back Expired after reaping, while
// a still-live intent and an already-succeeded one are left untouched.
func TestIDPIntentReaper_ReapOnce_ExpiresOnlyPastTTLPendingIntents(t *testing.T) {
	db := newReaperTestDB(t)
	store, err := pkginfra.NewGormEventStore(db)
	if err != nil {
		t.Fatalf("failed to build event store: %v", err)
	}
	uowFor := func() coredomain.UnitOfWork { return pkginfra.NewUnitOfWork(store, nopDispatcher{}) }
	repo := coreinfra.IDPIntentRepositoryProvider(store, uowFor)

	ctx := context.Background()
	mustStart := func(id string, ttl time.Duration) *iamdomain.IDPIntent {
		i, err := iamdomain.NewIDPIntent(ctx, nopLogger{}, id, "idp-1", "org-1", "https://ok", "https://fail", ttl)
		if err != nil {
			t.Fatalf("NewIDPIntent returned unexpected error: %v", err)
		}
		if err := repo.Save(ctx, i); err != nil {
			t.Fatalf("Save returned unexpected error: %v", err)
		}
		return i
	}

	expired := mustStart("intent-expired", -time.Minute)
	live := mustStart("intent-live", time.Hour)
	succeeded := mustStart("intent-succeeded", -time.Minute)
	if err := succeeded.Succeed(ctx, nopLogger{}, "ext-1"); err != nil {
		t.Fatalf("Succeed returned unexpected error: %v", err)
	}
	if err := repo.Save(ctx, succeeded); err != nil {
		t.Fatalf("Save returned unexpected error: %v", err)
	}

	if err := db.AutoMigrate(&projection.IDPIntentRow{}); err != nil {
		t.Fatalf("failed to migrate idp_intent_projections: %v", err)
	}
	seedIDPIntentRow(t, db, expired.ID(), expired.IDPConfigID(), "started", expired.ExpiresAt())
	seedIDPIntentRow(t, db, live.ID(), live.IDPConfigID(), "started", live.ExpiresAt())
	seedIDPIntentRow(t, db, succeeded.ID(), succeeded.IDPConfigID(), "succeeded", succeeded.ExpiresAt())

	reaper := NewIDPIntentReaper(db, repo, nopLogger{}, time.Minute, 0)
	n, err := reaper.ReapOnce(ctx)
	if err != nil {
		t.Fatalf("ReapOnce returned unexpected error: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected exactly 1 intent reaped, got %d", n)
	}

	reloadedExpired, err := repo.Load(ctx, "intent-expired")
	if err != nil {
		t.Fatalf("Load returned unexpected error: %v", err)
	}
	if reloadedExpired.State() != iamdomain.IDPIntentStateExpired {
		t.Errorf("expected intent-expired to be expired, got %s", reloadedExpired.State())
	}

	reloadedLive, err := repo.Load(ctx, "intent-live")
	if err != nil {
		t.Fatalf("Load returned unexpected error: %v", err)
	}
	if reloadedLive.State() != iamdomain.IDPIntentStateStarted {
		t.Errorf("expected intent-live to remain started, got %s", reloadedLive.State())
	}

	reloadedSucceeded, err := repo.Load(ctx, "intent-succeeded")
	if err != nil {
		t.Fatalf("Load returned unexpected error: %v", err)
	}
	if reloadedSucceeded.State() != iamdomain.IDPIntentStateSucceeded {
		t.Errorf("expected intent-succeeded to remain succeeded, got %s", reloadedSucceeded.State())
	}

	// A second pass is idempotent: the now-expired intent has already
	// transitioned, so nothing new should be reaped.
	n, err = reaper.ReapOnce(ctx)
	if err != nil {
		t.Fatalf("second ReapOnce returned unexpected error: %v", err)
	}
	if n != 0 {
		t.Errorf("expected the second reap pass to be a no-op, got %d", n)
	}
}

func seedIDPIntentRow(t *testing.T, db *gorm.DB, id, idpConfigID, status string, expiresAt time.Time) {
	t.Helper()
	row := projection.IDPIntentRow{
		ID:          id,
		IDPConfigID: idpConfigID,
		OrgID:       "org-1",
		Status:      status,
		ExpiresAt:   expiresAt,
		UpdatedAt:   time.Now(),
	}
	if err := db.Create(&row).Error; err != nil {
		t.Fatalf("failed to seed idp_intent_projections row: %v", err)
	}
}
