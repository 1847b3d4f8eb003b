package application

import (
	"context"
	"time"

	"github.com/nexusiam/iamcore/internal/application/projection"
	iamdomain "github.com/nexusiam/iamcore/internal/domain"
	coredomain "github.com/nexusiam/iamcore/pkg/domain"
	"gorm.io/gorm"
)

// IDPIntentReaper transitions pending intents past their TTL to expired, the
// same way projection.Engine ticks a catch-up loop per registered
// projection: a ticker drives ReapOnce on an interval until ctx is
// cancelled. Unlike a projection, reaping mutates the aggregate itself
// (through the repository, emitting idp.intent.expired) rather than a read
// model, since "expired intents must not authenticate" is an aggregate
// invariant the Succeed/Fail command handlers rely on, not just a query-time
// filter.
type IDPIntentReaper struct {
	db       *gorm.DB
	repo     iamdomain.IDPIntentRepository
	logger   coredomain.Logger
	interval time.Duration
	batch    int
}

// NewIDPIntentReaper builds a reaper polling every interval (the default is
// 1m when interval <= 0) for up to batch pending intents at a time (default
// 100).
func NewIDPIntentReaper(db *gorm.DB, repo iamdomain.IDPIntentRepository, logger coredomain.Logger, interval time.Duration, batch int) *IDPIntentReaper {
	if interval <= 0 {
		interval = time.Minute
	}
	if batch <= 0 {
		batch = 100
	}
	return &IDPIntentReaper{db: db, repo: repo, logger: logger, interval: interval, batch: batch}
}

// Start launches the reap loop in its own goroutine. It returns immediately;
// the loop runs until ctx is cancelled.
func (r *IDPIntentReaper) Start(ctx context.Context) {
	go r.loop(ctx)
}

func (r *IDPIntentReaper) loop(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if n, err := r.ReapOnce(ctx); err != nil {
			r.logger.Error("idp intent reap failed", "error", err)
		} else if n > 0 {
			r.logger.Info("reaped expired idp intents", "count", n)
		}
	}
}

// ReapOnce expires every intent still in the started state whose TTL has
// passed, one repository load/Expire/save per intent (not a bulk UPDATE, so
// each expiry goes through the aggregate and appends a proper
// idp.intent.expired event rather than mutating the read model directly).
// It returns the number of intents reaped.
func (r *IDPIntentReaper) ReapOnce(ctx context.Context) (int, error) {
	var rows []projection.IDPIntentRow
	err := r.db.WithContext(ctx).
		Where("status = ? AND expires_at <= ?", string(iamdomain.IDPIntentStateStarted), time.Now()).
		Limit(r.batch).
		Find(&rows).Error
	if err != nil {
		return 0, err
	}

	reaped := 0
	for _, row := range rows {
		if _, err := loadModifySave(ctx, r.repo, row.ID, func(i *iamdomain.IDPIntent) error {
			return i.Expire(ctx, r.logger)
		}); err != nil {
			r.logger.Error("failed to expire idp intent", "idp_intent_id", row.ID, "error", err)
			continue
		}
		reaped++
	}
	return reaped, nil
}
