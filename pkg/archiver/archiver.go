// Package archiver periodically archives cards that have not been touched
// for a configured age.
package archiver

import (
	"context"
	"log/slog"
	"time"

	"github.com/chris/tin/pkg/storage"
)

// Archiver runs the age-based archive sweep on a fixed interval.
type Archiver struct {
	Store    storage.Sweeper
	MaxAge   time.Duration
	Interval time.Duration
	Logger   *slog.Logger
}

// New creates a new Archiver.
func New(store storage.Sweeper, maxAge, interval time.Duration, logger *slog.Logger) *Archiver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Archiver{
		Store:    store,
		MaxAge:   maxAge,
		Interval: interval,
		Logger:   logger,
	}
}

// Run sweeps once immediately and then on every tick until ctx is
// cancelled. A failed sweep is logged and retried on the next tick.
func (a *Archiver) Run(ctx context.Context) {
	a.Logger.Info("archiver started", "max_age", a.MaxAge.String(), "interval", a.Interval.String())

	ticker := time.NewTicker(a.Interval)
	defer ticker.Stop()

	for {
		a.Sweep(ctx)

		select {
		case <-ctx.Done():
			a.Logger.Info("archiver stopped")
			return
		case <-ticker.C:
		}
	}
}

// Sweep runs a single archive pass and returns the number of cards archived.
func (a *Archiver) Sweep(ctx context.Context) int {
	n, err := a.Store.ArchiveOldCards(ctx, a.MaxAge)
	if err != nil {
		a.Logger.ErrorContext(ctx, "archive sweep failed", "error", err)
		return 0
	}
	if n > 0 {
		a.Logger.InfoContext(ctx, "archived stale cards", "archived_count", n)
	} else {
		a.Logger.DebugContext(ctx, "no stale cards to archive")
	}
	return n
}
