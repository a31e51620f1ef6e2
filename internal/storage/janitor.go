package storage

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Janitor periodically clears expired entries from a set of stores
type Janitor struct {
	stores   map[string]Store
	interval time.Duration
	logger   *slog.Logger
}

// NewJanitor creates a janitor sweeping stores, keyed by a name used in logs
func NewJanitor(stores map[string]Store, interval time.Duration, logger *slog.Logger) *Janitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Janitor{stores: stores, interval: interval, logger: logger}
}

// Start sweeps immediately and then once per interval until ctx is cancelled.
// It blocks; run it in its own goroutine.
func (j *Janitor) Start(ctx context.Context) {
	j.logger.Info("Starting storage janitor", "interval", j.interval.String())
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.Sweep(ctx)

	for {
		select {
		case <-ticker.C:
			j.Sweep(ctx)
		case <-ctx.Done():
			j.logger.Info("Storage janitor shutting down", "reason", ctx.Err())
			return
		}
	}
}

// Sweep clears expired entries from every store once and returns the total
// removed. A failing store is logged and does not stop the others.
func (j *Janitor) Sweep(ctx context.Context) int64 {
	var total int64
	for name, store := range j.stores {
		removed, err := store.ClearExpired(ctx)
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				j.logger.Error("Failed to clear expired entries", "store", name, "error", err)
			}
			continue
		}
		if removed > 0 {
			j.logger.Debug("Cleared expired entries", "store", name, "removed", removed)
		}
		total += removed
	}
	return total
}
