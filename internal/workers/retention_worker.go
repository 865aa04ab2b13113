package workers

import (
	"context"
	"log/slog"
	"time"

	clickdomain "shortcut/internal/core/domain/click"
)

// RetentionWorker is a daily sweep that deletes raw click log rows past the
// retention horizon, in bounded batches so a single run never holds a
// long-lived delete lock. Rollups are untouched; aggregates outlive the raw
// rows they were built from.
type RetentionWorker struct {
	clicks            clickdomain.Repository
	logger            *slog.Logger
	interval          time.Duration
	retentionDaysFree int
	batchSize         int

	quit   chan bool
	ticker *time.Ticker
}

// NewRetentionWorker constructs the Retention Job.
func NewRetentionWorker(clicks clickdomain.Repository, logger *slog.Logger, interval time.Duration, retentionDaysFree, batchSize int) *RetentionWorker {
	return &RetentionWorker{
		clicks:            clicks,
		logger:            logger,
		interval:          interval,
		retentionDaysFree: retentionDaysFree,
		batchSize:         batchSize,
		quit:              make(chan bool),
	}
}

// Start runs one retention sweep immediately, then on every tick, until Stop.
func (w *RetentionWorker) Start() {
	w.ticker = time.NewTicker(w.interval)

	go w.run()

	go func() {
		for {
			select {
			case <-w.ticker.C:
				w.run()
			case <-w.quit:
				w.ticker.Stop()
				return
			}
		}
	}()
}

// Stop halts the retention ticker.
func (w *RetentionWorker) Stop() {
	close(w.quit)
}

// run deletes rows older than the retention horizon in bounded batches
// until a batch deletes fewer rows than batchSize, meaning the sweep has
// caught up to the cutoff.
func (w *RetentionWorker) run() {
	ctx := context.Background()
	cutoff := time.Now().UTC().AddDate(0, 0, -w.retentionDaysFree)

	var total int64
	for {
		deleted, err := w.clicks.DeleteOlderThan(ctx, cutoff, w.batchSize)
		if err != nil {
			w.logger.Error("retention: batch delete failed", "error", err)
			return
		}
		total += deleted
		if deleted < int64(w.batchSize) {
			break
		}
	}

	if total > 0 {
		w.logger.Info("retention: swept raw click log", "deleted", total, "cutoff", cutoff)
	}
}
