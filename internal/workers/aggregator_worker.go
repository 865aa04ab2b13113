package workers

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	clickdomain "shortcut/internal/core/domain/click"
	"shortcut/internal/core/domain/rollup"
	clickenrich "shortcut/internal/core/services/click"
	"shortcut/internal/metrics"
)

// JobLease provides mutual exclusion for a scheduled job across worker
// instances. A nil lease means the job trusts single-instance deployment.
type JobLease interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context)
}

// AggregatorWorker drains the raw click log into the five daily rollup
// tables, driven by a single high-water mark. Each pass scans forward in
// bounded batches and applies every batch atomically together with the
// high-water-mark advance, so a crash mid-pass replays cleanly.
type AggregatorWorker struct {
	clicks    clickdomain.Repository
	rollups   rollup.Repository
	lease     JobLease
	logger    *slog.Logger
	interval  time.Duration
	batchSize int

	quit     chan bool
	ticker   *time.Ticker
	inFlight int64
}

// NewAggregatorWorker constructs the Aggregator against its collaborators.
// lease may be nil when single-writer is guaranteed by deployment.
func NewAggregatorWorker(clicks clickdomain.Repository, rollups rollup.Repository, lease JobLease, logger *slog.Logger, interval time.Duration, batchSize int) *AggregatorWorker {
	return &AggregatorWorker{
		clicks:    clicks,
		rollups:   rollups,
		lease:     lease,
		logger:    logger,
		interval:  interval,
		batchSize: batchSize,
		quit:      make(chan bool),
	}
}

// Start runs one aggregation pass immediately, then on every tick, until Stop.
func (w *AggregatorWorker) Start() {
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

// Stop halts the aggregation ticker.
func (w *AggregatorWorker) Stop() {
	close(w.quit)
}

// run drains the raw click log from the high-water mark forward,
// batch-by-batch, until a batch comes back shorter than batchSize —
// signaling the log is caught up for this pass. Only one pass may run at a
// time: overlapping ticks in this process are skipped, and the lease keeps
// other worker instances out.
func (w *AggregatorWorker) run() {
	if !atomic.CompareAndSwapInt64(&w.inFlight, 0, 1) {
		return
	}
	defer atomic.StoreInt64(&w.inFlight, 0)

	ctx := context.Background()

	if w.lease != nil {
		ok, err := w.lease.Acquire(ctx)
		if err != nil {
			w.logger.Warn("aggregator: lease acquisition failed, skipping pass", "error", err)
			return
		}
		if !ok {
			return
		}
		defer w.lease.Release(ctx)
	}

	for {
		n, err := w.runOnce(ctx)
		if err != nil {
			w.logger.Error("aggregator: pass failed", "error", err)
			return
		}
		if n < w.batchSize {
			return
		}
	}
}

// runOnce processes a single bounded batch and returns the number of rows
// it covered.
func (w *AggregatorWorker) runOnce(ctx context.Context) (int, error) {
	since, err := w.rollups.GetHighWaterMark(ctx)
	if err != nil {
		return 0, err
	}

	rows, err := w.clicks.ListSince(ctx, since, w.batchSize)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}

	batch := buildBatch(rows)
	if err := w.rollups.ApplyBatch(ctx, batch); err != nil {
		return 0, err
	}

	metrics.AggregatorLagSeconds.Set(time.Since(batch.MaxTS).Seconds())
	w.logger.Info("aggregator: applied batch", "rows", len(rows), "high_water_mark", batch.MaxTS)
	return len(rows), nil
}

// buildBatch groups a page of raw clicks into the five daily rollup
// buckets the Aggregator maintains, tracking the latest TS seen so the
// high-water mark advances exactly to the edge of what was applied.
func buildBatch(rows []*clickdomain.RawClick) *rollup.Batch {
	batch := rollup.NewBatch()

	for _, row := range rows {
		date := dateKey(row.TS)

		batch.WorkspaceDaily[rollup.WorkspaceDailyKey{WorkspaceID: row.WorkspaceID, Date: date}]++
		batch.LinkDaily[rollup.LinkDailyKey{LinkID: row.LinkID, Date: date}]++

		referrer := clickenrich.NormalizeReferrer(row.Referrer)
		batch.ReferrerDaily[rollup.ReferrerDailyKey{WorkspaceID: row.WorkspaceID, Date: date, Referrer: referrer}]++

		country := row.Country
		if country == "" {
			country = "unknown"
		}
		batch.CountryDaily[rollup.CountryDailyKey{WorkspaceID: row.WorkspaceID, Date: date, Country: country}]++

		batch.DeviceDaily[rollup.DeviceDailyKey{WorkspaceID: row.WorkspaceID, Date: date, DeviceClass: string(row.DeviceClass)}]++

		if row.TS.After(batch.MaxTS) {
			batch.MaxTS = row.TS
		}
	}

	return batch
}

// dateKey is the UTC calendar day a raw click's timestamp falls on, the
// grain every rollup table keys on.
func dateKey(ts time.Time) string {
	return ts.UTC().Format("2006-01-02")
}
