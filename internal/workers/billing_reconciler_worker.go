package workers

import (
	"context"
	"log/slog"
	"time"

	"shortcut/internal/core/domain/billing"
	countersvc "shortcut/internal/core/services/counter"
	"shortcut/pkg/ulid"
)

// lookbackDays is how far back the Reconciler re-checks reported usage
// periods against the live counter.
const lookbackDays = 7

// BillingReconcilerWorker is an audit-only pass that compares
// already-reported usage periods against the live workspace counter and
// records a mismatch when they diverge beyond tolerance. It never mutates a
// counter or a usage period; a detected mismatch is a finding for a human to
// act on, not something this worker corrects itself.
type BillingReconcilerWorker struct {
	usagePeriods billing.UsagePeriodRepository
	counters     *countersvc.Service
	logger       *slog.Logger
	interval     time.Duration
	tolerance    int64

	quit   chan bool
	ticker *time.Ticker
}

// NewBillingReconcilerWorker constructs the Billing Reconciler.
func NewBillingReconcilerWorker(usagePeriods billing.UsagePeriodRepository, counters *countersvc.Service, logger *slog.Logger, interval time.Duration, tolerance int64) *BillingReconcilerWorker {
	return &BillingReconcilerWorker{
		usagePeriods: usagePeriods,
		counters:     counters,
		logger:       logger,
		interval:     interval,
		tolerance:    tolerance,
		quit:         make(chan bool),
	}
}

// Start runs one reconciliation pass immediately, then on every tick, until Stop.
func (w *BillingReconcilerWorker) Start() {
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

// Stop halts the reconciler ticker.
func (w *BillingReconcilerWorker) Stop() {
	close(w.quit)
}

func (w *BillingReconcilerWorker) run() {
	ctx := context.Background()
	since := time.Now().UTC().AddDate(0, 0, -lookbackDays)

	periods, err := w.usagePeriods.ListReportedSince(ctx, since)
	if err != nil {
		w.logger.Error("billing reconciler: failed to list reported periods", "error", err)
		return
	}

	for _, p := range periods {
		if err := w.reconcileOne(ctx, p); err != nil {
			w.logger.Error("billing reconciler: failed to reconcile period", "workspace_id", p.WorkspaceID, "error", err)
		}
	}
}

// reconcileOne compares one reported usage period's total against the
// live counter, but only when the counter is still tracking that exact
// period — a workspace already rolled into a newer period has nothing
// comparable left to check.
func (w *BillingReconcilerWorker) reconcileOne(ctx context.Context, p *billing.UsagePeriod) error {
	usage, err := w.counters.GetProUsage(ctx, p.WorkspaceID)
	if err != nil {
		return err
	}
	if usage.PeriodStart == nil || usage.PeriodEnd == nil ||
		!usage.PeriodStart.Equal(p.PeriodStart) || !usage.PeriodEnd.Equal(p.PeriodEnd) {
		return nil
	}

	delta := usage.Tracked - p.TotalClicksReported
	if delta < 0 {
		delta = -delta
	}
	if delta <= w.tolerance {
		return nil
	}

	w.logger.Warn("BILLING_MISMATCH",
		"workspace_id", p.WorkspaceID,
		"period_start", p.PeriodStart,
		"period_end", p.PeriodEnd,
		"reported_count", p.TotalClicksReported,
		"live_count", usage.Tracked,
		"delta", delta)

	return w.usagePeriods.CreateMismatch(ctx, &billing.Mismatch{
		ID:            ulid.New(),
		WorkspaceID:   p.WorkspaceID,
		PeriodStart:   p.PeriodStart,
		PeriodEnd:     p.PeriodEnd,
		ReportedCount: p.TotalClicksReported,
		LiveCount:     usage.Tracked,
		Delta:         delta,
		DetectedAt:    time.Now().UTC(),
	})
}
