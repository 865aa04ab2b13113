package workers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"shortcut/internal/core/domain/billing"
	"shortcut/internal/core/domain/catalog"
	countersvc "shortcut/internal/core/services/counter"
	billingsvc "shortcut/internal/core/services/billing"
	"shortcut/pkg/ulid"
)

// BillingReporterWorker closes out Pro billing periods: once a workspace's
// period has passed, it reads the authoritative tracked click count, prices
// any overage, asks the payment-provider collaborator to create an invoice
// line item, and writes a single immutable usage-period row.
type BillingReporterWorker struct {
	workspaces        catalog.WorkspaceRepository
	counters          *countersvc.Service
	usagePeriods      billing.UsagePeriodRepository
	invoices          billing.InvoiceItemCreator
	logger            *slog.Logger
	interval          time.Duration
	includedAllotment int64
	overageUnitSize   int64
	overageUnitCents  int64

	quit   chan bool
	ticker *time.Ticker
}

// NewBillingReporterWorker constructs the Billing Reporter.
func NewBillingReporterWorker(
	workspaces catalog.WorkspaceRepository,
	counters *countersvc.Service,
	usagePeriods billing.UsagePeriodRepository,
	invoices billing.InvoiceItemCreator,
	logger *slog.Logger,
	interval time.Duration,
	includedAllotment, overageUnitSize, overageUnitCents int64,
) *BillingReporterWorker {
	return &BillingReporterWorker{
		workspaces:        workspaces,
		counters:          counters,
		usagePeriods:      usagePeriods,
		invoices:          invoices,
		logger:            logger,
		interval:          interval,
		includedAllotment: includedAllotment,
		overageUnitSize:   overageUnitSize,
		overageUnitCents:  overageUnitCents,
		quit:              make(chan bool),
	}
}

// Start runs one reporting pass immediately, then on every tick, until Stop.
func (w *BillingReporterWorker) Start() {
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

// Stop halts the reporter ticker.
func (w *BillingReporterWorker) Stop() {
	close(w.quit)
}

func (w *BillingReporterWorker) run() {
	ctx := context.Background()
	now := time.Now().UTC()

	candidates, err := w.workspaces.ListProPastPeriodEnd(ctx, now)
	if err != nil {
		w.logger.Error("billing reporter: failed to list candidates", "error", err)
		return
	}

	for _, ws := range candidates {
		if err := w.reportOne(ctx, ws); err != nil {
			w.logger.Error("billing reporter: failed to report workspace", "workspace_id", ws.ID, "error", err)
		}
	}
}

// reportOne closes out a single Pro workspace's billing period. It is
// idempotent: an already-reported (workspace, period) triple is a no-op.
func (w *BillingReporterWorker) reportOne(ctx context.Context, ws *catalog.Workspace) error {
	if ws.CurrentPeriodStart == nil || ws.CurrentPeriodEnd == nil {
		return nil
	}
	periodStart, periodEnd := *ws.CurrentPeriodStart, *ws.CurrentPeriodEnd

	exists, err := w.usagePeriods.Exists(ctx, ws.ID, periodStart, periodEnd)
	if err != nil {
		return fmt.Errorf("check existing usage period: %w", err)
	}
	if exists {
		return nil
	}

	usage, err := w.counters.GetProUsage(ctx, ws.ID)
	if err != nil {
		return fmt.Errorf("read pro usage: %w", err)
	}
	if usage.PeriodStart == nil || usage.PeriodEnd == nil ||
		!usage.PeriodStart.Equal(periodStart) || !usage.PeriodEnd.Equal(periodEnd) {
		// The counter hasn't been rolled to this period yet (SetProPeriod is
		// webhook-driven) — nothing authoritative to report yet.
		w.logger.Warn("billing reporter: counter period does not match workspace period, deferring",
			"workspace_id", ws.ID, "period_start", periodStart, "period_end", periodEnd)
		return nil
	}

	units, amount := billingsvc.ComputeOverage(usage.Tracked, w.includedAllotment, w.overageUnitSize, w.overageUnitCents)

	var externalRef string
	if units > 0 {
		description := fmt.Sprintf("Pro overage for period %s to %s", periodStart.Format("2006-01-02"), periodEnd.Format("2006-01-02"))
		amountCents := units * w.overageUnitCents
		externalRef, err = w.invoices.CreateOverageInvoiceItem(ctx, ws.ID.String(), description, units, amountCents)
		if err != nil {
			return fmt.Errorf("create overage invoice item: %w", err)
		}
	}

	row := &billing.UsagePeriod{
		ID:                     ulid.New(),
		WorkspaceID:            ws.ID,
		PeriodStart:            periodStart,
		PeriodEnd:              periodEnd,
		TotalClicksReported:    usage.Tracked,
		IncludedAllotment:      w.includedAllotment,
		OverageUnits:           units,
		OverageAmount:          amount,
		ExternalInvoiceItemRef: externalRef,
		ReportedAt:             time.Now().UTC(),
	}

	if err := w.usagePeriods.Create(ctx, row); err != nil {
		if errors.Is(err, billing.ErrUsagePeriodAlreadyReported) {
			return nil
		}
		return fmt.Errorf("create usage period: %w", err)
	}

	w.logger.Info("billing reporter: reported usage period",
		"workspace_id", ws.ID, "tracked", usage.Tracked, "overage_units", units, "overage_amount", amount)
	return nil
}
