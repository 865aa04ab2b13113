package billing

import (
	"context"
	"time"

	"shortcut/pkg/ulid"
)

// UsagePeriodRepository persists billing usage periods and reconciliation findings.
type UsagePeriodRepository interface {
	// Create inserts a usage period row. Returns ErrUsagePeriodAlreadyReported
	// on a (workspace_id, period_start, period_end) uniqueness violation so
	// the Reporter can treat a duplicate report attempt as a no-op.
	Create(ctx context.Context, p *UsagePeriod) error

	// Exists reports whether a usage period row already exists for the triple.
	Exists(ctx context.Context, workspaceID ulid.ULID, periodStart, periodEnd time.Time) (bool, error)

	// ListReportedSince returns usage periods reported on or after since, for the Reconciler's lookback window.
	ListReportedSince(ctx context.Context, since time.Time) ([]*UsagePeriod, error)

	// CreateMismatch records a reconciliation finding.
	CreateMismatch(ctx context.Context, m *Mismatch) error
}
