package click

import (
	"context"
	"time"
)

// Repository is the raw click log's storage contract. InsertBatch serves the
// Click Log Writer; ListSince serves the Aggregator; DeleteOlderThan serves
// the Retention Job.
type Repository interface {
	// InsertBatch idempotently inserts rows keyed on ClickID, ignoring rows
	// whose ClickID already exists so redelivered queue messages collapse
	// into a single row.
	InsertBatch(ctx context.Context, rows []*RawClick) error

	// ListSince returns up to limit rows with TS > since, ordered by TS
	// ascending, for the Aggregator's incremental scan.
	ListSince(ctx context.Context, since time.Time, limit int) ([]*RawClick, error)

	// DeleteOlderThan removes up to limit rows with TS < cutoff and reports
	// how many were deleted, for the Retention Job's bounded-batch loop.
	DeleteOlderThan(ctx context.Context, cutoff time.Time, limit int) (int64, error)
}
