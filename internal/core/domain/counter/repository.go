package counter

import (
	"context"
	"time"

	"shortcut/pkg/ulid"
)

// Repository is the storage contract for workspace counter state. All
// methods are expected to be called from behind the Service's per-workspace
// exclusivity guarantee — the repository itself does not serialize.
type Repository interface {
	// Get loads the counter row for a workspace, creating a zero-valued one
	// (stamped with the current UTC month key) if none exists yet.
	Get(ctx context.Context, workspaceID ulid.ULID) (*WorkspaceCounter, error)

	// Save persists the full counter row.
	Save(ctx context.Context, c *WorkspaceCounter) error
}

// CurrentMonthKey returns the UTC YYYY-MM key for t.
func CurrentMonthKey(t time.Time) string {
	return t.UTC().Format("2006-01")
}
