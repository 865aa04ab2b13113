package rollup

import (
	"context"
	"time"

	"shortcut/pkg/ulid"
)

// Batch is the in-memory grouping the Aggregator builds from one raw-click
// batch before writing it atomically.
type Batch struct {
	WorkspaceDaily map[WorkspaceDailyKey]int64
	LinkDaily      map[LinkDailyKey]int64
	ReferrerDaily  map[ReferrerDailyKey]int64
	CountryDaily   map[CountryDailyKey]int64
	DeviceDaily    map[DeviceDailyKey]int64
	MaxTS          time.Time
}

// NewBatch returns an empty Batch ready for accumulation.
func NewBatch() *Batch {
	return &Batch{
		WorkspaceDaily: make(map[WorkspaceDailyKey]int64),
		LinkDaily:      make(map[LinkDailyKey]int64),
		ReferrerDaily:  make(map[ReferrerDailyKey]int64),
		CountryDaily:   make(map[CountryDailyKey]int64),
		DeviceDaily:    make(map[DeviceDailyKey]int64),
	}
}

type WorkspaceDailyKey struct {
	WorkspaceID ulid.ULID
	Date        string
}

type LinkDailyKey struct {
	LinkID ulid.ULID
	Date   string
}

type ReferrerDailyKey struct {
	WorkspaceID ulid.ULID
	Date        string
	Referrer    string
}

type CountryDailyKey struct {
	WorkspaceID ulid.ULID
	Date        string
	Country     string
}

type DeviceDailyKey struct {
	WorkspaceID ulid.ULID
	Date        string
	DeviceClass string
}

// Repository is the Aggregator's and Analytics Read API's storage contract.
// Only the Aggregator calls the write methods; only the Analytics Read API
// calls the read methods.
type Repository interface {
	// GetHighWaterMark returns the singleton high-water-mark row, creating one
	// at the zero time if none exists yet.
	GetHighWaterMark(ctx context.Context) (time.Time, error)

	// ApplyBatch atomically upserts every bucket in batch (additive merge) and
	// advances the high-water mark to batch.MaxTS, in one transaction.
	ApplyBatch(ctx context.Context, batch *Batch) error

	// SumWorkspaceDaily returns total clicks per day for a workspace within [from, to].
	SumWorkspaceDaily(ctx context.Context, workspaceID ulid.ULID, from, to string) ([]WorkspaceDaily, error)

	// SumWorkspaceTotal returns the total clicks for a workspace within [from, to].
	SumWorkspaceTotal(ctx context.Context, workspaceID ulid.ULID, from, to string) (int64, error)

	// SumLinkDaily returns per-link totals for a workspace within [from, to], top N by clicks desc.
	SumLinkDaily(ctx context.Context, workspaceID ulid.ULID, from, to string, limit int) ([]LinkTotal, error)

	// SumReferrerDaily returns per-referrer totals for a workspace within [from, to], top N.
	SumReferrerDaily(ctx context.Context, workspaceID ulid.ULID, from, to string, limit int) ([]ReferrerTotal, error)

	// SumCountryDaily returns per-country totals for a workspace within [from, to], top N.
	SumCountryDaily(ctx context.Context, workspaceID ulid.ULID, from, to string, limit int) ([]CountryTotal, error)

	// SumDeviceDaily returns per-device totals for a workspace within [from, to] (full list).
	SumDeviceDaily(ctx context.Context, workspaceID ulid.ULID, from, to string) ([]DeviceTotal, error)
}

// LinkTotal is a per-link aggregate joined against the link catalog by the service layer.
type LinkTotal struct {
	LinkID      ulid.ULID
	TotalClicks int64
}

type ReferrerTotal struct {
	Referrer    string
	TotalClicks int64
}

type CountryTotal struct {
	Country     string
	TotalClicks int64
}

type DeviceTotal struct {
	DeviceClass string
	TotalClicks int64
}
