// Package counter holds the per-workspace click counter: two independent
// state machines (Free monthly cap, Pro billing-period usage) that are the
// single source of truth for both cap enforcement and billing.
package counter

import (
	"time"

	"shortcut/pkg/ulid"
)

// WorkspaceCounter is the persisted, per-workspace counter row. FreeMonthKey
// and ProPeriodStart/End gate the two reset policies: the free side resets
// on UTC month rollover, the pro side only on an explicit SetProPeriod call.
type WorkspaceCounter struct {
	WorkspaceID       ulid.ULID  `json:"workspace_id" gorm:"type:char(26);primaryKey"`
	FreeMonthKey      string     `json:"free_month_key" gorm:"type:varchar(7);not null"` // YYYY-MM, UTC
	FreeTrackedClicks int64      `json:"free_tracked_clicks" gorm:"not null;default:0"`
	ProPeriodStart    *time.Time `json:"pro_period_start,omitempty"`
	ProPeriodEnd      *time.Time `json:"pro_period_end,omitempty"`
	ProTrackedClicks  int64      `json:"pro_tracked_clicks" gorm:"not null;default:0"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

func (WorkspaceCounter) TableName() string { return "workspace_counters" }

// FreeUsage is the result of a free-side read.
type FreeUsage struct {
	MonthKey string
	Tracked  int64
}

// ProUsage is the result of a pro-side read.
type ProUsage struct {
	PeriodStart *time.Time
	PeriodEnd   *time.Time
	Tracked     int64
}
