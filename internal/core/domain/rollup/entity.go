// Package rollup holds the five daily aggregate tables the Aggregator
// writes and the Analytics Read API reads, plus the high-water mark that
// drives incremental aggregation.
package rollup

import (
	"time"

	"shortcut/pkg/ulid"
)

// HighWaterMark is the Aggregator's singleton progress marker: only raw
// clicks with ts > LastProcessedTS are eligible for the next batch.
type HighWaterMark struct {
	ID              int       `json:"-" gorm:"primaryKey;autoIncrement:false"`
	LastProcessedTS time.Time `json:"last_processed_ts" gorm:"not null"`
}

func (HighWaterMark) TableName() string { return "aggregation_high_water_mark" }

// WorkspaceDaily is the (workspace_id, date) -> total_clicks rollup.
type WorkspaceDaily struct {
	WorkspaceID ulid.ULID `json:"workspace_id" gorm:"type:char(26);primaryKey"`
	Date        string    `json:"date" gorm:"type:char(10);primaryKey"` // YYYY-MM-DD
	TotalClicks int64     `json:"total_clicks" gorm:"not null;default:0"`
}

func (WorkspaceDaily) TableName() string { return "rollup_daily_workspace" }

// LinkDaily is the (link_id, date) -> total_clicks rollup.
type LinkDaily struct {
	LinkID      ulid.ULID `json:"link_id" gorm:"type:char(26);primaryKey"`
	Date        string    `json:"date" gorm:"type:char(10);primaryKey"`
	TotalClicks int64     `json:"total_clicks" gorm:"not null;default:0"`
}

func (LinkDaily) TableName() string { return "rollup_daily_link" }

// ReferrerDaily is the (workspace_id, date, referrer_host) -> total_clicks rollup.
// Referrer is "(direct)" for missing/empty referrers.
type ReferrerDaily struct {
	WorkspaceID ulid.ULID `json:"workspace_id" gorm:"type:char(26);primaryKey"`
	Date        string    `json:"date" gorm:"type:char(10);primaryKey"`
	Referrer    string    `json:"referrer" gorm:"type:varchar(255);primaryKey"`
	TotalClicks int64     `json:"total_clicks" gorm:"not null;default:0"`
}

func (ReferrerDaily) TableName() string { return "rollup_referrer_daily" }

// CountryDaily is the (workspace_id, date, country) -> total_clicks rollup.
// Country is "unknown" when geo could not be derived.
type CountryDaily struct {
	WorkspaceID ulid.ULID `json:"workspace_id" gorm:"type:char(26);primaryKey"`
	Date        string    `json:"date" gorm:"type:char(10);primaryKey"`
	Country     string    `json:"country" gorm:"type:varchar(8);primaryKey"`
	TotalClicks int64     `json:"total_clicks" gorm:"not null;default:0"`
}

func (CountryDaily) TableName() string { return "rollup_country_daily" }

// DeviceDaily is the (workspace_id, date, device_class) -> total_clicks rollup.
type DeviceDaily struct {
	WorkspaceID ulid.ULID `json:"workspace_id" gorm:"type:char(26);primaryKey"`
	Date        string    `json:"date" gorm:"type:char(10);primaryKey"`
	DeviceClass string    `json:"device_class" gorm:"type:varchar(16);primaryKey"`
	TotalClicks int64     `json:"total_clicks" gorm:"not null;default:0"`
}

func (DeviceDaily) TableName() string { return "rollup_device_daily" }
