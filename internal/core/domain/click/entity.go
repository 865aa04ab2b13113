// Package click holds the raw click log row and the queue message shape
// produced by the Click Enricher and consumed by the Click Log Writer.
package click

import (
	"time"

	"shortcut/pkg/ulid"
)

// DeviceClass is a coarse device bucket derived from the user-agent.
type DeviceClass string

const (
	DeviceMobile  DeviceClass = "mobile"
	DeviceTablet  DeviceClass = "tablet"
	DeviceDesktop DeviceClass = "desktop"
	DeviceUnknown DeviceClass = "unknown"
)

// Event is the queue message produced on the redirect path's detached task
// and consumed by the Click Log Writer. Optional fields may be absent;
// consumers must tolerate missing values.
type Event struct {
	ClickID     string    `json:"click_id"`
	TS          time.Time `json:"ts"`
	WorkspaceID ulid.ULID `json:"workspace_id"`
	LinkID      ulid.ULID `json:"link_id"`
	Domain      string    `json:"domain"`
	Slug        string    `json:"slug"`
	Destination string    `json:"destination_url"`
	Referrer    string    `json:"referrer,omitempty"`
	UserAgent   string    `json:"user_agent,omitempty"`
	IPHash      string    `json:"ip_hash,omitempty"`
	Country     string    `json:"country,omitempty"`
	Region      string    `json:"region,omitempty"`
	City        string    `json:"city,omitempty"`
}

// RawClick is the append-only event log row: written by the Click Log
// Writer, read only by the Aggregator, deleted only by the Retention Job.
type RawClick struct {
	ClickID     string      `json:"click_id" gorm:"type:varchar(64);primaryKey"`
	TS          time.Time   `json:"ts" gorm:"not null;index:idx_raw_clicks_ts"`
	WorkspaceID ulid.ULID   `json:"workspace_id" gorm:"type:char(26);not null"`
	LinkID      ulid.ULID   `json:"link_id" gorm:"type:char(26);not null"`
	Domain      string      `json:"domain" gorm:"type:varchar(255);not null"`
	Slug        string      `json:"slug" gorm:"type:varchar(512);not null"`
	Destination string      `json:"destination_url" gorm:"type:text;not null"`
	Referrer    string      `json:"referrer" gorm:"type:text"`
	UserAgent   string      `json:"user_agent" gorm:"type:text"`
	IPHash      string      `json:"ip_hash" gorm:"type:varchar(64)"`
	Country     string      `json:"country" gorm:"type:varchar(8)"`
	Region      string      `json:"region" gorm:"type:varchar(64)"`
	City        string      `json:"city" gorm:"type:varchar(128)"`
	DeviceClass DeviceClass `json:"device_class" gorm:"type:varchar(16);not null"`
	BotSuspected bool       `json:"bot_suspected" gorm:"not null;default:false"`
}

func (RawClick) TableName() string { return "raw_clicks" }
