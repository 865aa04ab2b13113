// Package billing holds the billing-usage-period record produced by the
// Reporter and audited by the Reconciler.
package billing

import (
	"time"

	"github.com/shopspring/decimal"

	"shortcut/pkg/ulid"
)

// UsagePeriod is a closed Pro billing period's reported usage: one row per
// (workspace_id, period_start, period_end), written once by the Reporter and
// never mutated afterward.
type UsagePeriod struct {
	ID                   ulid.ULID       `json:"id" gorm:"type:char(26);primaryKey"`
	WorkspaceID          ulid.ULID       `json:"workspace_id" gorm:"type:char(26);uniqueIndex:idx_usage_period_unique"`
	PeriodStart          time.Time       `json:"period_start" gorm:"uniqueIndex:idx_usage_period_unique"`
	PeriodEnd            time.Time       `json:"period_end" gorm:"uniqueIndex:idx_usage_period_unique"`
	TotalClicksReported  int64           `json:"total_clicks_reported" gorm:"not null"`
	IncludedAllotment    int64           `json:"included_allotment" gorm:"not null"`
	OverageUnits         int64           `json:"overage_units" gorm:"not null;default:0"`
	OverageAmount        decimal.Decimal `json:"overage_amount" gorm:"type:numeric(20,2);not null;default:0"`
	ExternalInvoiceItemRef string        `json:"external_invoice_item_ref,omitempty" gorm:"type:varchar(255)"`
	ReportedAt           time.Time       `json:"reported_at" gorm:"not null"`
}

func (UsagePeriod) TableName() string { return "billing_usage_periods" }

// Mismatch is a Reconciler finding: the live counter diverges from the
// reported usage for a period beyond tolerance. Logged only, never acted on.
type Mismatch struct {
	ID            ulid.ULID `json:"id" gorm:"type:char(26);primaryKey"`
	WorkspaceID   ulid.ULID `json:"workspace_id" gorm:"type:char(26);index"`
	PeriodStart   time.Time `json:"period_start"`
	PeriodEnd     time.Time `json:"period_end"`
	ReportedCount int64     `json:"reported_count"`
	LiveCount     int64     `json:"live_count"`
	Delta         int64     `json:"delta"`
	DetectedAt    time.Time `json:"detected_at"`
}

func (Mismatch) TableName() string { return "billing_mismatches" }
