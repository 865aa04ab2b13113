// Package catalog holds the read-mostly relational store for workspaces,
// domains, and links: the data the Resolver and Redirect Handler consult on
// every request.
package catalog

import (
	"time"

	"shortcut/pkg/ulid"
)

// Plan identifies a workspace's subscription tier.
type Plan string

const (
	PlanFree Plan = "free"
	PlanPro  Plan = "pro"
)

// BillingStatus reflects the workspace's standing with the (out-of-core)
// payment provider.
type BillingStatus string

const (
	BillingStatusActive   BillingStatus = "active"
	BillingStatusPastDue  BillingStatus = "past_due"
	BillingStatusCanceled BillingStatus = "canceled"
)

// Workspace is the owning tenant. Plan is the single authority read on the
// redirect path; billing-period fields are only meaningful while Plan=pro.
type Workspace struct {
	ID                ulid.ULID     `json:"id" gorm:"type:char(26);primaryKey"`
	Plan              Plan          `json:"plan" gorm:"type:varchar(16);not null;default:'free'"`
	BillingStatus     BillingStatus `json:"billing_status" gorm:"type:varchar(16);not null;default:'active'"`
	CurrentPeriodStart *time.Time   `json:"current_period_start,omitempty"`
	CurrentPeriodEnd   *time.Time   `json:"current_period_end,omitempty"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

func (Workspace) TableName() string { return "workspaces" }

// IsPro reports whether the workspace is currently billed on the Pro plan.
func (w *Workspace) IsPro() bool { return w.Plan == PlanPro }

// DomainStatus reflects hostname verification progress. Only Verified
// domains participate in resolution.
type DomainStatus string

const (
	DomainStatusPending  DomainStatus = "pending"
	DomainStatusVerified DomainStatus = "verified"
	DomainStatusFailed   DomainStatus = "failed"
)

// Domain is a hostname short links are served from. A nil WorkspaceID marks
// a platform-owned domain shared across workspaces.
type Domain struct {
	ID          ulid.ULID    `json:"id" gorm:"type:char(26);primaryKey"`
	WorkspaceID *ulid.ULID   `json:"workspace_id,omitempty" gorm:"type:char(26);index"`
	Hostname    string       `json:"hostname" gorm:"type:varchar(255);uniqueIndex;not null"`
	Status      DomainStatus `json:"status" gorm:"type:varchar(16);not null;default:'pending'"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

func (Domain) TableName() string { return "domains" }

// LinkStatus controls whether a link participates in resolution. Paused
// links behave as if absent.
type LinkStatus string

const (
	LinkStatusActive LinkStatus = "active"
	LinkStatusPaused LinkStatus = "paused"
)

// Link is a redirect rule. (DomainID, Slug) is unique; destination is opaque
// to the system beyond scheme/host parsing for display.
type Link struct {
	ID          ulid.ULID  `json:"id" gorm:"type:char(26);primaryKey"`
	WorkspaceID ulid.ULID  `json:"workspace_id" gorm:"type:char(26);index:idx_links_workspace_created"`
	DomainID    ulid.ULID  `json:"domain_id" gorm:"type:char(26);uniqueIndex:idx_links_domain_slug"`
	Slug        string     `json:"slug" gorm:"type:varchar(512);uniqueIndex:idx_links_domain_slug"`
	Destination string     `json:"destination_url" gorm:"type:text;not null"`
	Status      LinkStatus `json:"status" gorm:"type:varchar(16);not null;default:'active'"`
	CreatedAt   time.Time  `json:"created_at" gorm:"index:idx_links_workspace_created"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (Link) TableName() string { return "links" }

// IsActive reports whether the link should resolve.
func (l *Link) IsActive() bool { return l.Status == LinkStatusActive }
