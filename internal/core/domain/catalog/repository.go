package catalog

import (
	"context"
	"time"

	"shortcut/pkg/ulid"
)

// WorkspaceRepository is the catalog store's workspace-facing contract.
type WorkspaceRepository interface {
	GetByID(ctx context.Context, id ulid.ULID) (*Workspace, error)

	// ListProPastPeriodEnd returns every Pro workspace whose
	// current_period_end is before cutoff — the Billing Reporter's
	// candidate set for a billing period close-out.
	ListProPastPeriodEnd(ctx context.Context, cutoff time.Time) ([]*Workspace, error)
}

// DomainRepository is the catalog store's domain-facing contract.
type DomainRepository interface {
	// GetVerifiedByHostname looks up a verified domain by its lowercased hostname.
	// Returns ErrDomainNotFound if the hostname has no verified domain.
	GetVerifiedByHostname(ctx context.Context, hostname string) (*Domain, error)
}

// LinkRepository is the catalog store's link-facing contract.
type LinkRepository interface {
	// GetByDomainAndSlug looks up a link by (domain_id, slug). Returns
	// ErrLinkNotFound if no such link exists, active or not — callers decide
	// how to treat a paused match.
	GetByDomainAndSlug(ctx context.Context, domainID ulid.ULID, slug string) (*Link, error)

	// ListByIDs returns the links matching ids, in no particular order,
	// silently omitting any id with no matching row. Used by the analytics
	// read API to hydrate slug/destination onto rollup link totals.
	ListByIDs(ctx context.Context, ids []ulid.ULID) ([]*Link, error)
}
