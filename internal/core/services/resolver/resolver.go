// Package resolver implements the pure (hostname, slug) -> link resolution
// function the Redirect Handler calls synchronously on every request.
package resolver

import (
	"context"
	"errors"
	"strings"

	"shortcut/internal/core/domain/catalog"
	"shortcut/pkg/ulid"
)

// Result is a successful resolution.
type Result struct {
	WorkspaceID ulid.ULID
	LinkID      ulid.ULID
	DomainID    ulid.ULID
	Slug        string
	Destination string
}

// ErrUnresolved marks a hostname/slug pair with no active resolution:
// missing domain, unverified domain, missing link, or a paused link. It is a
// value, not a fault — the Redirect Handler maps it straight to 404.
var ErrUnresolved = errors.New("resolver: unresolved")

// Resolver resolves a (hostname, slug) pair against the catalog store.
type Resolver struct {
	domains catalog.DomainRepository
	links   catalog.LinkRepository
}

func New(domains catalog.DomainRepository, links catalog.LinkRepository) *Resolver {
	return &Resolver{domains: domains, links: links}
}

// Resolve implements the algorithm in the Resolver's contract: normalize
// hostname, look up a verified domain, look up an active link by
// (domain_id, slug). Any catalog I/O error is propagated — the caller maps
// it to the same outcome as ErrUnresolved.
func (r *Resolver) Resolve(ctx context.Context, hostname, slug string) (*Result, error) {
	hostname = strings.ToLower(strings.TrimSpace(hostname))
	slug = strings.ToLower(strings.TrimSpace(slug))

	domain, err := r.domains.GetVerifiedByHostname(ctx, hostname)
	if err != nil {
		if errors.Is(err, catalog.ErrDomainNotFound) {
			return nil, ErrUnresolved
		}
		return nil, err
	}

	link, err := r.links.GetByDomainAndSlug(ctx, domain.ID, slug)
	if err != nil {
		if errors.Is(err, catalog.ErrLinkNotFound) {
			return nil, ErrUnresolved
		}
		return nil, err
	}

	if !link.IsActive() {
		return nil, ErrUnresolved
	}

	return &Result{
		WorkspaceID: link.WorkspaceID,
		LinkID:      link.ID,
		DomainID:    domain.ID,
		Slug:        link.Slug,
		Destination: link.Destination,
	}, nil
}
