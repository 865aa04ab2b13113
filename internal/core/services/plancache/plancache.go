// Package plancache implements a short in-process TTL cache for workspace
// plan lookups on the redirect path. Caps are enforced by the Workspace
// Counter, not the plan, so a stale "free" reading only delays a pro
// upgrade's removal of the cap by up to the TTL.
package plancache

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"shortcut/internal/core/domain/catalog"
	"shortcut/pkg/ulid"
)

type entry struct {
	workspace *catalog.Workspace
	expiresAt time.Time
}

// Cache is a bounded, TTL-expiring wrapper around catalog.WorkspaceRepository.
type Cache struct {
	repo  catalog.WorkspaceRepository
	ttl   time.Duration
	cache *lru.Cache[ulid.ULID, entry]
}

// New builds a plan cache of at most maxKeys entries, each valid for ttl.
func New(repo catalog.WorkspaceRepository, ttl time.Duration, maxKeys int) *Cache {
	c, err := lru.New[ulid.ULID, entry](maxKeys)
	if err != nil {
		// Only returns an error for a non-positive size; maxKeys is
		// operator-configured and not checked by config validation, so fall
		// back to a minimal cache rather than panicking in request-serving code.
		c, _ = lru.New[ulid.ULID, entry](1)
	}
	return &Cache{repo: repo, ttl: ttl, cache: c}
}

// Get returns the workspace record, serving a cached copy when it has not
// yet expired and otherwise reading through to the catalog store.
func (c *Cache) Get(ctx context.Context, workspaceID ulid.ULID) (*catalog.Workspace, error) {
	if e, ok := c.cache.Get(workspaceID); ok && time.Now().Before(e.expiresAt) {
		return e.workspace, nil
	}

	ws, err := c.repo.GetByID(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	c.cache.Add(workspaceID, entry{workspace: ws, expiresAt: time.Now().Add(c.ttl)})
	return ws, nil
}

// Invalidate removes a workspace's cached entry, e.g. after an out-of-core
// billing webhook mutates its plan.
func (c *Cache) Invalidate(workspaceID ulid.ULID) {
	c.cache.Remove(workspaceID)
}
