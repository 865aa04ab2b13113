// Package counter implements the Workspace Counter's per-key serialization
// contract on top of the counter.Repository storage interface.
package counter

import (
	"context"
	"hash/fnv"
	"log/slog"
	"sync"
	"time"

	"shortcut/internal/core/domain/counter"
	"shortcut/pkg/ulid"
)

const shardCount = 64

// Service is the Workspace Counter: it guarantees at most one in-flight
// mutation per workspace by sharding workspaces across a fixed number of
// mutexes keyed by hash(workspace_id).
type Service struct {
	repo   counter.Repository
	logger *slog.Logger
	shards [shardCount]sync.Mutex
}

func NewService(repo counter.Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

func (s *Service) shardFor(workspaceID ulid.ULID) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write(workspaceID.ULID[:])
	return &s.shards[h.Sum32()%shardCount]
}

// IncrementFreeIfUnderCap runs the month-reset check and, if
// free_tracked_clicks < cap, increments and persists. Returns whether the
// increment happened.
func (s *Service) IncrementFreeIfUnderCap(ctx context.Context, workspaceID ulid.ULID, cap int64) (bool, error) {
	mu := s.shardFor(workspaceID)
	mu.Lock()
	defer mu.Unlock()

	c, err := s.repo.Get(ctx, workspaceID)
	if err != nil {
		return false, err
	}

	applyMonthReset(c, time.Now())

	if c.FreeTrackedClicks >= cap {
		// Persist the reset even when the cap blocks the increment, so a
		// month rollover is not lost on a workspace that never re-reads.
		if err := s.repo.Save(ctx, c); err != nil {
			return false, err
		}
		return false, nil
	}

	c.FreeTrackedClicks++
	if err := s.repo.Save(ctx, c); err != nil {
		return false, err
	}
	return true, nil
}

// IncrementPro increments pro_tracked_clicks unconditionally. The caller is
// expected to have already established plan=pro; this method does not check.
func (s *Service) IncrementPro(ctx context.Context, workspaceID ulid.ULID) error {
	mu := s.shardFor(workspaceID)
	mu.Lock()
	defer mu.Unlock()

	c, err := s.repo.Get(ctx, workspaceID)
	if err != nil {
		return err
	}

	c.ProTrackedClicks++
	return s.repo.Save(ctx, c)
}

// SetProPeriod overwrites the stored pro period and, if it differs from what
// was stored, resets pro_tracked_clicks to zero.
func (s *Service) SetProPeriod(ctx context.Context, workspaceID ulid.ULID, start, end time.Time) error {
	mu := s.shardFor(workspaceID)
	mu.Lock()
	defer mu.Unlock()

	c, err := s.repo.Get(ctx, workspaceID)
	if err != nil {
		return err
	}

	if !samePeriod(c.ProPeriodStart, c.ProPeriodEnd, start, end) {
		c.ProPeriodStart = &start
		c.ProPeriodEnd = &end
		c.ProTrackedClicks = 0
	}
	return s.repo.Save(ctx, c)
}

// GetFreeUsage runs the month-reset check and returns the free-side state.
func (s *Service) GetFreeUsage(ctx context.Context, workspaceID ulid.ULID) (counter.FreeUsage, error) {
	mu := s.shardFor(workspaceID)
	mu.Lock()
	defer mu.Unlock()

	c, err := s.repo.Get(ctx, workspaceID)
	if err != nil {
		return counter.FreeUsage{}, err
	}

	if applyMonthReset(c, time.Now()) {
		if err := s.repo.Save(ctx, c); err != nil {
			return counter.FreeUsage{}, err
		}
	}

	return counter.FreeUsage{MonthKey: c.FreeMonthKey, Tracked: c.FreeTrackedClicks}, nil
}

// GetProUsage returns the pro-side state with no implicit reset: pro resets
// are only ever webhook-driven, via SetProPeriod.
func (s *Service) GetProUsage(ctx context.Context, workspaceID ulid.ULID) (counter.ProUsage, error) {
	mu := s.shardFor(workspaceID)
	mu.Lock()
	defer mu.Unlock()

	c, err := s.repo.Get(ctx, workspaceID)
	if err != nil {
		return counter.ProUsage{}, err
	}

	return counter.ProUsage{
		PeriodStart: c.ProPeriodStart,
		PeriodEnd:   c.ProPeriodEnd,
		Tracked:     c.ProTrackedClicks,
	}, nil
}

// applyMonthReset zeroes the free counter in place if the observed UTC month
// differs from the stored key. Returns whether a reset occurred.
func applyMonthReset(c *counter.WorkspaceCounter, now time.Time) bool {
	currentKey := counter.CurrentMonthKey(now)
	if c.FreeMonthKey == currentKey {
		return false
	}
	c.FreeMonthKey = currentKey
	c.FreeTrackedClicks = 0
	return true
}

func samePeriod(storedStart, storedEnd *time.Time, start, end time.Time) bool {
	if storedStart == nil || storedEnd == nil {
		return false
	}
	return storedStart.Equal(start) && storedEnd.Equal(end)
}
