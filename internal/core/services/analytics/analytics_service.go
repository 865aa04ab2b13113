// Package analytics implements the Analytics Read API: plan-ceiling-checked
// range parsing over the rollup tables, never the raw click log or the
// counter.
package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"shortcut/internal/core/domain/catalog"
	"shortcut/internal/core/domain/rollup"
	appErrors "shortcut/pkg/errors"
	"shortcut/pkg/ulid"
)

const (
	maxLinkResults     = 100
	maxReferrerResults = 50
	maxCountryResults  = 50
	trendWindowDays    = 30
)

// Service answers the Analytics Read API's five endpoints.
type Service struct {
	rollups rollup.Repository
	links   catalog.LinkRepository
	logger  *slog.Logger
}

func NewService(rollups rollup.Repository, links catalog.LinkRepository, logger *slog.Logger) *Service {
	return &Service{rollups: rollups, links: links, logger: logger}
}

// DailyPoint is one day's total in a trend series.
type DailyPoint struct {
	Date        string `json:"date"`
	TotalClicks int64  `json:"total_clicks"`
}

// OverviewResult is the `/overview` endpoint's payload.
type OverviewResult struct {
	TotalClicks int64        `json:"total_clicks"`
	DailyTrend  []DailyPoint `json:"daily_trend"`
}

// LinkResult is one row of the `/links` endpoint's payload.
type LinkResult struct {
	ID          ulid.ULID `json:"id"`
	Slug        string    `json:"slug"`
	Destination string    `json:"destination_url"`
	TotalClicks int64     `json:"total_clicks"`
}

// ReferrerResult is one row of the `/referrers` endpoint's payload.
type ReferrerResult struct {
	Referrer    string `json:"referrer"`
	TotalClicks int64  `json:"total_clicks"`
}

// CountryResult is one row of the `/countries` endpoint's payload.
type CountryResult struct {
	Country     string `json:"country"`
	TotalClicks int64  `json:"total_clicks"`
}

// DeviceResult is one row of the `/devices` endpoint's payload.
type DeviceResult struct {
	DeviceType  string `json:"device_type"`
	TotalClicks int64  `json:"total_clicks"`
}

// resolveRange validates the requested range token against the workspace's
// plan ceiling (Free=30d, Pro=24mo) and returns the inclusive [from, to]
// date bounds (YYYY-MM-DD, UTC) the rollup tables are keyed by.
func resolveRange(plan catalog.Plan, rangeToken string, now time.Time) (from, to string, err error) {
	now = now.UTC()
	to = now.Format("2006-01-02")

	var days int
	switch rangeToken {
	case "", "7d":
		days = 7
	case "30d":
		days = 30
	case "90d":
		days = 90
	case "all":
		days = 0
	default:
		return "", "", appErrors.NewValidationError(
			"unsupported range", fmt.Sprintf("range must be one of 7d, 30d, 90d, all; got %q", rangeToken))
	}

	var ceilingDays int
	if plan == catalog.PlanPro {
		ceilingDays = 24 * 30 // 24 months, in whole-day terms
	} else {
		ceilingDays = 30
	}

	if days == 0 {
		// "all" still needs a concrete lower bound for the query; it is
		// capped at the plan's own ceiling rather than truly unbounded.
		days = ceilingDays
	}

	if days > ceilingDays {
		return "", "", appErrors.NewValidationError(
			"requested range exceeds plan ceiling",
			fmt.Sprintf("plan %q allows at most %d days, requested %d", plan, ceilingDays, days))
	}

	from = now.AddDate(0, 0, -days+1).Format("2006-01-02")
	return from, to, nil
}

// Overview returns the total clicks within range plus the last 30 days'
// daily trend, fetched concurrently.
func (s *Service) Overview(ctx context.Context, workspaceID ulid.ULID, plan catalog.Plan, rangeToken string) (*OverviewResult, error) {
	from, to, err := resolveRange(plan, rangeToken, time.Now())
	if err != nil {
		return nil, err
	}

	trendFrom, _, err := resolveRange(plan, fmt.Sprintf("%dd", trendWindowDays), time.Now())
	if err != nil {
		// trendWindowDays (30) never exceeds the Free ceiling, so this path
		// is unreachable in practice; treat it as an internal error if it
		// ever does trip.
		return nil, appErrors.NewInternalError("resolve trend window", err)
	}

	var (
		total int64
		daily []rollup.WorkspaceDaily
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		total, err = s.rollups.SumWorkspaceTotal(gctx, workspaceID, from, to)
		if err != nil {
			s.logger.Error("overview: sum workspace total failed", "error", err, "workspace_id", workspaceID)
			return fmt.Errorf("sum workspace total: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		daily, err = s.rollups.SumWorkspaceDaily(gctx, workspaceID, trendFrom, to)
		if err != nil {
			s.logger.Error("overview: sum workspace daily failed", "error", err, "workspace_id", workspaceID)
			return fmt.Errorf("sum workspace daily: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, appErrors.NewInternalError("load overview", err)
	}

	trend := make([]DailyPoint, 0, len(daily))
	for _, d := range daily {
		trend = append(trend, DailyPoint{Date: d.Date, TotalClicks: d.TotalClicks})
	}

	return &OverviewResult{TotalClicks: total, DailyTrend: trend}, nil
}

// Links returns the top 100 links by clicks desc within range, hydrated with
// slug/destination from the catalog.
func (s *Service) Links(ctx context.Context, workspaceID ulid.ULID, plan catalog.Plan, rangeToken string) ([]LinkResult, error) {
	from, to, err := resolveRange(plan, rangeToken, time.Now())
	if err != nil {
		return nil, err
	}

	totals, err := s.rollups.SumLinkDaily(ctx, workspaceID, from, to, maxLinkResults)
	if err != nil {
		return nil, appErrors.NewInternalError("sum link daily", err)
	}
	if len(totals) == 0 {
		return []LinkResult{}, nil
	}

	ids := make([]ulid.ULID, 0, len(totals))
	for _, t := range totals {
		ids = append(ids, t.LinkID)
	}
	links, err := s.links.ListByIDs(ctx, ids)
	if err != nil {
		return nil, appErrors.NewInternalError("hydrate link totals", err)
	}
	bySlug := make(map[ulid.ULID]*catalog.Link, len(links))
	for _, l := range links {
		bySlug[l.ID] = l
	}

	results := make([]LinkResult, 0, len(totals))
	for _, t := range totals {
		l, ok := bySlug[t.LinkID]
		if !ok {
			// Link was deleted out from under its rollup history; skip
			// rather than surface a zero-value row.
			continue
		}
		results = append(results, LinkResult{
			ID:          l.ID,
			Slug:        l.Slug,
			Destination: l.Destination,
			TotalClicks: t.TotalClicks,
		})
	}
	return results, nil
}

// Referrers returns the top 50 referrer hosts by clicks desc within range.
func (s *Service) Referrers(ctx context.Context, workspaceID ulid.ULID, plan catalog.Plan, rangeToken string) ([]ReferrerResult, error) {
	from, to, err := resolveRange(plan, rangeToken, time.Now())
	if err != nil {
		return nil, err
	}
	totals, err := s.rollups.SumReferrerDaily(ctx, workspaceID, from, to, maxReferrerResults)
	if err != nil {
		return nil, appErrors.NewInternalError("sum referrer daily", err)
	}
	results := make([]ReferrerResult, 0, len(totals))
	for _, t := range totals {
		results = append(results, ReferrerResult{Referrer: t.Referrer, TotalClicks: t.TotalClicks})
	}
	return results, nil
}

// Countries returns the top 50 countries by clicks desc within range.
func (s *Service) Countries(ctx context.Context, workspaceID ulid.ULID, plan catalog.Plan, rangeToken string) ([]CountryResult, error) {
	from, to, err := resolveRange(plan, rangeToken, time.Now())
	if err != nil {
		return nil, err
	}
	totals, err := s.rollups.SumCountryDaily(ctx, workspaceID, from, to, maxCountryResults)
	if err != nil {
		return nil, appErrors.NewInternalError("sum country daily", err)
	}
	results := make([]CountryResult, 0, len(totals))
	for _, t := range totals {
		results = append(results, CountryResult{Country: t.Country, TotalClicks: t.TotalClicks})
	}
	return results, nil
}

// Devices returns the full device-class breakdown within range (cardinality
// is small and fixed, so there is no top-N limit).
func (s *Service) Devices(ctx context.Context, workspaceID ulid.ULID, plan catalog.Plan, rangeToken string) ([]DeviceResult, error) {
	from, to, err := resolveRange(plan, rangeToken, time.Now())
	if err != nil {
		return nil, err
	}
	totals, err := s.rollups.SumDeviceDaily(ctx, workspaceID, from, to)
	if err != nil {
		return nil, appErrors.NewInternalError("sum device daily", err)
	}
	results := make([]DeviceResult, 0, len(totals))
	for _, t := range totals {
		results = append(results, DeviceResult{DeviceType: t.DeviceClass, TotalClicks: t.TotalClicks})
	}
	return results, nil
}
