package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"shortcut/internal/core/domain/catalog"
	"shortcut/pkg/ulid"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&catalog.Domain{}, &catalog.Link{}, &catalog.Workspace{}))
	return db
}

func TestDomainRepository_GetVerifiedByHostname_MatchesCaseInsensitively(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDomainRepository(db)
	ctx := context.Background()

	domain := &catalog.Domain{ID: ulid.New(), Hostname: "Example.Test", Status: catalog.DomainStatusVerified}
	require.NoError(t, db.Create(domain).Error)

	found, err := repo.GetVerifiedByHostname(ctx, "example.test")
	require.NoError(t, err)
	assert.Equal(t, domain.ID, found.ID)
}

func TestDomainRepository_GetVerifiedByHostname_SkipsUnverified(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDomainRepository(db)
	ctx := context.Background()

	domain := &catalog.Domain{ID: ulid.New(), Hostname: "pending.test", Status: catalog.DomainStatusPending}
	require.NoError(t, db.Create(domain).Error)

	_, err := repo.GetVerifiedByHostname(ctx, "pending.test")
	assert.ErrorIs(t, err, catalog.ErrDomainNotFound)
}

func TestLinkRepository_GetByDomainAndSlug_FindsActiveAndPaused(t *testing.T) {
	db := setupTestDB(t)
	repo := NewLinkRepository(db)
	ctx := context.Background()

	domainID := ulid.New()
	workspaceID := ulid.New()
	link := &catalog.Link{ID: ulid.New(), WorkspaceID: workspaceID, DomainID: domainID, Slug: "x",
		Destination: "https://dest.example/path", Status: catalog.LinkStatusPaused}
	require.NoError(t, db.Create(link).Error)

	found, err := repo.GetByDomainAndSlug(ctx, domainID, "x")
	require.NoError(t, err)
	assert.Equal(t, link.ID, found.ID)
	assert.False(t, found.IsActive())
}

func TestLinkRepository_GetByDomainAndSlug_MatchesSlugCaseInsensitively(t *testing.T) {
	db := setupTestDB(t)
	repo := NewLinkRepository(db)
	ctx := context.Background()

	domainID, workspaceID := ulid.New(), ulid.New()
	link := &catalog.Link{ID: ulid.New(), WorkspaceID: workspaceID, DomainID: domainID, Slug: "MixedCase",
		Destination: "https://dest.example/path", Status: catalog.LinkStatusActive}
	require.NoError(t, db.Create(link).Error)

	found, err := repo.GetByDomainAndSlug(ctx, domainID, "mixedcase")
	require.NoError(t, err)
	assert.Equal(t, link.ID, found.ID)

	found, err = repo.GetByDomainAndSlug(ctx, domainID, "MIXEDCASE")
	require.NoError(t, err)
	assert.Equal(t, link.ID, found.ID)
}

func TestLinkRepository_GetByDomainAndSlug_UnknownSlugIsNotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewLinkRepository(db)
	ctx := context.Background()

	_, err := repo.GetByDomainAndSlug(ctx, ulid.New(), "nope")
	assert.ErrorIs(t, err, catalog.ErrLinkNotFound)
}

func TestLinkRepository_ListByIDs_OmitsUnmatchedAndEmptyInput(t *testing.T) {
	db := setupTestDB(t)
	repo := NewLinkRepository(db)
	ctx := context.Background()

	domainID, workspaceID := ulid.New(), ulid.New()
	kept := &catalog.Link{ID: ulid.New(), WorkspaceID: workspaceID, DomainID: domainID, Slug: "kept",
		Destination: "https://dest.example/kept", Status: catalog.LinkStatusActive}
	require.NoError(t, db.Create(kept).Error)

	found, err := repo.ListByIDs(ctx, []ulid.ULID{kept.ID, ulid.New()})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, kept.ID, found[0].ID)

	empty, err := repo.ListByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestWorkspaceRepository_ListProPastPeriodEnd_ExcludesFreeAndOpenPeriods(t *testing.T) {
	db := setupTestDB(t)
	repo := NewWorkspaceRepository(db)
	ctx := context.Background()

	now := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	pastEnd := now.AddDate(0, -1, 0)
	futureEnd := now.AddDate(0, 1, 0)

	closedPro := &catalog.Workspace{ID: ulid.New(), Plan: catalog.PlanPro, CurrentPeriodEnd: &pastEnd}
	openPro := &catalog.Workspace{ID: ulid.New(), Plan: catalog.PlanPro, CurrentPeriodEnd: &futureEnd}
	closedFree := &catalog.Workspace{ID: ulid.New(), Plan: catalog.PlanFree, CurrentPeriodEnd: &pastEnd}
	require.NoError(t, db.Create(closedPro).Error)
	require.NoError(t, db.Create(openPro).Error)
	require.NoError(t, db.Create(closedFree).Error)

	found, err := repo.ListProPastPeriodEnd(ctx, now)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, closedPro.ID, found[0].ID)
}

func TestWorkspaceRepository_GetByID_UnknownIsNotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewWorkspaceRepository(db)

	_, err := repo.GetByID(context.Background(), ulid.New())
	assert.ErrorIs(t, err, catalog.ErrWorkspaceNotFound)
}
