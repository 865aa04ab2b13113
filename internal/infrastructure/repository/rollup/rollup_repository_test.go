package rollup

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"shortcut/internal/core/domain/catalog"
	"shortcut/internal/core/domain/rollup"
	"shortcut/pkg/ulid"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&rollup.HighWaterMark{},
		&rollup.WorkspaceDaily{},
		&rollup.LinkDaily{},
		&rollup.ReferrerDaily{},
		&rollup.CountryDaily{},
		&rollup.DeviceDaily{},
		&catalog.Link{},
	))
	return db
}

func TestGetHighWaterMark_DefaultsToZeroTimeOnFirstCall(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)

	hwm, err := repo.GetHighWaterMark(context.Background())
	require.NoError(t, err)
	assert.True(t, hwm.IsZero())
}

func TestApplyBatch_AccumulatesAdditivelyAndAdvancesHWM(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	workspaceID := ulid.New()

	ts1 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	batch1 := &rollup.Batch{
		WorkspaceDaily: map[rollup.WorkspaceDailyKey]int64{
			{WorkspaceID: workspaceID, Date: "2026-03-01"}: 5,
		},
		MaxTS: ts1,
	}
	require.NoError(t, repo.ApplyBatch(ctx, batch1))

	ts2 := time.Date(2026, 3, 1, 13, 0, 0, 0, time.UTC)
	batch2 := &rollup.Batch{
		WorkspaceDaily: map[rollup.WorkspaceDailyKey]int64{
			{WorkspaceID: workspaceID, Date: "2026-03-01"}: 3,
		},
		MaxTS: ts2,
	}
	require.NoError(t, repo.ApplyBatch(ctx, batch2))

	total, err := repo.SumWorkspaceTotal(ctx, workspaceID, "2026-03-01", "2026-03-01")
	require.NoError(t, err)
	assert.Equal(t, int64(8), total)

	hwm, err := repo.GetHighWaterMark(ctx)
	require.NoError(t, err)
	assert.True(t, ts2.Equal(hwm))
}

func TestSumWorkspaceDaily_OrdersByDateAscending(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	workspaceID := ulid.New()

	require.NoError(t, repo.ApplyBatch(ctx, &rollup.Batch{
		WorkspaceDaily: map[rollup.WorkspaceDailyKey]int64{
			{WorkspaceID: workspaceID, Date: "2026-03-02"}: 1,
			{WorkspaceID: workspaceID, Date: "2026-03-01"}: 2,
		},
	}))

	rows, err := repo.SumWorkspaceDaily(ctx, workspaceID, "2026-03-01", "2026-03-02")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "2026-03-01", rows[0].Date)
	assert.Equal(t, "2026-03-02", rows[1].Date)
}

func TestSumLinkDaily_JoinsThroughLinksForWorkspaceScoping(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	workspaceID := ulid.New()
	otherWorkspaceID := ulid.New()
	domainID := ulid.New()

	ownLink := &catalog.Link{ID: ulid.New(), WorkspaceID: workspaceID, DomainID: domainID, Slug: "a",
		Destination: "https://dest.example/a", Status: catalog.LinkStatusActive}
	otherLink := &catalog.Link{ID: ulid.New(), WorkspaceID: otherWorkspaceID, DomainID: domainID, Slug: "b",
		Destination: "https://dest.example/b", Status: catalog.LinkStatusActive}
	require.NoError(t, db.Create(ownLink).Error)
	require.NoError(t, db.Create(otherLink).Error)

	require.NoError(t, repo.ApplyBatch(ctx, &rollup.Batch{
		LinkDaily: map[rollup.LinkDailyKey]int64{
			{LinkID: ownLink.ID, Date: "2026-03-01"}:   4,
			{LinkID: otherLink.ID, Date: "2026-03-01"}: 9,
		},
	}))

	rows, err := repo.SumLinkDaily(ctx, workspaceID, "2026-03-01", "2026-03-01", 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, ownLink.ID, rows[0].LinkID)
	assert.Equal(t, int64(4), rows[0].TotalClicks)
}

func TestSumReferrerDaily_RespectsLimitAndOrdering(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	workspaceID := ulid.New()

	require.NoError(t, repo.ApplyBatch(ctx, &rollup.Batch{
		ReferrerDaily: map[rollup.ReferrerDailyKey]int64{
			{WorkspaceID: workspaceID, Date: "2026-03-01", Referrer: "google.com"}: 10,
			{WorkspaceID: workspaceID, Date: "2026-03-01", Referrer: "(direct)"}:   50,
		},
	}))

	rows, err := repo.SumReferrerDaily(ctx, workspaceID, "2026-03-01", "2026-03-01", 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "(direct)", rows[0].Referrer)
}
