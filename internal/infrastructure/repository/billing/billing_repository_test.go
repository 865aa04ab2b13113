package billing

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"shortcut/internal/core/domain/billing"
	"shortcut/pkg/ulid"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&billing.UsagePeriod{}, &billing.Mismatch{}))
	return db
}

func TestCreate_DuplicatePeriodIsAlreadyReported(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	workspaceID := ulid.New()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	row := &billing.UsagePeriod{WorkspaceID: workspaceID, PeriodStart: start, PeriodEnd: end,
		TotalClicksReported: 100, OverageAmount: decimal.Zero, ReportedAt: time.Now().UTC()}
	require.NoError(t, repo.Create(ctx, row))

	dup := &billing.UsagePeriod{WorkspaceID: workspaceID, PeriodStart: start, PeriodEnd: end,
		TotalClicksReported: 200, OverageAmount: decimal.Zero, ReportedAt: time.Now().UTC()}
	err := repo.Create(ctx, dup)
	assert.ErrorIs(t, err, billing.ErrUsagePeriodAlreadyReported)
}

func TestExists_TrueOnlyForExactTriple(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	workspaceID := ulid.New()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	ok, err := repo.Exists(ctx, workspaceID, start, end)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.Create(ctx, &billing.UsagePeriod{WorkspaceID: workspaceID, PeriodStart: start, PeriodEnd: end,
		OverageAmount: decimal.Zero, ReportedAt: time.Now().UTC()}))

	ok, err = repo.Exists(ctx, workspaceID, start, end)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestListReportedSince_OrdersByReportedAtAscending(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	workspaceID := ulid.New()
	older := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Create(ctx, &billing.UsagePeriod{WorkspaceID: workspaceID,
		PeriodStart: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), PeriodEnd: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		OverageAmount: decimal.Zero, ReportedAt: newer}))
	require.NoError(t, repo.Create(ctx, &billing.UsagePeriod{WorkspaceID: workspaceID,
		PeriodStart: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), PeriodEnd: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		OverageAmount: decimal.Zero, ReportedAt: older}))

	rows, err := repo.ListReportedSince(ctx, older)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.True(t, rows[0].ReportedAt.Equal(older))
	assert.True(t, rows[1].ReportedAt.Equal(newer))
}

func TestCreateMismatch_GeneratesIDWhenUnset(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	m := &billing.Mismatch{WorkspaceID: ulid.New(), Delta: 5000, DetectedAt: time.Now().UTC()}
	require.NoError(t, repo.CreateMismatch(ctx, m))
	assert.False(t, m.ID.IsZero())
}
