package workers

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	clickdomain "shortcut/internal/core/domain/click"
	"shortcut/internal/core/domain/rollup"
	"shortcut/pkg/ulid"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeClickRepo struct {
	rows []*clickdomain.RawClick
}

func (f *fakeClickRepo) InsertBatch(ctx context.Context, rows []*clickdomain.RawClick) error {
	return nil
}

func (f *fakeClickRepo) ListSince(ctx context.Context, since time.Time, limit int) ([]*clickdomain.RawClick, error) {
	var out []*clickdomain.RawClick
	for _, r := range f.rows {
		if r.TS.After(since) {
			out = append(out, r)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeClickRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time, limit int) (int64, error) {
	return 0, nil
}

type fakeRollupRepo struct {
	hwm     time.Time
	batches []*rollup.Batch
}

func (f *fakeRollupRepo) GetHighWaterMark(ctx context.Context) (time.Time, error) {
	return f.hwm, nil
}

func (f *fakeRollupRepo) ApplyBatch(ctx context.Context, batch *rollup.Batch) error {
	f.batches = append(f.batches, batch)
	f.hwm = batch.MaxTS
	return nil
}

func (f *fakeRollupRepo) SumWorkspaceDaily(ctx context.Context, workspaceID ulid.ULID, from, to string) ([]rollup.WorkspaceDaily, error) {
	return nil, nil
}

func (f *fakeRollupRepo) SumWorkspaceTotal(ctx context.Context, workspaceID ulid.ULID, from, to string) (int64, error) {
	return 0, nil
}

func (f *fakeRollupRepo) SumLinkDaily(ctx context.Context, workspaceID ulid.ULID, from, to string, limit int) ([]rollup.LinkTotal, error) {
	return nil, nil
}

func (f *fakeRollupRepo) SumReferrerDaily(ctx context.Context, workspaceID ulid.ULID, from, to string, limit int) ([]rollup.ReferrerTotal, error) {
	return nil, nil
}

func (f *fakeRollupRepo) SumCountryDaily(ctx context.Context, workspaceID ulid.ULID, from, to string, limit int) ([]rollup.CountryTotal, error) {
	return nil, nil
}

func (f *fakeRollupRepo) SumDeviceDaily(ctx context.Context, workspaceID ulid.ULID, from, to string) ([]rollup.DeviceTotal, error) {
	return nil, nil
}

func TestAggregatorWorker_RunOnce_AppliesBatchAndAdvancesHWM(t *testing.T) {
	workspaceID := ulid.New()
	linkID := ulid.New()
	ts1 := time.Date(2026, 7, 30, 10, 0, 0, 0, time.UTC)
	ts2 := time.Date(2026, 7, 30, 11, 0, 0, 0, time.UTC)

	clicks := &fakeClickRepo{rows: []*clickdomain.RawClick{
		{ClickID: "a", TS: ts1, WorkspaceID: workspaceID, LinkID: linkID, Referrer: "https://google.com/search", Country: "US", DeviceClass: clickdomain.DeviceMobile},
		{ClickID: "b", TS: ts2, WorkspaceID: workspaceID, LinkID: linkID, Referrer: "", Country: "", DeviceClass: clickdomain.DeviceDesktop},
	}}
	rollups := &fakeRollupRepo{}

	w := NewAggregatorWorker(clicks, rollups, nil, testLogger(), time.Minute, 10)

	n, err := w.runOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.Len(t, rollups.batches, 1)

	batch := rollups.batches[0]
	assert.Equal(t, int64(2), batch.WorkspaceDaily[rollup.WorkspaceDailyKey{WorkspaceID: workspaceID, Date: "2026-07-30"}])
	assert.Equal(t, int64(2), batch.LinkDaily[rollup.LinkDailyKey{LinkID: linkID, Date: "2026-07-30"}])
	assert.Equal(t, int64(1), batch.ReferrerDaily[rollup.ReferrerDailyKey{WorkspaceID: workspaceID, Date: "2026-07-30", Referrer: "google.com"}])
	assert.Equal(t, int64(1), batch.ReferrerDaily[rollup.ReferrerDailyKey{WorkspaceID: workspaceID, Date: "2026-07-30", Referrer: "(direct)"}])
	assert.Equal(t, int64(1), batch.CountryDaily[rollup.CountryDailyKey{WorkspaceID: workspaceID, Date: "2026-07-30", Country: "US"}])
	assert.Equal(t, int64(1), batch.CountryDaily[rollup.CountryDailyKey{WorkspaceID: workspaceID, Date: "2026-07-30", Country: "unknown"}])
	assert.Equal(t, int64(1), batch.DeviceDaily[rollup.DeviceDailyKey{WorkspaceID: workspaceID, Date: "2026-07-30", DeviceClass: "mobile"}])
	assert.Equal(t, int64(1), batch.DeviceDaily[rollup.DeviceDailyKey{WorkspaceID: workspaceID, Date: "2026-07-30", DeviceClass: "desktop"}])
	assert.True(t, ts2.Equal(rollups.hwm))
}

func TestAggregatorWorker_RunOnce_EmptyBatchIsNoop(t *testing.T) {
	clicks := &fakeClickRepo{}
	rollups := &fakeRollupRepo{}

	w := NewAggregatorWorker(clicks, rollups, nil, testLogger(), time.Minute, 10)

	n, err := w.runOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Empty(t, rollups.batches)
}

func TestAggregatorWorker_Run_IsNoopOnceCaughtUp(t *testing.T) {
	workspaceID := ulid.New()
	linkID := ulid.New()
	ts := time.Date(2026, 7, 30, 10, 0, 0, 0, time.UTC)

	clicks := &fakeClickRepo{rows: []*clickdomain.RawClick{
		{ClickID: "a", TS: ts, WorkspaceID: workspaceID, LinkID: linkID, DeviceClass: clickdomain.DeviceDesktop},
	}}
	rollups := &fakeRollupRepo{}

	w := NewAggregatorWorker(clicks, rollups, nil, testLogger(), time.Minute, 10)

	w.run()
	require.Len(t, rollups.batches, 1)
	assert.True(t, ts.Equal(rollups.hwm))

	// A second pass with no new clicks past the advanced high-water mark
	// must not apply another batch.
	w.run()
	assert.Len(t, rollups.batches, 1)
}

type fakeLease struct {
	held     bool
	acquires int
	releases int
}

func (f *fakeLease) Acquire(ctx context.Context) (bool, error) {
	f.acquires++
	return !f.held, nil
}

func (f *fakeLease) Release(ctx context.Context) { f.releases++ }

func TestAggregatorWorker_Run_SkipsPassWhenLeaseIsHeldElsewhere(t *testing.T) {
	workspaceID := ulid.New()
	linkID := ulid.New()
	ts := time.Date(2026, 7, 30, 10, 0, 0, 0, time.UTC)

	clicks := &fakeClickRepo{rows: []*clickdomain.RawClick{
		{ClickID: "a", TS: ts, WorkspaceID: workspaceID, LinkID: linkID, DeviceClass: clickdomain.DeviceDesktop},
	}}
	rollups := &fakeRollupRepo{}
	lease := &fakeLease{held: true}

	w := NewAggregatorWorker(clicks, rollups, lease, testLogger(), time.Minute, 10)
	w.run()

	assert.Empty(t, rollups.batches)
	assert.Equal(t, 1, lease.acquires)
	assert.Zero(t, lease.releases)

	lease.held = false
	w.run()
	assert.Len(t, rollups.batches, 1)
	assert.Equal(t, 1, lease.releases)
}

func TestAggregatorWorker_Run_PaginatesUntilShortBatch(t *testing.T) {
	workspaceID := ulid.New()
	linkID := ulid.New()
	base := time.Date(2026, 7, 30, 10, 0, 0, 0, time.UTC)

	rows := make([]*clickdomain.RawClick, 0, 25)
	for i := 0; i < 25; i++ {
		rows = append(rows, &clickdomain.RawClick{
			ClickID:     ulid.New().String(),
			TS:          base.Add(time.Duration(i) * time.Second),
			WorkspaceID: workspaceID,
			LinkID:      linkID,
			DeviceClass: clickdomain.DeviceDesktop,
		})
	}
	clicks := &fakeClickRepo{rows: rows}
	rollups := &fakeRollupRepo{}

	w := NewAggregatorWorker(clicks, rollups, nil, testLogger(), time.Minute, 10)
	w.run()

	// 25 rows at batch size 10: three passes (10, 10, 5), stopping once a
	// batch comes back shorter than batchSize.
	require.Len(t, rollups.batches, 3)
	total := int64(0)
	for _, b := range rollups.batches {
		total += b.WorkspaceDaily[rollup.WorkspaceDailyKey{WorkspaceID: workspaceID, Date: "2026-07-30"}]
	}
	assert.Equal(t, int64(25), total)
	assert.True(t, rows[24].TS.Equal(rollups.hwm))
}
