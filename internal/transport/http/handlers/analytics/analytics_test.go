package analytics

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shortcut/internal/core/domain/catalog"
	"shortcut/internal/core/domain/rollup"
	analyticssvc "shortcut/internal/core/services/analytics"
	"shortcut/internal/transport/http/middleware"
	"shortcut/pkg/ulid"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeRollupRepository struct {
	workspaceTotal int64
}

func (f *fakeRollupRepository) GetHighWaterMark(ctx context.Context) (time.Time, error) {
	return time.Time{}, nil
}
func (f *fakeRollupRepository) ApplyBatch(ctx context.Context, batch *rollup.Batch) error { return nil }
func (f *fakeRollupRepository) SumWorkspaceDaily(ctx context.Context, workspaceID ulid.ULID, from, to string) ([]rollup.WorkspaceDaily, error) {
	return nil, nil
}
func (f *fakeRollupRepository) SumWorkspaceTotal(ctx context.Context, workspaceID ulid.ULID, from, to string) (int64, error) {
	return f.workspaceTotal, nil
}
func (f *fakeRollupRepository) SumLinkDaily(ctx context.Context, workspaceID ulid.ULID, from, to string, limit int) ([]rollup.LinkTotal, error) {
	return nil, nil
}
func (f *fakeRollupRepository) SumReferrerDaily(ctx context.Context, workspaceID ulid.ULID, from, to string, limit int) ([]rollup.ReferrerTotal, error) {
	return nil, nil
}
func (f *fakeRollupRepository) SumCountryDaily(ctx context.Context, workspaceID ulid.ULID, from, to string, limit int) ([]rollup.CountryTotal, error) {
	return nil, nil
}
func (f *fakeRollupRepository) SumDeviceDaily(ctx context.Context, workspaceID ulid.ULID, from, to string) ([]rollup.DeviceTotal, error) {
	return nil, nil
}

type fakeLinkRepository struct{}

func (f *fakeLinkRepository) GetByDomainAndSlug(ctx context.Context, domainID ulid.ULID, slug string) (*catalog.Link, error) {
	return nil, catalog.ErrLinkNotFound
}
func (f *fakeLinkRepository) ListByIDs(ctx context.Context, ids []ulid.ULID) ([]*catalog.Link, error) {
	return nil, nil
}

func newTestHandler() *Handler {
	svc := analyticssvc.NewService(&fakeRollupRepository{workspaceTotal: 7}, &fakeLinkRepository{}, testLogger())
	return NewHandler(svc, testLogger())
}

func doRequest(h *Handler, fn gin.HandlerFunc, workspaceID *ulid.ULID, plan catalog.Plan, rangeToken string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/analytics/overview?range="+rangeToken, nil)
	c.Request = req
	if workspaceID != nil {
		c.Set(middleware.WorkspaceIDKey, *workspaceID)
		c.Set(middleware.PlanKey, plan)
	}
	fn(c)
	return w
}

func TestOverview_MissingWorkspaceIdentityIsUnauthorized(t *testing.T) {
	h := newTestHandler()
	w := doRequest(h, h.Overview, nil, "", "7d")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestOverview_MissingPlanIsUnauthorized(t *testing.T) {
	h := newTestHandler()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/analytics/overview", nil)
	c.Set(middleware.WorkspaceIDKey, ulid.New())
	h.Overview(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestOverview_HappyPathRendersSuccessEnvelope(t *testing.T) {
	h := newTestHandler()
	workspaceID := ulid.New()
	w := doRequest(h, h.Overview, &workspaceID, catalog.PlanPro, "7d")

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])
}

func TestOverview_RangeBeyondPlanCeilingIsBadRequest(t *testing.T) {
	h := newTestHandler()
	workspaceID := ulid.New()
	w := doRequest(h, h.Overview, &workspaceID, catalog.PlanFree, "90d")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
}
