// Package analytics serves the authenticated rollup read endpoints under
// /api/v1/analytics/*. Workspace identity and plan arrive via the auth
// collaborator's context (see middleware.RequireWorkspace); every endpoint
// reads exclusively through the analytics.Service, never the raw click log.
package analytics

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	analyticssvc "shortcut/internal/core/services/analytics"
	"shortcut/internal/core/domain/catalog"
	"shortcut/internal/transport/http/middleware"
	"shortcut/pkg/response"
	"shortcut/pkg/ulid"
)

type Handler struct {
	service *analyticssvc.Service
	logger  *slog.Logger
}

func NewHandler(service *analyticssvc.Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Overview(c *gin.Context) {
	workspaceID, plan, ok := h.identity(c)
	if !ok {
		return
	}
	result, err := h.service.Overview(c.Request.Context(), workspaceID, plan, c.Query("range"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

func (h *Handler) Links(c *gin.Context) {
	workspaceID, plan, ok := h.identity(c)
	if !ok {
		return
	}
	result, err := h.service.Links(c.Request.Context(), workspaceID, plan, c.Query("range"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

func (h *Handler) Referrers(c *gin.Context) {
	workspaceID, plan, ok := h.identity(c)
	if !ok {
		return
	}
	result, err := h.service.Referrers(c.Request.Context(), workspaceID, plan, c.Query("range"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

func (h *Handler) Countries(c *gin.Context) {
	workspaceID, plan, ok := h.identity(c)
	if !ok {
		return
	}
	result, err := h.service.Countries(c.Request.Context(), workspaceID, plan, c.Query("range"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

func (h *Handler) Devices(c *gin.Context) {
	workspaceID, plan, ok := h.identity(c)
	if !ok {
		return
	}
	result, err := h.service.Devices(c.Request.Context(), workspaceID, plan, c.Query("range"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// identity reads the workspace/plan the RequireWorkspace middleware attached
// to the context. Both are guaranteed present by the time a handler runs
// since the middleware aborts otherwise, but handlers stay defensive.
func (h *Handler) identity(c *gin.Context) (ulid.ULID, catalog.Plan, bool) {
	workspaceID, ok := middleware.GetWorkspaceID(c)
	if !ok {
		response.Unauthorized(c, "workspace identity required")
		return ulid.ULID{}, "", false
	}
	plan, ok := middleware.GetPlan(c)
	if !ok {
		response.Unauthorized(c, "workspace plan required")
		return ulid.ULID{}, "", false
	}
	return workspaceID, plan, true
}
