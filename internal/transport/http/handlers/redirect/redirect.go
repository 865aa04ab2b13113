// Package redirect implements the Redirect Handler, the one response-path
// contract in the system. Resolution is synchronous and gates the response;
// everything downstream of the 302 (enrichment, plan lookup, counter
// mutation, enqueue) runs in a detached task with a bounded deadline and
// must never influence, delay, or fail the response already sent.
package redirect

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"shortcut/internal/core/domain/catalog"
	clickdomain "shortcut/internal/core/domain/click"
	clickenrich "shortcut/internal/core/services/click"
	"shortcut/internal/core/services/counter"
	"shortcut/internal/core/services/plancache"
	"shortcut/internal/core/services/resolver"
	"shortcut/internal/infrastructure/queue"
	"shortcut/internal/metrics"
	"shortcut/pkg/response"
	"shortcut/pkg/ulid"
)

// Handler serves GET /{slug} on any verified hostname.
type Handler struct {
	resolver        *resolver.Resolver
	plans           *plancache.Cache
	counters        *counter.Service
	publisher       *queue.ClickPublisher
	logger          *slog.Logger
	freeMonthlyCap  int64
	detachedDeadline time.Duration
}

func NewHandler(
	resolver *resolver.Resolver,
	plans *plancache.Cache,
	counters *counter.Service,
	publisher *queue.ClickPublisher,
	logger *slog.Logger,
	freeMonthlyCap int64,
	detachedDeadline time.Duration,
) *Handler {
	return &Handler{
		resolver:         resolver,
		plans:            plans,
		counters:         counters,
		publisher:        publisher,
		logger:           logger,
		freeMonthlyCap:   freeMonthlyCap,
		detachedDeadline: detachedDeadline,
	}
}

// Redirect resolves the request's (host, slug) and either commits a 302 or a
// 404 — the only two outcomes this path emits — then hands everything else
// off to a detached task.
func (h *Handler) Redirect(c *gin.Context) {
	hostname := c.Request.Host
	if h, _, err := net.SplitHostPort(hostname); err == nil {
		hostname = h
	}
	slug := c.Param("slug")

	result, err := h.resolver.Resolve(c.Request.Context(), hostname, slug)
	if err != nil {
		metrics.RedirectsTotal.WithLabelValues("unresolved").Inc()
		response.NotFound(c, "link")
		return
	}

	c.Header("Location", result.Destination)
	c.Header("Cache-Control", "no-store")
	c.Status(http.StatusFound)
	metrics.RedirectsTotal.WithLabelValues("resolved").Inc()

	requestID, _ := c.Get("request_id")
	requestIDStr, _ := requestID.(string)

	task := detachedTask{
		handler:     h,
		workspaceID: result.WorkspaceID,
		linkID:      result.LinkID,
		domain:      hostname,
		slug:        result.Slug,
		destination: result.Destination,
		referrer:    c.GetHeader("Referer"),
		userAgent:   c.Request.UserAgent(),
		clientIP:    c.ClientIP(),
		requestID:   requestIDStr,
		ts:          time.Now().UTC(),
	}
	go task.run()
}

// detachedTask carries everything the post-response work needs, captured
// from the request before the handler returns — the gin.Context itself must
// not be read from a goroutine outlasting the response.
type detachedTask struct {
	handler     *Handler
	workspaceID ulid.ULID
	linkID      ulid.ULID
	domain      string
	slug        string
	destination string
	referrer    string
	userAgent   string
	clientIP    string
	requestID   string
	ts          time.Time
}

func (t detachedTask) run() {
	h := t.handler
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("redirect: detached task panicked", "error", r, "workspace_id", t.workspaceID)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), h.detachedDeadline)
	defer cancel()

	if clickenrich.IsBot(t.userAgent) {
		return
	}

	workspace, err := h.plans.Get(ctx, t.workspaceID)
	if err != nil {
		h.logger.Warn("redirect: plan lookup failed, dropping click", "error", err, "workspace_id", t.workspaceID)
		metrics.EnqueueDropTotal.WithLabelValues("plan_lookup").Inc()
		return
	}

	var tracked bool
	if workspace.Plan == catalog.PlanFree {
		tracked, err = h.counters.IncrementFreeIfUnderCap(ctx, t.workspaceID, h.freeMonthlyCap)
		if err != nil {
			h.logger.Warn("redirect: free counter increment failed, dropping click", "error", err, "workspace_id", t.workspaceID)
			metrics.EnqueueDropTotal.WithLabelValues("counter").Inc()
			return
		}
		if !tracked {
			metrics.FreeCapReachedTotal.Inc()
			return
		}
	} else {
		if err := h.counters.IncrementPro(ctx, t.workspaceID); err != nil {
			h.logger.Warn("redirect: pro counter increment failed, dropping click", "error", err, "workspace_id", t.workspaceID)
			metrics.EnqueueDropTotal.WithLabelValues("counter").Inc()
			return
		}
	}

	uniquePart := clickenrich.UniquePart(t.requestID, t.userAgent)
	clickID := clickenrich.ClickID(t.linkID, t.ts, uniquePart)

	evt := &clickdomain.Event{
		ClickID:     clickID,
		TS:          t.ts,
		WorkspaceID: t.workspaceID,
		LinkID:      t.linkID,
		Domain:      t.domain,
		Slug:        t.slug,
		Destination: t.destination,
		Referrer:    t.referrer,
		UserAgent:   t.userAgent,
		IPHash:      clickenrich.IPHash(t.clientIP),
	}

	if err := h.publisher.Publish(ctx, evt); err != nil {
		h.logger.Warn("redirect: enqueue failed, dropping click", "error", err, "workspace_id", t.workspaceID, "click_id", clickID)
		metrics.EnqueueDropTotal.WithLabelValues("enqueue").Inc()
		return
	}
}
