package handlers

import (
	"log/slog"

	"shortcut/internal/config"
	analyticssvc "shortcut/internal/core/services/analytics"
	"shortcut/internal/core/services/counter"
	"shortcut/internal/core/services/plancache"
	"shortcut/internal/core/services/resolver"
	"shortcut/internal/infrastructure/database"
	"shortcut/internal/infrastructure/queue"
	"shortcut/internal/transport/http/handlers/analytics"
	"shortcut/internal/transport/http/handlers/health"
	"shortcut/internal/transport/http/handlers/metrics"
	"shortcut/internal/transport/http/handlers/redirect"
)

// Handlers aggregates every HTTP handler the server mounts.
type Handlers struct {
	Health    *health.Handler
	Metrics   *metrics.Handler
	Analytics *analytics.Handler
	Redirect  *redirect.Handler
}

// NewHandlers wires every handler from its underlying service/repository
// dependencies.
func NewHandlers(
	cfg *config.Config,
	logger *slog.Logger,
	postgres *database.PostgresDB,
	redis *database.RedisDB,
	resolverSvc *resolver.Resolver,
	plans *plancache.Cache,
	counters *counter.Service,
	publisher *queue.ClickPublisher,
	analyticsSvc *analyticssvc.Service,
) *Handlers {
	return &Handlers{
		Health:    health.NewHandler(cfg, logger, postgres, redis),
		Metrics:   metrics.NewHandler(cfg, logger),
		Analytics: analytics.NewHandler(analyticsSvc, logger),
		Redirect: redirect.NewHandler(
			resolverSvc,
			plans,
			counters,
			publisher,
			logger,
			cfg.Counter.FreeMonthlyCap,
			cfg.Workers.DetachedTaskDeadline,
		),
	}
}
