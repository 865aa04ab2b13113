package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"shortcut/internal/config"
	"shortcut/internal/transport/http/handlers"
	"shortcut/internal/transport/http/middleware"
)

// Server is the HTTP server: the redirect endpoint (any verified hostname)
// and the authenticated analytics API (/api/v1/analytics/*) share one Gin
// engine.
type Server struct {
	config   *config.Config
	logger   *slog.Logger
	server   *http.Server
	handlers *handlers.Handlers
	engine   *gin.Engine
}

// NewServer creates a new HTTP server instance.
func NewServer(cfg *config.Config, logger *slog.Logger, handlers *handlers.Handlers) *Server {
	return &Server{
		config:   cfg,
		logger:   logger,
		handlers: handlers,
	}
}

// Start configures routes and serves until Shutdown is called or the
// listener fails.
func (s *Server) Start() error {
	if s.config.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	s.engine = gin.New()

	corsConfig := cors.DefaultConfig()
	if len(s.config.Server.CORSAllowedOrigins) > 0 {
		corsConfig.AllowOrigins = s.config.Server.CORSAllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "HEAD", "OPTIONS"}
	corsConfig.MaxAge = 5 * time.Minute
	s.engine.Use(cors.New(corsConfig))

	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Server.Port),
		Handler:      s.engine,
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
	}

	s.logger.Info("starting http server", "port", s.config.Server.Port)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) setupRoutes() {
	s.engine.Use(middleware.RequestID())
	s.engine.Use(middleware.Logger(s.logger))
	s.engine.Use(middleware.Recovery(s.logger))
	s.engine.Use(middleware.Metrics())

	s.engine.GET("/health", s.handlers.Health.Check)
	s.engine.HEAD("/health", s.handlers.Health.Check)
	s.engine.GET("/health/ready", s.handlers.Health.Ready)
	s.engine.HEAD("/health/ready", s.handlers.Health.Ready)
	s.engine.GET("/health/live", s.handlers.Health.Live)
	s.engine.HEAD("/health/live", s.handlers.Health.Live)

	s.engine.GET("/metrics", s.handlers.Metrics.Handler)

	// Analytics read API: authenticated, plan/workspace identity attached by
	// the out-of-core auth collaborator (see middleware.RequireWorkspace).
	analytics := s.engine.Group("/api/v1/analytics")
	analytics.Use(middleware.RequireWorkspace())
	{
		analytics.GET("/overview", s.handlers.Analytics.Overview)
		analytics.GET("/links", s.handlers.Analytics.Links)
		analytics.GET("/referrers", s.handlers.Analytics.Referrers)
		analytics.GET("/countries", s.handlers.Analytics.Countries)
		analytics.GET("/devices", s.handlers.Analytics.Devices)
	}

	// Redirect endpoint: any verified hostname, no auth. Mounted last and
	// widest so it never shadows the API/health/metrics routes above.
	s.engine.GET("/:slug", s.handlers.Redirect.Redirect)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
