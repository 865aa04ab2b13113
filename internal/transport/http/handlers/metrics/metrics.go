package metrics

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"shortcut/internal/config"
)

// Handler handles the Prometheus metrics endpoint.
type Handler struct {
	config *config.Config
	logger *slog.Logger
}

// NewHandler creates a new metrics handler.
func NewHandler(config *config.Config, logger *slog.Logger) *Handler {
	return &Handler{
		config: config,
		logger: logger,
	}
}

// Handler serves the Prometheus scrape endpoint.
func (h *Handler) Handler(c *gin.Context) {
	promhttp.Handler().ServeHTTP(c.Writer, c.Request)
}
