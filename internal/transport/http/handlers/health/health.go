package health

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"shortcut/internal/config"
	"shortcut/internal/infrastructure/database"
)

// Handler handles health check endpoints.
type Handler struct {
	config    *config.Config
	logger    *slog.Logger
	postgres  *database.PostgresDB
	redis     *database.RedisDB
	startTime time.Time
}

// NewHandler creates a new health handler.
func NewHandler(config *config.Config, logger *slog.Logger, postgres *database.PostgresDB, redis *database.RedisDB) *Handler {
	return &Handler{
		config:    config,
		logger:    logger,
		postgres:  postgres,
		redis:     redis,
		startTime: time.Now(),
	}
}

// HealthResponse is the body returned by every health endpoint.
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp string                 `json:"timestamp"`
	Version   string                 `json:"version,omitempty"`
	Uptime    string                 `json:"uptime"`
	Checks    map[string]HealthCheck `json:"checks,omitempty"`
}

// HealthCheck is a single dependency's check result.
type HealthCheck struct {
	Status      string `json:"status"`
	Message     string `json:"message,omitempty"`
	LastChecked string `json:"last_checked"`
	Duration    string `json:"duration,omitempty"`
}

// Check reports liveness without touching any dependency.
func (h *Handler) Check(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   h.config.App.Version,
		Uptime:    time.Since(h.startTime).String(),
	})
}

// Ready reports whether the service and its dependencies (Postgres, Redis)
// are ready to serve traffic.
func (h *Handler) Ready(c *gin.Context) {
	checks := make(map[string]HealthCheck)
	overallStatus := "healthy"
	statusCode := http.StatusOK

	dbCheck := h.checkDatabase()
	checks["database"] = dbCheck
	if dbCheck.Status != "healthy" {
		overallStatus = "unhealthy"
		statusCode = http.StatusServiceUnavailable
	}

	redisCheck := h.checkRedis()
	checks["redis"] = redisCheck
	if redisCheck.Status != "healthy" {
		overallStatus = "unhealthy"
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, HealthResponse{
		Status:    overallStatus,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   h.config.App.Version,
		Uptime:    time.Since(h.startTime).String(),
		Checks:    checks,
	})
}

// Live reports process liveness only.
func (h *Handler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "alive",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Uptime:    time.Since(h.startTime).String(),
	})
}

func (h *Handler) checkDatabase() HealthCheck {
	start := time.Now()
	if err := h.postgres.Health(); err != nil {
		return HealthCheck{
			Status:      "unhealthy",
			Message:     err.Error(),
			LastChecked: time.Now().UTC().Format(time.RFC3339),
			Duration:    time.Since(start).String(),
		}
	}
	return HealthCheck{
		Status:      "healthy",
		Message:     "database connection is healthy",
		LastChecked: time.Now().UTC().Format(time.RFC3339),
		Duration:    time.Since(start).String(),
	}
}

func (h *Handler) checkRedis() HealthCheck {
	start := time.Now()
	if err := h.redis.Health(); err != nil {
		return HealthCheck{
			Status:      "unhealthy",
			Message:     err.Error(),
			LastChecked: time.Now().UTC().Format(time.RFC3339),
			Duration:    time.Since(start).String(),
		}
	}
	return HealthCheck{
		Status:      "healthy",
		Message:     "redis connection is healthy",
		LastChecked: time.Now().UTC().Format(time.RFC3339),
		Duration:    time.Since(start).String(),
	}
}
