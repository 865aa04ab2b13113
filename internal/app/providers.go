package app

import (
	"fmt"
	"log/slog"
	"time"

	"shortcut/internal/config"
	analyticsService "shortcut/internal/core/services/analytics"
	counterService "shortcut/internal/core/services/counter"
	"shortcut/internal/core/services/plancache"
	"shortcut/internal/core/services/resolver"
	"shortcut/internal/core/domain/billing"
	"shortcut/internal/core/domain/catalog"
	clickdomain "shortcut/internal/core/domain/click"
	"shortcut/internal/core/domain/counter"
	"shortcut/internal/core/domain/rollup"
	"shortcut/internal/infrastructure/database"
	"shortcut/internal/infrastructure/invoicing"
	"shortcut/internal/infrastructure/queue"
	billingRepo "shortcut/internal/infrastructure/repository/billing"
	catalogRepo "shortcut/internal/infrastructure/repository/catalog"
	clickRepo "shortcut/internal/infrastructure/repository/click"
	counterRepo "shortcut/internal/infrastructure/repository/counter"
	rollupRepo "shortcut/internal/infrastructure/repository/rollup"
	"shortcut/internal/transport/http"
	"shortcut/internal/transport/http/handlers"
	"shortcut/internal/workers"
)

// DeploymentMode names which process this build is running as. The redirect
// and analytics data plane (Server) and the background click/rollup/billing
// jobs (Worker) share the same repositories and config but never the same
// process.
type DeploymentMode string

const (
	ModeServer DeploymentMode = "server"
	ModeWorker DeploymentMode = "worker"
)

// RepositoryContainer aggregates every storage-layer repository.
type RepositoryContainer struct {
	Workspaces   catalog.WorkspaceRepository
	Domains      catalog.DomainRepository
	Links        catalog.LinkRepository
	Counters     counter.Repository
	Clicks       clickdomain.Repository
	Rollups      rollup.Repository
	UsagePeriods billing.UsagePeriodRepository
}

// CoreContainer holds every connection and repository both deployment
// modes build from, regardless of which one actually runs.
type CoreContainer struct {
	Config   *config.Config
	Logger   *slog.Logger
	Postgres *database.PostgresDB
	Redis    *database.RedisDB
	Repos    *RepositoryContainer
}

// ProviderContainer is the full dependency graph for one running process.
type ProviderContainer struct {
	Core    *CoreContainer
	Server  *ServerContainer // nil in worker mode
	Workers *WorkerContainer // nil in server mode
	Mode    DeploymentMode
}

// ServerContainer holds the HTTP server and its handlers.
type ServerContainer struct {
	HTTPServer *http.Server
}

// WorkerContainer holds every background job the worker process runs.
type WorkerContainer struct {
	ClickLogWriter    *workers.ClickLogWriter
	Aggregator        *workers.AggregatorWorker
	Retention         *workers.RetentionWorker
	BillingReporter   *workers.BillingReporterWorker
	BillingReconciler *workers.BillingReconcilerWorker
}

// ProvideCore opens the Postgres and Redis connections and builds every
// repository. Both ProvideServer and ProvideWorkers start from this.
func ProvideCore(cfg *config.Config, logger *slog.Logger) (*CoreContainer, error) {
	postgres, err := database.NewPostgresDB(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}

	redisDB, err := database.NewRedisDB(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}

	db := postgres.DB

	return &CoreContainer{
		Config:   cfg,
		Logger:   logger,
		Postgres: postgres,
		Redis:    redisDB,
		Repos: &RepositoryContainer{
			Workspaces:   catalogRepo.NewWorkspaceRepository(db),
			Domains:      catalogRepo.NewDomainRepository(db),
			Links:        catalogRepo.NewLinkRepository(db),
			Counters:     counterRepo.NewRepository(db),
			Clicks:       clickRepo.NewRepository(db),
			Rollups:      rollupRepo.NewRepository(db),
			UsagePeriods: billingRepo.NewRepository(db),
		},
	}, nil
}

// Shutdown closes every connection the core opened.
func (c *CoreContainer) Shutdown() error {
	var lastErr error
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			lastErr = err
		}
	}
	if c.Postgres != nil {
		if err := c.Postgres.Close(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// HealthCheck reports connection health for both databases.
func (c *CoreContainer) HealthCheck() map[string]string {
	status := map[string]string{"status": "healthy"}
	if err := c.Postgres.Health(); err != nil {
		status["postgres"] = err.Error()
		status["status"] = "unhealthy"
	} else {
		status["postgres"] = "healthy"
	}
	if err := c.Redis.Health(); err != nil {
		status["redis"] = err.Error()
		status["status"] = "unhealthy"
	} else {
		status["redis"] = "healthy"
	}
	return status
}

// ProvideServer wires the redirect and analytics HTTP surface.
func ProvideServer(core *CoreContainer) (*ServerContainer, error) {
	cfg := core.Config
	repos := core.Repos

	resolverSvc := resolver.New(repos.Domains, repos.Links)
	counters := counterService.NewService(repos.Counters, core.Logger)
	plans := plancache.New(repos.Workspaces, cfg.PlanCache.TTL(), cfg.PlanCache.MaxKeys)
	publisher := queue.NewClickPublisher(core.Redis, cfg.Queue.StreamName, cfg.Queue.StreamMaxLength)
	analyticsSvc := analyticsService.NewService(repos.Rollups, repos.Links, core.Logger)

	handlerSet := handlers.NewHandlers(
		cfg,
		core.Logger,
		core.Postgres,
		core.Redis,
		resolverSvc,
		plans,
		counters,
		publisher,
		analyticsSvc,
	)

	return &ServerContainer{
		HTTPServer: http.NewServer(cfg, core.Logger, handlerSet),
	}, nil
}

// ProvideWorkers wires the Click Log Writer and the four scheduled jobs.
func ProvideWorkers(core *CoreContainer) (*WorkerContainer, error) {
	cfg := core.Config
	repos := core.Repos

	counters := counterService.NewService(repos.Counters, core.Logger)
	invoices := invoicing.New(core.Logger)

	clickLogWriter := workers.NewClickLogWriter(core.Redis, repos.Clicks, core.Logger, workers.ClickLogWriterConfig{
		StreamName:       cfg.Queue.StreamName,
		ConsumerGroup:    cfg.Queue.ConsumerGroup,
		ConsumerID:       cfg.Queue.ConsumerID,
		BatchSize:        cfg.Queue.BatchSize,
		BlockDuration:    cfg.Queue.BlockDuration,
		MaxRetries:       cfg.Queue.MaxRetries,
		RetryBackoff:     cfg.Queue.RetryBackoff,
		DLQMaxLength:     cfg.Queue.DLQMaxLength,
		DLQRetentionDays: cfg.Queue.DLQRetentionDays,
	})

	aggregationInterval := time.Duration(cfg.Workers.AggregationIntervalSeconds) * time.Second
	aggregatorLease := database.NewJobLease(core.Redis, "shortcut:lease:aggregator", 2*aggregationInterval)

	aggregator := workers.NewAggregatorWorker(
		repos.Clicks,
		repos.Rollups,
		aggregatorLease,
		core.Logger,
		aggregationInterval,
		cfg.Aggregation.BatchSize,
	)

	retention := workers.NewRetentionWorker(
		repos.Clicks,
		core.Logger,
		time.Duration(cfg.Workers.RetentionIntervalSeconds)*time.Second,
		cfg.Retention.RetentionDaysFree,
		cfg.Retention.BatchSize,
	)

	reporter := workers.NewBillingReporterWorker(
		repos.Workspaces,
		counters,
		repos.UsagePeriods,
		invoices,
		core.Logger,
		time.Duration(cfg.Workers.BillingReportIntervalSeconds)*time.Second,
		cfg.Counter.ProIncludedClicks,
		cfg.Counter.ProOverageUnitClicks,
		cfg.Billing.OverageUnitPriceCents,
	)

	reconciler := workers.NewBillingReconcilerWorker(
		repos.UsagePeriods,
		counters,
		core.Logger,
		time.Duration(cfg.Workers.ReconciliationIntervalSeconds)*time.Second,
		cfg.Billing.ReconciliationTolerance,
	)

	return &WorkerContainer{
		ClickLogWriter:    clickLogWriter,
		Aggregator:        aggregator,
		Retention:         retention,
		BillingReporter:   reporter,
		BillingReconciler: reconciler,
	}, nil
}
