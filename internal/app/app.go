package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"shortcut/internal/config"
	"shortcut/pkg/logging"
)

// App is the top-level lifecycle for one deployment mode: either the HTTP
// data plane (redirect + analytics) or the background worker process
// (click log writer + rollup aggregator + retention + billing). The two
// never run in the same process.
type App struct {
	config       *config.Config
	logger       *slog.Logger
	providers    *ProviderContainer
	mode         DeploymentMode
	shutdownOnce sync.Once
}

// NewServer builds the HTTP data plane process.
func NewServer(cfg *config.Config) (*App, error) {
	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)

	core, err := ProvideCore(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize core: %w", err)
	}

	server, err := ProvideServer(core)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize server: %w", err)
	}

	return &App{
		mode:   ModeServer,
		config: cfg,
		logger: logger,
		providers: &ProviderContainer{
			Core:   core,
			Server: server,
			Mode:   ModeServer,
		},
	}, nil
}

// NewWorker builds the background worker process.
func NewWorker(cfg *config.Config) (*App, error) {
	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)

	core, err := ProvideCore(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize core: %w", err)
	}

	workerSet, err := ProvideWorkers(core)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize workers: %w", err)
	}

	return &App{
		mode:   ModeWorker,
		config: cfg,
		logger: logger,
		providers: &ProviderContainer{
			Core:    core,
			Workers: workerSet,
			Mode:    ModeWorker,
		},
	}, nil
}

// Start launches whichever deployment mode this App was built for.
func (a *App) Start() error {
	a.logger.Info("starting shortcut", "mode", a.mode)

	switch a.mode {
	case ModeServer:
		go func() {
			if err := a.providers.Server.HTTPServer.Start(); err != nil {
				a.logger.Error("http server failed unexpectedly", "error", err)
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()
				_ = a.Shutdown(ctx)
				os.Exit(1)
			}
		}()

	case ModeWorker:
		w := a.providers.Workers

		if err := w.ClickLogWriter.Start(context.Background()); err != nil {
			a.logger.Error("failed to start click log writer", "error", err)
			return err
		}
		a.logger.Info("click log writer started")

		w.Aggregator.Start()
		a.logger.Info("aggregator started")

		w.Retention.Start()
		a.logger.Info("retention worker started")

		w.BillingReporter.Start()
		a.logger.Info("billing reporter started")

		w.BillingReconciler.Start()
		a.logger.Info("billing reconciler started")
	}

	return nil
}

// Shutdown stops the running deployment mode exactly once.
func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.shutdownOnce.Do(func() {
		shutdownErr = a.doShutdown(ctx)
	})
	return shutdownErr
}

func (a *App) doShutdown(ctx context.Context) error {
	a.logger.Info("shutting down shortcut", "mode", a.mode)

	var wg sync.WaitGroup

	switch a.mode {
	case ModeServer:
		wg.Add(1)
		go func() {
			defer wg.Done()
			if a.providers.Server != nil && a.providers.Server.HTTPServer != nil {
				if err := a.providers.Server.HTTPServer.Shutdown(ctx); err != nil {
					a.logger.Error("failed to shutdown http server", "error", err)
				}
			}
		}()

	case ModeWorker:
		wg.Add(1)
		go func() {
			defer wg.Done()
			if w := a.providers.Workers; w != nil {
				w.ClickLogWriter.Stop()
				w.Aggregator.Stop()
				w.Retention.Stop()
				w.BillingReporter.Stop()
				w.BillingReconciler.Stop()
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		if a.providers != nil && a.providers.Core != nil {
			if err := a.providers.Core.Shutdown(); err != nil {
				a.logger.Error("failed to shutdown core", "error", err)
			}
		}
	}()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		a.logger.Info("shortcut shutdown completed")
		return nil
	case <-ctx.Done():
		a.logger.Warn("shutdown timeout exceeded, forcing shutdown")
		return ctx.Err()
	}
}

// Health returns the health status of the underlying connections.
func (a *App) Health() map[string]string {
	if a.providers != nil && a.providers.Core != nil {
		return a.providers.Core.HealthCheck()
	}
	return map[string]string{"status": "providers not initialized"}
}

// GetLogger returns the application logger.
func (a *App) GetLogger() *slog.Logger {
	return a.logger
}

// GetConfig returns the application configuration.
func (a *App) GetConfig() *config.Config {
	return a.config
}
