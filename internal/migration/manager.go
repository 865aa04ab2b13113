// Package migration wraps golang-migrate over the single Postgres database
// this service owns.
package migration

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"shortcut/internal/config"
	"shortcut/internal/infrastructure/database"
)

// Manager coordinates Postgres migrations.
type Manager struct {
	config   *config.Config
	logger   *slog.Logger
	runner   *migrate.Migrate
	postgres *database.PostgresDB
}

// NewManager creates a migration manager and opens the Postgres connection.
func NewManager(cfg *config.Config) (*Manager, error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	pg, err := database.NewPostgresDB(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize postgres database: %w", err)
	}

	m := &Manager{config: cfg, logger: logger, postgres: pg}
	if err := m.initRunner(); err != nil {
		return nil, fmt.Errorf("failed to initialize migration runner: %w", err)
	}

	logger.Info("migration manager initialized")
	return m, nil
}

func (m *Manager) initRunner() error {
	migrationsPath := m.migrationsPath()

	sqlDB := m.postgres.SqlDB

	driver, err := postgres.WithInstance(sqlDB, &postgres.Config{
		MigrationsTable: "schema_migrations",
		DatabaseName:    m.config.Database.Database,
	})
	if err != nil {
		return fmt.Errorf("failed to create postgres driver: %w", err)
	}

	runner, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", migrationsPath),
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migration runner: %w", err)
	}

	m.runner = runner
	m.logger.Info("postgres migration runner initialized", "migrations_path", migrationsPath)
	return nil
}

func (m *Manager) migrationsPath() string {
	if m.config.Database.MigrationsPath != "" {
		return m.config.Database.MigrationsPath
	}
	return "migrations"
}

// Up runs pending migrations. steps=0 applies everything pending.
func (m *Manager) Up(ctx context.Context, steps int, dryRun bool) error {
	if dryRun {
		m.logger.Info("dry run: would run migrations up", "steps", steps)
		return nil
	}
	m.logger.Info("running migrations up", "steps", steps)
	if steps == 0 {
		return ignoreNoChange(m.runner.Up())
	}
	return ignoreNoChange(m.runner.Steps(steps))
}

// Down reverts migrations. steps=0 reverts everything.
func (m *Manager) Down(ctx context.Context, steps int, dryRun bool) error {
	if dryRun {
		m.logger.Info("dry run: would run migrations down", "steps", steps)
		return nil
	}
	m.logger.Info("running migrations down", "steps", steps)
	if steps == 0 {
		return ignoreNoChange(m.runner.Down())
	}
	return ignoreNoChange(m.runner.Steps(-steps))
}

func ignoreNoChange(err error) error {
	if err == migrate.ErrNoChange {
		return nil
	}
	return err
}

// ShowStatus prints the current migration version to stdout for the CLI.
func (m *Manager) ShowStatus(ctx context.Context) error {
	version, dirty, err := m.runner.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	status := "clean"
	if dirty {
		status = "dirty"
	}

	fmt.Printf("Postgres migration status:\n")
	fmt.Printf("  current version: %d (%s)\n", version, status)
	fmt.Printf("  migrations path: %s\n", m.migrationsPath())
	if count := m.countMigrations(); count > 0 {
		fmt.Printf("  total migrations: %d\n", count)
	}
	return nil
}

// GetStatus returns the current migration state as a value.
func (m *Manager) GetStatus() Status {
	version, dirty, err := m.runner.Version()

	status := Status{
		CurrentVersion:  version,
		IsDirty:         dirty,
		MigrationsPath:  m.migrationsPath(),
		TotalMigrations: m.countMigrations(),
	}

	switch {
	case err != nil && err != migrate.ErrNilVersion:
		status.Status = "error"
		status.Error = err.Error()
	case dirty:
		status.Status = "dirty"
	default:
		status.Status = "healthy"
	}
	return status
}

// HealthCheck returns a JSON-friendly health summary.
func (m *Manager) HealthCheck() map[string]interface{} {
	status := m.GetStatus()
	health := map[string]interface{}{
		"status":          status.Status,
		"current_version": status.CurrentVersion,
		"dirty":           status.IsDirty,
	}
	if status.Error != "" {
		health["error"] = status.Error
	}
	return health
}

// AutoMigrate runs migrations up if the database config enables it.
func (m *Manager) AutoMigrate(ctx context.Context) error {
	if !m.CanAutoMigrate() {
		return fmt.Errorf("auto-migration is disabled")
	}
	m.logger.Info("starting auto-migration")
	if err := m.Up(ctx, 0, false); err != nil {
		return fmt.Errorf("auto-migration failed: %w", err)
	}
	m.logger.Info("auto-migration completed")
	return nil
}

// CanAutoMigrate reports whether the database config enables auto-migration.
func (m *Manager) CanAutoMigrate() bool {
	return m.config.Database.AutoMigrate
}

// Goto migrates to a specific version.
func (m *Manager) Goto(version uint) error {
	return ignoreNoChange(m.runner.Migrate(version))
}

// Force sets the migration version without running migrations, clearing a dirty state.
func (m *Manager) Force(version int) error {
	return m.runner.Force(version)
}

// Drop wipes the entire database, including schema_migrations.
func (m *Manager) Drop() error {
	return m.runner.Drop()
}

// Steps runs n migrations (negative n reverts).
func (m *Manager) Steps(n int) error {
	return ignoreNoChange(m.runner.Steps(n))
}

// CreateMigration scaffolds a new up/down migration file pair.
func (m *Manager) CreateMigration(name string) error {
	migrationsPath := m.migrationsPath()
	if err := os.MkdirAll(migrationsPath, 0o755); err != nil {
		return fmt.Errorf("failed to create migrations directory: %w", err)
	}

	timestamp := time.Now().Format("20060102150405")

	upFile := filepath.Join(migrationsPath, fmt.Sprintf("%s_%s.up.sql", timestamp, name))
	if err := os.WriteFile(upFile, []byte("-- Migration: "+name+"\n\n"), 0o644); err != nil {
		return fmt.Errorf("failed to create up migration file: %w", err)
	}

	downFile := filepath.Join(migrationsPath, fmt.Sprintf("%s_%s.down.sql", timestamp, name))
	if err := os.WriteFile(downFile, []byte("-- Rollback: "+name+"\n\n"), 0o644); err != nil {
		return fmt.Errorf("failed to create down migration file: %w", err)
	}

	fmt.Printf("migration files created:\n  up:   %s\n  down: %s\n", upFile, downFile)
	return nil
}

// Shutdown closes the migration runner and the underlying database connection.
func (m *Manager) Shutdown() error {
	m.logger.Info("shutting down migration manager")

	var lastErr error
	if m.runner != nil {
		if srcErr, dbErr := m.runner.Close(); srcErr != nil || dbErr != nil {
			if srcErr != nil {
				lastErr = srcErr
			} else {
				lastErr = dbErr
			}
			m.logger.Error("failed to close migration runner", "error", lastErr)
		}
	}
	if m.postgres != nil {
		if err := m.postgres.Close(); err != nil {
			m.logger.Error("failed to close postgres connection", "error", err)
			lastErr = err
		}
	}
	return lastErr
}

func (m *Manager) countMigrations() int {
	path := m.migrationsPath()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return 0
	}

	count := 0
	_ = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".up.sql") {
			count++
		}
		return nil
	})
	return count
}
