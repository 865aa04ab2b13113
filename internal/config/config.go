// Package config provides configuration management for the shortcut data plane.
//
// Configuration is loaded from multiple sources in this order:
// 1. Configuration files (YAML)
// 2. Environment variables
// 3. Defaults set in code
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	App         AppConfig         `mapstructure:"app"`
	Environment string            `mapstructure:"environment"`
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	Queue       QueueConfig       `mapstructure:"queue"`
	Counter     CounterConfig     `mapstructure:"counter"`
	Billing     BillingConfig     `mapstructure:"billing"`
	Retention   RetentionConfig   `mapstructure:"retention"`
	Aggregation AggregationConfig `mapstructure:"aggregation"`
	PlanCache   PlanCacheConfig   `mapstructure:"plan_cache"`
	Workers     WorkersConfig     `mapstructure:"workers"`
}

// AppConfig contains application-level configuration.
type AppConfig struct {
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`
}

// ServerConfig contains HTTP server configuration for the redirect and analytics data plane.
type ServerConfig struct {
	Host               string        `mapstructure:"host"`
	Port               int           `mapstructure:"port"`
	Environment        string        `mapstructure:"environment"`
	ReadTimeout        time.Duration `mapstructure:"read_timeout"`
	WriteTimeout       time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout    time.Duration `mapstructure:"shutdown_timeout"`
	MaxRequestSize     int64         `mapstructure:"max_request_size"`
	TrustedProxies     []string      `mapstructure:"trusted_proxies"`
	CORSAllowedOrigins []string      `mapstructure:"cors_allowed_origins"`
}

// DatabaseConfig contains PostgreSQL database configuration.
type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MigrationsPath  string        `mapstructure:"migrations_path"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

// RedisConfig contains Redis configuration, used both for the click-events stream and the aggregator's job lease.
type RedisConfig struct {
	URL          string        `mapstructure:"url"`
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Password     string        `mapstructure:"password"`
	Database     int           `mapstructure:"database"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	MaxRetries   int           `mapstructure:"max_retries"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, text
	Output string `mapstructure:"output"` // stdout, stderr
}

// QueueConfig contains the Redis Streams click-events queue configuration.
type QueueConfig struct {
	StreamName       string        `mapstructure:"stream_name"`
	ConsumerGroup    string        `mapstructure:"consumer_group"`
	ConsumerID       string        `mapstructure:"consumer_id"`
	BatchSize        int           `mapstructure:"batch_size"`
	BlockDuration    time.Duration `mapstructure:"block_duration"`
	MaxRetries       int           `mapstructure:"max_retries"`
	RetryBackoff     time.Duration `mapstructure:"retry_backoff"`
	StreamMaxLength  int64         `mapstructure:"stream_max_length"`
	DLQMaxLength     int64         `mapstructure:"dlq_max_length"`
	DLQRetentionDays int           `mapstructure:"dlq_retention_days"`
}

// CounterConfig contains the workspace click counter's plan-dependent thresholds.
type CounterConfig struct {
	FreeMonthlyCap        int64 `mapstructure:"free_monthly_cap"`
	ProIncludedClicks     int64 `mapstructure:"pro_included_clicks"`
	ProOverageUnitClicks  int64 `mapstructure:"pro_overage_unit_clicks"`
}

// BillingConfig contains the billing reporter/reconciler overage pricing and tolerance.
type BillingConfig struct {
	OverageUnitPriceCents   int64 `mapstructure:"overage_unit_price_cents"`
	ReconciliationTolerance int64 `mapstructure:"reconciliation_tolerance_clicks"`
}

// RetentionConfig contains the raw click log retention job's batch parameters.
// RetentionMonthsPro is the Pro tier's logical analytics horizon, served from
// rollups; the physical raw-log horizon is RetentionDaysFree for every plan.
type RetentionConfig struct {
	RetentionDaysFree  int `mapstructure:"retention_days_free"`
	RetentionMonthsPro int `mapstructure:"retention_months_pro"`
	BatchSize          int `mapstructure:"batch_size"`
}

// AggregationConfig contains the rollup aggregator's batching parameters.
type AggregationConfig struct {
	BatchSize int `mapstructure:"batch_size"`
}

// PlanCacheConfig contains the in-process workspace plan lookup cache
// parameters. TTLSeconds is a bare integer so the env var carries no unit
// suffix.
type PlanCacheConfig struct {
	TTLSeconds int `mapstructure:"ttl_seconds"`
	MaxKeys    int `mapstructure:"max_keys"`
}

// TTL returns the plan cache entry lifetime as a duration.
func (pc *PlanCacheConfig) TTL() time.Duration {
	return time.Duration(pc.TTLSeconds) * time.Second
}

// WorkersConfig contains scheduling intervals for the background worker
// process. Each scheduled job runs off a ticker rather than a cron
// expression; the defaults give aggregation a 5-minute cadence and the
// retention/report/reconciliation jobs a daily one.
type WorkersConfig struct {
	AggregationIntervalSeconds    int           `mapstructure:"aggregation_interval_seconds"`
	RetentionIntervalSeconds      int           `mapstructure:"retention_interval_seconds"`
	BillingReportIntervalSeconds  int           `mapstructure:"billing_report_interval_seconds"`
	ReconciliationIntervalSeconds int           `mapstructure:"reconciliation_interval_seconds"`
	DetachedTaskDeadline          time.Duration `mapstructure:"detached_task_deadline"`
}

// Validate validates the complete configuration, section by section.
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}
	if err := c.Database.Validate(); err != nil {
		return fmt.Errorf("database config: %w", err)
	}
	if err := c.Redis.Validate(); err != nil {
		return fmt.Errorf("redis config: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}
	if err := c.Queue.Validate(); err != nil {
		return fmt.Errorf("queue config: %w", err)
	}
	if err := c.Counter.Validate(); err != nil {
		return fmt.Errorf("counter config: %w", err)
	}
	if err := c.Billing.Validate(); err != nil {
		return fmt.Errorf("billing config: %w", err)
	}
	return nil
}

// Validate validates server configuration.
func (sc *ServerConfig) Validate() error {
	if sc.Port <= 0 || sc.Port > 65535 {
		return fmt.Errorf("invalid port: %d (must be 1-65535)", sc.Port)
	}
	if sc.ReadTimeout <= 0 {
		return errors.New("read_timeout must be positive")
	}
	if sc.WriteTimeout <= 0 {
		return errors.New("write_timeout must be positive")
	}
	return nil
}

// Validate validates PostgreSQL database configuration.
func (dc *DatabaseConfig) Validate() error {
	if dc.URL != "" {
		if dc.MaxOpenConns < 0 {
			return errors.New("max_open_conns cannot be negative")
		}
		if dc.MaxIdleConns < 0 {
			return errors.New("max_idle_conns cannot be negative")
		}
		return nil
	}

	if dc.Host == "" {
		return errors.New("either url or host must be provided")
	}
	if dc.Port <= 0 || dc.Port > 65535 {
		return fmt.Errorf("invalid port: %d (must be 1-65535)", dc.Port)
	}
	if dc.User == "" {
		return errors.New("user cannot be empty when using individual fields")
	}
	if dc.Database == "" {
		return errors.New("database name cannot be empty when using individual fields")
	}
	return nil
}

// Validate validates Redis configuration.
func (rc *RedisConfig) Validate() error {
	if rc.URL != "" {
		if rc.PoolSize < 0 {
			return errors.New("pool_size cannot be negative")
		}
		return nil
	}

	if rc.Host == "" {
		return errors.New("either url or host must be provided for redis")
	}
	if rc.Port <= 0 || rc.Port > 65535 {
		return fmt.Errorf("invalid redis port: %d (must be 1-65535)", rc.Port)
	}
	if rc.Database < 0 || rc.Database > 15 {
		return fmt.Errorf("invalid redis database number: %d (must be 0-15)", rc.Database)
	}
	return nil
}

// Validate validates logging configuration.
func (lc *LoggingConfig) Validate() error {
	validLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLevels, lc.Level) {
		return fmt.Errorf("invalid log level: %s (must be one of %v)", lc.Level, validLevels)
	}

	validFormats := []string{"json", "text"}
	if !contains(validFormats, lc.Format) {
		return fmt.Errorf("invalid log format: %s (must be one of %v)", lc.Format, validFormats)
	}

	validOutputs := []string{"stdout", "stderr"}
	if !contains(validOutputs, lc.Output) {
		return fmt.Errorf("invalid log output: %s (must be one of %v)", lc.Output, validOutputs)
	}

	return nil
}

// Validate validates the click-events queue configuration.
func (qc *QueueConfig) Validate() error {
	if qc.StreamName == "" {
		return errors.New("stream_name cannot be empty")
	}
	if qc.ConsumerGroup == "" {
		return errors.New("consumer_group cannot be empty")
	}
	if qc.BatchSize <= 0 {
		return errors.New("batch_size must be positive")
	}
	if qc.MaxRetries < 0 {
		return errors.New("max_retries cannot be negative")
	}
	return nil
}

// Validate validates the workspace counter plan thresholds.
func (cc *CounterConfig) Validate() error {
	if cc.FreeMonthlyCap <= 0 {
		return errors.New("free_monthly_cap must be positive")
	}
	if cc.ProIncludedClicks <= 0 {
		return errors.New("pro_included_clicks must be positive")
	}
	if cc.ProOverageUnitClicks <= 0 {
		return errors.New("pro_overage_unit_clicks must be positive")
	}
	return nil
}

// Validate validates the billing overage pricing configuration.
func (bc *BillingConfig) Validate() error {
	if bc.OverageUnitPriceCents < 0 {
		return errors.New("overage_unit_price_cents cannot be negative")
	}
	if bc.ReconciliationTolerance < 0 {
		return errors.New("reconciliation_tolerance_clicks cannot be negative")
	}
	return nil
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}

// Load reads configuration from an optional config file, environment variables, and defaults,
// in that order of precedence (env vars win over file, file wins over defaults).
func Load() (*Config, error) {
	// Load .env file if present (optional, local development convenience).
	_ = godotenv.Load(".env")

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")
	viper.AddConfigPath("/etc/shortcut")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	bindEnv("database.url", "DATABASE_URL")
	bindEnv("database.host", "DB_HOST")
	bindEnv("database.port", "DB_PORT")
	bindEnv("database.user", "DB_USER")
	bindEnv("database.password", "DB_PASSWORD")
	bindEnv("database.database", "DB_NAME")
	bindEnv("database.ssl_mode", "DB_SSLMODE")
	bindEnv("database.auto_migrate", "DB_AUTO_MIGRATE")
	bindEnv("database.migrations_path", "DATABASE_MIGRATIONS_PATH")

	bindEnv("redis.url", "REDIS_URL")

	bindEnv("server.port", "PORT")
	bindEnv("server.environment", "ENVIRONMENT")
	bindEnv("server.cors_allowed_origins", "CORS_ALLOWED_ORIGINS")

	bindEnv("logging.level", "LOG_LEVEL")
	bindEnv("logging.format", "LOG_FORMAT")

	bindEnv("queue.stream_name", "CLICK_STREAM_NAME")
	bindEnv("queue.consumer_group", "CLICK_STREAM_CONSUMER_GROUP")
	bindEnv("queue.batch_size", "CLICK_STREAM_BATCH_SIZE")

	bindEnv("counter.free_monthly_cap", "FREE_MONTHLY_CAP")
	bindEnv("counter.pro_included_clicks", "PRO_INCLUDED_CLICKS")
	bindEnv("counter.pro_overage_unit_clicks", "PRO_OVERAGE_UNIT_CLICKS")

	bindEnv("billing.overage_unit_price_cents", "PRO_OVERAGE_UNIT_PRICE")
	bindEnv("billing.reconciliation_tolerance_clicks", "RECONCILIATION_TOLERANCE_CLICKS")

	bindEnv("retention.retention_days_free", "RETENTION_DAYS_FREE")
	bindEnv("retention.retention_months_pro", "RETENTION_MONTHS_PRO")
	bindEnv("retention.batch_size", "RETENTION_BATCH_SIZE")

	bindEnv("aggregation.batch_size", "AGGREGATION_BATCH_SIZE")

	bindEnv("plan_cache.ttl_seconds", "PLAN_CACHE_TTL_SECONDS")

	bindEnv("workers.detached_task_deadline", "DETACHED_TASK_DEADLINE")

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// bindEnv binds a viper key to an environment variable, ignoring the error BindEnv
// only ever returns for an invalid (empty) key list.
func bindEnv(key, envVar string) {
	_ = viper.BindEnv(key, envVar)
}

func setDefaults() {
	viper.SetDefault("app.name", "shortcut")
	viper.SetDefault("app.version", "1.0.0")

	viper.SetDefault("environment", "development")

	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.environment", "development")
	viper.SetDefault("server.read_timeout", "5s")
	viper.SetDefault("server.write_timeout", "5s")
	viper.SetDefault("server.shutdown_timeout", "30s")
	viper.SetDefault("server.max_request_size", 1<<20) // 1MB, redirect/analytics requests carry no bodies of note
	viper.SetDefault("server.cors_allowed_origins", []string{})

	viper.SetDefault("database.url", "")
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "shortcut")
	viper.SetDefault("database.database", "shortcut")
	viper.SetDefault("database.ssl_mode", "disable")
	viper.SetDefault("database.auto_migrate", false)
	viper.SetDefault("database.migrations_path", "migrations")
	viper.SetDefault("database.max_open_conns", 50)
	viper.SetDefault("database.max_idle_conns", 10)
	viper.SetDefault("database.conn_max_lifetime", "1h")
	viper.SetDefault("database.conn_max_idle_time", "15m")

	viper.SetDefault("redis.url", "")
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.database", 0)
	viper.SetDefault("redis.pool_size", 20)
	viper.SetDefault("redis.min_idle_conns", 5)
	viper.SetDefault("redis.idle_timeout", "5m")
	viper.SetDefault("redis.max_retries", 3)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.output", "stdout")

	viper.SetDefault("queue.stream_name", "click-events")
	viper.SetDefault("queue.consumer_group", "click-log-writer")
	viper.SetDefault("queue.consumer_id", "")
	viper.SetDefault("queue.batch_size", 100)
	viper.SetDefault("queue.block_duration", "2s")
	viper.SetDefault("queue.max_retries", 3)
	viper.SetDefault("queue.retry_backoff", "500ms")
	viper.SetDefault("queue.stream_max_length", 1000000)
	viper.SetDefault("queue.dlq_max_length", 10000)
	viper.SetDefault("queue.dlq_retention_days", 7)

	// Free plan: 5,000 clicks per calendar month. Pro plan: 2,000,000 clicks
	// included per billing period, billed in blocks of 100,000 beyond that.
	viper.SetDefault("counter.free_monthly_cap", 5000)
	viper.SetDefault("counter.pro_included_clicks", 2000000)
	viper.SetDefault("counter.pro_overage_unit_clicks", 100000)

	// 100 smallest-currency-units per overage block.
	viper.SetDefault("billing.overage_unit_price_cents", 100)
	viper.SetDefault("billing.reconciliation_tolerance_clicks", 1000)

	viper.SetDefault("retention.retention_days_free", 30)
	viper.SetDefault("retention.retention_months_pro", 24)
	viper.SetDefault("retention.batch_size", 5000)

	viper.SetDefault("aggregation.batch_size", 1000)

	viper.SetDefault("plan_cache.ttl_seconds", 60)
	viper.SetDefault("plan_cache.max_keys", 10000)

	viper.SetDefault("workers.aggregation_interval_seconds", 300) // */5 * * * *
	viper.SetDefault("workers.retention_interval_seconds", 86400) // 0 3 * * *
	viper.SetDefault("workers.billing_report_interval_seconds", 86400) // 0 4 * * *
	viper.SetDefault("workers.reconciliation_interval_seconds", 86400) // 0 5 * * *
	viper.SetDefault("workers.detached_task_deadline", "5s")
}

// GetServerAddress returns the host:port address the HTTP server should listen on.
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// GetDatabaseURL returns the PostgreSQL connection URL.
func (c *Config) GetDatabaseURL() string {
	if c.Database.URL != "" {
		return c.Database.URL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User, c.Database.Password, c.Database.Host,
		c.Database.Port, c.Database.Database, c.Database.SSLMode)
}

// GetRedisURL returns the Redis connection URL.
func (c *Config) GetRedisURL() string {
	if c.Redis.URL != "" {
		return c.Redis.URL
	}
	if c.Redis.Password != "" {
		return fmt.Sprintf("redis://:%s@%s:%d/%d",
			c.Redis.Password, c.Redis.Host, c.Redis.Port, c.Redis.Database)
	}
	return fmt.Sprintf("redis://%s:%d/%d", c.Redis.Host, c.Redis.Port, c.Redis.Database)
}

// IsDevelopment returns true if running in the development environment.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

// IsProduction returns true if running in the production environment.
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}
