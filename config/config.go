package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/kosarica/quote-service/internal/catalog"
	"github.com/kosarica/quote-service/internal/notify"
	"github.com/kosarica/quote-service/internal/sweepers"
	"github.com/kosarica/quote-service/internal/telemetry"
	"github.com/kosarica/quote-service/internal/workers"
)

// Catalog sources
const (
	CatalogSourcePostgres = "postgres"
	CatalogSourceFile     = "file"
)

// Config holds the application configuration
type Config struct {
	Server    ServerConfig     `mapstructure:"server"`
	Database  DatabaseConfig   `mapstructure:"database"`
	Logging   LoggingConfig    `mapstructure:"logging"`
	Quoting   QuotingConfig    `mapstructure:"quoting"`
	Notify    notify.Config    `mapstructure:"notify"`
	Worker    WorkerConfig     `mapstructure:"worker"`
	Sweeper   SweeperConfig    `mapstructure:"sweeper"`
	Telemetry telemetry.Config `mapstructure:"telemetry"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port              int           `mapstructure:"port"`
	Host              string        `mapstructure:"host"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	InternalAPIKey    string        `mapstructure:"internal_api_key"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	MaxConnections  int           `mapstructure:"max_connections"`
	MinConnections  int           `mapstructure:"min_connections"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	Format  string `mapstructure:"format"`
	NoColor bool   `mapstructure:"no_color"`
}

// QuotingConfig holds the quote engine configuration
type QuotingConfig struct {
	SubmissionTTL time.Duration `mapstructure:"submission_ttl"`
	// CatalogSource is "postgres" or "file".
	CatalogSource string              `mapstructure:"catalog_source"`
	CatalogFile   string              `mapstructure:"catalog_file"`
	Cache         catalog.CacheConfig `mapstructure:",squash"`
}

type WorkerConfig struct {
	Enabled              bool `mapstructure:"enabled"`
	workers.WorkerConfig `mapstructure:",squash"`
}

type SweeperConfig struct {
	Enabled         bool `mapstructure:"enabled"`
	sweepers.Config `mapstructure:",squash"`
}

// Validate checks values that would otherwise fail late at runtime
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port: %d out of range", c.Server.Port))
	}
	if c.Quoting.SubmissionTTL <= 0 {
		errs = append(errs, errors.New("quoting.submission_ttl: must be positive"))
	}
	switch c.Quoting.CatalogSource {
	case CatalogSourcePostgres:
	case CatalogSourceFile:
		if c.Quoting.CatalogFile == "" {
			errs = append(errs, errors.New("quoting.catalog_file: required for file catalog source"))
		}
	default:
		errs = append(errs, fmt.Errorf("quoting.catalog_source: unknown source %q", c.Quoting.CatalogSource))
	}
	if err := c.Quoting.Cache.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("quoting: %w", err))
	}
	return errors.Join(errs...)
}

var globalConfig *Config

// Load loads the configuration from file, .env, and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	if err := loadEnvFile(); err != nil {
		log.Debug().Err(err).Msg(".env file not loaded")
	}

	v.SetEnvPrefix("QUOTE_SERVICE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvVars(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	globalConfig = &cfg
	return &cfg, nil
}

// loadEnvFile loads the first .env found. Variables already set win.
func loadEnvFile() error {
	for _, dir := range []string{".", "./config"} {
		path := filepath.Join(dir, ".env")
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
		return nil
	}
	return errors.New("no .env file found")
}

func bindEnvVars(v *viper.Viper) {
	_ = v.BindEnv("database.url", "DATABASE_URL")
	_ = v.BindEnv("server.port", "PORT")
	_ = v.BindEnv("server.host", "HOST")
	_ = v.BindEnv("server.internal_api_key", "INTERNAL_API_KEY")
	_ = v.BindEnv("logging.level", "LOG_LEVEL")
	_ = v.BindEnv("notify.webhook_url", "CRM_WEBHOOK_URL")
	_ = v.BindEnv("notify.secret", "CRM_WEBHOOK_SECRET")
	_ = v.BindEnv("telemetry.endpoint", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.internal_api_key", "")
	v.SetDefault("server.requests_per_second", 50)
	v.SetDefault("server.burst", 100)

	v.SetDefault("database.url", "")
	v.SetDefault("database.max_connections", 25)
	v.SetDefault("database.min_connections", 5)
	v.SetDefault("database.max_conn_lifetime", time.Hour)
	v.SetDefault("database.max_conn_idle_time", 30*time.Minute)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.no_color", false)

	cache := catalog.DefaultCacheConfig()
	v.SetDefault("quoting.submission_ttl", 30*24*time.Hour)
	v.SetDefault("quoting.catalog_source", CatalogSourcePostgres)
	v.SetDefault("quoting.catalog_file", "")
	v.SetDefault("quoting.cache_ttl", cache.TTL)
	v.SetDefault("quoting.cache_load_timeout", cache.LoadTimeout)
	v.SetDefault("quoting.warmup_concurrency", cache.WarmupConcurrency)

	n := notify.DefaultConfig()
	v.SetDefault("notify.webhook_url", "")
	v.SetDefault("notify.secret", "")
	v.SetDefault("notify.timeout", n.Timeout)
	v.SetDefault("notify.queue", true)
	v.SetDefault("notify.retry.requests_per_second", n.Retry.RequestsPerSecond)
	v.SetDefault("notify.retry.burst", n.Retry.Burst)
	v.SetDefault("notify.retry.max_retries", n.Retry.MaxRetries)
	v.SetDefault("notify.retry.initial_backoff", n.Retry.InitialBackoff)
	v.SetDefault("notify.retry.max_backoff", n.Retry.MaxBackoff)

	w := workers.DefaultWorkerConfig()
	v.SetDefault("worker.enabled", true)
	v.SetDefault("worker.id", w.WorkerID)
	v.SetDefault("worker.task_types", w.TaskTypes)
	v.SetDefault("worker.max_tasks", w.MaxTasks)
	v.SetDefault("worker.num_workers", w.NumWorkers)
	v.SetDefault("worker.poll_delay", w.PollDelay)

	s := sweepers.DefaultConfig()
	v.SetDefault("sweeper.enabled", true)
	v.SetDefault("sweeper.expiry_interval", s.ExpiryInterval)
	v.SetDefault("sweeper.task_queue_interval", s.TaskQueueInterval)
	v.SetDefault("sweeper.orphan_timeout", s.OrphanTimeout)
	v.SetDefault("sweeper.task_retention_days", s.TaskRetentionDays)

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.endpoint", "")
	v.SetDefault("telemetry.service_name", telemetry.DefaultServiceName)
	v.SetDefault("telemetry.environment", "production")
}

// Get returns the global configuration
func Get() *Config {
	return globalConfig
}

// GetDatabaseURL returns the database URL from config or environment
func GetDatabaseURL() string {
	if cfg := Get(); cfg != nil && cfg.Database.URL != "" {
		return cfg.Database.URL
	}
	return os.Getenv("DATABASE_URL")
}
