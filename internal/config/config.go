package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mkowalczyk/shop-exporter/internal/events"
	"github.com/mkowalczyk/shop-exporter/internal/notifier"
)

const (
	// MinPort is the minimum valid port number
	MinPort = 1
	// MaxPort is the maximum valid port number
	MaxPort = 65535
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig    `yaml:"server"`
	Database DatabaseConfig  `yaml:"database"`
	Exports  ExportsConfig   `yaml:"exports"`
	Worker   WorkerConfig    `yaml:"worker"`
	Email    notifier.Config `yaml:"email"`
	Events   events.Config   `yaml:"events"`
	Metrics  MetricsConfig   `yaml:"metrics"`
	Logging  LoggingConfig   `yaml:"logging"`
	App      AppConfig       `yaml:"app"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig holds PostgreSQL connection configuration
type DatabaseConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Database        string        `yaml:"database"`
	SSLMode         string        `yaml:"sslmode"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
}

// ExportsConfig holds export file storage and download settings
type ExportsConfig struct {
	UploadsDir         string `yaml:"uploads_dir"`
	DownloadBaseURL    string `yaml:"download_base_url"`
	DownloadExpiryDays int    `yaml:"download_expiry_days"`
	TermsMetaKey       string `yaml:"terms_meta_key"`
}

// WorkerConfig holds worker service tuning
type WorkerConfig struct {
	BatchSize        int           `yaml:"batch_size"`
	MaxJobsPerTick   int           `yaml:"max_jobs_per_tick"`
	TickBudget       time.Duration `yaml:"tick_budget"`
	ExportTickSpec   string        `yaml:"export_tick_spec"`
	ScheduleTickSpec string        `yaml:"schedule_tick_spec"`
	PurgeTickSpec    string        `yaml:"purge_tick_spec"`
	PurgeRetention   time.Duration `yaml:"purge_retention"`
	ShutdownTimeout  time.Duration `yaml:"shutdown_timeout"`
}

// MetricsConfig holds the Prometheus endpoint settings for the worker
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level            string `yaml:"level"`
	Format           string `yaml:"format"`
	Output           string `yaml:"output"`
	EnableCaller     bool   `yaml:"enable_caller"`
	EnableStackTrace bool   `yaml:"enable_stack_trace"`
}

// AppConfig holds application metadata
type AppConfig struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Environment string `yaml:"environment"`
}

// Load reads and parses the configuration file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &config, nil
}

// ValidateAPIConfig checks the fields the API service depends on
func (c *Config) ValidateAPIConfig() error {
	if c.Server.Port < MinPort || c.Server.Port > MaxPort {
		return fmt.Errorf("invalid server port: %d (must be between %d and %d)", c.Server.Port, MinPort, MaxPort)
	}

	if err := c.validateDatabase(); err != nil {
		return err
	}

	if c.Exports.UploadsDir == "" {
		return fmt.Errorf("exports uploads_dir is required")
	}

	if c.Exports.DownloadExpiryDays <= 0 {
		return fmt.Errorf("exports download_expiry_days must be greater than 0")
	}

	return nil
}

// ValidateWorkerConfig checks the fields the worker service depends on
func (c *Config) ValidateWorkerConfig() error {
	if err := c.validateDatabase(); err != nil {
		return err
	}

	if c.Exports.UploadsDir == "" {
		return fmt.Errorf("exports uploads_dir is required")
	}

	if c.Worker.BatchSize <= 0 {
		return fmt.Errorf("worker batch_size must be greater than 0")
	}

	if c.Worker.MaxJobsPerTick <= 0 {
		return fmt.Errorf("worker max_jobs_per_tick must be greater than 0")
	}

	if c.Worker.TickBudget <= 0 {
		return fmt.Errorf("worker tick_budget must be greater than 0")
	}

	if c.Worker.ExportTickSpec == "" {
		return fmt.Errorf("worker export_tick_spec is required")
	}

	if c.Worker.ScheduleTickSpec == "" {
		return fmt.Errorf("worker schedule_tick_spec is required")
	}

	if c.Events.Enabled {
		if c.Events.Host == "" {
			return fmt.Errorf("events host is required when events are enabled")
		}
		if c.Events.Port < MinPort || c.Events.Port > MaxPort {
			return fmt.Errorf("invalid events port: %d (must be between %d and %d)", c.Events.Port, MinPort, MaxPort)
		}
	}

	return nil
}

func (c *Config) validateDatabase() error {
	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Database.Port < MinPort || c.Database.Port > MaxPort {
		return fmt.Errorf("invalid database port: %d (must be between %d and %d)", c.Database.Port, MinPort, MaxPort)
	}

	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}

	return nil
}
