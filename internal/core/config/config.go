package config

import (
	"time"

	redisclient "github.com/adsctl/optimizer/internal/infra/redis"
	"github.com/adsctl/optimizer/internal/infra/storage/postgres"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server    ServerConfig       `yaml:"server"`
	Ads       AdsConfig          `yaml:"ads"`
	Accounts  []AccountConfig    `yaml:"accounts"`
	Optimizer OptimizerConfig    `yaml:"optimizer"`
	Sync      SyncConfig         `yaml:"sync"`
	Redis     redisclient.Config `yaml:"redis"`
	Logging   LoggingConfig      `yaml:"logging"`
	Database  postgres.Config    `yaml:"database"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// AdsConfig holds settings for the remote Ads API: endpoint, rate limiting
// and retry behavior.
type AdsConfig struct {
	Endpoint          string  `yaml:"endpoint"`
	DeveloperToken    string  `yaml:"developer_token"`
	PageSize          int     `yaml:"page_size"`
	MaxRetries        int     `yaml:"max_retries"`
	RetryDelaySeconds float64 `yaml:"retry_delay_seconds"`
	BackoffFactor     float64 `yaml:"backoff_factor"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size"`
}

// RetryDelay returns the base backoff delay as a duration.
func (c AdsConfig) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelaySeconds * float64(time.Second))
}

// OptimizerConfig holds model training and data retention settings.
type OptimizerConfig struct {
	LookbackDays  int `yaml:"lookback_days"`
	MinDataPoints int `yaml:"min_data_points"`
	RetentionDays int `yaml:"retention_days"` // 0 disables pruning
}

// Lookback returns the historical window as a duration.
func (c OptimizerConfig) Lookback() time.Duration {
	return time.Duration(c.LookbackDays) * 24 * time.Hour
}

// Retention returns how long mirrored data is kept.
func (c OptimizerConfig) Retention() time.Duration {
	return time.Duration(c.RetentionDays) * 24 * time.Hour
}

// SyncConfig holds settings for the background metrics sync worker.
type SyncConfig struct {
	Enabled         bool `yaml:"enabled"`
	IntervalMinutes int  `yaml:"interval_minutes"`
}

// Interval returns the sync period as a duration.
func (c SyncConfig) Interval() time.Duration {
	return time.Duration(c.IntervalMinutes) * time.Minute
}

// AccountConfig identifies one managed account.
type AccountConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}
