package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg AppConfig
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Ads.PageSize == 0 {
		cfg.Ads.PageSize = 1000
	}
	if cfg.Ads.MaxRetries == 0 {
		cfg.Ads.MaxRetries = 3
	}
	if cfg.Ads.RetryDelaySeconds == 0 {
		cfg.Ads.RetryDelaySeconds = 1.0
	}
	if cfg.Ads.BackoffFactor == 0 {
		cfg.Ads.BackoffFactor = 2.0
	}
	if cfg.Ads.RequestsPerSecond == 0 {
		cfg.Ads.RequestsPerSecond = 2.0
	}
	if cfg.Ads.BurstSize == 0 {
		cfg.Ads.BurstSize = 5
	}
	if cfg.Optimizer.LookbackDays == 0 {
		cfg.Optimizer.LookbackDays = 30
	}
	if cfg.Optimizer.MinDataPoints == 0 {
		cfg.Optimizer.MinDataPoints = 100
	}
	if cfg.Sync.IntervalMinutes == 0 {
		cfg.Sync.IntervalMinutes = 60
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}
