package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ApplyDefaults()

	if cfg.API.BaseURL == "" {
		return nil, fmt.Errorf("api.base_url is required")
	}

	return &cfg, nil
}

// ApplyDefaults fills in zero-valued fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.API.Timeout == 0 {
		c.API.Timeout = 15 * time.Second
	}
	if c.API.UploadTimeout == 0 {
		c.API.UploadTimeout = 120 * time.Second
	}
	if c.API.MaxUploadBytes == 0 {
		c.API.MaxUploadBytes = 50 << 20 // 50 MiB
	}
	if c.API.ErrorThreshold == 0 {
		c.API.ErrorThreshold = 400
	}
	if c.Retry.MaxRetries == 0 {
		c.Retry.MaxRetries = 3
	}
	if c.Retry.BaseDelay == 0 {
		c.Retry.BaseDelay = 1 * time.Second
	}
	if c.Retry.MaxDelay == 0 {
		c.Retry.MaxDelay = 30 * time.Second
	}
	if c.Monitor.Interval == 0 {
		c.Monitor.Interval = 30 * time.Second
	}
	if c.Monitor.ProbeTimeout == 0 {
		c.Monitor.ProbeTimeout = 5 * time.Second
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}
