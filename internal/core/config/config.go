package config

import (
	"time"
)

// Config represents the top-level configuration.
type Config struct {
	API     APIConfig     `yaml:"api"`
	Retry   RetryConfig   `yaml:"retry"`
	Monitor MonitorConfig `yaml:"monitor"`
	Logging LoggingConfig `yaml:"logging"`
}

// APIConfig holds settings for the remote analysis service.
type APIConfig struct {
	BaseURL        string        `yaml:"base_url"`
	Timeout        time.Duration `yaml:"timeout"`
	UploadTimeout  time.Duration `yaml:"upload_timeout"`
	MaxUploadBytes int64         `yaml:"max_upload_bytes"`
	ErrorThreshold int           `yaml:"error_threshold"` // statuses >= threshold are treated as errors
	Debug          bool          `yaml:"debug"`
}

// RetryConfig holds retry and backoff settings.
type RetryConfig struct {
	MaxRetries int           `yaml:"max_retries"`
	BaseDelay  time.Duration `yaml:"base_delay"`
	MaxDelay   time.Duration `yaml:"max_delay"`
	Jitter     bool          `yaml:"jitter"`
}

// MonitorConfig holds connection monitor settings.
type MonitorConfig struct {
	Interval     time.Duration `yaml:"interval"`
	ProbeTimeout time.Duration `yaml:"probe_timeout"`
	Listen       string        `yaml:"listen"` // local status/metrics address, empty = disabled
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}
