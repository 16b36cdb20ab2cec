package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"time"
)

type Config struct {
	API     APIConfig     `json:"api"`
	Logging LogConfig     `json:"logging"`
	Metrics MetricsConfig `json:"metrics"`
	Lists   ListConfig    `json:"lists"`
	Watch   WatchConfig   `json:"watch"`
}

type APIConfig struct {
	BaseURL string `json:"baseUrl"`
	APIKey  string `json:"apiKey"`
	Timeout string `json:"timeout"` // Duration string
}

type LogConfig struct {
	Level      string `json:"level"`      // debug, info, warn, error
	OutputPath string `json:"outputPath"` // file path or "stdout"
	Encoding   string `json:"encoding"`   // json or console
}

type MetricsConfig struct {
	Enabled bool   `json:"enabled"`
	Address string `json:"address"`
	Path    string `json:"path"`
}

type ListConfig struct {
	PageSize        int    `json:"pageSize"`
	Debounce        string `json:"debounce"` // Duration string
	MinSearchLength int    `json:"minSearchLength"`
}

type WatchConfig struct {
	Interval string `json:"interval"` // Duration string
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.SetDefaults()

	// Validate the configuration
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// SetDefaults fills in defaults for any unset optional values
func (c *Config) SetDefaults() {
	if c.API.Timeout == "" {
		c.API.Timeout = "30s"
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.OutputPath == "" {
		c.Logging.OutputPath = "stdout"
	}
	if c.Logging.Encoding == "" {
		c.Logging.Encoding = "json"
	}

	if c.Metrics.Address == "" {
		c.Metrics.Address = ":2112"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}

	if c.Lists.PageSize <= 0 {
		c.Lists.PageSize = 10
	}
	if c.Lists.Debounce == "" {
		c.Lists.Debounce = "500ms"
	}
	if c.Lists.MinSearchLength <= 0 {
		c.Lists.MinSearchLength = 3
	}

	if c.Watch.Interval == "" {
		c.Watch.Interval = "5s"
	}
}

// validateConfig performs validation of all configuration values
func validateConfig(cfg *Config) error {
	// Validate API config
	if cfg.API.BaseURL == "" {
		return fmt.Errorf("api base url is required")
	}
	u, err := url.Parse(cfg.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid api base url: %s", cfg.API.BaseURL)
	}
	if _, err := time.ParseDuration(cfg.API.Timeout); err != nil {
		return fmt.Errorf("invalid api timeout: %w", err)
	}

	// Validate logging config
	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", cfg.Logging.Level)
	}

	switch cfg.Logging.Encoding {
	case "json", "console":
	default:
		return fmt.Errorf("invalid log encoding: %s", cfg.Logging.Encoding)
	}

	// Validate list config
	if cfg.Lists.PageSize < 1 {
		return fmt.Errorf("page size must be greater than 0")
	}
	if _, err := time.ParseDuration(cfg.Lists.Debounce); err != nil {
		return fmt.Errorf("invalid list debounce: %w", err)
	}

	// Validate watch config
	if _, err := time.ParseDuration(cfg.Watch.Interval); err != nil {
		return fmt.Errorf("invalid watch interval: %w", err)
	}

	return nil
}

// ApplyOverrides applies command line flag overrides to the configuration
func (c *Config) ApplyOverrides(baseURL, apiKey string, pageSize int, watchInterval time.Duration) {
	if baseURL != "" {
		c.API.BaseURL = baseURL
	}
	if apiKey != "" {
		c.API.APIKey = apiKey
	}
	if pageSize > 0 {
		c.Lists.PageSize = pageSize
	}
	if watchInterval > 0 {
		c.Watch.Interval = watchInterval.String()
	}
}

// APITimeout returns the parsed API request timeout
func (c *Config) APITimeout() time.Duration {
	d, err := time.ParseDuration(c.API.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// ListDebounce returns the parsed search debounce delay
func (c *Config) ListDebounce() time.Duration {
	d, err := time.ParseDuration(c.Lists.Debounce)
	if err != nil {
		return 500 * time.Millisecond
	}
	return d
}

// WatchInterval returns the parsed event log poll interval
func (c *Config) WatchInterval() time.Duration {
	d, err := time.ParseDuration(c.Watch.Interval)
	if err != nil {
		return 5 * time.Second
	}
	return d
}
