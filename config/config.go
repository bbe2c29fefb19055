// Package config manages application configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds all application configuration for catalog synchronization.
type Config struct {
	// APIKey authenticates remote catalog calls.
	APIKey string `json:"api_key"`
	// CatalogID identifies the listing collection (the playlist).
	CatalogID string `json:"catalog_id"`
	// ChannelID scopes free-text search.
	ChannelID string `json:"channel_id"`

	// Fetcher selects the remote implementation: "rest" or "api".
	Fetcher string `json:"fetcher"`
	// Store selects the cache backend: "json" or "postgres".
	Store string `json:"store"`
	// StorePath is the JSON store file location.
	StorePath string `json:"store_path"`
	// PostgresDSN is the connection string for the postgres store.
	PostgresDSN string `json:"postgres_dsn"`

	// LoadMoreThreshold is the visible-index band size that triggers a
	// background page fetch.
	LoadMoreThreshold int `json:"load_more_threshold"`

	// HTTPTimeout bounds each remote request.
	HTTPTimeout time.Duration `json:"http_timeout"`
	// MinRequestInterval spaces consecutive requests to the same host.
	MinRequestInterval time.Duration `json:"min_request_interval"`

	// MaxRetries is the maximum number of retries for failed requests.
	MaxRetries int `json:"max_retries"`
	// InitialBackoff is the initial backoff duration for retries.
	InitialBackoff time.Duration `json:"initial_backoff"`
	// MaxBackoff is the maximum backoff duration for retries.
	MaxBackoff time.Duration `json:"max_backoff"`
	// BackoffMultiplier is the multiplier for exponential backoff (must be > 1).
	BackoffMultiplier float64 `json:"backoff_multiplier"`

	// LogLevel sets logging verbosity: "debug", "info", "warn", "error".
	LogLevel string `json:"log_level"`
}

// DefaultConfig returns configuration with safe defaults.
func DefaultConfig() *Config {
	return &Config{
		Fetcher:            "rest",
		Store:              "json",
		StorePath:          filepath.Join(os.Getenv("HOME"), ".local", "share", "vidsync", "store.json"),
		LoadMoreThreshold:  48,
		HTTPTimeout:        30 * time.Second,
		MinRequestInterval: 200 * time.Millisecond,
		MaxRetries:         3,
		InitialBackoff:     500 * time.Millisecond,
		MaxBackoff:         15 * time.Second,
		BackoffMultiplier:  2.0,
		LogLevel:           "info",
	}
}

// Load loads configuration from environment variables, config file, and applies defaults.
// Priority: env vars > config file > defaults
func Load() (*Config, error) {
	cfg := DefaultConfig()

	// Try to load from config file
	if err := cfg.loadFromFile(); err != nil {
		// Config file is optional
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	// Override with environment variables
	cfg.loadFromEnv()

	// Validate
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFromFile attempts to load config from vidsync.json in current directory or home directory.
func (c *Config) loadFromFile() error {
	paths := []string{
		"vidsync.json",
		filepath.Join(os.Getenv("HOME"), ".config", "vidsync", "vidsync.json"),
	}

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return err
		}

		if err := json.Unmarshal(data, c); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		return nil
	}

	return os.ErrNotExist
}

// loadFromEnv overrides config with environment variables.
func (c *Config) loadFromEnv() {
	if v := os.Getenv("VIDSYNC_API_KEY"); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv("VIDSYNC_CATALOG_ID"); v != "" {
		c.CatalogID = v
	}
	if v := os.Getenv("VIDSYNC_CHANNEL_ID"); v != "" {
		c.ChannelID = v
	}
	if v := os.Getenv("VIDSYNC_FETCHER"); v != "" {
		c.Fetcher = v
	}
	if v := os.Getenv("VIDSYNC_STORE"); v != "" {
		c.Store = v
	}
	if v := os.Getenv("VIDSYNC_STORE_PATH"); v != "" {
		c.StorePath = v
	}
	if v := os.Getenv("VIDSYNC_POSTGRES_DSN"); v != "" {
		c.PostgresDSN = v
	}
	if v := os.Getenv("VIDSYNC_LOAD_MORE_THRESHOLD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.LoadMoreThreshold = n
		}
	}
	if v := os.Getenv("VIDSYNC_HTTP_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.HTTPTimeout = d
		}
	}
	if v := os.Getenv("VIDSYNC_MIN_REQUEST_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.MinRequestInterval = d
		}
	}
	if v := os.Getenv("VIDSYNC_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxRetries = n
		}
	}
	if v := os.Getenv("VIDSYNC_INITIAL_BACKOFF"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.InitialBackoff = d
		}
	}
	if v := os.Getenv("VIDSYNC_MAX_BACKOFF"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.MaxBackoff = d
		}
	}
	if v := os.Getenv("VIDSYNC_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
}

// Validate checks that configuration values are valid and consistent.
// It returns an error if any configuration value is invalid.
func (c *Config) Validate() error {
	switch c.Fetcher {
	case "rest", "api":
	default:
		return fmt.Errorf("fetcher must be \"rest\" or \"api\"")
	}
	switch c.Store {
	case "json":
		if c.StorePath == "" {
			return fmt.Errorf("store_path is required for the json store")
		}
	case "postgres":
		if c.PostgresDSN == "" {
			return fmt.Errorf("postgres_dsn is required for the postgres store")
		}
	default:
		return fmt.Errorf("store must be \"json\" or \"postgres\"")
	}
	if c.LoadMoreThreshold <= 0 {
		return fmt.Errorf("load_more_threshold must be positive")
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("http_timeout must be positive")
	}
	if c.MinRequestInterval < 0 {
		return fmt.Errorf("min_request_interval must be non-negative")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must be non-negative")
	}
	if c.InitialBackoff <= 0 {
		return fmt.Errorf("initial_backoff must be positive")
	}
	if c.MaxBackoff <= 0 {
		return fmt.Errorf("max_backoff must be positive")
	}
	if c.MaxBackoff < c.InitialBackoff {
		return fmt.Errorf("max_backoff must be >= initial_backoff")
	}
	if c.BackoffMultiplier <= 1 {
		return fmt.Errorf("backoff_multiplier must be > 1")
	}
	return nil
}
