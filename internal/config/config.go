// Copyright 2025 The Draftflow Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads draftflow configuration from YAML files and
// environment variables. Environment variables take precedence over
// file values.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned when configuration validation fails.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// ConfigError wraps a configuration loading failure with the offending key.
type ConfigError struct {
	Key    string
	Reason string
	Cause  error
}

func (e *ConfigError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("config error for %q: %s: %v", e.Key, e.Reason, e.Cause)
	}
	return fmt.Sprintf("config error for %q: %s", e.Key, e.Reason)
}

func (e *ConfigError) Unwrap() error { return e.Cause }

// Config represents the complete draftflow configuration.
type Config struct {
	Provider ProviderConfig `yaml:"provider"`
	Retry    RetryConfig    `yaml:"retry"`
	Limits   LimitsConfig   `yaml:"limits"`
	Routing  RoutingConfig  `yaml:"routing"`
	Store    StoreConfig    `yaml:"store"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Log      LogConfig      `yaml:"log"`
	Pricing  PricingConfig  `yaml:"pricing"`
}

// ProviderConfig configures the LLM backend.
type ProviderConfig struct {
	// Name selects the provider: "openai" or "stub".
	// Environment: DRAFTFLOW_PROVIDER
	// Default: openai (stub when no API key is available)
	Name string `yaml:"name"`

	// Model is the model identifier.
	// Environment: DRAFTFLOW_MODEL
	// Default: gpt-4o-mini
	Model string `yaml:"model"`

	// APIKey authenticates with the provider.
	// Environment: OPENAI_API_KEY
	APIKey string `yaml:"api_key,omitempty"`

	// BaseURL overrides the provider endpoint (proxies, compatible APIs).
	// Environment: DRAFTFLOW_BASE_URL
	BaseURL string `yaml:"base_url,omitempty"`

	// Temperature is the sampling temperature for generation stages.
	// Default: 0.7
	Temperature float64 `yaml:"temperature,omitempty"`
}

// RetryConfig configures call retry behavior.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts per call.
	// Environment: DRAFTFLOW_MAX_ATTEMPTS
	// Default: 3
	MaxAttempts int `yaml:"max_attempts"`

	// BaseDelay is the first backoff delay.
	// Default: 1s
	BaseDelay time.Duration `yaml:"base_delay"`

	// MaxDelay caps the computed backoff delay.
	// Default: 30s
	MaxDelay time.Duration `yaml:"max_delay"`
}

// LimitsConfig configures the request governor.
type LimitsConfig struct {
	// RequestsPerMinute caps calls in any sliding 60s window.
	// Environment: DRAFTFLOW_RPM
	// Default: 30
	RequestsPerMinute int `yaml:"requests_per_minute"`

	// DailyBudgetUSD caps estimated spend per calendar day.
	// Environment: DRAFTFLOW_DAILY_BUDGET_USD
	// Default: 1.00
	DailyBudgetUSD float64 `yaml:"daily_budget_usd"`
}

// RoutingConfig configures regeneration routing.
type RoutingConfig struct {
	// DiffThreshold is the word-set diff ratio at or above which a
	// regeneration re-runs the full sequence.
	// Default: 0.20
	DiffThreshold float64 `yaml:"diff_threshold"`
}

// StoreConfig configures persistence.
type StoreConfig struct {
	// Backend is "sqlite" or "file".
	// Environment: DRAFTFLOW_STORE_BACKEND
	// Default: sqlite
	Backend string `yaml:"backend"`

	// Path is the SQLite database path or the file store directory.
	// Environment: DRAFTFLOW_STORE_PATH
	// Default: ~/.draftflow/draftflow.db (sqlite), ~/.draftflow (file)
	Path string `yaml:"path,omitempty"`
}

// MetricsConfig configures session metrics.
type MetricsConfig struct {
	// FlushDir is where session summaries are written on flush.
	// Environment: DRAFTFLOW_METRICS_DIR
	// Default: ~/.draftflow/metrics
	FlushDir string `yaml:"flush_dir,omitempty"`
}

// LogConfig configures logging behavior.
type LogConfig struct {
	// Level sets the minimum log level (debug, info, warn, error).
	// Environment: LOG_LEVEL
	// Default: info
	Level string `yaml:"level"`

	// Format sets the output format (json, text).
	// Environment: LOG_FORMAT
	// Default: json
	Format string `yaml:"format"`

	// AddSource adds source file and line information to logs.
	// Environment: LOG_SOURCE
	// Default: false
	AddSource bool `yaml:"add_source"`
}

// PricingConfig configures the model price table.
type PricingConfig struct {
	// Path is an optional user pricing file merged over built-in prices.
	// Environment: DRAFTFLOW_PRICING_PATH
	Path string `yaml:"path,omitempty"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	dataDir := defaultDataDir()

	return &Config{
		Provider: ProviderConfig{
			Name:        "openai",
			Model:       "gpt-4o-mini",
			Temperature: 0.7,
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   time.Second,
			MaxDelay:    30 * time.Second,
		},
		Limits: LimitsConfig{
			RequestsPerMinute: 30,
			DailyBudgetUSD:    1.00,
		},
		Routing: RoutingConfig{
			DiffThreshold: 0.20,
		},
		Store: StoreConfig{
			Backend: "sqlite",
			Path:    filepath.Join(dataDir, "draftflow.db"),
		},
		Metrics: MetricsConfig{
			FlushDir: filepath.Join(dataDir, "metrics"),
		},
		Log: LogConfig{
			Level:     "info",
			Format:    "json",
			AddSource: false,
		},
	}
}

// Load loads configuration from an optional YAML file, then overrides
// with environment variables, then validates.
func Load(configPath string) (*Config, error) {
	cfg := Default()

	if configPath != "" {
		if err := cfg.loadFromFile(configPath); err != nil {
			return nil, &ConfigError{
				Key:    "config_file",
				Reason: fmt.Sprintf("failed to load from %s", configPath),
				Cause:  err,
			}
		}
	}

	cfg.applyDefaults()
	cfg.loadFromEnv()

	if err := cfg.Validate(); err != nil {
		return nil, &ConfigError{
			Key:    "validation",
			Reason: "configuration validation failed",
			Cause:  err,
		}
	}

	return cfg, nil
}

// applyDefaults fills in zero values with sensible defaults so minimal
// config files work without specifying every field.
func (c *Config) applyDefaults() {
	defaults := Default()

	if c.Provider.Name == "" {
		c.Provider.Name = defaults.Provider.Name
	}
	if c.Provider.Model == "" {
		c.Provider.Model = defaults.Provider.Model
	}
	if c.Provider.Temperature == 0 {
		c.Provider.Temperature = defaults.Provider.Temperature
	}

	if c.Retry.MaxAttempts == 0 {
		c.Retry.MaxAttempts = defaults.Retry.MaxAttempts
	}
	if c.Retry.BaseDelay == 0 {
		c.Retry.BaseDelay = defaults.Retry.BaseDelay
	}
	if c.Retry.MaxDelay == 0 {
		c.Retry.MaxDelay = defaults.Retry.MaxDelay
	}

	if c.Limits.RequestsPerMinute == 0 {
		c.Limits.RequestsPerMinute = defaults.Limits.RequestsPerMinute
	}
	if c.Limits.DailyBudgetUSD == 0 {
		c.Limits.DailyBudgetUSD = defaults.Limits.DailyBudgetUSD
	}

	if c.Routing.DiffThreshold == 0 {
		c.Routing.DiffThreshold = defaults.Routing.DiffThreshold
	}

	if c.Store.Backend == "" {
		c.Store.Backend = defaults.Store.Backend
	}
	if c.Store.Path == "" {
		if c.Store.Backend == "file" {
			c.Store.Path = defaultDataDir()
		} else {
			c.Store.Path = defaults.Store.Path
		}
	}

	if c.Metrics.FlushDir == "" {
		c.Metrics.FlushDir = defaults.Metrics.FlushDir
	}

	if c.Log.Level == "" {
		c.Log.Level = defaults.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = defaults.Log.Format
	}
}

// loadFromFile loads configuration from a YAML file.
func (c *Config) loadFromFile(path string) error {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	return nil
}

// loadFromEnv loads configuration from environment variables.
func (c *Config) loadFromEnv() {
	if val := os.Getenv("DRAFTFLOW_PROVIDER"); val != "" {
		c.Provider.Name = strings.ToLower(val)
	}
	if val := os.Getenv("DRAFTFLOW_MODEL"); val != "" {
		c.Provider.Model = val
	}
	if val := os.Getenv("OPENAI_API_KEY"); val != "" {
		c.Provider.APIKey = val
	}
	if val := os.Getenv("DRAFTFLOW_BASE_URL"); val != "" {
		c.Provider.BaseURL = val
	}

	if val := os.Getenv("DRAFTFLOW_MAX_ATTEMPTS"); val != "" {
		if attempts, err := strconv.Atoi(val); err == nil {
			c.Retry.MaxAttempts = attempts
		}
	}
	if val := os.Getenv("DRAFTFLOW_RPM"); val != "" {
		if rpm, err := strconv.Atoi(val); err == nil {
			c.Limits.RequestsPerMinute = rpm
		}
	}
	if val := os.Getenv("DRAFTFLOW_DAILY_BUDGET_USD"); val != "" {
		if budget, err := strconv.ParseFloat(val, 64); err == nil {
			c.Limits.DailyBudgetUSD = budget
		}
	}

	if val := os.Getenv("DRAFTFLOW_STORE_BACKEND"); val != "" {
		c.Store.Backend = strings.ToLower(val)
	}
	if val := os.Getenv("DRAFTFLOW_STORE_PATH"); val != "" {
		c.Store.Path = val
	}
	if val := os.Getenv("DRAFTFLOW_METRICS_DIR"); val != "" {
		c.Metrics.FlushDir = val
	}
	if val := os.Getenv("DRAFTFLOW_PRICING_PATH"); val != "" {
		c.Pricing.Path = val
	}

	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = strings.ToLower(val)
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = strings.ToLower(val)
	}
	if val := os.Getenv("LOG_SOURCE"); val != "" {
		c.Log.AddSource = val == "1" || strings.ToLower(val) == "true"
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	var errs []string

	validProviders := map[string]bool{"openai": true, "stub": true}
	if !validProviders[c.Provider.Name] {
		errs = append(errs, fmt.Sprintf("provider.name must be one of [openai, stub], got %q", c.Provider.Name))
	}
	if c.Provider.Temperature < 0 || c.Provider.Temperature > 2 {
		errs = append(errs, fmt.Sprintf("provider.temperature must be in [0, 2], got %v", c.Provider.Temperature))
	}

	if c.Retry.MaxAttempts < 1 {
		errs = append(errs, fmt.Sprintf("retry.max_attempts must be at least 1, got %d", c.Retry.MaxAttempts))
	}
	if c.Retry.BaseDelay <= 0 {
		errs = append(errs, fmt.Sprintf("retry.base_delay must be positive, got %v", c.Retry.BaseDelay))
	}
	if c.Retry.MaxDelay < c.Retry.BaseDelay {
		errs = append(errs, fmt.Sprintf("retry.max_delay must be at least base_delay, got %v", c.Retry.MaxDelay))
	}

	if c.Limits.RequestsPerMinute < 1 {
		errs = append(errs, fmt.Sprintf("limits.requests_per_minute must be at least 1, got %d", c.Limits.RequestsPerMinute))
	}
	if c.Limits.DailyBudgetUSD < 0 {
		errs = append(errs, fmt.Sprintf("limits.daily_budget_usd must be non-negative, got %v", c.Limits.DailyBudgetUSD))
	}

	if c.Routing.DiffThreshold <= 0 || c.Routing.DiffThreshold > 1 {
		errs = append(errs, fmt.Sprintf("routing.diff_threshold must be in (0, 1], got %v", c.Routing.DiffThreshold))
	}

	validBackends := map[string]bool{"sqlite": true, "file": true}
	if !validBackends[c.Store.Backend] {
		errs = append(errs, fmt.Sprintf("store.backend must be one of [sqlite, file], got %q", c.Store.Backend))
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "warning": true, "error": true}
	if !validLevels[c.Log.Level] {
		errs = append(errs, fmt.Sprintf("log.level must be one of [debug, info, warn, warning, error], got %q", c.Log.Level))
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Log.Format] {
		errs = append(errs, fmt.Sprintf("log.format must be one of [json, text], got %q", c.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w:\n  - %s", ErrInvalidConfig, strings.Join(errs, "\n  - "))
	}

	return nil
}

// defaultDataDir returns the default data directory.
func defaultDataDir() string {
	if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		return filepath.Join(dataHome, "draftflow")
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "/tmp/draftflow"
	}

	return filepath.Join(homeDir, ".draftflow")
}
