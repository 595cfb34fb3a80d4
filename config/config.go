// Package config loads the findeck configuration.
//
// Values are resolved with priority defaults -> file -> FINDECK_* environment
// -> command-line flags.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/etnz/findeck"
	"github.com/pelletier/go-toml/v2"
	"github.com/shopspring/decimal"
)

// Storage backends.
const (
	BackendLocal  = "local"
	BackendCloud  = "cloud"
	BackendMemory = "memory"
)

// Config represents the application configuration.
type Config struct {
	HomeCurrency    string        `toml:"home_currency"`
	FallbackUSDRate string        `toml:"fallback_usd_rate"`
	Prices          PricesConfig  `toml:"prices"`
	Storage         StorageConfig `toml:"storage"`
	Logging         LoggingConfig `toml:"logging"`
	Server          ServerConfig  `toml:"server"`
}

// PricesConfig contains the price provider settings.
type PricesConfig struct {
	BaseURL string   `toml:"base_url"`
	APIKey  string   `toml:"api_key"`
	Symbols []string `toml:"symbols"`
	Timeout string   `toml:"timeout"` // a time.Duration, "" for none
}

// StorageConfig contains storage layer settings.
type StorageConfig struct {
	Backend string      `toml:"backend"`
	Local   LocalConfig `toml:"local"`
	Cloud   CloudConfig `toml:"cloud"`
}

// LocalConfig contains BadgerDB-specific settings.
type LocalConfig struct {
	Path string `toml:"path"`
}

// CloudConfig contains Redis-specific settings.
type CloudConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	Collection string `toml:"collection"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level string `toml:"level"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string { return fmt.Sprintf("%s:%d", s.Host, s.Port) }

// Load loads configuration with priority: defaults -> file -> env.
// An empty path skips the file. A missing file at the default path is not an
// error.
func Load(path string) (*Config, error) {
	config := NewDefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err) && path == DefaultPath():
		case err != nil:
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		default:
			if err := toml.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// applyEnvOverrides applies FINDECK_* environment variable overrides to config.
func applyEnvOverrides(config *Config) {
	str := func(name string, dst *string) {
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}
	integer := func(name string, dst *int) {
		if v := os.Getenv(name); v != "" {
			if i, err := strconv.Atoi(v); err == nil {
				*dst = i
			}
		}
	}

	str("FINDECK_HOME_CURRENCY", &config.HomeCurrency)
	str("FINDECK_FALLBACK_USD_RATE", &config.FallbackUSDRate)
	str("FINDECK_PRICES_BASE_URL", &config.Prices.BaseURL)
	str("FINDECK_PRICES_API_KEY", &config.Prices.APIKey)
	str("FINDECK_PRICES_TIMEOUT", &config.Prices.Timeout)
	if v := os.Getenv("FINDECK_PRICES_SYMBOLS"); v != "" {
		config.Prices.Symbols = splitList(v)
	}
	str("FINDECK_STORAGE_BACKEND", &config.Storage.Backend)
	str("FINDECK_LOCAL_PATH", &config.Storage.Local.Path)
	str("FINDECK_REDIS_ADDR", &config.Storage.Cloud.Addr)
	str("FINDECK_REDIS_PASSWORD", &config.Storage.Cloud.Password)
	integer("FINDECK_REDIS_DB", &config.Storage.Cloud.DB)
	str("FINDECK_REDIS_COLLECTION", &config.Storage.Cloud.Collection)
	str("FINDECK_LOG_LEVEL", &config.Logging.Level)
	str("FINDECK_SERVER_HOST", &config.Server.Host)
	integer("FINDECK_SERVER_PORT", &config.Server.Port)
}

// ApplyFlagOverrides applies command-line flag overrides to config. Zero
// values are ignored.
func ApplyFlagOverrides(config *Config, backend, level string) {
	if backend != "" {
		config.Storage.Backend = backend
	}
	if level != "" {
		config.Logging.Level = level
	}
}

func splitList(s string) []string {
	var list []string
	for _, v := range strings.Split(s, ",") {
		if v = strings.ToUpper(strings.TrimSpace(v)); v != "" {
			list = append(list, v)
		}
	}
	return list
}

// Validate checks that values can be used.
func (c *Config) Validate() error {
	c.HomeCurrency = strings.ToUpper(c.HomeCurrency)
	if err := findeck.ValidateCurrency(c.HomeCurrency); err != nil {
		return fmt.Errorf("home_currency: %w", err)
	}
	if _, err := c.Options(); err != nil {
		return err
	}
	if _, err := c.PricesTimeout(); err != nil {
		return err
	}
	switch c.Storage.Backend {
	case BackendLocal, BackendCloud, BackendMemory:
	default:
		return fmt.Errorf("storage.backend: unknown backend %q, want %s, %s or %s", c.Storage.Backend, BackendLocal, BackendCloud, BackendMemory)
	}
	return nil
}

// Options returns the valuation options.
func (c *Config) Options() (findeck.Options, error) {
	rate, err := decimal.NewFromString(c.FallbackUSDRate)
	if err != nil {
		return findeck.Options{}, fmt.Errorf("fallback_usd_rate: invalid rate %q: %w", c.FallbackUSDRate, err)
	}
	if !rate.IsPositive() {
		return findeck.Options{}, fmt.Errorf("fallback_usd_rate: must be positive, got %s", rate)
	}
	return findeck.Options{HomeCurrency: c.HomeCurrency, FallbackUSDRate: rate}, nil
}

// PricesTimeout returns the HTTP timeout of the price provider, zero for none.
func (c *Config) PricesTimeout() (time.Duration, error) {
	if c.Prices.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Prices.Timeout)
	if err != nil {
		return 0, fmt.Errorf("prices.timeout: %w", err)
	}
	return d, nil
}
