package config

import (
	"os"
	"path/filepath"

	"github.com/etnz/findeck"
	"github.com/etnz/findeck/coingecko"
)

// DefaultPath returns the default configuration file: findeck.toml in the
// user configuration directory.
func DefaultPath() string {
	return filepath.Join(userDir(), "findeck.toml")
}

func userDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".findeck"
	}
	return filepath.Join(dir, "findeck")
}

// NewDefaultConfig creates a configuration with default values.
func NewDefaultConfig() *Config {
	return &Config{
		HomeCurrency:    findeck.DefaultHomeCurrency,
		FallbackUSDRate: findeck.DefaultFallbackUSDRate,
		Prices: PricesConfig{
			BaseURL: coingecko.DefaultBaseURL,
			Symbols: append([]string(nil), findeck.DefaultSymbols...),
			Timeout: "10s",
		},
		Storage: StorageConfig{
			Backend: BackendLocal,
			Local: LocalConfig{
				Path: filepath.Join(userDir(), "data"),
			},
			Cloud: CloudConfig{
				Addr:       "localhost:6379",
				Collection: "accounts",
			},
		},
		Logging: LoggingConfig{
			Level: "warn",
		},
		Server: ServerConfig{
			Host: "localhost",
			Port: 8080,
		},
	}
}
