// Package cmd implements the findeck command line application.
package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/etnz/findeck"
	"github.com/etnz/findeck/cloudstore"
	"github.com/etnz/findeck/coingecko"
	"github.com/etnz/findeck/config"
	"github.com/etnz/findeck/localstore"
	"github.com/etnz/findeck/memstore"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var configFile = flag.String("config", defaultConfigFile(), "Path to the findeck.toml configuration file")
var storeBackend = flag.String("store", "", "Storage backend: local, cloud or memory. Overrides the configuration.")
var verbose = flag.Bool("v", false, "Log debug messages to stderr")

// defaultConfigFile is $FINDECK_CONFIG, as set for extensions, or the per-user file.
func defaultConfigFile() string {
	if p := os.Getenv(EnvConfigFile); p != "" {
		return p
	}
	return config.DefaultPath()
}

// loadConfig reads the configuration and builds the logger.
func loadConfig() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(*configFile)
	if err != nil {
		return nil, nil, err
	}
	level := ""
	if *verbose {
		level = "debug"
	}
	config.ApplyFlagOverrides(cfg, *storeBackend, level)
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	logger, err := config.NewLogger(cfg.Logging.Level)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// storage is an opened backend.
type storage struct {
	accounts findeck.AccountStore
	kv       findeck.KeyValueStorage
	close    func() error
}

// openStorage opens the backend selected in cfg.
func openStorage(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*storage, error) {
	switch cfg.Storage.Backend {
	case config.BackendLocal:
		s, err := localstore.Open(cfg.Storage.Local.Path, logger)
		if err != nil {
			return nil, err
		}
		return &storage{accounts: s, kv: s, close: s.Close}, nil
	case config.BackendCloud:
		s, err := cloudstore.Open(ctx, cloudstore.Config{
			Addr:         cfg.Storage.Cloud.Addr,
			Password:     cfg.Storage.Cloud.Password,
			DB:           cfg.Storage.Cloud.DB,
			Collection:   cfg.Storage.Cloud.Collection,
			HomeCurrency: cfg.HomeCurrency,
		}, logger)
		if err != nil {
			return nil, err
		}
		return &storage{accounts: s, kv: s, close: s.Close}, nil
	case config.BackendMemory:
		s := memstore.New()
		return &storage{accounts: s, kv: s, close: func() error { return nil }}, nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
}

// newFeed returns the live price feed configured in cfg.
func newFeed(cfg *config.Config, logger *zap.Logger) (findeck.PriceFeed, error) {
	timeout, err := cfg.PricesTimeout()
	if err != nil {
		return nil, err
	}
	opts := []coingecko.Option{
		coingecko.WithBaseURL(cfg.Prices.BaseURL),
		coingecko.WithHomeCurrency(cfg.HomeCurrency),
		coingecko.WithHTTPClient(&http.Client{Timeout: timeout}),
		coingecko.WithLogger(logger.Named("coingecko")),
	}
	if cfg.Prices.APIKey != "" {
		opts = append(opts, coingecko.WithAPIKey(cfg.Prices.APIKey))
	}
	return coingecko.New(opts...), nil
}

// app is everything a subcommand needs.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	storage *storage
	store   *findeck.NotifyingStore
	session *findeck.Session
}

// openApp wires the configured storage and price feed into a Session whose
// accounts are loaded. The live feed is replaced by findeck.Offline when
// offline is true.
func openApp(ctx context.Context, offline bool) (*app, error) {
	cfg, logger, err := loadConfig()
	if err != nil {
		return nil, err
	}
	opts, err := cfg.Options()
	if err != nil {
		return nil, err
	}
	storage, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	feed := findeck.Offline
	if !offline {
		if feed, err = newFeed(cfg, logger); err != nil {
			storage.close()
			return nil, err
		}
	}

	store := findeck.NewNotifyingStore(storage.accounts)
	cache := findeck.NewPriceCache(storage.kv, logger.Named("cache"))
	session := findeck.NewSession(store, feed, cache, opts, logger.Named("session"))
	session.SetSymbols(cfg.Prices.Symbols)
	session.Watch(store)

	if err := session.ReloadAccounts(ctx); err != nil {
		storage.close()
		return nil, err
	}
	return &app{cfg: cfg, logger: logger, storage: storage, store: store, session: session}, nil
}

// Close releases the storage and flushes the logger.
func (a *app) Close() {
	if err := a.storage.close(); err != nil {
		a.logger.Warn("cannot close storage", zap.Error(err))
	}
	a.logger.Sync()
}

// waitForPrices waits for the price fetch to be over, at most wait. The
// returned finish waits for a late fetch, so that its prices are cached
// before the storage is closed. The fetch itself is bounded by the
// configured prices timeout.
func waitForPrices(done <-chan struct{}, wait time.Duration, logger *zap.Logger) (finish func()) {
	select {
	case <-done:
		return func() {}
	case <-time.After(wait):
		logger.Warn("live prices are late, showing cached ones", zap.Duration("wait", wait))
	}
	return func() {
		<-done
		logger.Debug("late prices cached")
	}
}

// parseAmount parses a decimal amount argument.
func parseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", s)
	}
	return d, nil
}

// describe explains err to the user.
func describe(err error) string {
	switch {
	case errors.Is(err, findeck.ErrAccountNotFound):
		return fmt.Sprintf("Error: %v. Use 'findeck list' to see the account ids.", err)
	case errors.Is(err, findeck.ErrInvalidAccount):
		return fmt.Sprintf("Error: %v.", err)
	default:
		return fmt.Sprintf("Error: %v", err)
	}
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, describe(err))
}
