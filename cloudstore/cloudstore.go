// Package cloudstore keeps accounts in a Redis document collection.
//
// Every account is a hash stored at "<collection>:<id>" with the fields
// name, balance, currency, type and date. The sorted set "<collection>"
// indexes the ids by creation date (unix milliseconds). Cached prices live
// in plain string keys.
package cloudstore

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/etnz/findeck"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultCollection is the collection used when Config.Collection is empty.
const DefaultCollection = "accounts"

// Config holds the Redis connection options.
type Config struct {
	Addr         string
	Username     string
	Password     string
	DB           int
	UseTLS       bool
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolSize     int

	// Collection names the account collection.
	Collection string
	// HomeCurrency is the currency given to documents missing one.
	HomeCurrency string
}

// Store implements findeck.AccountStore and findeck.KeyValueStorage.
type Store struct {
	client     redis.UniversalClient
	collection string
	home       string
	logger     *zap.Logger
	now        func() time.Time
}

// Open connects to Redis and verifies connectivity with PING.
// Call Close on the returned store during shutdown.
func Open(ctx context.Context, cfg Config, logger *zap.Logger) (*Store, error) {
	opts := &redis.Options{
		Addr:         cfg.Addr,
		Username:     cfg.Username,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  defaultDuration(cfg.DialTimeout, 3*time.Second),
		ReadTimeout:  defaultDuration(cfg.ReadTimeout, 2*time.Second),
		WriteTimeout: defaultDuration(cfg.WriteTimeout, 2*time.Second),
		PoolSize:     defaultInt(cfg.PoolSize, 10),
	}
	if cfg.UseTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("cannot reach redis at %s: %w", cfg.Addr, err)
	}
	return New(client, cfg.Collection, cfg.HomeCurrency, logger), nil
}

// New wraps an existing client.
func New(client redis.UniversalClient, collection, homeCurrency string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	if collection == "" {
		collection = DefaultCollection
	}
	if homeCurrency == "" {
		homeCurrency = findeck.DefaultHomeCurrency
	}
	return &Store{
		client:     client,
		collection: collection,
		home:       homeCurrency,
		logger:     logger,
		now:        time.Now,
	}
}

// Close releases the connection pool.
func (s *Store) Close() error { return s.client.Close() }

func (s *Store) docKey(id string) string { return s.collection + ":" + id }

func (s *Store) List(ctx context.Context) ([]findeck.Account, error) {
	ids, err := s.client.ZRevRange(ctx, s.collection, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", s.collection, err)
	}
	if len(ids) == 0 {
		return []findeck.Account{}, nil
	}

	cmds := make([]*redis.MapStringStringCmd, len(ids))
	_, err = s.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = p.HGetAll(ctx, s.docKey(id))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.collection, err)
	}

	accounts := make([]findeck.Account, 0, len(ids))
	for i, id := range ids {
		fields := cmds[i].Val()
		if len(fields) == 0 {
			// index entry without a document
			s.logger.Warn("dangling account index entry", zap.String("id", id))
			continue
		}
		accounts = append(accounts, decodeAccount(id, fields, s.home, s.logger))
	}
	return accounts, nil
}

func (s *Store) Create(ctx context.Context, n findeck.NewAccount) (findeck.Account, error) {
	n, err := n.Validate()
	if err != nil {
		return findeck.Account{}, err
	}
	a := findeck.Account{
		ID:       uuid.NewString(),
		Name:     n.Name,
		Balance:  n.Balance,
		Currency: n.Currency,
		Type:     n.Type,
		Created:  s.now().UTC().Truncate(time.Millisecond),
	}
	_, err = s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, s.docKey(a.ID), encodeAccount(a))
		p.ZAdd(ctx, s.collection, redis.Z{Score: float64(a.Created.UnixMilli()), Member: a.ID})
		return nil
	})
	if err != nil {
		return findeck.Account{}, fmt.Errorf("failed to insert account: %w", err)
	}
	s.logger.Debug("account created", zap.String("id", a.ID), zap.String("collection", s.collection))
	return a, nil
}

func (s *Store) UpdateBalance(ctx context.Context, id string, balance decimal.Decimal) error {
	if err := s.exists(ctx, id); err != nil {
		return err
	}
	if err := s.client.HSet(ctx, s.docKey(id), "balance", balance.String()).Err(); err != nil {
		return fmt.Errorf("failed to update account %s: %w", id, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.exists(ctx, id); err != nil {
		return err
	}
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, s.docKey(id))
		p.ZRem(ctx, s.collection, id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete account %s: %w", id, err)
	}
	return nil
}

func (s *Store) exists(ctx context.Context, id string) error {
	n, err := s.client.Exists(ctx, s.docKey(id)).Result()
	if err != nil {
		return fmt.Errorf("failed to look up account %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %q", findeck.ErrAccountNotFound, id)
	}
	return nil
}

// Get retrieves a value by key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", findeck.ErrKeyNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get key %s: %w", key, err)
	}
	return v, nil
}

// Set stores a key-value pair without expiration.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("failed to set key %s: %w", key, err)
	}
	return nil
}

// encodeAccount returns the hash fields of a.
func encodeAccount(a findeck.Account) map[string]any {
	return map[string]any{
		"name":     a.Name,
		"balance":  a.Balance.String(),
		"currency": a.Currency,
		"type":     strings.ToUpper(a.Type.String()),
		"date":     a.Created.UTC().Format(time.RFC3339Nano),
	}
}

// decodeAccount reads a document, filling in defaults for absent or
// unreadable fields.
func decodeAccount(id string, fields map[string]string, home string, logger *zap.Logger) findeck.Account {
	a := findeck.Account{
		ID:       id,
		Name:     "Unnamed",
		Balance:  decimal.Zero,
		Currency: home,
		Type:     findeck.Bank,
	}
	if v := fields["name"]; v != "" {
		a.Name = v
	}
	if v := fields["balance"]; v != "" {
		if d, err := decimal.NewFromString(v); err == nil {
			a.Balance = d
		} else {
			logger.Warn("invalid balance, using 0", zap.String("id", id), zap.String("balance", v))
		}
	}
	if v := fields["currency"]; v != "" {
		a.Currency = strings.ToUpper(v)
	}
	if v := fields["type"]; v != "" {
		if t, err := findeck.ParseAccountType(v); err == nil {
			a.Type = t
		} else {
			logger.Warn("invalid type, using BANK", zap.String("id", id), zap.String("type", v))
		}
	}
	if v := fields["date"]; v != "" {
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			a.Created = t
		} else if ms, err := strconv.ParseInt(v, 10, 64); err == nil {
			a.Created = time.UnixMilli(ms).UTC()
		}
	}
	return a
}

func defaultDuration(v, d time.Duration) time.Duration {
	if v > 0 {
		return v
	}
	return d
}

func defaultInt(v, d int) int {
	if v > 0 {
		return v
	}
	return d
}
