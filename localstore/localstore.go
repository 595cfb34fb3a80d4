// Package localstore keeps accounts and cached prices in a local embedded
// database (BadgerDB, through badgerhold).
package localstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/etnz/findeck"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/timshannon/badgerhold/v4"
	"go.uber.org/zap"
)

// accountRecord is the persisted form of an account.
type accountRecord struct {
	ID           string `badgerhold:"key"`
	Name         string
	Balance      string
	Currency     string
	Type         string
	CreationDate time.Time
}

// kvEntry is a key-value pair.
type kvEntry struct {
	Key   string `badgerhold:"key"`
	Value []byte
}

// Store implements findeck.AccountStore and findeck.KeyValueStorage.
type Store struct {
	db     *badgerhold.Store
	logger *zap.Logger
	now    func() time.Time
}

// Open opens (or creates) the database in dir.
func Open(dir string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	logger.Debug("opening Badger database", zap.String("path", dir))

	options := badgerhold.DefaultOptions
	options.Dir = dir
	options.ValueDir = dir
	options.Logger = nil // Disable default badger logger

	db, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}
	return &Store{db: db, logger: logger, now: time.Now}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func toAccount(r accountRecord) (findeck.Account, error) {
	balance, err := decimal.NewFromString(r.Balance)
	if err != nil {
		return findeck.Account{}, fmt.Errorf("account %s has an invalid balance %q: %w", r.ID, r.Balance, err)
	}
	typ, err := findeck.ParseAccountType(r.Type)
	if err != nil {
		return findeck.Account{}, fmt.Errorf("account %s: %w", r.ID, err)
	}
	return findeck.Account{
		ID:       r.ID,
		Name:     r.Name,
		Balance:  balance,
		Currency: r.Currency,
		Type:     typ,
		Created:  r.CreationDate,
	}, nil
}

func (s *Store) List(_ context.Context) ([]findeck.Account, error) {
	var records []accountRecord
	if err := s.db.Find(&records, nil); err != nil {
		return nil, fmt.Errorf("failed to read accounts: %w", err)
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreationDate.After(records[j].CreationDate)
	})

	accounts := make([]findeck.Account, 0, len(records))
	for _, r := range records {
		a, err := toAccount(r)
		if err != nil {
			// one bad record must not hide the others
			s.logger.Warn("skipping unreadable account", zap.Error(err))
			continue
		}
		accounts = append(accounts, a)
	}
	return accounts, nil
}

func (s *Store) Create(_ context.Context, n findeck.NewAccount) (findeck.Account, error) {
	n, err := n.Validate()
	if err != nil {
		return findeck.Account{}, err
	}
	r := accountRecord{
		ID:           uuid.NewString(),
		Name:         n.Name,
		Balance:      n.Balance.String(),
		Currency:     n.Currency,
		Type:         n.Type.String(),
		CreationDate: s.now(),
	}
	if err := s.db.Insert(r.ID, &r); err != nil {
		return findeck.Account{}, fmt.Errorf("failed to insert account: %w", err)
	}
	s.logger.Debug("account created", zap.String("id", r.ID), zap.String("name", r.Name))
	return toAccount(r)
}

func (s *Store) UpdateBalance(_ context.Context, id string, balance decimal.Decimal) error {
	var r accountRecord
	if err := s.db.Get(id, &r); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return fmt.Errorf("%w: %q", findeck.ErrAccountNotFound, id)
		}
		return fmt.Errorf("failed to get account %s: %w", id, err)
	}
	r.Balance = balance.String()
	if err := s.db.Update(id, &r); err != nil {
		return fmt.Errorf("failed to update account %s: %w", id, err)
	}
	return nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	err := s.db.Delete(id, accountRecord{})
	if errors.Is(err, badgerhold.ErrNotFound) {
		return fmt.Errorf("%w: %q", findeck.ErrAccountNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("failed to delete account %s: %w", id, err)
	}
	return nil
}

// Get retrieves a value by key.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	var entry kvEntry
	err := s.db.Get(key, &entry)
	if err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", findeck.ErrKeyNotFound, key)
		}
		return nil, fmt.Errorf("failed to get key %s: %w", key, err)
	}
	return entry.Value, nil
}

// Set stores a key-value pair.
func (s *Store) Set(_ context.Context, key string, value []byte) error {
	entry := kvEntry{Key: key, Value: value}
	if err := s.db.Upsert(key, &entry); err != nil {
		return fmt.Errorf("failed to set key %s: %w", key, err)
	}
	return nil
}
