package findeck

import (
	"context"
	"errors"
	"sync"

	"github.com/shopspring/decimal"
)

// AccountStore is the persistence capability the core depends on.
//
// Implementations must return accounts newest first, always populate the ID
// of a created account, and return an error wrapping ErrAccountNotFound
// when UpdateBalance or Delete target an unknown id.
type AccountStore interface {
	List(ctx context.Context) ([]Account, error)
	Create(ctx context.Context, a NewAccount) (Account, error)
	UpdateBalance(ctx context.Context, id string, balance decimal.Decimal) error
	Delete(ctx context.Context, id string) error
}

// ErrKeyNotFound is returned by KeyValueStorage.Get for a missing key.
var ErrKeyNotFound = errors.New("key not found")

// KeyValueStorage provides a single-slot-per-key blob storage.
type KeyValueStorage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// NotifyingStore wraps an AccountStore and tells subscribers every time the
// accounts have changed. Failed mutations are not notified.
type NotifyingStore struct {
	AccountStore

	mu        sync.Mutex
	listeners []func(context.Context)
}

// NewNotifyingStore wraps store.
func NewNotifyingStore(store AccountStore) *NotifyingStore {
	return &NotifyingStore{AccountStore: store}
}

// Subscribe registers f to be called after each successful mutation.
func (s *NotifyingStore) Subscribe(f func(context.Context)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, f)
}

func (s *NotifyingStore) changed(ctx context.Context) {
	s.mu.Lock()
	listeners := append([]func(context.Context){}, s.listeners...)
	s.mu.Unlock()
	for _, f := range listeners {
		f(ctx)
	}
}

func (s *NotifyingStore) Create(ctx context.Context, a NewAccount) (Account, error) {
	created, err := s.AccountStore.Create(ctx, a)
	if err != nil {
		return created, err
	}
	s.changed(ctx)
	return created, nil
}

func (s *NotifyingStore) UpdateBalance(ctx context.Context, id string, balance decimal.Decimal) error {
	if err := s.AccountStore.UpdateBalance(ctx, id, balance); err != nil {
		return err
	}
	s.changed(ctx)
	return nil
}

func (s *NotifyingStore) Delete(ctx context.Context, id string) error {
	if err := s.AccountStore.Delete(ctx, id); err != nil {
		return err
	}
	s.changed(ctx)
	return nil
}

// Seed creates the demo accounts when store is empty. It returns the number
// of accounts created.
func Seed(ctx context.Context, store AccountStore) (int, error) {
	accounts, err := store.List(ctx)
	if err != nil {
		return 0, err
	}
	if len(accounts) > 0 {
		return 0, nil
	}
	demo := []NewAccount{
		{Name: "Cuenta BCP", Balance: decimal.RequireFromString("1500.50"), Currency: "PEN", Type: Bank},
		{Name: "Efectivo", Balance: decimal.RequireFromString("200.00"), Currency: "PEN", Type: Cash},
		{Name: "Bitcoin Wallet", Balance: decimal.RequireFromString("0.05"), Currency: "BTC", Type: Crypto},
	}
	for i, a := range demo {
		if _, err := store.Create(ctx, a); err != nil {
			return i, err
		}
	}
	return len(demo), nil
}
