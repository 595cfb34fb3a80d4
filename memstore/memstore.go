// Package memstore keeps accounts and cached prices in memory.
//
// It is the backend of `findeck -store=memory` and of tests.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/etnz/findeck"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Store implements findeck.AccountStore and findeck.KeyValueStorage.
type Store struct {
	mu       sync.Mutex
	accounts map[string]findeck.Account
	kv       map[string][]byte
	now      func() time.Time
}

// New returns an empty store.
func New() *Store {
	return &Store{
		accounts: make(map[string]findeck.Account),
		kv:       make(map[string][]byte),
		now:      time.Now,
	}
}

func (s *Store) List(_ context.Context) ([]findeck.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	accounts := make([]findeck.Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		accounts = append(accounts, a)
	}
	sort.SliceStable(accounts, func(i, j int) bool {
		if accounts[i].Created.Equal(accounts[j].Created) {
			return accounts[i].ID < accounts[j].ID
		}
		return accounts[i].Created.After(accounts[j].Created)
	})
	return accounts, nil
}

func (s *Store) Create(_ context.Context, n findeck.NewAccount) (findeck.Account, error) {
	n, err := n.Validate()
	if err != nil {
		return findeck.Account{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a := findeck.Account{
		ID:       uuid.NewString(),
		Name:     n.Name,
		Balance:  n.Balance,
		Currency: n.Currency,
		Type:     n.Type,
		Created:  s.now(),
	}
	s.accounts[a.ID] = a
	return a, nil
}

func (s *Store) UpdateBalance(_ context.Context, id string, balance decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return fmt.Errorf("%w: %q", findeck.ErrAccountNotFound, id)
	}
	a.Balance = balance
	s.accounts[id] = a
	return nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[id]; !ok {
		return fmt.Errorf("%w: %q", findeck.ErrAccountNotFound, id)
	}
	delete(s.accounts, id)
	return nil
}

func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.kv[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", findeck.ErrKeyNotFound, key)
	}
	return append([]byte(nil), v...), nil
}

func (s *Store) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.kv[key] = append([]byte(nil), value...)
	return nil
}
