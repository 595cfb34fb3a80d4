package findeck

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// fakeStore is an in-memory AccountStore. While err is set every call fails with it.
type fakeStore struct {
	mu       sync.Mutex
	accounts []Account // newest first
	next     int
	lists    int
	err      error
	delay    time.Duration // slows down UpdateBalance
}

func (s *fakeStore) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func (s *fakeStore) List(context.Context) ([]Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lists++
	if s.err != nil {
		return nil, s.err
	}
	return append([]Account(nil), s.accounts...), nil
}

func (s *fakeStore) Create(_ context.Context, n NewAccount) (Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return Account{}, s.err
	}
	n, err := n.Validate()
	if err != nil {
		return Account{}, err
	}
	s.next++
	a := Account{
		ID:       fmt.Sprintf("a%d", s.next),
		Name:     n.Name,
		Balance:  n.Balance,
		Currency: n.Currency,
		Type:     n.Type,
		Created:  time.Date(2025, 1, 1, 0, s.next, 0, 0, time.UTC),
	}
	s.accounts = append([]Account{a}, s.accounts...)
	return a, nil
}

func (s *fakeStore) UpdateBalance(_ context.Context, id string, balance decimal.Decimal) error {
	time.Sleep(s.delay)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	for i := range s.accounts {
		if s.accounts[i].ID == id {
			s.accounts[i].Balance = balance
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrAccountNotFound, id)
}

func (s *fakeStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	for i := range s.accounts {
		if s.accounts[i].ID == id {
			s.accounts = append(s.accounts[:i], s.accounts[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrAccountNotFound, id)
}

// fakeKV is a KeyValueStorage in a map. While err is set every call fails with it.
type fakeKV struct {
	mu   sync.Mutex
	data map[string][]byte
	err  error
}

func newFakeKV() *fakeKV { return &fakeKV{data: make(map[string][]byte)} }

func (kv *fakeKV) Get(_ context.Context, key string) ([]byte, error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	if kv.err != nil {
		return nil, kv.err
	}
	v, ok := kv.data[key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return append([]byte(nil), v...), nil
}

func (kv *fakeKV) Set(_ context.Context, key string, value []byte) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	if kv.err != nil {
		return kv.err
	}
	kv.data[key] = append([]byte(nil), value...)
	return nil
}

// fakeFeed returns its prices and records the symbols it was asked for.
// When release is not nil, FetchPrices waits for it before answering.
type fakeFeed struct {
	mu      sync.Mutex
	prices  Prices
	asked   [][]string
	release chan struct{}
}

func (f *fakeFeed) FetchPrices(_ context.Context, symbols []string) Prices {
	if f.release != nil {
		<-f.release
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.asked = append(f.asked, symbols)
	return f.prices.Clone()
}

func (f *fakeFeed) set(prices Prices) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prices = prices
}

// quote is a helper to create a Quote from const.
func quote(symbol, price string, change float64) Quote {
	return Quote{Symbol: symbol, Price: decimal.RequireFromString(price), Change: Percent(change)}
}

// account is a helper to create a persisted Account from const.
func account(id, currency, balance string, t AccountType) Account {
	return Account{ID: id, Name: id, Balance: decimal.RequireFromString(balance), Currency: currency, Type: t}
}

// PEN is a helper for test to create home currency money from const.
func PEN(v string) Money { return M(decimal.RequireFromString(v), "PEN") }
