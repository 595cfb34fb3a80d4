package localstore

import (
	"context"
	"testing"

	"github.com/etnz/findeck"
	"github.com/etnz/findeck/storetest"
	"github.com/shopspring/decimal"
)

func setupTestDB(t *testing.T) *Store {
	t.Helper()

	s, err := Open(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("failed to create test DB: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore(t *testing.T) {
	storetest.AccountStore(t, func(t *testing.T) findeck.AccountStore { return setupTestDB(t) })
}

func TestStore_KeyValue(t *testing.T) {
	storetest.KeyValueStorage(t, setupTestDB(t))
}

func TestStore_Reopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := Open(dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	created, err := s.Create(ctx, findeck.NewAccount{Name: "Bitcoin Wallet", Balance: decimal.RequireFromString("0.05"), Currency: "btc", Type: findeck.Crypto})
	if err != nil {
		t.Fatal(err)
	}
	cache := findeck.NewPriceCache(s, nil)
	if err := cache.Save(ctx, findeck.Prices{"BTC": {Symbol: "BTC", Price: decimal.NewFromInt(150000), Change: 1.5}}); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	s, err = Open(dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	accounts, err := s.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(accounts) != 1 || accounts[0].ID != created.ID || accounts[0].Currency != "BTC" {
		t.Errorf("List() after reopen = %+v, want the created BTC account", accounts)
	}
	prices := findeck.NewPriceCache(s, nil).Load(ctx)
	if q, ok := prices["BTC"]; !ok || !q.Price.Equal(decimal.NewFromInt(150000)) {
		t.Errorf("cached BTC after reopen = %+v, want 150000", q)
	}
}
