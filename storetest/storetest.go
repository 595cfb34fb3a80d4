// Package storetest checks that an implementation honours the
// findeck.AccountStore and findeck.KeyValueStorage contracts.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/etnz/findeck"
	"github.com/shopspring/decimal"
)

// AccountStore runs the AccountStore contract against stores built by newStore.
// Each subtest gets a fresh, empty store.
func AccountStore(t *testing.T, newStore func(t *testing.T) findeck.AccountStore) {
	ctx := context.Background()

	t.Run("empty list", func(t *testing.T) {
		s := newStore(t)
		accounts, err := s.List(ctx)
		if err != nil {
			t.Fatalf("List() unexpected error = %v", err)
		}
		if len(accounts) != 0 {
			t.Errorf("List() = %v, want empty", accounts)
		}
	})

	t.Run("create populates id", func(t *testing.T) {
		s := newStore(t)
		a, err := s.Create(ctx, findeck.NewAccount{Name: "Cuenta BCP", Balance: decimal.RequireFromString("1500.50"), Currency: "PEN", Type: findeck.Bank})
		if err != nil {
			t.Fatalf("Create() unexpected error = %v", err)
		}
		if a.ID == "" {
			t.Error("Create() returned an empty ID")
		}
		if a.Created.IsZero() {
			t.Error("Create() returned a zero creation date")
		}
		accounts, err := s.List(ctx)
		if err != nil {
			t.Fatalf("List() unexpected error = %v", err)
		}
		if len(accounts) != 1 {
			t.Fatalf("List() returned %d accounts, want 1", len(accounts))
		}
		got := accounts[0]
		if got.ID != a.ID || got.Name != "Cuenta BCP" || got.Currency != "PEN" || got.Type != findeck.Bank {
			t.Errorf("List()[0] = %+v, want %+v", got, a)
		}
		if !got.Balance.Equal(decimal.RequireFromString("1500.50")) {
			t.Errorf("List()[0].Balance = %v, want 1500.50", got.Balance)
		}
	})

	t.Run("create rejects invalid account", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Create(ctx, findeck.NewAccount{Name: "", Currency: "PEN"})
		if !errors.Is(err, findeck.ErrInvalidAccount) {
			t.Errorf("Create() error = %v, want ErrInvalidAccount", err)
		}
	})

	t.Run("list newest first", func(t *testing.T) {
		s := newStore(t)
		first, err := s.Create(ctx, findeck.NewAccount{Name: "first", Currency: "PEN", Type: findeck.Cash})
		if err != nil {
			t.Fatal(err)
		}
		// creation dates must differ
		time.Sleep(5 * time.Millisecond)
		second, err := s.Create(ctx, findeck.NewAccount{Name: "second", Currency: "BTC", Type: findeck.Crypto})
		if err != nil {
			t.Fatal(err)
		}
		accounts, err := s.List(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if len(accounts) != 2 || accounts[0].ID != second.ID || accounts[1].ID != first.ID {
			t.Errorf("List() order = %v, want [%s %s]", ids(accounts), second.ID, first.ID)
		}
	})

	t.Run("update balance", func(t *testing.T) {
		s := newStore(t)
		a, err := s.Create(ctx, findeck.NewAccount{Name: "wallet", Balance: decimal.NewFromInt(1), Currency: "USD", Type: findeck.Bank})
		if err != nil {
			t.Fatal(err)
		}
		if err := s.UpdateBalance(ctx, a.ID, decimal.RequireFromString("-42.5")); err != nil {
			t.Fatalf("UpdateBalance() unexpected error = %v", err)
		}
		accounts, err := s.List(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if !accounts[0].Balance.Equal(decimal.RequireFromString("-42.5")) {
			t.Errorf("balance = %v, want -42.5", accounts[0].Balance)
		}
	})

	t.Run("update unknown id", func(t *testing.T) {
		s := newStore(t)
		err := s.UpdateBalance(ctx, "missing", decimal.NewFromInt(1))
		if !errors.Is(err, findeck.ErrAccountNotFound) {
			t.Errorf("UpdateBalance() error = %v, want ErrAccountNotFound", err)
		}
	})

	t.Run("delete", func(t *testing.T) {
		s := newStore(t)
		a, err := s.Create(ctx, findeck.NewAccount{Name: "gone", Currency: "PEN", Type: findeck.Cash})
		if err != nil {
			t.Fatal(err)
		}
		if err := s.Delete(ctx, a.ID); err != nil {
			t.Fatalf("Delete() unexpected error = %v", err)
		}
		accounts, err := s.List(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if len(accounts) != 0 {
			t.Errorf("List() after Delete() = %v, want empty", ids(accounts))
		}
		if err := s.Delete(ctx, a.ID); !errors.Is(err, findeck.ErrAccountNotFound) {
			t.Errorf("second Delete() error = %v, want ErrAccountNotFound", err)
		}
	})
}

// KeyValueStorage runs the KeyValueStorage contract against kv.
func KeyValueStorage(t *testing.T, kv findeck.KeyValueStorage) {
	ctx := context.Background()

	if _, err := kv.Get(ctx, "storetest.missing"); !errors.Is(err, findeck.ErrKeyNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrKeyNotFound", err)
	}
	if err := kv.Set(ctx, "storetest.key", []byte("one")); err != nil {
		t.Fatalf("Set() unexpected error = %v", err)
	}
	if err := kv.Set(ctx, "storetest.key", []byte("two")); err != nil {
		t.Fatalf("Set() overwrite unexpected error = %v", err)
	}
	got, err := kv.Get(ctx, "storetest.key")
	if err != nil {
		t.Fatalf("Get() unexpected error = %v", err)
	}
	if string(got) != "two" {
		t.Errorf("Get() = %q, want %q", got, "two")
	}
}

func ids(accounts []findeck.Account) []string {
	var ids []string
	for _, a := range accounts {
		ids = append(ids, a.ID)
	}
	return ids
}
