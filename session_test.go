package findeck

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
)

func TestSession_Start(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{}
	if _, err := store.Create(ctx, NewAccount{Name: "Bitcoin Wallet", Balance: decimal.RequireFromString("0.05"), Currency: "BTC", Type: Crypto}); err != nil {
		t.Fatal(err)
	}
	kv := newFakeKV()
	cache := NewPriceCache(kv, nil)
	if err := cache.Save(ctx, Prices{"BTC": quote("BTC", "100000", -1)}); err != nil {
		t.Fatal(err)
	}
	feed := &fakeFeed{prices: Prices{"BTC": quote("BTC", "200000", 2)}, release: make(chan struct{})}

	s := NewSession(store, feed, cache, DefaultOptions(), nil)
	s.SetSymbols([]string{"BTC"})
	done, err := s.Start(ctx)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	// the fetch is pending: the cached quote is used
	if got := s.Portfolio().TotalString(); got != "5000.00" {
		t.Errorf("total from cache = %s, want 5000.00", got)
	}
	if md := s.Portfolio().Accounts[0].MarketData; md == nil || md.Trend != Down {
		t.Errorf("market data from cache = %+v, want a down trend", md)
	}

	close(feed.release)
	<-done

	if got := s.Portfolio().TotalString(); got != "10000.00" {
		t.Errorf("total after fetch = %s, want 10000.00", got)
	}
	if diff := cmp.Diff(feed.prices, cache.Load(ctx)); diff != "" {
		t.Errorf("cache after fetch mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([][]string{{"BTC"}}, feed.asked); diff != "" {
		t.Errorf("symbols asked mismatch (-want +got):\n%s", diff)
	}
}

func TestSession_StartWithoutData(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{}
	if _, err := store.Create(ctx, NewAccount{Name: "Ether", Balance: decimal.NewFromInt(1), Currency: "ETH", Type: Crypto}); err != nil {
		t.Fatal(err)
	}
	s := NewSession(store, Offline, NewPriceCache(newFakeKV(), nil), DefaultOptions(), nil)
	done, err := s.Start(ctx)
	if err != nil {
		t.Fatal(err)
	}
	<-done

	p := s.Portfolio()
	if !p.Total.IsZero() {
		t.Errorf("total = %v, want 0", p.Total.Value())
	}
	if md := p.Accounts[0].MarketData; md == nil || !md.Loading {
		t.Errorf("market data = %+v, want loading", md)
	}
	if diff := cmp.Diff([]string{"ETH"}, p.Unpriced); diff != "" {
		t.Errorf("unpriced mismatch (-want +got):\n%s", diff)
	}
}

func TestSession_StartFailure(t *testing.T) {
	store := &fakeStore{}
	store.fail(errors.New("offline"))
	s := NewSession(store, Offline, nil, DefaultOptions(), nil)
	if _, err := s.Start(context.Background()); !errors.Is(err, store.err) {
		t.Errorf("Start() error = %v, want %v", err, store.err)
	}
}

func TestSession_RefreshPrices(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{}
	if _, err := store.Create(ctx, NewAccount{Name: "Dollars", Balance: decimal.NewFromInt(10), Currency: "USD"}); err != nil {
		t.Fatal(err)
	}
	kv := newFakeKV()
	feed := &fakeFeed{prices: Prices{"USD": quote("USD", "3.70", 0.5)}}
	s := NewSession(store, feed, NewPriceCache(kv, nil), DefaultOptions(), nil)
	if err := s.ReloadAccounts(ctx); err != nil {
		t.Fatal(err)
	}
	if got := s.Portfolio().TotalString(); got != "37.50" {
		t.Errorf("total before fetch = %s, want 37.50 (fallback rate)", got)
	}

	<-s.RefreshPrices(ctx)
	if got := s.Portfolio().TotalString(); got != "37.00" {
		t.Errorf("total after fetch = %s, want 37.00", got)
	}

	// an empty answer keeps the current prices and the cache
	feed.set(Prices{})
	before := append([]byte(nil), kv.data[PriceCacheKey]...)
	<-s.RefreshPrices(ctx)
	if got := s.Portfolio().TotalString(); got != "37.00" {
		t.Errorf("total after an empty fetch = %s, want 37.00", got)
	}
	if diff := cmp.Diff(Prices{"USD": quote("USD", "3.70", 0.5)}, s.Prices()); diff != "" {
		t.Errorf("prices after an empty fetch mismatch (-want +got):\n%s", diff)
	}
	if string(kv.data[PriceCacheKey]) != string(before) {
		t.Errorf("cache rewritten by an empty fetch: %s", kv.data[PriceCacheKey])
	}
}

func TestSession_CacheFailureKeepsPrices(t *testing.T) {
	ctx := context.Background()
	kv := newFakeKV()
	kv.err = errors.New("read-only")
	feed := &fakeFeed{prices: Prices{"BTC": quote("BTC", "1", 0)}}
	s := NewSession(&fakeStore{}, feed, NewPriceCache(kv, nil), DefaultOptions(), nil)
	<-s.RefreshPrices(ctx)
	if _, ok := s.Prices()["BTC"]; !ok {
		t.Errorf("prices = %v, want BTC despite the cache failure", s.Prices())
	}
}

func TestSession_Mutations(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{}
	s := NewSession(store, Offline, nil, DefaultOptions(), nil)

	var updates int
	s.OnUpdate(func(Portfolio) { updates++ })

	a, err := s.Create(ctx, NewAccount{Name: " Cuenta BCP ", Balance: decimal.NewFromInt(100), Currency: "pen"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if a.Name != "Cuenta BCP" || a.Currency != "PEN" {
		t.Errorf("Create() = %+v, want a normalized account", a)
	}
	if got := s.Portfolio().TotalString(); got != "100.00" {
		t.Errorf("total after create = %s, want 100.00", got)
	}

	balance, err := s.Adjust(ctx, a.ID, decimal.RequireFromString("20.5"), true)
	if err != nil || !balance.Equal(decimal.RequireFromString("120.5")) {
		t.Errorf("Adjust(income) = %v, %v; want 120.5", balance, err)
	}
	balance, err = s.Adjust(ctx, a.ID, decimal.NewFromInt(200), false)
	if err != nil || !balance.Equal(decimal.RequireFromString("-79.5")) {
		t.Errorf("Adjust(expense) = %v, %v; want -79.5", balance, err)
	}
	if got := s.Portfolio().TotalString(); got != "-79.50" {
		t.Errorf("total after adjust = %s, want -79.50", got)
	}

	if err := s.SetBalance(ctx, a.ID, decimal.NewFromInt(5)); err != nil {
		t.Fatal(err)
	}
	if got := s.Portfolio().TotalString(); got != "5.00" {
		t.Errorf("total after set balance = %s, want 5.00", got)
	}

	if err := s.Delete(ctx, a.ID); err != nil {
		t.Fatal(err)
	}
	if p := s.Portfolio(); len(p.Accounts) != 0 || !p.Total.IsZero() {
		t.Errorf("portfolio after delete = %+v, want empty", p)
	}
	if updates != 5 {
		t.Errorf("OnUpdate called %d times, want 5", updates)
	}
}

func TestSession_MutationErrors(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{}
	s := NewSession(store, Offline, nil, DefaultOptions(), nil)
	a, err := s.Create(ctx, NewAccount{Name: "Efectivo", Balance: decimal.NewFromInt(50), Currency: "PEN", Type: Cash})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := s.Create(ctx, NewAccount{Name: "", Currency: "PEN"}); !errors.Is(err, ErrInvalidAccount) {
		t.Errorf("Create(no name) error = %v, want ErrInvalidAccount", err)
	}
	if _, err := s.Adjust(ctx, "missing", decimal.NewFromInt(1), true); !errors.Is(err, ErrAccountNotFound) {
		t.Errorf("Adjust(missing) error = %v, want ErrAccountNotFound", err)
	}
	if err := s.SetBalance(ctx, "missing", decimal.NewFromInt(1)); !errors.Is(err, ErrAccountNotFound) {
		t.Errorf("SetBalance(missing) error = %v, want ErrAccountNotFound", err)
	}
	if err := s.Delete(ctx, "missing"); !errors.Is(err, ErrAccountNotFound) {
		t.Errorf("Delete(missing) error = %v, want ErrAccountNotFound", err)
	}

	store.fail(errors.New("write failed"))
	if _, err := s.Adjust(ctx, a.ID, decimal.NewFromInt(10), true); !errors.Is(err, store.err) {
		t.Errorf("Adjust() error = %v, want %v", err, store.err)
	}
	if err := s.ReloadAccounts(ctx); err == nil {
		t.Error("ReloadAccounts() expected an error")
	}

	// nothing above reached the portfolio
	if got := s.Portfolio().TotalString(); got != "50.00" {
		t.Errorf("total = %s, want 50.00", got)
	}
}

func TestSession_ConcurrentAdjust(t *testing.T) {
	tests := []struct {
		name  string
		watch bool
	}{
		{"reload after each write", false},
		{"reload on change events", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			inner := &fakeStore{delay: time.Millisecond}
			var store AccountStore = inner
			notifying := NewNotifyingStore(inner)
			if tt.watch {
				store = notifying
			}
			s := NewSession(store, Offline, nil, DefaultOptions(), nil)
			if tt.watch {
				s.Watch(notifying)
			}
			a, err := s.Create(ctx, NewAccount{Name: "Efectivo", Currency: "PEN", Type: Cash})
			if err != nil {
				t.Fatal(err)
			}

			var wg sync.WaitGroup
			for i := 0; i < 100; i++ {
				wg.Add(1)
				go func(income bool) {
					defer wg.Done()
					if _, err := s.Adjust(ctx, a.ID, decimal.NewFromInt(2), income); err != nil {
						t.Error(err)
					}
				}(i%4 != 0)
			}
			wg.Wait()

			// 75 incomes and 25 expenses of 2
			if got := s.Portfolio().TotalString(); got != "100.00" {
				t.Errorf("total = %s, want 100.00", got)
			}
			accounts, _ := inner.List(ctx)
			if !accounts[0].Balance.Equal(decimal.NewFromInt(100)) {
				t.Errorf("stored balance = %v, want 100", accounts[0].Balance)
			}
		})
	}
}

func TestSession_Watch(t *testing.T) {
	ctx := context.Background()
	inner := &fakeStore{}
	store := NewNotifyingStore(inner)
	s := NewSession(store, Offline, nil, DefaultOptions(), nil)
	s.Watch(store)

	// a change made by another writer on the same store is seen
	if _, err := store.Create(ctx, NewAccount{Name: "Wallet", Balance: decimal.NewFromInt(7), Currency: "PEN"}); err != nil {
		t.Fatal(err)
	}
	if got := s.Portfolio().TotalString(); got != "7.00" {
		t.Errorf("total after a notified create = %s, want 7.00", got)
	}

	// mutations through the session reload once, through the event
	lists := inner.lists
	if _, err := s.Create(ctx, NewAccount{Name: "Other", Balance: decimal.NewFromInt(3), Currency: "PEN"}); err != nil {
		t.Fatal(err)
	}
	if n := inner.lists - lists; n != 1 {
		t.Errorf("accounts listed %d times after a create, want 1", n)
	}
	if got := s.Portfolio().TotalString(); got != "10.00" {
		t.Errorf("total = %s, want 10.00", got)
	}

	// failed mutations are not notified
	lists = inner.lists
	if err := store.Delete(ctx, "missing"); !errors.Is(err, ErrAccountNotFound) {
		t.Errorf("Delete(missing) error = %v", err)
	}
	if inner.lists != lists {
		t.Error("a failed delete was notified")
	}
}

func TestNotifyingStore(t *testing.T) {
	ctx := context.Background()
	store := NewNotifyingStore(&fakeStore{})
	var events int
	store.Subscribe(func(context.Context) { events++ })
	store.Subscribe(func(context.Context) { events++ })

	a, err := store.Create(ctx, NewAccount{Name: "x", Currency: "PEN"})
	if err != nil {
		t.Fatal(err)
	}
	if err := store.UpdateBalance(ctx, a.ID, decimal.NewFromInt(1)); err != nil {
		t.Fatal(err)
	}
	if err := store.UpdateBalance(ctx, "missing", decimal.NewFromInt(1)); err == nil {
		t.Error("UpdateBalance(missing) expected an error")
	}
	if _, err := store.Create(ctx, NewAccount{Currency: "PEN"}); err == nil {
		t.Error("Create(no name) expected an error")
	}
	if err := store.Delete(ctx, a.ID); err != nil {
		t.Fatal(err)
	}
	if events != 6 {
		t.Errorf("%d events, want 6 (3 mutations, 2 subscribers)", events)
	}
}

func TestSeed(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{}
	n, err := Seed(ctx, store)
	if err != nil || n != 3 {
		t.Fatalf("Seed() = %d, %v; want 3", n, err)
	}
	accounts, _ := store.List(ctx)
	p := Valuate(accounts, Prices{"BTC": quote("BTC", "200000", 0)}, DefaultOptions())
	if got := p.TotalString(); got != "11700.50" {
		t.Errorf("seeded total = %s, want 11700.50", got)
	}

	// a non-empty store is left alone
	if n, err := Seed(ctx, store); err != nil || n != 0 {
		t.Errorf("second Seed() = %d, %v; want 0", n, err)
	}
}
