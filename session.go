package findeck

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Session owns the current accounts and prices and keeps a Portfolio
// computed from them.
//
// Every trigger (explicit refresh, accounts changed, prices fetched)
// recomputes the Portfolio from scratch. Price fetches run in the background
// and may race: the last response wins.
type Session struct {
	store   AccountStore
	feed    PriceFeed
	cache   *PriceCache
	opts    Options
	symbols []string
	logger  *zap.Logger

	// writes serializes user actions, so that Adjust reads and writes a
	// balance atomically.
	writes sync.Mutex

	mu        sync.Mutex
	watched   bool // store notifies this session of changes
	accounts  []Account
	prices    Prices
	portfolio Portfolio
	listeners []func(Portfolio)
}

// NewSession returns a session over store and feed. cache may be nil.
func NewSession(store AccountStore, feed PriceFeed, cache *PriceCache, opts Options, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Session{
		store:   store,
		feed:    feed,
		cache:   cache,
		opts:    opts,
		symbols: DefaultSymbols,
		logger:  logger,
		prices:  Prices{},
	}
	s.portfolio = Valuate(nil, s.prices, opts)
	return s
}

// SetSymbols replaces the symbols requested from the feed.
func (s *Session) SetSymbols(symbols []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.symbols = append([]string(nil), symbols...)
}

// Watch subscribes the session to the accounts changed events of n.
func (s *Session) Watch(n *NotifyingStore) {
	s.mu.Lock()
	s.watched = s.watched || AccountStore(n) == s.store
	s.mu.Unlock()
	n.Subscribe(func(ctx context.Context) {
		if err := s.ReloadAccounts(ctx); err != nil {
			s.logger.Warn("cannot reload accounts after change", zap.Error(err))
		}
	})
}

// OnUpdate registers f to be called with every recomputed Portfolio.
func (s *Session) OnUpdate(f func(Portfolio)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, f)
}

// Portfolio returns the latest computed Portfolio.
func (s *Session) Portfolio() Portfolio {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.portfolio
}

// Prices returns a copy of the current quotes.
func (s *Session) Prices() Prices {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prices.Clone()
}

// Options returns the valuation options.
func (s *Session) Options() Options { return s.opts }

// Start paints the portfolio from cached prices, then launches the first
// live fetch. The returned channel is closed when that fetch is over.
func (s *Session) Start(ctx context.Context) (<-chan struct{}, error) {
	if s.cache != nil {
		cached := s.cache.Load(ctx)
		s.logger.Debug("cached prices loaded", zap.Int("quotes", len(cached)))
		s.update(func() { s.prices = cached })
	}
	if err := s.ReloadAccounts(ctx); err != nil {
		return nil, err
	}
	return s.RefreshPrices(ctx), nil
}

// Refresh reloads the accounts and fetches new prices.
func (s *Session) Refresh(ctx context.Context) (<-chan struct{}, error) {
	if err := s.ReloadAccounts(ctx); err != nil {
		return nil, err
	}
	return s.RefreshPrices(ctx), nil
}

// ReloadAccounts lists the accounts again. On failure the previous accounts
// are kept.
func (s *Session) ReloadAccounts(ctx context.Context) error {
	accounts, err := s.store.List(ctx)
	if err != nil {
		return fmt.Errorf("cannot list accounts: %w", err)
	}
	s.update(func() { s.accounts = accounts })
	return nil
}

// RefreshPrices fetches prices in the background. An empty answer keeps the
// current prices. The returned channel is closed once the fetch is over.
func (s *Session) RefreshPrices(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	s.mu.Lock()
	symbols := s.symbols
	s.mu.Unlock()

	go func() {
		defer close(done)
		prices := s.feed.FetchPrices(ctx, symbols)
		if len(prices) == 0 {
			s.logger.Info("no new prices, keeping the previous ones")
			return
		}
		if s.cache != nil {
			if err := s.cache.Save(ctx, prices); err != nil {
				s.logger.Warn("cannot cache prices", zap.Error(err))
			}
		}
		s.update(func() { s.prices = prices })
	}()
	return done
}

// update applies change and recomputes the portfolio under the lock, then
// notifies listeners outside of it.
func (s *Session) update(change func()) {
	s.mu.Lock()
	change()
	s.portfolio = Valuate(s.accounts, s.prices, s.opts)
	p := s.portfolio
	listeners := append([]func(Portfolio){}, s.listeners...)
	s.mu.Unlock()

	if len(p.Unpriced) > 0 {
		s.logger.Warn("accounts excluded from total", zap.Strings("currencies", p.Unpriced))
	}
	for _, f := range listeners {
		f(p)
	}
}

// account returns the current state of the account id.
func (s *Session) account(id string) (Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if a.ID == id {
			return a, nil
		}
	}
	return Account{}, fmt.Errorf("%w: %q", ErrAccountNotFound, id)
}

// Create validates and stores a new account.
func (s *Session) Create(ctx context.Context, a NewAccount) (Account, error) {
	a, err := a.Validate()
	if err != nil {
		return Account{}, err
	}
	s.writes.Lock()
	defer s.writes.Unlock()
	created, err := s.store.Create(ctx, a)
	if err != nil {
		return Account{}, fmt.Errorf("cannot create account %q: %w", a.Name, err)
	}
	s.reloadUnlessWatched(ctx)
	return created, nil
}

// Adjust records an income (added to the balance) or an expense (subtracted).
// It returns the new balance.
func (s *Session) Adjust(ctx context.Context, id string, amount decimal.Decimal, income bool) (decimal.Decimal, error) {
	s.writes.Lock()
	defer s.writes.Unlock()
	a, err := s.account(id)
	if err != nil {
		return decimal.Zero, err
	}
	balance := a.Adjusted(amount, income)
	if err := s.setBalance(ctx, id, balance); err != nil {
		return decimal.Zero, err
	}
	return balance, nil
}

// SetBalance replaces the balance of the account id.
func (s *Session) SetBalance(ctx context.Context, id string, balance decimal.Decimal) error {
	s.writes.Lock()
	defer s.writes.Unlock()
	return s.setBalance(ctx, id, balance)
}

// setBalance must be called with s.writes held. The accounts are reloaded
// before it returns, so the next Adjust starts from balance.
func (s *Session) setBalance(ctx context.Context, id string, balance decimal.Decimal) error {
	if err := s.store.UpdateBalance(ctx, id, balance); err != nil {
		return fmt.Errorf("cannot update balance of %q: %w", id, err)
	}
	s.reloadUnlessWatched(ctx)
	return nil
}

// Delete removes the account id.
func (s *Session) Delete(ctx context.Context, id string) error {
	s.writes.Lock()
	defer s.writes.Unlock()
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("cannot delete %q: %w", id, err)
	}
	s.reloadUnlessWatched(ctx)
	return nil
}

// reloadUnlessWatched refreshes the accounts after a mutation, unless the
// store already notifies this session.
func (s *Session) reloadUnlessWatched(ctx context.Context) {
	s.mu.Lock()
	watched := s.watched
	s.mu.Unlock()
	if watched {
		return
	}
	if err := s.ReloadAccounts(ctx); err != nil {
		s.logger.Warn("cannot reload accounts after change", zap.Error(err))
	}
}
