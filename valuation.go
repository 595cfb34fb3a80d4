package findeck

import (
	"fmt"

	"github.com/shopspring/decimal"
)

const (
	// DefaultHomeCurrency is the currency totals are expressed in.
	DefaultHomeCurrency = "PEN"
	// DefaultFallbackUSDRate is the home-currency price of one USD used only
	// when neither a live nor a cached USD quote exists.
	DefaultFallbackUSDRate = "3.75"
)

// Options parameterizes Valuate.
type Options struct {
	HomeCurrency    string
	FallbackUSDRate decimal.Decimal
}

// DefaultOptions returns the PEN / 3.75 configuration.
func DefaultOptions() Options {
	return Options{
		HomeCurrency:    DefaultHomeCurrency,
		FallbackUSDRate: decimal.RequireFromString(DefaultFallbackUSDRate),
	}
}

// PriceSource tells how an account was converted to the home currency.
type PriceSource int

const (
	SourceNone     PriceSource = iota // currency unknown, contributes zero
	SourceHome                        // already in the home currency
	SourceQuote                       // live or cached quote
	SourceFallback                    // fixed USD rate
)

func (s PriceSource) String() string {
	switch s {
	case SourceHome:
		return "home"
	case SourceQuote:
		return "quote"
	case SourceFallback:
		return "fallback"
	default:
		return "none"
	}
}

func (s PriceSource) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *PriceSource) UnmarshalText(text []byte) error {
	for v := SourceNone; v <= SourceFallback; v++ {
		if v.String() == string(text) {
			*s = v
			return nil
		}
	}
	return fmt.Errorf("unknown price source %q", text)
}

// Trend is the direction of a 24h change.
type Trend int

const (
	Up   Trend = iota // change >= 0
	Down              // change < 0
)

// Trend returns Up for a non-negative change, Down otherwise.
func (p Percent) Trend() Trend {
	if p < 0 {
		return Down
	}
	return Up
}

// Color is the display color of the trend: green or red.
func (t Trend) Color() string {
	if t == Down {
		return "red"
	}
	return "green"
}

func (t Trend) MarshalText() ([]byte, error) { return []byte(t.Color()), nil }

func (t *Trend) UnmarshalText(text []byte) error {
	switch string(text) {
	case "green":
		*t = Up
	case "red":
		*t = Down
	default:
		return fmt.Errorf("unknown trend %q", text)
	}
	return nil
}

// MarketData is the live side of an account view.
//
// When Loading is true no quote is known yet for the account currency and
// the other fields are zero: presentation must show a placeholder.
type MarketData struct {
	Loading bool            `json:"loading"`
	Price   decimal.Decimal `json:"price"`
	Value   Money           `json:"value"`
	Change  Percent         `json:"change"`
	Trend   Trend           `json:"trend"`
}

// AccountView is how one account is presented in a Portfolio.
type AccountView struct {
	Account      Account     `json:"account"`
	Balance      string      `json:"balance"` // display string, 5 digits for crypto, 2 otherwise
	Contribution Money       `json:"contribution"`
	Source       PriceSource `json:"source"`
	MarketData   *MarketData `json:"market_data,omitempty"` // nil when hidden
}

// Portfolio is the derived valuation of a set of accounts. It is never persisted.
type Portfolio struct {
	HomeCurrency string        `json:"home_currency"`
	Total        Money         `json:"total"`
	Accounts     []AccountView `json:"accounts"`
	Unpriced     []string      `json:"unpriced,omitempty"` // currencies excluded from Total
}

// TotalString returns the total rounded to 2 digits.
func (p Portfolio) TotalString() string { return p.Total.Fixed(2) }

// View returns the view of the account id.
func (p Portfolio) View(id string) (AccountView, bool) {
	for _, v := range p.Accounts {
		if v.Account.ID == id {
			return v, true
		}
	}
	return AccountView{}, false
}

// DisplayBalance formats a balance the way accounts of type t show it.
func DisplayBalance(balance decimal.Decimal, t AccountType) string {
	if t == Crypto {
		return balance.StringFixed(5)
	}
	return balance.StringFixed(2)
}

// ShowsMarketData reports whether an account displays live price and change.
func ShowsMarketData(a Account) bool {
	return a.Type == Crypto || a.Currency == USD
}

// Valuate converts every account into opts.HomeCurrency and sums them.
//
// Each account contributes, in order of preference: its balance when already
// in the home currency, balance × quoted price, balance × the fallback rate
// for USD, or zero. Currencies contributing zero are listed in Unpriced.
//
// Valuate is pure: it performs no I/O and the same inputs yield the same Portfolio.
func Valuate(accounts []Account, prices Prices, opts Options) Portfolio {
	home := opts.HomeCurrency
	p := Portfolio{
		HomeCurrency: home,
		Total:        M(0, home),
		Accounts:     make([]AccountView, 0, len(accounts)),
	}
	unpriced := make(map[string]bool)

	for _, a := range accounts {
		view := AccountView{
			Account: a,
			Balance: DisplayBalance(a.Balance, a.Type),
		}
		quote, quoted := prices[a.Currency]

		switch {
		case a.Currency == home:
			view.Contribution = M(a.Balance, home)
			view.Source = SourceHome
		case quoted:
			view.Contribution = M(a.Balance.Mul(quote.Price), home)
			view.Source = SourceQuote
		case a.Currency == USD:
			view.Contribution = M(a.Balance.Mul(opts.FallbackUSDRate), home)
			view.Source = SourceFallback
		default:
			view.Contribution = M(0, home)
			view.Source = SourceNone
			if !unpriced[a.Currency] {
				unpriced[a.Currency] = true
				p.Unpriced = append(p.Unpriced, a.Currency)
			}
		}

		if ShowsMarketData(a) {
			md := &MarketData{Loading: true}
			if quoted {
				md = &MarketData{
					Price:  quote.Price,
					Value:  M(a.Balance.Mul(quote.Price), home),
					Change: quote.Change,
					Trend:  quote.Change.Trend(),
				}
			}
			view.MarketData = md
		}

		p.Total = p.Total.Add(view.Contribution)
		p.Accounts = append(p.Accounts, view)
	}
	return p
}
