package findeck

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// USD is the fiat symbol priced through a stablecoin proxy.
const USD = "USD"

// Percent is a percentage, 0.5 means 0.5%.
type Percent float64

func (p Percent) String() string {
	return fmt.Sprintf("%.2f%%", float64(p))
}

// SignedString always shows the sign, "+0.00%" included.
func (p Percent) SignedString() string {
	return fmt.Sprintf("%+.2f%%", float64(p))
}

// Quote is the price of one unit of Symbol, expressed in the home currency,
// and its change over the last 24 hours.
type Quote struct {
	Symbol string          `json:"symbol"`
	Price  decimal.Decimal `json:"price"`
	Change Percent         `json:"change"`
}

// Prices maps a symbol to its latest known quote.
type Prices map[string]Quote

// Symbols returns the sorted list of quoted symbols.
func (p Prices) Symbols() []string {
	symbols := make([]string, 0, len(p))
	for s := range p {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	return symbols
}

// Clone returns a copy of p that is safe to hand out.
func (p Prices) Clone() Prices {
	c := make(Prices, len(p))
	for k, v := range p {
		c[k] = v
	}
	return c
}

// PriceFeed fetches the current quotes for symbols.
//
// Implementations never fail: a transport or decoding problem is reported as
// an empty Prices, meaning "no new data".
type PriceFeed interface {
	FetchPrices(ctx context.Context, symbols []string) Prices
}

// DefaultSymbols are the symbols fetched when none are configured. USD is
// quoted through USDT.
var DefaultSymbols = []string{"BTC", "ETH", "SOL", "USDT", USD}

// Offline is a PriceFeed that never has new data, leaving a Session on its
// cached prices.
var Offline PriceFeed = offlineFeed{}

type offlineFeed struct{}

func (offlineFeed) FetchPrices(context.Context, []string) Prices { return Prices{} }
