// Package coingecko implements findeck.PriceFeed on top of the CoinGecko
// "simple price" API.
package coingecko

import (
	"context"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strings"

	"github.com/etnz/findeck"
	"go.uber.org/zap"
)

// DefaultBaseURL is the public CoinGecko API.
const DefaultBaseURL = "https://api.coingecko.com/api/v3"

// DefaultAssets maps the symbols findeck knows to CoinGecko asset ids.
var DefaultAssets = map[string]string{
	"BTC":  "bitcoin",
	"ETH":  "ethereum",
	"SOL":  "solana",
	"USDT": "tether",
}

// Client fetches quotes from CoinGecko. The zero value is not usable, use New.
type Client struct {
	baseURL string
	apiKey  string
	home    string
	assets  map[string]string
	client  *http.Client
	logger  *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides DefaultBaseURL.
func WithBaseURL(u string) Option { return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") } }

// WithAPIKey sets the demo API key sent with each request.
func WithAPIKey(key string) Option { return func(c *Client) { c.apiKey = key } }

// WithHTTPClient sets the http.Client used for requests.
func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.client = hc } }

func WithLogger(l *zap.Logger) Option { return func(c *Client) { c.logger = l } }

// WithHomeCurrency sets the currency quotes are denominated in.
func WithHomeCurrency(cur string) Option { return func(c *Client) { c.home = cur } }

// WithAssets replaces the symbol to asset id table.
func WithAssets(assets map[string]string) Option {
	return func(c *Client) { c.assets = assets }
}

// New returns a Client. Without WithAPIKey the key is read from the
// COINGECKO_API_KEY environment variable, if set.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  os.Getenv("COINGECKO_API_KEY"),
		home:    findeck.DefaultHomeCurrency,
		assets:  DefaultAssets,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	if c.client == nil {
		c.client = new(http.Client)
	}
	c.client = withRequestLog(c.client, c.logger)
	return c
}

// assetIDs returns the sorted, deduplicated asset ids needed to quote symbols.
func (c *Client) assetIDs(symbols []string) []string {
	seen := make(map[string]bool)
	var ids []string
	add := func(id string) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for _, s := range symbols {
		s = strings.ToUpper(s)
		if s == findeck.USD {
			// USD is quoted through tether
			s = "USDT"
		}
		id, ok := c.assets[s]
		if !ok {
			c.logger.Debug("no coingecko asset for symbol", zap.String("symbol", s))
			continue
		}
		add(id)
	}
	sort.Strings(ids)
	return ids
}

// priceURL returns the simple price endpoint for ids.
func (c *Client) priceURL(ids []string) string {
	q := url.Values{}
	q.Set("ids", strings.Join(ids, ","))
	q.Set("vs_currencies", strings.ToLower(c.home))
	q.Set("include_24hr_change", "true")
	return c.baseURL + "/simple/price?" + q.Encode()
}

// FetchPrices returns the latest quotes of symbols in the home currency.
//
// Failures are logged and yield an empty Prices: a quote missing from the
// result means "no quote".
func (c *Client) FetchPrices(ctx context.Context, symbols []string) findeck.Prices {
	prices := make(findeck.Prices)
	ids := c.assetIDs(symbols)
	if len(ids) == 0 {
		return prices
	}

	var jobj any
	if err := jwget(ctx, c.client, c.priceURL(ids), c.headers(), &jobj); err != nil {
		c.logger.Warn("cannot fetch prices", zap.Strings("ids", ids), zap.Error(err))
		return prices
	}

	vs := strings.ToLower(c.home)
	for symbol, id := range c.assets {
		if !contains(ids, id) {
			continue
		}
		q, err := extractQuote(jobj, symbol, id, vs)
		if err != nil {
			c.logger.Debug("no quote", zap.String("symbol", symbol), zap.Error(err))
			continue
		}
		prices[symbol] = q
	}

	if q, ok := prices["USDT"]; ok {
		q.Symbol = findeck.USD
		prices[findeck.USD] = q
	}
	c.logger.Debug("prices fetched", zap.Int("count", len(prices)))
	return prices
}

func (c *Client) headers() http.Header {
	h := make(http.Header)
	h.Set("Accept", "application/json")
	if c.apiKey != "" {
		h.Set("x-cg-demo-api-key", c.apiKey)
	}
	return h
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

var _ findeck.PriceFeed = (*Client)(nil)
