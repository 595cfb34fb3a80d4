package findeck

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PriceCacheKey is the key slot holding the cached quotes.
const PriceCacheKey = "findeck.prices"

// PriceCache persists the last known Prices under a single key.
//
// The cache is a hint: Load never fails, a missing or corrupt slot reads as
// empty. Save overwrites the slot wholesale.
type PriceCache struct {
	kv     KeyValueStorage
	key    string
	logger *zap.Logger
}

// NewPriceCache returns a cache stored in kv.
func NewPriceCache(kv KeyValueStorage, logger *zap.Logger) *PriceCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PriceCache{kv: kv, key: PriceCacheKey, logger: logger}
}

// priceRecord is the flat persisted form of a Quote.
type priceRecord struct {
	Symbol string          `json:"symbol"`
	Price  decimal.Decimal `json:"price"`
	Change float64         `json:"change"`
}

func (r priceRecord) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("symbol", r.Symbol)
	w.Append("price", r.Price)
	w.Append("change", r.Change)
	return w.MarshalJSON()
}

// encodePrices returns the blob for prices, records sorted by symbol.
func encodePrices(prices Prices) ([]byte, error) {
	records := make([]priceRecord, 0, len(prices))
	for _, symbol := range prices.Symbols() {
		q := prices[symbol]
		records = append(records, priceRecord{Symbol: symbol, Price: q.Price, Change: float64(q.Change)})
	}
	return json.Marshal(records)
}

// decodePrices parses a blob written by encodePrices. Invalid records are dropped.
func decodePrices(blob []byte) (Prices, error) {
	var records []priceRecord
	if err := json.Unmarshal(blob, &records); err != nil {
		return nil, err
	}
	prices := make(Prices, len(records))
	for _, r := range records {
		if r.Symbol == "" || !r.Price.IsPositive() {
			continue
		}
		prices[r.Symbol] = Quote{Symbol: r.Symbol, Price: r.Price, Change: Percent(r.Change)}
	}
	return prices, nil
}

// Save replaces the cached quotes with prices.
func (c *PriceCache) Save(ctx context.Context, prices Prices) error {
	blob, err := encodePrices(prices)
	if err != nil {
		return fmt.Errorf("cannot encode prices: %w", err)
	}
	if err := c.kv.Set(ctx, c.key, blob); err != nil {
		return fmt.Errorf("cannot save prices: %w", err)
	}
	c.logger.Debug("price cache saved", zap.Int("quotes", len(prices)))
	return nil
}

// Load returns the cached quotes, or an empty Prices if there are none.
func (c *PriceCache) Load(ctx context.Context) Prices {
	blob, err := c.kv.Get(ctx, c.key)
	if err != nil {
		if !errors.Is(err, ErrKeyNotFound) {
			c.logger.Warn("price cache unreadable, ignored", zap.Error(err))
		}
		return Prices{}
	}
	prices, err := decodePrices(blob)
	if err != nil {
		c.logger.Warn("price cache corrupt, ignored", zap.Error(err))
		return Prices{}
	}
	return prices
}
