package coingecko

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/PaesslerAG/jsonpath"
	"github.com/etnz/findeck"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// requestLog logs every round trip at debug level.
type requestLog struct {
	base   http.RoundTripper
	logger *zap.Logger
}

func (l *requestLog) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := l.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	l.logger.Debug("http",
		zap.String("method", req.Method),
		zap.String("host", req.URL.Host),
		zap.String("path", req.URL.Path),
		zap.String("status", resp.Status))
	return resp, nil
}

// withRequestLog returns a copy of client whose transport logs requests.
func withRequestLog(client *http.Client, logger *zap.Logger) *http.Client {
	c := *client
	base := c.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	c.Transport = &requestLog{base: base, logger: logger}
	return &c
}

// jwget performs an HTTP GET request to the given address and unmarshals the
// JSON response body into data. Numbers are decoded as json.Number.
func jwget(ctx context.Context, client *http.Client, addr string, header http.Header, data any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return err
	}
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("cannot http GET %v%v: %v", resp.Request.URL.Host, resp.Request.URL.Path, resp.Status)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, resp.Body); err != nil {
		return err
	}
	dec := json.NewDecoder(&buf)
	dec.UseNumber()
	return dec.Decode(data)
}

// extractQuote reads the price and 24h change of asset id in the vs currency.
//
//	{"bitcoin": {"pen": 251234.5, "pen_24h_change": -1.23}}
func extractQuote(jobj any, symbol, id, vs string) (findeck.Quote, error) {
	pricePath := fmt.Sprintf("$.%s.%s", id, vs)
	jval, err := jsonpath.Get(pricePath, jobj)
	if err != nil {
		return findeck.Quote{}, fmt.Errorf("error parsing %q: %w", pricePath, err)
	}
	price, err := toDecimal(jval)
	if err != nil {
		return findeck.Quote{}, fmt.Errorf("error parsing %q: %w", pricePath, err)
	}

	if !price.IsPositive() {
		return findeck.Quote{}, fmt.Errorf("%q is not a price: %v", pricePath, price)
	}

	q := findeck.Quote{Symbol: symbol, Price: price}

	// a missing change means no change
	changePath := fmt.Sprintf("$.%s.%s_24h_change", id, vs)
	if jval, err := jsonpath.Get(changePath, jobj); err == nil {
		if change, err := toDecimal(jval); err == nil {
			f, _ := change.Float64()
			q.Change = findeck.Percent(f)
		}
	}
	return q, nil
}

func toDecimal(jval any) (decimal.Decimal, error) {
	// jsonpath is never clear about whether it returns a list of 1 answer, or
	// a single answer: keep the first one if any.
	if jlist, ok := jval.([]any); ok && len(jlist) > 0 {
		jval = jlist[0]
	}
	switch v := jval.(type) {
	case json.Number:
		return decimal.NewFromString(v.String())
	case float64:
		return decimal.NewFromFloat(v), nil
	default:
		return decimal.Zero, fmt.Errorf("not a number: %v", jval)
	}
}
