package renderer

import (
	"bytes"
	"fmt"

	"github.com/etnz/findeck"
	"github.com/etnz/findeck/theme"
	md "github.com/nao1215/markdown"
)

// Loading is shown in place of market data that has no quote yet.
const Loading = "loading…"

// DashboardMarkdown renders the portfolio: the net worth, then one row per account.
func DashboardMarkdown(p findeck.Portfolio) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1("Net Worth")
	doc.Table(md.TableSet{
		Alignment: []md.TableAlignment{
			md.AlignLeft,
			md.AlignRight,
		},
		Header: []string{
			md.Bold("Total"),
			md.Bold(fmt.Sprintf("%s %s", p.TotalString(), p.HomeCurrency)),
		},
		Rows: [][]string{
			{"Accounts", fmt.Sprint(len(p.Accounts))},
		},
	})

	doc.H2("Accounts")
	if len(p.Accounts) == 0 {
		doc.PlainText("No accounts yet, add one with `findeck add` or `findeck seed`.")
	} else {
		table := md.TableSet{
			Alignment: []md.TableAlignment{
				md.AlignLeft,
				md.AlignLeft,
				md.AlignRight,
				md.AlignRight,
				md.AlignRight,
				md.AlignRight,
			},
			Header: []string{
				"Account",
				"Type",
				"Balance",
				"Price",
				"24h",
				"Value (" + p.HomeCurrency + ")",
			},
		}
		for _, v := range p.Accounts {
			price, change := marketColumns(v.MarketData)
			table.Rows = append(table.Rows, []string{
				accountLabel(v.Account),
				v.Account.Type.String(),
				v.Balance + " " + v.Account.Currency,
				price,
				change,
				contribution(v),
			})
		}
		doc.Table(table)
	}

	if len(p.Unpriced) > 0 {
		doc.H2("Unpriced Currencies")
		doc.PlainText("These balances are not included in the total:")
		doc.BulletList(p.Unpriced...)
	}

	return doc.String()
}

// accountLabel is the account name with its theme icon, if any.
func accountLabel(a findeck.Account) string {
	style := theme.StyleOf(theme.Classify(a.Name, a.Currency, a.Type.String()))
	if style.Icon == "" {
		return a.Name
	}
	return fmt.Sprintf("%s %s", a.Name, md.Code(style.Icon))
}

// marketColumns returns the price and the 24h change cells.
func marketColumns(m *findeck.MarketData) (price, change string) {
	switch {
	case m == nil:
		return "", ""
	case m.Loading:
		return md.Italic(Loading), md.Italic(Loading)
	}
	return m.Price.StringFixed(2), trendCell(m.Change, m.Trend)
}

// trendCell shows the change with an arrow matching the trend color.
func trendCell(change findeck.Percent, trend findeck.Trend) string {
	arrow := "▲"
	if trend == findeck.Down {
		arrow = "▼"
	}
	return fmt.Sprintf("%s %s", arrow, change.SignedString())
}

func contribution(v findeck.AccountView) string {
	switch v.Source {
	case findeck.SourceNone:
		return md.Italic("unpriced")
	case findeck.SourceFallback:
		return v.Contribution.Fixed(2) + "*"
	default:
		return v.Contribution.Fixed(2)
	}
}

// PricesMarkdown renders quotes sorted by symbol.
func PricesMarkdown(prices findeck.Prices, home string) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1("Prices")
	if len(prices) == 0 {
		doc.PlainText("No quote available.")
		return doc.String()
	}
	table := md.TableSet{
		Alignment: []md.TableAlignment{
			md.AlignLeft,
			md.AlignRight,
			md.AlignRight,
		},
		Header: []string{"Symbol", "Price (" + home + ")", "24h"},
	}
	for _, s := range prices.Symbols() {
		q := prices[s]
		table.Rows = append(table.Rows, []string{
			s,
			q.Price.StringFixed(2),
			trendCell(q.Change, q.Change.Trend()),
		})
	}
	doc.Table(table)
	return doc.String()
}
