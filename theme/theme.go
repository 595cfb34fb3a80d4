// Package theme decides how an account card looks: its color, icon and
// shape, derived from the account name, currency and type.
package theme

import (
	"fmt"
	"strings"
)

// Tag identifies a visual theme.
type Tag int

const (
	Generic Tag = iota
	BCP
	Interbank
	Bitcoin
	Ethereum
	Solana
	Tether
	USD
	Cash
)

var tagNames = [...]string{
	Generic:   "generic",
	BCP:       "bcp",
	Interbank: "interbank",
	Bitcoin:   "bitcoin",
	Ethereum:  "ethereum",
	Solana:    "solana",
	Tether:    "tether",
	USD:       "usd",
	Cash:      "cash",
}

func (t Tag) String() string {
	if t < 0 || int(t) >= len(tagNames) {
		return "generic"
	}
	return tagNames[t]
}

func (t Tag) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *Tag) UnmarshalText(text []byte) error {
	for i, name := range tagNames {
		if name == string(text) {
			*t = Tag(i)
			return nil
		}
	}
	return fmt.Errorf("unknown theme %q", text)
}

// Style is the look of an account card.
type Style struct {
	Color string `json:"color"`          // hex RGB, e.g. "#002B8C"
	Icon  string `json:"icon,omitempty"` // asset name, empty for none
	Round bool   `json:"round"`
}

const cryptoColor = "#1A1A1F"

var styles = [...]Style{
	Generic:   {Color: "#555555"},
	BCP:       {Color: "#002B8C", Icon: "BCP"},
	Interbank: {Color: "#009933", Icon: "Interbank"},
	Bitcoin:   {Color: cryptoColor, Icon: "BTC", Round: true},
	Ethereum:  {Color: cryptoColor, Icon: "ETH", Round: true},
	Solana:    {Color: cryptoColor, Icon: "SOL", Round: true},
	Tether:    {Color: cryptoColor, Icon: "USDT", Round: true},
	USD:       {Color: cryptoColor, Icon: "USD"},
	Cash:      {Color: "#AEAEB2", Icon: "Cash"},
}

// StyleOf returns the style of t. Unknown tags get the generic style.
func StyleOf(t Tag) Style {
	if t < 0 || int(t) >= len(styles) {
		return styles[Generic]
	}
	return styles[t]
}

// Classify returns the theme of an account. Matching is case-insensitive.
//
// Known crypto currencies come first, then banks recognized by name, then
// USD, then cash (by name or type).
func Classify(name, currency, typ string) Tag {
	name = strings.ToUpper(name)
	currency = strings.ToUpper(currency)
	typ = strings.ToUpper(typ)

	switch currency {
	case "BTC":
		return Bitcoin
	case "ETH":
		return Ethereum
	case "SOL":
		return Solana
	case "USDT":
		return Tether
	}

	switch {
	case strings.Contains(name, "BCP"):
		return BCP
	case strings.Contains(name, "INTERBANK"):
		return Interbank
	case currency == "USD":
		return USD
	case strings.Contains(name, "EFECTIVO"), typ == "CASH":
		return Cash
	}
	return Generic
}
