package findeck

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// AccountType classifies an account. It drives how the balance is displayed
// and whether market data is shown.
type AccountType int

const (
	Bank AccountType = iota
	Cash
	Crypto
)

var accountTypeNames = [...]string{Bank: "Bank", Cash: "Cash", Crypto: "Crypto"}

// String returns the persisted form of the type: "Bank", "Cash" or "Crypto".
func (t AccountType) String() string {
	if t < 0 || int(t) >= len(accountTypeNames) {
		return fmt.Sprintf("AccountType(%d)", int(t))
	}
	return accountTypeNames[t]
}

// ParseAccountType parses s case-insensitively.
func ParseAccountType(s string) (AccountType, error) {
	for i, name := range accountTypeNames {
		if strings.EqualFold(s, name) {
			return AccountType(i), nil
		}
	}
	return Bank, fmt.Errorf("%w: unknown account type %q", ErrInvalidAccount, s)
}

func (t AccountType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *AccountType) UnmarshalText(text []byte) error {
	v, err := ParseAccountType(string(text))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// ErrInvalidAccount is wrapped by every account validation failure.
var ErrInvalidAccount = errors.New("invalid account")

// ErrAccountNotFound is returned by stores when an id does not exist.
var ErrAccountNotFound = errors.New("account not found")

// currencyCodeRegex checks for the format: 3 to 4 uppercase letters (PEN, USD, USDT).
var currencyCodeRegex = regexp.MustCompile(`^[A-Z]{3,4}$`)

// ValidateCurrency checks that code is an uppercase 3 or 4 letters symbol.
func ValidateCurrency(code string) error {
	if !currencyCodeRegex.MatchString(code) {
		return fmt.Errorf("%w: invalid currency code %q: must be 3 or 4 uppercase letters", ErrInvalidAccount, code)
	}
	return nil
}

// Account is a user account as persisted by an AccountStore.
type Account struct {
	ID       string          `json:"id,omitempty"` // empty until persisted
	Name     string          `json:"name"`
	Balance  decimal.Decimal `json:"balance"`
	Currency string          `json:"currency"`
	Type     AccountType     `json:"type"`
	Created  time.Time       `json:"created"`
}

// NewAccount holds what a user provides to create an account.
type NewAccount struct {
	Name     string          `json:"name"`
	Balance  decimal.Decimal `json:"balance"`
	Currency string          `json:"currency"`
	Type     AccountType     `json:"type"`
}

// Validate returns a normalized copy of a, with an uppercase currency, or an
// error wrapping ErrInvalidAccount.
func (a NewAccount) Validate() (NewAccount, error) {
	a.Name = strings.TrimSpace(a.Name)
	if a.Name == "" {
		return a, fmt.Errorf("%w: name is required", ErrInvalidAccount)
	}
	a.Currency = strings.ToUpper(strings.TrimSpace(a.Currency))
	if err := ValidateCurrency(a.Currency); err != nil {
		return a, err
	}
	if a.Type < Bank || a.Type > Crypto {
		return a, fmt.Errorf("%w: unknown account type %v", ErrInvalidAccount, a.Type)
	}
	return a, nil
}

// Adjusted returns the balance after an income (added) or an expense (subtracted).
func (a Account) Adjusted(amount decimal.Decimal, income bool) decimal.Decimal {
	if income {
		return a.Balance.Add(amount)
	}
	return a.Balance.Sub(amount)
}
