package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/findeck"
	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
)

type addCmd struct {
	name     string
	balance  string
	currency string
	typ      string
}

func (*addCmd) Name() string     { return "add" }
func (*addCmd) Synopsis() string { return "add an account" }
func (*addCmd) Usage() string {
	return `findeck add -name <name> -currency <code> [-balance <amount>] [-type bank|cash|crypto]

  Adds an account. The currency is a 3 or 4 letters code (PEN, USD, BTC, USDT).

Usage Examples:
$ findeck add -name "Cuenta BCP" -balance 1500.50 -currency PEN
$ findeck add -name "Bitcoin Wallet" -balance 0.05 -currency BTC -type crypto
`
}

func (c *addCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.name, "name", "", "Name of the account.")
	f.StringVar(&c.balance, "balance", "0", "Initial balance.")
	f.StringVar(&c.currency, "currency", "", "Currency or crypto symbol of the balance.")
	f.StringVar(&c.typ, "type", "bank", "Type of account: bank, cash or crypto.")
}

func (c *addCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	balance, err := parseAmount(c.balance)
	if err != nil {
		fail(err)
		return subcommands.ExitUsageError
	}
	typ, err := findeck.ParseAccountType(c.typ)
	if err != nil {
		fail(err)
		return subcommands.ExitUsageError
	}
	n, err := findeck.NewAccount{Name: c.name, Balance: balance, Currency: c.currency, Type: typ}.Validate()
	if err != nil {
		fail(err)
		return subcommands.ExitUsageError
	}

	a, err := openApp(ctx, true)
	if err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	created, err := a.session.Create(ctx, n)
	if err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Added %q (%s %s) with id %s\n", created.Name, findeck.DisplayBalance(created.Balance, created.Type), created.Currency, created.ID)
	return subcommands.ExitSuccess
}

// balanceCmd implements income, expense and set-balance.
type balanceCmd struct {
	name, synopsis string
	// apply changes the balance of the account id using amount.
	apply func(ctx context.Context, s *findeck.Session, id string, amount decimal.Decimal) error
}

func (c *balanceCmd) Name() string     { return c.name }
func (c *balanceCmd) Synopsis() string { return c.synopsis }
func (c *balanceCmd) Usage() string {
	return fmt.Sprintf(`findeck %s <account id> <amount>

  %s.
`, c.name, c.synopsis)
}

func (*balanceCmd) SetFlags(*flag.FlagSet) {}

func (c *balanceCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 2 {
		fmt.Fprint(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}
	id := f.Arg(0)
	amount, err := parseAmount(f.Arg(1))
	if err != nil {
		fail(err)
		return subcommands.ExitUsageError
	}

	a, err := openApp(ctx, true)
	if err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	if err := c.apply(ctx, a.session, id, amount); err != nil {
		fail(err)
		return subcommands.ExitFailure
	}

	view, _ := a.session.Portfolio().View(id)
	fmt.Printf("%s: new balance %s %s\n", view.Account.Name, view.Balance, view.Account.Currency)
	return subcommands.ExitSuccess
}

func adjust(income bool) func(context.Context, *findeck.Session, string, decimal.Decimal) error {
	return func(ctx context.Context, s *findeck.Session, id string, amount decimal.Decimal) error {
		_, err := s.Adjust(ctx, id, amount, income)
		return err
	}
}

func setBalance(ctx context.Context, s *findeck.Session, id string, amount decimal.Decimal) error {
	return s.SetBalance(ctx, id, amount)
}

type deleteCmd struct{}

func (*deleteCmd) Name() string     { return "delete" }
func (*deleteCmd) Synopsis() string { return "delete an account" }
func (*deleteCmd) Usage() string {
	return `findeck delete <account id>

  Deletes an account for good.
`
}

func (*deleteCmd) SetFlags(*flag.FlagSet) {}

func (c *deleteCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprint(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}
	a, err := openApp(ctx, true)
	if err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	if err := a.session.Delete(ctx, f.Arg(0)); err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Deleted %s\n", f.Arg(0))
	return subcommands.ExitSuccess
}
