package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/findeck"
	"github.com/google/subcommands"
)

type seedCmd struct{}

func (*seedCmd) Name() string     { return "seed" }
func (*seedCmd) Synopsis() string { return "create demo accounts" }
func (*seedCmd) Usage() string {
	return `findeck seed

  Creates three demo accounts ("Cuenta BCP", "Efectivo" and "Bitcoin Wallet")
  when there is no account yet. Does nothing otherwise.
`
}

func (*seedCmd) SetFlags(*flag.FlagSet) {}

func (*seedCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp(ctx, true)
	if err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	n, err := findeck.Seed(ctx, a.store)
	if err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	if n == 0 {
		fmt.Fprintln(os.Stderr, "Accounts already exist, nothing to seed.")
		return subcommands.ExitSuccess
	}
	fmt.Printf("Created %d demo accounts.\n", n)
	return subcommands.ExitSuccess
}
