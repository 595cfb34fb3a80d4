package cmd

import (
	"context"
	"flag"
	"time"

	"github.com/etnz/findeck/renderer"
	"github.com/google/subcommands"
)

type pricesCmd struct {
	offline bool
	wait    time.Duration
}

func (*pricesCmd) Name() string     { return "prices" }
func (*pricesCmd) Synopsis() string { return "show the latest quotes" }
func (*pricesCmd) Usage() string {
	return `findeck prices [-offline] [-wait <duration>]

  Fetches live quotes in the home currency and stores them in the price
  cache. The cached quotes are shown when the provider cannot be reached.
`
}

func (c *pricesCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.offline, "offline", false, "Only show the cached quotes.")
	f.DurationVar(&c.wait, "wait", 15*time.Second, "Maximum time to wait for live prices.")
}

func (c *pricesCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp(ctx, c.offline)
	if err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	done, err := a.session.Start(ctx)
	if err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	finish := waitForPrices(done, c.wait, a.logger)
	printMarkdown(renderer.PricesMarkdown(a.session.Prices(), a.cfg.HomeCurrency))
	finish()
	return subcommands.ExitSuccess
}
