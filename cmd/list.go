package cmd

import (
	"context"
	"flag"
	"time"

	"github.com/etnz/findeck/renderer"
	"github.com/google/subcommands"
)

type listCmd struct {
	offline bool
	wait    time.Duration
}

func (*listCmd) Name() string     { return "list" }
func (*listCmd) Synopsis() string { return "show the net worth and every account" }
func (*listCmd) Usage() string {
	return `findeck list [-offline] [-wait <duration>]

  Shows the dashboard: the total net worth in the home currency and one line
  per account, newest first.

  Cached prices are used immediately, then live prices are fetched. The
  dashboard is printed once the fetch is over, or after -wait, whichever
  comes first. A late fetch is still cached before exiting. With -offline
  only cached prices are used.
`
}

func (c *listCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.offline, "offline", false, "Do not fetch live prices, use the cached ones.")
	f.DurationVar(&c.wait, "wait", 15*time.Second, "Maximum time to wait for live prices.")
}

func (c *listCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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
	printMarkdown(renderer.DashboardMarkdown(a.session.Portfolio()))
	finish()
	return subcommands.ExitSuccess
}
