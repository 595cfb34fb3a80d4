package cmd

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/etnz/findeck/server"
	"github.com/google/subcommands"
	"go.uber.org/zap"
)

type serveCmd struct {
	addr    string
	refresh time.Duration
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "serve the portfolio over a JSON HTTP API" }
func (*serveCmd) Usage() string {
	return `findeck serve [-addr <host:port>] [-refresh <duration>]

  Serves the accounts and their valuation as JSON. See 'findeck topic api'.
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.addr, "addr", "", "Listen address. Defaults to the configured server host and port.")
	f.DurationVar(&c.refresh, "refresh", 0, "Fetch live prices periodically, 0 to fetch only on demand.")
}

func (c *serveCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx, false)
	if err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	if _, err := a.session.Start(ctx); err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	if c.refresh > 0 {
		go func() {
			ticker := time.NewTicker(c.refresh)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					a.session.RefreshPrices(ctx)
				}
			}
		}()
	}

	addr := c.addr
	if addr == "" {
		addr = a.cfg.Server.Addr()
	}
	srv := server.New(a.session, a.logger.Named("server"))
	a.logger.Info("serving", zap.String("addr", addr))
	if err := srv.Run(ctx, addr); err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
