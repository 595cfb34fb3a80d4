// Command findeck tracks bank, cash and crypto accounts and their total
// value in a single home currency.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/etnz/findeck/cmd"
	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
)

func main() {
	name := path.Base(os.Args[0])
	// answers shell completion requests, and exits, when invoked by the shell.
	complete.Complete(name, cmd.Completion())

	commander := subcommands.NewCommander(flag.CommandLine, name)
	cmd.Register(commander)

	flag.Parse()
	if sub := flag.Arg(0); sub != "" && !cmd.IsCommand(sub) {
		if found, code := cmd.RunExtension(sub, flag.Args()[1:]); found {
			os.Exit(code)
		}
	}
	os.Exit(int(commander.Execute(context.Background())))
}
