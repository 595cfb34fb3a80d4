package cmd

import (
	"flag"

	"github.com/etnz/findeck/docs"
	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

// Commands lists the findeck subcommands by group.
var Commands = map[string][]subcommands.Command{
	"accounts": {
		&listCmd{},
		&addCmd{},
		&balanceCmd{name: "income", synopsis: "add an income to an account", apply: adjust(true)},
		&balanceCmd{name: "expense", synopsis: "subtract an expense from an account", apply: adjust(false)},
		&balanceCmd{name: "set-balance", synopsis: "replace the balance of an account", apply: setBalance},
		&deleteCmd{},
		&seedCmd{},
	},
	"prices": {
		&pricesCmd{},
	},
	"server": {
		&serveCmd{},
	},
	"help": {
		&topicCmd{},
	},
}

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	for group, cmds := range Commands {
		for _, cmd := range cmds {
			c.Register(cmd, group)
		}
	}
	c.Register(c.HelpCommand(), "")
	c.Register(c.FlagsCommand(), "")
	c.Register(c.CommandsCommand(), "")
}

// Completion returns the shell completion tree of the findeck command.
func Completion() *complete.Command {
	root := &complete.Command{
		Sub:   make(map[string]*complete.Command),
		Flags: flagPredictors(flag.CommandLine),
	}
	root.Flags["store"] = predict.Set{"local", "cloud", "memory"}
	root.Flags["config"] = predict.Files("*.toml")

	for _, cmds := range Commands {
		for _, cmd := range cmds {
			fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
			cmd.SetFlags(fs)
			root.Sub[cmd.Name()] = &complete.Command{Flags: flagPredictors(fs)}
		}
	}
	root.Sub["add"].Flags["type"] = predict.Set{"bank", "cash", "crypto"}
	if topics, err := docs.GetAllTopics(); err == nil {
		root.Sub["topic"].Args = predict.Set(topics)
	}
	return root
}

func flagPredictors(fs *flag.FlagSet) map[string]complete.Predictor {
	flags := make(map[string]complete.Predictor)
	fs.VisitAll(func(f *flag.Flag) {
		flags[f.Name] = predict.Something
	})
	return flags
}
