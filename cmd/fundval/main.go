// Command fundval prints intraday fund valuations from the terminal.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
)

var configPath = flag.String("config", "", "path to fundval.toml (defaults to $FUNDVAL_CONFIG, then ./fundval.toml)")

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")

	commander.Register(&holdingsCmd{}, "valuation")
	commander.Register(&resolveCmd{}, "valuation")
	commander.Register(&ocrCmd{}, "valuation")
	commander.Register(&quotesCmd{}, "valuation")
	commander.Register(&estimateCmd{}, "valuation")
	commander.Register(&marketCmd{}, "market")
	commander.Register(&chartCmd{}, "market")
	commander.ImportantFlag("config")

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
