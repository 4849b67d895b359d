package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/bobmcallan/fundval/internal/services/report"
)

type holdingsCmd struct {
	output outputFlags
	file   string
}

func (*holdingsCmd) Name() string     { return "holdings" }
func (*holdingsCmd) Synopsis() string { return "value a holdings file against intraday estimates" }
func (*holdingsCmd) Usage() string {
	return `fundval holdings -f <holdings.toml> [-source ths|eastmoney] [-markdown] [-out file]

  Values every [[holding]] (name, code, amount, hold_profit) and prints the
  realtime change, realtime profit and totals. The plain table is also
  written to the results file.
`
}

func (c *holdingsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.file, "f", "", "holdings TOML file (\"-\" for stdin)")
	c.output.register(f, true)
}

func (c *holdingsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.file == "" {
		fmt.Fprint(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}
	data, err := readInput(c.file, os.Stdin)
	if err != nil {
		failf("%v", err)
		return subcommands.ExitFailure
	}
	holdings, err := parseHoldings(data)
	if err != nil {
		failf("%v", err)
		return subcommands.ExitUsageError
	}

	a, err := c.output.open()
	if err != nil {
		failf("%v", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	summary := a.ValuationService.Refresh(ctx, holdings)
	c.output.print(
		c.output.formatter().Holdings(summary, a.QuoteSource),
		report.HoldingsMarkdown(summary, a.QuoteSource),
	)
	c.output.writeResults(a, report.HoldingsResults(summary, a.QuoteSource))

	if summary.Resolved == 0 {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
