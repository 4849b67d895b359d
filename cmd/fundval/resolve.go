package main

import (
	"context"
	"flag"
	"os"
	"strings"

	"github.com/google/subcommands"

	"github.com/bobmcallan/fundval/internal/services/report"
)

type resolveCmd struct {
	output outputFlags
}

func (*resolveCmd) Name() string     { return "resolve" }
func (*resolveCmd) Synopsis() string { return "recognise holdings in free text and value them" }
func (*resolveCmd) Usage() string {
	return `fundval resolve [file]

  Reads pasted holdings text (one fund per line, e.g. "博时黄金ETF联接A 1649.77"
  or "002610 1000") from file or stdin, resolves each line to a fund code and
  prints the valued holdings. Unrecognised lines are skipped.
`
}

func (c *resolveCmd) SetFlags(f *flag.FlagSet) {
	c.output.register(f, true)
}

func (c *resolveCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() > 1 {
		return subcommands.ExitUsageError
	}
	data, err := readInput(f.Arg(0), os.Stdin)
	if err != nil {
		failf("%v", err)
		return subcommands.ExitFailure
	}
	if strings.TrimSpace(string(data)) == "" {
		failf("no input text")
		return subcommands.ExitUsageError
	}

	a, err := c.output.open()
	if err != nil {
		failf("%v", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	summary := a.ValuationService.ResolveText(ctx, string(data))
	if len(summary.Entries) == 0 {
		failf("no holdings recognised")
		return subcommands.ExitFailure
	}

	c.output.print(
		c.output.formatter().Holdings(summary, a.QuoteSource),
		report.HoldingsMarkdown(summary, a.QuoteSource),
	)
	c.output.writeResults(a, report.HoldingsResults(summary, a.QuoteSource))
	return subcommands.ExitSuccess
}
