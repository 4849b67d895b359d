package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/bobmcallan/fundval/internal/services/report"
	"github.com/bobmcallan/fundval/internal/services/valuation"
)

type estimateCmd struct {
	output outputFlags
	file   string
}

func (*estimateCmd) Name() string     { return "estimate" }
func (*estimateCmd) Synopsis() string { return "estimate a fund's NAV from its top holdings" }
func (*estimateCmd) Usage() string {
	return `fundval estimate -f <constituents.toml>

  Weights each disclosed stock holding by its intraday change to estimate the
  fund's change, and compares it with the official estimate. The file holds
  the fund code and [[holding]] entries (code, name, weight).
`
}

func (c *estimateCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.file, "f", "", "constituents TOML file (\"-\" for stdin)")
	c.output.register(f, false)
}

func (c *estimateCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.file == "" {
		fmt.Fprint(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}
	data, err := readInput(c.file, os.Stdin)
	if err != nil {
		failf("%v", err)
		return subcommands.ExitFailure
	}
	code, holdings, err := parseConstituents(data)
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

	result, err := a.ValuationService.EstimateFromConstituents(ctx, code, holdings)
	if err != nil {
		failf("%v", err)
		if errors.Is(err, valuation.ErrNoConstituents) {
			return subcommands.ExitUsageError
		}
		return subcommands.ExitFailure
	}

	c.output.print(c.output.formatter().Estimate(result), report.EstimateMarkdown(result))
	return subcommands.ExitSuccess
}
