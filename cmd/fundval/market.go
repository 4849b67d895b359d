package main

import (
	"context"
	"flag"
	"time"

	"github.com/google/subcommands"

	"github.com/bobmcallan/fundval/internal/services/report"
)

type marketCmd struct {
	output outputFlags
}

func (*marketCmd) Name() string     { return "market" }
func (*marketCmd) Synopsis() string { return "print the main A-share indices" }
func (*marketCmd) Usage() string {
	return `fundval market [-markdown]

  Prints price, change and turnover for the configured indices.
`
}

func (c *marketCmd) SetFlags(f *flag.FlagSet) {
	c.output.register(f, false)
}

func (c *marketCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := c.output.open()
	if err != nil {
		failf("%v", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	now := time.Now()
	indices, err := a.ValuationService.MarketOverview(ctx)
	if err != nil {
		a.Logger.Warn().Err(err).Msg("Market overview failed")
	}
	c.output.print(c.output.formatter().Market(indices, now), report.MarketMarkdown(indices, now))

	if err != nil {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
