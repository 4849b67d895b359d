package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/bobmcallan/fundval/internal/common"
	"github.com/bobmcallan/fundval/internal/services/chart"
)

type chartCmd struct {
	output string
}

func (*chartCmd) Name() string     { return "chart" }
func (*chartCmd) Synopsis() string { return "render a fund's intraday estimate curve as PNG" }
func (*chartCmd) Usage() string {
	return `fundval chart [-o file.png] <code>

  Fetches the 10jqka intraday series for code and writes a PNG line chart of
  the estimate against the previous NAV.
`
}

func (c *chartCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.output, "o", "", "output file (defaults to <code>_intraday.png)")
}

func (c *chartCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 || !common.IsFundCode(f.Arg(0)) {
		fmt.Fprint(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}
	code := f.Arg(0)

	var flags outputFlags
	a, err := flags.open()
	if err != nil {
		failf("%v", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	quote, err := a.THSClient.GetQuote(ctx, code)
	if err != nil {
		failf("%v", err)
		return subcommands.ExitFailure
	}
	png, err := chart.RenderIntradayChart(quote)
	if err != nil {
		failf("%s: %v", code, err)
		return subcommands.ExitFailure
	}

	name := c.output
	if name == "" {
		name = code + "_intraday.png"
	}
	path, err := a.Results.Write(name, png)
	if err != nil {
		failf("%v", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("%s %s: %.4f (%+.2f%%) -> %s\n", quote.Code, quote.Name, quote.EstimateNAV, quote.ChangePct, path)
	return subcommands.ExitSuccess
}
