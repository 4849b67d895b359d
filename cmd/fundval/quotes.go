package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/subcommands"

	"github.com/bobmcallan/fundval/internal/common"
	"github.com/bobmcallan/fundval/internal/services/report"
)

type quotesCmd struct {
	output outputFlags
}

func (*quotesCmd) Name() string     { return "quotes" }
func (*quotesCmd) Synopsis() string { return "print intraday estimates for fund codes" }
func (*quotesCmd) Usage() string {
	return `fundval quotes [-source ths|eastmoney] <code>...

  Prints the current estimate NAV and change for each 6-digit fund code and
  writes them to the results file as comma-separated lines.
`
}

func (c *quotesCmd) SetFlags(f *flag.FlagSet) {
	c.output.register(f, true)
}

func (c *quotesCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprint(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}
	codes := make([]string, 0, f.NArg())
	for _, arg := range f.Args() {
		for _, code := range strings.Split(arg, ",") {
			code = strings.TrimSpace(code)
			if code == "" {
				continue
			}
			if !common.IsFundCode(code) {
				failf("invalid fund code %q", code)
				return subcommands.ExitUsageError
			}
			codes = append(codes, code)
		}
	}

	a, err := c.output.open()
	if err != nil {
		failf("%v", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	now := time.Now()
	quotes := a.ValuationService.Quotes(ctx, codes)
	c.output.print(
		c.output.formatter().Quotes(codes, quotes, a.QuoteSource, now),
		report.QuotesMarkdown(codes, quotes, a.QuoteSource, now),
	)
	c.output.writeResults(a, report.QuotesResults(quotes))

	for _, q := range quotes {
		if q != nil {
			return subcommands.ExitSuccess
		}
	}
	return subcommands.ExitFailure
}
