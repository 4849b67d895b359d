package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/bobmcallan/fundval/internal/common"
	"github.com/bobmcallan/fundval/internal/services/report"
)

type ocrCmd struct {
	output   outputFlags
	textOnly bool
}

func (*ocrCmd) Name() string     { return "ocr" }
func (*ocrCmd) Synopsis() string { return "read holdings from a screenshot and value them" }
func (*ocrCmd) Usage() string {
	return `fundval ocr [-text] <image>

  Transcribes a brokerage holdings screenshot (PNG/JPEG) with Gemini and
  values the recognised lines. Requires GEMINI_API_KEY.
`
}

func (c *ocrCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.textOnly, "text", false, "print the transcript only")
	c.output.register(f, true)
}

func (c *ocrCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprint(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}
	image, err := os.ReadFile(f.Arg(0))
	if err != nil {
		failf("%v", err)
		return subcommands.ExitFailure
	}

	a, err := c.output.open()
	if err != nil {
		failf("%v", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	if a.HoldingsExtractor == nil {
		failf("%v (set GEMINI_API_KEY)", common.ErrNoHoldingsExtractor)
		return subcommands.ExitFailure
	}

	text, err := a.HoldingsExtractor.ExtractHoldingsText(ctx, image, "")
	if err != nil {
		failf("%v", err)
		return subcommands.ExitFailure
	}
	if c.textOnly {
		fmt.Println(text)
		return subcommands.ExitSuccess
	}

	summary := a.ValuationService.ResolveText(ctx, text)
	if len(summary.Entries) == 0 {
		failf("no holdings recognised in transcript:\n%s", text)
		return subcommands.ExitFailure
	}
	c.output.print(
		c.output.formatter().Holdings(summary, a.QuoteSource),
		report.HoldingsMarkdown(summary, a.QuoteSource),
	)
	c.output.writeResults(a, report.HoldingsResults(summary, a.QuoteSource))
	return subcommands.ExitSuccess
}
