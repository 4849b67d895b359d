package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/bobmcallan/fundval/internal/app"
	"github.com/bobmcallan/fundval/internal/services/report"
)

// outputFlags are the flags shared by every valuation command
type outputFlags struct {
	source     string
	noFallback bool
	markdown   bool
	noColor    bool
	out        string
}

func (o *outputFlags) register(f *flag.FlagSet, results bool) {
	f.StringVar(&o.source, "source", "", "quote source: ths or eastmoney (defaults to config)")
	f.BoolVar(&o.noFallback, "no-fallback", false, "query only the selected source")
	f.BoolVar(&o.markdown, "markdown", false, "render output as markdown")
	f.BoolVar(&o.noColor, "no-color", false, "disable coloured output")
	if results {
		f.StringVar(&o.out, "out", "", "results file (defaults to config output.results_file, \"-\" disables)")
	}
}

// open initialises the app and applies -source / -no-fallback
func (o *outputFlags) open() (*app.App, error) {
	a, err := app.NewApp(*configPath)
	if err != nil {
		return nil, err
	}
	source := o.source
	if source == "" {
		source = a.Config.Valuation.PrimarySource
	}
	if err := a.UseSource(source, a.Config.Valuation.Fallback && !o.noFallback); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (o *outputFlags) formatter() *report.Formatter {
	return report.NewFormatter(!o.noColor)
}

// print writes text, or md rendered through glamour when -markdown is set
func (o *outputFlags) print(text, md string) {
	if !o.markdown {
		fmt.Print(text)
		return
	}
	style := report.DefaultMarkdownStyle
	if o.noColor {
		style = "notty"
	}
	rendered, err := report.RenderMarkdown(md, style)
	if err != nil {
		fmt.Print(md)
		return
	}
	fmt.Print(rendered)
}

// writeResults overwrites the results file unless -out is "-"
func (o *outputFlags) writeResults(a *app.App, content string) {
	name := o.out
	if name == "" {
		name = a.Config.Output.ResultsFile
	}
	if name == "" || name == "-" {
		return
	}
	path, err := a.Results.WriteText(name, content)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		return
	}
	fmt.Printf("\n结果已保存至: %s\n", path)
}

func failf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}
