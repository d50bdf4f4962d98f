package cli

import (
	"context"
	"flag"

	"github.com/google/subcommands"
)

type fetchMacroCmd struct {
	indicators string
}

func (*fetchMacroCmd) Name() string     { return "fetch-macro" }
func (*fetchMacroCmd) Synopsis() string { return "fetch macro indicator series from FRED" }
func (*fetchMacroCmd) Usage() string {
	return `fetch-macro [-indicators DFF,UNRATE]

Fetches macro observation series from FRED and upserts them into the
cache. Without -indicators, the configured list is used, falling back
to a built-in set of common series.
`
}

func (c *fetchMacroCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.indicators, "indicators", "", "Comma separated FRED series IDs")
}

func (c *fetchMacroCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := newApp()
	if err != nil {
		return fail("%v", err)
	}
	defer a.Close()

	indicators := indicatorsOrDefault(splitList(c.indicators), a.Config)
	report := a.Macro.FetchBatch(indicators)

	printReport(report)
	if report.Failed > 0 {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
