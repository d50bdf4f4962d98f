package cli

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/google/subcommands"

	"finance-pipeline/src/data_source/fred"
	"finance-pipeline/src/data_source/yahoo"
)

type usageCmd struct {
	source string
	hours  int
	last   int
	clear  bool
}

func (*usageCmd) Name() string     { return "usage" }
func (*usageCmd) Synopsis() string { return "show or clear the API call log" }
func (*usageCmd) Usage() string {
	return `usage [-source yahoo_finance] [-hours 24] [-last 10] [-clear]

Counts logged API calls per source over a trailing window. -last also
prints the N most recent call log entries. -clear deletes the history
for the given source, or all history when no source is given.
`
}

func (c *usageCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.source, "source", "", "Restrict to one source")
	f.IntVar(&c.hours, "hours", 24, "Trailing window size in hours")
	f.IntVar(&c.last, "last", 0, "Also print the N most recent entries")
	f.BoolVar(&c.clear, "clear", false, "Delete call history instead of counting")
}

func (c *usageCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := newApp()
	if err != nil {
		return fail("%v", err)
	}
	defer a.Close()

	if c.clear {
		if err := a.Usage.ClearHistory(c.source); err != nil {
			return fail("%v", err)
		}
		fmt.Println("Call history cleared")
		return subcommands.ExitSuccess
	}

	sources := []string{yahoo.SourceName, fred.SourceName}
	if c.source != "" {
		sources = []string{c.source}
	}

	for _, source := range sources {
		count, err := a.Usage.Usage(source, c.hours)
		if err != nil {
			return fail("%v", err)
		}
		line := fmt.Sprintf("%-16s %d calls in last %dh", source, count, c.hours)
		if quota, ok := a.Config.Quotas[source]; ok {
			line += fmt.Sprintf(" (limit %d per %dh)", quota.Limit, quota.WindowHours)
		}
		fmt.Println(line)
	}

	if c.last > 0 {
		calls, err := a.Usage.History(c.source, c.last)
		if err != nil {
			return fail("%v", err)
		}
		for _, call := range calls {
			fmt.Printf("%s  %-16s %-8s %s\n",
				call.Timestamp.Format(time.RFC3339), call.Source, call.Endpoint, call.Symbol)
		}
	}

	return subcommands.ExitSuccess
}
