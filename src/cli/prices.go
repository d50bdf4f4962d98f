package cli

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/google/subcommands"

	"finance-pipeline/src/models"
)

// -----------------------------------------------------------------------------
// fetch-prices
// -----------------------------------------------------------------------------

type fetchPricesCmd struct {
	symbols   string
	watchlist string
	period    string
	skipFresh bool
}

func (*fetchPricesCmd) Name() string     { return "fetch-prices" }
func (*fetchPricesCmd) Synopsis() string { return "fetch daily OHLCV history for symbols" }
func (*fetchPricesCmd) Usage() string {
	return `fetch-prices [-symbols AAPL,MSFT | -watchlist tech] [-period 1y] [-skip-fresh]

Fetches daily price history from Yahoo Finance and upserts it into the
cache. Symbols come from -symbols, or from the named watchlist. With
-skip-fresh, symbols whose stored history already covers the last
completed trading session are not refetched.
`
}

func (c *fetchPricesCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.symbols, "symbols", "", "Comma separated symbol list")
	f.StringVar(&c.watchlist, "watchlist", "", "Fetch the members of this watchlist")
	f.StringVar(&c.period, "period", "1y", "History range (1mo, 3mo, 6mo, 1y, 2y, 5y, max)")
	f.BoolVar(&c.skipFresh, "skip-fresh", false, "Skip symbols that are already up to date")
}

func (c *fetchPricesCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := newApp()
	if err != nil {
		return fail("%v", err)
	}
	defer a.Close()

	symbols, err := c.resolveSymbols(a)
	if err != nil {
		return fail("%v", err)
	}
	if len(symbols) == 0 {
		return fail("no symbols to fetch; use -symbols or -watchlist")
	}

	if c.skipFresh {
		symbols = filterStale(a, symbols)
		if len(symbols) == 0 {
			fmt.Println("All symbols are up to date. Nothing to fetch.")
			return subcommands.ExitSuccess
		}
	}

	report := a.Prices.FetchBatch(symbols, c.period)
	printReport(report)
	if report.Failed > 0 {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func (c *fetchPricesCmd) resolveSymbols(a *app) ([]string, error) {
	if c.symbols != "" && c.watchlist != "" {
		return nil, fmt.Errorf("-symbols and -watchlist are mutually exclusive")
	}
	if c.watchlist != "" {
		symbols, err := a.Watchlists.Get(c.watchlist)
		if err != nil {
			return nil, err
		}
		if len(symbols) == 0 {
			return nil, fmt.Errorf("watchlist %q is empty or does not exist", c.watchlist)
		}
		return symbols, nil
	}
	return splitList(c.symbols), nil
}

// -----------------------------------------------------------------------------
// refetch
// -----------------------------------------------------------------------------

type refetchCmd struct {
	symbols string
	period  string
}

func (*refetchCmd) Name() string     { return "refetch" }
func (*refetchCmd) Synopsis() string { return "clear stored history and fetch it again" }
func (*refetchCmd) Usage() string {
	return `refetch [-symbols AAPL,MSFT] [-period 1y]

Deletes the cached price history for the given symbols and fetches it
fresh. Without -symbols, every symbol that has stored prices is redone.
`
}

func (c *refetchCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.symbols, "symbols", "", "Comma separated symbol list (default: all stored)")
	f.StringVar(&c.period, "period", "1y", "History range for the new fetch")
}

func (c *refetchCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := newApp()
	if err != nil {
		return fail("%v", err)
	}
	defer a.Close()

	report, err := a.Prices.RefetchAll(splitList(c.symbols), c.period)
	if err != nil {
		return fail("refetch: %v", err)
	}

	printReport(report)
	if report.Failed > 0 {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// -----------------------------------------------------------------------------
// Helpers shared by the data commands
// -----------------------------------------------------------------------------

// splitList parses a comma separated flag value, dropping empty entries.
func splitList(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func filterStale(a *app, symbols []string) []string {
	stale := make([]string, 0, len(symbols))
	for _, symbol := range symbols {
		fresh, err := a.Prices.UpToDate(symbol)
		if err != nil || !fresh {
			stale = append(stale, symbol)
			continue
		}
		fmt.Printf("Skipping %s, already up to date\n", symbol)
	}
	return stale
}

func printReport(report *models.MFetchReport) {
	fmt.Printf("Fetched %d/%d, %d rows written\n", report.Success, report.Total, report.Rows)
	for item, reason := range report.Failures {
		fmt.Printf("  failed %s: %s\n", item, reason)
	}
}
