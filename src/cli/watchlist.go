package cli

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/google/subcommands"
)

type watchlistCmd struct {
	set     string
	symbols string
	get     string
	del     string
	list    bool
}

func (*watchlistCmd) Name() string     { return "watchlist" }
func (*watchlistCmd) Synopsis() string { return "manage named symbol watchlists" }
func (*watchlistCmd) Usage() string {
	return `watchlist -list
watchlist -get <name>
watchlist -set <name> -symbols AAPL,MSFT
watchlist -delete <name>

Creates, replaces, shows or removes watchlists. -set replaces the whole
member list atomically.
`
}

func (c *watchlistCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.set, "set", "", "Create or replace the named watchlist")
	f.StringVar(&c.symbols, "symbols", "", "Comma separated members for -set")
	f.StringVar(&c.get, "get", "", "Print the members of the named watchlist")
	f.StringVar(&c.del, "delete", "", "Remove the named watchlist")
	f.BoolVar(&c.list, "list", false, "Print all watchlist names")
}

func (c *watchlistCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := newApp()
	if err != nil {
		return fail("%v", err)
	}
	defer a.Close()

	switch {
	case c.set != "":
		symbols := splitList(c.symbols)
		if len(symbols) == 0 {
			return fail("-set requires -symbols")
		}
		if err := a.Watchlists.CreateOrReplace(c.set, symbols); err != nil {
			return fail("%v", err)
		}
		fmt.Printf("Watchlist %q now has %d symbols\n", c.set, len(symbols))

	case c.get != "":
		symbols, err := a.Watchlists.Get(c.get)
		if err != nil {
			return fail("%v", err)
		}
		fmt.Println(strings.Join(symbols, "\n"))

	case c.del != "":
		if err := a.Watchlists.Delete(c.del); err != nil {
			return fail("%v", err)
		}
		fmt.Printf("Deleted watchlist %q\n", c.del)

	case c.list:
		names, err := a.Watchlists.List()
		if err != nil {
			return fail("%v", err)
		}
		fmt.Println(strings.Join(names, "\n"))

	default:
		return fail("one of -list, -get, -set or -delete is required")
	}

	return subcommands.ExitSuccess
}
