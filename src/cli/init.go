package cli

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"
)

type initCmd struct{}

func (*initCmd) Name() string     { return "init" }
func (*initCmd) Synopsis() string { return "create the database schema and default watchlists" }
func (*initCmd) Usage() string {
	return `init

Creates the SQLite database file, all tables, indexes and views, and the
watchlists declared in the configuration file. Safe to run repeatedly;
existing data is never touched.
`
}

func (*initCmd) SetFlags(f *flag.FlagSet) {}

func (c *initCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := newApp()
	if err != nil {
		return fail("%v", err)
	}
	defer a.Close()

	if err := a.Store.InitSchema(); err != nil {
		return fail("schema initialization failed: %v", err)
	}
	fmt.Printf("Database ready at %s\n", a.Store.Path())

	for name, symbols := range a.Config.Watchlists {
		existing, err := a.Watchlists.Get(name)
		if err == nil && len(existing) > 0 {
			continue // never clobber a watchlist the user already edited
		}
		if err := a.Watchlists.CreateOrReplace(name, symbols); err != nil {
			return fail("creating watchlist %q: %v", name, err)
		}
		fmt.Printf("Created watchlist %q with %d symbols\n", name, len(symbols))
	}

	return subcommands.ExitSuccess
}
