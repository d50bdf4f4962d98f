package cli

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"finance-pipeline/src/catalog"
)

type loadSymbolsCmd struct {
	file string
}

func (*loadSymbolsCmd) Name() string     { return "load-symbols" }
func (*loadSymbolsCmd) Synopsis() string { return "load symbol metadata from a JSON catalog file" }
func (*loadSymbolsCmd) Usage() string {
	return `load-symbols -file <path>

Reads a JSON object mapping symbol codes to metadata records and upserts
them into the symbols table. Existing rows are updated in place.
`
}

func (c *loadSymbolsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.file, "file", "", "Path to the JSON symbols file")
}

func (c *loadSymbolsCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.file == "" {
		return fail("-file is required")
	}

	a, err := newApp()
	if err != nil {
		return fail("%v", err)
	}
	defer a.Close()

	count, err := a.Catalog.LoadFrom(catalog.NewFileSource(c.file))
	if err != nil {
		return fail("loading symbols: %v", err)
	}

	fmt.Printf("Loaded %d symbols from %s\n", count, c.file)
	return subcommands.ExitSuccess
}
