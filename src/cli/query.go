package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/google/subcommands"

	"finance-pipeline/src/models"
)

type queryCmd struct{}

func (*queryCmd) Name() string     { return "query" }
func (*queryCmd) Synopsis() string { return "run an arbitrary SQL statement against the cache" }
func (*queryCmd) Usage() string {
	return `query <sql> [param...]

Executes the statement with optional positional parameters bound to ?
placeholders and prints the result as a table. Statements that return
no rows print nothing.

  query "SELECT * FROM latest_prices WHERE symbol = ?" AAPL
`
}

func (*queryCmd) SetFlags(f *flag.FlagSet) {}

func (c *queryCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) == 0 {
		return fail("a SQL statement is required")
	}

	a, err := newApp()
	if err != nil {
		return fail("%v", err)
	}
	defer a.Close()

	params := make([]any, 0, len(args)-1)
	for _, p := range args[1:] {
		params = append(params, p)
	}

	result, err := a.Store.Execute(args[0], params...)
	if err != nil {
		return fail("%v", err)
	}

	printResult(result)
	return subcommands.ExitSuccess
}

func printResult(result *models.MQueryResult) {
	if result.Empty() {
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	for i, col := range result.Columns {
		if i > 0 {
			fmt.Fprint(w, "\t")
		}
		fmt.Fprint(w, col)
	}
	fmt.Fprintln(w)

	for _, row := range result.Rows {
		for i, cell := range row {
			if i > 0 {
				fmt.Fprint(w, "\t")
			}
			if cell == nil {
				fmt.Fprint(w, "NULL")
			} else {
				fmt.Fprintf(w, "%v", cell)
			}
		}
		fmt.Fprintln(w)
	}
	w.Flush()
}
