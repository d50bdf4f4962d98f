package cli

import (
	"context"
	"flag"

	"github.com/google/subcommands"

	"finance-pipeline/src/server"
)

type serveCmd struct{}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "run the HTTP API and websocket server" }
func (*serveCmd) Usage() string {
	return `serve

Starts the API server on the configured host and port. Ingestion
progress streams to websocket clients on /ws. Blocks until the process
is terminated.
`
}

func (*serveCmd) SetFlags(f *flag.FlagSet) {}

func (c *serveCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := newApp()
	if err != nil {
		return fail("%v", err)
	}
	defer a.Close()

	if err := a.Store.InitSchema(); err != nil {
		return fail("schema initialization failed: %v", err)
	}

	srv := server.NewAPIServer(
		a.Config.MConfig, a.Logger, a.Store,
		a.Catalog, a.Prices, a.Macro, a.Watchlists, a.Usage,
	)
	if err := srv.Start(); err != nil {
		return fail("server stopped: %v", err)
	}
	return subcommands.ExitSuccess
}
