// Package cli implements the pipeline command line. A main package calls
// Register() on a commander and Execute() runs the user-selected command.
package cli

import (
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"finance-pipeline/src/catalog"
	"finance-pipeline/src/config"
	"finance-pipeline/src/data_source/fred"
	"finance-pipeline/src/data_source/yahoo"
	"finance-pipeline/src/ingest"
	"finance-pipeline/src/logger"
	"finance-pipeline/src/network"
	"finance-pipeline/src/storage"
	"finance-pipeline/src/usage"
	"finance-pipeline/src/watchlist"
)

// Register the subcommands.
func Register(c *subcommands.Commander) {
	c.Register(&initCmd{}, "database")
	c.Register(&backupCmd{}, "database")
	c.Register(&vacuumCmd{}, "database")
	c.Register(&queryCmd{}, "database")

	c.Register(&loadSymbolsCmd{}, "data")
	c.Register(&fetchPricesCmd{}, "data")
	c.Register(&fetchMacroCmd{}, "data")
	c.Register(&refetchCmd{}, "data")

	c.Register(&watchlistCmd{}, "workspace")
	c.Register(&usageCmd{}, "workspace")

	c.Register(&serveCmd{}, "server")
}

// As a CLI application the lifecycle is short lived, so a global config
// flag shared by every command is fine.
var configPath = flag.String("config", "config/config.yaml", "Path to the YAML configuration file")

// -----------------------------------------------------------------------------
// Shared application wiring
// -----------------------------------------------------------------------------

// app bundles the components every command needs, built from the config file.
type app struct {
	Config     *config.Config
	Logger     *logger.Logger
	Store      *storage.Store
	Catalog    *catalog.Catalog
	Prices     *ingest.PriceIngester
	Macro      *ingest.MacroIngester
	Watchlists *watchlist.Manager
	Usage      *usage.Tracker
}

// newApp loads the configuration and wires the component graph. The store
// connects lazily on first use, so construction never touches the disk.
func newApp() (*app, error) {
	cfg, err := config.NewConfig(*configPath)
	if err != nil {
		return nil, err
	}

	log := logger.NewLogger(cfg.LogLevel, cfg.Name)
	store := storage.NewStore(cfg.MConfig, log)
	netMgr := network.NewNetworkManager(cfg.MConfig, log)
	tracker := usage.NewTracker(store, log)

	yahooSource := yahoo.NewYahooFinanceSource(netMgr, log)
	fredSource := fred.NewFredSource(netMgr, log)

	return &app{
		Config:     cfg,
		Logger:     log,
		Store:      store,
		Catalog:    catalog.NewCatalog(store, log),
		Prices:     ingest.NewPriceIngester(store, yahooSource, tracker, log, cfg.Quotas),
		Macro:      ingest.NewMacroIngester(store, fredSource, tracker, log, cfg.Quotas),
		Watchlists: watchlist.NewManager(store, log),
		Usage:      tracker,
	}, nil
}

func (a *app) Close() {
	if err := a.Store.Disconnect(); err != nil {
		a.Logger.Warning("Error closing database: %v", err)
	}
}

// -----------------------------------------------------------------------------

// fail prints an error to stderr and returns the failure exit status, so
// command bodies can stay one-liners on the error path.
func fail(format string, args ...interface{}) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	return subcommands.ExitFailure
}

// indicatorsOrDefault resolves the indicator list for macro commands:
// explicit request, then configuration, then the built-in FRED set.
func indicatorsOrDefault(requested []string, cfg *config.Config) []string {
	if len(requested) > 0 {
		return requested
	}
	if len(cfg.Macro.Indicators) > 0 {
		return cfg.Macro.Indicators
	}
	return fred.DefaultIndicators
}
