package interfaces

import "finance-pipeline/src/models"

// -----------------------------------------------------------------------------
// External source contracts. The ingesters depend on these, never on a
// concrete provider, so a failing or quota-limited provider can be swapped
// (or faked in tests) without touching ingestion logic.
// -----------------------------------------------------------------------------

type IPriceSource interface {

	// Name returns the source tag written to stored rows and the call log.
	Name() string

	// -----------------------------------------------------------------------------

	// History fetches daily OHLCV bars for a symbol over a lookback period
	// ("1d", "5d", "1mo", "3mo", "6mo", "1y", "2y", "5y", "10y", "ytd", "max").
	History(symbol, period string) ([]models.MDailyPrice, error)
}

// -----------------------------------------------------------------------------

type IMacroSource interface {

	// Name returns the source tag written to stored rows and the call log.
	Name() string

	// -----------------------------------------------------------------------------

	// Series fetches raw observations for an indicator code. Points with a
	// nil value are delivered as-is; filtering is the ingester's concern.
	Series(indicator string) ([]models.MMacroPoint, error)
}

// -----------------------------------------------------------------------------

type ICatalogSource interface {

	// Records returns the full symbol catalog keyed by symbol code.
	Records() (map[string]models.MSymbol, error)
}
