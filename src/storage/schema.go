package storage

import "fmt"

// Entity schema. Create-if-absent only: InitSchema never alters existing
// table structure and there is no migration support.
//
// watchlist_symbols carries no uniqueness constraint on purpose; duplicate
// members passed by the caller are stored as given.
const schemaSQL = `
-- Symbol master table
CREATE TABLE IF NOT EXISTS symbols (
    symbol TEXT PRIMARY KEY,
    name TEXT,
    sector TEXT,
    industry TEXT,
    market_cap REAL,
    country TEXT,
    exchange TEXT,
    currency TEXT,
    isin TEXT,
    asset_class TEXT,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

-- Daily price data
CREATE TABLE IF NOT EXISTS daily_prices (
    symbol TEXT,
    timestamp DATE,
    open REAL,
    high REAL,
    low REAL,
    close REAL,
    volume INTEGER,
    source TEXT,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (symbol, timestamp)
);

-- Macro economic indicators
CREATE TABLE IF NOT EXISTS macro_data (
    indicator TEXT,
    date DATE,
    value REAL,
    source TEXT,
    PRIMARY KEY (indicator, date)
);

-- Watchlists
CREATE TABLE IF NOT EXISTS watchlists (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT UNIQUE,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS watchlist_symbols (
    watchlist_id INTEGER,
    symbol TEXT,
    FOREIGN KEY (watchlist_id) REFERENCES watchlists(id)
);

-- API call tracking
CREATE TABLE IF NOT EXISTS api_calls (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    source TEXT,
    endpoint TEXT,
    symbol TEXT,
    timestamp DATETIME
);

-- Indexes
CREATE INDEX IF NOT EXISTS idx_prices_symbol ON daily_prices(symbol);
CREATE INDEX IF NOT EXISTS idx_prices_timestamp ON daily_prices(timestamp);
CREATE INDEX IF NOT EXISTS idx_prices_source ON daily_prices(source);
CREATE INDEX IF NOT EXISTS idx_symbols_sector ON symbols(sector);
CREATE INDEX IF NOT EXISTS idx_watchlists_name ON watchlists(name);
CREATE INDEX IF NOT EXISTS idx_macro_indicator ON macro_data(indicator);
CREATE INDEX IF NOT EXISTS idx_macro_date ON macro_data(date);
CREATE INDEX IF NOT EXISTS idx_api_calls_source ON api_calls(source);
CREATE INDEX IF NOT EXISTS idx_api_calls_timestamp ON api_calls(timestamp);

-- Views
CREATE VIEW IF NOT EXISTS latest_prices AS
SELECT p.*
FROM daily_prices p
INNER JOIN (
    SELECT symbol, MAX(timestamp) as max_date
    FROM daily_prices
    GROUP BY symbol
) latest ON p.symbol = latest.symbol AND p.timestamp = latest.max_date;
`

// -----------------------------------------------------------------------------

// InitSchema creates all entity tables, indexes and views. Safe to call on
// an already-initialized store.
func (s *Store) InitSchema() error {
	if err := s.Connect(); err != nil {
		return err
	}

	if _, err := s.db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	s.Logger.Debug("Schema initialized at %s", s.Path())
	return nil
}
