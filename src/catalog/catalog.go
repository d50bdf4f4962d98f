package catalog

import (
	"fmt"
	"sort"
	"strings"

	"finance-pipeline/src/helpers"
	"finance-pipeline/src/interfaces"
	"finance-pipeline/src/logger"
	"finance-pipeline/src/models"
	"finance-pipeline/src/storage"
)

// -----------------------------------------------------------------------------

// Catalog upserts symbol metadata in bulk. Symbols are never deleted here.
type Catalog struct {
	Store  *storage.Store
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewCatalog(store *storage.Store, log *logger.Logger) *Catalog {
	return &Catalog{
		Store:  store,
		Logger: log,
	}
}

// -----------------------------------------------------------------------------

// LoadSymbols upserts each record, replacing any existing row with the same
// code. Missing attributes become NULL; asset class defaults to equity.
// Returns the number of rows written.
func (c *Catalog) LoadSymbols(records map[string]models.MSymbol) (int, error) {
	if err := c.Store.Connect(); err != nil {
		return 0, err
	}

	tx, err := c.Store.DB().Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO symbols
			(symbol, name, sector, industry, market_cap, country, exchange, currency, isin, asset_class)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (symbol) DO UPDATE SET
			name = excluded.name,
			sector = excluded.sector,
			industry = excluded.industry,
			market_cap = excluded.market_cap,
			country = excluded.country,
			exchange = excluded.exchange,
			currency = excluded.currency,
			isin = excluded.isin,
			asset_class = excluded.asset_class,
			updated_at = CURRENT_TIMESTAMP
	`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	count := 0
	for code, info := range records {
		assetClass := info.AssetClass
		if assetClass == "" {
			assetClass = models.AssetClassEquity
		}

		_, err := stmt.Exec(
			code,
			nullable(info.Name),
			nullable(info.Sector),
			nullable(info.Industry),
			info.MarketCap,
			nullable(info.Country),
			nullable(info.Exchange),
			nullable(info.Currency),
			nullable(info.ISIN),
			assetClass,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to upsert symbol %s: %w", code, err)
		}
		count++
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}

	c.Logger.Info("Loaded %d symbols", count)
	return count, nil
}

// -----------------------------------------------------------------------------

// LoadFrom pulls the full catalog from a source and upserts it.
func (c *Catalog) LoadFrom(source interfaces.ICatalogSource) (int, error) {
	records, err := source.Records()
	if err != nil {
		return 0, fmt.Errorf("catalog source failed: %w", err)
	}
	return c.LoadSymbols(records)
}

// -----------------------------------------------------------------------------

// Columns a search filter may target. Only these names are ever interpolated
// into statement text; filter values are always bound positionally.
var searchColumns = map[string]bool{
	"sector":      true,
	"industry":    true,
	"country":     true,
	"exchange":    true,
	"currency":    true,
	"asset_class": true,
}

// Search returns symbols matching all given column filters, up to limit.
func (c *Catalog) Search(filters map[string]string, limit int) ([]models.MSymbol, error) {
	var clauses []string
	var params []any

	// Deterministic clause order
	cols := make([]string, 0, len(filters))
	for col := range filters {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	for _, col := range cols {
		if !searchColumns[col] {
			return nil, helpers.NewQueryError(fmt.Sprintf("unsupported search column: %s", col), nil)
		}
		clauses = append(clauses, fmt.Sprintf("%s = ?", col))
		params = append(params, filters[col])
	}

	query := `SELECT symbol, name, sector, industry, market_cap, country, exchange, currency, isin, asset_class FROM symbols`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY symbol"
	if limit > 0 {
		query += " LIMIT ?"
		params = append(params, limit)
	}

	result, err := c.Store.Execute(query, params...)
	if err != nil {
		return nil, err
	}

	symbols := make([]models.MSymbol, 0, len(result.Rows))
	for _, row := range result.Rows {
		symbols = append(symbols, symbolFromRow(row))
	}
	return symbols, nil
}

// -----------------------------------------------------------------------------

func symbolFromRow(row []any) models.MSymbol {
	s := models.MSymbol{
		Symbol:     asString(row[0]),
		Name:       asString(row[1]),
		Sector:     asString(row[2]),
		Industry:   asString(row[3]),
		Country:    asString(row[5]),
		Exchange:   asString(row[6]),
		Currency:   asString(row[7]),
		ISIN:       asString(row[8]),
		AssetClass: asString(row[9]),
	}
	if v, ok := row[4].(float64); ok {
		s.MarketCap = &v
	}
	return s
}

func asString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// nullable maps empty strings to NULL so absent attributes stay absent.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
