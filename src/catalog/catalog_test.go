package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finance-pipeline/src/logger"
	"finance-pipeline/src/models"
	"finance-pipeline/src/storage"
)

func newTestCatalog(t *testing.T) (*Catalog, *storage.Store) {
	t.Helper()

	cfg := &models.MConfig{}
	cfg.Database.Path = ":memory:"
	log := logger.NewLogger("ERROR", "test")
	store := storage.NewStore(cfg, log)

	require.NoError(t, store.Connect())
	require.NoError(t, store.InitSchema())
	t.Cleanup(func() { store.Disconnect() })

	return NewCatalog(store, log), store
}

func TestLoadSymbols(t *testing.T) {
	cat, store := newTestCatalog(t)

	marketCap := 3.4e12
	count, err := cat.LoadSymbols(map[string]models.MSymbol{
		"AAPL": {Name: "Apple Inc.", Sector: "Technology", MarketCap: &marketCap, AssetClass: models.AssetClassEquity},
		"BTC-USD": {Name: "Bitcoin USD", AssetClass: models.AssetClassCrypto},
		"UNKNOWN": {Name: "No Class Given"},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	// Missing asset class defaults to equity, missing attributes stay NULL.
	result, err := store.Execute("SELECT asset_class, sector FROM symbols WHERE symbol = ?", "UNKNOWN")
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)
	assert.Equal(t, models.AssetClassEquity, result.Rows[0][0])
	assert.Nil(t, result.Rows[0][1])
}

func TestLoadSymbolsReplacesExisting(t *testing.T) {
	cat, store := newTestCatalog(t)

	_, err := cat.LoadSymbols(map[string]models.MSymbol{
		"AAPL": {Name: "Apple Inc.", Sector: "Technology"},
	})
	require.NoError(t, err)

	_, err = cat.LoadSymbols(map[string]models.MSymbol{
		"AAPL": {Name: "Apple Inc.", Sector: "Consumer Electronics"},
	})
	require.NoError(t, err)

	result, err := store.Execute("SELECT COUNT(*), MAX(sector) FROM symbols")
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.Rows[0][0])
	assert.Equal(t, "Consumer Electronics", result.Rows[0][1])
}

func TestSearch(t *testing.T) {
	cat, _ := newTestCatalog(t)

	_, err := cat.LoadSymbols(map[string]models.MSymbol{
		"AAPL": {Name: "Apple Inc.", Sector: "Technology", Country: "US"},
		"MSFT": {Name: "Microsoft", Sector: "Technology", Country: "US"},
		"TTE":  {Name: "TotalEnergies", Sector: "Energy", Country: "FR"},
	})
	require.NoError(t, err)

	tests := []struct {
		name    string
		filters map[string]string
		limit   int
		want    []string
	}{
		{"single filter", map[string]string{"sector": "Technology"}, 0, []string{"AAPL", "MSFT"}},
		{"combined filters", map[string]string{"sector": "Technology", "country": "US"}, 0, []string{"AAPL", "MSFT"}},
		{"no match", map[string]string{"sector": "Utilities"}, 0, []string{}},
		{"no filters returns all", nil, 0, []string{"AAPL", "MSFT", "TTE"}},
		{"limit applies", nil, 2, []string{"AAPL", "MSFT"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := cat.Search(tc.filters, tc.limit)
			require.NoError(t, err)

			codes := make([]string, 0, len(got))
			for _, s := range got {
				codes = append(codes, s.Symbol)
			}
			assert.Equal(t, tc.want, codes)
		})
	}
}

func TestSearchRejectsUnknownColumn(t *testing.T) {
	cat, _ := newTestCatalog(t)

	_, err := cat.Search(map[string]string{"symbol; DROP TABLE symbols": "x"}, 0)
	assert.ErrorContains(t, err, "unsupported search column")
}

func TestLoadFromFileSource(t *testing.T) {
	cat, store := newTestCatalog(t)

	path := filepath.Join(t.TempDir(), "symbols.json")
	payload := `{
		"AAPL": {"name": "Apple Inc.", "sector": "Technology", "asset_class": "equity"},
		"^GSPC": {"name": "S&P 500", "asset_class": "index"}
	}`
	require.NoError(t, os.WriteFile(path, []byte(payload), 0644))

	count, err := cat.LoadFrom(NewFileSource(path))
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	result, err := store.Execute("SELECT asset_class FROM symbols WHERE symbol = ?", "^GSPC")
	require.NoError(t, err)
	assert.Equal(t, models.AssetClassIndex, result.Rows[0][0])
}

func TestFileSourceMissingFile(t *testing.T) {
	_, err := NewFileSource(filepath.Join(t.TempDir(), "absent.json")).Records()
	assert.Error(t, err)
}
