package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finance-pipeline/src/catalog"
	"finance-pipeline/src/ingest"
	"finance-pipeline/src/logger"
	"finance-pipeline/src/models"
	"finance-pipeline/src/storage"
	"finance-pipeline/src/usage"
	"finance-pipeline/src/watchlist"
)

type stubPriceSource struct {
	history map[string][]models.MDailyPrice
}

func (s *stubPriceSource) Name() string { return "stub_prices" }

func (s *stubPriceSource) History(symbol, period string) ([]models.MDailyPrice, error) {
	bars, ok := s.history[symbol]
	if !ok {
		return nil, fmt.Errorf("unknown symbol %s", symbol)
	}
	return bars, nil
}

type stubMacroSource struct {
	series map[string][]models.MMacroPoint
}

func (s *stubMacroSource) Name() string { return "stub_macro" }

func (s *stubMacroSource) Series(indicator string) ([]models.MMacroPoint, error) {
	points, ok := s.series[indicator]
	if !ok {
		return nil, fmt.Errorf("unknown series %s", indicator)
	}
	return points, nil
}

func newTestServer(t *testing.T) (*APIServer, *storage.Store) {
	t.Helper()

	cfg := &models.MConfig{LogLevel: "ERROR"}
	cfg.Database.Path = ":memory:"
	log := logger.NewLogger("ERROR", "test")
	store := storage.NewStore(cfg, log)

	require.NoError(t, store.Connect())
	require.NoError(t, store.InitSchema())
	t.Cleanup(func() { store.Disconnect() })

	tracker := usage.NewTracker(store, log)
	d, _ := time.Parse(models.DateLayout, "2024-01-02")
	priceSource := &stubPriceSource{history: map[string][]models.MDailyPrice{
		"AAPL": {{Symbol: "AAPL", Date: d, Open: 100, High: 101, Low: 99, Close: 100.5, Volume: 1000, Source: "stub_prices"}},
	}}
	value := 5.33
	macroSource := &stubMacroSource{series: map[string][]models.MMacroPoint{
		"DFF": {{Date: d, Value: &value}},
	}}

	srv := NewAPIServer(
		cfg, log, store,
		catalog.NewCatalog(store, log),
		ingest.NewPriceIngester(store, priceSource, tracker, log, nil),
		ingest.NewMacroIngester(store, macroSource, tracker, log, nil),
		watchlist.NewManager(store, log),
		tracker,
	)
	return srv, store
}

func doRequest(srv *APIServer, method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		payload, _ := json.Marshal(body)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.engine.ServeHTTP(w, req)
	return w
}

func TestGetHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	w := doRequest(srv, http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
}

func TestSymbolSearchEndpoint(t *testing.T) {
	srv, store := newTestServer(t)

	_, err := store.Execute(
		"INSERT INTO symbols (symbol, name, sector, asset_class) VALUES (?, ?, ?, ?)",
		"AAPL", "Apple Inc.", "Technology", "equity")
	require.NoError(t, err)

	w := doRequest(srv, http.MethodGet, "/api/symbols?sector=Technology", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var symbols []models.MSymbol
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &symbols))
	require.Len(t, symbols, 1)
	assert.Equal(t, "AAPL", symbols[0].Symbol)

	w = doRequest(srv, http.MethodGet, "/api/symbols?sector=Energy", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &symbols))
	assert.Empty(t, symbols)
}

func TestWatchlistLifecycle(t *testing.T) {
	srv, _ := newTestServer(t)

	w := doRequest(srv, http.MethodPut, "/api/watchlists/tech", h{"symbols": []string{"AAPL", "MSFT"}})
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(srv, http.MethodGet, "/api/watchlists/tech", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Name    string   `json:"name"`
		Symbols []string `json:"symbols"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.ElementsMatch(t, []string{"AAPL", "MSFT"}, resp.Symbols)

	w = doRequest(srv, http.MethodDelete, "/api/watchlists/tech", nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doRequest(srv, http.MethodGet, "/api/watchlists", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var listResp struct {
		Watchlists []string `json:"watchlists"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listResp))
	assert.Empty(t, listResp.Watchlists)
}

func TestQueryEndpoint(t *testing.T) {
	srv, store := newTestServer(t)

	_, err := store.Execute("INSERT INTO symbols (symbol, name) VALUES (?, ?)", "AAPL", "Apple Inc.")
	require.NoError(t, err)

	w := doRequest(srv, http.MethodPost, "/api/query", h{
		"sql":    "SELECT name FROM symbols WHERE symbol = ?",
		"params": []any{"AAPL"},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var result models.MQueryResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	require.Len(t, result.Rows, 1)
	assert.Equal(t, "Apple Inc.", result.Rows[0][0])
}

func TestQueryEndpointRejectsEmptySQL(t *testing.T) {
	srv, _ := newTestServer(t)

	w := doRequest(srv, http.MethodPost, "/api/query", h{"sql": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFetchPricesEndpoint(t *testing.T) {
	srv, store := newTestServer(t)

	w := doRequest(srv, http.MethodPost, "/api/fetch/prices", h{"symbols": []string{"AAPL"}})
	require.Equal(t, http.StatusOK, w.Code)

	var report models.MFetchReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, 1, report.Success)

	result, err := store.Execute("SELECT COUNT(*) FROM daily_prices")
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.Rows[0][0])
}

func TestLatestPriceEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	w := doRequest(srv, http.MethodGet, "/api/prices/AAPL/latest", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	require.Equal(t, http.StatusOK, doRequest(srv, http.MethodPost, "/api/fetch/prices", h{"symbols": []string{"AAPL"}}).Code)

	w = doRequest(srv, http.MethodGet, "/api/prices/AAPL/latest", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var barResp models.MDailyPrice
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &barResp))
	assert.Equal(t, "AAPL", barResp.Symbol)
	assert.Equal(t, 100.5, barResp.Close)
}

func TestFetchPricesRequiresSymbols(t *testing.T) {
	srv, _ := newTestServer(t)

	w := doRequest(srv, http.MethodPost, "/api/fetch/prices", h{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFetchMacroEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	w := doRequest(srv, http.MethodPost, "/api/fetch/macro", h{"indicators": []string{"DFF"}})
	require.Equal(t, http.StatusOK, w.Code)

	var report models.MFetchReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, 1, report.Success)

	w = doRequest(srv, http.MethodGet, "/api/macro/DFF", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var observations []models.MMacroData
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &observations))
	require.Len(t, observations, 1)
	assert.Equal(t, 5.33, observations[0].Value)
}

func TestUsageEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	require.Equal(t, http.StatusOK, doRequest(srv, http.MethodPost, "/api/fetch/prices", h{"symbols": []string{"AAPL"}}).Code)

	w := doRequest(srv, http.MethodGet, "/api/usage?source=stub_prices", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Calls int `json:"calls"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Calls)

	w = doRequest(srv, http.MethodGet, "/api/usage", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// h is shorthand for JSON request bodies.
type h = map[string]any
