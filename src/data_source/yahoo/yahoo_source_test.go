package yahoo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finance-pipeline/src/logger"
	"finance-pipeline/src/models"
)

// fakeNetwork returns a canned body and records the requested URL and params.
type fakeNetwork struct {
	body   []byte
	err    error
	url    string
	params map[string]string
}

func (f *fakeNetwork) Get(url string, params map[string]string) ([]byte, error) {
	f.url = url
	f.params = params
	return f.body, f.err
}

func newTestSource(body string) (*YahooFinanceSource, *fakeNetwork) {
	net := &fakeNetwork{body: []byte(body)}
	return NewYahooFinanceSource(net, logger.NewLogger("ERROR", "test")), net
}

// 2024-01-02 and 2024-01-03, midnight UTC.
const chartFixture = `{
	"chart": {
		"result": [{
			"meta": {"currency": "USD", "symbol": "AAPL"},
			"timestamp": [1704153600, 1704240000],
			"indicators": {
				"quote": [{
					"open":   [100.0, 100.5],
					"high":   [101.0, 102.0],
					"low":    [99.0, 100.0],
					"close":  [100.5, 101.5],
					"volume": [1000, 1100]
				}]
			}
		}],
		"error": null
	}
}`

func TestHistoryParsesChartResponse(t *testing.T) {
	source, net := newTestSource(chartFixture)

	prices, err := source.History("AAPL", "1y")
	require.NoError(t, err)

	assert.Contains(t, net.url, "/v8/finance/chart/AAPL")
	assert.Equal(t, "1d", net.params["interval"])
	assert.Equal(t, "1y", net.params["range"])

	require.Len(t, prices, 2)
	assert.Equal(t, "2024-01-02", prices[0].Date.Format(models.DateLayout))
	assert.Equal(t, 100.5, prices[0].Close)
	assert.Equal(t, int64(1000), prices[0].Volume)
	assert.Equal(t, SourceName, prices[0].Source)
	assert.Equal(t, "2024-01-03", prices[1].Date.Format(models.DateLayout))
}

func TestHistorySkipsNullOHLCRows(t *testing.T) {
	body := `{
		"chart": {
			"result": [{
				"timestamp": [1704153600, 1704240000, 1704326400],
				"indicators": {
					"quote": [{
						"open":   [100.0, null, 102.0],
						"high":   [101.0, null, 103.0],
						"low":    [99.0, null, 101.0],
						"close":  [100.5, null, 102.5],
						"volume": [1000, null, null]
					}]
				}
			}],
			"error": null
		}
	}`
	source, _ := newTestSource(body)

	prices, err := source.History("AAPL", "1mo")
	require.NoError(t, err)

	// The all-null row disappears; a null volume alone becomes zero.
	require.Len(t, prices, 2)
	assert.Equal(t, int64(1000), prices[0].Volume)
	assert.Equal(t, int64(0), prices[1].Volume)
}

func TestHistoryAPIError(t *testing.T) {
	body := `{
		"chart": {
			"result": null,
			"error": {"code": "Not Found", "description": "No data found, symbol may be delisted"}
		}
	}`
	source, _ := newTestSource(body)

	_, err := source.History("NOPE", "1y")
	assert.ErrorContains(t, err, "Not Found")
}

func TestHistoryMisalignedArrays(t *testing.T) {
	body := `{
		"chart": {
			"result": [{
				"timestamp": [1704153600, 1704240000],
				"indicators": {
					"quote": [{
						"open": [100.0], "high": [101.0], "low": [99.0],
						"close": [100.5], "volume": [1000]
					}]
				}
			}],
			"error": null
		}
	}`
	source, _ := newTestSource(body)

	_, err := source.History("AAPL", "1y")
	assert.ErrorContains(t, err, "alignment")
}

func TestHistoryEmptyResult(t *testing.T) {
	source, _ := newTestSource(`{"chart": {"result": [], "error": null}}`)

	_, err := source.History("AAPL", "1y")
	assert.Error(t, err)
}
