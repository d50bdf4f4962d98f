package yahoo

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"finance-pipeline/src/interfaces"
	"finance-pipeline/src/logger"
	"finance-pipeline/src/models"
)

// SourceName is the tag written to stored rows and the call log.
const SourceName = "yahoo_finance"

const chartURL = "https://query1.finance.yahoo.com/v8/finance/chart/%s"

// -----------------------------------------------------------------------------

// YahooFinanceSource fetches daily OHLCV history from the public chart API.
// No API key required.
type YahooFinanceSource struct {
	Network interfaces.INetworkManager
	Logger  *logger.Logger
}

// -----------------------------------------------------------------------------

func NewYahooFinanceSource(netMgr interfaces.INetworkManager, log *logger.Logger) *YahooFinanceSource {
	return &YahooFinanceSource{
		Network: netMgr,
		Logger:  log,
	}
}

// -----------------------------------------------------------------------------

func (s *YahooFinanceSource) Name() string {
	return SourceName
}

// -----------------------------------------------------------------------------

// History fetches daily bars for a symbol over a lookback period.
func (s *YahooFinanceSource) History(symbol, period string) ([]models.MDailyPrice, error) {
	params := map[string]string{
		"interval": "1d",
		"range":    period,
	}

	url := fmt.Sprintf(chartURL, symbol)

	respBytes, err := s.Network.Get(url, params)
	if err != nil {
		return nil, fmt.Errorf("network error for %s: %w", symbol, err)
	}

	return s.parseChartResponse(symbol, respBytes)
}

// -----------------------------------------------------------------------------

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency        string `json:"currency"`
				Symbol          string `json:"symbol"`
				ExchangeName    string `json:"exchangeName"`
				InstrumentType  string `json:"instrumentType"`
				Timezone        string `json:"timezone"`
				DataGranularity string `json:"dataGranularity"`
				Range           string `json:"range"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`   // Pointers to handle null
					High   []*float64 `json:"high"`   // Pointers to handle null
					Low    []*float64 `json:"low"`    // Pointers to handle null
					Close  []*float64 `json:"close"`  // Pointers to handle null
					Volume []*int64   `json:"volume"` // Pointers to handle null
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// -----------------------------------------------------------------------------

func (s *YahooFinanceSource) parseChartResponse(symbol string, data []byte) ([]models.MDailyPrice, error) {
	var resp chartResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("json unmarshal failed: %w", err)
	}

	if resp.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s - %s", resp.Chart.Error.Code, resp.Chart.Error.Description)
	}

	if len(resp.Chart.Result) == 0 {
		return nil, fmt.Errorf("no result in response for %s", symbol)
	}

	result := resp.Chart.Result[0]
	if len(result.Timestamp) == 0 {
		return nil, fmt.Errorf("no timestamps in response for %s", symbol)
	}

	if len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("no quote data in response for %s", symbol)
	}

	quote := result.Indicators.Quote[0]

	// Alignment check before indexing into the quote arrays
	if len(result.Timestamp) != len(quote.Open) ||
		len(result.Timestamp) != len(quote.High) ||
		len(result.Timestamp) != len(quote.Low) ||
		len(result.Timestamp) != len(quote.Close) ||
		len(result.Timestamp) != len(quote.Volume) {
		return nil, fmt.Errorf("data alignment error for %s", symbol)
	}

	prices := make([]models.MDailyPrice, 0, len(result.Timestamp))

	for i, ts := range result.Timestamp {
		// Rows with a null price field are skipped, never stored
		if quote.Open[i] == nil || quote.High[i] == nil || quote.Low[i] == nil || quote.Close[i] == nil {
			s.Logger.Debug("Skipping null OHLC row for %s at index %d", symbol, i)
			continue
		}

		var volume int64
		if quote.Volume[i] != nil {
			volume = *quote.Volume[i]
		}

		day := time.Unix(ts, 0).UTC()
		date := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)

		prices = append(prices, models.MDailyPrice{
			Symbol: symbol,
			Date:   date,
			Open:   *quote.Open[i],
			High:   *quote.High[i],
			Low:    *quote.Low[i],
			Close:  *quote.Close[i],
			Volume: volume,
			Source: SourceName,
		})
	}

	sort.Slice(prices, func(i, j int) bool {
		return prices[i].Date.Before(prices[j].Date)
	})

	s.Logger.Info("Fetched %d bars for %s", len(prices), symbol)
	return prices, nil
}
