package ingest

import (
	"fmt"
	"time"

	"finance-pipeline/src/helpers"
	"finance-pipeline/src/interfaces"
	"finance-pipeline/src/logger"
	"finance-pipeline/src/models"
	"finance-pipeline/src/storage"
	"finance-pipeline/src/usage"
	"finance-pipeline/src/utils"
)

// -----------------------------------------------------------------------------

// PriceIngester fetches per-symbol OHLCV bars and upserts them by
// (symbol, date). Re-running a fetch for the same snapshot is idempotent:
// the conflict target replaces all non-key columns.
type PriceIngester struct {
	Store  *storage.Store
	Source interfaces.IPriceSource
	Usage  *usage.Tracker
	Logger *logger.Logger
	Quotas map[string]models.MQuota

	// Progress, when set, receives batch progress events (dashboard feed).
	Progress func(models.MIngestEvent)
}

// -----------------------------------------------------------------------------

func NewPriceIngester(store *storage.Store, source interfaces.IPriceSource, tracker *usage.Tracker, log *logger.Logger, quotas map[string]models.MQuota) *PriceIngester {
	return &PriceIngester{
		Store:  store,
		Source: source,
		Usage:  tracker,
		Logger: log,
		Quotas: quotas,
	}
}

// -----------------------------------------------------------------------------

// FetchOne fetches the lookback period for one symbol, upserts every bar and
// logs one call record. Fails with a FetchError when the source returns no
// rows, and with a RateLimitError when the source's configured quota is
// already spent.
func (p *PriceIngester) FetchOne(symbol, period string) (int, error) {
	if err := p.checkQuota(); err != nil {
		return 0, err
	}

	prices, err := p.Source.History(symbol, period)
	if err != nil {
		return 0, helpers.NewFetchError(fmt.Sprintf("fetch failed for %s", symbol), err)
	}
	if len(prices) == 0 {
		return 0, helpers.NewFetchError(fmt.Sprintf("no data returned for %s", symbol), nil)
	}

	count, err := p.upsertPrices(prices)
	if err != nil {
		return 0, err
	}

	if err := p.Usage.Record(p.Source.Name(), "history", symbol); err != nil {
		p.Logger.Warning("Failed to log api call for %s: %v", symbol, err)
	}

	p.Logger.Info("Stored %d bars for %s (period %s)", count, symbol, period)
	return count, nil
}

// -----------------------------------------------------------------------------

// FetchBatch iterates symbols sequentially. A failure for one symbol is
// recorded and iteration continues with the next.
func (p *PriceIngester) FetchBatch(symbols []string, period string) *models.MFetchReport {
	report := &models.MFetchReport{}
	p.emit(models.MIngestEvent{Type: models.EventFetchStart, Source: p.Source.Name(), Total: len(symbols)})

	for i, symbol := range symbols {
		count, err := p.FetchOne(symbol, period)
		if err != nil {
			p.Logger.Error("[%d/%d] %s failed: %v", i+1, len(symbols), symbol, err)
			report.AddFailure(symbol, err)
			p.emit(models.MIngestEvent{
				Type: models.EventFetchProgress, Source: p.Source.Name(),
				Item: symbol, Index: i + 1, Total: len(symbols), Error: err.Error(),
			})
			continue
		}

		report.AddSuccess(count)
		p.emit(models.MIngestEvent{
			Type: models.EventFetchProgress, Source: p.Source.Name(),
			Item: symbol, Index: i + 1, Total: len(symbols), Rows: count,
		})
	}

	p.Logger.Info("Batch fetch complete: %d/%d succeeded, %d failed", report.Success, report.Total, report.Failed)
	p.emit(models.MIngestEvent{Type: models.EventFetchDone, Source: p.Source.Name(), Total: report.Total, Rows: report.Rows})
	return report
}

// -----------------------------------------------------------------------------

// ClearSymbol deletes all stored bars for a symbol, forcing a clean
// re-download on the next fetch.
func (p *PriceIngester) ClearSymbol(symbol string) error {
	_, err := p.Store.Execute("DELETE FROM daily_prices WHERE symbol = ?", symbol)
	if err != nil {
		return err
	}
	p.Logger.Info("Cleared price data for %s", symbol)
	return nil
}

// -----------------------------------------------------------------------------

// RefetchAll clears then re-fetches each symbol, with the same per-symbol
// failure isolation as FetchBatch. With no symbol list it defaults to the
// distinct set already present in the store.
func (p *PriceIngester) RefetchAll(symbols []string, period string) (*models.MFetchReport, error) {
	if symbols == nil {
		stored, err := p.StoredSymbols()
		if err != nil {
			return nil, err
		}
		symbols = stored
	}

	report := &models.MFetchReport{}
	if len(symbols) == 0 {
		p.Logger.Warning("No symbols to refetch")
		return report, nil
	}

	p.emit(models.MIngestEvent{Type: models.EventFetchStart, Source: p.Source.Name(), Total: len(symbols)})

	for i, symbol := range symbols {
		count, err := p.refetchOne(symbol, period)
		if err != nil {
			p.Logger.Error("[%d/%d] refetch of %s failed: %v", i+1, len(symbols), symbol, err)
			report.AddFailure(symbol, err)
			p.emit(models.MIngestEvent{
				Type: models.EventFetchProgress, Source: p.Source.Name(),
				Item: symbol, Index: i + 1, Total: len(symbols), Error: err.Error(),
			})
			continue
		}

		report.AddSuccess(count)
		p.emit(models.MIngestEvent{
			Type: models.EventFetchProgress, Source: p.Source.Name(),
			Item: symbol, Index: i + 1, Total: len(symbols), Rows: count,
		})
	}

	p.Logger.Info("Refetch complete: %d/%d succeeded, %d failed", report.Success, report.Total, report.Failed)
	p.emit(models.MIngestEvent{Type: models.EventFetchDone, Source: p.Source.Name(), Total: report.Total, Rows: report.Rows})
	return report, nil
}

func (p *PriceIngester) refetchOne(symbol, period string) (int, error) {
	if err := p.ClearSymbol(symbol); err != nil {
		return 0, err
	}
	return p.FetchOne(symbol, period)
}

// -----------------------------------------------------------------------------

// StoredSymbols returns the distinct symbols that have price data.
func (p *PriceIngester) StoredSymbols() ([]string, error) {
	result, err := p.Store.Execute("SELECT DISTINCT symbol FROM daily_prices ORDER BY symbol")
	if err != nil {
		return nil, err
	}

	symbols := make([]string, 0, len(result.Rows))
	for _, row := range result.Rows {
		if s, ok := row[0].(string); ok {
			symbols = append(symbols, s)
		}
	}
	return symbols, nil
}

// -----------------------------------------------------------------------------

// Latest returns the most recent stored bar for a symbol, through the
// latest_prices view. Returns nil when the symbol has no stored history.
func (p *PriceIngester) Latest(symbol string) (*models.MDailyPrice, error) {
	result, err := p.Store.Execute(`
		SELECT symbol, timestamp, open, high, low, close, volume, source
		FROM latest_prices
		WHERE symbol = ?
	`, symbol)
	if err != nil {
		return nil, err
	}
	if result.Empty() {
		return nil, nil
	}

	row := result.Rows[0]
	bar := &models.MDailyPrice{}
	if s, ok := row[0].(string); ok {
		bar.Symbol = s
	}
	if s, ok := row[1].(string); ok {
		if d, err := time.Parse(models.DateLayout, s); err == nil {
			bar.Date = d
		}
	}
	if v, ok := row[2].(float64); ok {
		bar.Open = v
	}
	if v, ok := row[3].(float64); ok {
		bar.High = v
	}
	if v, ok := row[4].(float64); ok {
		bar.Low = v
	}
	if v, ok := row[5].(float64); ok {
		bar.Close = v
	}
	if v, ok := row[6].(int64); ok {
		bar.Volume = v
	}
	if s, ok := row[7].(string); ok {
		bar.Source = s
	}
	return bar, nil
}

// -----------------------------------------------------------------------------

// LatestDate returns the most recent stored bar date for a symbol.
func (p *PriceIngester) LatestDate(symbol string) (time.Time, bool, error) {
	result, err := p.Store.Execute("SELECT MAX(timestamp) FROM daily_prices WHERE symbol = ?", symbol)
	if err != nil {
		return time.Time{}, false, err
	}
	if result.Empty() || result.Rows[0][0] == nil {
		return time.Time{}, false, nil
	}

	raw, ok := result.Rows[0][0].(string)
	if !ok {
		return time.Time{}, false, fmt.Errorf("unexpected date type %T", result.Rows[0][0])
	}

	date, err := time.Parse(models.DateLayout, raw)
	if err != nil {
		return time.Time{}, false, err
	}
	return date, true, nil
}

// -----------------------------------------------------------------------------

// UpToDate reports whether the stored series for a symbol already covers the
// last completed trading session of its exchange calendar.
func (p *PriceIngester) UpToDate(symbol string) (bool, error) {
	latest, ok, err := p.LatestDate(symbol)
	if err != nil || !ok {
		return false, err
	}

	session := utils.GetCalendar(symbol).LastCompletedSession(time.Now())
	return !latest.Before(session), nil
}

// -----------------------------------------------------------------------------

func (p *PriceIngester) upsertPrices(prices []models.MDailyPrice) (int, error) {
	if err := p.Store.Connect(); err != nil {
		return 0, err
	}

	tx, err := p.Store.DB().Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO daily_prices (symbol, timestamp, open, high, low, close, volume, source)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (symbol, timestamp) DO UPDATE SET
			open = excluded.open,
			high = excluded.high,
			low = excluded.low,
			close = excluded.close,
			volume = excluded.volume,
			source = excluded.source
	`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	count := 0
	for _, bar := range prices {
		_, err := stmt.Exec(
			bar.Symbol,
			bar.Date.Format(models.DateLayout),
			bar.Open,
			bar.High,
			bar.Low,
			bar.Close,
			bar.Volume,
			bar.Source,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to upsert bar %s/%s: %w", bar.Symbol, bar.Date.Format(models.DateLayout), err)
		}
		count++
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return count, nil
}

// -----------------------------------------------------------------------------

// checkQuota enforces the source's configured call quota before a fetch.
// The tracker only counts; the decision to call is made here.
func (p *PriceIngester) checkQuota() error {
	quota, ok := p.Quotas[p.Source.Name()]
	if !ok {
		return nil
	}

	used, err := p.Usage.Usage(p.Source.Name(), quota.WindowHours)
	if err != nil {
		return err
	}
	if used >= quota.Limit {
		return helpers.NewRateLimitError(p.Source.Name(), used, quota.Limit, quota.WindowHours)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (p *PriceIngester) emit(event models.MIngestEvent) {
	if p.Progress == nil {
		return
	}
	event.Timestamp = time.Now().Unix()
	p.Progress(event)
}
