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
)

// -----------------------------------------------------------------------------

// MacroIngester fetches indicator series and upserts observations by
// (indicator, date). Observations the source reports as missing are skipped,
// never stored.
type MacroIngester struct {
	Store  *storage.Store
	Source interfaces.IMacroSource
	Usage  *usage.Tracker
	Logger *logger.Logger
	Quotas map[string]models.MQuota

	// Progress, when set, receives batch progress events (dashboard feed).
	Progress func(models.MIngestEvent)
}

// -----------------------------------------------------------------------------

func NewMacroIngester(store *storage.Store, source interfaces.IMacroSource, tracker *usage.Tracker, log *logger.Logger, quotas map[string]models.MQuota) *MacroIngester {
	return &MacroIngester{
		Store:  store,
		Source: source,
		Usage:  tracker,
		Logger: log,
		Quotas: quotas,
	}
}

// -----------------------------------------------------------------------------

// FetchIndicator fetches one series, discards missing-value rows, upserts
// the remainder and returns the row count written.
func (m *MacroIngester) FetchIndicator(indicator string) (int, error) {
	if err := m.checkQuota(); err != nil {
		return 0, err
	}

	points, err := m.Source.Series(indicator)
	if err != nil {
		return 0, helpers.NewFetchError(fmt.Sprintf("fetch failed for %s", indicator), err)
	}
	if len(points) == 0 {
		return 0, helpers.NewFetchError(fmt.Sprintf("no data returned for %s", indicator), nil)
	}

	count, err := m.upsertObservations(indicator, points)
	if err != nil {
		return 0, err
	}

	if err := m.Usage.Record(m.Source.Name(), "graph", indicator); err != nil {
		m.Logger.Warning("Failed to log api call for %s: %v", indicator, err)
	}

	m.Logger.Info("Stored %d observations for %s", count, indicator)
	return count, nil
}

// -----------------------------------------------------------------------------

// FetchBatch iterates indicators sequentially with per-item failure
// isolation, mirroring the price batch contract.
func (m *MacroIngester) FetchBatch(indicators []string) *models.MFetchReport {
	report := &models.MFetchReport{}
	m.emit(models.MIngestEvent{Type: models.EventFetchStart, Source: m.Source.Name(), Total: len(indicators)})

	for i, indicator := range indicators {
		count, err := m.FetchIndicator(indicator)
		if err != nil {
			m.Logger.Error("[%d/%d] %s failed: %v", i+1, len(indicators), indicator, err)
			report.AddFailure(indicator, err)
			m.emit(models.MIngestEvent{
				Type: models.EventFetchProgress, Source: m.Source.Name(),
				Item: indicator, Index: i + 1, Total: len(indicators), Error: err.Error(),
			})
			continue
		}

		report.AddSuccess(count)
		m.emit(models.MIngestEvent{
			Type: models.EventFetchProgress, Source: m.Source.Name(),
			Item: indicator, Index: i + 1, Total: len(indicators), Rows: count,
		})
	}

	m.Logger.Info("Macro batch complete: %d/%d succeeded, %d failed", report.Success, report.Total, report.Failed)
	m.emit(models.MIngestEvent{Type: models.EventFetchDone, Source: m.Source.Name(), Total: report.Total, Rows: report.Rows})
	return report
}

// -----------------------------------------------------------------------------

// Indicators returns the distinct indicator codes present in the store.
func (m *MacroIngester) Indicators() ([]string, error) {
	result, err := m.Store.Execute("SELECT DISTINCT indicator FROM macro_data ORDER BY indicator")
	if err != nil {
		return nil, err
	}

	codes := make([]string, 0, len(result.Rows))
	for _, row := range result.Rows {
		if s, ok := row[0].(string); ok {
			codes = append(codes, s)
		}
	}
	return codes, nil
}

// -----------------------------------------------------------------------------

// Observations returns the stored series for an indicator in date order.
func (m *MacroIngester) Observations(indicator string) ([]models.MMacroData, error) {
	result, err := m.Store.Execute(`
		SELECT indicator, date, value, source
		FROM macro_data
		WHERE indicator = ?
		ORDER BY date
	`, indicator)
	if err != nil {
		return nil, err
	}

	observations := make([]models.MMacroData, 0, len(result.Rows))
	for _, row := range result.Rows {
		obs := models.MMacroData{}
		if s, ok := row[0].(string); ok {
			obs.Indicator = s
		}
		if s, ok := row[1].(string); ok {
			if d, err := time.Parse(models.DateLayout, s); err == nil {
				obs.Date = d
			}
		}
		if v, ok := row[2].(float64); ok {
			obs.Value = v
		}
		if s, ok := row[3].(string); ok {
			obs.Source = s
		}
		observations = append(observations, obs)
	}
	return observations, nil
}

// -----------------------------------------------------------------------------

func (m *MacroIngester) upsertObservations(indicator string, points []models.MMacroPoint) (int, error) {
	if err := m.Store.Connect(); err != nil {
		return 0, err
	}

	tx, err := m.Store.DB().Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO macro_data (indicator, date, value, source)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (indicator, date) DO UPDATE SET
			value = excluded.value,
			source = excluded.source
	`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	count := 0
	for _, point := range points {
		if point.Value == nil {
			continue
		}

		_, err := stmt.Exec(indicator, point.Date.Format(models.DateLayout), *point.Value, m.Source.Name())
		if err != nil {
			return 0, fmt.Errorf("failed to upsert observation %s/%s: %w", indicator, point.Date.Format(models.DateLayout), err)
		}
		count++
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return count, nil
}

// -----------------------------------------------------------------------------

func (m *MacroIngester) checkQuota() error {
	quota, ok := m.Quotas[m.Source.Name()]
	if !ok {
		return nil
	}

	used, err := m.Usage.Usage(m.Source.Name(), quota.WindowHours)
	if err != nil {
		return err
	}
	if used >= quota.Limit {
		return helpers.NewRateLimitError(m.Source.Name(), used, quota.Limit, quota.WindowHours)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (m *MacroIngester) emit(event models.MIngestEvent) {
	if m.Progress == nil {
		return
	}
	event.Timestamp = time.Now().Unix()
	m.Progress(event)
}
