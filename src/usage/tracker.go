package usage

import (
	"fmt"
	"time"

	"finance-pipeline/src/logger"
	"finance-pipeline/src/models"
	"finance-pipeline/src/storage"
)

// Stored timestamp layout. RFC3339 in UTC is fixed-width, so the trailing
// window comparison in Usage works lexicographically.
const timestampLayout = time.RFC3339

// -----------------------------------------------------------------------------

// Tracker records and counts external-call events. It only counts; quota
// policy lives with the callers.
type Tracker struct {
	Store  *storage.Store
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewTracker(store *storage.Store, log *logger.Logger) *Tracker {
	return &Tracker{
		Store:  store,
		Logger: log,
	}
}

// -----------------------------------------------------------------------------

// Record appends one call log entry with the current timestamp.
func (t *Tracker) Record(source, endpoint, symbol string) error {
	return t.RecordAt(source, endpoint, symbol, time.Now())
}

// -----------------------------------------------------------------------------

// RecordAt appends one call log entry with an explicit timestamp.
func (t *Tracker) RecordAt(source, endpoint, symbol string, ts time.Time) error {
	_, err := t.Store.Execute(`
		INSERT INTO api_calls (source, endpoint, symbol, timestamp)
		VALUES (?, ?, ?, ?)
	`, source, endpoint, symbol, ts.UTC().Format(timestampLayout))
	if err != nil {
		return fmt.Errorf("failed to log api call: %w", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

// Usage returns the number of calls to a source within the trailing window.
func (t *Tracker) Usage(source string, windowHours int) (int, error) {
	cutoff := time.Now().Add(-time.Duration(windowHours) * time.Hour).UTC().Format(timestampLayout)

	result, err := t.Store.Execute(`
		SELECT COUNT(*) FROM api_calls
		WHERE source = ? AND timestamp >= ?
	`, source, cutoff)
	if err != nil {
		return 0, err
	}

	if result.Empty() {
		return 0, nil
	}

	count, ok := result.Rows[0][0].(int64)
	if !ok {
		return 0, fmt.Errorf("unexpected count type %T", result.Rows[0][0])
	}
	return int(count), nil
}

// -----------------------------------------------------------------------------

// History returns the most recent call log entries, newest first. An empty
// source matches all sources.
func (t *Tracker) History(source string, limit int) ([]models.MApiCall, error) {
	query := "SELECT source, endpoint, symbol, timestamp FROM api_calls"
	var params []any
	if source != "" {
		query += " WHERE source = ?"
		params = append(params, source)
	}
	query += " ORDER BY timestamp DESC LIMIT ?"
	params = append(params, limit)

	result, err := t.Store.Execute(query, params...)
	if err != nil {
		return nil, err
	}

	calls := make([]models.MApiCall, 0, len(result.Rows))
	for _, row := range result.Rows {
		call := models.MApiCall{}
		if s, ok := row[0].(string); ok {
			call.Source = s
		}
		if s, ok := row[1].(string); ok {
			call.Endpoint = s
		}
		if s, ok := row[2].(string); ok {
			call.Symbol = s
		}
		if s, ok := row[3].(string); ok {
			if ts, err := time.Parse(timestampLayout, s); err == nil {
				call.Timestamp = ts
			}
		}
		calls = append(calls, call)
	}
	return calls, nil
}

// -----------------------------------------------------------------------------

// ClearHistory deletes call log entries for a source, or all entries when
// source is empty.
func (t *Tracker) ClearHistory(source string) error {
	var err error
	if source == "" {
		_, err = t.Store.Execute("DELETE FROM api_calls")
	} else {
		_, err = t.Store.Execute("DELETE FROM api_calls WHERE source = ?", source)
	}
	if err != nil {
		return err
	}

	t.Logger.Info("Cleared api call history (source=%q)", source)
	return nil
}
