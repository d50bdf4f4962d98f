package ingest

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finance-pipeline/src/logger"
	"finance-pipeline/src/models"
	"finance-pipeline/src/storage"
	"finance-pipeline/src/usage"
)

type fakeMacroSource struct {
	series map[string][]models.MMacroPoint
}

func (f *fakeMacroSource) Name() string { return "fake_macro" }

func (f *fakeMacroSource) Series(indicator string) ([]models.MMacroPoint, error) {
	points, ok := f.series[indicator]
	if !ok {
		return nil, fmt.Errorf("unknown series %s", indicator)
	}
	return points, nil
}

func point(date string, value *float64) models.MMacroPoint {
	d, _ := time.Parse(models.DateLayout, date)
	return models.MMacroPoint{Date: d, Value: value}
}

func floatPtr(v float64) *float64 { return &v }

func newMacroFixture(t *testing.T, source *fakeMacroSource) (*MacroIngester, *storage.Store) {
	t.Helper()

	cfg := &models.MConfig{}
	cfg.Database.Path = ":memory:"
	log := logger.NewLogger("ERROR", "test")
	store := storage.NewStore(cfg, log)

	require.NoError(t, store.Connect())
	require.NoError(t, store.InitSchema())
	t.Cleanup(func() { store.Disconnect() })

	tracker := usage.NewTracker(store, log)
	return NewMacroIngester(store, source, tracker, log, nil), store
}

func TestFetchIndicatorSkipsMissingObservations(t *testing.T) {
	source := &fakeMacroSource{series: map[string][]models.MMacroPoint{
		"DFF": {
			point("2024-01-01", floatPtr(5.33)),
			point("2024-01-02", nil), // reported as "." by the source
			point("2024-01-03", floatPtr(5.32)),
		},
	}}
	ingester, store := newMacroFixture(t, source)

	count, err := ingester.FetchIndicator("DFF")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	result, err := store.Execute("SELECT COUNT(*) FROM macro_data WHERE indicator = ?", "DFF")
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.Rows[0][0])
}

func TestFetchIndicatorUpsertsByDate(t *testing.T) {
	source := &fakeMacroSource{series: map[string][]models.MMacroPoint{
		"UNRATE": {point("2024-01-01", floatPtr(3.7))},
	}}
	ingester, store := newMacroFixture(t, source)

	_, err := ingester.FetchIndicator("UNRATE")
	require.NoError(t, err)

	// A revised value for the same date replaces the row.
	source.series["UNRATE"] = []models.MMacroPoint{point("2024-01-01", floatPtr(3.8))}
	_, err = ingester.FetchIndicator("UNRATE")
	require.NoError(t, err)

	result, err := store.Execute("SELECT COUNT(*), MAX(value) FROM macro_data")
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.Rows[0][0])
	assert.Equal(t, 3.8, result.Rows[0][1])
}

func TestMacroFetchBatchIsolatesFailures(t *testing.T) {
	source := &fakeMacroSource{series: map[string][]models.MMacroPoint{
		"DFF":    {point("2024-01-01", floatPtr(5.33))},
		"UNRATE": {point("2024-01-01", floatPtr(3.7))},
	}}
	ingester, _ := newMacroFixture(t, source)

	report := ingester.FetchBatch([]string{"DFF", "MISSING", "UNRATE"})

	assert.Equal(t, 3, report.Total)
	assert.Equal(t, 2, report.Success)
	assert.Equal(t, 1, report.Failed)
	assert.Contains(t, report.Failures, "MISSING")
}

func TestObservations(t *testing.T) {
	source := &fakeMacroSource{series: map[string][]models.MMacroPoint{
		"DFF": {point("2024-01-02", floatPtr(5.32)), point("2024-01-01", floatPtr(5.33))},
	}}
	ingester, _ := newMacroFixture(t, source)

	_, err := ingester.FetchIndicator("DFF")
	require.NoError(t, err)

	observations, err := ingester.Observations("DFF")
	require.NoError(t, err)
	require.Len(t, observations, 2)

	// Date order regardless of source order.
	assert.Equal(t, "2024-01-01", observations[0].Date.Format(models.DateLayout))
	assert.Equal(t, 5.33, observations[0].Value)
	assert.Equal(t, "fake_macro", observations[0].Source)
}

func TestIndicators(t *testing.T) {
	source := &fakeMacroSource{series: map[string][]models.MMacroPoint{
		"UNRATE": {point("2024-01-01", floatPtr(3.7))},
		"DFF":    {point("2024-01-01", floatPtr(5.33))},
	}}
	ingester, _ := newMacroFixture(t, source)

	ingester.FetchBatch([]string{"UNRATE", "DFF"})

	codes, err := ingester.Indicators()
	require.NoError(t, err)
	assert.Equal(t, []string{"DFF", "UNRATE"}, codes)
}
