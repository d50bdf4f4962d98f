package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetCalendarSuffixMapping(t *testing.T) {
	tests := []struct {
		symbol string
		tzName string
	}{
		{"AAPL", "America/New_York"},
		{"^GSPC", "America/New_York"},
		{"AIR.PA", "Europe/Paris"},
		{"7203.T", "Asia/Tokyo"},
	}

	for _, tc := range tests {
		t.Run(tc.symbol, func(t *testing.T) {
			cal := GetCalendar(tc.symbol)
			require.NotNil(t, cal.Timezone)
			assert.Equal(t, tc.tzName, cal.Timezone.String())
		})
	}
}

func TestIsTradingDayFallback(t *testing.T) {
	cal := &TradingCalendar{Fallback: true, Timezone: time.UTC}

	assert.True(t, cal.IsTradingDay(time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)))  // Wednesday
	assert.False(t, cal.IsTradingDay(time.Date(2024, 1, 13, 12, 0, 0, 0, time.UTC))) // Saturday
	assert.False(t, cal.IsTradingDay(time.Date(2024, 1, 14, 12, 0, 0, 0, time.UTC))) // Sunday
}

func TestLastCompletedSession(t *testing.T) {
	cal := &TradingCalendar{Fallback: true, Timezone: time.UTC}

	tests := []struct {
		name string
		now  time.Time
		want string
	}{
		{
			"weekday after the close counts today",
			time.Date(2024, 1, 10, 18, 0, 0, 0, time.UTC),
			"2024-01-10",
		},
		{
			"weekday before the close falls back to yesterday",
			time.Date(2024, 1, 10, 10, 0, 0, 0, time.UTC),
			"2024-01-09",
		},
		{
			"saturday resolves to friday",
			time.Date(2024, 1, 13, 12, 0, 0, 0, time.UTC),
			"2024-01-12",
		},
		{
			"monday morning resolves to friday",
			time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC),
			"2024-01-12",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := cal.LastCompletedSession(tc.now)
			assert.Equal(t, tc.want, got.Format("2006-01-02"))
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}

func TestLastCompletedSessionCrossTimezone(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)
	cal := &TradingCalendar{Fallback: true, Timezone: tokyo}

	// 09:00 UTC on a Wednesday is 18:00 in Tokyo, after the close there.
	got := cal.LastCompletedSession(time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC))
	assert.Equal(t, "2024-01-10", got.Format("2006-01-02"))

	// 00:00 UTC on a Wednesday is Wednesday morning in Tokyo, so Tuesday.
	got = cal.LastCompletedSession(time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "2024-01-09", got.Format("2006-01-02"))
}
