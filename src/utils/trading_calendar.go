package utils

import (
	"strings"
	"time"

	"github.com/scmhub/calendar"
)

// TradingCalendar answers trading-day questions for a symbol's exchange,
// used to decide whether a stored daily series is already current.
type TradingCalendar struct {
	Calendar *calendar.Calendar
	Fallback bool
	Timezone *time.Location
}

// Yahoo-style symbol suffix to MIC code (ISO 10383).
var suffixToMIC = map[string]string{
	".L":  "xlon",
	".PA": "xpar",
	".DE": "xfra",
	".AS": "xams",
	".MI": "xmil",
	".MC": "xmad",
	".SW": "xswx",
	".ST": "xsto",
	".TO": "xtse",
	".T":  "xtks",
	".HK": "xhkg",
	".AX": "xasx",
	".KS": "xkrx",
	".SS": "xshg",
	".SZ": "xshe",
}

// -----------------------------------------------------------------------------

// GetCalendar resolves the trading calendar for a symbol. Unsuffixed symbols
// map to NYSE; unknown suffixes fall back to a plain Mon-Fri week.
func GetCalendar(symbol string) *TradingCalendar {
	mic := "xnys"
	for suffix, m := range suffixToMIC {
		if strings.HasSuffix(symbol, suffix) {
			mic = m
			break
		}
	}

	cal := calendar.GetCalendar(mic)
	if cal == nil {
		cal = calendar.GetCalendar("xnys")
	}

	if cal == nil {
		nyLoc, _ := time.LoadLocation("America/New_York")
		if nyLoc == nil {
			nyLoc = time.UTC
		}
		return &TradingCalendar{Fallback: true, Timezone: nyLoc}
	}

	return &TradingCalendar{Calendar: cal, Fallback: false, Timezone: cal.Loc}
}

// -----------------------------------------------------------------------------

func (tc *TradingCalendar) IsTradingDay(date time.Time) bool {
	if tc.Timezone != nil {
		date = date.In(tc.Timezone)
	}

	if tc.Fallback {
		weekday := date.Weekday()
		return weekday != time.Saturday && weekday != time.Sunday
	}
	return tc.Calendar.IsBusinessDay(date)
}

// -----------------------------------------------------------------------------

// LastCompletedSession returns the date (midnight UTC) of the most recent
// trading session whose close has passed. Today only counts once the local
// evening is reached; before that the previous trading day is the answer.
func (tc *TradingCalendar) LastCompletedSession(now time.Time) time.Time {
	loc := tc.Timezone
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)

	// Anchor at local noon so timezone conversion can't shift the date.
	day := time.Date(local.Year(), local.Month(), local.Day(), 12, 0, 0, 0, loc)

	// 17:00 local approximates "after the close" across supported venues.
	if !tc.IsTradingDay(day) || local.Hour() < 17 {
		day = day.AddDate(0, 0, -1)
	}

	for !tc.IsTradingDay(day) {
		day = day.AddDate(0, 0, -1)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
}
