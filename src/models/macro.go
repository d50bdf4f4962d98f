package models

import "time"

// MMacroPoint is a raw observation as delivered by a macro source.
// Value is nil when the source reports the observation as missing.
type MMacroPoint struct {
	Date  time.Time `json:"date"`
	Value *float64  `json:"value"`
}

// MMacroData represents one stored observation, keyed by (indicator, date).
type MMacroData struct {
	Indicator string    `json:"indicator"`
	Date      time.Time `json:"date"`
	Value     float64   `json:"value"`
	Source    string    `json:"source"`
}
