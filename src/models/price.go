package models

import "time"

// DateLayout is the storage format for trading dates (one bar per day).
const DateLayout = "2006-01-02"

// MDailyPrice represents one OHLCV bar, keyed by (symbol, date).
type MDailyPrice struct {
	Symbol string    `json:"symbol"`
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
	Source string    `json:"source"`
}
