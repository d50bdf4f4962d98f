package models

import "time"

// MApiCall is one append-only entry of the external-call log.
type MApiCall struct {
	Source    string    `json:"source"`
	Endpoint  string    `json:"endpoint"`
	Symbol    string    `json:"symbol"`
	Timestamp time.Time `json:"timestamp"`
}
