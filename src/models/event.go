package models

// Ingest event types broadcast to dashboard clients.
const (
	EventFetchStart    = "FETCH_START"
	EventFetchProgress = "FETCH_PROGRESS"
	EventFetchDone     = "FETCH_DONE"
)

// MIngestEvent describes the progress of a running ingestion batch.
type MIngestEvent struct {
	Type      string `json:"type"`
	Source    string `json:"source"`
	Item      string `json:"item,omitempty"`
	Index     int    `json:"index,omitempty"`
	Total     int    `json:"total"`
	Rows      int    `json:"rows,omitempty"`
	Error     string `json:"error,omitempty"`
	Timestamp int64  `json:"timestamp"`
}
