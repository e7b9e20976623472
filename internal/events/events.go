// Package events defines the message payloads the gymlog consumer handles.
package events

import "time"

// Event type header values carried on Kafka records.
const (
	TypeImportRequested = "gymlog.import_requested"
	TypeImportCompleted = "gymlog.import_completed"
)

// ImportRequested is emitted when a raw gym-log text should be ingested.
type ImportRequested struct {
	RequestID   string    `json:"request_id"`
	UserID      string    `json:"user_id"`
	Text        string    `json:"text"`
	MinDate     string    `json:"min_date,omitempty"`
	RequestedAt time.Time `json:"requested_at"`
}

// ImportCompleted reports the outcome of a processed import request.
type ImportCompleted struct {
	RequestID   string    `json:"request_id"`
	UserID      string    `json:"user_id"`
	Imported    int       `json:"imported"`
	CompletedAt time.Time `json:"completed_at"`
}
