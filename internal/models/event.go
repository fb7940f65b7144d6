package models

import "time"

// Event is a single message handed to the transport, as kept in the journal.
type Event struct {
	EventID    string    `json:"event_id"`
	OccurredAt time.Time `json:"occurred_at"`
	Name       string    `json:"name"`    // e.g. "State Transition", "Alerts"
	Payload    string    `json:"payload"` // at most 100 bytes on the wire
	Private    bool      `json:"private"`
}
