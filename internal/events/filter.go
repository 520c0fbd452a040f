package events

import "time"

// EventFilter defines criteria for filtering stored events.
type EventFilter struct {
	// Type filters events by event type
	Type EventType
	// SessionID filters events by session
	SessionID string
	// Since filters events with a timestamp at or after this instant
	Since time.Time
	// Limit limits the number of events returned
	Limit int
}
