package domain

import "time"

// EventType represents the type of ledger event.
type EventType string

const (
	EventDriverRegistered EventType = "DRIVER_REGISTERED"
	EventDriverRemoved    EventType = "DRIVER_REMOVED"
	EventFareUpdated      EventType = "FARE_UPDATED"
	EventTripRecorded     EventType = "TRIP_RECORDED"
)

// Event is one entry in the append-only notification log emitted on every
// state change. Sequence is assigned by the log when the entry is appended
// and is strictly increasing.
type Event struct {
	ID        string
	Sequence  uint64
	Type      EventType
	Payload   map[string]any
	EmittedAt time.Time
}
