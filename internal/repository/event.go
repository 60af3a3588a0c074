package repository

import (
	"context"

	"tripledger/internal/domain"
)

// EventRepository persists the append-only notification log.
type EventRepository interface {
	// Append stores an event and fills in its assigned sequence number.
	Append(ctx context.Context, event *domain.Event) error

	// GetSince retrieves up to limit events with sequence > sinceSeq,
	// in sequence order.
	GetSince(ctx context.Context, sinceSeq uint64, limit int) ([]*domain.Event, error)
}
