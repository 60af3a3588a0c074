package repository

import (
	"context"

	"tripledger/internal/domain"
)

// TripRepository defines the persistence operations for the trip ledger.
// The ledger is append-only: trips are created once and never updated.
type TripRepository interface {
	// Create persists a new trip under its assigned id.
	Create(ctx context.Context, trip *domain.Trip) error

	// GetByID retrieves a trip by id. Returns ErrNotFound for ids that
	// were never assigned.
	GetByID(ctx context.Context, id uint64) (*domain.Trip, error)

	// GetAll retrieves recent trips, newest first.
	GetAll(ctx context.Context) ([]*domain.Trip, error)
}
