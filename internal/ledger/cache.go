package ledger

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"tripledger/internal/domain"
)

// TripCache is the read-side cache consulted before the trip repository.
// It is strictly an accelerator: the registry map and Postgres stay
// authoritative, and every method is best-effort.
type TripCache interface {
	// GetTrip returns the cached trip, or (nil, nil) on a miss.
	GetTrip(ctx context.Context, id uint64) (*domain.Trip, error)

	// SetTrip stores a trip. Trips are immutable, so entries never go stale.
	SetTrip(ctx context.Context, trip *domain.Trip) error

	// AddRegisteredDriver mirrors a registration into the driver set.
	AddRegisteredDriver(ctx context.Context, driver common.Address) error

	// RemoveRegisteredDriver mirrors a removal out of the driver set.
	RemoveRegisteredDriver(ctx context.Context, driver common.Address) error
}
