package repository

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"tripledger/internal/domain"
)

// LedgerState is the singleton row carrying the administrator identity,
// the current fare rates and the next trip id to assign.
type LedgerState struct {
	Administrator common.Address
	Rates         domain.FareRates
	NextTripID    uint64
}

// StateRepository persists the ledger's singleton state.
type StateRepository interface {
	// Get retrieves the state row. Returns ErrNotFound before Seed has run.
	Get(ctx context.Context) (*LedgerState, error)

	// Seed writes the initial state row. Called once, on first boot.
	Seed(ctx context.Context, state *LedgerState) error

	// UpdateRates overwrites all three fare rates as one write.
	UpdateRates(ctx context.Context, rates domain.FareRates) error

	// SetNextTripID advances the trip id counter.
	SetNextTripID(ctx context.Context, next uint64) error
}
