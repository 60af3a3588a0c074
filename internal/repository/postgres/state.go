package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/ethereum/go-ethereum/common"

	"tripledger/internal/domain"
	"tripledger/internal/repository"
)

// StateRepository is a PostgreSQL implementation of repository.StateRepository.
// The state lives in a single row with a fixed key.
type StateRepository struct {
	q Querier
}

// NewStateRepository creates a new PostgreSQL state repository.
func NewStateRepository(db *sql.DB) *StateRepository {
	return &StateRepository{q: db}
}

// NewStateRepositoryWithTx creates a state repository using a transaction.
func NewStateRepositoryWithTx(tx *sql.Tx) *StateRepository {
	return &StateRepository{q: tx}
}

// Get retrieves the singleton state row.
func (r *StateRepository) Get(ctx context.Context) (*repository.LedgerState, error) {
	query := `
		SELECT administrator, base_fare, per_km_fare, per_minute_fare, next_trip_id
		FROM ledger_state WHERE id = 1
	`

	var (
		administrator string
		base          string
		perKm         string
		perMinute     string
		nextTripID    int64
	)

	err := r.q.QueryRowContext(ctx, query).Scan(&administrator, &base, &perKm, &perMinute, &nextTripID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	state := &repository.LedgerState{
		Administrator: common.HexToAddress(administrator),
		NextTripID:    uint64(nextTripID),
	}
	if state.Rates.Base, err = parseUint(base); err != nil {
		return nil, err
	}
	if state.Rates.PerKm, err = parseUint(perKm); err != nil {
		return nil, err
	}
	if state.Rates.PerMinute, err = parseUint(perMinute); err != nil {
		return nil, err
	}

	return state, nil
}

// Seed writes the initial state row. A concurrent seed loses quietly;
// the caller re-reads afterwards.
func (r *StateRepository) Seed(ctx context.Context, state *repository.LedgerState) error {
	query := `
		INSERT INTO ledger_state (id, administrator, base_fare, per_km_fare, per_minute_fare, next_trip_id)
		VALUES (1, $1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING
	`

	_, err := r.q.ExecContext(ctx, query,
		state.Administrator.Hex(),
		uintArg(state.Rates.Base),
		uintArg(state.Rates.PerKm),
		uintArg(state.Rates.PerMinute),
		int64(state.NextTripID),
	)

	return err
}

// UpdateRates overwrites all three fare rates as one write.
func (r *StateRepository) UpdateRates(ctx context.Context, rates domain.FareRates) error {
	query := `
		UPDATE ledger_state
		SET base_fare = $1, per_km_fare = $2, per_minute_fare = $3
		WHERE id = 1
	`

	result, err := r.q.ExecContext(ctx, query, uintArg(rates.Base), uintArg(rates.PerKm), uintArg(rates.PerMinute))
	if err != nil {
		return err
	}

	return requireRow(result)
}

// SetNextTripID advances the trip id counter.
func (r *StateRepository) SetNextTripID(ctx context.Context, next uint64) error {
	query := `UPDATE ledger_state SET next_trip_id = $1 WHERE id = 1`

	result, err := r.q.ExecContext(ctx, query, int64(next))
	if err != nil {
		return err
	}

	return requireRow(result)
}

// requireRow maps a zero-row update to ErrNotFound.
func requireRow(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Ensure StateRepository implements repository.StateRepository.
var _ repository.StateRepository = (*StateRepository)(nil)
