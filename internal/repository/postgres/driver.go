package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/ethereum/go-ethereum/common"

	"tripledger/internal/repository"
)

// DriverRegistryRepository is a PostgreSQL implementation of
// repository.DriverRegistryRepository.
type DriverRegistryRepository struct {
	q Querier
}

// NewDriverRegistryRepository creates a new PostgreSQL driver registry repository.
func NewDriverRegistryRepository(db *sql.DB) *DriverRegistryRepository {
	return &DriverRegistryRepository{q: db}
}

// NewDriverRegistryRepositoryWithTx creates a driver registry repository using a transaction.
func NewDriverRegistryRepositoryWithTx(tx *sql.Tx) *DriverRegistryRepository {
	return &DriverRegistryRepository{q: tx}
}

// SetRegistered sets the membership flag for a driver.
func (r *DriverRegistryRepository) SetRegistered(ctx context.Context, driver common.Address, registered bool) error {
	query := `
		INSERT INTO driver_registry (address, registered, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (address) DO UPDATE SET registered = $2, updated_at = now()
	`

	_, err := r.q.ExecContext(ctx, query, driver.Hex(), registered)
	return err
}

// IsRegistered reports whether a driver is currently registered.
func (r *DriverRegistryRepository) IsRegistered(ctx context.Context, driver common.Address) (bool, error) {
	query := `SELECT registered FROM driver_registry WHERE address = $1`

	var registered bool
	err := r.q.QueryRowContext(ctx, query, driver.Hex()).Scan(&registered)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}

	return registered, nil
}

// GetAllRegistered retrieves every currently registered driver.
func (r *DriverRegistryRepository) GetAllRegistered(ctx context.Context) ([]common.Address, error) {
	query := `SELECT address FROM driver_registry WHERE registered ORDER BY address`

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var drivers []common.Address
	for rows.Next() {
		var address string
		if err := rows.Scan(&address); err != nil {
			return nil, err
		}
		drivers = append(drivers, common.HexToAddress(address))
	}

	return drivers, rows.Err()
}

// Ensure DriverRegistryRepository implements repository.DriverRegistryRepository.
var _ repository.DriverRegistryRepository = (*DriverRegistryRepository)(nil)
