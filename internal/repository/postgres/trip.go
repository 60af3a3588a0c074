package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/ethereum/go-ethereum/common"

	"tripledger/internal/domain"
	"tripledger/internal/repository"
)

// TripRepository is a PostgreSQL implementation of repository.TripRepository.
type TripRepository struct {
	q Querier
}

// NewTripRepository creates a new PostgreSQL trip repository.
func NewTripRepository(db *sql.DB) *TripRepository {
	return &TripRepository{q: db}
}

// NewTripRepositoryWithTx creates a trip repository using a transaction.
func NewTripRepositoryWithTx(tx *sql.Tx) *TripRepository {
	return &TripRepository{q: tx}
}

// Create persists a new trip. Trips are never updated afterwards.
func (r *TripRepository) Create(ctx context.Context, trip *domain.Trip) error {
	query := `
		INSERT INTO trips (id, driver, distance_meters, duration_seconds, fare, data_hash, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.q.ExecContext(ctx, query,
		int64(trip.ID),
		trip.Driver.Hex(),
		uintArg(trip.DistanceMeters),
		uintArg(trip.DurationSeconds),
		uintArg(trip.Fare),
		trip.DataHash.Hex(),
		trip.RecordedAt,
	)

	return err
}

// GetByID retrieves a trip by id.
func (r *TripRepository) GetByID(ctx context.Context, id uint64) (*domain.Trip, error) {
	query := `
		SELECT id, driver, distance_meters, duration_seconds, fare, data_hash, recorded_at
		FROM trips WHERE id = $1
	`

	row := r.q.QueryRowContext(ctx, query, int64(id))

	trip, err := scanTrip(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return trip, nil
}

// GetAll retrieves recent trips, newest first.
func (r *TripRepository) GetAll(ctx context.Context) ([]*domain.Trip, error) {
	query := `
		SELECT id, driver, distance_meters, duration_seconds, fare, data_hash, recorded_at
		FROM trips ORDER BY id DESC LIMIT 100
	`

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trips []*domain.Trip
	for rows.Next() {
		trip, err := scanTrip(rows.Scan)
		if err != nil {
			return nil, err
		}
		trips = append(trips, trip)
	}

	return trips, rows.Err()
}

// scanTrip reads one trip row through the given scan function.
func scanTrip(scan func(dest ...any) error) (*domain.Trip, error) {
	var (
		id       int64
		driver   string
		distance string
		duration string
		fare     string
		dataHash string
		trip     domain.Trip
	)

	if err := scan(&id, &driver, &distance, &duration, &fare, &dataHash, &trip.RecordedAt); err != nil {
		return nil, err
	}

	trip.ID = uint64(id)
	trip.Driver = common.HexToAddress(driver)
	trip.DataHash = common.HexToHash(dataHash)

	var err error
	if trip.DistanceMeters, err = parseUint(distance); err != nil {
		return nil, err
	}
	if trip.DurationSeconds, err = parseUint(duration); err != nil {
		return nil, err
	}
	if trip.Fare, err = parseUint(fare); err != nil {
		return nil, err
	}

	return &trip, nil
}

// Ensure TripRepository implements repository.TripRepository.
var _ repository.TripRepository = (*TripRepository)(nil)
