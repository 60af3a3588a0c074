package redis

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/redis/go-redis/v9"

	"tripledger/internal/domain"
	"tripledger/internal/ledger"
)

// CacheStore handles ledger caching in Redis: a read-through cache for
// trips and a mirror set of the registered drivers. Neither is
// authoritative; the state machine and Postgres are.
type CacheStore struct {
	client *redis.Client
}

// NewCacheStore creates a new CacheStore.
func NewCacheStore(client *redis.Client) *CacheStore {
	return &CacheStore{client: client}
}

// Trips are immutable once recorded, so the TTL only bounds memory use.
const TripCacheTTL = 10 * time.Minute

// Key layout
const (
	tripCachePrefix     = "cache:trip:"
	registeredDriverSet = "registered_drivers"
)

// cachedTrip is the JSON shape of a trip cache entry. Amounts are decimal
// strings so the full uint64 range survives the round trip.
type cachedTrip struct {
	ID              uint64 `json:"id"`
	Driver          string `json:"driver"`
	DistanceMeters  string `json:"distance_meters"`
	DurationSeconds string `json:"duration_seconds"`
	Fare            string `json:"fare"`
	DataHash        string `json:"data_hash"`
	RecordedAt      int64  `json:"recorded_at_unix"`
}

// GetTrip retrieves a trip from cache. Returns (nil, nil) on a miss.
func (s *CacheStore) GetTrip(ctx context.Context, id uint64) (*domain.Trip, error) {
	key := tripCachePrefix + strconv.FormatUint(id, 10)
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Cache miss
		}
		return nil, err
	}

	var entry cachedTrip
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, err
	}

	trip := &domain.Trip{
		ID:         entry.ID,
		Driver:     common.HexToAddress(entry.Driver),
		DataHash:   common.HexToHash(entry.DataHash),
		RecordedAt: time.Unix(entry.RecordedAt, 0).UTC(),
	}
	if trip.DistanceMeters, err = strconv.ParseUint(entry.DistanceMeters, 10, 64); err != nil {
		return nil, err
	}
	if trip.DurationSeconds, err = strconv.ParseUint(entry.DurationSeconds, 10, 64); err != nil {
		return nil, err
	}
	if trip.Fare, err = strconv.ParseUint(entry.Fare, 10, 64); err != nil {
		return nil, err
	}

	return trip, nil
}

// SetTrip stores a trip in cache.
func (s *CacheStore) SetTrip(ctx context.Context, trip *domain.Trip) error {
	key := tripCachePrefix + strconv.FormatUint(trip.ID, 10)

	data, err := json.Marshal(cachedTrip{
		ID:              trip.ID,
		Driver:          trip.Driver.Hex(),
		DistanceMeters:  strconv.FormatUint(trip.DistanceMeters, 10),
		DurationSeconds: strconv.FormatUint(trip.DurationSeconds, 10),
		Fare:            strconv.FormatUint(trip.Fare, 10),
		DataHash:        trip.DataHash.Hex(),
		RecordedAt:      trip.RecordedAt.Unix(),
	})
	if err != nil {
		return err
	}

	return s.client.Set(ctx, key, data, TripCacheTTL).Err()
}

// AddRegisteredDriver mirrors a registration into the driver set.
func (s *CacheStore) AddRegisteredDriver(ctx context.Context, driver common.Address) error {
	return s.client.SAdd(ctx, registeredDriverSet, driver.Hex()).Err()
}

// RemoveRegisteredDriver mirrors a removal out of the driver set.
func (s *CacheStore) RemoveRegisteredDriver(ctx context.Context, driver common.Address) error {
	return s.client.SRem(ctx, registeredDriverSet, driver.Hex()).Err()
}

// IsDriverRegistered checks the mirror set. Used by dashboards and the
// health surface only; authorization always goes through the state machine.
func (s *CacheStore) IsDriverRegistered(ctx context.Context, driver common.Address) (bool, error) {
	return s.client.SIsMember(ctx, registeredDriverSet, driver.Hex()).Result()
}

// Ensure CacheStore implements ledger.TripCache.
var _ ledger.TripCache = (*CacheStore)(nil)
