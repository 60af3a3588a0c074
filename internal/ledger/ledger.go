package ledger

import (
	"context"
	"errors"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"tripledger/internal/domain"
	"tripledger/internal/repository"
)

// StateMachine is the access-controlled ledger state machine. It owns the
// administrator identity, the fare rates, the driver registry and the trip
// id counter, and serializes every mutation behind a single write lock.
// Each mutation checks its role guard first, then writes through to the
// store in one transaction; in-memory state is only advanced after commit,
// so a failed mutation leaves no trace.
type StateMachine struct {
	mu sync.RWMutex

	admin      common.Address
	rates      domain.FareRates
	registry   map[common.Address]bool
	nextTripID uint64

	runner    repository.TxRunner
	trips     repository.TripRepository
	state     repository.StateRepository
	driverReg repository.DriverRegistryRepository
	events    repository.EventRepository
	notifier  *Notifier
	cache     TripCache // optional
}

// New creates a StateMachine over the given store. Call Load before use.
func New(
	runner repository.TxRunner,
	trips repository.TripRepository,
	driverReg repository.DriverRegistryRepository,
	state repository.StateRepository,
	events repository.EventRepository,
	notifier *Notifier,
	cache TripCache,
) *StateMachine {
	return &StateMachine{
		registry:  make(map[common.Address]bool),
		runner:    runner,
		trips:     trips,
		state:     state,
		driverReg: driverReg,
		events:    events,
		notifier:  notifier,
		cache:     cache,
	}
}

// Load restores the ledger state from the store, seeding it with the given
// initial state on first boot. The seed's administrator and rates only
// apply when no state row exists yet.
func (s *StateMachine) Load(ctx context.Context, seed repository.LedgerState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.state.Get(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		seed.NextTripID = 1
		if err := s.state.Seed(ctx, &seed); err != nil {
			return err
		}
		// Re-read: a concurrent seeder may have won.
		state, err = s.state.Get(ctx)
	}
	if err != nil {
		return err
	}

	s.admin = state.Administrator
	s.rates = state.Rates
	s.nextTripID = state.NextTripID

	registered, err := s.driverReg.GetAllRegistered(ctx)
	if err != nil {
		return err
	}
	for _, driver := range registered {
		s.registry[driver] = true
	}

	log.Printf("ledger loaded: administrator=%s registered_drivers=%d next_trip_id=%d",
		s.admin.Hex(), len(registered), s.nextTripID)

	return nil
}

// Administrator returns the administrator principal.
func (s *StateMachine) Administrator() common.Address {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.admin
}

// FareRates returns the current fare rate triple.
func (s *StateMachine) FareRates() domain.FareRates {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rates
}

// RegisterDriver adds a driver to the registry. Administrator only.
// Re-registering an already registered driver is a no-op status-wise.
func (s *StateMachine) RegisterDriver(ctx context.Context, caller, driver common.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if caller != s.admin {
		return ErrNotAdministrator
	}

	event := newEvent(domain.EventDriverRegistered, map[string]any{
		"driver": driver.Hex(),
	})

	err := s.runner.RunTx(ctx, func(r repository.TxRepos) error {
		if err := r.Registry.SetRegistered(ctx, driver, true); err != nil {
			return err
		}
		return r.Events.Append(ctx, &event)
	})
	if err != nil {
		return err
	}

	s.registry[driver] = true

	if s.cache != nil {
		if err := s.cache.AddRegisteredDriver(ctx, driver); err != nil {
			log.Printf("driver cache mirror failed: %v", err)
		}
	}

	s.notifier.Publish(event)
	return nil
}

// RemoveDriver removes a driver from the registry. Administrator only.
// The driver's trip history is untouched.
func (s *StateMachine) RemoveDriver(ctx context.Context, caller, driver common.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if caller != s.admin {
		return ErrNotAdministrator
	}

	event := newEvent(domain.EventDriverRemoved, map[string]any{
		"driver": driver.Hex(),
	})

	err := s.runner.RunTx(ctx, func(r repository.TxRepos) error {
		if err := r.Registry.SetRegistered(ctx, driver, false); err != nil {
			return err
		}
		return r.Events.Append(ctx, &event)
	})
	if err != nil {
		return err
	}

	delete(s.registry, driver)

	if s.cache != nil {
		if err := s.cache.RemoveRegisteredDriver(ctx, driver); err != nil {
			log.Printf("driver cache mirror failed: %v", err)
		}
	}

	s.notifier.Publish(event)
	return nil
}

// UpdateFareRates overwrites all three fare rates as one state transition.
// Administrator only. No partial update is ever observable.
func (s *StateMachine) UpdateFareRates(ctx context.Context, caller common.Address, rates domain.FareRates) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if caller != s.admin {
		return ErrNotAdministrator
	}

	event := newEvent(domain.EventFareUpdated, map[string]any{
		"base_fare":       rates.Base,
		"per_km_fare":     rates.PerKm,
		"per_minute_fare": rates.PerMinute,
	})

	err := s.runner.RunTx(ctx, func(r repository.TxRepos) error {
		if err := r.State.UpdateRates(ctx, rates); err != nil {
			return err
		}
		return r.Events.Append(ctx, &event)
	})
	if err != nil {
		return err
	}

	s.rates = rates

	s.notifier.Publish(event)
	return nil
}

// CalculateFare derives the fare for the given distance and duration using
// the current rates. No authorization check, no state change.
func (s *StateMachine) CalculateFare(distanceMeters, durationSeconds uint64) (uint64, error) {
	s.mu.RLock()
	rates := s.rates
	s.mu.RUnlock()

	return computeFare(rates, distanceMeters, durationSeconds)
}

// RecordTrip computes the fare for the supplied distance and duration and
// appends a new trip under the next id. Registered drivers only. Distance
// and duration accept any value, zero included.
func (s *StateMachine) RecordTrip(ctx context.Context, caller common.Address, distanceMeters, durationSeconds uint64, dataHash common.Hash) (*domain.Trip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.registry[caller] {
		return nil, ErrNotRegisteredDriver
	}

	fare, err := computeFare(s.rates, distanceMeters, durationSeconds)
	if err != nil {
		return nil, err
	}

	trip := &domain.Trip{
		ID:              s.nextTripID,
		Driver:          caller,
		DistanceMeters:  distanceMeters,
		DurationSeconds: durationSeconds,
		Fare:            fare,
		DataHash:        dataHash,
		RecordedAt:      time.Now().UTC(),
	}

	event := newEvent(domain.EventTripRecorded, map[string]any{
		"trip_id": trip.ID,
		"driver":  caller.Hex(),
		"fare":    fare,
	})

	err = s.runner.RunTx(ctx, func(r repository.TxRepos) error {
		if err := r.Trips.Create(ctx, trip); err != nil {
			return err
		}
		if err := r.State.SetNextTripID(ctx, trip.ID+1); err != nil {
			return err
		}
		return r.Events.Append(ctx, &event)
	})
	if err != nil {
		return nil, err
	}

	s.nextTripID = trip.ID + 1

	if s.cache != nil {
		if err := s.cache.SetTrip(ctx, trip); err != nil {
			log.Printf("trip cache fill failed: %v", err)
		}
	}

	s.notifier.Publish(event)
	return trip, nil
}

// GetTrip retrieves a trip by id. Returns ErrTripNotFound for ids that were
// never assigned; there is no zero-value trip.
func (s *StateMachine) GetTrip(ctx context.Context, id uint64) (*domain.Trip, error) {
	if s.cache != nil {
		trip, err := s.cache.GetTrip(ctx, id)
		if err != nil {
			log.Printf("trip cache read failed: %v", err)
		} else if trip != nil {
			return trip, nil
		}
	}

	trip, err := s.trips.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTripNotFound
		}
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetTrip(ctx, trip); err != nil {
			log.Printf("trip cache fill failed: %v", err)
		}
	}

	return trip, nil
}

// ListTrips retrieves recent trips, newest first.
func (s *StateMachine) ListTrips(ctx context.Context) ([]*domain.Trip, error) {
	return s.trips.GetAll(ctx)
}

// ListDrivers returns the currently registered drivers in address order.
func (s *StateMachine) ListDrivers() []common.Address {
	s.mu.RLock()
	defer s.mu.RUnlock()

	drivers := make([]common.Address, 0, len(s.registry))
	for driver := range s.registry {
		drivers = append(drivers, driver)
	}
	sort.Slice(drivers, func(i, j int) bool {
		return drivers[i].Hex() < drivers[j].Hex()
	})

	return drivers
}

// ListEvents retrieves up to limit events with sequence > sinceSeq.
func (s *StateMachine) ListEvents(ctx context.Context, sinceSeq uint64, limit int) ([]*domain.Event, error) {
	return s.events.GetSince(ctx, sinceSeq, limit)
}

// newEvent builds an unappended event; the event repository assigns the
// sequence number at commit time.
func newEvent(eventType domain.EventType, payload map[string]any) domain.Event {
	return domain.Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Payload:   payload,
		EmittedAt: time.Now().UTC(),
	}
}
