package tests

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"tripledger/internal/domain"
	"tripledger/internal/ledger"
	"tripledger/internal/repository"
)

var (
	admin   = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	driver1 = common.HexToAddress("0x00000000000000000000000000000000000000d1")
	driver2 = common.HexToAddress("0x00000000000000000000000000000000000000d2")
	mallory = common.HexToAddress("0x00000000000000000000000000000000000000ee")

	tripHash = common.HexToHash("0x1111111111111111111111111111111111111111111111111111111111111111")
)

// fixture bundles a loaded state machine with its backing mocks.
type fixture struct {
	sm       *ledger.StateMachine
	trips    *MockTripRepository
	registry *MockDriverRegistryRepository
	state    *MockStateRepository
	events   *MockEventRepository
	notifier *ledger.Notifier
}

// newFixture builds a state machine seeded with the given rates.
func newFixture(t *testing.T, rates domain.FareRates) *fixture {
	t.Helper()

	trips := NewMockTripRepository()
	registry := NewMockDriverRegistryRepository()
	state := NewMockStateRepository()
	events := NewMockEventRepository()
	runner := NewMockTxRunner(trips, registry, state, events)
	notifier := ledger.NewNotifier()

	sm := ledger.New(runner, trips, registry, state, events, notifier, nil)

	seed := repository.LedgerState{Administrator: admin, Rates: rates}
	if err := sm.Load(context.Background(), seed); err != nil {
		t.Fatalf("unexpected error loading ledger: %v", err)
	}

	return &fixture{
		sm:       sm,
		trips:    trips,
		registry: registry,
		state:    state,
		events:   events,
		notifier: notifier,
	}
}

func TestRegisterDriver_NonAdminRejected(t *testing.T) {
	t.Parallel()

	f := newFixture(t, domain.FareRates{Base: 100, PerKm: 10, PerMinute: 1})
	ctx := context.Background()

	err := f.sm.RegisterDriver(ctx, mallory, driver1)
	if !errors.Is(err, ledger.ErrNotAdministrator) {
		t.Fatalf("expected ErrNotAdministrator, got %v", err)
	}

	// Rejected before any write: no registry mutation, no event.
	if count := f.registry.SetRegisteredCallCount; count != 0 {
		t.Errorf("expected no registry writes, got %d", count)
	}
	if len(f.events.Events()) != 0 {
		t.Error("expected no events after rejected mutation")
	}
	if len(f.sm.ListDrivers()) != 0 {
		t.Error("expected empty driver list after rejected mutation")
	}
}

func TestRegisterDriver_Idempotent(t *testing.T) {
	t.Parallel()

	f := newFixture(t, domain.FareRates{})
	ctx := context.Background()

	if err := f.sm.RegisterDriver(ctx, admin, driver1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := f.sm.RegisterDriver(ctx, admin, driver1); err != nil {
		t.Fatalf("expected re-registration to succeed, got %v", err)
	}

	if drivers := f.sm.ListDrivers(); len(drivers) != 1 || drivers[0] != driver1 {
		t.Errorf("expected exactly one registered driver, got %v", drivers)
	}
}

func TestRemoveDriver_RestoresUnauthorized(t *testing.T) {
	t.Parallel()

	f := newFixture(t, domain.FareRates{Base: 100})
	ctx := context.Background()

	if err := f.sm.RegisterDriver(ctx, admin, driver1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Registered: recording succeeds.
	if _, err := f.sm.RecordTrip(ctx, driver1, 1000, 60, tripHash); err != nil {
		t.Fatalf("expected recording to succeed while registered, got %v", err)
	}

	if err := f.sm.RemoveDriver(ctx, admin, driver1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Removed: recording is unauthorized again.
	if _, err := f.sm.RecordTrip(ctx, driver1, 1000, 60, tripHash); !errors.Is(err, ledger.ErrNotRegisteredDriver) {
		t.Fatalf("expected ErrNotRegisteredDriver after removal, got %v", err)
	}

	// Removal does not erase trip history.
	if f.trips.CountTrips() != 1 {
		t.Errorf("expected trip history to survive removal, got %d trips", f.trips.CountTrips())
	}
}

func TestRecordTrip_ScenarioFare(t *testing.T) {
	t.Parallel()

	f := newFixture(t, domain.FareRates{Base: 700, PerKm: 500, PerMinute: 80})
	ctx := context.Background()

	if err := f.sm.RegisterDriver(ctx, admin, driver1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	trip, err := f.sm.RecordTrip(ctx, driver1, 5000, 600, tripHash)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 700 + 5*500 + 10*80 = 4000
	if trip.Fare != 4000 {
		t.Errorf("expected fare 4000, got %d", trip.Fare)
	}
	if trip.ID != 1 {
		t.Errorf("expected first trip id 1, got %d", trip.ID)
	}

	stored, err := f.sm.GetTrip(ctx, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored.Driver != driver1 {
		t.Errorf("expected driver %s, got %s", driver1.Hex(), stored.Driver.Hex())
	}
	if stored.DistanceMeters != 5000 || stored.DurationSeconds != 600 {
		t.Errorf("stored trip mismatch: %+v", stored)
	}
	if stored.Fare != 4000 {
		t.Errorf("expected stored fare 4000, got %d", stored.Fare)
	}
	if stored.DataHash != tripHash {
		t.Errorf("expected data hash %s, got %s", tripHash.Hex(), stored.DataHash.Hex())
	}
}

func TestRecordTrip_UnregisteredLeavesCounterUnchanged(t *testing.T) {
	t.Parallel()

	f := newFixture(t, domain.FareRates{Base: 100})
	ctx := context.Background()

	if _, err := f.sm.RecordTrip(ctx, mallory, 5000, 600, tripHash); !errors.Is(err, ledger.ErrNotRegisteredDriver) {
		t.Fatalf("expected ErrNotRegisteredDriver, got %v", err)
	}

	if f.trips.CountTrips() != 0 {
		t.Error("expected no trips after rejected recording")
	}
	if next := f.state.NextTripID(); next != 1 {
		t.Errorf("expected counter untouched at 1, got %d", next)
	}

	// The next legitimate trip still gets id 1.
	if err := f.sm.RegisterDriver(ctx, admin, driver1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	trip, err := f.sm.RecordTrip(ctx, driver1, 0, 0, tripHash)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if trip.ID != 1 {
		t.Errorf("expected id 1, got %d", trip.ID)
	}
}

func TestTripIDs_DenseAcrossDrivers(t *testing.T) {
	t.Parallel()

	f := newFixture(t, domain.FareRates{Base: 1})
	ctx := context.Background()

	for _, driver := range []common.Address{driver1, driver2} {
		if err := f.sm.RegisterDriver(ctx, admin, driver); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	callers := []common.Address{driver1, driver2, driver2, driver1}
	for i, caller := range callers {
		trip, err := f.sm.RecordTrip(ctx, caller, uint64(i)*1000, uint64(i)*60, tripHash)
		if err != nil {
			t.Fatalf("unexpected error on trip %d: %v", i+1, err)
		}
		if trip.ID != uint64(i)+1 {
			t.Errorf("expected id %d, got %d", i+1, trip.ID)
		}
	}

	if next := f.state.NextTripID(); next != 5 {
		t.Errorf("expected persisted counter 5, got %d", next)
	}
}

func TestUpdateFareRates_NonAdminLeavesStateUnchanged(t *testing.T) {
	t.Parallel()

	initial := domain.FareRates{Base: 700, PerKm: 500, PerMinute: 80}
	f := newFixture(t, initial)
	ctx := context.Background()

	err := f.sm.UpdateFareRates(ctx, mallory, domain.FareRates{Base: 1})
	if !errors.Is(err, ledger.ErrNotAdministrator) {
		t.Fatalf("expected ErrNotAdministrator, got %v", err)
	}

	if rates := f.sm.FareRates(); rates != initial {
		t.Errorf("expected rates unchanged, got %+v", rates)
	}
	if rates := f.state.Rates(); rates != initial {
		t.Errorf("expected persisted rates unchanged, got %+v", rates)
	}
}

func TestUpdateFareRates_AtomicUnderConcurrentReads(t *testing.T) {
	t.Parallel()

	low := domain.FareRates{Base: 1, PerKm: 1, PerMinute: 1}
	high := domain.FareRates{Base: 1_000_000, PerKm: 1_000_000, PerMinute: 1_000_000}
	f := newFixture(t, low)
	ctx := context.Background()

	// With distance 1000 and duration 60 the fare is base+perKm+perMinute:
	// 3 for the low triple, 3_000_000 for the high one. Any mixed triple
	// would produce a value outside that set.
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			rates := low
			if i%2 == 0 {
				rates = high
			}
			if err := f.sm.UpdateFareRates(ctx, admin, rates); err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
		}
	}()

	go func() {
		defer wg.Done()
		for i := 0; i < 2000; i++ {
			fare, err := f.sm.CalculateFare(1000, 60)
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			if fare != 3 && fare != 3_000_000 {
				t.Errorf("observed torn rate update: fare %d", fare)
				return
			}
		}
	}()

	wg.Wait()
}

func TestGetTrip_NotFoundIsStable(t *testing.T) {
	t.Parallel()

	f := newFixture(t, domain.FareRates{})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := f.sm.GetTrip(ctx, 42)
		if !errors.Is(err, ledger.ErrTripNotFound) {
			t.Fatalf("expected ErrTripNotFound on call %d, got %v", i+1, err)
		}
	}
}

func TestMutations_AppendEventsInOrder(t *testing.T) {
	t.Parallel()

	f := newFixture(t, domain.FareRates{Base: 10})
	ctx := context.Background()

	events, cancel := f.notifier.Subscribe(8)
	defer cancel()

	if err := f.sm.RegisterDriver(ctx, admin, driver1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := f.sm.UpdateFareRates(ctx, admin, domain.FareRates{Base: 20}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := f.sm.RecordTrip(ctx, driver1, 1000, 60, tripHash); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored := f.events.Events()
	wantTypes := []domain.EventType{
		domain.EventDriverRegistered,
		domain.EventFareUpdated,
		domain.EventTripRecorded,
	}
	if len(stored) != len(wantTypes) {
		t.Fatalf("expected %d events, got %d", len(wantTypes), len(stored))
	}
	for i, event := range stored {
		if event.Type != wantTypes[i] {
			t.Errorf("event %d: expected type %s, got %s", i, wantTypes[i], event.Type)
		}
		if event.Sequence != uint64(i)+1 {
			t.Errorf("event %d: expected sequence %d, got %d", i, i+1, event.Sequence)
		}
	}

	if stored[0].Payload["driver"] != driver1.Hex() {
		t.Errorf("expected DriverRegistered payload to carry the driver, got %v", stored[0].Payload)
	}

	// Subscriber sees the same stream.
	for i := range wantTypes {
		select {
		case event := <-events:
			if event.Type != wantTypes[i] {
				t.Errorf("subscriber event %d: expected %s, got %s", i, wantTypes[i], event.Type)
			}
		default:
			t.Fatalf("subscriber missed event %d", i)
		}
	}
}

func TestListEvents_SinceSequence(t *testing.T) {
	t.Parallel()

	f := newFixture(t, domain.FareRates{})
	ctx := context.Background()

	for _, driver := range []common.Address{driver1, driver2} {
		if err := f.sm.RegisterDriver(ctx, admin, driver); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	events, err := f.sm.ListEvents(ctx, 1, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event after sequence 1, got %d", len(events))
	}
	if events[0].Sequence != 2 {
		t.Errorf("expected sequence 2, got %d", events[0].Sequence)
	}
}

func TestLoad_RestoresPersistedStateOverSeed(t *testing.T) {
	t.Parallel()

	trips := NewMockTripRepository()
	registry := NewMockDriverRegistryRepository()
	state := NewMockStateRepository()
	events := NewMockEventRepository()
	runner := NewMockTxRunner(trips, registry, state, events)
	ctx := context.Background()

	// First boot seeds the state and registers a driver.
	first := ledger.New(runner, trips, registry, state, events, ledger.NewNotifier(), nil)
	seed := repository.LedgerState{Administrator: admin, Rates: domain.FareRates{Base: 700, PerKm: 500, PerMinute: 80}}
	if err := first.Load(ctx, seed); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := first.RegisterDriver(ctx, admin, driver1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := first.RecordTrip(ctx, driver1, 5000, 600, tripHash); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Second boot with a different seed: the persisted state wins.
	second := ledger.New(runner, trips, registry, state, events, ledger.NewNotifier(), nil)
	otherSeed := repository.LedgerState{Administrator: mallory, Rates: domain.FareRates{Base: 1}}
	if err := second.Load(ctx, otherSeed); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if second.Administrator() != admin {
		t.Errorf("expected persisted administrator %s, got %s", admin.Hex(), second.Administrator().Hex())
	}
	if rates := second.FareRates(); rates.Base != 700 {
		t.Errorf("expected persisted rates, got %+v", rates)
	}

	trip, err := second.RecordTrip(ctx, driver1, 0, 0, tripHash)
	if err != nil {
		t.Fatalf("expected registration to survive restart, got %v", err)
	}
	if trip.ID != 2 {
		t.Errorf("expected restored counter to assign id 2, got %d", trip.ID)
	}
}
