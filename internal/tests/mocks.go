package tests

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/common"

	"tripledger/internal/domain"
	"tripledger/internal/repository"
)

// ──────────────────────────────────────────────
// MOCK TRIP REPOSITORY
// ──────────────────────────────────────────────

// MockTripRepository is a mock implementation of repository.TripRepository.
type MockTripRepository struct {
	mu    sync.RWMutex
	trips map[uint64]*domain.Trip

	// Counters for verification
	CreateCallCount int32

	// Error injection
	CreateError error
}

// NewMockTripRepository creates a new mock trip repository.
func NewMockTripRepository() *MockTripRepository {
	return &MockTripRepository{
		trips: make(map[uint64]*domain.Trip),
	}
}

func (m *MockTripRepository) Create(ctx context.Context, trip *domain.Trip) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *trip
	m.trips[trip.ID] = &copy
	return nil
}

func (m *MockTripRepository) GetByID(ctx context.Context, id uint64) (*domain.Trip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	trip, ok := m.trips[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *trip
	return &copy, nil
}

func (m *MockTripRepository) GetAll(ctx context.Context) ([]*domain.Trip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Trip, 0, len(m.trips))
	for _, trip := range m.trips {
		copy := *trip
		result = append(result, &copy)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })
	return result, nil
}

// CountTrips returns the number of stored trips for test assertions.
func (m *MockTripRepository) CountTrips() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.trips)
}

// ──────────────────────────────────────────────
// MOCK DRIVER REGISTRY REPOSITORY
// ──────────────────────────────────────────────

// MockDriverRegistryRepository is a mock implementation of
// repository.DriverRegistryRepository.
type MockDriverRegistryRepository struct {
	mu       sync.RWMutex
	registry map[common.Address]bool

	// Counters for verification
	SetRegisteredCallCount int32

	// Error injection
	SetRegisteredError error
}

// NewMockDriverRegistryRepository creates a new mock driver registry repository.
func NewMockDriverRegistryRepository() *MockDriverRegistryRepository {
	return &MockDriverRegistryRepository{
		registry: make(map[common.Address]bool),
	}
}

func (m *MockDriverRegistryRepository) SetRegistered(ctx context.Context, driver common.Address, registered bool) error {
	atomic.AddInt32(&m.SetRegisteredCallCount, 1)
	if m.SetRegisteredError != nil {
		return m.SetRegisteredError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registry[driver] = registered
	return nil
}

func (m *MockDriverRegistryRepository) IsRegistered(ctx context.Context, driver common.Address) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.registry[driver], nil
}

func (m *MockDriverRegistryRepository) GetAllRegistered(ctx context.Context) ([]common.Address, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var drivers []common.Address
	for driver, registered := range m.registry {
		if registered {
			drivers = append(drivers, driver)
		}
	}
	return drivers, nil
}

// ──────────────────────────────────────────────
// MOCK STATE REPOSITORY
// ──────────────────────────────────────────────

// MockStateRepository is a mock implementation of repository.StateRepository.
type MockStateRepository struct {
	mu    sync.RWMutex
	state *repository.LedgerState

	// Counters for verification
	UpdateRatesCallCount   int32
	SetNextTripIDCallCount int32

	// Error injection
	UpdateRatesError error
}

// NewMockStateRepository creates a new mock state repository.
func NewMockStateRepository() *MockStateRepository {
	return &MockStateRepository{}
}

func (m *MockStateRepository) Get(ctx context.Context) (*repository.LedgerState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state == nil {
		return nil, repository.ErrNotFound
	}
	copy := *m.state
	return &copy, nil
}

func (m *MockStateRepository) Seed(ctx context.Context, state *repository.LedgerState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == nil {
		copy := *state
		m.state = &copy
	}
	return nil
}

func (m *MockStateRepository) UpdateRates(ctx context.Context, rates domain.FareRates) error {
	atomic.AddInt32(&m.UpdateRatesCallCount, 1)
	if m.UpdateRatesError != nil {
		return m.UpdateRatesError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == nil {
		return repository.ErrNotFound
	}
	m.state.Rates = rates
	return nil
}

func (m *MockStateRepository) SetNextTripID(ctx context.Context, next uint64) error {
	atomic.AddInt32(&m.SetNextTripIDCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == nil {
		return repository.ErrNotFound
	}
	m.state.NextTripID = next
	return nil
}

// NextTripID returns the persisted counter for test assertions.
func (m *MockStateRepository) NextTripID() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state == nil {
		return 0
	}
	return m.state.NextTripID
}

// Rates returns the persisted rate triple for test assertions.
func (m *MockStateRepository) Rates() domain.FareRates {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state == nil {
		return domain.FareRates{}
	}
	return m.state.Rates
}

// ──────────────────────────────────────────────
// MOCK EVENT REPOSITORY
// ──────────────────────────────────────────────

// MockEventRepository is a mock implementation of repository.EventRepository.
type MockEventRepository struct {
	mu     sync.RWMutex
	events []*domain.Event

	// Error injection
	AppendError error
}

// NewMockEventRepository creates a new mock event repository.
func NewMockEventRepository() *MockEventRepository {
	return &MockEventRepository{}
}

func (m *MockEventRepository) Append(ctx context.Context, event *domain.Event) error {
	if m.AppendError != nil {
		return m.AppendError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	event.Sequence = uint64(len(m.events) + 1)
	copy := *event
	m.events = append(m.events, &copy)
	return nil
}

func (m *MockEventRepository) GetSince(ctx context.Context, sinceSeq uint64, limit int) ([]*domain.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Event
	for _, event := range m.events {
		if event.Sequence > sinceSeq {
			copy := *event
			result = append(result, &copy)
			if len(result) == limit {
				break
			}
		}
	}
	return result, nil
}

// Events returns the stored events for test assertions.
func (m *MockEventRepository) Events() []*domain.Event {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Event, 0, len(m.events))
	for _, event := range m.events {
		copy := *event
		result = append(result, &copy)
	}
	return result
}

// ──────────────────────────────────────────────
// MOCK TX RUNNER
// ──────────────────────────────────────────────

// MockTxRunner is a mock implementation of repository.TxRunner. It hands fn
// the mock repositories directly; rollback is not simulated, so tests that
// need failure atomicity inject errors before any write happens.
type MockTxRunner struct {
	Repos repository.TxRepos

	// Counters for verification
	RunTxCallCount int32

	// Error injection
	BeginError error
}

// NewMockTxRunner creates a new mock transaction runner over the given mocks.
func NewMockTxRunner(trips *MockTripRepository, registry *MockDriverRegistryRepository, state *MockStateRepository, events *MockEventRepository) *MockTxRunner {
	return &MockTxRunner{
		Repos: repository.TxRepos{
			Trips:    trips,
			Registry: registry,
			State:    state,
			Events:   events,
		},
	}
}

func (m *MockTxRunner) RunTx(ctx context.Context, fn func(repository.TxRepos) error) error {
	atomic.AddInt32(&m.RunTxCallCount, 1)
	if m.BeginError != nil {
		return m.BeginError
	}
	return fn(m.Repos)
}

// Ensure mocks implement their interfaces.
var (
	_ repository.TripRepository           = (*MockTripRepository)(nil)
	_ repository.DriverRegistryRepository = (*MockDriverRegistryRepository)(nil)
	_ repository.StateRepository          = (*MockStateRepository)(nil)
	_ repository.EventRepository          = (*MockEventRepository)(nil)
	_ repository.TxRunner                 = (*MockTxRunner)(nil)
)
