package domain

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Trip is an immutable record of one completed ride and its derived fare.
// Trips are created exactly once and never updated or deleted; they are
// referenced externally only by their id.
type Trip struct {
	ID              uint64
	Driver          common.Address
	DistanceMeters  uint64
	DurationSeconds uint64
	Fare            uint64 // derived from the fare rates, never caller-supplied
	DataHash        common.Hash
	RecordedAt      time.Time
}

// FareRates are the three parameters used to derive a trip's fare,
// expressed in fixed-point currency subunits.
type FareRates struct {
	Base      uint64
	PerKm     uint64
	PerMinute uint64
}
