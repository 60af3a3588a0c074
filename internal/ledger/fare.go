package ledger

import (
	"github.com/holiman/uint256"

	"tripledger/internal/domain"
)

// computeFare derives a trip fare from the rate triple:
//
//	fare = base + (distance/1000)*perKm + (duration/60)*perMinute
//
// with floor division on both quotients. The arithmetic runs at 256-bit
// width so intermediate products cannot wrap; a result that does not fit
// in a uint64 is rejected rather than truncated.
func computeFare(rates domain.FareRates, distanceMeters, durationSeconds uint64) (uint64, error) {
	km := uint256.NewInt(distanceMeters / 1000)
	minutes := uint256.NewInt(durationSeconds / 60)

	fare := uint256.NewInt(rates.Base)
	fare.Add(fare, km.Mul(km, uint256.NewInt(rates.PerKm)))
	fare.Add(fare, minutes.Mul(minutes, uint256.NewInt(rates.PerMinute)))

	if !fare.IsUint64() {
		return 0, ErrFareOverflow
	}

	return fare.Uint64(), nil
}
