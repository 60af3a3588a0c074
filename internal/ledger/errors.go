package ledger

import "errors"

var (
	// ErrNotAdministrator is returned when a caller other than the
	// administrator attempts an administrator-only mutation.
	ErrNotAdministrator = errors.New("caller is not the administrator")

	// ErrNotRegisteredDriver is returned when an unregistered caller
	// attempts to record a trip.
	ErrNotRegisteredDriver = errors.New("caller is not a registered driver")

	// ErrTripNotFound is returned when looking up a trip id that was
	// never assigned.
	ErrTripNotFound = errors.New("trip not found")

	// ErrFareOverflow is returned when a computed fare exceeds the
	// maximum representable value. Fares are never wrapped or truncated.
	ErrFareOverflow = errors.New("computed fare exceeds maximum representable value")
)
