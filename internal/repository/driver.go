package repository

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

// DriverRegistryRepository persists the driver allowlist.
type DriverRegistryRepository interface {
	// SetRegistered sets the membership flag for a driver. Writing the
	// flag a driver already carries is a no-op.
	SetRegistered(ctx context.Context, driver common.Address, registered bool) error

	// IsRegistered reports whether a driver is currently registered.
	// Unknown addresses are not registered.
	IsRegistered(ctx context.Context, driver common.Address) (bool, error)

	// GetAllRegistered retrieves every currently registered driver.
	GetAllRegistered(ctx context.Context) ([]common.Address, error)
}
