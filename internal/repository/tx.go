package repository

import "context"

// TxRepos bundles the transaction-scoped repositories handed to one
// atomic mutation.
type TxRepos struct {
	Trips    TripRepository
	Registry DriverRegistryRepository
	State    StateRepository
	Events   EventRepository
}

// TxRunner executes fn against the backing store as one transaction:
// either every write in fn is applied or none is.
type TxRunner interface {
	RunTx(ctx context.Context, fn func(TxRepos) error) error
}
