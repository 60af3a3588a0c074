package postgres

import (
	"context"
	"database/sql"

	"tripledger/internal/repository"
)

// TxManager runs ledger mutations inside a database transaction.
type TxManager struct {
	db *sql.DB
}

// NewTxManager creates a new TxManager.
func NewTxManager(db *sql.DB) *TxManager {
	return &TxManager{db: db}
}

// RunTx begins a transaction, hands fn transaction-scoped repositories and
// commits if fn succeeds. Any error rolls the whole transaction back.
func (m *TxManager) RunTx(ctx context.Context, fn func(repository.TxRepos) error) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	repos := repository.TxRepos{
		Trips:    NewTripRepositoryWithTx(tx),
		Registry: NewDriverRegistryRepositoryWithTx(tx),
		State:    NewStateRepositoryWithTx(tx),
		Events:   NewEventRepositoryWithTx(tx),
	}

	if err = fn(repos); err != nil {
		return err
	}

	err = tx.Commit()
	return err
}

// Ensure TxManager implements repository.TxRunner.
var _ repository.TxRunner = (*TxManager)(nil)
