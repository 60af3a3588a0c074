package postgres

import (
	"context"
	"database/sql"
	"encoding/json"

	"tripledger/internal/domain"
	"tripledger/internal/repository"
)

// EventRepository is a PostgreSQL implementation of repository.EventRepository.
type EventRepository struct {
	q Querier
}

// NewEventRepository creates a new PostgreSQL event repository.
func NewEventRepository(db *sql.DB) *EventRepository {
	return &EventRepository{q: db}
}

// NewEventRepositoryWithTx creates an event repository using a transaction.
func NewEventRepositoryWithTx(tx *sql.Tx) *EventRepository {
	return &EventRepository{q: tx}
}

// Append stores an event and fills in its assigned sequence number.
func (r *EventRepository) Append(ctx context.Context, event *domain.Event) error {
	query := `
		INSERT INTO ledger_events (id, type, payload, emitted_at)
		VALUES ($1, $2, $3, $4)
		RETURNING seq
	`

	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return err
	}

	var seq int64
	err = r.q.QueryRowContext(ctx, query, event.ID, string(event.Type), payload, event.EmittedAt).Scan(&seq)
	if err != nil {
		return err
	}

	event.Sequence = uint64(seq)
	return nil
}

// GetSince retrieves up to limit events with sequence > sinceSeq.
func (r *EventRepository) GetSince(ctx context.Context, sinceSeq uint64, limit int) ([]*domain.Event, error) {
	query := `
		SELECT seq, id, type, payload, emitted_at
		FROM ledger_events WHERE seq > $1 ORDER BY seq LIMIT $2
	`

	rows, err := r.q.QueryContext(ctx, query, int64(sinceSeq), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*domain.Event
	for rows.Next() {
		var (
			seq       int64
			eventType string
			payload   []byte
			event     domain.Event
		)

		if err := rows.Scan(&seq, &event.ID, &eventType, &payload, &event.EmittedAt); err != nil {
			return nil, err
		}

		event.Sequence = uint64(seq)
		event.Type = domain.EventType(eventType)
		if err := json.Unmarshal(payload, &event.Payload); err != nil {
			return nil, err
		}

		events = append(events, &event)
	}

	return events, rows.Err()
}

// Ensure EventRepository implements repository.EventRepository.
var _ repository.EventRepository = (*EventRepository)(nil)
