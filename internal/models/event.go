package models

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
)

var ErrNotFound = errors.New("not found")

// Event is a delivered Stripe event as recorded for idempotency.
type Event struct {
	ID         int64
	EventID    string
	EventType  string
	Kind       string
	Object     json.RawMessage
	ReceivedAt time.Time
}

type EventStore struct {
	pool DBTX
}

func NewEventStore(pool DBTX) *EventStore {
	return &EventStore{pool: pool}
}

// Record inserts the event and reports whether it was new. A delivery whose
// event ID is already stored returns false without error.
func (s *EventStore) Record(ctx context.Context, event *Event) (bool, error) {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO stripe_events (event_id, event_type, kind, object, received_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (event_id) DO NOTHING
		RETURNING id
	`, event.EventID, event.EventType, event.Kind, event.Object, event.ReceivedAt).Scan(&event.ID)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *EventStore) List(ctx context.Context, limit, offset int) ([]*Event, int, error) {
	var total int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM stripe_events`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, event_id, event_type, kind, object, received_at
		FROM stripe_events
		ORDER BY received_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.EventID, &e.EventType, &e.Kind, &e.Object, &e.ReceivedAt); err != nil {
			return nil, 0, err
		}
		events = append(events, &e)
	}
	return events, total, rows.Err()
}

func (s *EventStore) GetByEventID(ctx context.Context, eventID string) (*Event, error) {
	var e Event
	err := s.pool.QueryRow(ctx, `
		SELECT id, event_id, event_type, kind, object, received_at
		FROM stripe_events WHERE event_id = $1
	`, eventID).Scan(&e.ID, &e.EventID, &e.EventType, &e.Kind, &e.Object, &e.ReceivedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *EventStore) CountByKind(ctx context.Context) (map[string]int, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT kind, COUNT(*) FROM stripe_events GROUP BY kind
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var kind string
		var count int
		if err := rows.Scan(&kind, &count); err != nil {
			return nil, err
		}
		counts[kind] = count
	}
	return counts, rows.Err()
}
