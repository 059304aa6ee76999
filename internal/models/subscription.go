package models

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
)

// Subscription is the last known state of a Stripe subscription that was
// deleted on the provider side.
type Subscription struct {
	ID             int64
	SubscriptionID string
	EventID        string
	CustomerID     *string
	Status         string
	CanceledAt     *time.Time
	EndedAt        *time.Time
	DeletedAt      time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type SubscriptionStore struct {
	pool DBTX
}

func NewSubscriptionStore(pool DBTX) *SubscriptionStore {
	return &SubscriptionStore{pool: pool}
}

func (s *SubscriptionStore) MarkDeleted(ctx context.Context, sub *Subscription) error {
	return s.pool.QueryRow(ctx, `
		INSERT INTO subscriptions (subscription_id, event_id, customer_id, status, canceled_at, ended_at, deleted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (subscription_id) DO UPDATE SET
			event_id = EXCLUDED.event_id,
			customer_id = COALESCE(EXCLUDED.customer_id, subscriptions.customer_id),
			status = EXCLUDED.status,
			canceled_at = COALESCE(EXCLUDED.canceled_at, subscriptions.canceled_at),
			ended_at = COALESCE(EXCLUDED.ended_at, subscriptions.ended_at),
			deleted_at = EXCLUDED.deleted_at,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`, sub.SubscriptionID, sub.EventID, sub.CustomerID, sub.Status, sub.CanceledAt, sub.EndedAt, sub.DeletedAt,
	).Scan(&sub.ID, &sub.CreatedAt, &sub.UpdatedAt)
}

func (s *SubscriptionStore) List(ctx context.Context, limit, offset int) ([]*Subscription, int, error) {
	var total int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM subscriptions`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, subscription_id, event_id, customer_id, status, canceled_at, ended_at,
		       deleted_at, created_at, updated_at
		FROM subscriptions
		ORDER BY deleted_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var subs []*Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, 0, err
		}
		subs = append(subs, sub)
	}
	return subs, total, rows.Err()
}

func (s *SubscriptionStore) GetBySubscriptionID(ctx context.Context, subscriptionID string) (*Subscription, error) {
	sub, err := scanSubscription(s.pool.QueryRow(ctx, `
		SELECT id, subscription_id, event_id, customer_id, status, canceled_at, ended_at,
		       deleted_at, created_at, updated_at
		FROM subscriptions WHERE subscription_id = $1
	`, subscriptionID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return sub, err
}

func scanSubscription(row pgx.Row) (*Subscription, error) {
	var sub Subscription
	err := row.Scan(
		&sub.ID, &sub.SubscriptionID, &sub.EventID, &sub.CustomerID, &sub.Status,
		&sub.CanceledAt, &sub.EndedAt, &sub.DeletedAt, &sub.CreatedAt, &sub.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}
