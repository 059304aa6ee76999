package models

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
)

type CheckoutSession struct {
	ID             int64
	SessionID      string
	EventID        string
	CustomerID     *string
	SubscriptionID *string
	CustomerEmail  *string
	AmountTotal    *int64
	Currency       *string
	PaymentStatus  *string
	Mode           *string
	CompletedAt    time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type CheckoutStore struct {
	pool DBTX
}

func NewCheckoutStore(pool DBTX) *CheckoutStore {
	return &CheckoutStore{pool: pool}
}

func (s *CheckoutStore) Upsert(ctx context.Context, c *CheckoutSession) error {
	return s.pool.QueryRow(ctx, `
		INSERT INTO checkout_sessions (session_id, event_id, customer_id, subscription_id, customer_email,
			amount_total, currency, payment_status, mode, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (session_id) DO UPDATE SET
			event_id = EXCLUDED.event_id,
			customer_id = COALESCE(EXCLUDED.customer_id, checkout_sessions.customer_id),
			subscription_id = COALESCE(EXCLUDED.subscription_id, checkout_sessions.subscription_id),
			customer_email = COALESCE(EXCLUDED.customer_email, checkout_sessions.customer_email),
			amount_total = EXCLUDED.amount_total,
			currency = EXCLUDED.currency,
			payment_status = EXCLUDED.payment_status,
			mode = EXCLUDED.mode,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`, c.SessionID, c.EventID, c.CustomerID, c.SubscriptionID, c.CustomerEmail,
		c.AmountTotal, c.Currency, c.PaymentStatus, c.Mode, c.CompletedAt,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
}

func (s *CheckoutStore) List(ctx context.Context, limit, offset int) ([]*CheckoutSession, int, error) {
	var total int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM checkout_sessions`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, session_id, event_id, customer_id, subscription_id, customer_email,
		       amount_total, currency, payment_status, mode, completed_at, created_at, updated_at
		FROM checkout_sessions
		ORDER BY completed_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var sessions []*CheckoutSession
	for rows.Next() {
		c, err := scanCheckout(rows)
		if err != nil {
			return nil, 0, err
		}
		sessions = append(sessions, c)
	}
	return sessions, total, rows.Err()
}

func (s *CheckoutStore) GetBySessionID(ctx context.Context, sessionID string) (*CheckoutSession, error) {
	c, err := scanCheckout(s.pool.QueryRow(ctx, `
		SELECT id, session_id, event_id, customer_id, subscription_id, customer_email,
		       amount_total, currency, payment_status, mode, completed_at, created_at, updated_at
		FROM checkout_sessions WHERE session_id = $1
	`, sessionID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return c, err
}

func scanCheckout(row pgx.Row) (*CheckoutSession, error) {
	var c CheckoutSession
	err := row.Scan(
		&c.ID, &c.SessionID, &c.EventID, &c.CustomerID, &c.SubscriptionID, &c.CustomerEmail,
		&c.AmountTotal, &c.Currency, &c.PaymentStatus, &c.Mode, &c.CompletedAt, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
