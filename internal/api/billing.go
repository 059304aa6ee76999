package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/harshpatel5940/stripevigil/internal/models"
)

type CheckoutResponse struct {
	ID             string    `json:"id"`
	EventID        string    `json:"event_id"`
	CustomerID     *string   `json:"customer_id,omitempty"`
	SubscriptionID *string   `json:"subscription_id,omitempty"`
	CustomerEmail  *string   `json:"customer_email,omitempty"`
	AmountTotal    *int64    `json:"amount_total,omitempty"`
	Currency       *string   `json:"currency,omitempty"`
	PaymentStatus  *string   `json:"payment_status,omitempty"`
	Mode           *string   `json:"mode,omitempty"`
	CompletedAt    time.Time `json:"completed_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type CheckoutsListResponse struct {
	Checkouts []CheckoutResponse `json:"checkouts"`
	Total     int                `json:"total"`
	Page      int                `json:"page"`
	PerPage   int                `json:"per_page"`
}

type SubscriptionResponse struct {
	ID         string     `json:"id"`
	EventID    string     `json:"event_id"`
	CustomerID *string    `json:"customer_id,omitempty"`
	Status     string     `json:"status"`
	CanceledAt *time.Time `json:"canceled_at,omitempty"`
	EndedAt    *time.Time `json:"ended_at,omitempty"`
	DeletedAt  time.Time  `json:"deleted_at"`
}

type SubscriptionsListResponse struct {
	Subscriptions []SubscriptionResponse `json:"subscriptions"`
	Total         int                    `json:"total"`
	Page          int                    `json:"page"`
	PerPage       int                    `json:"per_page"`
}

func checkoutToResponse(c *models.CheckoutSession) CheckoutResponse {
	return CheckoutResponse{
		ID:             c.SessionID,
		EventID:        c.EventID,
		CustomerID:     c.CustomerID,
		SubscriptionID: c.SubscriptionID,
		CustomerEmail:  c.CustomerEmail,
		AmountTotal:    c.AmountTotal,
		Currency:       c.Currency,
		PaymentStatus:  c.PaymentStatus,
		Mode:           c.Mode,
		CompletedAt:    c.CompletedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

func subscriptionToResponse(s *models.Subscription) SubscriptionResponse {
	return SubscriptionResponse{
		ID:         s.SubscriptionID,
		EventID:    s.EventID,
		CustomerID: s.CustomerID,
		Status:     s.Status,
		CanceledAt: s.CanceledAt,
		EndedAt:    s.EndedAt,
		DeletedAt:  s.DeletedAt,
	}
}

func (h *Handler) ListCheckouts(w http.ResponseWriter, r *http.Request) {
	pagination := h.getPagination(r)

	sessions, total, err := h.checkouts.List(r.Context(), pagination.PerPage, pagination.Offset)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list checkouts")
		h.respondError(w, http.StatusInternalServerError, "failed to list checkouts")
		return
	}

	response := CheckoutsListResponse{
		Checkouts: make([]CheckoutResponse, 0, len(sessions)),
		Total:     total,
		Page:      pagination.Page,
		PerPage:   pagination.PerPage,
	}
	for _, c := range sessions {
		response.Checkouts = append(response.Checkouts, checkoutToResponse(c))
	}

	h.respondJSON(w, http.StatusOK, response)
}

func (h *Handler) GetCheckout(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	session, err := h.checkouts.GetBySessionID(r.Context(), id)
	if errors.Is(err, models.ErrNotFound) {
		h.respondError(w, http.StatusNotFound, "checkout session not found")
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Str("id", id).Msg("failed to get checkout session")
		h.respondError(w, http.StatusInternalServerError, "failed to get checkout session")
		return
	}

	h.respondJSON(w, http.StatusOK, checkoutToResponse(session))
}

func (h *Handler) ListSubscriptions(w http.ResponseWriter, r *http.Request) {
	pagination := h.getPagination(r)

	subs, total, err := h.subscriptions.List(r.Context(), pagination.PerPage, pagination.Offset)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list subscriptions")
		h.respondError(w, http.StatusInternalServerError, "failed to list subscriptions")
		return
	}

	response := SubscriptionsListResponse{
		Subscriptions: make([]SubscriptionResponse, 0, len(subs)),
		Total:         total,
		Page:          pagination.Page,
		PerPage:       pagination.PerPage,
	}
	for _, s := range subs {
		response.Subscriptions = append(response.Subscriptions, subscriptionToResponse(s))
	}

	h.respondJSON(w, http.StatusOK, response)
}

func (h *Handler) GetSubscription(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	sub, err := h.subscriptions.GetBySubscriptionID(r.Context(), id)
	if errors.Is(err, models.ErrNotFound) {
		h.respondError(w, http.StatusNotFound, "subscription not found")
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Str("id", id).Msg("failed to get subscription")
		h.respondError(w, http.StatusInternalServerError, "failed to get subscription")
		return
	}

	h.respondJSON(w, http.StatusOK, subscriptionToResponse(sub))
}
