package api

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/harshpatel5940/stripevigil/internal/models"
	"github.com/rs/zerolog"
)

type EventReader interface {
	List(ctx context.Context, limit, offset int) ([]*models.Event, int, error)
	GetByEventID(ctx context.Context, eventID string) (*models.Event, error)
	CountByKind(ctx context.Context) (map[string]int, error)
}

type CheckoutReader interface {
	List(ctx context.Context, limit, offset int) ([]*models.CheckoutSession, int, error)
	GetBySessionID(ctx context.Context, sessionID string) (*models.CheckoutSession, error)
}

type SubscriptionReader interface {
	List(ctx context.Context, limit, offset int) ([]*models.Subscription, int, error)
	GetBySubscriptionID(ctx context.Context, subscriptionID string) (*models.Subscription, error)
}

type Handler struct {
	events        EventReader
	checkouts     CheckoutReader
	subscriptions SubscriptionReader
	logger        zerolog.Logger
}

func NewHandler(events EventReader, checkouts CheckoutReader, subscriptions SubscriptionReader, logger zerolog.Logger) *Handler {
	return &Handler{
		events:        events,
		checkouts:     checkouts,
		subscriptions: subscriptions,
		logger:        logger.With().Str("component", "api").Logger(),
	}
}

// Router returns a chi router with all API routes
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()

	// Events
	r.Get("/events", h.ListEvents)
	r.Get("/events/{id}", h.GetEvent)

	// Billing
	r.Get("/checkouts", h.ListCheckouts)
	r.Get("/checkouts/{id}", h.GetCheckout)
	r.Get("/subscriptions", h.ListSubscriptions)
	r.Get("/subscriptions/{id}", h.GetSubscription)

	// Stats
	r.Get("/stats", h.GetStats)

	return r
}

// JSON response helpers

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error().Err(err).Msg("failed to encode JSON response")
	}
}

func (h *Handler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
	})
}

// Pagination helpers

type PaginationParams struct {
	Page    int
	PerPage int
	Offset  int
}

func (h *Handler) getPagination(r *http.Request) PaginationParams {
	page := 1
	perPage := 20

	if p := r.URL.Query().Get("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v
		}
	}

	if pp := r.URL.Query().Get("per_page"); pp != "" {
		if v, err := strconv.Atoi(pp); err == nil && v > 0 && v <= 100 {
			perPage = v
		}
	}

	// Keep (page-1)*perPage from overflowing.
	if maxPage := math.MaxInt / perPage; page > maxPage {
		page = maxPage
	}

	return PaginationParams{
		Page:    page,
		PerPage: perPage,
		Offset:  (page - 1) * perPage,
	}
}
