package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/harshpatel5940/stripevigil/internal/config"
	"github.com/harshpatel5940/stripevigil/internal/models"
	"github.com/rs/zerolog"
)

type EventRecorder interface {
	Record(ctx context.Context, event *models.Event) (bool, error)
}

type CheckoutRecorder interface {
	Upsert(ctx context.Context, session *models.CheckoutSession) error
}

type SubscriptionRecorder interface {
	MarkDeleted(ctx context.Context, sub *models.Subscription) error
}

// Publisher forwards verified events to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, event *Event, receivedAt time.Time) error
}

// Stores groups the persistence the handler writes to. A nil *Stores
// disables persistence; events are still verified and classified.
type Stores struct {
	Events        EventRecorder
	Checkouts     CheckoutRecorder
	Subscriptions SubscriptionRecorder
}

type Handler struct {
	dispatcher   *Dispatcher
	stores       *Stores
	publisher    Publisher
	maxBodyBytes int64
	logger       zerolog.Logger
	now          func() time.Time
}

// NewHandler builds the webhook endpoint. stores and publisher are optional.
func NewHandler(cfg *config.Config, stores *Stores, publisher Publisher, logger zerolog.Logger) *Handler {
	return &Handler{
		dispatcher:   NewDispatcher([]byte(cfg.WebhookSecret)),
		stores:       stores,
		publisher:    publisher,
		maxBodyBytes: cfg.MaxBodyBytes,
		logger:       logger.With().Str("component", "webhook").Logger(),
		now:          time.Now,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Body must stay byte-exact for signature verification.
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.logger.Warn().Int64("limit", tooLarge.Limit).Msg("request body too large")
			http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		h.logger.Error().Err(err).Msg("failed to read request body")
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	receivedAt := h.now()

	event, err := h.dispatcher.Process(r.Header, body)
	switch {
	case errors.Is(err, ErrAuthentication):
		h.logger.Warn().Int("body_len", len(body)).Msg("signature validation failed")
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	case errors.Is(err, ErrMalformedPayload):
		h.logger.Warn().Err(err).Msg("failed to parse event")
		http.Error(w, "malformed payload", http.StatusBadRequest)
		return
	case err != nil:
		h.logger.Error().Err(err).Msg("failed to process webhook")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	h.logger.Info().
		Str("event_id", event.ID).
		Str("type", event.Type).
		Stringer("kind", event.Kind).
		Msg("received webhook")

	ctx := r.Context()

	// Side effects are upserts and the event row is written last, so a
	// delivery that fails part way is reapplied in full on retry.
	if h.stores != nil {
		switch event.Kind {
		case KindCheckoutCompleted:
			err = h.handleCheckoutCompleted(ctx, event, receivedAt)
		case KindSubscriptionDeleted:
			err = h.handleSubscriptionDeleted(ctx, event, receivedAt)
		default:
			h.logger.Debug().Str("type", event.Type).Msg("ignoring unhandled event type")
		}

		if errors.Is(err, errMissingObjectID) {
			h.logger.Warn().Err(err).Str("event_id", event.ID).Msg("event object is incomplete")
			http.Error(w, "malformed payload", http.StatusBadRequest)
			return
		}
		if err != nil {
			h.logger.Error().Err(err).Str("event_id", event.ID).Msg("failed to handle event")
			http.Error(w, "failed to handle event", http.StatusInternalServerError)
			return
		}
	}

	if h.publisher != nil {
		if err := h.publisher.Publish(ctx, event, receivedAt); err != nil {
			h.logger.Error().Err(err).Str("event_id", event.ID).Msg("failed to publish event")
			http.Error(w, "failed to publish event", http.StatusInternalServerError)
			return
		}
	}

	if h.stores == nil {
		w.WriteHeader(http.StatusOK)
		return
	}

	fresh, err := h.recordEvent(ctx, event, receivedAt)
	if err != nil {
		h.logger.Error().Err(err).Str("event_id", event.ID).Msg("failed to record event")
		http.Error(w, "failed to record event", http.StatusInternalServerError)
		return
	}
	if !fresh {
		h.logger.Info().Str("event_id", event.ID).Msg("duplicate delivery")
	}

	w.WriteHeader(http.StatusOK)
}

func (h *Handler) recordEvent(ctx context.Context, event *Event, receivedAt time.Time) (bool, error) {
	object, err := json.Marshal(event.Object)
	if err != nil {
		return false, err
	}

	return h.stores.Events.Record(ctx, &models.Event{
		EventID:    event.ID,
		EventType:  event.Type,
		Kind:       event.Kind.String(),
		Object:     object,
		ReceivedAt: receivedAt,
	})
}

func (h *Handler) handleCheckoutCompleted(ctx context.Context, event *Event, receivedAt time.Time) error {
	session, err := checkoutFromEvent(event, receivedAt)
	if err != nil {
		return err
	}

	h.logger.Info().
		Str("session_id", session.SessionID).
		Interface("customer", session.CustomerID).
		Interface("amount_total", session.AmountTotal).
		Msg("processing checkout completed")

	return h.stores.Checkouts.Upsert(ctx, session)
}

func (h *Handler) handleSubscriptionDeleted(ctx context.Context, event *Event, receivedAt time.Time) error {
	sub, err := subscriptionFromEvent(event, receivedAt)
	if err != nil {
		return err
	}

	h.logger.Info().
		Str("subscription_id", sub.SubscriptionID).
		Interface("customer", sub.CustomerID).
		Str("status", sub.Status).
		Msg("processing subscription deleted")

	return h.stores.Subscriptions.MarkDeleted(ctx, sub)
}
