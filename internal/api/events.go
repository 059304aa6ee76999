package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/harshpatel5940/stripevigil/internal/models"
)

type EventResponse struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Kind       string          `json:"kind"`
	Object     json.RawMessage `json:"object,omitempty"`
	ReceivedAt time.Time       `json:"received_at"`
}

type EventsListResponse struct {
	Events  []EventResponse `json:"events"`
	Total   int             `json:"total"`
	Page    int             `json:"page"`
	PerPage int             `json:"per_page"`
}

func eventToResponse(e *models.Event) EventResponse {
	return EventResponse{
		ID:         e.EventID,
		Type:       e.EventType,
		Kind:       e.Kind,
		Object:     e.Object,
		ReceivedAt: e.ReceivedAt,
	}
}

func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	pagination := h.getPagination(r)

	events, total, err := h.events.List(r.Context(), pagination.PerPage, pagination.Offset)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list events")
		h.respondError(w, http.StatusInternalServerError, "failed to list events")
		return
	}

	response := EventsListResponse{
		Events:  make([]EventResponse, 0, len(events)),
		Total:   total,
		Page:    pagination.Page,
		PerPage: pagination.PerPage,
	}

	for _, e := range events {
		response.Events = append(response.Events, eventToResponse(e))
	}

	h.respondJSON(w, http.StatusOK, response)
}

func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	event, err := h.events.GetByEventID(r.Context(), id)
	if errors.Is(err, models.ErrNotFound) {
		h.respondError(w, http.StatusNotFound, "event not found")
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Str("id", id).Msg("failed to get event")
		h.respondError(w, http.StatusInternalServerError, "failed to get event")
		return
	}

	h.respondJSON(w, http.StatusOK, eventToResponse(event))
}
