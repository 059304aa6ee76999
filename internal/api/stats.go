package api

import (
	"net/http"
	"time"
)

type StatsResponse struct {
	TotalEvents   int            `json:"total_events"`
	EventsByKind  map[string]int `json:"events_by_kind"`
	Checkouts     int            `json:"checkouts"`
	Subscriptions int            `json:"subscriptions_deleted"`
	GeneratedAt   time.Time      `json:"generated_at"`
}

func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stats := StatsResponse{
		EventsByKind: make(map[string]int),
		GeneratedAt:  time.Now(),
	}

	counts, err := h.events.CountByKind(ctx)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to count events")
		// Continue with zero value
	}
	for kind, n := range counts {
		stats.EventsByKind[kind] = n
		stats.TotalEvents += n
	}

	if _, total, err := h.checkouts.List(ctx, 1, 0); err == nil {
		stats.Checkouts = total
	} else {
		h.logger.Error().Err(err).Msg("failed to count checkouts")
	}

	if _, total, err := h.subscriptions.List(ctx, 1, 0); err == nil {
		stats.Subscriptions = total
	} else {
		h.logger.Error().Err(err).Msg("failed to count subscriptions")
	}

	h.respondJSON(w, http.StatusOK, stats)
}
