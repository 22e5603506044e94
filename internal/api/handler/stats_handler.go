package handler

import (
	"net/http"

	"github.com/darkgooddack/notification-distribution/internal/broker"
)

// StatsHandler serves a human-readable JSON snapshot of the fan-out queue.
// Raw Prometheus metrics (counters, histograms) are available at /metrics
// via promhttp.Handler and are separate from this endpoint.
type StatsHandler struct {
	publisher broker.Publisher
	queue     string
}

func NewStatsHandler(publisher broker.Publisher, queue string) *StatsHandler {
	return &StatsHandler{publisher: publisher, queue: queue}
}

// GetStats handles GET /api/v1/stats
//
// @Summary  Real-time queue depth snapshot
// @Tags     metrics
// @Produce  json
// @Success  200  {object}  map[string]any
// @Failure  503  {object}  map[string]string
// @Router   /api/v1/stats [get]
func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	messages, consumers, err := h.publisher.QueueDepth(h.queue)
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, "broker unavailable")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"queue":     h.queue,
		"messages":  messages,
		"consumers": consumers,
	})
}
