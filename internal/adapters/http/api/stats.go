package api

import (
	"context"
	"net/http"
)

// StatsProvider defines the interface for getting service statistics.
type StatsProvider interface {
	GetStats(ctx context.Context) map[string]interface{}
}

// ClientCounter reports connected live clients.
type ClientCounter interface {
	ClientCount() int
}

// StatsHandler handles stats requests.
type StatsHandler struct {
	statsProvider StatsProvider
	live          ClientCounter
}

// NewStatsHandler creates a new stats handler. live may be nil.
func NewStatsHandler(statsProvider StatsProvider, live ClientCounter) *StatsHandler {
	return &StatsHandler{statsProvider: statsProvider, live: live}
}

// HandleStats handles GET /stats requests.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats := map[string]interface{}{}
	if h.statsProvider != nil {
		stats = h.statsProvider.GetStats(r.Context())
	}
	if h.live != nil {
		stats["liveClients"] = h.live.ClientCount()
	}
	writeJSON(w, http.StatusOK, stats)
}
