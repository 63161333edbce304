package api

import (
	"context"
	"net/http"
	"time"

	"github.com/okian/swiss/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const healthTimeout = 2 * time.Second

// HealthDependencies is what the health check needs.
type HealthDependencies interface {
	Ping(ctx context.Context) error
	CountPlayers(ctx context.Context) (int, error)
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	deps HealthDependencies
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(deps HealthDependencies) *HealthHandler {
	return &HealthHandler{deps: deps}
}

type healthResponse struct {
	Status  string `json:"status"`
	Players int    `json:"players"`
}

// HandleHealth handles GET /healthz. It answers 503 when the store is unreachable.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	const op = "api.healthz"
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	if err := h.deps.Ping(ctx); err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	n, err := h.deps.CountPlayers(ctx)
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Players: n})
}

// MetricsHandler serves the Prometheus registry.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{})
}
