package api

import (
	"context"
	"net/http"

	"github.com/okian/swiss/internal/adapters/snapshot"
)

// Exporter writes a standings snapshot on demand.
type Exporter interface {
	Export(ctx context.Context) (*snapshot.Result, error)
}

// SnapshotsHandler handles POST /admin/snapshots.
type SnapshotsHandler struct {
	exporter Exporter
}

// NewSnapshotsHandler creates a snapshots handler. exporter may be nil, in
// which case every request answers 503.
func NewSnapshotsHandler(exporter Exporter) *SnapshotsHandler {
	return &SnapshotsHandler{exporter: exporter}
}

// HandleExport exports a snapshot and returns the stored keys.
func (h *SnapshotsHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	const op = "api.export_snapshot"
	if h.exporter == nil {
		writeError(w, r, NewKind(op, ErrSnapshotsDisabled))
		return
	}
	res, err := h.exporter.Export(r.Context())
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, res)
}
