package api

import (
	"context"
	"net/http"

	"github.com/okian/swiss/internal/domain/model"
)

// StandingsDependencies defines the read operations behind the board.
type StandingsDependencies interface {
	Standings(ctx context.Context) ([]model.Standing, error)
	SwissPairings(ctx context.Context) ([]model.Pairing, error)
}

// StandingsHandler handles /standings and /pairings.
type StandingsHandler struct {
	deps StandingsDependencies
}

// NewStandingsHandler creates a new standings handler.
func NewStandingsHandler(deps StandingsDependencies) *StandingsHandler {
	return &StandingsHandler{deps: deps}
}

// HandleStandings handles GET /standings.
func (h *StandingsHandler) HandleStandings(w http.ResponseWriter, r *http.Request) {
	const op = "api.standings"
	rows, err := h.deps.Standings(r.Context())
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	if rows == nil {
		rows = []model.Standing{}
	}
	writeJSON(w, http.StatusOK, rows)
}

// HandlePairings handles GET /pairings. An odd player count answers 409.
func (h *StandingsHandler) HandlePairings(w http.ResponseWriter, r *http.Request) {
	const op = "api.pairings"
	pairs, err := h.deps.SwissPairings(r.Context())
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	if pairs == nil {
		pairs = []model.Pairing{}
	}
	writeJSON(w, http.StatusOK, pairs)
}
