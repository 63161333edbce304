package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/okian/swiss/internal/domain/model"
)

// IdempotencyHeader carries the client supplied key for match reports.
const IdempotencyHeader = "Idempotency-Key"

const maxIdempotencyKeyLen = 128

// MatchDependencies defines the match operations used by the handlers.
type MatchDependencies interface {
	ReportMatchOnce(ctx context.Context, key string, winnerID, loserID int64) (model.Match, bool, error)
	Matches(ctx context.Context) ([]model.Match, error)
	ResetMatches(ctx context.Context) error
}

// MatchesHandler handles /matches requests.
type MatchesHandler struct {
	deps MatchDependencies
}

// NewMatchesHandler creates a new matches handler.
func NewMatchesHandler(deps MatchDependencies) *MatchesHandler {
	return &MatchesHandler{deps: deps}
}

type reportRequest struct {
	WinnerID int64 `json:"winner_id"`
	LoserID  int64 `json:"loser_id"`
}

type reportResponse struct {
	Match     *model.Match `json:"match,omitempty"`
	Duplicate bool         `json:"duplicate"`
}

// HandleReport handles POST /matches. A repeated Idempotency-Key answers 200
// with duplicate=true and writes nothing.
func (h *MatchesHandler) HandleReport(w http.ResponseWriter, r *http.Request) {
	const op = "api.report_match"
	var req reportRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	key := strings.TrimSpace(r.Header.Get(IdempotencyHeader))
	if len(key) > maxIdempotencyKeyLen {
		writeError(w, r, WrapKind(op, ErrBadRequest, errors.New("idempotency key too long")))
		return
	}

	m, duplicate, err := h.deps.ReportMatchOnce(r.Context(), key, req.WinnerID, req.LoserID)
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	if duplicate {
		writeJSON(w, http.StatusOK, reportResponse{Duplicate: true})
		return
	}
	writeJSON(w, http.StatusCreated, reportResponse{Match: &m})
}

// HandleList handles GET /matches.
func (h *MatchesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_matches"
	log, err := h.deps.Matches(r.Context())
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	if log == nil {
		log = []model.Match{}
	}
	writeJSON(w, http.StatusOK, log)
}

// HandleReset handles DELETE /matches.
func (h *MatchesHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	const op = "api.reset_matches"
	if err := h.deps.ResetMatches(r.Context()); err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
