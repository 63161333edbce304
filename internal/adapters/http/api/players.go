package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/swiss/internal/adapters/repository"
	"github.com/okian/swiss/internal/domain/model"
)

// PlayerDependencies defines the player operations used by the handlers.
type PlayerDependencies interface {
	RegisterPlayer(ctx context.Context, name string) (model.Player, error)
	Player(ctx context.Context, id int64) (model.Standing, error)
	CountPlayers(ctx context.Context) (int, error)
	ResetPlayers(ctx context.Context) error
}

// PlayersHandler handles /players requests.
type PlayersHandler struct {
	deps PlayerDependencies
}

// NewPlayersHandler creates a new players handler.
func NewPlayersHandler(deps PlayerDependencies) *PlayersHandler {
	return &PlayersHandler{deps: deps}
}

type registerRequest struct {
	Name string `json:"name"`
}

type countResponse struct {
	Count int `json:"count"`
}

// HandleRegister handles POST /players.
func (h *PlayersHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	const op = "api.register_player"
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		// A well-formed body with a non-string name is an invalid name.
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			writeError(w, r, WrapKind(op, repository.ErrInvalidInput, err))
			return
		}
		writeError(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	p, err := h.deps.RegisterPlayer(r.Context(), req.Name)
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// HandleCount handles GET /players/count.
func (h *PlayersHandler) HandleCount(w http.ResponseWriter, r *http.Request) {
	const op = "api.count_players"
	n, err := h.deps.CountPlayers(r.Context())
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, countResponse{Count: n})
}

// HandleGet handles GET /players/{id}.
func (h *PlayersHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_player"
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	st, err := h.deps.Player(r.Context(), id)
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// HandleReset handles DELETE /players. Matches go with them.
func (h *PlayersHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	const op = "api.reset_players"
	if err := h.deps.ResetPlayers(r.Context()); err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
