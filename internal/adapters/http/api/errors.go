package api

import (
	"errors"
	"net/http"

	"github.com/okian/swiss/internal/adapters/repository"
	"github.com/okian/swiss/internal/domain/pairing"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest        = errors.New("bad request")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrSnapshotsDisabled = errors.New("snapshots are not configured")
	ErrAuthDisabled      = errors.New("admin authentication is not configured")
)

// Error carries the operation that failed, the kind used for status mapping
// and the underlying cause.
type Error struct {
	Op   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Kind != nil && e.Err != nil:
		return e.Op + ": " + e.Kind.Error() + ": " + e.Err.Error()
	case e.Kind != nil:
		return e.Op + ": " + e.Kind.Error()
	case e.Err != nil:
		return e.Op + ": " + e.Err.Error()
	default:
		return e.Op
	}
}

// Unwrap exposes both the kind and the cause to errors.Is.
func (e *Error) Unwrap() []error {
	var out []error
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// NewKind returns an error of the given kind without a cause.
func NewKind(op string, kind error) error {
	return &Error{Op: op, Kind: kind}
}

// WrapKind returns err tagged with kind.
func WrapKind(op string, kind, err error) error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// Wrap attaches op to err and keeps err's own kind.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}

// statusFor maps err to an HTTP status and a stable error code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, repository.ErrInvalidInput):
		return http.StatusBadRequest, "invalid_input"
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, repository.ErrPlayerNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, repository.ErrReferentialIntegrity):
		return http.StatusConflict, "referential_integrity"
	case errors.Is(err, pairing.ErrOddPlayerCount):
		return http.StatusConflict, "odd_player_count"
	case errors.Is(err, repository.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, "store_unavailable"
	case errors.Is(err, ErrSnapshotsDisabled):
		return http.StatusServiceUnavailable, "snapshots_disabled"
	case errors.Is(err, ErrAuthDisabled):
		return http.StatusServiceUnavailable, "auth_disabled"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
