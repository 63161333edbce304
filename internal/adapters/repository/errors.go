package repository

import "errors"

// Sentinel kinds for store errors. Callers match them with errors.Is.
var (
	// ErrInvalidInput reports malformed input such as an empty player name or
	// a match where winner and loser are the same player.
	ErrInvalidInput = errors.New("invalid input")
	// ErrReferentialIntegrity reports a match that references unknown players,
	// or any change that would leave matches pointing at missing players.
	ErrReferentialIntegrity = errors.New("referential integrity violation")
	// ErrStoreUnavailable reports a connection or transaction failure. It is
	// never retried automatically.
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrPlayerNotFound    = errors.New("player not found")
	ErrUnsupportedDriver = errors.New("unsupported store driver")
)

// Kind returns a short label for err, used for metrics and API error codes.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrReferentialIntegrity):
		return "referential_integrity"
	case errors.Is(err, ErrPlayerNotFound):
		return "not_found"
	case errors.Is(err, ErrStoreUnavailable):
		return "store_unavailable"
	default:
		return "internal"
	}
}
