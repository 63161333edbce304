package pairing

import "errors"

// Sentinel kinds for pairing errors.
var (
	// ErrOddPlayerCount is returned when the standings hold an odd number of
	// players. Byes are not supported, so no player is ever dropped silently.
	ErrOddPlayerCount = errors.New("odd player count")
	ErrUnranked       = errors.New("standings are not in rank order")
)
