package model

import "time"

// EventKind names a committed state change.
type EventKind string

// Event kinds emitted after a successful mutation.
const (
	EventPlayerRegistered EventKind = "player_registered"
	EventMatchReported    EventKind = "match_reported"
	EventMatchesReset     EventKind = "matches_reset"
	EventPlayersReset     EventKind = "players_reset"
)

// EventConnected greets a live client with the current standings.
const EventConnected EventKind = "connected"

// Event describes a change that listeners (live feed, snapshots) may react to.
// Only the fields relevant to Kind are set.
type Event struct {
	ID     string    `json:"id"`
	Kind   EventKind `json:"kind"`
	Player *Player   `json:"player,omitempty"`
	Match  *Match    `json:"match,omitempty"`
	At     time.Time `json:"at"`
}
