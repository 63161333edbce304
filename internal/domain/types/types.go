// Package types contains wire shapes shared by the live feed, snapshots and the board page.
package types

import (
	"time"

	"github.com/okian/swiss/internal/domain/model"
)

// UpdateType is the "type" discriminator of an Update message.
const UpdateType = "standings_updated"

// Update is pushed to live clients after every committed change.
type Update struct {
	Type      string           `json:"type"`
	Event     model.Event      `json:"event"`
	Standings []model.Standing `json:"standings"`
}

// Snapshot is the document exported to object storage.
type Snapshot struct {
	Tournament string           `json:"tournament"`
	TakenAt    time.Time        `json:"taken_at"`
	Players    int              `json:"players"`
	Standings  []model.Standing `json:"standings"`
	// Pairings is empty when the player count is odd; PairingError says why.
	Pairings     []model.Pairing `json:"pairings"`
	PairingError string          `json:"pairing_error,omitempty"`
}
