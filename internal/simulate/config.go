// Package simulate drives a complete Swiss tournament against a running
// server over HTTP and checks the server's answers along the way.
package simulate

import (
	"errors"
	"fmt"
	"time"

	"github.com/okian/swiss/internal/domain/model"
)

// ErrInvalidConfig is returned by Config.Validate.
var ErrInvalidConfig = errors.New("invalid simulation config")

// Config holds configuration for one simulated tournament.
type Config struct {
	BaseURL    string        // Base URL of the service
	Players    int           // Players to register, must be even
	Rounds     int           // Rounds to play
	Workers    int           // Concurrent requests per phase
	Timeout    time.Duration // HTTP request timeout
	AdminToken string        // Bearer token for the reset routes, if auth is on
	OutputFile string        // Results file, timestamped name when empty
	Seed       int64         // Seed for winner selection, time based when zero
	Verbose    bool          // Log every pairing and report
}

// Validate reports the first setting that cannot work.
func (c *Config) Validate() error {
	switch {
	case c.BaseURL == "":
		return fmt.Errorf("%w: base url is required", ErrInvalidConfig)
	case c.Players < 2 || c.Players%2 != 0:
		return fmt.Errorf("%w: players must be an even number of at least 2, got %d", ErrInvalidConfig, c.Players)
	case c.Rounds < 1:
		return fmt.Errorf("%w: rounds must be positive", ErrInvalidConfig)
	case c.Workers < 1:
		return fmt.Errorf("%w: workers must be positive", ErrInvalidConfig)
	}
	return nil
}

// Round records what happened in one round.
type Round struct {
	Number     int             `json:"number"`
	Pairings   []model.Pairing `json:"pairings"`
	Reported   int             `json:"reported"`
	Duplicates int             `json:"duplicates"`
}

// Result is the outcome of a simulation, written to the results file.
type Result struct {
	BaseURL   string           `json:"base_url"`
	Seed      int64            `json:"seed"`
	Players   int              `json:"players"`
	Rounds    []Round          `json:"rounds"`
	Matches   int              `json:"matches"`
	Standings []model.Standing `json:"standings"`
	StartedAt time.Time        `json:"started_at"`
	Duration  time.Duration    `json:"duration_ns"`
}

// Leader returns the first row of the final standings.
func (r *Result) Leader() (model.Standing, bool) {
	if len(r.Standings) == 0 {
		return model.Standing{}, false
	}
	return r.Standings[0], true
}
