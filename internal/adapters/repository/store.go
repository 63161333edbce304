// Package repository holds the tournament result store: the player registry,
// the append-only match log and the standings view derived from them.
package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/okian/swiss/internal/domain/model"
)

// Driver names accepted by New.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Store provides transactional access to players and matches. Every method
// is all-or-nothing and observes every change committed before it started.
type Store interface {
	// RegisterPlayer creates a player with a store-assigned id.
	RegisterPlayer(ctx context.Context, name string) (model.Player, error)
	// ReportMatch appends a result.
	ReportMatch(ctx context.Context, winnerID, loserID int64) (model.Match, error)

	// Standings returns every player ordered by wins desc, id asc.
	Standings(ctx context.Context) ([]model.Standing, error)
	// Player returns one player's standing. Returns ErrPlayerNotFound if unknown.
	Player(ctx context.Context, id int64) (model.Standing, error)
	// Matches returns the match log in report order.
	Matches(ctx context.Context) ([]model.Match, error)

	CountPlayers(ctx context.Context) (int, error)
	CountMatches(ctx context.Context) (int, error)

	// ResetMatches deletes all matches.
	ResetMatches(ctx context.Context) error
	// ResetPlayers deletes all players together with their matches.
	ResetPlayers(ctx context.Context) error

	Ping(ctx context.Context) error
	Close() error
}

// New opens the store selected by driver. dsn is ignored for the memory driver.
func New(ctx context.Context, driver, dsn string, opts ...Option) (Store, error) {
	switch driver {
	case DriverMemory:
		return NewMemoryStore(), nil
	case DriverSQLite, DriverPostgres:
		return OpenSQL(ctx, driver, dsn, opts...)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}
}

func normalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: need a valid full name", ErrInvalidInput)
	}
	return name, nil
}

func validateMatch(winnerID, loserID int64) error {
	if winnerID <= 0 || loserID <= 0 {
		return fmt.Errorf("%w: player ids must be positive", ErrInvalidInput)
	}
	if winnerID == loserID {
		return fmt.Errorf("%w: player %d cannot play against themselves", ErrInvalidInput, winnerID)
	}
	return nil
}
