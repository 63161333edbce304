package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/swiss/internal/domain/model"
	"github.com/okian/swiss/internal/domain/standings"
	"github.com/okian/swiss/pkg/metrics"
)

// MemoryStore keeps players and matches in process memory. Each operation
// holds the store lock for its whole duration, which makes it atomic.
// Standings are recomputed on every call.
type MemoryStore struct {
	mu           sync.RWMutex
	players      []model.Player
	matches      []model.Match
	nextPlayerID int64
	nextMatchID  int64
	closed       bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{nextPlayerID: 1, nextMatchID: 1}
}

func observe(op string, start time.Time, err error) {
	metrics.RecordStoreOperation(op, float64(time.Since(start).Microseconds())/1000)
	if err != nil {
		metrics.RecordStoreError(op, Kind(err))
	}
}

func (s *MemoryStore) checkOpen(op string) error {
	if s.closed {
		return fmt.Errorf("%s: %w: store closed", op, ErrStoreUnavailable)
	}
	return nil
}

// RegisterPlayer implements Store.
func (s *MemoryStore) RegisterPlayer(_ context.Context, name string) (p model.Player, err error) {
	const op = "register_player"
	defer func(start time.Time) { observe(op, start, err) }(time.Now())

	name, err = normalizeName(name)
	if err != nil {
		return model.Player{}, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err = s.checkOpen(op); err != nil {
		return model.Player{}, err
	}

	p = model.Player{ID: s.nextPlayerID, Name: name}
	s.nextPlayerID++
	s.players = append(s.players, p)
	return p, nil
}

// ReportMatch implements Store.
func (s *MemoryStore) ReportMatch(_ context.Context, winnerID, loserID int64) (m model.Match, err error) {
	const op = "report_match"
	defer func(start time.Time) { observe(op, start, err) }(time.Now())

	if err = validateMatch(winnerID, loserID); err != nil {
		return model.Match{}, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err = s.checkOpen(op); err != nil {
		return model.Match{}, err
	}
	if !s.known(winnerID) || !s.known(loserID) {
		err = fmt.Errorf("%s: %w: players %d and %d must both be registered", op, ErrReferentialIntegrity, winnerID, loserID)
		return model.Match{}, err
	}

	m = model.Match{ID: s.nextMatchID, WinnerID: winnerID, LoserID: loserID}
	s.nextMatchID++
	s.matches = append(s.matches, m)
	return m, nil
}

func (s *MemoryStore) known(id int64) bool {
	for _, p := range s.players {
		if p.ID == id {
			return true
		}
	}
	return false
}

// Standings implements Store.
func (s *MemoryStore) Standings(_ context.Context) (rows []model.Standing, err error) {
	const op = "standings"
	defer func(start time.Time) { observe(op, start, err) }(time.Now())

	s.mu.RLock()
	defer s.mu.RUnlock()
	if err = s.checkOpen(op); err != nil {
		return nil, err
	}
	return standings.Compute(s.players, s.matches), nil
}

// Player implements Store.
func (s *MemoryStore) Player(ctx context.Context, id int64) (model.Standing, error) {
	rows, err := s.Standings(ctx)
	if err != nil {
		return model.Standing{}, err
	}
	st, ok := standings.Find(rows, id)
	if !ok {
		return model.Standing{}, fmt.Errorf("player: %w: %d", ErrPlayerNotFound, id)
	}
	return st, nil
}

// Matches implements Store.
func (s *MemoryStore) Matches(_ context.Context) ([]model.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen("matches"); err != nil {
		return nil, err
	}
	out := make([]model.Match, len(s.matches))
	copy(out, s.matches)
	return out, nil
}

// CountPlayers implements Store.
func (s *MemoryStore) CountPlayers(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen("count_players"); err != nil {
		return 0, err
	}
	return len(s.players), nil
}

// CountMatches implements Store.
func (s *MemoryStore) CountMatches(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen("count_matches"); err != nil {
		return 0, err
	}
	return len(s.matches), nil
}

// ResetMatches implements Store.
func (s *MemoryStore) ResetMatches(_ context.Context) (err error) {
	const op = "reset_matches"
	defer func(start time.Time) { observe(op, start, err) }(time.Now())

	s.mu.Lock()
	defer s.mu.Unlock()
	if err = s.checkOpen(op); err != nil {
		return err
	}
	s.matches = nil
	return nil
}

// ResetPlayers implements Store. Matches are removed with their players.
func (s *MemoryStore) ResetPlayers(_ context.Context) (err error) {
	const op = "reset_players"
	defer func(start time.Time) { observe(op, start, err) }(time.Now())

	s.mu.Lock()
	defer s.mu.Unlock()
	if err = s.checkOpen(op); err != nil {
		return err
	}
	s.matches = nil
	s.players = nil
	return nil
}

// Ping implements Store.
func (s *MemoryStore) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.checkOpen("ping")
}

// Close implements Store. Later calls fail with ErrStoreUnavailable.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
