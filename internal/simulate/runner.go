package simulate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/okian/swiss/internal/domain/model"
	"github.com/okian/swiss/internal/domain/pairing"
	"github.com/okian/swiss/internal/domain/standings"
	"github.com/okian/swiss/pkg/logger"
	"golang.org/x/sync/errgroup"
)

// File permission constants.
const (
	directoryPermission = 0o750
	filePermission      = 0o600
)

// ErrMismatch is returned when the server's answers break a tournament rule.
var ErrMismatch = errors.New("server state mismatch")

// Run plays a complete tournament against cfg.BaseURL and verifies every round.
func Run(ctx context.Context, cfg *Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	log := logger.Get().Named("simulate")
	log.Info(ctx, "starting tournament simulation",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("players", cfg.Players),
		logger.Int("rounds", cfg.Rounds),
		logger.Int("workers", cfg.Workers),
		logger.Int64("seed", seed))

	s := &simulation{
		cfg:    cfg,
		client: NewClient(cfg.BaseURL, cfg.AdminToken, cfg.Timeout),
		rnd:    rand.New(rand.NewSource(seed)), //nolint:gosec // winners need not be unpredictable
		log:    log,
	}
	res := &Result{BaseURL: cfg.BaseURL, Seed: seed, StartedAt: time.Now().UTC()}

	if err := s.client.Health(ctx); err != nil {
		return nil, fmt.Errorf("service health check failed: %w", err)
	}
	if err := s.client.Reset(ctx); err != nil {
		return nil, err
	}
	if err := s.register(ctx); err != nil {
		return nil, fmt.Errorf("register players: %w", err)
	}
	res.Players = cfg.Players

	for n := 1; n <= cfg.Rounds; n++ {
		round, err := s.play(ctx, n)
		if err != nil {
			return nil, fmt.Errorf("round %d: %w", n, err)
		}
		res.Rounds = append(res.Rounds, round)
		res.Matches += round.Reported
	}

	final, err := s.client.Standings(ctx)
	if err != nil {
		return nil, fmt.Errorf("final standings: %w", err)
	}
	res.Standings = final
	res.Duration = time.Since(res.StartedAt)

	if err := writeResult(cfg.OutputFile, res); err != nil {
		log.Warn(ctx, "failed to save results", logger.Error(err))
	}

	leader, _ := res.Leader()
	log.Info(ctx, "simulation completed",
		logger.Int("matches", res.Matches),
		logger.String("leader", leader.Name),
		logger.Int("leaderWins", leader.Wins),
		logger.Duration("duration", res.Duration))
	return res, nil
}

type simulation struct {
	cfg     *Config
	client  *Client
	rnd     *rand.Rand
	log     logger.Logger
	matches int
}

func (s *simulation) register(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)
	for i := 0; i < s.cfg.Players; i++ {
		name := fmt.Sprintf("Player %03d", i+1)
		g.Go(func() error {
			_, err := s.client.Register(gctx, name)
			return err
		})
	}
	return g.Wait()
}

// play pairs the current standings, reports a random winner for every table
// and checks the standings afterwards.
func (s *simulation) play(ctx context.Context, number int) (Round, error) {
	round := Round{Number: number}

	before, err := s.client.Standings(ctx)
	if err != nil {
		return round, err
	}
	pairs, err := s.client.Pairings(ctx)
	if err != nil {
		return round, err
	}
	if err := pairing.Validate(before, pairs); err != nil {
		return round, fmt.Errorf("%w: %w", ErrMismatch, err)
	}
	round.Pairings = pairs

	type report struct {
		key           string
		winner, loser int64
		table         int
	}
	reports := make([]report, len(pairs))
	for i, p := range pairs {
		r := report{key: uuid.NewString(), winner: p.Player1ID, loser: p.Player2ID, table: p.Table}
		if s.rnd.Intn(2) == 1 {
			r.winner, r.loser = r.loser, r.winner
		}
		reports[i] = r
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)
	for _, r := range reports {
		r := r
		g.Go(func() error {
			dup, err := s.client.Report(gctx, r.key, r.winner, r.loser)
			if err != nil {
				return fmt.Errorf("table %d: %w", r.table, err)
			}
			if dup {
				return fmt.Errorf("%w: table %d reported as duplicate on first attempt", ErrMismatch, r.table)
			}
			if s.cfg.Verbose {
				s.log.Info(gctx, "match reported",
					logger.Int("round", number), logger.Int("table", r.table),
					logger.Int64("winner", r.winner), logger.Int64("loser", r.loser))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return round, err
	}
	round.Reported = len(reports)
	s.matches += len(reports)

	// A retried report must not count twice.
	if len(reports) > 0 {
		r := reports[0]
		dup, err := s.client.Report(ctx, r.key, r.winner, r.loser)
		if err != nil {
			return round, fmt.Errorf("retry table %d: %w", r.table, err)
		}
		if !dup {
			return round, fmt.Errorf("%w: retried report for table %d was recorded again", ErrMismatch, r.table)
		}
		round.Duplicates++
	}

	return round, s.verify(ctx, number)
}

// verify checks the standings after a round against what was reported.
func (s *simulation) verify(ctx context.Context, played int) error {
	rows, err := s.client.Standings(ctx)
	if err != nil {
		return err
	}
	if len(rows) != s.cfg.Players {
		return fmt.Errorf("%w: %d players in standings, want %d", ErrMismatch, len(rows), s.cfg.Players)
	}
	wins, matches := standings.Totals(rows)
	if wins != s.matches || matches != 2*s.matches {
		return fmt.Errorf("%w: standings total %d wins over %d matches played, want %d and %d",
			ErrMismatch, wins, matches, s.matches, 2*s.matches)
	}
	for i, r := range rows {
		if r.Matches != played {
			return fmt.Errorf("%w: player %d has %d matches after %d rounds", ErrMismatch, r.PlayerID, r.Matches, played)
		}
		if i > 0 && standings.Less(r, rows[i-1]) {
			return fmt.Errorf("%w: standings out of order at rank %d", ErrMismatch, r.Rank)
		}
	}

	log, err := s.client.Matches(ctx)
	if err != nil {
		return err
	}
	if len(log) != s.matches {
		return fmt.Errorf("%w: match log has %d entries, want %d", ErrMismatch, len(log), s.matches)
	}
	for _, r := range rows {
		if err := checkRecord(r, log); err != nil {
			return err
		}
	}
	return nil
}

// checkRecord compares a standings row with the player's own match log.
func checkRecord(r model.Standing, log []model.Match) error {
	var played, lost int
	for _, m := range log {
		if !m.Involves(r.PlayerID) {
			continue
		}
		played++
		if m.LoserID == r.PlayerID {
			lost++
		}
	}
	if played != r.Matches || lost != r.Losses() {
		return fmt.Errorf("%w: player %d shows %d matches and %d losses, log has %d and %d",
			ErrMismatch, r.PlayerID, r.Matches, r.Losses(), played, lost)
	}
	return nil
}

// writeResult saves res as indented JSON. An empty name gets a timestamped one.
func writeResult(filename string, res *Result) error {
	if filename == "" {
		filename = "swiss_sim_" + time.Now().Format("20060102_150405") + ".json"
	}
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	if err := os.WriteFile(filename, data, filePermission); err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}
	logger.Get().Info(context.Background(), "results saved to file", logger.String("filename", filename))
	return nil
}
