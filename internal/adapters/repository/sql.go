package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/okian/swiss/internal/domain/model"
	"github.com/okian/swiss/internal/domain/standings"
	"github.com/okian/swiss/pkg/logger"
	"github.com/okian/swiss/pkg/metrics"
)

const (
	defaultMaxOpenConns   = 25
	defaultConnectTimeout = 5 * time.Second
)

//go:embed schema/postgres.sql
var postgresSchema string

//go:embed schema/sqlite.sql
var sqliteSchema string

// Queries use '?' placeholders and are rebound for postgres.
const (
	qInsertPlayer  = `INSERT INTO players (name) VALUES (?) RETURNING id`
	qInsertMatch   = `INSERT INTO matches (winner_id, loser_id) VALUES (?, ?) RETURNING id`
	qCountKnown    = `SELECT COUNT(*) FROM players WHERE id IN (?, ?)`
	qStandings     = `SELECT id, name, wins, matches FROM player_standings ORDER BY wins DESC, id ASC`
	qMatches       = `SELECT id, winner_id, loser_id FROM matches ORDER BY id ASC`
	qCountPlayers  = `SELECT COUNT(*) FROM players`
	qCountMatches  = `SELECT COUNT(*) FROM matches`
	qDeleteMatches = `DELETE FROM matches`
	qDeletePlayers = `DELETE FROM players`
)

// executor is satisfied by *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLStore implements Store on database/sql for postgres (lib/pq) and sqlite
// (modernc.org/sqlite). Each operation runs in its own transaction.
type SQLStore struct {
	db     *sql.DB
	driver string
	logger logger.Logger

	maxOpenConns   int
	connectTimeout time.Duration
	migrate        bool
}

// OpenSQL connects to the database, verifies the connection and applies the
// embedded schema.
func OpenSQL(ctx context.Context, driver, dsn string, opts ...Option) (*SQLStore, error) {
	const op = "repository.open"

	if driver != DriverPostgres && driver != DriverSQLite {
		return nil, fmt.Errorf("%s: %w: %q", op, ErrUnsupportedDriver, driver)
	}
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("%s: %w: empty dsn", op, ErrInvalidInput)
	}

	s := &SQLStore{
		driver:         driver,
		logger:         logger.Get().Named("store"),
		maxOpenConns:   defaultMaxOpenConns,
		connectTimeout: defaultConnectTimeout,
		migrate:        true,
	}
	for _, opt := range opts {
		opt(s)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
	}

	if driver == DriverSQLite {
		// A single connection keeps ":memory:" databases alive and serialises writers.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(s.maxOpenConns)
		db.SetMaxIdleConns(s.maxOpenConns)
		db.SetConnMaxLifetime(5 * time.Minute)
	}
	s.db = db

	pingCtx, cancel := context.WithTimeout(ctx, s.connectTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: ping: %w: %w", op, ErrStoreUnavailable, err)
	}

	if driver == DriverSQLite {
		if _, err := db.ExecContext(ctx, `PRAGMA foreign_keys = ON`); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%s: enable foreign keys: %w: %w", op, ErrStoreUnavailable, err)
		}
	}

	if s.migrate {
		if err := s.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	s.logger.Info(ctx, "store opened", logger.String("driver", driver))
	return s, nil
}

// Migrate applies the embedded schema. It is idempotent.
func (s *SQLStore) Migrate(ctx context.Context) error {
	const op = "repository.migrate"
	schema := sqliteSchema
	if s.driver == DriverPostgres {
		schema = postgresSchema
	}
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
	}
	return nil
}

// withTx runs fn in a transaction that is committed when fn returns nil and
// rolled back on error or panic.
func (s *SQLStore) withTx(ctx context.Context, op string, fn func(ex executor) error) (err error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreOperation(op, float64(time.Since(start).Microseconds())/1000)
		if err != nil {
			metrics.RecordStoreError(op, Kind(err))
		}
	}()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: begin: %w: %w", op, ErrStoreUnavailable, err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				s.logger.Warn(ctx, "rollback failed", logger.String("op", op), logger.Error(rbErr))
			}
			return
		}
		if cErr := tx.Commit(); cErr != nil {
			err = fmt.Errorf("%s: commit: %w: %w", op, ErrStoreUnavailable, cErr)
		}
	}()

	if err = fn(s.tx(tx)); err != nil {
		err = classify(op, err)
	}
	return err
}

// tx wraps ex so that queries are rebound for the active driver.
func (s *SQLStore) tx(ex executor) executor {
	if s.driver == DriverPostgres {
		return rebinder{ex}
	}
	return ex
}

// RegisterPlayer implements Store.
func (s *SQLStore) RegisterPlayer(ctx context.Context, name string) (model.Player, error) {
	const op = "register_player"
	name, err := normalizeName(name)
	if err != nil {
		return model.Player{}, fmt.Errorf("%s: %w", op, err)
	}

	p := model.Player{Name: name}
	err = s.withTx(ctx, op, func(ex executor) error {
		return ex.QueryRowContext(ctx, qInsertPlayer, name).Scan(&p.ID)
	})
	if err != nil {
		return model.Player{}, err
	}
	return p, nil
}

// ReportMatch implements Store. Unknown players are rejected explicitly so the
// result does not depend on foreign key enforcement being enabled.
func (s *SQLStore) ReportMatch(ctx context.Context, winnerID, loserID int64) (model.Match, error) {
	const op = "report_match"
	if err := validateMatch(winnerID, loserID); err != nil {
		return model.Match{}, fmt.Errorf("%s: %w", op, err)
	}

	m := model.Match{WinnerID: winnerID, LoserID: loserID}
	err := s.withTx(ctx, op, func(ex executor) error {
		var known int
		if err := ex.QueryRowContext(ctx, qCountKnown, winnerID, loserID).Scan(&known); err != nil {
			return err
		}
		if known != 2 {
			return fmt.Errorf("%w: players %d and %d must both be registered", ErrReferentialIntegrity, winnerID, loserID)
		}
		return ex.QueryRowContext(ctx, qInsertMatch, winnerID, loserID).Scan(&m.ID)
	})
	if err != nil {
		return model.Match{}, err
	}
	return m, nil
}

// Standings implements Store.
func (s *SQLStore) Standings(ctx context.Context) ([]model.Standing, error) {
	var rows []model.Standing
	err := s.withTx(ctx, "standings", func(ex executor) error {
		var err error
		rows, err = queryStandings(ctx, ex)
		return err
	})
	return rows, err
}

// Player implements Store.
func (s *SQLStore) Player(ctx context.Context, id int64) (model.Standing, error) {
	const op = "player"
	var st model.Standing
	err := s.withTx(ctx, op, func(ex executor) error {
		rows, err := queryStandings(ctx, ex)
		if err != nil {
			return err
		}
		var ok bool
		if st, ok = standings.Find(rows, id); !ok {
			return fmt.Errorf("%w: %d", ErrPlayerNotFound, id)
		}
		return nil
	})
	return st, err
}

func queryStandings(ctx context.Context, ex executor) ([]model.Standing, error) {
	rows, err := ex.QueryContext(ctx, qStandings)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Standing, 0)
	for rows.Next() {
		var st model.Standing
		if err := rows.Scan(&st.PlayerID, &st.Name, &st.Wins, &st.Matches); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	standings.Rank(out)
	return out, nil
}

// Matches implements Store.
func (s *SQLStore) Matches(ctx context.Context) ([]model.Match, error) {
	out := make([]model.Match, 0)
	err := s.withTx(ctx, "matches", func(ex executor) error {
		rows, err := ex.QueryContext(ctx, qMatches)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var m model.Match
			if err := rows.Scan(&m.ID, &m.WinnerID, &m.LoserID); err != nil {
				return err
			}
			out = append(out, m)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CountPlayers implements Store.
func (s *SQLStore) CountPlayers(ctx context.Context) (int, error) {
	return s.count(ctx, "count_players", qCountPlayers)
}

// CountMatches implements Store.
func (s *SQLStore) CountMatches(ctx context.Context) (int, error) {
	return s.count(ctx, "count_matches", qCountMatches)
}

func (s *SQLStore) count(ctx context.Context, op, query string) (int, error) {
	var n int
	err := s.withTx(ctx, op, func(ex executor) error {
		return ex.QueryRowContext(ctx, query).Scan(&n)
	})
	return n, err
}

// ResetMatches implements Store.
func (s *SQLStore) ResetMatches(ctx context.Context) error {
	return s.withTx(ctx, "reset_matches", func(ex executor) error {
		_, err := ex.ExecContext(ctx, qDeleteMatches)
		return err
	})
}

// ResetPlayers implements Store. Matches go first so no row is ever orphaned,
// whether or not the schema cascades.
func (s *SQLStore) ResetPlayers(ctx context.Context) error {
	return s.withTx(ctx, "reset_players", func(ex executor) error {
		if _, err := ex.ExecContext(ctx, qDeleteMatches); err != nil {
			return err
		}
		_, err := ex.ExecContext(ctx, qDeletePlayers)
		return err
	})
}

// Ping implements Store.
func (s *SQLStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("repository.ping: %w: %w", ErrStoreUnavailable, err)
	}
	return nil
}

// Close implements Store.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// rebinder rewrites '?' placeholders to $1, $2, ... for postgres.
type rebinder struct {
	ex executor
}

func (r rebinder) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return r.ex.ExecContext(ctx, rebind(query), args...)
}

func (r rebinder) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return r.ex.QueryContext(ctx, rebind(query), args...)
}

func (r rebinder) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return r.ex.QueryRowContext(ctx, rebind(query), args...)
}

func rebind(query string) string {
	if !strings.Contains(query, "?") {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
