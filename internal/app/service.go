// Package service provides the tournament service that implements the
// dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	eventqueue "github.com/okian/swiss/internal/adapters/mq/queue"
	workerpool "github.com/okian/swiss/internal/adapters/mq/worker"
	"github.com/okian/swiss/internal/adapters/repository"
	"github.com/okian/swiss/internal/domain/dedupe"
	"github.com/okian/swiss/internal/domain/model"
	"github.com/okian/swiss/internal/domain/pairing"
	"github.com/okian/swiss/pkg/logger"
	"github.com/okian/swiss/pkg/metrics"
	"golang.org/x/sync/singleflight"
)

// ErrNotConfigured is returned when the service has no store.
var ErrNotConfigured = errors.New("service has no store")

// Service runs one Swiss tournament on top of a Store and notifies
// publishers after every committed change.
type Service struct {
	mu sync.RWMutex // guards lifecycle fields

	// opMu lets resets exclude every other mutation, so no event for a
	// pre-reset change is emitted after the reset event.
	opMu sync.RWMutex

	// inflight joins concurrent reports that carry the same idempotency key.
	inflight singleflight.Group

	store      repository.Store
	deduper    dedupe.Deduper
	queue      *eventqueue.InMemoryQueue
	pool       *workerpool.Pool
	publishers []workerpool.Publisher

	workerCount int
	queueSize   int
	dedupeSize  int

	started bool
	logger  logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the backing store. The service closes it on Stop.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		s.store = store
	}
}

// WithWorkerCount sets the number of notification workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the notification queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many idempotency keys are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithPublishers adds receivers of standings updates.
func WithPublishers(p ...workerpool.Publisher) Option {
	return func(s *Service) {
		s.publishers = append(s.publishers, p...)
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service. Store operations work right away; notifications
// flow only between Start and Stop.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: 1,
		queueSize:   1_024,
		dedupeSize:  50_000,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	return s
}

// Start launches the notification workers.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.store == nil {
		return ErrNotConfigured
	}

	s.logger.Info(ctx, "starting tournament service...")

	s.queue = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))
	s.pool = workerpool.NewPool(s.workerCount, s.queue, s.store, s.publishers)
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "tournament service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Int("publishers", len(s.publishers)),
	)
	return nil
}

// Stop drains pending notifications and closes the store.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	if s.started {
		s.logger.Info(ctx, "stopping tournament service...")
		if err := s.pool.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
		s.started = false
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close store: %w", err))
		}
	}
	s.logger.Info(ctx, "tournament service stopped")
	return errors.Join(errs...)
}

// RegisterPlayer adds a player to the tournament.
func (s *Service) RegisterPlayer(ctx context.Context, name string) (model.Player, error) {
	if s.store == nil {
		return model.Player{}, ErrNotConfigured
	}
	s.opMu.RLock()
	defer s.opMu.RUnlock()

	p, err := s.store.RegisterPlayer(ctx, name)
	if err != nil {
		return model.Player{}, err
	}
	metrics.RecordPlayerRegistered()
	s.notify(ctx, model.Event{Kind: model.EventPlayerRegistered, Player: &p})
	return p, nil
}

// ReportMatch records the outcome of a single match.
func (s *Service) ReportMatch(ctx context.Context, winnerID, loserID int64) (model.Match, error) {
	if s.store == nil {
		return model.Match{}, ErrNotConfigured
	}
	s.opMu.RLock()
	defer s.opMu.RUnlock()

	return s.reportMatch(ctx, winnerID, loserID)
}

// keyedReport is the outcome shared by every caller of one keyed report.
type keyedReport struct {
	match     model.Match
	duplicate bool
}

// ReportMatchOnce records a match at most once per key. When key was seen
// before, nothing is written and duplicate is true. A request that arrives
// while another with the same key is still being written waits for it: it
// is a duplicate if that write commits and gets the same error if it fails.
// A failed report forgets the key so the client can retry it. An empty key
// disables the check.
func (s *Service) ReportMatchOnce(ctx context.Context, key string, winnerID, loserID int64) (m model.Match, duplicate bool, err error) {
	if key == "" {
		m, err = s.ReportMatch(ctx, winnerID, loserID)
		return m, false, err
	}
	if s.store == nil {
		return model.Match{}, false, ErrNotConfigured
	}

	leader := false
	v, err, _ := s.inflight.Do(key, func() (interface{}, error) {
		leader = true
		return s.reportKeyed(ctx, key, winnerID, loserID)
	})
	if err != nil {
		return model.Match{}, false, err
	}

	out := v.(keyedReport)
	if out.duplicate || !leader {
		metrics.RecordMatchDuplicate()
		s.logger.Debug(ctx, "duplicate match report skipped", logger.String("key", key))
		return model.Match{}, true, nil
	}
	return out.match, false, nil
}

// reportKeyed holds opMu across the key check and the write so a reset
// cannot clear the key between them.
func (s *Service) reportKeyed(ctx context.Context, key string, winnerID, loserID int64) (keyedReport, error) {
	s.opMu.RLock()
	defer s.opMu.RUnlock()

	if s.deduper.SeenAndRecord(ctx, key) {
		return keyedReport{duplicate: true}, nil
	}
	m, err := s.reportMatch(ctx, winnerID, loserID)
	if err != nil {
		s.deduper.Unrecord(ctx, key)
		return keyedReport{}, err
	}
	return keyedReport{match: m}, nil
}

func (s *Service) reportMatch(ctx context.Context, winnerID, loserID int64) (model.Match, error) {
	m, err := s.store.ReportMatch(ctx, winnerID, loserID)
	if err != nil {
		return model.Match{}, err
	}
	metrics.RecordMatchReported()
	s.notify(ctx, model.Event{Kind: model.EventMatchReported, Match: &m})
	return m, nil
}

// Standings returns every player ranked by wins.
func (s *Service) Standings(ctx context.Context) ([]model.Standing, error) {
	if s.store == nil {
		return nil, ErrNotConfigured
	}
	metrics.RecordStandingsQuery()
	return s.store.Standings(ctx)
}

// Player returns one player's standing.
func (s *Service) Player(ctx context.Context, id int64) (model.Standing, error) {
	if s.store == nil {
		return model.Standing{}, ErrNotConfigured
	}
	return s.store.Player(ctx, id)
}

// Matches returns the match log.
func (s *Service) Matches(ctx context.Context) ([]model.Match, error) {
	if s.store == nil {
		return nil, ErrNotConfigured
	}
	return s.store.Matches(ctx)
}

// CountPlayers returns the number of registered players.
func (s *Service) CountPlayers(ctx context.Context) (int, error) {
	if s.store == nil {
		return 0, ErrNotConfigured
	}
	n, err := s.store.CountPlayers(ctx)
	if err == nil {
		metrics.UpdatePlayersCurrent(n)
	}
	return n, err
}

// CountMatches returns the number of reported matches.
func (s *Service) CountMatches(ctx context.Context) (int, error) {
	if s.store == nil {
		return 0, ErrNotConfigured
	}
	n, err := s.store.CountMatches(ctx)
	if err == nil {
		metrics.UpdateMatchesCurrent(n)
	}
	return n, err
}

// SwissPairings pairs the current standings for the next round. It reads one
// standings snapshot and takes no lock, so it never waits for a report.
func (s *Service) SwissPairings(ctx context.Context) ([]model.Pairing, error) {
	if s.store == nil {
		return nil, ErrNotConfigured
	}
	rows, err := s.store.Standings(ctx)
	if err != nil {
		return nil, err
	}
	pairs, err := pairing.Swiss(rows)
	if err != nil {
		reason := "internal"
		if errors.Is(err, pairing.ErrOddPlayerCount) {
			reason = "odd_player_count"
		}
		metrics.RecordPairingError(reason)
		return nil, err
	}
	metrics.RecordPairingsGenerated()
	return pairs, nil
}

// ResetMatches deletes every match and keeps the players. Idempotency keys
// are forgotten with the matches they guarded.
func (s *Service) ResetMatches(ctx context.Context) error {
	if s.store == nil {
		return ErrNotConfigured
	}
	s.opMu.Lock()
	defer s.opMu.Unlock()

	if err := s.store.ResetMatches(ctx); err != nil {
		return err
	}
	s.deduper.Reset(ctx)
	metrics.RecordReset("matches")
	s.notify(ctx, model.Event{Kind: model.EventMatchesReset})
	return nil
}

// ResetPlayers deletes every player together with their matches.
func (s *Service) ResetPlayers(ctx context.Context) error {
	if s.store == nil {
		return ErrNotConfigured
	}
	s.opMu.Lock()
	defer s.opMu.Unlock()

	if err := s.store.ResetPlayers(ctx); err != nil {
		return err
	}
	s.deduper.Reset(ctx)
	metrics.RecordReset("players")
	s.notify(ctx, model.Event{Kind: model.EventPlayersReset})
	return nil
}

// Ping checks the store.
func (s *Service) Ping(ctx context.Context) error {
	if s.store == nil {
		return ErrNotConfigured
	}
	return s.store.Ping(ctx)
}

// notify enqueues e for the publishers. A full queue drops the event; the
// next change carries fresh standings anyway.
func (s *Service) notify(ctx context.Context, e model.Event) {
	s.mu.RLock()
	q := s.queue
	started := s.started
	s.mu.RUnlock()
	if !started {
		return
	}

	e.ID = uuid.NewString()
	e.At = time.Now().UTC()
	if !q.Enqueue(ctx, e) {
		s.logger.Warn(ctx, "notification dropped",
			logger.String("event_id", e.ID),
			logger.String("kind", string(e.Kind)),
		)
		metrics.RecordErrorByComponent("service", "notify_dropped")
	}
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
		"dedupeKeys":  s.deduper.Size(),
	}

	if s.started {
		stats["queueLength"] = s.queue.Len(ctx)
		stats["notificationsProcessed"] = s.pool.Processed()
	}
	if s.store != nil {
		if n, err := s.CountPlayers(ctx); err == nil {
			stats["players"] = n
		}
		if n, err := s.CountMatches(ctx); err == nil {
			stats["matches"] = n
		}
	}
	return stats
}

// Size returns the number of remembered idempotency keys.
func (s *Service) Size() int64 {
	return s.deduper.Size()
}
