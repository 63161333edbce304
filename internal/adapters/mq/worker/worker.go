// Package worker turns committed tournament changes into standings updates
// and hands them to publishers such as the live feed.
package worker

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/okian/swiss/internal/adapters/mq/queue"
	"github.com/okian/swiss/internal/domain/model"
	"github.com/okian/swiss/internal/domain/types"
	"github.com/okian/swiss/pkg/logger"
	"github.com/okian/swiss/pkg/metrics"
)

const (
	defaultWorkerCount  = 1
	poolShutdownTimeout = 30 * time.Second
)

// Event abstracts what workers read off the queue.
type Event = queue.Event

// StandingsReader returns the current standings.
type StandingsReader interface {
	Standings(ctx context.Context) ([]model.Standing, error)
}

// Publisher delivers an update to interested parties.
type Publisher interface {
	Publish(ctx context.Context, u types.Update) error
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, u types.Update) error

// Publish implements Publisher.
func (f PublisherFunc) Publish(ctx context.Context, u types.Update) error { return f(ctx, u) }

// Queue defines how workers receive events.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Event
}

// Worker processes events until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or the queue closes.
	Run(ctx context.Context)

	// Shutdown stops the worker and waits for it to exit.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker reads fresh standings for every event and publishes them.
type InMemoryWorker struct {
	queue      Queue
	reader     StandingsReader
	publishers []Publisher
	name       string
	processed  *atomic.Int64

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a worker.
func NewInMemoryWorker(q Queue, reader StandingsReader, publishers []Publisher, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:      q,
		reader:     reader,
		publishers: publishers,
		name:       "worker",
		processed:  new(atomic.Int64),
		shutdown:   make(chan struct{}),
		done:       make(chan struct{}),
		logger:     logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	events := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			if err := w.process(ctx, e); err != nil {
				w.logger.Error(ctx, "error publishing update",
					logger.String("event_id", e.ID),
					logger.String("kind", string(e.Kind)),
					logger.Error(err),
				)
			}
		}
	}
}

// Shutdown signals the worker to stop and waits for it.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	select {
	case <-w.shutdown:
	default:
		close(w.shutdown)
	}

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Processed returns how many events this worker handled.
func (w *InMemoryWorker) Processed() int64 {
	return w.processed.Load()
}

func (w *InMemoryWorker) process(ctx context.Context, e Event) error { //nolint:gocritic // hugeParam: received by value from the channel
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)
		w.processed.Add(1)
	}()

	rows, err := w.reader.Standings(ctx)
	if err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "standings_error")
		return fmt.Errorf("read standings for %s: %w", e.ID, err)
	}

	update := types.Update{Type: types.UpdateType, Event: e, Standings: rows}

	var errs []error
	for _, p := range w.publishers {
		if err := p.Publish(ctx, update); err != nil {
			metrics.RecordWorkerError()
			metrics.RecordErrorByComponent("worker", "publish_error")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Pool manages several workers sharing one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue

	logger logger.Logger
}

// NewPool creates a pool of workerCount workers. Updates may be published out
// of order when more than one worker is used, each still carrying standings
// that were current when it was built.
func NewPool(workerCount int, q Queue, reader StandingsReader, publishers []Publisher) *Pool {
	if workerCount < 1 {
		workerCount = defaultWorkerCount
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewInMemoryWorker(q, reader, publishers, WithName("worker-"+strconv.Itoa(i)))
	}

	metrics.UpdateWorkerCount(workerCount)
	return pool
}

// Start starts all workers.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return len(p.workers)
}

// Processed returns the number of events handled by all workers.
func (p *Pool) Processed() int64 {
	var n int64
	for _, w := range p.workers {
		n += w.Processed()
	}
	return n
}

// Shutdown closes the queue, lets workers drain what is left and waits for them.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var timedOut bool
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			timedOut = true
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}
	if timedOut {
		return fmt.Errorf("worker pool shutdown: %w", shutdownCtx.Err())
	}
	return nil
}
