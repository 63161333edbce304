package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	queue "github.com/okian/swiss/internal/adapters/mq/queue"
	worker "github.com/okian/swiss/internal/adapters/mq/worker"
	"github.com/okian/swiss/internal/domain/model"
	"github.com/okian/swiss/internal/domain/types"
	logging "github.com/okian/swiss/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logging.Init()
}

type mockReader struct {
	mu   sync.Mutex
	rows []model.Standing
	err  error
}

func (m *mockReader) Standings(_ context.Context) ([]model.Standing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rows, m.err
}

type recorder struct {
	mu      sync.Mutex
	updates []types.Update
	err     error
}

func (r *recorder) Publish(_ context.Context, u types.Update) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, u)
	return r.err
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.updates)
}

func (r *recorder) last() types.Update {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.updates[len(r.updates)-1]
}

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a worker reading from a queue", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(8))
		reader := &mockReader{rows: []model.Standing{
			{Rank: 1, PlayerID: 2, Name: "Fluttershy", Wins: 1, Matches: 1},
			{Rank: 2, PlayerID: 1, Name: "Twilight Sparkle", Wins: 0, Matches: 1},
		}}
		pub := &recorder{}
		w := worker.NewInMemoryWorker(q, reader, []worker.Publisher{pub}, worker.WithName("test-worker"))

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		convey.Convey("When an event is enqueued", func() {
			q.Enqueue(ctx, model.Event{ID: "e1", Kind: model.EventMatchReported, At: time.Now()})

			convey.Convey("Then an update with fresh standings is published", func() {
				convey.So(waitFor(func() bool { return pub.count() == 1 }), convey.ShouldBeTrue)
				u := pub.last()
				convey.So(u.Type, convey.ShouldEqual, types.UpdateType)
				convey.So(u.Event.ID, convey.ShouldEqual, "e1")
				convey.So(u.Standings, convey.ShouldResemble, reader.rows)
				convey.So(waitFor(func() bool { return w.Processed() == 1 }), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When reading standings fails", func() {
			reader.mu.Lock()
			reader.err = errors.New("store down")
			reader.mu.Unlock()
			q.Enqueue(ctx, model.Event{ID: "e2", Kind: model.EventPlayerRegistered})

			convey.Convey("Then nothing is published and the worker keeps running", func() {
				convey.So(waitFor(func() bool { return w.Processed() == 1 }), convey.ShouldBeTrue)
				convey.So(pub.count(), convey.ShouldEqual, 0)

				reader.mu.Lock()
				reader.err = nil
				reader.mu.Unlock()
				q.Enqueue(ctx, model.Event{ID: "e3", Kind: model.EventPlayerRegistered})
				convey.So(waitFor(func() bool { return pub.count() == 1 }), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the worker is shut down", func() {
			sctx, scancel := context.WithTimeout(context.Background(), time.Second)
			defer scancel()

			convey.Convey("Then it stops cleanly and a second shutdown is harmless", func() {
				convey.So(w.Shutdown(sctx), convey.ShouldBeNil)
				convey.So(w.Shutdown(sctx), convey.ShouldBeNil)
			})
		})
	})
}

func TestPool(t *testing.T) {
	convey.Convey("Given a pool with several publishers", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(32))
		reader := &mockReader{}
		good := &recorder{}
		bad := &recorder{err: errors.New("client gone")}
		var funcCalls int
		var mu sync.Mutex
		fn := worker.PublisherFunc(func(_ context.Context, _ types.Update) error {
			mu.Lock()
			funcCalls++
			mu.Unlock()
			return nil
		})

		pool := worker.NewPool(2, q, reader, []worker.Publisher{bad, good, fn})
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		pool.Start(ctx)

		convey.Convey("When events are enqueued and the pool shuts down", func() {
			for i := 0; i < 10; i++ {
				convey.So(q.Enqueue(ctx, model.Event{ID: "e", Kind: model.EventMatchReported}), convey.ShouldBeTrue)
			}
			sctx, scancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer scancel()
			err := pool.Shutdown(sctx)

			convey.Convey("Then queued events drain to every publisher despite failures", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(pool.Size(), convey.ShouldEqual, 2)
				convey.So(pool.Processed(), convey.ShouldEqual, 10)
				convey.So(good.count(), convey.ShouldEqual, 10)
				convey.So(bad.count(), convey.ShouldEqual, 10)
				mu.Lock()
				convey.So(funcCalls, convey.ShouldEqual, 10)
				mu.Unlock()
				convey.So(q.IsClosed(), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When created with a non-positive size", func() {
			p := worker.NewPool(0, queue.NewInMemoryQueue(), reader, nil)

			convey.Convey("Then it falls back to a single worker", func() {
				convey.So(p.Size(), convey.ShouldEqual, 1)
			})
		})
	})
}
