package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	workerpool "github.com/okian/swiss/internal/adapters/mq/worker"
	"github.com/okian/swiss/internal/adapters/repository"
	service "github.com/okian/swiss/internal/app"
	"github.com/okian/swiss/internal/domain/model"
	"github.com/okian/swiss/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

type capture struct {
	mu      sync.Mutex
	updates []types.Update
}

func (c *capture) Publish(_ context.Context, u types.Update) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updates = append(c.updates, u)
	return nil
}

func (c *capture) snapshot() []types.Update {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]types.Update, len(c.updates))
	copy(out, c.updates)
	return out
}

func (c *capture) waitFor(n int) []types.Update {
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if got := c.snapshot(); len(got) >= n {
			return got
		}
		time.Sleep(5 * time.Millisecond)
	}
	return c.snapshot()
}

func TestServiceIntegration(t *testing.T) {
	Convey("Given a started service over sqlite with a publisher", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		store, err := repository.OpenSQL(ctx, repository.DriverSQLite, ":memory:")
		So(err, ShouldBeNil)

		pub := &capture{}
		svc := service.New(
			service.WithStore(store),
			service.WithPublishers(pub),
			service.WithQueueSize(64),
		)
		So(svc.Start(ctx), ShouldBeNil)
		defer func() { _ = svc.Stop(context.Background()) }()

		Convey("When players register and a match is reported", func() {
			a, err := svc.RegisterPlayer(ctx, "Princess Celestia")
			So(err, ShouldBeNil)
			b, err := svc.RegisterPlayer(ctx, "Princess Luna")
			So(err, ShouldBeNil)
			_, err = svc.ReportMatch(ctx, b.ID, a.ID)
			So(err, ShouldBeNil)

			Convey("Then one update per change is published in order", func() {
				got := pub.waitFor(3)
				So(got, ShouldHaveLength, 3)
				So(got[0].Event.Kind, ShouldEqual, model.EventPlayerRegistered)
				So(got[0].Event.Player.Name, ShouldEqual, "Princess Celestia")
				So(got[1].Event.Kind, ShouldEqual, model.EventPlayerRegistered)
				So(got[2].Event.Kind, ShouldEqual, model.EventMatchReported)
				So(got[2].Event.Match.WinnerID, ShouldEqual, b.ID)
				So(got[2].Event.ID, ShouldNotBeEmpty)
				So(got[2].Type, ShouldEqual, types.UpdateType)

				last := got[2].Standings
				So(last, ShouldHaveLength, 2)
				So(last[0].PlayerID, ShouldEqual, b.ID)
				So(last[0].Wins, ShouldEqual, 1)
			})
		})

		Convey("When the service is stopped with events pending", func() {
			for i := 0; i < 10; i++ {
				_, err := svc.RegisterPlayer(ctx, "Player")
				So(err, ShouldBeNil)
			}
			So(svc.Stop(ctx), ShouldBeNil)

			Convey("Then every pending event was published", func() {
				So(pub.snapshot(), ShouldHaveLength, 10)
			})
		})
	})
}

func TestServicePublisherFunc(t *testing.T) {
	Convey("Given a service with a function publisher", t, func() {
		ctx := context.Background()
		kinds := make(chan model.EventKind, 8)
		svc := service.New(
			service.WithStore(repository.NewMemoryStore()),
			service.WithPublishers(workerpool.PublisherFunc(func(_ context.Context, u types.Update) error {
				kinds <- u.Event.Kind
				return nil
			})),
		)
		So(svc.Start(ctx), ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()

		Convey("When the tournament is reset", func() {
			So(svc.ResetMatches(ctx), ShouldBeNil)
			So(svc.ResetPlayers(ctx), ShouldBeNil)

			Convey("Then both resets are announced", func() {
				var got []model.EventKind
				timeout := time.After(3 * time.Second)
				for len(got) < 2 {
					select {
					case k := <-kinds:
						got = append(got, k)
					case <-timeout:
						So(got, ShouldHaveLength, 2)
						return
					}
				}
				So(got, ShouldResemble, []model.EventKind{model.EventMatchesReset, model.EventPlayersReset})
			})
		})
	})
}
