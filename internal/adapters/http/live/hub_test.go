package live_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/okian/swiss/internal/adapters/http/live"
	"github.com/okian/swiss/internal/domain/model"
	"github.com/okian/swiss/internal/domain/types"
	"github.com/okian/swiss/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init()
}

func dial(srv *httptest.Server) (*websocket.Conn, error) {
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	return conn, err
}

func readUpdate(conn *websocket.Conn) (types.Update, error) {
	var u types.Update
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		return u, err
	}
	err = json.Unmarshal(data, &u)
	return u, err
}

func waitClients(h *live.Hub, n int) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if h.ClientCount() == n {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}

func TestHub(t *testing.T) {
	Convey("Given a hub that greets clients with current standings", t, func() {
		rows := []model.Standing{{Rank: 1, PlayerID: 1, Name: "Applejack"}}
		hub := live.NewHub(live.WithInitial(func(context.Context) (types.Update, error) {
			return types.Update{Type: types.UpdateType, Standings: rows}, nil
		}))
		srv := httptest.NewServer(hub)
		Reset(srv.Close)

		conn, err := dial(srv)
		So(err, ShouldBeNil)
		Reset(func() { _ = conn.Close() })

		Convey("Then the client first receives the greeting", func() {
			u, err := readUpdate(conn)
			So(err, ShouldBeNil)
			So(u.Type, ShouldEqual, types.UpdateType)
			So(u.Standings, ShouldResemble, rows)
			So(waitClients(hub, 1), ShouldBeTrue)
		})

		Convey("When an update is published", func() {
			_, err := readUpdate(conn)
			So(err, ShouldBeNil)
			So(waitClients(hub, 1), ShouldBeTrue)

			pub := types.Update{
				Type:      types.UpdateType,
				Event:     model.Event{ID: "evt-1", Kind: model.EventMatchReported},
				Standings: []model.Standing{{Rank: 1, PlayerID: 2, Name: "Rarity", Wins: 1, Matches: 1}},
			}
			So(hub.Publish(context.Background(), pub), ShouldBeNil)

			Convey("Then the client receives it", func() {
				u, err := readUpdate(conn)
				So(err, ShouldBeNil)
				So(u.Event.ID, ShouldEqual, "evt-1")
				So(u.Standings[0].Name, ShouldEqual, "Rarity")
			})
		})

		Convey("When the client disconnects", func() {
			So(waitClients(hub, 1), ShouldBeTrue)
			_ = conn.Close()

			Convey("Then the hub forgets it", func() {
				So(waitClients(hub, 0), ShouldBeTrue)
			})
		})

		Convey("When the hub is closed", func() {
			So(waitClients(hub, 1), ShouldBeTrue)
			hub.Close()

			Convey("Then clients are disconnected and new ones refused", func() {
				So(hub.ClientCount(), ShouldEqual, 0)
				var readErr error
				for readErr == nil {
					_, readErr = readUpdate(conn)
				}
				So(readErr, ShouldNotBeNil)

				late, err := dial(srv)
				So(err, ShouldBeNil)
				defer late.Close()
				_, err = readUpdate(late)
				// the greeting may arrive before the close frame
				if err == nil {
					_, err = readUpdate(late)
				}
				So(err, ShouldNotBeNil)
			})
		})
	})

	Convey("Given a hub whose greeting fails", t, func() {
		hub := live.NewHub(live.WithInitial(func(context.Context) (types.Update, error) {
			return types.Update{}, errors.New("store down")
		}))
		srv := httptest.NewServer(hub)
		Reset(srv.Close)

		Convey("Then clients still connect and get later updates", func() {
			conn, err := dial(srv)
			So(err, ShouldBeNil)
			defer conn.Close()
			So(waitClients(hub, 1), ShouldBeTrue)
			So(hub.Publish(context.Background(), types.Update{Type: types.UpdateType}), ShouldBeNil)
			u, err := readUpdate(conn)
			So(err, ShouldBeNil)
			So(u.Type, ShouldEqual, types.UpdateType)
		})
	})
}
