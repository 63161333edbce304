package standings_test

import (
	"testing"

	"github.com/okian/swiss/internal/domain/model"
	"github.com/okian/swiss/internal/domain/standings"
	. "github.com/smartystreets/goconvey/convey"
)

func players(names ...string) []model.Player {
	out := make([]model.Player, len(names))
	for i, n := range names {
		out[i] = model.Player{ID: int64(i + 1), Name: n}
	}
	return out
}

func TestCompute(t *testing.T) {
	Convey("Given registered players", t, func() {
		ps := players("Twilight Sparkle", "Fluttershy", "Applejack", "Pinkie Pie")

		Convey("When no matches were played", func() {
			rows := standings.Compute(ps, nil)

			Convey("Then every player appears once with zero records", func() {
				So(rows, ShouldHaveLength, 4)
				for i, r := range rows {
					So(r.Wins, ShouldEqual, 0)
					So(r.Matches, ShouldEqual, 0)
					So(r.Rank, ShouldEqual, i+1)
					So(r.PlayerID, ShouldEqual, int64(i+1))
				}
			})
		})

		Convey("When a match is reported", func() {
			rows := standings.Compute(ps, []model.Match{{ID: 1, WinnerID: 3, LoserID: 1}})

			Convey("Then the winner gains a win and a match and the loser only a match", func() {
				w, ok := standings.Find(rows, 3)
				So(ok, ShouldBeTrue)
				So(w.Wins, ShouldEqual, 1)
				So(w.Matches, ShouldEqual, 1)
				So(w.Rank, ShouldEqual, 1)

				l, ok := standings.Find(rows, 1)
				So(ok, ShouldBeTrue)
				So(l.Wins, ShouldEqual, 0)
				So(l.Matches, ShouldEqual, 1)
				So(l.Losses(), ShouldEqual, 1)
			})

			Convey("Then ties keep ascending id order", func() {
				So(rows[1].PlayerID, ShouldEqual, int64(1))
				So(rows[2].PlayerID, ShouldEqual, int64(2))
				So(rows[3].PlayerID, ShouldEqual, int64(4))
			})
		})

		Convey("When matches reference unknown players", func() {
			rows := standings.Compute(ps, []model.Match{{ID: 1, WinnerID: 99, LoserID: 2}})

			Convey("Then only the known side is counted", func() {
				r, _ := standings.Find(rows, 2)
				So(r.Matches, ShouldEqual, 1)
				So(rows, ShouldHaveLength, 4)
			})
		})

		Convey("When computed twice from the same data", func() {
			ms := []model.Match{{ID: 1, WinnerID: 2, LoserID: 1}, {ID: 2, WinnerID: 4, LoserID: 3}}
			a := standings.Compute(ps, ms)
			b := standings.Compute(ps, ms)

			Convey("Then the results are identical", func() {
				So(a, ShouldResemble, b)
			})
		})
	})
}

func TestTotals(t *testing.T) {
	Convey("Given standings after two matches", t, func() {
		rows := standings.Compute(players("a", "b", "c", "d"), []model.Match{
			{ID: 1, WinnerID: 1, LoserID: 2},
			{ID: 2, WinnerID: 3, LoserID: 4},
		})

		Convey("Then matches played is twice the wins", func() {
			wins, matches := standings.Totals(rows)
			So(wins, ShouldEqual, 2)
			So(matches, ShouldEqual, 4)
		})
	})
}

func TestLess(t *testing.T) {
	Convey("Given two standings", t, func() {
		a := model.Standing{PlayerID: 5, Wins: 2}
		b := model.Standing{PlayerID: 1, Wins: 1}

		Convey("Then more wins ranks first regardless of id", func() {
			So(standings.Less(a, b), ShouldBeTrue)
			So(standings.Less(b, a), ShouldBeFalse)
		})

		Convey("Then equal wins fall back to the lower id", func() {
			c := model.Standing{PlayerID: 2, Wins: 2}
			So(standings.Less(c, a), ShouldBeTrue)
		})
	})
}

func BenchmarkCompute(b *testing.B) {
	ps := make([]model.Player, 512)
	for i := range ps {
		ps[i] = model.Player{ID: int64(i + 1), Name: "p"}
	}
	ms := make([]model.Match, 0, 2048)
	for r := 0; r < 8; r++ {
		for i := 0; i+1 < len(ps); i += 2 {
			ms = append(ms, model.Match{ID: int64(len(ms) + 1), WinnerID: ps[i].ID, LoserID: ps[i+1].ID})
		}
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = standings.Compute(ps, ms)
	}
}
