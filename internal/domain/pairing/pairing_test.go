package pairing_test

import (
	"errors"
	"testing"

	"github.com/okian/swiss/internal/domain/model"
	"github.com/okian/swiss/internal/domain/pairing"
	"github.com/okian/swiss/internal/domain/standings"
	. "github.com/smartystreets/goconvey/convey"
)

var names = []string{
	"Twilight Sparkle", "Fluttershy", "Applejack", "Pinkie Pie",
	"Rarity", "Rainbow Dash", "Princess Celestia", "Princess Luna",
}

func roster(n int) []model.Player {
	ps := make([]model.Player, n)
	for i := 0; i < n; i++ {
		ps[i] = model.Player{ID: int64(i + 1), Name: names[i%len(names)]}
	}
	return ps
}

func TestSwiss(t *testing.T) {
	Convey("Given eight registered players", t, func() {
		ps := roster(8)

		Convey("When nobody has played", func() {
			pairs, err := pairing.Swiss(standings.Compute(ps, nil))

			Convey("Then four pairs cover every player exactly once", func() {
				So(err, ShouldBeNil)
				So(pairs, ShouldHaveLength, 4)
				seen := map[int64]int{}
				for _, p := range pairs {
					seen[p.Player1ID]++
					seen[p.Player2ID]++
				}
				So(seen, ShouldHaveLength, 8)
				for _, c := range seen {
					So(c, ShouldEqual, 1)
				}
			})

			Convey("Then tables follow rank order", func() {
				So(pairs[0], ShouldResemble, model.Pairing{
					Table: 1, Player1ID: 1, Player1Name: "Twilight Sparkle", Player2ID: 2, Player2Name: "Fluttershy",
				})
				So(pairs[3].Table, ShouldEqual, 4)
				So(pairs[3].Player1ID, ShouldEqual, int64(7))
				So(pairs[3].Player2ID, ShouldEqual, int64(8))
			})
		})

		Convey("When four disjoint matches split the field into two tiers", func() {
			matches := []model.Match{
				{ID: 1, WinnerID: 1, LoserID: 2},
				{ID: 2, WinnerID: 3, LoserID: 4},
				{ID: 3, WinnerID: 5, LoserID: 6},
				{ID: 4, WinnerID: 7, LoserID: 8},
			}
			pairs, err := pairing.Swiss(standings.Compute(ps, matches))

			Convey("Then no pair crosses tiers", func() {
				So(err, ShouldBeNil)
				winners := map[int64]bool{1: true, 3: true, 5: true, 7: true}
				for _, p := range pairs {
					So(winners[p.Player1ID], ShouldEqual, winners[p.Player2ID])
				}
				So(pairs[0].Player1ID, ShouldEqual, int64(1))
				So(pairs[0].Player2ID, ShouldEqual, int64(3))
				So(pairs[2].Player1ID, ShouldEqual, int64(2))
				So(pairs[2].Player2ID, ShouldEqual, int64(4))
			})
		})

		Convey("When pairing twice without changes", func() {
			ranked := standings.Compute(ps, []model.Match{{ID: 1, WinnerID: 8, LoserID: 1}})
			a, errA := pairing.Swiss(ranked)
			b, errB := pairing.Swiss(ranked)

			Convey("Then the result is identical", func() {
				So(errA, ShouldBeNil)
				So(errB, ShouldBeNil)
				So(a, ShouldResemble, b)
			})
		})
	})

	Convey("Given an odd number of players", t, func() {
		_, err := pairing.Swiss(standings.Compute(roster(3), nil))

		Convey("Then pairing fails with ErrOddPlayerCount", func() {
			So(errors.Is(err, pairing.ErrOddPlayerCount), ShouldBeTrue)
		})
	})

	Convey("Given no players", t, func() {
		pairs, err := pairing.Swiss(nil)

		Convey("Then there is nothing to pair", func() {
			So(err, ShouldBeNil)
			So(pairs, ShouldBeEmpty)
		})
	})

	Convey("Given standings that are not ranked", t, func() {
		_, err := pairing.Swiss([]model.Standing{
			{PlayerID: 1, Wins: 0}, {PlayerID: 2, Wins: 1},
		})

		Convey("Then pairing refuses them", func() {
			So(errors.Is(err, pairing.ErrUnranked), ShouldBeTrue)
		})
	})
}

func TestValidate(t *testing.T) {
	Convey("Given ranked standings and their pairings", t, func() {
		ranked := standings.Compute(roster(4), []model.Match{{ID: 1, WinnerID: 4, LoserID: 3}})
		pairs, err := pairing.Swiss(ranked)
		So(err, ShouldBeNil)

		Convey("Then the generated pairs validate", func() {
			So(pairing.Validate(ranked, pairs), ShouldBeNil)
		})

		Convey("Then swapped opponents are rejected", func() {
			pairs[0].Player2ID, pairs[1].Player2ID = pairs[1].Player2ID, pairs[0].Player2ID
			So(pairing.Validate(ranked, pairs), ShouldNotBeNil)
		})

		Convey("Then a missing pair is rejected", func() {
			So(pairing.Validate(ranked, pairs[:1]), ShouldNotBeNil)
		})
	})
}
