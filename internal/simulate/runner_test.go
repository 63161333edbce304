package simulate

import (
	"errors"
	"testing"

	"github.com/okian/swiss/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestCheckRecord(t *testing.T) {
	Convey("Given a match log for three players", t, func() {
		log := []model.Match{
			{ID: 1, WinnerID: 1, LoserID: 2},
			{ID: 2, WinnerID: 3, LoserID: 1},
			{ID: 3, WinnerID: 2, LoserID: 3},
		}

		Convey("Then rows that agree with the log pass", func() {
			So(checkRecord(model.Standing{PlayerID: 1, Wins: 1, Matches: 2}, log), ShouldBeNil)
			So(checkRecord(model.Standing{PlayerID: 4}, log), ShouldBeNil)
		})

		Convey("Then a row with the wrong number of losses is a mismatch", func() {
			err := checkRecord(model.Standing{PlayerID: 2, Wins: 2, Matches: 2}, log)
			So(errors.Is(err, ErrMismatch), ShouldBeTrue)
		})

		Convey("Then a row missing a match is a mismatch", func() {
			err := checkRecord(model.Standing{PlayerID: 3, Wins: 1, Matches: 1}, log)
			So(errors.Is(err, ErrMismatch), ShouldBeTrue)
		})
	})
}
