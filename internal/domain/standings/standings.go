// Package standings derives the ranking view from raw players and matches.
//
// The order is wins descending with ascending player id as the tie-break, so
// the same data always produces the same ranking and therefore the same
// pairings.
package standings

import (
	"sort"

	"github.com/okian/swiss/internal/domain/model"
)

// Compute returns exactly one Standing per player, including players that have
// not played yet, ordered and ranked. Matches that reference unknown players
// are ignored.
func Compute(players []model.Player, matches []model.Match) []model.Standing {
	rows := make([]model.Standing, len(players))
	index := make(map[int64]int, len(players))
	for i, p := range players {
		rows[i] = model.Standing{PlayerID: p.ID, Name: p.Name}
		index[p.ID] = i
	}

	for _, m := range matches {
		if i, ok := index[m.WinnerID]; ok {
			rows[i].Wins++
			rows[i].Matches++
		}
		if i, ok := index[m.LoserID]; ok {
			rows[i].Matches++
		}
	}

	Sort(rows)
	return rows
}

// Less reports whether a ranks ahead of b.
func Less(a, b model.Standing) bool {
	if a.Wins != b.Wins {
		return a.Wins > b.Wins
	}
	return a.PlayerID < b.PlayerID
}

// Sort orders rows in place and assigns 1-based ranks.
func Sort(rows []model.Standing) {
	sort.SliceStable(rows, func(i, j int) bool { return Less(rows[i], rows[j]) })
	Rank(rows)
}

// Rank assigns 1-based ranks to rows that are already ordered.
func Rank(rows []model.Standing) {
	for i := range rows {
		rows[i].Rank = i + 1
	}
}

// Find returns the standing of playerID.
func Find(rows []model.Standing, playerID int64) (model.Standing, bool) {
	for _, r := range rows {
		if r.PlayerID == playerID {
			return r, true
		}
	}
	return model.Standing{}, false
}

// Totals returns the sum of wins and the sum of matches played. For a
// consistent ranking matches == 2*wins.
func Totals(rows []model.Standing) (wins, matches int) {
	for _, r := range rows {
		wins += r.Wins
		matches += r.Matches
	}
	return wins, matches
}
