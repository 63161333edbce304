// Package model contains domain models passed between layers.
package model

// Player is a registered tournament participant. ID is assigned by the store.
type Player struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Match is one reported result. Matches are never updated, only wiped.
type Match struct {
	ID       int64 `json:"id"`
	WinnerID int64 `json:"winner_id"`
	LoserID  int64 `json:"loser_id"`
}

// Involves reports whether the player took part in the match.
func (m Match) Involves(playerID int64) bool {
	return m.WinnerID == playerID || m.LoserID == playerID
}

// Standing is a player's derived record. Rank is the 1-based position in the
// standings order (wins desc, id asc).
type Standing struct {
	Rank     int    `json:"rank"`
	PlayerID int64  `json:"id"`
	Name     string `json:"name"`
	Wins     int    `json:"wins"`
	Matches  int    `json:"matches"`
}

// Losses is the number of matches the player lost.
func (s Standing) Losses() int {
	return s.Matches - s.Wins
}

// Pairing is one table of the next round. Player1 is the higher ranked of the two.
type Pairing struct {
	Table       int    `json:"table"`
	Player1ID   int64  `json:"id1"`
	Player1Name string `json:"name1"`
	Player2ID   int64  `json:"id2"`
	Player2Name string `json:"name2"`
}
