// Package pairing produces Swiss-system round pairings from ranked standings.
package pairing

import (
	"fmt"

	"github.com/okian/swiss/internal/domain/model"
	"github.com/okian/swiss/internal/domain/standings"
)

// Swiss pairs consecutive entries of ranked: (1,2), (3,4), ... The higher ranked
// player of each pair is Player1 and tables follow rank order. ranked must
// already be in standings order. Rematches are not avoided.
func Swiss(ranked []model.Standing) ([]model.Pairing, error) {
	if len(ranked)%2 != 0 {
		return nil, fmt.Errorf("%w: %d players registered", ErrOddPlayerCount, len(ranked))
	}
	for i := 1; i < len(ranked); i++ {
		if standings.Less(ranked[i], ranked[i-1]) {
			return nil, fmt.Errorf("%w: player %d before %d", ErrUnranked, ranked[i-1].PlayerID, ranked[i].PlayerID)
		}
	}

	pairs := make([]model.Pairing, 0, len(ranked)/2)
	for i := 0; i+1 < len(ranked); i += 2 {
		a, b := ranked[i], ranked[i+1]
		pairs = append(pairs, model.Pairing{
			Table:       len(pairs) + 1,
			Player1ID:   a.PlayerID,
			Player1Name: a.Name,
			Player2ID:   b.PlayerID,
			Player2Name: b.Name,
		})
	}
	return pairs, nil
}

// Validate checks that pairs is exactly what Swiss would produce for ranked:
// every player appears once and each pair joins adjacent ranks in order.
func Validate(ranked []model.Standing, pairs []model.Pairing) error {
	if len(ranked)%2 != 0 {
		return fmt.Errorf("%w: %d players registered", ErrOddPlayerCount, len(ranked))
	}
	if len(pairs)*2 != len(ranked) {
		return fmt.Errorf("expected %d pairs, got %d", len(ranked)/2, len(pairs))
	}

	seen := make(map[int64]bool, len(ranked))
	for i, p := range pairs {
		a, b := ranked[2*i], ranked[2*i+1]
		if p.Player1ID != a.PlayerID || p.Player2ID != b.PlayerID {
			return fmt.Errorf("table %d pairs %d-%d, want %d-%d", p.Table, p.Player1ID, p.Player2ID, a.PlayerID, b.PlayerID)
		}
		for _, id := range []int64{p.Player1ID, p.Player2ID} {
			if seen[id] {
				return fmt.Errorf("player %d paired twice", id)
			}
			seen[id] = true
		}
	}
	return nil
}
