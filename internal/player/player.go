// Package player answers queries over a player's score history. The history
// itself is append-only and uncapped; storage owns persistence.
package player

import (
	"github.com/samber/lo"
	models "memorludo/internal/models"
)

// History returns the records newest-first without mutating the input.
func History(records []models.ScoreRecord) []models.ScoreRecord {
	out := make([]models.ScoreRecord, len(records))
	copy(out, records)
	lo.Reverse(out)
	return out
}

// BestMoves returns the minimum move count across all records, or ok=false
// when the player has none.
func BestMoves(records []models.ScoreRecord) (int, bool) {
	if len(records) == 0 {
		return 0, false
	}
	best := lo.MinBy(records, func(a, b models.ScoreRecord) bool {
		return a.Moves < b.Moves
	})
	return best.Moves, true
}

// BestScore returns the highest derived score, or ok=false when the player
// has no records.
func BestScore(records []models.ScoreRecord) (int, bool) {
	if len(records) == 0 {
		return 0, false
	}
	best := lo.MaxBy(records, func(a, b models.ScoreRecord) bool {
		return a.Score > b.Score
	})
	return best.Score, true
}
