// Package leaderboard ranks completed games per difficulty bucket.
//
// The board is a raw log: every completed game is a row and the same player
// can hold several ranks. Ordering is moves ascending, then seconds
// ascending, with remaining ties broken by insertion order.
package leaderboard

import (
	"sort"

	models "memorludo/internal/models"
)

const DefaultLimit = 10

// Board is a bounded, ordered view of entries for one pairs bucket.
type Board struct {
	limit   int
	entries []models.LeaderboardEntry
}

func New(limit int) *Board {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Board{limit: limit}
}

// FromEntries builds a board from stored rows, preserving their stored order
// as the insertion order.
func FromEntries(entries []models.LeaderboardEntry, limit int) *Board {
	b := New(limit)
	for _, e := range entries {
		b.Add(e)
	}
	return b
}

// Add inserts an entry and re-ranks, trimming beyond the limit.
func (b *Board) Add(entry models.LeaderboardEntry) {
	b.entries = append(b.entries, entry)
	sort.SliceStable(b.entries, func(i, j int) bool {
		if b.entries[i].Moves != b.entries[j].Moves {
			return b.entries[i].Moves < b.entries[j].Moves
		}
		return b.entries[i].Seconds < b.entries[j].Seconds
	})
	if len(b.entries) > b.limit {
		b.entries = b.entries[:b.limit]
	}
}

// Top returns the ranked entries, best first.
func (b *Board) Top() []models.LeaderboardEntry {
	return b.entries
}
