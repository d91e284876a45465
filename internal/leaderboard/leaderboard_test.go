package leaderboard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	models "memorludo/internal/models"
)

func entry(name string, moves, seconds int) models.LeaderboardEntry {
	return models.LeaderboardEntry{
		Name:    name,
		Moves:   moves,
		Seconds: seconds,
		Pairs:   6,
		Date:    time.Now(),
	}
}

func TestRankingByMovesThenSeconds(t *testing.T) {
	b := New(10)
	b.Add(entry("Alice", 3, 40))
	b.Add(entry("Bob", 3, 30))
	b.Add(entry("Carol", 4, 10))

	top := b.Top()
	assert.Len(t, top, 3)
	assert.Equal(t, "Bob", top[0].Name)
	assert.Equal(t, "Alice", top[1].Name)
	assert.Equal(t, "Carol", top[2].Name)
}

func TestTiesBrokenByInsertionOrder(t *testing.T) {
	b := New(10)
	b.Add(entry("First", 3, 30))
	b.Add(entry("Second", 3, 30))

	top := b.Top()
	assert.Equal(t, "First", top[0].Name)
	assert.Equal(t, "Second", top[1].Name)
}

func TestTrimBeyondLimit(t *testing.T) {
	b := New(3)
	for i := 10; i > 0; i-- {
		b.Add(entry("Player", i, 0))
	}

	top := b.Top()
	assert.Len(t, top, 3)
	assert.Equal(t, 1, top[0].Moves)
	assert.Equal(t, 2, top[1].Moves)
	assert.Equal(t, 3, top[2].Moves)
}

func TestSamePlayerKeepsMultipleRows(t *testing.T) {
	b := New(10)
	b.Add(entry("Ann", 5, 20))
	b.Add(entry("Ann", 3, 10))

	top := b.Top()
	assert.Len(t, top, 2)
	assert.Equal(t, 3, top[0].Moves)
	assert.Equal(t, 5, top[1].Moves)
}

func TestFromEntriesPreservesStoredOrderForTies(t *testing.T) {
	entries := []models.LeaderboardEntry{
		entry("Stored1", 4, 15),
		entry("Stored2", 4, 15),
		entry("Stored3", 2, 5),
	}
	top := FromEntries(entries, 10).Top()
	assert.Equal(t, "Stored3", top[0].Name)
	assert.Equal(t, "Stored1", top[1].Name)
	assert.Equal(t, "Stored2", top[2].Name)
}

func TestZeroLimitFallsBackToDefault(t *testing.T) {
	b := New(0)
	for i := 0; i < DefaultLimit+5; i++ {
		b.Add(entry("Player", i+1, 0))
	}
	assert.Len(t, b.Top(), DefaultLimit)
}
