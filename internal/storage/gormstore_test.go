package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	models "memorludo/internal/models"
)

func newTestGormStore(t *testing.T) *GormStore {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	store, err := NewGormStoreWithDB(db)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestGormStoreLeaderboardRankedQuery(t *testing.T) {
	store := newTestGormStore(t)

	require.NoError(t, store.AppendLeaderboardEntry(models.LeaderboardEntry{Name: "Alice", Moves: 3, Seconds: 40, Pairs: 6, Date: time.Now()}))
	require.NoError(t, store.AppendLeaderboardEntry(models.LeaderboardEntry{Name: "Bob", Moves: 3, Seconds: 30, Pairs: 6, Date: time.Now()}))
	require.NoError(t, store.AppendLeaderboardEntry(models.LeaderboardEntry{Name: "Carol", Moves: 4, Seconds: 10, Pairs: 6, Date: time.Now()}))

	entries, err := store.LoadLeaderboard(6)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "Bob", entries[0].Name)
	assert.Equal(t, "Alice", entries[1].Name)
	assert.Equal(t, "Carol", entries[2].Name)
}

func TestGormStoreTiesKeepInsertionOrder(t *testing.T) {
	store := newTestGormStore(t)

	require.NoError(t, store.AppendLeaderboardEntry(models.LeaderboardEntry{Name: "First", Moves: 3, Seconds: 30, Pairs: 6, Date: time.Now()}))
	require.NoError(t, store.AppendLeaderboardEntry(models.LeaderboardEntry{Name: "Second", Moves: 3, Seconds: 30, Pairs: 6, Date: time.Now()}))

	entries, err := store.LoadLeaderboard(6)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "First", entries[0].Name)
	assert.Equal(t, "Second", entries[1].Name)
}

func TestGormStoreBucketsAreIsolated(t *testing.T) {
	store := newTestGormStore(t)

	require.NoError(t, store.AppendLeaderboardEntry(models.LeaderboardEntry{Name: "Ann", Moves: 3, Seconds: 10, Pairs: 6, Date: time.Now()}))
	require.NoError(t, store.AppendLeaderboardEntry(models.LeaderboardEntry{Name: "Carol", Moves: 2, Seconds: 5, Pairs: 8, Date: time.Now()}))

	entries, err := store.LoadLeaderboard(6)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Ann", entries[0].Name)
}

func TestGormStorePlayerHistory(t *testing.T) {
	store := newTestGormStore(t)

	records, err := store.LoadPlayerHistory("Nobody")
	require.NoError(t, err)
	assert.Empty(t, records)

	require.NoError(t, store.AppendPlayerRecord("Ann", models.ScoreRecord{Pairs: 3, Moves: 3, Seconds: 12, Score: 997, Date: time.Now()}))
	require.NoError(t, store.AppendPlayerRecord("Ann", models.ScoreRecord{Pairs: 6, Moves: 9, Seconds: 60, Score: 973, Date: time.Now()}))
	require.NoError(t, store.AppendPlayerRecord("Bob", models.ScoreRecord{Pairs: 6, Moves: 12, Seconds: 90, Score: 952, Date: time.Now()}))

	records, err = store.LoadPlayerHistory("Ann")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 3, records[0].Pairs)
	assert.Equal(t, 6, records[1].Pairs)
}
