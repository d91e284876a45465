package storage

import (
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	models "memorludo/internal/models"
)

// LeaderboardRow is the relational shape of a leaderboard entry.
type LeaderboardRow struct {
	ID      uint   `gorm:"primarykey"`
	Name    string `gorm:"size:64;index"`
	Moves   int
	Seconds int
	Pairs   int `gorm:"index"`
	Date    time.Time
}

func (LeaderboardRow) TableName() string { return "leaderboard_entries" }

// PlayerScoreRow is the relational shape of a player history record.
type PlayerScoreRow struct {
	ID      uint   `gorm:"primarykey"`
	Name    string `gorm:"size:64;index"`
	Pairs   int
	Moves   int
	Seconds int
	Score   int
	Date    time.Time
}

func (PlayerScoreRow) TableName() string { return "player_scores" }

// GormStore backs both stores with a relational database. Single-row inserts
// ride on the engine's transactional guarantees, which is all the core asks
// of concurrent writers.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens a sqlite database at dsn and migrates the schema.
func NewGormStore(dsn string) (*GormStore, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return NewGormStoreWithDB(db)
}

// NewGormStoreWithDB wraps an existing connection, migrating the schema.
func NewGormStoreWithDB(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&LeaderboardRow{}, &PlayerScoreRow{}); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	return &GormStore{db: db}, nil
}

// Close releases the underlying connection.
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// LoadLeaderboard returns the bucket's rows ranked by moves, then seconds,
// then insertion order.
func (s *GormStore) LoadLeaderboard(pairs int) ([]models.LeaderboardEntry, error) {
	var rows []LeaderboardRow
	err := s.db.
		Where("pairs = ?", pairs).
		Order("moves asc").Order("seconds asc").Order("id asc").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("query leaderboard %d: %w", pairs, err)
	}

	entries := make([]models.LeaderboardEntry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, models.LeaderboardEntry{
			Name:    r.Name,
			Moves:   r.Moves,
			Seconds: r.Seconds,
			Pairs:   r.Pairs,
			Date:    r.Date,
		})
	}
	return entries, nil
}

func (s *GormStore) AppendLeaderboardEntry(entry models.LeaderboardEntry) error {
	row := LeaderboardRow{
		Name:    entry.Name,
		Moves:   entry.Moves,
		Seconds: entry.Seconds,
		Pairs:   entry.Pairs,
		Date:    entry.Date,
	}
	if err := s.db.Create(&row).Error; err != nil {
		return fmt.Errorf("insert leaderboard entry: %w", err)
	}
	return nil
}

// LoadPlayerHistory returns the player's records in append order.
func (s *GormStore) LoadPlayerHistory(name string) ([]models.ScoreRecord, error) {
	var rows []PlayerScoreRow
	err := s.db.
		Where("name = ?", name).
		Order("id asc").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("query player %s: %w", name, err)
	}

	records := make([]models.ScoreRecord, 0, len(rows))
	for _, r := range rows {
		records = append(records, models.ScoreRecord{
			Date:    r.Date,
			Pairs:   r.Pairs,
			Moves:   r.Moves,
			Seconds: r.Seconds,
			Score:   r.Score,
		})
	}
	return records, nil
}

func (s *GormStore) AppendPlayerRecord(name string, record models.ScoreRecord) error {
	row := PlayerScoreRow{
		Name:    name,
		Pairs:   record.Pairs,
		Moves:   record.Moves,
		Seconds: record.Seconds,
		Score:   record.Score,
		Date:    record.Date,
	}
	if err := s.db.Create(&row).Error; err != nil {
		return fmt.Errorf("insert player record: %w", err)
	}
	return nil
}
