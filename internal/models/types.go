package models

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Card is one face of a matching pair. Both members of a pair share PairID
// and Label; the board index is the only handle used by flip actions.
type Card struct {
	PairID int    `json:"id"`
	Label  string `json:"label"`
}

// GameState is the mutable record of one in-progress or finished game.
type GameState struct {
	Player         string    `json:"player"`
	Pairs          int       `json:"pairs"`
	Deck           []Card    `json:"deck"`
	Revealed       []int     `json:"revealed"`
	Matched        []int     `json:"matched"`
	Moves          int       `json:"moves"`
	StartedAt      time.Time `json:"startedAt"`
	Seconds        int       `json:"seconds"`
	Completed      bool      `json:"completed"`
	Recorded       bool      `json:"recorded"`
	LastAccessTime time.Time `json:"lastAccessTime"`
}

// LeaderboardEntry is one completed game in a per-difficulty bucket.
type LeaderboardEntry struct {
	Name    string    `json:"name"`
	Moves   int       `json:"moves"`
	Seconds int       `json:"seconds"`
	Pairs   int       `json:"pairs"`
	Date    time.Time `json:"date"`
}

// ScoreRecord is one entry in a player's personal history.
type ScoreRecord struct {
	Date    time.Time `json:"date"`
	Pairs   int       `json:"pairs"`
	Moves   int       `json:"moves"`
	Seconds int       `json:"seconds"`
	Score   int       `json:"score"`
}

// LeaderboardStore loads and appends leaderboard entries for a pairs bucket.
// Implementations must keep concurrent appends from corrupting the bucket.
type LeaderboardStore interface {
	LoadLeaderboard(pairs int) ([]LeaderboardEntry, error)
	AppendLeaderboardEntry(entry LeaderboardEntry) error
}

// PlayerHistoryStore loads and appends per-player score records.
type PlayerHistoryStore interface {
	LoadPlayerHistory(name string) ([]ScoreRecord, error)
	AppendPlayerRecord(name string, record ScoreRecord) error
}

// RateLimiterEntry tracks a rate limiter for a client IP.
type RateLimiterEntry struct {
	Limiter    *rate.Limiter
	LastAccess time.Time
}

type App struct {
	LabelPool      []string
	GameSessions   map[string]*GameState
	SessionMutex   sync.RWMutex
	LimiterMap     map[string]*RateLimiterEntry
	LimiterMutex   sync.RWMutex
	Leaderboards   LeaderboardStore
	Players        PlayerHistoryStore
	IsProduction   bool
	StartTime      time.Time
	CookieMaxAge   time.Duration
	StaticCacheAge time.Duration
	RateLimitRPS   int
	RateLimitBurst int
	RateLimiterTTL time.Duration
	SessionTTL     time.Duration
}
