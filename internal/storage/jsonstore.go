// Package storage provides the persistence backends behind the
// LeaderboardStore and PlayerHistoryStore interfaces: flat JSON files or a
// relational database, selected by configuration. The core never sees which
// one is in use.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"sync"

	models "memorludo/internal/models"
)

var playerNamePattern = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// JSONStore persists leaderboards and player histories as flat JSON files:
// one file per pairs bucket and one per player. Writes go through a mutex
// and an atomic temp-file rename so concurrent completions cannot corrupt
// a file.
type JSONStore struct {
	leaderboardDir string
	playersDir     string
	mu             sync.Mutex
}

func NewJSONStore(dataDir string) (*JSONStore, error) {
	s := &JSONStore{
		leaderboardDir: filepath.Join(dataDir, "leaderboards"),
		playersDir:     filepath.Join(dataDir, "players"),
	}
	if err := os.MkdirAll(s.leaderboardDir, 0o755); err != nil {
		return nil, fmt.Errorf("create leaderboard dir: %w", err)
	}
	if err := os.MkdirAll(s.playersDir, 0o755); err != nil {
		return nil, fmt.Errorf("create players dir: %w", err)
	}
	return s, nil
}

func (s *JSONStore) leaderboardFile(pairs int) string {
	return filepath.Join(s.leaderboardDir, strconv.Itoa(pairs)+".json")
}

func (s *JSONStore) playerFile(name string) string {
	sanitized := playerNamePattern.ReplaceAllString(name, "_")
	if sanitized == "" {
		sanitized = "player"
	}
	return filepath.Join(s.playersDir, sanitized+".json")
}

// LoadLeaderboard returns every stored entry for the bucket in append order.
// A missing file is an empty bucket, not an error.
func (s *JSONStore) LoadLeaderboard(pairs int) ([]models.LeaderboardEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readLeaderboard(pairs)
}

func (s *JSONStore) readLeaderboard(pairs int) ([]models.LeaderboardEntry, error) {
	data, err := os.ReadFile(s.leaderboardFile(pairs))
	if os.IsNotExist(err) {
		return []models.LeaderboardEntry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read leaderboard %d: %w", pairs, err)
	}
	var entries []models.LeaderboardEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse leaderboard %d: %w", pairs, err)
	}
	return entries, nil
}

func (s *JSONStore) AppendLeaderboardEntry(entry models.LeaderboardEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.readLeaderboard(entry.Pairs)
	if err != nil {
		return err
	}
	entries = append(entries, entry)
	return writeJSONAtomic(s.leaderboardFile(entry.Pairs), entries)
}

type playerFilePayload struct {
	Name   string               `json:"name"`
	Scores []models.ScoreRecord `json:"scores"`
}

// LoadPlayerHistory returns the player's records in append order. An unknown
// player has an empty history.
func (s *JSONStore) LoadPlayerHistory(name string) ([]models.ScoreRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := s.readPlayer(name)
	if err != nil {
		return nil, err
	}
	return payload.Scores, nil
}

func (s *JSONStore) readPlayer(name string) (playerFilePayload, error) {
	payload := playerFilePayload{Name: name, Scores: []models.ScoreRecord{}}
	data, err := os.ReadFile(s.playerFile(name))
	if os.IsNotExist(err) {
		return payload, nil
	}
	if err != nil {
		return payload, fmt.Errorf("read player %s: %w", name, err)
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return payload, fmt.Errorf("parse player %s: %w", name, err)
	}
	return payload, nil
}

func (s *JSONStore) AppendPlayerRecord(name string, record models.ScoreRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := s.readPlayer(name)
	if err != nil {
		return err
	}
	payload.Name = name
	payload.Scores = append(payload.Scores, record)
	return writeJSONAtomic(s.playerFile(name), payload)
}

// writeJSONAtomic writes to a temp file in the target directory and renames
// it over the destination so readers never observe a partial file.
func writeJSONAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", path, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
