package game

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/samber/lo"
	constants "memorludo/internal/constants"
	models "memorludo/internal/models"
	util "memorludo/internal/util"
)

// StartGame builds a fresh game for the session, overwriting any previous
// state. A blank name becomes the default placeholder. On a deck-construction
// error no state is touched and the error is surfaced to the caller.
func StartGame(app *models.App, ctx context.Context, sessionID, name string, pairs int) (*models.GameState, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = constants.DefaultPlayer
	}

	deck, err := CreateDeck(app, ctx, pairs)
	if err != nil {
		return nil, err
	}

	game := &models.GameState{
		Player:         name,
		Pairs:          pairs,
		Deck:           deck,
		Revealed:       []int{},
		Matched:        []int{},
		Moves:          0,
		StartedAt:      time.Now(),
		LastAccessTime: time.Now(),
	}

	app.SessionMutex.Lock()
	app.GameSessions[sessionID] = game
	app.SessionMutex.Unlock()

	util.LogInfo("New game started for session %s: player=%s pairs=%d", sessionID, name, pairs)
	return game, nil
}

// Flip reveals the card at index. Out-of-bounds, already-matched and
// already-revealed indices are absorbed as no-ops so a stale client can
// simply re-fetch the board. The second reveal of an attempt counts a move
// and resolves it; a matching pair moves straight into Matched.
func Flip(app *models.App, ctx context.Context, game *models.GameState, index int) {
	reqID, _ := ctx.Value(constants.RequestIDKey).(string)

	if index < 0 || index >= len(game.Deck) {
		if reqID != "" {
			util.LogWarn("[request_id=%v] Ignored flip with out-of-bounds index %d", reqID, index)
		}
		return
	}
	if slices.Contains(game.Matched, index) || slices.Contains(game.Revealed, index) {
		return
	}

	game.Revealed = append(game.Revealed, index)
	game.LastAccessTime = time.Now()

	switch {
	case len(game.Revealed) == 2:
		game.Moves++
		a, b := game.Revealed[0], game.Revealed[1]
		if game.Deck[a].PairID == game.Deck[b].PairID {
			game.Matched = append(game.Matched, a, b)
			game.Revealed = []int{}
			if reqID != "" {
				util.LogInfo("[request_id=%v] Matched pair %d (%d/%d cards)", reqID, game.Deck[a].PairID, len(game.Matched), len(game.Deck))
			}
		}
	case len(game.Revealed) > 2:
		// A third flip arrived while a mismatched pair was still showing.
		// Keep only the newest card so the attempt restarts cleanly.
		last := game.Revealed[len(game.Revealed)-1]
		game.Revealed = []int{last}
	}

	if len(game.Matched) == len(game.Deck) {
		game.Completed = true
	}
}

// Acknowledge hides a shown mismatch so the next flip starts a new attempt.
// Safe to call at any time.
func Acknowledge(game *models.GameState) {
	game.Revealed = []int{}
	game.LastAccessTime = time.Now()
}

// IsComplete reports whether every card has been matched.
func IsComplete(game *models.GameState) bool {
	return len(game.Deck) > 0 && len(game.Matched) == len(game.Deck)
}

// ElapsedSeconds returns whole seconds since the game started, floored at
// zero to guard against clock skew.
func ElapsedSeconds(game *models.GameState, now time.Time) int {
	seconds := int(now.Sub(game.StartedAt).Seconds())
	if seconds < 0 {
		return 0
	}
	return seconds
}

// CalculateScore rewards near-optimal move counts (one discovery move per
// pair) and mildly penalizes slow play.
func CalculateScore(moves, pairs, seconds int) int {
	penalty := 5*max(0, moves-pairs) + seconds/5
	return max(0, 1000-penalty)
}

// CardView is one board cell with its render status resolved.
type CardView struct {
	Index    int
	Label    string
	Revealed bool
	Matched  bool
}

// BoardView resolves the deck into per-card revealed/matched statuses for
// the presentation layer.
func BoardView(game *models.GameState) []CardView {
	return lo.Map(game.Deck, func(card models.Card, i int) CardView {
		return CardView{
			Index:    i,
			Label:    card.Label,
			Revealed: slices.Contains(game.Revealed, i),
			Matched:  slices.Contains(game.Matched, i),
		}
	})
}
