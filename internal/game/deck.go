package game

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"

	constants "memorludo/internal/constants"
	models "memorludo/internal/models"
	util "memorludo/internal/util"
)

// ErrInvalidPairs is returned when a requested pair count is outside the
// [MinPairs, MaxPairs] range. It is the only validated start-time error.
var ErrInvalidPairs = errors.New(constants.ErrorCodeInvalidPairs)

// DefaultLabelPool holds the card faces a deck samples from. Its size must be
// at least MaxPairs, which main verifies at startup.
var DefaultLabelPool = []string{
	"🍎", "🍌", "🍇", "🍓", "🍍", "🥝", "🍉", "🍑", "🍒", "🥥", "🍋", "🍐",
	"🐶", "🐱", "🐭", "🐹", "🐰", "🦊", "🐻", "🐼", "🐨", "🐯", "🦁", "🐮",
	"⚽", "🏀", "🏈", "⚾", "🎾", "🏐", "🎱", "🏓", "🏸", "🥎", "🥏", "🏒",
}

// CreateDeck builds a shuffled deck of 2*pairs cards. Each of the pairs
// distinct labels, sampled without replacement from the app's label pool,
// appears on exactly two cards sharing a fresh pair id.
func CreateDeck(app *models.App, ctx context.Context, pairs int) ([]models.Card, error) {
	reqID, _ := ctx.Value(constants.RequestIDKey).(string)

	if pairs < constants.MinPairs || pairs > constants.MaxPairs {
		if reqID != "" {
			util.LogWarn("[request_id=%v] Rejected deck request with %d pairs", reqID, pairs)
		}
		return nil, ErrInvalidPairs
	}

	labels := sampleLabels(app.LabelPool, pairs)

	deck := make([]models.Card, 0, 2*pairs)
	for id, label := range labels {
		deck = append(deck, models.Card{PairID: id, Label: label})
		deck = append(deck, models.Card{PairID: id, Label: label})
	}

	shuffleDeck(deck)

	if reqID != "" {
		util.LogInfo("[request_id=%v] Created deck of %d cards (%d pairs)", reqID, len(deck), pairs)
	}
	return deck, nil
}

// sampleLabels picks n distinct labels via a partial Fisher-Yates pass over a
// copy of the pool.
func sampleLabels(pool []string, n int) []string {
	candidates := make([]string, len(pool))
	copy(candidates, pool)

	for i := 0; i < n; i++ {
		j := i + cryptoIntn(len(candidates)-i)
		candidates[i], candidates[j] = candidates[j], candidates[i]
	}
	return candidates[:n]
}

// shuffleDeck applies a uniform Fisher-Yates permutation in place.
func shuffleDeck(deck []models.Card) {
	for i := len(deck) - 1; i > 0; i-- {
		j := cryptoIntn(i + 1)
		deck[i], deck[j] = deck[j], deck[i]
	}
}

// cryptoIntn returns a uniform random int in [0, n). On a rand failure it
// logs and falls back to 0, which degrades shuffle quality but never the
// deck's pair structure.
func cryptoIntn(n int) int {
	if n <= 1 {
		return 0
	}
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		util.LogWarn("Error generating random number: %v, using fallback", err)
		return 0
	}
	return int(v.Int64())
}
