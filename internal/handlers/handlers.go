package handlers

import (
	"errors"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	constants "memorludo/internal/constants"
	game "memorludo/internal/game"
	leaderboard "memorludo/internal/leaderboard"
	models "memorludo/internal/models"
	player "memorludo/internal/player"
	session "memorludo/internal/session"
	util "memorludo/internal/util"
)

// HomeHandler renders the new-game form and the top-10 table for the
// selected difficulty.
func HomeHandler(app *models.App, c *gin.Context) {
	session.GetOrCreateSession(app, c)
	renderHome(app, c, "")
}

func renderHome(app *models.App, c *gin.Context, errCode string) {
	selectedPairs := constants.DefaultPairs
	if raw := c.Query("pairs"); raw != "" {
		if p, err := strconv.Atoi(raw); err == nil && p >= constants.MinPairs && p <= constants.MaxPairs {
			selectedPairs = p
		}
	}

	entries, err := app.Leaderboards.LoadLeaderboard(selectedPairs)
	if err != nil {
		util.LogWarn("Failed to load leaderboard for %d pairs: %v", selectedPairs, err)
		entries = []models.LeaderboardEntry{}
	}
	top := leaderboard.FromEntries(entries, constants.LeaderboardLimit).Top()

	csrfToken, _ := c.Cookie("csrf_token")
	c.HTML(http.StatusOK, "home.html", gin.H{
		"title":         "Memorludo - Memory Matching Game",
		"selectedPairs": selectedPairs,
		"pairsOptions":  lo.RangeFrom(constants.MinPairs, constants.MaxPairs-constants.MinPairs+1),
		"top":           top,
		"error_code":    errCode,
		"csrf_token":    csrfToken,
	})
}

// StartHandler begins a new game from the submitted name and pair count. An
// out-of-range pair count is the one start-time error surfaced to the user;
// the session keeps whatever state it had.
func StartHandler(app *models.App, c *gin.Context) {
	ctx := c.Request.Context()
	sessionID := session.GetOrCreateSession(app, c)

	name := c.PostForm("name")
	pairs, err := strconv.Atoi(c.PostForm("pairs"))
	if err != nil {
		pairs = -1
	}

	if _, err := game.StartGame(app, ctx, sessionID, name, pairs); err != nil {
		if errors.Is(err, game.ErrInvalidPairs) {
			renderHome(app, c, constants.ErrorCodeInvalidPairs)
			return
		}
		util.LogWarn("Failed to start game for session %s: %v", sessionID, err)
		renderHome(app, c, constants.ErrorCodeInvalidPairs)
		return
	}

	c.Redirect(http.StatusSeeOther, constants.RoutePlay)
}

// PlayHandler renders the board, or the win page once every pair is matched.
// The first render after completion records the result; the Recorded flag
// makes re-renders harmless.
func PlayHandler(app *models.App, c *gin.Context) {
	sessionID := session.GetOrCreateSession(app, c)
	gameState, ok := session.GetGameState(app, sessionID)
	if !ok {
		c.Redirect(http.StatusSeeOther, constants.RouteHome)
		return
	}

	if game.IsComplete(gameState) {
		recordCompletion(app, gameState)
		c.HTML(http.StatusOK, "win.html", gin.H{
			"title":   "Memorludo - You won!",
			"player":  gameState.Player,
			"moves":   gameState.Moves,
			"pairs":   gameState.Pairs,
			"seconds": gameState.Seconds,
			"score":   game.CalculateScore(gameState.Moves, gameState.Pairs, gameState.Seconds),
		})
		return
	}

	c.HTML(http.StatusOK, "board.html", gin.H{
		"title":        "Memorludo - Playing",
		"player":       gameState.Player,
		"pairs":        gameState.Pairs,
		"moves":        gameState.Moves,
		"cards":        game.BoardView(gameState),
		"showContinue": len(gameState.Revealed) == 2,
	})
}

// recordCompletion freezes the elapsed time and appends the leaderboard
// entry and player record exactly once; the session package arbitrates the
// claim so re-renders and concurrent renders never double-append. Storage
// failures are best-effort: logged, never shown to the player.
func recordCompletion(app *models.App, gameState *models.GameState) {
	now := time.Now()
	if !session.ClaimRecording(app, gameState, game.ElapsedSeconds(gameState, now)) {
		return
	}

	entry := models.LeaderboardEntry{
		Name:    gameState.Player,
		Moves:   gameState.Moves,
		Seconds: gameState.Seconds,
		Pairs:   gameState.Pairs,
		Date:    now,
	}
	if err := app.Leaderboards.AppendLeaderboardEntry(entry); err != nil {
		util.LogWarn("Failed to append leaderboard entry for %s: %v", gameState.Player, err)
	}

	record := models.ScoreRecord{
		Date:    now,
		Pairs:   gameState.Pairs,
		Moves:   gameState.Moves,
		Seconds: gameState.Seconds,
		Score:   game.CalculateScore(gameState.Moves, gameState.Pairs, gameState.Seconds),
	}
	if err := app.Players.AppendPlayerRecord(gameState.Player, record); err != nil {
		util.LogWarn("Failed to append player record for %s: %v", gameState.Player, err)
	}

	util.LogInfo("Game completed: player=%s pairs=%d moves=%d seconds=%d",
		gameState.Player, gameState.Pairs, gameState.Moves, gameState.Seconds)
}

// FlipHandler reveals the card at ?i=. Malformed or stale indices are
// absorbed as no-ops and the client is redirected to re-sync from the board.
func FlipHandler(app *models.App, c *gin.Context) {
	ctx := c.Request.Context()
	sessionID := session.GetOrCreateSession(app, c)
	gameState, ok := session.GetGameState(app, sessionID)
	if !ok {
		c.Redirect(http.StatusSeeOther, constants.RouteHome)
		return
	}

	if !game.IsComplete(gameState) {
		if index, err := strconv.Atoi(c.Query("i")); err == nil {
			game.Flip(app, ctx, gameState, index)
			session.SaveGameState(app, sessionID, gameState)
		}
	}

	c.Redirect(http.StatusSeeOther, constants.RoutePlay)
}

// ContinueHandler acknowledges a shown mismatch so the next flip starts a
// fresh attempt. Safe to call at any time.
func ContinueHandler(app *models.App, c *gin.Context) {
	sessionID := session.GetOrCreateSession(app, c)
	if gameState, ok := session.GetGameState(app, sessionID); ok {
		game.Acknowledge(gameState)
		session.SaveGameState(app, sessionID, gameState)
	}
	c.Redirect(http.StatusSeeOther, constants.RoutePlay)
}

// RestartHandler discards the session's game and returns home.
func RestartHandler(app *models.App, c *gin.Context) {
	sessionID := session.GetOrCreateSession(app, c)
	session.ClearGameState(app, sessionID)
	c.Redirect(http.StatusSeeOther, constants.RouteHome)
}

// ProfileHandler shows a player's score history, newest first.
func ProfileHandler(app *models.App, c *gin.Context) {
	name := c.Query("name")
	if name == "" {
		c.Redirect(http.StatusSeeOther, constants.RouteHome)
		return
	}

	records, err := app.Players.LoadPlayerHistory(name)
	if err != nil {
		util.LogWarn("Failed to load history for %s: %v", name, err)
		records = []models.ScoreRecord{}
	}

	bestScore, _ := player.BestScore(records)
	bestMoves, hasScores := player.BestMoves(records)

	c.HTML(http.StatusOK, "profile.html", gin.H{
		"title":     "Memorludo - " + name,
		"name":      name,
		"scores":    player.History(records),
		"hasScores": hasScores,
		"bestScore": bestScore,
		"bestMoves": bestMoves,
	})
}

func HealthzHandler(app *models.App, c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	uptime := time.Since(app.StartTime)

	app.SessionMutex.RLock()
	sessionCount := len(app.GameSessions)
	app.SessionMutex.RUnlock()

	app.LimiterMutex.RLock()
	limiterCount := len(app.LimiterMap)
	app.LimiterMutex.RUnlock()

	c.JSON(http.StatusOK, gin.H{
		"status":          "ok",
		"env":             map[bool]string{true: "production", false: "development"}[app.IsProduction],
		"label_pool":      len(app.LabelPool),
		"active_sessions": sessionCount,
		"active_limiters": limiterCount,
		"memory_alloc_mb": m.Alloc / 1024 / 1024,
		"memory_sys_mb":   m.Sys / 1024 / 1024,
		"memory_gc_count": m.NumGC,
		"uptime":          util.FormatUptime(uptime),
		"timestamp":       time.Now().UTC().Format(time.RFC3339),
	})
}
