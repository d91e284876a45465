package session

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	constants "memorludo/internal/constants"
	models "memorludo/internal/models"
	util "memorludo/internal/util"
)

func GetOrCreateSession(app *models.App, c *gin.Context) string {
	sessionID, err := c.Cookie(constants.SessionCookieName)
	if err != nil || len(sessionID) < 10 {
		sessionID = uuid.NewString()
		c.SetSameSite(http.SameSiteStrictMode)
		secure := app.IsProduction
		c.SetCookie(constants.SessionCookieName, sessionID, int(app.CookieMaxAge.Seconds()), "/", "", secure, true)
		util.LogInfo("Created new session: %s", sessionID)
	}
	return sessionID
}

// GetGameState returns the session's game, if any. Unlike a missing word
// game there is no implicit game to create here: starting requires a player
// name and pair count, so callers redirect home instead.
func GetGameState(app *models.App, sessionID string) (*models.GameState, bool) {
	app.SessionMutex.RLock()
	game, exists := app.GameSessions[sessionID]
	app.SessionMutex.RUnlock()
	if !exists {
		return nil, false
	}

	app.SessionMutex.Lock()
	game.LastAccessTime = time.Now()
	app.SessionMutex.Unlock()
	return game, true
}

func SaveGameState(app *models.App, sessionID string, game *models.GameState) {
	app.SessionMutex.Lock()
	app.GameSessions[sessionID] = game
	game.LastAccessTime = time.Now()
	app.SessionMutex.Unlock()
}

// ClaimRecording marks a completed game as recorded, freezing its elapsed
// seconds. The check-and-set runs under the session mutex so concurrent
// renders of the finished board cannot both claim the recording; callers
// append to storage only when this returns true.
func ClaimRecording(app *models.App, game *models.GameState, seconds int) bool {
	app.SessionMutex.Lock()
	defer app.SessionMutex.Unlock()

	if game.Recorded {
		return false
	}
	game.Recorded = true
	game.Seconds = seconds
	game.LastAccessTime = time.Now()
	return true
}

// ClearGameState discards the session's game, returning it to empty.
func ClearGameState(app *models.App, sessionID string) {
	app.SessionMutex.Lock()
	delete(app.GameSessions, sessionID)
	app.SessionMutex.Unlock()
	util.LogInfo("Cleared game state for session: %s", sessionID)
}

func CleanupExpiredSessions(app *models.App) {
	app.SessionMutex.Lock()
	defer app.SessionMutex.Unlock()

	now := time.Now()
	expiredCount := 0
	for sessionID, game := range app.GameSessions {
		if now.Sub(game.LastAccessTime) > app.SessionTTL {
			delete(app.GameSessions, sessionID)
			expiredCount++
		}
	}

	if expiredCount > 0 {
		util.LogInfo("Cleaned up %d expired sessions", expiredCount)
	}
}

func StartSessionCleanup(app *models.App) {
	ticker := time.NewTicker(10 * time.Minute)
	go func() {
		defer ticker.Stop()
		for range ticker.C {
			CleanupExpiredSessions(app)
		}
	}()
	util.LogInfo("Started session cleanup goroutine")
}
