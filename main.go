package main

import (
	"context"
	"html/template"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	cachecontrol "go.eigsys.de/gin-cachecontrol/v2"

	ginGzip "github.com/gin-contrib/gzip"

	"github.com/gin-gonic/gin"

	constants "memorludo/internal/constants"
	game "memorludo/internal/game"
	handlers "memorludo/internal/handlers"
	models "memorludo/internal/models"
	session "memorludo/internal/session"
	storage "memorludo/internal/storage"
	util "memorludo/internal/util"
)

func main() {
	_ = godotenv.Load()

	isProduction := os.Getenv("GIN_MODE") == "release" || os.Getenv("ENV") == "production"
	util.LogInfo("Starting Memorludo in %s mode", map[bool]string{true: "production", false: "development"}[isProduction])

	if len(game.DefaultLabelPool) < constants.MaxPairs {
		util.LogFatal("Label pool too small: %d labels for up to %d pairs", len(game.DefaultLabelPool), constants.MaxPairs)
	}
	util.LogInfo("Loaded %d card labels", len(game.DefaultLabelPool))

	leaderboards, players, closeStores, err := openStores()
	if err != nil {
		util.LogFatal("Failed to open storage backend: %v", err)
	}
	defer closeStores()

	app := &models.App{
		LabelPool:      game.DefaultLabelPool,
		GameSessions:   make(map[string]*models.GameState),
		LimiterMap:     make(map[string]*models.RateLimiterEntry),
		Leaderboards:   leaderboards,
		Players:        players,
		IsProduction:   isProduction,
		StartTime:      time.Now(),
		CookieMaxAge:   util.GetEnvDuration("COOKIE_MAX_AGE", 2*time.Hour),
		StaticCacheAge: util.GetEnvDuration("STATIC_CACHE_AGE", 5*time.Minute),
		RateLimitRPS:   util.GetEnvInt("RATE_LIMIT_RPS", 5),
		RateLimitBurst: util.GetEnvInt("RATE_LIMIT_BURST", 10),
		RateLimiterTTL: util.GetEnvDuration("RATE_LIMITER_TTL", 1*time.Hour),
		SessionTTL:     util.GetEnvDuration("SESSION_TTL", 3*time.Hour),
	}

	router := gin.Default()

	router.Use(requestIDMiddleware())
	router.Use(securityHeadersMiddleware())

	router.Use(csrfMiddleware(app))
	router.Use(validateCSRFMiddleware())

	router.Use(ginGzip.Gzip(ginGzip.DefaultCompression,
		ginGzip.WithExcludedExtensions([]string{".svg", ".ico", ".png", ".jpg", ".jpeg", ".gif"}),
		ginGzip.WithExcludedPaths([]string{"/static/fonts"})))

	if err := router.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		util.LogWarn("Failed to set trusted proxies: %v", err)
	}

	router.Use(func(c *gin.Context) {
		applyCacheHeaders(app, c, isProduction)
	})

	router.Static("/static", "./static")

	funcMap := template.FuncMap{"add1": func(i int) int { return i + 1 }}

	tplPattern := filepath.ToSlash(filepath.Join("templates", "*.html"))
	master := template.New("").Funcs(funcMap)
	if _, err := master.ParseGlob(tplPattern); err != nil {
		util.LogFatal("Failed to parse templates: %v", err)
	}
	router.SetHTMLTemplate(master)

	router.GET(constants.RouteHome, func(c *gin.Context) { handlers.HomeHandler(app, c) })
	router.POST(constants.RouteStart, rateLimitMiddleware(app), func(c *gin.Context) { handlers.StartHandler(app, c) })
	router.GET(constants.RoutePlay, func(c *gin.Context) { handlers.PlayHandler(app, c) })
	router.GET(constants.RouteFlip, rateLimitMiddleware(app), func(c *gin.Context) { handlers.FlipHandler(app, c) })
	router.GET(constants.RouteContinue, rateLimitMiddleware(app), func(c *gin.Context) { handlers.ContinueHandler(app, c) })
	router.GET(constants.RouteRestart, func(c *gin.Context) { handlers.RestartHandler(app, c) })
	router.GET(constants.RouteProfile, func(c *gin.Context) { handlers.ProfileHandler(app, c) })
	router.GET("/healthz", func(c *gin.Context) { handlers.HealthzHandler(app, c) })

	session.StartSessionCleanup(app)
	startLimiterCleanup(app)

	startServer(router)
}

// openStores selects the persistence backend from STORAGE_BACKEND: "json"
// (default) keeps flat files under DATA_DIR, "sqlite" uses a gorm-backed
// database at SQLITE_DSN. Both serve the same two store interfaces.
func openStores() (models.LeaderboardStore, models.PlayerHistoryStore, func(), error) {
	backend := strings.ToLower(util.GetEnv("STORAGE_BACKEND", "json"))
	switch backend {
	case "sqlite":
		dsn := util.GetEnv("SQLITE_DSN", "data/memorludo.db")
		store, err := storage.NewGormStore(dsn)
		if err != nil {
			return nil, nil, nil, err
		}
		util.LogInfo("Using sqlite storage backend at %s", dsn)
		return store, store, func() {
			if err := store.Close(); err != nil {
				util.LogWarn("Failed to close database: %v", err)
			}
		}, nil
	default:
		dataDir := util.GetEnv("DATA_DIR", "data")
		store, err := storage.NewJSONStore(dataDir)
		if err != nil {
			return nil, nil, nil, err
		}
		util.LogInfo("Using JSON storage backend under %s", dataDir)
		return store, store, func() {}, nil
	}
}

func startServer(router *gin.Engine) {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	idleConnsClosed := make(chan struct{})
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, syscall.SIGINT, syscall.SIGTERM)
		<-sigint
		util.LogInfo("Shutdown signal received, shutting down server gracefully...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			util.LogWarn("HTTP server Shutdown: %v", err)
		}
		close(idleConnsClosed)
	}()

	util.LogInfo("Server starting on http://localhost:%s", port)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		util.LogFatal("Server failed to start: %v", err)
	}
	<-idleConnsClosed
	util.LogInfo("Server shutdown complete")
}

func applyCacheHeaders(app *models.App, c *gin.Context, production bool) {
	if production && strings.HasPrefix(c.Request.URL.Path, "/static/") {
		cachecontrol.New(cachecontrol.Config{
			Public: true,
			MaxAge: cachecontrol.Duration(app.StaticCacheAge),
		})(c)
		c.Header("Vary", "Accept-Encoding")
		return
	}
	cachecontrol.New(cachecontrol.Config{
		NoStore:        true,
		NoCache:        true,
		MustRevalidate: true,
	})(c)
}

func startLimiterCleanup(app *models.App) {
	go func() {
		ticker := time.NewTicker(30 * time.Minute)
		defer ticker.Stop()

		for range ticker.C {
			cleanupStaleRateLimiters(app)
		}
	}()
	util.LogInfo("Started rate limiter cleanup goroutine")
}

func cleanupStaleRateLimiters(app *models.App) {
	app.LimiterMutex.Lock()
	defer app.LimiterMutex.Unlock()

	cutoffTime := time.Now().Add(-app.RateLimiterTTL)
	removedCount := 0

	for key, entry := range app.LimiterMap {
		if entry.LastAccess.Before(cutoffTime) {
			delete(app.LimiterMap, key)
			removedCount++
		}
	}

	if removedCount > 0 {
		util.LogInfo("Cleaned up %d stale rate limiters", removedCount)
	}
}
