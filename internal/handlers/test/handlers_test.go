package main

import (
	"fmt"
	"html/template"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	constants "memorludo/internal/constants"
	game "memorludo/internal/game"
	handlers "memorludo/internal/handlers"
	models "memorludo/internal/models"
	session "memorludo/internal/session"
)

const testSessionID = "test-session-0001"

// countingStore records appends in memory so tests can assert how many
// writes a request sequence produced.
type countingStore struct {
	mu      sync.Mutex
	entries []models.LeaderboardEntry
	records []models.ScoreRecord
}

func (s *countingStore) LoadLeaderboard(pairs int) ([]models.LeaderboardEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.LeaderboardEntry
	for _, e := range s.entries {
		if e.Pairs == pairs {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *countingStore) AppendLeaderboardEntry(entry models.LeaderboardEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

func (s *countingStore) LoadPlayerHistory(name string) ([]models.ScoreRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.ScoreRecord, len(s.records))
	copy(out, s.records)
	return out, nil
}

func (s *countingStore) AppendPlayerRecord(name string, record models.ScoreRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, record)
	return nil
}

func testAppWithStore(store *countingStore) *models.App {
	return &models.App{
		LabelPool:    game.DefaultLabelPool,
		GameSessions: make(map[string]*models.GameState),
		Leaderboards: store,
		Players:      store,
		CookieMaxAge: time.Hour,
		SessionTTL:   time.Hour,
	}
}

func newTestRouter(app *models.App) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	master := template.Must(template.New("").Parse(
		`{{define "home.html"}}home{{end}}` +
			`{{define "board.html"}}board moves={{.moves}}{{end}}` +
			`{{define "win.html"}}win moves={{.moves}} seconds={{.seconds}}{{end}}` +
			`{{define "profile.html"}}profile{{end}}`))
	router.SetHTMLTemplate(master)
	router.GET(constants.RoutePlay, func(c *gin.Context) { handlers.PlayHandler(app, c) })
	router.GET(constants.RouteFlip, func(c *gin.Context) { handlers.FlipHandler(app, c) })
	router.GET(constants.RouteContinue, func(c *gin.Context) { handlers.ContinueHandler(app, c) })
	return router
}

func doGet(router *gin.Engine, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.AddCookie(&http.Cookie{Name: constants.SessionCookieName, Value: testSessionID})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// seedGame installs an unshuffled 3-pair game so flips can be addressed by
// index: cards (0,1), (2,3) and (4,5) match.
func seedGame(app *models.App) *models.GameState {
	pairs := 3
	deck := make([]models.Card, 0, 2*pairs)
	for id := 0; id < pairs; id++ {
		label := game.DefaultLabelPool[id]
		deck = append(deck, models.Card{PairID: id, Label: label})
		deck = append(deck, models.Card{PairID: id, Label: label})
	}
	g := &models.GameState{
		Player:         "Ann",
		Pairs:          pairs,
		Deck:           deck,
		Revealed:       []int{},
		Matched:        []int{},
		StartedAt:      time.Now().Add(-10 * time.Second),
		LastAccessTime: time.Now(),
	}
	app.GameSessions[testSessionID] = g
	return g
}

func TestPlayRecordsCompletionExactlyOnce(t *testing.T) {
	store := &countingStore{}
	app := testAppWithStore(store)
	router := newTestRouter(app)
	g := seedGame(app)

	for i := 0; i < len(g.Deck); i++ {
		w := doGet(router, fmt.Sprintf("/flip?i=%d", i))
		if w.Code != http.StatusSeeOther {
			t.Fatalf("Flip %d returned status %d, want %d", i, w.Code, http.StatusSeeOther)
		}
	}
	if !g.Completed {
		t.Fatal("Game should be complete after flipping every pair in order")
	}

	first := doGet(router, constants.RoutePlay)
	if first.Code != http.StatusOK {
		t.Fatalf("First play render returned status %d", first.Code)
	}
	second := doGet(router, constants.RoutePlay)
	if second.Code != http.StatusOK {
		t.Fatalf("Second play render returned status %d", second.Code)
	}

	if len(store.entries) != 1 {
		t.Fatalf("Leaderboard appends = %d, want exactly 1", len(store.entries))
	}
	if len(store.records) != 1 {
		t.Fatalf("Player-history appends = %d, want exactly 1", len(store.records))
	}

	entry := store.entries[0]
	if entry.Name != "Ann" || entry.Moves != 3 || entry.Pairs != 3 {
		t.Errorf("Leaderboard entry = %+v, want Ann with 3 moves in bucket 3", entry)
	}
	if entry.Seconds < 9 || entry.Seconds > 11 {
		t.Errorf("Leaderboard entry seconds = %d, want about 10", entry.Seconds)
	}

	record := store.records[0]
	if record.Moves != 3 || record.Pairs != 3 {
		t.Errorf("Player record = %+v, want 3 moves at 3 pairs", record)
	}
	if want := game.CalculateScore(3, 3, record.Seconds); record.Score != want {
		t.Errorf("Player record score = %d, want %d", record.Score, want)
	}

	if record.Seconds != entry.Seconds || g.Seconds != entry.Seconds {
		t.Error("Recorded seconds must match between entry, record and session state")
	}
}

func TestClaimRecordingIsSingleShot(t *testing.T) {
	app := testAppWithStore(&countingStore{})
	g := seedGame(app)
	g.Matched = []int{0, 1, 2, 3, 4, 5}
	g.Completed = true

	if !session.ClaimRecording(app, g, 10) {
		t.Fatal("First claim should succeed")
	}
	if session.ClaimRecording(app, g, 99) {
		t.Fatal("Second claim must be rejected")
	}
	if g.Seconds != 10 {
		t.Errorf("Seconds = %d, a rejected claim must not overwrite the frozen value", g.Seconds)
	}
}

func TestPlayWithoutGameRedirectsHome(t *testing.T) {
	app := testAppWithStore(&countingStore{})
	router := newTestRouter(app)

	w := doGet(router, constants.RoutePlay)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("Play without a game returned status %d, want %d", w.Code, http.StatusSeeOther)
	}
	if loc := w.Header().Get("Location"); loc != constants.RouteHome {
		t.Errorf("Redirect location = %q, want %q", loc, constants.RouteHome)
	}
}
