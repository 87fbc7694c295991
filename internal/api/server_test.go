package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/talgya/emberhold/internal/config"
	"github.com/talgya/emberhold/internal/engine"
	"github.com/talgya/emberhold/internal/persistence"
)

// testServer builds a server around a quiet six-adult settlement so ticks
// stay deterministic and cheap.
func testServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.Seed = 11
	cfg.Population = config.Population{Adults: 6}
	cfg.Chances = config.Chances{}
	eng := engine.New(cfg, nil)
	eng.Now = func() time.Time { return time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC) }
	runner := engine.NewRunner(eng, eng.NewWorld(), time.Second, 1)
	return &Server{Runner: runner, AdminKey: "test-key"}
}

func getJSON(t *testing.T, router http.Handler, path string, out any) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code == http.StatusOK && out != nil {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			t.Fatalf("decode %s: %v", path, err)
		}
	}
	return rec
}

func postJSON(t *testing.T, router http.Handler, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestStatusEndpoint(t *testing.T) {
	s := testServer(t)
	router := s.Router()

	var status map[string]any
	rec := getJSON(t, router, "/api/v1/status", &status)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if status["settlement"] != "Emberhold" {
		t.Fatalf("settlement = %v", status["settlement"])
	}
	if status["day"] != float64(0) || status["hour"] != float64(6) {
		t.Fatalf("clock = day %v hour %v, want 0/6", status["day"], status["hour"])
	}
	if status["paused"] != false {
		t.Fatalf("paused = %v, want false", status["paused"])
	}
	if status["population"] != float64(6) {
		t.Fatalf("population = %v, want 6", status["population"])
	}
}

func TestAgentsEndpointFilters(t *testing.T) {
	s := testServer(t)
	router := s.Router()

	var all []map[string]any
	if rec := getJSON(t, router, "/api/v1/agents", &all); rec.Code != http.StatusOK {
		t.Fatalf("agents = %d, want 200", rec.Code)
	}
	if len(all) != 6 {
		t.Fatalf("got %d agents, want 6", len(all))
	}

	st := s.Runner.Snapshot()
	want := string(st.Agents[0].Archetype)
	manual := 0
	for _, a := range st.Agents {
		if string(a.Archetype) == want {
			manual++
		}
	}

	var filtered []map[string]any
	getJSON(t, router, "/api/v1/agents?archetype="+want, &filtered)
	if len(filtered) != manual {
		t.Fatalf("filter %q returned %d agents, want %d", want, len(filtered), manual)
	}
	for _, a := range filtered {
		if a["archetype"] != want {
			t.Fatalf("filter leaked archetype %v", a["archetype"])
		}
	}
}

func TestAgentDetailAndNotFound(t *testing.T) {
	s := testServer(t)
	router := s.Router()
	id := s.Runner.Snapshot().Agents[0].ID

	var agent map[string]any
	if rec := getJSON(t, router, "/api/v1/agents/"+id, &agent); rec.Code != http.StatusOK {
		t.Fatalf("agent detail = %d, want 200", rec.Code)
	}
	if agent["id"] != id {
		t.Fatalf("agent id = %v, want %s", agent["id"], id)
	}

	if rec := getJSON(t, router, "/api/v1/agents/no-such-agent", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("missing agent = %d, want 404", rec.Code)
	}
}

func TestAdminAuthRequired(t *testing.T) {
	s := testServer(t)
	router := s.Router()

	if rec := postJSON(t, router, "/api/v1/admin/tick", "", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token = %d, want 401", rec.Code)
	}
	if rec := postJSON(t, router, "/api/v1/admin/tick", "wrong-key", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad token = %d, want 401", rec.Code)
	}
	if rec := postJSON(t, router, "/api/v1/admin/tick", "test-key", ""); rec.Code != http.StatusOK {
		t.Fatalf("good token = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	disabled := testServer(t)
	disabled.AdminKey = ""
	if rec := postJSON(t, disabled.Router(), "/api/v1/admin/tick", "test-key", ""); rec.Code != http.StatusForbidden {
		t.Fatalf("disabled admin = %d, want 403", rec.Code)
	}
}

func TestAdminTickAdvancesClock(t *testing.T) {
	s := testServer(t)
	router := s.Router()

	rec := postJSON(t, router, "/api/v1/admin/tick", "test-key", `{"count":3}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("tick = %d: %s", rec.Code, rec.Body.String())
	}
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode tick response: %v", err)
	}
	if resp["ticked"] != float64(3) || resp["tick"] != float64(3) || resp["hour"] != float64(9) {
		t.Fatalf("tick response = %v", resp)
	}

	if rec := postJSON(t, router, "/api/v1/admin/tick", "test-key", `{"count":9999}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("oversized tick = %d, want 400", rec.Code)
	}
}

func TestPauseAndResume(t *testing.T) {
	s := testServer(t)
	router := s.Router()

	if rec := postJSON(t, router, "/api/v1/admin/pause", "test-key", ""); rec.Code != http.StatusOK {
		t.Fatalf("pause = %d", rec.Code)
	}
	if !s.Runner.Paused() {
		t.Fatal("runner not paused after /admin/pause")
	}
	if rec := postJSON(t, router, "/api/v1/admin/resume", "test-key", ""); rec.Code != http.StatusOK {
		t.Fatalf("resume = %d", rec.Code)
	}
	if s.Runner.Paused() {
		t.Fatal("runner still paused after /admin/resume")
	}
}

func TestInjectedEventTopsTheLog(t *testing.T) {
	s := testServer(t)
	router := s.Router()

	rec := postJSON(t, router, "/api/v1/admin/inject", "test-key",
		`{"category":"drill","description":"The wardens run a fire drill."}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("inject = %d: %s", rec.Code, rec.Body.String())
	}

	var events []map[string]any
	getJSON(t, router, "/api/v1/events", &events)
	if len(events) == 0 || events[0]["category"] != "drill" {
		t.Fatalf("injected event missing from log head: %v", events)
	}

	if rec := postJSON(t, router, "/api/v1/admin/inject", "test-key", `{"category":"drill"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("inject without description = %d, want 400", rec.Code)
	}
}

func TestWeatherOverride(t *testing.T) {
	s := testServer(t)
	router := s.Router()

	if rec := postJSON(t, router, "/api/v1/admin/weather", "test-key", `{"weather":"storm"}`); rec.Code != http.StatusOK {
		t.Fatalf("weather = %d: %s", rec.Code, rec.Body.String())
	}
	if got := s.Runner.Snapshot().Weather; string(got) != "storm" {
		t.Fatalf("weather = %s, want storm", got)
	}
	if rec := postJSON(t, router, "/api/v1/admin/weather", "test-key", `{"weather":"hail"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown weather = %d, want 400", rec.Code)
	}
}

func TestSpeedValidation(t *testing.T) {
	s := testServer(t)
	router := s.Router()

	if rec := postJSON(t, router, "/api/v1/admin/speed", "test-key", `{"speed":0}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("zero speed = %d, want 400", rec.Code)
	}
	rec := postJSON(t, router, "/api/v1/admin/speed", "test-key", `{"speed":4}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("speed = %d: %s", rec.Code, rec.Body.String())
	}
	if s.Runner.Speed() != 4 {
		t.Fatalf("runner speed = %v, want 4", s.Runner.Speed())
	}
}

func TestNewsServedFromArchive(t *testing.T) {
	s := testServer(t)
	store, err := persistence.Open(filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	s.Store = store
	s.Runner.OnResult = func(res *engine.Result) {
		if err := store.AppendResult(res); err != nil {
			t.Errorf("append result: %v", err)
		}
	}

	// A full day guarantees at least the morning brief and a night recap.
	s.Runner.Step(24)

	router := s.Router()
	var news []map[string]any
	if rec := getJSON(t, router, "/api/v1/news?limit=10", &news); rec.Code != http.StatusOK {
		t.Fatalf("news = %d", rec.Code)
	}
	if len(news) == 0 {
		t.Fatal("no archived news after a full day")
	}
	if len(news) > 10 {
		t.Fatalf("limit ignored: got %d items", len(news))
	}
}

func TestChroniclesWithoutStore(t *testing.T) {
	s := testServer(t)
	var entries []map[string]any
	if rec := getJSON(t, s.Router(), "/api/v1/chronicles", &entries); rec.Code != http.StatusOK {
		t.Fatalf("chronicles = %d", rec.Code)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty list without a store, got %d", len(entries))
	}
}

func TestMapEndpoint(t *testing.T) {
	s := testServer(t)

	var m struct {
		Width  int              `json:"width"`
		Height int              `json:"height"`
		Tiles  [][]any          `json:"tiles"`
		Agents []map[string]any `json:"agents"`
	}
	if rec := getJSON(t, s.Router(), "/api/v1/map", &m); rec.Code != http.StatusOK {
		t.Fatalf("map = %d", rec.Code)
	}
	if m.Width <= 0 || m.Height <= 0 || len(m.Tiles) != m.Height {
		t.Fatalf("map shape %dx%d with %d rows", m.Width, m.Height, len(m.Tiles))
	}
	if len(m.Agents) != 6 {
		t.Fatalf("got %d agent markers, want 6", len(m.Agents))
	}
}

func TestCORSPreflight(t *testing.T) {
	s := testServer(t)
	router := s.Router()

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/status", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("preflight = %d, want 204", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Fatalf("allow-origin = %q", got)
	}
}

func TestRateLimiterBlocksAfterBudget(t *testing.T) {
	rl := NewRateLimiter(2, time.Hour)
	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.9:4242"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d = %d, want 200", i, rec.Code)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.9:4242"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("over budget = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatal("missing Retry-After header")
	}

	// A different caller keeps its own budget.
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.10:4242"
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("other caller = %d, want 200", rec.Code)
	}
}

func TestStreamHelloAndTickFrames(t *testing.T) {
	s := testServer(t)
	srv := httptest.NewServer(s.Router())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/stream"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial stream: %v", err)
	}
	if resp != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var hello streamFrame
	if err := conn.ReadJSON(&hello); err != nil {
		t.Fatalf("read hello: %v", err)
	}
	if hello.Type != "hello" || hello.Hour != 6 {
		t.Fatalf("hello frame = %+v", hello)
	}

	res := s.Runner.Step(1)
	s.Broadcast(res)

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var tick streamFrame
	if err := conn.ReadJSON(&tick); err != nil {
		t.Fatalf("read tick: %v", err)
	}
	if tick.Type != "tick" || tick.Hour != 7 || tick.Tick != 1 {
		t.Fatalf("tick frame = %+v", tick)
	}
}
