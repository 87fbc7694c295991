// Package api serves the settlement over HTTP.
// GET endpoints are public (read-only observation).
// POST endpoints under /api/v1/admin require a bearer token.
package api

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/talgya/emberhold/internal/agents"
	"github.com/talgya/emberhold/internal/engine"
	"github.com/talgya/emberhold/internal/persistence"
	"github.com/talgya/emberhold/internal/weather"
	"github.com/talgya/emberhold/internal/world"
)

// Server exposes the live settlement. The runner owns the state; every
// read handler works on an independent snapshot.
type Server struct {
	Runner   *engine.Runner
	Store    *persistence.Store // optional; archive endpoints fall back to live logs
	Port     int
	AdminKey string // Bearer token for admin endpoints. Empty = admin disabled.

	streamOnce sync.Once
	stream     *hub
}

// Router assembles the HTTP handler. Separate from Start so tests can
// drive the API through httptest.
func (s *Server) Router() http.Handler {
	// Admin ticks run a full engine pass per request.
	tickLimiter := NewRateLimiter(120, time.Hour)

	r := chi.NewRouter()
	r.Use(corsMiddleware)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/state", s.handleState)
		r.Get("/agents", s.handleAgents)
		r.Get("/agents/{id}", s.handleAgent)
		r.Get("/council", s.handleCouncil)
		r.Get("/events", s.handleEvents)
		r.Get("/news", s.handleNews)
		r.Get("/stories", s.handleStories)
		r.Get("/chronicles", s.handleChronicles)
		r.Get("/map", s.handleMap)
		r.Get("/stream", s.handleStream)

		r.Route("/admin", func(r chi.Router) {
			r.Use(s.adminOnly)
			r.With(tickLimiter.Middleware).Post("/tick", s.handleTick)
			r.Post("/pause", s.handlePause)
			r.Post("/resume", s.handleResume)
			r.Post("/speed", s.handleSpeed)
			r.Post("/weather", s.handleWeather)
			r.Post("/inject", s.handleInject)
			r.Post("/snapshot", s.handleSnapshot)
		})
	})
	return r
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	addr := fmt.Sprintf(":%d", s.Port)
	handler := s.Router()
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "")

	go func() {
		if err := http.ListenAndServe(addr, handler); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Set CORS_ORIGINS to a comma-separated list of allowed origins.
// Localhost dev servers are always allowed.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:4173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// checkBearerToken returns true if the request has a valid admin bearer token.
func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// adminOnly gates the admin subtree. An unset key disables it outright.
func (s *Server) adminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.AdminKey == "" {
			http.Error(w, "admin endpoints disabled (no EMBERHOLD_ADMIN_KEY set)", http.StatusForbidden)
			return
		}
		if !s.checkBearerToken(r) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st := s.Runner.Snapshot()
	writeJSON(w, map[string]any{
		"settlement":       st.Settlement,
		"tick":             st.Tick,
		"day":              st.Day,
		"hour":             st.Hour,
		"phase":            st.Phase,
		"weather":          st.Weather,
		"paused":           st.Paused,
		"speed":            s.Runner.Speed(),
		"population":       st.Metrics.Population,
		"metrics":          st.Metrics,
		"councilActive":    st.Council.Active,
		"councilCountdown": st.Council.Countdown,
	})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Runner.Snapshot())
}

func (s *Server) handleAgents(w http.ResponseWriter, r *http.Request) {
	type agentSummary struct {
		ID         string           `json:"id"`
		Name       string           `json:"name"`
		Archetype  agents.Archetype `json:"archetype"`
		AgeGroup   agents.AgeGroup  `json:"ageGroup"`
		Status     agents.Status    `json:"status"`
		Pos        world.Pos        `json:"pos"`
		Energy     int              `json:"energy"`
		Hunger     int              `json:"hunger"`
		Stress     int              `json:"stress"`
		Mood       int              `json:"mood"`
		Influence  int              `json:"influence"`
		Reputation int              `json:"reputation"`
		Allies     int              `json:"allies"`
		Rivals     int              `json:"rivals"`
	}

	st := s.Runner.Snapshot()
	statusFilter := r.URL.Query().Get("status")
	archetypeFilter := r.URL.Query().Get("archetype")

	result := make([]agentSummary, 0, len(st.Agents))
	for _, a := range st.Agents {
		if statusFilter != "" && string(a.Status) != statusFilter {
			continue
		}
		if archetypeFilter != "" && string(a.Archetype) != archetypeFilter {
			continue
		}
		result = append(result, agentSummary{
			ID:         a.ID,
			Name:       a.Name,
			Archetype:  a.Archetype,
			AgeGroup:   a.AgeGroup,
			Status:     a.Status,
			Pos:        a.Pos,
			Energy:     a.Energy,
			Hunger:     a.Hunger,
			Stress:     a.Stress,
			Mood:       a.Mood(),
			Influence:  a.Influence,
			Reputation: a.Reputation,
			Allies:     len(a.Allies),
			Rivals:     len(a.Rivals),
		})
	}
	writeJSON(w, result)
}

func (s *Server) handleAgent(w http.ResponseWriter, r *http.Request) {
	st := s.Runner.Snapshot()
	a := st.AgentByID(chi.URLParam(r, "id"))
	if a == nil {
		http.Error(w, "agent not found", http.StatusNotFound)
		return
	}
	writeJSON(w, a)
}

func (s *Server) handleCouncil(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Runner.Snapshot().Council)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, 50, 200)
	if s.Store != nil {
		events, err := s.Store.RecentEvents(limit)
		if err != nil {
			slog.Error("event query failed", "error", err)
			http.Error(w, "event query failed", http.StatusInternalServerError)
			return
		}
		writeJSON(w, events)
		return
	}
	writeJSON(w, head(s.Runner.Snapshot().Events, limit))
}

func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, 50, 200)
	if s.Store != nil {
		news, err := s.Store.RecentNews(limit)
		if err != nil {
			slog.Error("news query failed", "error", err)
			http.Error(w, "news query failed", http.StatusInternalServerError)
			return
		}
		writeJSON(w, news)
		return
	}
	writeJSON(w, head(s.Runner.Snapshot().News, limit))
}

func (s *Server) handleStories(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, 50, 200)
	if s.Store != nil {
		stories, err := s.Store.RecentStories(limit)
		if err != nil {
			slog.Error("story query failed", "error", err)
			http.Error(w, "story query failed", http.StatusInternalServerError)
			return
		}
		writeJSON(w, stories)
		return
	}
	writeJSON(w, head(s.Runner.Snapshot().Stories, limit))
}

func (s *Server) handleChronicles(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, 14, 100)
	if s.Store == nil {
		writeJSON(w, []engine.ChronicleEntry{})
		return
	}
	entries, err := s.Store.Chronicles(limit)
	if err != nil {
		slog.Error("chronicle query failed", "error", err)
		http.Error(w, "chronicle query failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, entries)
}

func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	type marker struct {
		ID     string        `json:"id"`
		Name   string        `json:"name"`
		Pos    world.Pos     `json:"pos"`
		Status agents.Status `json:"status"`
	}

	st := s.Runner.Snapshot()
	markers := make([]marker, 0, len(st.Agents))
	for _, a := range st.Agents {
		markers = append(markers, marker{ID: a.ID, Name: a.Name, Pos: a.Pos, Status: a.Status})
	}
	writeJSON(w, map[string]any{
		"width":  st.Grid.Width,
		"height": st.Grid.Height,
		"hall":   st.Grid.Hall,
		"tiles":  st.Grid.Tiles,
		"biomes": world.BiomeCounts(st.Grid),
		"agents": markers,
	})
}

func (s *Server) handleTick(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Count int `json:"count"`
	}
	// An empty body means one tick.
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.Count <= 0 {
		req.Count = 1
	}
	if req.Count > 168 {
		http.Error(w, "max 168 ticks per request", http.StatusBadRequest)
		return
	}

	s.Runner.Step(req.Count)
	st := s.Runner.Snapshot()
	slog.Info("admin tick", "count", req.Count, "day", st.Day, "hour", st.Hour)
	writeJSON(w, map[string]any{
		"ticked": req.Count,
		"tick":   st.Tick,
		"day":    st.Day,
		"hour":   st.Hour,
		"phase":  st.Phase,
	})
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	s.Runner.SetPaused(true)
	slog.Info("simulation paused")
	writeJSON(w, map[string]any{"paused": true})
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	s.Runner.SetPaused(false)
	slog.Info("simulation resumed")
	writeJSON(w, map[string]any{"paused": false})
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Speed float64 `json:"speed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.Speed <= 0 || req.Speed > 1000 {
		http.Error(w, "speed must be above 0 and at most 1000", http.StatusBadRequest)
		return
	}
	s.Runner.SetSpeed(req.Speed)
	slog.Info("speed changed", "speed", req.Speed)
	writeJSON(w, map[string]float64{"speed": s.Runner.Speed()})
}

func (s *Server) handleWeather(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Weather string `json:"weather"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	k := weather.Kind(req.Weather)
	if !k.Valid() {
		http.Error(w, "unknown weather (use: clear, cloudy, rain, storm, fog, snow)", http.StatusBadRequest)
		return
	}
	s.Runner.SetWeather(k)
	slog.Info("weather overridden", "weather", k)
	writeJSON(w, map[string]any{"weather": k})
}

func (s *Server) handleInject(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Category    string `json:"category,omitempty"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.Description == "" {
		http.Error(w, "description required", http.StatusBadRequest)
		return
	}
	if req.Category == "" {
		req.Category = "intervention"
	}

	ev := s.Runner.Inject(req.Category, req.Description)
	writeJSON(w, map[string]any{"success": true, "event": ev})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if s.Store == nil {
		http.Error(w, "database not available", http.StatusServiceUnavailable)
		return
	}

	st := s.Runner.Snapshot()
	if err := s.Store.SaveSnapshot(st); err != nil {
		slog.Error("snapshot save failed", "error", err)
		http.Error(w, "snapshot failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{
		"tick":    st.Tick,
		"message": "snapshot saved",
	})
}

// parseLimit reads ?limit with a default and a hard ceiling.
func parseLimit(r *http.Request, def, max int) int {
	limit := def
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > max {
		limit = max
	}
	return limit
}

// head returns at most n leading entries. Live logs are newest-first, so
// this is the most recent slice.
func head[T any](list []T, n int) []T {
	if len(list) > n {
		list = list[:n]
	}
	return list
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
