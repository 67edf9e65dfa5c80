// Package api provides the HTTP generation API. Event endpoints fall
// back through the cache and templates when the LLM path fails, so
// generation failures stay invisible to the player. MUD lore endpoints
// (dialogue, rumors, martial arts) report unavailability instead.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/oiahoon/adventure-simulator/internal/character"
	"github.com/oiahoon/adventure-simulator/internal/entropy"
	"github.com/oiahoon/adventure-simulator/internal/event"
	"github.com/oiahoon/adventure-simulator/internal/llm"
	"github.com/oiahoon/adventure-simulator/internal/persistence"
)

const maxBatchCount = 10

// Server serves the generation API.
type Server struct {
	Client *llm.Client
	DB     *persistence.DB
	RNG    *entropy.Source
	Port   int

	// LevelCap mirrors the game rule; request characters are clamped
	// to it before prompt summaries and template scaling.
	LevelCap int

	// AdminKey guards the admin endpoints. Empty disables them.
	AdminKey string

	fallback *event.Fallback
	started  time.Time
}

// Handler builds the route table. Exposed separately from Start for
// tests.
func (s *Server) Handler() http.Handler {
	if s.fallback == nil {
		s.fallback = event.NewFallback(s.RNG)
	}
	s.started = time.Now()

	generateLimiter := NewRateLimiter(30, time.Minute)
	loreLimiter := NewRateLimiter(20, time.Minute)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", s.methodGuard(http.MethodGet, s.handleStatus))
	mux.HandleFunc("/api/events/generate", s.methodGuard(http.MethodPost,
		RateLimitMiddleware(generateLimiter, s.handleGenerateEvents)))
	mux.HandleFunc("/api/events/random", s.methodGuard(http.MethodGet, s.handleRandomEvent))

	mux.HandleFunc("/api/mud/npc/dialogue", s.methodGuard(http.MethodPost,
		RateLimitMiddleware(loreLimiter, s.handleDialogue)))
	mux.HandleFunc("/api/mud/sect/event", s.methodGuard(http.MethodPost,
		RateLimitMiddleware(loreLimiter, s.handleSectEvent)))
	mux.HandleFunc("/api/mud/rumor/generate", s.methodGuard(http.MethodPost,
		RateLimitMiddleware(loreLimiter, s.handleRumors)))
	mux.HandleFunc("/api/mud/martial-arts/generate", s.methodGuard(http.MethodPost,
		RateLimitMiddleware(loreLimiter, s.handleMartialArts)))
	mux.HandleFunc("/api/mud/encounter/generate", s.methodGuard(http.MethodPost,
		RateLimitMiddleware(loreLimiter, s.handleEncounter)))
	mux.HandleFunc("/api/mud/batch/generate", s.methodGuard(http.MethodPost,
		RateLimitMiddleware(generateLimiter, s.handleBatch)))

	mux.HandleFunc("/api/admin/cache/clear", s.methodGuard(http.MethodPost, s.handleCacheClear))

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "unknown endpoint")
	})

	return corsMiddleware(mux)
}

// Start serves the API in a goroutine.
func (s *Server) Start() {
	addr := fmt.Sprintf(":%d", s.Port)
	handler := s.Handler()
	slog.Info("HTTP API starting", "addr", addr, "llm", s.Client.Enabled())

	go func() {
		if err := http.ListenAndServe(addr, handler); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// methodGuard returns 404 for any other method, matching the API
// contract (unknown endpoint/method are both 404).
func (s *Server) methodGuard(method string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			writeError(w, http.StatusNotFound, "not_found", "unknown endpoint or method")
			return
		}
		next(w, r)
	}
}

// characterPayload is the character slice requests carry.
type characterPayload struct {
	Name       string `json:"name"`
	Profession string `json:"profession"`
	Level      int    `json:"level"`
}

// character materializes a transient character for prompt summaries and
// template scaling, holding the level to the configured cap.
func (s *Server) character(p characterPayload) *character.Character {
	prof := character.Profession(p.Profession)
	if prof == "" {
		prof = character.ProfessionWarrior
	}
	c := character.New(p.Name, prof)
	level := p.Level
	if s.LevelCap > 0 && level > s.LevelCap {
		level = s.LevelCap
	}
	if level > 1 {
		c.Level = level
		c.Status.Cultivation = character.CultivationRank(c.Storyline, c.Level)
	}
	return c
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	cached := 0
	if s.DB != nil {
		if n, err := s.DB.CachedEventCount(); err == nil {
			cached = n
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"llm_available": s.Client.Enabled(),
		"cached_events": cached,
		"started":       humanize.Time(s.started),
	})
}

func (s *Server) handleGenerateEvents(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Character characterPayload `json:"character"`
		Location  string           `json:"location"`
		Context   string           `json:"context"`
		Count     int              `json:"count"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Character.Name == "" || req.Location == "" {
		writeError(w, http.StatusBadRequest, "missing_fields", "character.name and location are required")
		return
	}
	if req.Count < 1 {
		req.Count = 1
	}
	if req.Count > maxBatchCount {
		req.Count = maxBatchCount
	}

	c := s.character(req.Character)
	events, source := s.generateChain(r, c, req.Location, req.Context, req.Count)

	writeJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"events":       events,
		"generated_at": time.Now().UTC(),
		"source":       source,
	})
}

// generateChain walks the source priority: LLM, then cache, then
// templates. Always returns at least one event.
func (s *Server) generateChain(r *http.Request, c *character.Character, location, context string, count int) ([]*event.Event, string) {
	if s.Client.Enabled() {
		events, err := llm.GenerateEvents(r.Context(), s.Client, llm.Summarize(c), location, context, count)
		if err == nil {
			if s.DB != nil {
				if cacheErr := s.DB.CacheEvents(c.Storyline, location, events); cacheErr != nil {
					slog.Warn("event cache write failed", "error", cacheErr)
				}
			}
			return events, event.SourceLLM
		}
		slog.Warn("llm generation failed, falling back", "error", err)
	}

	if s.DB != nil {
		if cached, err := s.DB.RandomCachedEvent(c.Storyline, location, ""); err == nil {
			return []*event.Event{cached}, event.SourceCache
		} else if !errors.Is(err, persistence.ErrNotFound) {
			slog.Warn("cache lookup failed", "error", err)
		}
	}

	events := make([]*event.Event, 0, count)
	for i := 0; i < count; i++ {
		events = append(events, s.fallback.Generate(c, location))
	}
	return events, event.SourceTemplate
}

func (s *Server) handleRandomEvent(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	location := q.Get("location")
	eventType := q.Get("type")
	level := 1
	if lv := q.Get("level"); lv != "" {
		n, err := strconv.Atoi(lv)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", "level must be a positive integer")
			return
		}
		level = n
	}

	if s.DB != nil {
		ev, err := s.DB.RandomCachedEvent("", location, eventType)
		if err == nil {
			writeJSON(w, http.StatusOK, map[string]any{"success": true, "event": ev})
			return
		}
		if !errors.Is(err, persistence.ErrNotFound) {
			slog.Warn("cache lookup failed", "error", err)
		}
	}

	c := character.New("旅人", character.ProfessionWarrior)
	c.Level = level
	ev := s.fallback.Generate(c, location)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "event": ev})
}

func (s *Server) handleDialogue(w http.ResponseWriter, r *http.Request) {
	var req llm.DialogueRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.NPCName == "" || req.PlayerName == "" {
		writeError(w, http.StatusBadRequest, "missing_fields", "npc_name and player_name are required")
		return
	}
	if !s.Client.Enabled() {
		writeError(w, http.StatusServiceUnavailable, "llm_unavailable", "dialogue generation requires an API key")
		return
	}

	dialogue, err := llm.GenerateDialogue(r.Context(), s.Client, req)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "generation_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "dialogue": dialogue})
}

func (s *Server) handleSectEvent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Character characterPayload `json:"character"`
		SectName  string           `json:"sect_name"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Character.Name == "" || req.SectName == "" {
		writeError(w, http.StatusBadRequest, "missing_fields", "character.name and sect_name are required")
		return
	}

	c := s.character(req.Character)
	if s.Client.Enabled() {
		ev, err := llm.GenerateSectEvent(r.Context(), s.Client, llm.Summarize(c), req.SectName)
		if err == nil {
			writeJSON(w, http.StatusOK, map[string]any{"success": true, "event": ev, "source": event.SourceLLM})
			return
		}
		slog.Warn("sect event generation failed, falling back", "error", err)
	}

	ev := s.fallback.Generate(c, req.SectName)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "event": ev, "source": event.SourceTemplate})
}

func (s *Server) handleRumors(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Storyline string `json:"storyline"`
		Location  string `json:"location"`
		Count     int    `json:"count"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Storyline == "" {
		writeError(w, http.StatusBadRequest, "missing_fields", "storyline is required")
		return
	}
	if !s.Client.Enabled() {
		writeError(w, http.StatusServiceUnavailable, "llm_unavailable", "rumor generation requires an API key")
		return
	}
	if req.Count < 1 {
		req.Count = 3
	}
	if req.Count > maxBatchCount {
		req.Count = maxBatchCount
	}

	rumors, err := llm.GenerateRumors(r.Context(), s.Client, character.Storyline(req.Storyline), req.Location, req.Count)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "generation_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "rumors": rumors})
}

func (s *Server) handleMartialArts(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Storyline string `json:"storyline"`
		Style     string `json:"style"`
		Count     int    `json:"count"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Storyline == "" {
		writeError(w, http.StatusBadRequest, "missing_fields", "storyline is required")
		return
	}
	if !s.Client.Enabled() {
		writeError(w, http.StatusServiceUnavailable, "llm_unavailable", "martial-arts generation requires an API key")
		return
	}
	if req.Count < 1 {
		req.Count = 3
	}
	if req.Count > maxBatchCount {
		req.Count = maxBatchCount
	}

	arts, err := llm.GenerateMartialArts(r.Context(), s.Client, character.Storyline(req.Storyline), req.Style, req.Count)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "generation_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "martial_arts": arts})
}

func (s *Server) handleEncounter(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Character characterPayload `json:"character"`
		Location  string           `json:"location"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Character.Name == "" || req.Location == "" {
		writeError(w, http.StatusBadRequest, "missing_fields", "character.name and location are required")
		return
	}

	c := s.character(req.Character)
	if s.Client.Enabled() {
		ev, err := llm.GenerateEncounter(r.Context(), s.Client, llm.Summarize(c), req.Location)
		if err == nil {
			writeJSON(w, http.StatusOK, map[string]any{"success": true, "event": ev, "source": event.SourceLLM})
			return
		}
		slog.Warn("encounter generation failed, falling back", "error", err)
	}

	ev := s.fallback.Generate(c, req.Location)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "event": ev, "source": event.SourceTemplate})
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Character characterPayload `json:"character"`
		Location  string           `json:"location"`
		Context   string           `json:"context"`
		Count     int              `json:"count"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Character.Name == "" || req.Location == "" {
		writeError(w, http.StatusBadRequest, "missing_fields", "character.name and location are required")
		return
	}
	if req.Count < 1 {
		req.Count = 5
	}
	if req.Count > maxBatchCount {
		req.Count = maxBatchCount
	}

	c := s.character(req.Character)
	events, source := s.generateChain(r, c, req.Location, req.Context, req.Count)
	writeJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"events":       events,
		"generated_at": time.Now().UTC(),
		"source":       source,
	})
}

// handleCacheClear empties the generated-event cache. Requires the
// admin key; with no key configured the endpoint does not exist.
func (s *Server) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	if s.AdminKey == "" {
		writeError(w, http.StatusNotFound, "not_found", "unknown endpoint")
		return
	}
	if r.Header.Get("X-Admin-Key") != s.AdminKey {
		writeError(w, http.StatusUnauthorized, "unauthorized", "invalid admin key")
		return
	}
	if s.DB == nil {
		writeError(w, http.StatusServiceUnavailable, "storage_unavailable", "no database configured")
		return
	}

	n, err := s.DB.ClearEvents()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "storage_error", err.Error())
		return
	}
	slog.Info("event cache cleared", "removed", n)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "cleared": n})
}

// decodeBody parses the JSON request body; writes 400 and returns false
// on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"error":   code,
		"message": message,
	})
}
