package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/oiahoon/adventure-simulator/internal/entropy"
	"github.com/oiahoon/adventure-simulator/internal/event"
	"github.com/oiahoon/adventure-simulator/internal/llm"
	"github.com/oiahoon/adventure-simulator/internal/persistence"
)

// End reasons surfaced to the player.
const (
	EndReasonDeath    = "death"
	EndReasonMaxLevel = "max_level"
)

// Options tunes a session.
type Options struct {
	// LevelCap ends the session at this level. 0 = uncapped.
	LevelCap int
	// AutosaveEvery persists the state every N ticks. 0 disables.
	AutosaveEvery uint64
	// EventChance is the per-tick probability of rolling an event.
	EventChance float64
	// LLMChance is the probability a rolled event tries the LLM path
	// first (when the client is enabled). Fortune shifts it.
	LLMChance float64
}

// DefaultOptions returns the standard session tuning.
func DefaultOptions() Options {
	return Options{
		AutosaveEvery: 50,
		EventChance:   0.4,
		LLMChance:     0.25,
	}
}

// Session owns one State. All mutation happens through Tick, which is
// serialized by the session mutex — the single-writer rule that keeps
// out-of-order async generation results from clobbering each other.
type Session struct {
	ID    string
	State *State

	opts     Options
	client   *llm.Client
	db       *persistence.DB
	fallback *event.Fallback
	rng      *entropy.Source
	fortune  *Fortune

	mu        sync.Mutex
	ended     bool
	endReason string
	// storageDown flips after a failed save; the session keeps running
	// in memory and only warns once.
	storageDown bool
}

// NewSession wires a session. db may be nil (in-memory only); client
// may be nil (template events only).
func NewSession(id string, state *State, opts Options, client *llm.Client, db *persistence.DB, rng *entropy.Source, seed int64) *Session {
	return &Session{
		ID:       id,
		State:    state,
		opts:     opts,
		client:   client,
		db:       db,
		fallback: event.NewFallback(rng),
		rng:      rng,
		fortune:  NewFortune(seed),
	}
}

// Ended reports whether the session is over and why.
func (s *Session) Ended() (bool, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ended, s.endReason
}

// Tick advances the game by one step: passive regen, maybe an event,
// achievement checks, autosave. Returns the log entry when an event
// fired, nil otherwise.
func (s *Session) Tick(ctx context.Context) *LogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ended {
		return nil
	}

	s.State.GameTime++
	s.passiveRegen()

	var entry *LogEntry
	if s.rng.Float() < s.opts.EventChance {
		entry = s.runEvent(ctx)
	}

	if names := evaluateAchievements(s.State); len(names) > 0 {
		for _, name := range names {
			slog.Info("achievement unlocked", "session", s.ID, "name", name)
		}
	}

	if s.opts.AutosaveEvery > 0 && s.State.GameTime%s.opts.AutosaveEvery == 0 {
		s.save()
	}

	if s.ended {
		s.save()
	}
	return entry
}

// passiveRegen applies per-tick recovery: slow hp/mp regen, fatigue
// decay.
func (s *Session) passiveRegen() {
	c := s.State.Character
	if c.Status.HP > 0 && c.Status.HP < c.MaxHP() {
		c.Status.HP++
	}
	if c.Status.MP < c.MaxMP() {
		c.Status.MP++
	}
	if c.Status.Fatigue > 0 {
		c.Status.Fatigue--
	}
}

// runEvent resolves one event through the source priority chain:
// LLM first (probabilistically, when enabled), then the database cache,
// then the static templates. Every failure falls through; the chain
// never surfaces an error to the player.
func (s *Session) runEvent(ctx context.Context) *LogEntry {
	c := s.State.Character

	var ev *event.Event
	llmChance := s.opts.LLMChance * (1 + 0.5*s.fortune.At(s.State.GameTime))
	if s.client.Enabled() && s.rng.Float() < llmChance {
		events, err := llm.GenerateEvents(ctx, s.client, llm.Summarize(c), s.State.CurrentLocation, "", 1)
		if err != nil {
			slog.Warn("llm generation failed, falling back", "session", s.ID, "error", err)
			s.State.Statistics.Rejected++
		} else {
			ev = events[0]
			s.cacheEvents(events)
		}
	}

	if ev == nil && s.db != nil {
		cached, err := s.db.RandomCachedEvent(c.Storyline, s.State.CurrentLocation, "")
		if err == nil {
			ev = cached
		} else if !errors.Is(err, persistence.ErrNotFound) {
			slog.Warn("cache lookup failed", "session", s.ID, "error", err)
		}
	}

	if ev == nil {
		// Fortune biases the template draw toward rarer entries.
		ev = s.fallback.GenerateWeighted(c, s.State.CurrentLocation,
			s.fortune.RarityWeights(s.State.GameTime))
	}

	return s.applyEvent(ev)
}

// applyEvent merges an event's effects into the character and appends
// the history entry. Choice events are auto-resolved with a random
// pick, weighted toward low-difficulty options.
func (s *Session) applyEvent(ev *event.Event) *LogEntry {
	delta := ev.Effects
	if len(ev.Choices) > 0 {
		choice := s.pickChoice(ev.Choices)
		delta = choiceDelta(choice)
	}
	if delta == nil {
		delta = &event.EffectDelta{}
	}

	res := event.Apply(s.State.Character, delta, s.opts.LevelCap)

	entry := LogEntry{
		GameTime: s.State.GameTime,
		EventID:  ev.ID,
		Title:    ev.Title,
		Source:   ev.Source,
		Rarity:   string(ev.Rarity),
		Changes:  res.Changes,
	}
	s.State.EventHistory = append(s.State.EventHistory, entry)

	s.State.Statistics.TotalEvents++
	switch ev.Source {
	case event.SourceLLM:
		s.State.Statistics.LLMEvents++
	case event.SourceCache:
		s.State.Statistics.CacheEvents++
	default:
		s.State.Statistics.TemplateEvents++
	}

	if res.Died {
		s.State.Statistics.Deaths++
		s.end(EndReasonDeath)
	} else if res.CapReached {
		s.end(EndReasonMaxLevel)
	}
	return &entry
}

// pickChoice weights options inversely to their difficulty.
func (s *Session) pickChoice(choices []event.Choice) event.Choice {
	weights := make([]float64, len(choices))
	for i, ch := range choices {
		d := ch.Difficulty
		if d == 0 {
			d = 50
		}
		weights[i] = float64(100 - d)
	}
	idx := s.rng.Pick(weights)
	if idx < 0 {
		idx = 0
	}
	return choices[idx]
}

// choiceDelta lifts a choice's flat effect map into an EffectDelta.
// hp/mp/wealth/experience/fatigue are status fields; reputation is
// social.
func choiceDelta(ch event.Choice) *event.EffectDelta {
	d := &event.EffectDelta{}
	for key, val := range ch.Effects {
		if val == 0 {
			continue
		}
		if key == "reputation" {
			if d.Social == nil {
				d.Social = map[string]int{}
			}
			d.Social[key] = val
			continue
		}
		if d.Status == nil {
			d.Status = map[string]int{}
		}
		d.Status[key] = val
	}
	return d
}

func (s *Session) cacheEvents(events []*event.Event) {
	if s.db == nil {
		return
	}
	err := s.db.CacheEvents(s.State.Character.Storyline, s.State.CurrentLocation, events)
	if err != nil {
		slog.Warn("event cache write failed", "session", s.ID, "error", err)
	}
}

func (s *Session) end(reason string) {
	s.ended = true
	s.endReason = reason
	slog.Info("session ended", "session", s.ID, "reason", reason,
		"level", s.State.Character.Level, "game_time", s.State.GameTime)
}

// save persists the state. Storage failure degrades to in-memory
// operation with a single warning, never a crash.
func (s *Session) save() {
	if s.db == nil {
		return
	}
	payload, err := s.State.Marshal()
	if err != nil {
		slog.Error("state marshal failed", "session", s.ID, "error", err)
		return
	}
	if err := s.db.SaveState(s.ID, payload); err != nil {
		if !s.storageDown {
			s.storageDown = true
			slog.Warn("storage unavailable, continuing in memory", "session", s.ID, "error", err)
		}
		return
	}
	s.storageDown = false
}

// Save forces a persistence write outside the autosave cadence.
func (s *Session) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	payload, err := s.State.Marshal()
	if err != nil {
		return err
	}
	return s.db.SaveState(s.ID, payload)
}

// LoadSession restores a saved session.
func LoadSession(id string, opts Options, client *llm.Client, db *persistence.DB, rng *entropy.Source, seed int64) (*Session, error) {
	if db == nil {
		return nil, fmt.Errorf("load session: no database")
	}
	payload, err := db.LoadState(id)
	if err != nil {
		return nil, err
	}
	state, err := UnmarshalState(payload)
	if err != nil {
		return nil, err
	}
	return NewSession(id, state, opts, client, db, rng, seed), nil
}
