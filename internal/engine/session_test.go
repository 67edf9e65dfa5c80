package engine

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/oiahoon/adventure-simulator/internal/character"
	"github.com/oiahoon/adventure-simulator/internal/entropy"
	"github.com/oiahoon/adventure-simulator/internal/event"
	"github.com/oiahoon/adventure-simulator/internal/llm"
	"github.com/oiahoon/adventure-simulator/internal/persistence"
)

func newTestSession(t *testing.T, opts Options, client *llm.Client, db *persistence.DB) *Session {
	t.Helper()
	c := character.New("云逸", character.ProfessionWarrior)
	state := NewState(c, "village")
	return NewSession("test-session", state, opts, client, db, entropy.NewSource(42), 42)
}

func TestTickTemplateOnly(t *testing.T) {
	opts := DefaultOptions()
	opts.EventChance = 1.0
	s := newTestSession(t, opts, nil, nil)

	ctx := context.Background()
	for i := 0; i < 20; i++ {
		entry := s.Tick(ctx)
		if entry == nil {
			t.Fatalf("tick %d: no event despite EventChance=1", i)
		}
		if entry.Source != event.SourceTemplate {
			t.Fatalf("tick %d: source = %s, want template without llm/db", i, entry.Source)
		}
	}

	if s.State.GameTime != 20 {
		t.Errorf("game time = %d, want 20", s.State.GameTime)
	}
	if s.State.Statistics.TotalEvents != 20 {
		t.Errorf("total events = %d, want 20", s.State.Statistics.TotalEvents)
	}
	if s.State.Statistics.TemplateEvents != 20 {
		t.Errorf("template events = %d, want 20", s.State.Statistics.TemplateEvents)
	}
	if len(s.State.EventHistory) != 20 {
		t.Errorf("history length = %d, want 20", len(s.State.EventHistory))
	}
}

func TestTickNoEventWhenChanceZero(t *testing.T) {
	opts := DefaultOptions()
	opts.EventChance = 0
	s := newTestSession(t, opts, nil, nil)

	for i := 0; i < 10; i++ {
		if entry := s.Tick(context.Background()); entry != nil {
			t.Fatalf("tick %d produced an event with EventChance=0", i)
		}
	}
	if s.State.GameTime != 10 {
		t.Errorf("game time = %d, want 10", s.State.GameTime)
	}
}

func TestPassiveRegen(t *testing.T) {
	opts := DefaultOptions()
	opts.EventChance = 0
	s := newTestSession(t, opts, nil, nil)

	c := s.State.Character
	c.Status.HP = 10
	c.Status.MP = 5
	c.Status.Fatigue = 3

	s.Tick(context.Background())

	if c.Status.HP != 11 {
		t.Errorf("hp = %d, want 11", c.Status.HP)
	}
	if c.Status.MP != 6 {
		t.Errorf("mp = %d, want 6", c.Status.MP)
	}
	if c.Status.Fatigue != 2 {
		t.Errorf("fatigue = %d, want 2", c.Status.Fatigue)
	}
}

func TestDeathEndsSession(t *testing.T) {
	s := newTestSession(t, DefaultOptions(), nil, nil)

	s.applyEvent(&event.Event{
		ID:     "lethal",
		Title:  "致命一击",
		Source: event.SourceTemplate,
		Effects: &event.EffectDelta{
			Status: map[string]int{"hp": -100000},
		},
	})

	ended, reason := s.Ended()
	if !ended {
		t.Fatal("session still running after death")
	}
	if reason != EndReasonDeath {
		t.Errorf("end reason = %s, want death", reason)
	}
	if s.State.Statistics.Deaths != 1 {
		t.Errorf("deaths = %d, want 1", s.State.Statistics.Deaths)
	}

	// An ended session ignores further ticks.
	before := s.State.GameTime
	if entry := s.Tick(context.Background()); entry != nil {
		t.Error("ended session produced an event")
	}
	if s.State.GameTime != before {
		t.Error("ended session advanced game time")
	}
}

func TestLevelCapEndsSession(t *testing.T) {
	opts := DefaultOptions()
	opts.LevelCap = 2
	s := newTestSession(t, opts, nil, nil)
	s.State.Character.Level = 2

	s.applyEvent(&event.Event{
		ID:     "big-exp",
		Title:  "顿悟",
		Source: event.SourceTemplate,
		Effects: &event.EffectDelta{
			Status: map[string]int{"experience": 1000},
		},
	})

	ended, reason := s.Ended()
	if !ended || reason != EndReasonMaxLevel {
		t.Fatalf("ended=%v reason=%s, want max_level end", ended, reason)
	}
}

func TestChoiceEventsAutoResolve(t *testing.T) {
	s := newTestSession(t, DefaultOptions(), nil, nil)
	wealthBefore := s.State.Character.Status.Wealth

	// Both choices pay out, so any pick must raise wealth.
	s.applyEvent(&event.Event{
		ID:     "windfall",
		Title:  "意外之财",
		Source: event.SourceTemplate,
		Choices: []event.Choice{
			{Text: "收下钱财", Difficulty: 20, Effects: map[string]int{"wealth": 50}},
			{Text: "分给路人", Difficulty: 60, Effects: map[string]int{"wealth": 10, "reputation": 10}},
		},
	})

	if s.State.Character.Status.Wealth <= wealthBefore {
		t.Errorf("wealth = %d, want above %d after payout choice",
			s.State.Character.Status.Wealth, wealthBefore)
	}
}

func TestFirstStepsAchievement(t *testing.T) {
	opts := DefaultOptions()
	opts.EventChance = 1.0
	s := newTestSession(t, opts, nil, nil)

	s.Tick(context.Background())

	if !s.State.HasAchievement("first_steps") {
		t.Error("first_steps not unlocked after first event")
	}
	if !s.State.Character.HasAchievement("first_steps") {
		t.Error("achievement missing from character record")
	}

	// Re-evaluating must not duplicate.
	n := len(s.State.Achievements)
	s.Tick(context.Background())
	for _, id := range s.State.Achievements[:n] {
		count := 0
		for _, a := range s.State.Achievements {
			if a == id {
				count++
			}
		}
		if count != 1 {
			t.Errorf("achievement %s granted %d times", id, count)
		}
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	db, err := persistence.Open(filepath.Join(t.TempDir(), "session.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	opts := DefaultOptions()
	opts.EventChance = 1.0
	s := newTestSession(t, opts, nil, db)
	for i := 0; i < 5; i++ {
		s.Tick(context.Background())
	}
	if err := s.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}

	restored, err := LoadSession("test-session", opts, nil, db, entropy.NewSource(7), 7)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if restored.State.GameTime != s.State.GameTime {
		t.Errorf("game time = %d, want %d", restored.State.GameTime, s.State.GameTime)
	}
	if len(restored.State.EventHistory) != len(s.State.EventHistory) {
		t.Errorf("history length = %d, want %d",
			len(restored.State.EventHistory), len(s.State.EventHistory))
	}

	// Compare characters through their JSON form; time.Time fields make
	// direct struct comparison brittle.
	want, _ := json.Marshal(s.State.Character)
	got, _ := json.Marshal(restored.State.Character)
	if string(got) != string(want) {
		t.Errorf("character drifted through save/load:\n got %s\nwant %s", got, want)
	}
}

func TestLoadSessionMissing(t *testing.T) {
	db, err := persistence.Open(filepath.Join(t.TempDir(), "empty.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	if _, err := LoadSession("nope", DefaultOptions(), nil, db, entropy.NewSource(1), 1); err == nil {
		t.Fatal("loading a missing save succeeded")
	}
}

func TestLLMFailureFallsBackToTemplate(t *testing.T) {
	// Upstream answers with prose only; the chain must land on a
	// template event and count the rejection.
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "抱歉，我无法生成事件。"}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer ts.Close()

	client := llm.NewClient("test-key", llm.WithBaseURL(ts.URL), llm.WithMinDelay(0))
	opts := DefaultOptions()
	opts.EventChance = 1.0
	// Above 2.0 the fortune modifier cannot pull the chance below 1.
	opts.LLMChance = 2.0
	s := newTestSession(t, opts, client, nil)

	entry := s.Tick(context.Background())
	if entry == nil {
		t.Fatal("no event produced")
	}
	if entry.Source != event.SourceTemplate {
		t.Errorf("source = %s, want template fallback", entry.Source)
	}
	if s.State.Statistics.Rejected == 0 {
		t.Error("rejected counter not bumped on llm failure")
	}
}

func TestLLMEventsGetCached(t *testing.T) {
	content := `[{
		"title": "林中偶遇",
		"description": "你在密林深处遇到了一位受伤的旅人，他恳求你伸出援手帮他包扎伤口。",
		"type": "encounter",
		"rarity": "common",
		"choices": [
			{"text": "救助旅人", "difficulty": 30, "effects": {"experience": 40}},
			{"text": "转身离开", "effects": {"fatigue": 2}}
		]
	}]`
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": content}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer ts.Close()

	db, err := persistence.Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	client := llm.NewClient("test-key", llm.WithBaseURL(ts.URL), llm.WithMinDelay(0))
	opts := DefaultOptions()
	opts.EventChance = 1.0
	opts.LLMChance = 2.0
	s := newTestSession(t, opts, client, db)

	entry := s.Tick(context.Background())
	if entry == nil {
		t.Fatal("no event produced")
	}
	if entry.Source != event.SourceLLM {
		t.Fatalf("source = %s, want llm", entry.Source)
	}

	n, err := db.CachedEventCount()
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("cached events = %d, want 1", n)
	}
}
