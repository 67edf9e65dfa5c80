// Package engine provides the game session: state ownership, the tick
// loop, event-source selection, achievements, and the fortune field.
package engine

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/oiahoon/adventure-simulator/internal/character"
)

// LogEntry is one line of the append-only event history.
type LogEntry struct {
	GameTime uint64   `json:"game_time"`
	EventID  string   `json:"event_id"`
	Title    string   `json:"title"`
	Source   string   `json:"source"`
	Rarity   string   `json:"rarity"`
	Changes  []string `json:"changes,omitempty"`
}

// Statistics holds per-session counters.
type Statistics struct {
	TotalEvents    int `json:"total_events"`
	LLMEvents      int `json:"llm_events"`
	CacheEvents    int `json:"cache_events"`
	TemplateEvents int `json:"template_events"`
	Rejected       int `json:"rejected"`
	Deaths         int `json:"deaths"`
}

// State is the wholesale-serialized game state a session owns.
type State struct {
	Character       *character.Character `json:"character"`
	CurrentLocation string               `json:"current_location"`
	GameTime        uint64               `json:"game_time"`
	EventHistory    []LogEntry           `json:"event_history"`
	Achievements    []string             `json:"achievements"`
	Statistics      Statistics           `json:"statistics"`
	Timestamp       time.Time            `json:"timestamp"`
}

// NewState creates a fresh state for a character at the start location.
func NewState(c *character.Character, location string) *State {
	return &State{
		Character:       c,
		CurrentLocation: location,
		EventHistory:    []LogEntry{},
		Achievements:    []string{},
		Timestamp:       time.Now(),
	}
}

// Marshal serializes the state for persistence.
func (s *State) Marshal() ([]byte, error) {
	s.Timestamp = time.Now()
	payload, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal state: %w", err)
	}
	return payload, nil
}

// UnmarshalState restores a state from a persisted blob.
func UnmarshalState(payload []byte) (*State, error) {
	var s State
	if err := json.Unmarshal(payload, &s); err != nil {
		return nil, fmt.Errorf("unmarshal state: %w", err)
	}
	if s.Character == nil {
		return nil, fmt.Errorf("unmarshal state: missing character")
	}
	return &s, nil
}

// HasAchievement reports whether the session unlocked the achievement.
func (s *State) HasAchievement(id string) bool {
	for _, a := range s.Achievements {
		if a == id {
			return true
		}
	}
	return false
}
