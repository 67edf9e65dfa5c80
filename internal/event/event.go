// Package event provides the generated-event model, the validator and
// best-effort fixer for LLM output, effect application onto a
// character, and the static fallback generator.
package event

import (
	"time"
)

// Rarity orders event significance for weighted selection.
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityUncommon  Rarity = "uncommon"
	RarityRare      Rarity = "rare"
	RarityLegendary Rarity = "legendary"
)

// Source tags where an event came from.
const (
	SourceLLM      = "llm"
	SourceCache    = "cache"
	SourceTemplate = "template"
)

// Choice is one player option on a choice-style event.
type Choice struct {
	Text        string         `json:"text"`
	Difficulty  int            `json:"difficulty,omitempty"`
	Requirement string         `json:"requirement,omitempty"`
	Effects     map[string]int `json:"effects,omitempty"`
}

// Event is a single narrative event. Choice events carry Choices;
// outcome events carry Effects. Both shapes share the envelope.
type Event struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Type        string       `json:"type"`
	Rarity      Rarity       `json:"rarity"`
	Choices     []Choice     `json:"choices,omitempty"`
	Effects     *EffectDelta `json:"effects,omitempty"`
	Impact      string       `json:"impact_description,omitempty"`
	Source      string       `json:"source,omitempty"`
	CreatedAt   time.Time    `json:"created_at,omitempty"`
}

// EffectDelta describes changes to apply to a character. Every field is
// optional; numeric maps hold signed deltas keyed by allow-listed field
// names, list fields are set-union grants.
type EffectDelta struct {
	Attributes   map[string]int `json:"attributes,omitempty"`
	Personality  map[string]int `json:"personality,omitempty"`
	Social       map[string]int `json:"social,omitempty"`
	Status       map[string]int `json:"status,omitempty"`
	Skills       []string       `json:"skills,omitempty"`
	Items        []string       `json:"items,omitempty"`
	Titles       []string       `json:"titles,omitempty"`
	Achievements []string       `json:"achievements,omitempty"`
}

// Allow-lists for EffectDelta keys. Unknown keys are dropped by
// Normalize, never propagated.
var (
	attributeKeys = map[string]bool{
		"strength": true, "intelligence": true, "dexterity": true,
		"constitution": true, "charisma": true, "luck": true,
	}
	personalityKeys = map[string]bool{
		"courage": true, "wisdom": true, "compassion": true,
		"ambition": true, "curiosity": true, "patience": true,
		"pride": true, "loyalty": true,
	}
	socialKeys = map[string]bool{
		"reputation": true, "influence": true, "karma": true,
	}
	statusKeys = map[string]bool{
		"hp": true, "mp": true, "wealth": true,
		"experience": true, "fatigue": true,
	}
)

// Normalize drops unknown keys from every delta map.
func (d *EffectDelta) Normalize() {
	d.Attributes = filterKeys(d.Attributes, attributeKeys)
	d.Personality = filterKeys(d.Personality, personalityKeys)
	d.Social = filterKeys(d.Social, socialKeys)
	d.Status = filterKeys(d.Status, statusKeys)
}

// IsZero reports whether the delta would change nothing.
func (d *EffectDelta) IsZero() bool {
	if d == nil {
		return true
	}
	for _, m := range []map[string]int{d.Attributes, d.Personality, d.Social, d.Status} {
		for _, v := range m {
			if v != 0 {
				return false
			}
		}
	}
	return len(d.Skills) == 0 && len(d.Items) == 0 &&
		len(d.Titles) == 0 && len(d.Achievements) == 0
}

func filterKeys(m map[string]int, allowed map[string]bool) map[string]int {
	if m == nil {
		return nil
	}
	out := make(map[string]int, len(m))
	for k, v := range m {
		if allowed[k] {
			out[k] = v
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
