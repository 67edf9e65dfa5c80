package event

import (
	"fmt"
	"strings"
)

// Validation bounds. Lengths count runes, not bytes, since generated
// content is frequently CJK.
const (
	TitleMinLen       = 2
	TitleMaxLen       = 50
	DescriptionMinLen = 20
	DescriptionMaxLen = 500
	ChoiceMinCount    = 2
	ChoiceMaxCount    = 6
	ChoiceTextMinLen  = 3
	ChoiceTextMaxLen  = 100
	DifficultyMin     = 10
	DifficultyMax     = 90
	EffectValueMax    = 1000
	BalanceLimit      = 200
)

// ValidationError reports why an event was rejected. Rejected events
// are discarded and counted, never silently accepted.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid event: %s: %s", e.Field, e.Reason)
}

// choiceEffectKeys is the allow-list for per-choice effect keys.
var choiceEffectKeys = map[string]bool{
	"hp": true, "mp": true, "wealth": true,
	"reputation": true, "experience": true, "fatigue": true,
}

// requirementKeys is the allow-list for choice ability requirements.
var requirementKeys = map[string]bool{
	"strength": true, "intelligence": true, "dexterity": true,
	"constitution": true, "charisma": true, "luck": true,
}

// EventTypes is the fixed category-tag allow-list.
var EventTypes = map[string]bool{
	"adventure": true, "combat": true, "social": true, "mystery": true,
	"treasure": true, "training": true, "romance": true, "trade": true,
	"exploration": true, "cultivation": true, "sect": true, "rumor": true,
	"encounter": true, "fortune": true, "misfortune": true, "festival": true,
	"challenge": true, "discovery": true, "karma": true, "legacy": true,
}

var validRarities = map[Rarity]bool{
	RarityCommon: true, RarityUncommon: true,
	RarityRare: true, RarityLegendary: true,
}

// contentBlacklist holds sensitive terms that reject an event outright.
// Substring match over title + description, not semantic.
var contentBlacklist = []string{
	"自杀", "自残", "血腥", "色情", "政治", "恐怖袭击",
	"suicide", "self-harm", "gore", "porn", "terrorist",
}

// Validator checks candidate events against the schema and content
// rules, and repairs repairable violations.
type Validator struct {
	// Rejected counts discarded candidates, for diagnostics.
	Rejected int
}

// Validate reports nil when the event satisfies every rule without
// fixing, otherwise a *ValidationError naming the first violation.
func (v *Validator) Validate(e *Event) error {
	if err := v.check(e); err != nil {
		v.Rejected++
		return err
	}
	return nil
}

func (v *Validator) check(e *Event) error {
	if e == nil {
		return &ValidationError{Field: "event", Reason: "missing"}
	}
	if e.ID == "" {
		return &ValidationError{Field: "id", Reason: "required"}
	}
	if e.Title == "" {
		return &ValidationError{Field: "title", Reason: "required"}
	}
	if e.Description == "" {
		return &ValidationError{Field: "description", Reason: "required"}
	}
	if e.Type == "" {
		return &ValidationError{Field: "type", Reason: "required"}
	}
	if len(e.Choices) == 0 && e.Effects == nil {
		return &ValidationError{Field: "choices", Reason: "event has neither choices nor effects"}
	}

	if n := len([]rune(e.Title)); n < TitleMinLen || n > TitleMaxLen {
		return &ValidationError{Field: "title", Reason: fmt.Sprintf("length %d outside [%d,%d]", n, TitleMinLen, TitleMaxLen)}
	}
	if n := len([]rune(e.Description)); n < DescriptionMinLen || n > DescriptionMaxLen {
		return &ValidationError{Field: "description", Reason: fmt.Sprintf("length %d outside [%d,%d]", n, DescriptionMinLen, DescriptionMaxLen)}
	}
	if !EventTypes[e.Type] {
		return &ValidationError{Field: "type", Reason: fmt.Sprintf("unknown category %q", e.Type)}
	}
	if !validRarities[e.Rarity] {
		return &ValidationError{Field: "rarity", Reason: fmt.Sprintf("unknown rarity %q", e.Rarity)}
	}

	if err := checkContent(e); err != nil {
		return err
	}

	if len(e.Choices) > 0 {
		if err := checkChoices(e.Choices); err != nil {
			return err
		}
		if err := checkBalance(e.Choices); err != nil {
			return err
		}
	}
	return nil
}

func checkContent(e *Event) error {
	text := strings.ToLower(e.Title + " " + e.Description)
	for _, term := range contentBlacklist {
		if strings.Contains(text, term) {
			return &ValidationError{Field: "content", Reason: "contains blacklisted term"}
		}
	}
	return nil
}

func checkChoices(choices []Choice) error {
	if len(choices) < ChoiceMinCount || len(choices) > ChoiceMaxCount {
		return &ValidationError{Field: "choices", Reason: fmt.Sprintf("count %d outside [%d,%d]", len(choices), ChoiceMinCount, ChoiceMaxCount)}
	}
	for i, ch := range choices {
		if n := len([]rune(ch.Text)); n < ChoiceTextMinLen || n > ChoiceTextMaxLen {
			return &ValidationError{Field: fmt.Sprintf("choices[%d].text", i), Reason: fmt.Sprintf("length %d outside [%d,%d]", n, ChoiceTextMinLen, ChoiceTextMaxLen)}
		}
		if ch.Difficulty != 0 && (ch.Difficulty < DifficultyMin || ch.Difficulty > DifficultyMax) {
			return &ValidationError{Field: fmt.Sprintf("choices[%d].difficulty", i), Reason: fmt.Sprintf("%d outside [%d,%d]", ch.Difficulty, DifficultyMin, DifficultyMax)}
		}
		if ch.Requirement != "" && !requirementKeys[ch.Requirement] {
			return &ValidationError{Field: fmt.Sprintf("choices[%d].requirement", i), Reason: fmt.Sprintf("unknown ability %q", ch.Requirement)}
		}
		for key, val := range ch.Effects {
			if !choiceEffectKeys[key] {
				return &ValidationError{Field: fmt.Sprintf("choices[%d].effects", i), Reason: fmt.Sprintf("unknown key %q", key)}
			}
			if val > EffectValueMax || val < -EffectValueMax {
				return &ValidationError{Field: fmt.Sprintf("choices[%d].effects.%s", i, key), Reason: fmt.Sprintf("magnitude %d exceeds %d", val, EffectValueMax)}
			}
		}
	}
	return nil
}

// checkBalance rejects events whose average positive or average
// negative effect magnitude across choices exceeds the limit. Rejected,
// never clamped: an unbalanced event is a bad event, not a fixable one.
func checkBalance(choices []Choice) error {
	var posSum, negSum, posN, negN int
	for _, ch := range choices {
		for _, val := range ch.Effects {
			if val > 0 {
				posSum += val
				posN++
			} else if val < 0 {
				negSum += -val
				negN++
			}
		}
	}
	if posN > 0 && posSum/posN > BalanceLimit {
		return &ValidationError{Field: "choices", Reason: "unbalanced: average positive effect too large"}
	}
	if negN > 0 && negSum/negN > BalanceLimit {
		return &ValidationError{Field: "choices", Reason: "unbalanced: average negative effect too large"}
	}
	return nil
}

// Fix repairs repairable violations in place and returns the event:
// clamps out-of-range numbers, truncates over-length strings with an
// ellipsis, and fills rarity/type defaults. It does not re-run the
// balance or content checks. Fix is idempotent.
func (v *Validator) Fix(e *Event) *Event {
	if e == nil {
		return nil
	}
	e.Title = truncateRunes(e.Title, TitleMaxLen)
	e.Description = truncateRunes(e.Description, DescriptionMaxLen)
	if !validRarities[e.Rarity] {
		// Unknown rarities (including the legacy "epic") map to rare.
		e.Rarity = RarityRare
	}
	if !EventTypes[e.Type] {
		e.Type = "adventure"
	}

	if len(e.Choices) > ChoiceMaxCount {
		e.Choices = e.Choices[:ChoiceMaxCount]
	}
	for i := range e.Choices {
		ch := &e.Choices[i]
		ch.Text = truncateRunes(ch.Text, ChoiceTextMaxLen)
		if ch.Difficulty != 0 {
			ch.Difficulty = clamp(ch.Difficulty, DifficultyMin, DifficultyMax)
		}
		if ch.Requirement != "" && !requirementKeys[ch.Requirement] {
			ch.Requirement = ""
		}
		for key, val := range ch.Effects {
			if !choiceEffectKeys[key] {
				delete(ch.Effects, key)
				continue
			}
			ch.Effects[key] = clamp(val, -EffectValueMax, EffectValueMax)
		}
	}

	if e.Effects != nil {
		e.Effects.Normalize()
	}
	return e
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
