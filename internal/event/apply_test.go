package event

import (
	"testing"

	"github.com/oiahoon/adventure-simulator/internal/character"
)

func newTestCharacter() *character.Character {
	return character.New("云逸", character.ProfessionWarrior)
}

func TestApplyClampInvariants(t *testing.T) {
	// Large random-ish deltas must never leave vitals outside bounds.
	deltas := []*EffectDelta{
		{Status: map[string]int{"hp": 99999, "mp": 99999, "fatigue": 500}},
		{Status: map[string]int{"mp": -99999, "fatigue": -500}},
		{Personality: map[string]int{"courage": 999, "pride": -999}},
		{Attributes: map[string]int{"strength": -999, "luck": 500}},
	}

	c := newTestCharacter()
	for _, d := range deltas {
		Apply(c, d, 0)

		if c.Status.HP < 0 || c.Status.HP > c.MaxHP() {
			t.Fatalf("hp %d outside [0,%d]", c.Status.HP, c.MaxHP())
		}
		if c.Status.MP < 0 || c.Status.MP > c.MaxMP() {
			t.Fatalf("mp %d outside [0,%d]", c.Status.MP, c.MaxMP())
		}
		if c.Status.Fatigue < 0 || c.Status.Fatigue > 100 {
			t.Fatalf("fatigue %d outside [0,100]", c.Status.Fatigue)
		}
		for _, trait := range []int{
			c.Personality.Courage, c.Personality.Wisdom, c.Personality.Compassion,
			c.Personality.Ambition, c.Personality.Curiosity, c.Personality.Patience,
			c.Personality.Pride, c.Personality.Loyalty,
		} {
			if trait < 0 || trait > 100 {
				t.Fatalf("personality trait %d outside [0,100]", trait)
			}
		}
	}
}

func TestApplyAttributeFloor(t *testing.T) {
	c := newTestCharacter()
	Apply(c, &EffectDelta{Attributes: map[string]int{"strength": -100}}, 0)
	if c.Attributes.Strength != 1 {
		t.Errorf("strength = %d, want floored at 1", c.Attributes.Strength)
	}
}

func TestApplyDeathSignal(t *testing.T) {
	c := newTestCharacter()
	c.Status.HP = 50

	res := Apply(c, &EffectDelta{Status: map[string]int{"hp": -1000}}, 0)

	if c.Status.HP != 0 {
		t.Errorf("hp = %d, want 0", c.Status.HP)
	}
	if !res.Died {
		t.Error("Died = false, want death signal")
	}
}

func TestApplyWealthFloor(t *testing.T) {
	c := newTestCharacter()
	c.Status.Wealth = 30
	Apply(c, &EffectDelta{Status: map[string]int{"wealth": -100}}, 0)
	if c.Status.Wealth != 0 {
		t.Errorf("wealth = %d, want floored at 0", c.Status.Wealth)
	}
}

func TestApplyInfluenceFloorReputationUnbounded(t *testing.T) {
	c := newTestCharacter()
	res := Apply(c, &EffectDelta{Social: map[string]int{
		"influence": -50, "reputation": -500, "karma": -20,
	}}, 0)

	if c.Social.Influence != 0 {
		t.Errorf("influence = %d, want floored at 0", c.Social.Influence)
	}
	if c.Social.Reputation != -500 {
		t.Errorf("reputation = %d, want -500 (unclamped)", c.Social.Reputation)
	}
	if c.Social.Karma != -20 {
		t.Errorf("karma = %d, want -20 (unclamped)", c.Social.Karma)
	}
	if c.Social.SocialStatus != character.StatusOutcast {
		t.Errorf("social status = %s, want outcast after reputation drop", c.Social.SocialStatus)
	}
	if res.NoEffect {
		t.Error("NoEffect = true for a real change")
	}
}

func TestApplyExperienceRoutesThroughLevelUp(t *testing.T) {
	c := newTestCharacter()
	res := Apply(c, &EffectDelta{Status: map[string]int{"experience": 100}}, 0)

	if c.Level != 2 {
		t.Errorf("level = %d, want 2", c.Level)
	}
	if c.Status.HP != c.MaxHP() {
		t.Errorf("hp = %d, want restored to %d on level-up", c.Status.HP, c.MaxHP())
	}
	if len(res.Changes) == 0 {
		t.Error("no change log lines for experience gain")
	}
}

func TestApplyLevelCapSignal(t *testing.T) {
	c := newTestCharacter()
	c.Level = 50
	res := Apply(c, &EffectDelta{Status: map[string]int{"experience": 10_000_000}}, 50)
	if !res.CapReached {
		t.Error("CapReached = false at level cap")
	}
	if c.Level != 50 {
		t.Errorf("level = %d, want held at 50", c.Level)
	}
}

func TestApplySkillGrantIdempotent(t *testing.T) {
	c := newTestCharacter()

	Apply(c, &EffectDelta{Skills: []string{"fireball"}}, 0)
	Apply(c, &EffectDelta{Skills: []string{"fireball"}}, 0)

	if len(c.Skills) != 1 {
		t.Fatalf("skills = %v, want exactly one entry", c.Skills)
	}
	if !c.HasSkill("fireball") {
		t.Error("fireball missing")
	}
}

func TestApplyTitleAndAchievementUnion(t *testing.T) {
	c := newTestCharacter()
	d := &EffectDelta{
		Titles:       []string{"初出茅庐", "初出茅庐"},
		Achievements: []string{"first_blood"},
		Items:        []string{"疗伤药", "疗伤药"},
	}
	Apply(c, d, 0)
	Apply(c, d, 0)

	if len(c.Social.Titles) != 1 {
		t.Errorf("titles = %v, want one entry", c.Social.Titles)
	}
	if len(c.Achievements) != 1 {
		t.Errorf("achievements = %v, want one entry", c.Achievements)
	}
	if len(c.Inventory) != 1 {
		t.Errorf("inventory = %v, want one entry", c.Inventory)
	}
}

func TestApplyEmptyDeltaNoEffect(t *testing.T) {
	c := newTestCharacter()
	res := Apply(c, &EffectDelta{}, 0)
	if !res.NoEffect {
		t.Error("NoEffect = false for empty delta")
	}
	if len(res.Changes) != 0 {
		t.Errorf("changes = %v, want none", res.Changes)
	}
}

func TestApplyUnknownKeysDropped(t *testing.T) {
	c := newTestCharacter()
	hpBefore := c.Status.HP
	res := Apply(c, &EffectDelta{Status: map[string]int{"stamina": 50}}, 0)
	if c.Status.HP != hpBefore {
		t.Error("unknown status key mutated state")
	}
	if !res.NoEffect {
		t.Error("NoEffect = false when every key is unknown")
	}
}
