package character

import "testing"

func TestRequiredExpMonotonic(t *testing.T) {
	for level := 2; level <= 100; level++ {
		if RequiredExp(level) <= RequiredExp(level-1) {
			t.Fatalf("RequiredExp(%d)=%d not greater than RequiredExp(%d)=%d",
				level, RequiredExp(level), level-1, RequiredExp(level-1))
		}
	}
}

func TestGainExperienceSingleLevel(t *testing.T) {
	c := New("李青", ProfessionWarrior)
	if got := RequiredExp(2); got != 100 {
		t.Fatalf("RequiredExp(2) = %d, want 100", got)
	}

	res := c.GainExperience(100, 0)

	if c.Level != 2 {
		t.Errorf("level = %d, want 2", c.Level)
	}
	if res.LevelsGained != 1 {
		t.Errorf("levels gained = %d, want 1", res.LevelsGained)
	}
	if c.Experience != 0 {
		t.Errorf("leftover experience = %d, want 0", c.Experience)
	}
	if c.Status.HP != c.MaxHP() {
		t.Errorf("hp = %d, want restored to max %d", c.Status.HP, c.MaxHP())
	}
	if c.Status.MP != c.MaxMP() {
		t.Errorf("mp = %d, want restored to max %d", c.Status.MP, c.MaxMP())
	}
}

func TestGainExperienceMultiLevel(t *testing.T) {
	c := New("李青", ProfessionWarrior)
	// Enough for level 2 (100) and level 3 (400), plus 50 spare.
	res := c.GainExperience(550, 0)

	if c.Level != 3 {
		t.Errorf("level = %d, want 3", c.Level)
	}
	if res.LevelsGained != 2 {
		t.Errorf("levels gained = %d, want 2", res.LevelsGained)
	}
	if c.Experience != 50 {
		t.Errorf("leftover experience = %d, want 50", c.Experience)
	}
	if c.AttributePoints != 2*attributePointsPerLevel {
		t.Errorf("attribute points = %d, want %d", c.AttributePoints, 2*attributePointsPerLevel)
	}
}

func TestGainExperienceCap(t *testing.T) {
	c := New("李青", ProfessionWarrior)
	c.Level = 50

	res := c.GainExperience(1_000_000, 50)

	if c.Level != 50 {
		t.Errorf("level = %d, want capped at 50", c.Level)
	}
	if !res.CapReached {
		t.Error("CapReached = false, want true")
	}
}

func TestGainExperienceTerminates(t *testing.T) {
	c := New("李青", ProfessionWarrior)
	// A huge single grant must terminate and land on a consistent state.
	c.GainExperience(10_000_000, 0)

	if c.Level < 2 {
		t.Errorf("level = %d, want > 1", c.Level)
	}
	if c.Experience >= RequiredExp(c.Level+1) {
		t.Errorf("experience %d not consumed below next threshold %d",
			c.Experience, RequiredExp(c.Level+1))
	}
}

func TestGainExperienceIgnoresNonPositive(t *testing.T) {
	c := New("李青", ProfessionWarrior)
	res := c.GainExperience(0, 0)
	if res.LevelsGained != 0 || c.Experience != 0 {
		t.Errorf("zero grant changed state: %+v exp=%d", res, c.Experience)
	}
	res = c.GainExperience(-50, 0)
	if res.LevelsGained != 0 || c.Experience != 0 {
		t.Errorf("negative grant changed state: %+v exp=%d", res, c.Experience)
	}
}

func TestCultivationAdvancesWithLevel(t *testing.T) {
	c := New("张仙云", ProfessionMage)
	c.Storyline = StorylineXianxia
	before := CultivationRank(c.Storyline, c.Level)

	c.GainExperience(RequiredExp(2)+RequiredExp(3)+RequiredExp(4)+
		RequiredExp(5)+RequiredExp(6)+RequiredExp(7)+RequiredExp(8)+
		RequiredExp(9)+RequiredExp(10)+RequiredExp(11), 0)

	if c.Level < 11 {
		t.Fatalf("level = %d, want >= 11", c.Level)
	}
	if c.Status.Cultivation == before {
		t.Errorf("cultivation did not advance past %q at level %d", before, c.Level)
	}
}
