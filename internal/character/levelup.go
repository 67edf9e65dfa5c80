package character

// Points granted per level gained.
const (
	attributePointsPerLevel = 3
	skillPointsPerLevel     = 1
)

// RequiredExp returns the experience needed to advance from level-1 to
// the given level. Strictly increasing in level.
func RequiredExp(level int) int {
	if level <= 1 {
		return 0
	}
	prev := level - 1
	return 100 * prev * prev
}

// LevelUpResult describes what happened during an experience grant.
type LevelUpResult struct {
	LevelsGained    int
	NewLevel        int
	AttributePoints int
	SkillPoints     int
	CapReached      bool
}

// GainExperience adds exp and resolves any level-ups: while the pool
// covers the next threshold, subtract it, raise the level, grant
// points, and restore hp/mp to the new maxima. A cap of 0 means
// uncapped; reaching a positive cap stops further gains and reports
// CapReached so the caller can end the session.
func (c *Character) GainExperience(exp int, cap int) LevelUpResult {
	res := LevelUpResult{NewLevel: c.Level}
	if exp <= 0 {
		return res
	}

	c.Experience += exp
	for {
		if cap > 0 && c.Level >= cap {
			res.CapReached = true
			break
		}
		need := RequiredExp(c.Level + 1)
		if c.Experience < need {
			break
		}
		c.Experience -= need
		c.Level++
		res.LevelsGained++
		res.AttributePoints += attributePointsPerLevel
		res.SkillPoints += skillPointsPerLevel
	}

	if res.LevelsGained > 0 {
		c.AttributePoints += res.AttributePoints
		c.SkillPoints += res.SkillPoints
		c.Status.Cultivation = CultivationRank(c.Storyline, c.Level)
		// Level-up fully restores vitals to the new maxima.
		c.Status.HP = c.MaxHP()
		c.Status.MP = c.MaxMP()
	}
	res.NewLevel = c.Level
	return res
}
