package engine

import (
	"github.com/oiahoon/adventure-simulator/internal/character"
)

// AchievementRule is one declarative unlock condition, evaluated
// uniformly every tick. Predicates must be pure reads.
type AchievementRule struct {
	ID    string
	Name  string
	Check func(c *character.Character, s *State) bool
}

// AchievementRules is the full rule table.
var AchievementRules = []AchievementRule{
	{
		ID:   "first_steps",
		Name: "初入江湖",
		Check: func(c *character.Character, s *State) bool {
			return s.Statistics.TotalEvents >= 1
		},
	},
	{
		ID:   "seasoned",
		Name: "见多识广",
		Check: func(c *character.Character, s *State) bool {
			return s.Statistics.TotalEvents >= 100
		},
	},
	{
		ID:   "level_10",
		Name: "小有所成",
		Check: func(c *character.Character, s *State) bool {
			return c.Level >= 10
		},
	},
	{
		ID:   "level_30",
		Name: "名动一方",
		Check: func(c *character.Character, s *State) bool {
			return c.Level >= 30
		},
	},
	{
		ID:   "wealthy",
		Name: "富甲一方",
		Check: func(c *character.Character, s *State) bool {
			return c.Status.Wealth >= 10000
		},
	},
	{
		ID:   "renowned",
		Name: "声名远扬",
		Check: func(c *character.Character, s *State) bool {
			return c.Social.Reputation >= 500
		},
	},
	{
		ID:   "notorious",
		Name: "恶名昭彰",
		Check: func(c *character.Character, s *State) bool {
			return c.Social.Reputation <= -200
		},
	},
	{
		ID:   "skill_collector",
		Name: "博采众长",
		Check: func(c *character.Character, s *State) bool {
			return len(c.Skills) >= 5
		},
	},
	{
		ID:   "titled",
		Name: "身负盛名",
		Check: func(c *character.Character, s *State) bool {
			return len(c.Social.Titles) >= 3
		},
	},
	{
		ID:   "survivor",
		Name: "大难不死",
		Check: func(c *character.Character, s *State) bool {
			return c.Status.HP > 0 && c.Status.HP*10 <= c.MaxHP()
		},
	},
}

// evaluateAchievements grants any newly satisfied rules. Set-union:
// an achievement unlocks at most once. Returns the names unlocked this
// pass for the event log.
func evaluateAchievements(s *State) []string {
	var unlocked []string
	for _, rule := range AchievementRules {
		if s.HasAchievement(rule.ID) {
			continue
		}
		if !rule.Check(s.Character, s) {
			continue
		}
		s.Achievements = append(s.Achievements, rule.ID)
		if !s.Character.HasAchievement(rule.ID) {
			s.Character.Achievements = append(s.Character.Achievements, rule.ID)
		}
		unlocked = append(unlocked, rule.Name)
	}
	return unlocked
}
