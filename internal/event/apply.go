package event

import (
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/oiahoon/adventure-simulator/internal/character"
)

// ApplyResult reports what an effect application changed. Changes holds
// one human-readable line per non-zero field for the event log. Died is
// the character-death signal: the caller ends the session. NoEffect
// lets callers skip UI refresh for empty deltas.
type ApplyResult struct {
	Changes    []string
	Died       bool
	NoEffect   bool
	CapReached bool
}

// Apply merges a normalized effect delta into the character. Pure state
// merge — rendering is the caller's concern. levelCap of 0 means
// uncapped.
func Apply(c *character.Character, d *EffectDelta, levelCap int) ApplyResult {
	var res ApplyResult
	if d.IsZero() {
		res.NoEffect = true
		return res
	}
	d.Normalize()

	applyAttributes(c, d.Attributes, &res)
	applyPersonality(c, d.Personality, &res)
	applySocial(c, d.Social, &res)
	applyStatus(c, d.Status, levelCap, &res)

	for _, skill := range d.Skills {
		if skill == "" || c.HasSkill(skill) {
			continue
		}
		c.Skills[skill] = 1
		res.Changes = append(res.Changes, fmt.Sprintf("学会技能「%s」", skill))
	}
	for _, name := range d.Items {
		if name == "" || c.HasItem(name) {
			continue
		}
		c.Inventory = append(c.Inventory, character.Item{Name: name})
		res.Changes = append(res.Changes, fmt.Sprintf("获得物品「%s」", name))
	}
	for _, title := range d.Titles {
		if title == "" || c.HasTitle(title) {
			continue
		}
		c.Social.Titles = append(c.Social.Titles, title)
		res.Changes = append(res.Changes, fmt.Sprintf("获得称号「%s」", title))
	}
	for _, id := range d.Achievements {
		if id == "" || c.HasAchievement(id) {
			continue
		}
		c.Achievements = append(c.Achievements, id)
		res.Changes = append(res.Changes, fmt.Sprintf("解锁成就「%s」", id))
	}

	if len(res.Changes) == 0 {
		res.NoEffect = true
	}
	return res
}

func applyAttributes(c *character.Character, deltas map[string]int, res *ApplyResult) {
	for key, delta := range deltas {
		if delta == 0 {
			continue
		}
		field := attributeField(c, key)
		if field == nil {
			continue
		}
		*field += delta
		if *field < 1 {
			*field = 1
		}
		res.Changes = append(res.Changes, changeLine(key, delta))
	}
	// Attribute shifts can move the derived maxima.
	c.ClampVitals()
}

func applyPersonality(c *character.Character, deltas map[string]int, res *ApplyResult) {
	for key, delta := range deltas {
		if delta == 0 {
			continue
		}
		field := personalityField(c, key)
		if field == nil {
			continue
		}
		*field += delta
		if *field < 0 {
			*field = 0
		}
		if *field > 100 {
			*field = 100
		}
		res.Changes = append(res.Changes, changeLine(key, delta))
	}
}

func applySocial(c *character.Character, deltas map[string]int, res *ApplyResult) {
	changed := false
	for key, delta := range deltas {
		if delta == 0 {
			continue
		}
		switch key {
		case "reputation":
			c.Social.Reputation += delta
		case "influence":
			c.Social.Influence += delta
			if c.Social.Influence < 0 {
				c.Social.Influence = 0
			}
		case "karma":
			c.Social.Karma += delta
		default:
			continue
		}
		changed = true
		res.Changes = append(res.Changes, changeLine(key, delta))
	}
	if changed {
		c.UpdateSocialStatus()
	}
}

func applyStatus(c *character.Character, deltas map[string]int, levelCap int, res *ApplyResult) {
	for key, delta := range deltas {
		if delta == 0 {
			continue
		}
		switch key {
		case "hp":
			c.Status.HP += delta
			if max := c.MaxHP(); c.Status.HP > max {
				c.Status.HP = max
			}
			if c.Status.HP <= 0 {
				c.Status.HP = 0
				res.Died = true
			}
			res.Changes = append(res.Changes, changeLine("hp", delta))
		case "mp":
			c.Status.MP += delta
			if max := c.MaxMP(); c.Status.MP > max {
				c.Status.MP = max
			}
			if c.Status.MP < 0 {
				c.Status.MP = 0
			}
			res.Changes = append(res.Changes, changeLine("mp", delta))
		case "wealth":
			c.Status.Wealth += delta
			if c.Status.Wealth < 0 {
				c.Status.Wealth = 0
			}
			res.Changes = append(res.Changes, fmt.Sprintf("财富 %s (现有 %s)",
				signed(delta), humanize.Comma(int64(c.Status.Wealth))))
		case "fatigue":
			c.Status.Fatigue += delta
			if c.Status.Fatigue < 0 {
				c.Status.Fatigue = 0
			}
			if c.Status.Fatigue > 100 {
				c.Status.Fatigue = 100
			}
			res.Changes = append(res.Changes, changeLine("fatigue", delta))
		case "experience":
			if delta <= 0 {
				continue
			}
			lvl := c.GainExperience(delta, levelCap)
			res.Changes = append(res.Changes, fmt.Sprintf("经验 +%s", humanize.Comma(int64(delta))))
			if lvl.LevelsGained > 0 {
				res.Changes = append(res.Changes, fmt.Sprintf("升级！当前等级 %d（%s）",
					lvl.NewLevel, c.Status.Cultivation))
			}
			if lvl.CapReached {
				res.CapReached = true
			}
		}
	}
}

func signed(v int) string {
	if v >= 0 {
		return fmt.Sprintf("+%d", v)
	}
	return fmt.Sprintf("%d", v)
}

func changeLine(field string, delta int) string {
	return fmt.Sprintf("%s %s", fieldLabel(field), signed(delta))
}

// fieldLabel maps delta keys to the labels used in event-log lines.
var fieldLabels = map[string]string{
	"strength": "力量", "intelligence": "智力", "dexterity": "敏捷",
	"constitution": "体质", "charisma": "魅力", "luck": "幸运",
	"courage": "勇气", "wisdom": "智慧", "compassion": "慈悲",
	"ambition": "野心", "curiosity": "好奇", "patience": "耐心",
	"pride": "傲气", "loyalty": "忠诚",
	"reputation": "声望", "influence": "影响力", "karma": "因果",
	"hp": "气血", "mp": "真元", "fatigue": "疲劳",
}

func fieldLabel(field string) string {
	if label, ok := fieldLabels[field]; ok {
		return label
	}
	return field
}

func attributeField(c *character.Character, key string) *int {
	switch key {
	case "strength":
		return &c.Attributes.Strength
	case "intelligence":
		return &c.Attributes.Intelligence
	case "dexterity":
		return &c.Attributes.Dexterity
	case "constitution":
		return &c.Attributes.Constitution
	case "charisma":
		return &c.Attributes.Charisma
	case "luck":
		return &c.Attributes.Luck
	}
	return nil
}

func personalityField(c *character.Character, key string) *int {
	switch key {
	case "courage":
		return &c.Personality.Courage
	case "wisdom":
		return &c.Personality.Wisdom
	case "compassion":
		return &c.Personality.Compassion
	case "ambition":
		return &c.Personality.Ambition
	case "curiosity":
		return &c.Personality.Curiosity
	case "patience":
		return &c.Personality.Patience
	case "pride":
		return &c.Personality.Pride
	case "loyalty":
		return &c.Personality.Loyalty
	}
	return nil
}
