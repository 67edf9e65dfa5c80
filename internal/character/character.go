// Package character provides the player character data model, derived
// combat stats, storyline assignment, and the level-up procedure.
package character

import (
	"time"
)

// Profession represents a character's vocation, fixed at creation.
type Profession string

const (
	ProfessionWarrior  Profession = "warrior"
	ProfessionMage     Profession = "mage"
	ProfessionRogue    Profession = "rogue"
	ProfessionScholar  Profession = "scholar"
	ProfessionMerchant Profession = "merchant"
	ProfessionHealer   Profession = "healer"
)

// Professions lists all valid professions.
var Professions = []Profession{
	ProfessionWarrior, ProfessionMage, ProfessionRogue,
	ProfessionScholar, ProfessionMerchant, ProfessionHealer,
}

// SocialStatus is a coarse standing tier derived from reputation.
type SocialStatus string

const (
	StatusOutcast   SocialStatus = "outcast"
	StatusCommoner  SocialStatus = "commoner"
	StatusRespected SocialStatus = "respected"
	StatusRenowned  SocialStatus = "renowned"
	StatusLegendary SocialStatus = "legendary"
)

// Attributes are the six core ability scores. Each has a soft floor of 1.
type Attributes struct {
	Strength     int `json:"strength"`
	Intelligence int `json:"intelligence"`
	Dexterity    int `json:"dexterity"`
	Constitution int `json:"constitution"`
	Charisma     int `json:"charisma"`
	Luck         int `json:"luck"`
}

// Personality holds the eight trait scores, each clamped to 0–100.
type Personality struct {
	Courage    int `json:"courage"`
	Wisdom     int `json:"wisdom"`
	Compassion int `json:"compassion"`
	Ambition   int `json:"ambition"`
	Curiosity  int `json:"curiosity"`
	Patience   int `json:"patience"`
	Pride      int `json:"pride"`
	Loyalty    int `json:"loyalty"`
}

// Social tracks standing in the world. Reputation and karma are signed
// and unbounded; influence floors at zero.
type Social struct {
	Reputation   int          `json:"reputation"`
	Influence    int          `json:"influence"`
	Karma        int          `json:"karma"`
	SocialStatus SocialStatus `json:"social_status"`
	Titles       []string     `json:"titles"`
}

// Status holds the mutable vitals. HP and MP are clamped against the
// derived maxima at every mutation; fatigue is 0–100.
type Status struct {
	HP          int    `json:"hp"`
	MP          int    `json:"mp"`
	Wealth      int    `json:"wealth"`
	Fatigue     int    `json:"fatigue"`
	Cultivation string `json:"cultivation"`
}

// EquipSlot names an equipment slot. At most one item per slot.
type EquipSlot string

const (
	SlotWeapon    EquipSlot = "weapon"
	SlotArmor     EquipSlot = "armor"
	SlotAccessory EquipSlot = "accessory"
	SlotBoots     EquipSlot = "boots"
)

// Item is an inventory or equipment entry.
type Item struct {
	Name    string    `json:"name"`
	Slot    EquipSlot `json:"slot,omitempty"`
	Attack  int       `json:"attack,omitempty"`
	Defense int       `json:"defense,omitempty"`
}

// Character is the single mutable record a game session owns.
type Character struct {
	Name       string     `json:"name"`
	Profession Profession `json:"profession"`
	Storyline  Storyline  `json:"storyline"`

	Level      int `json:"level"`
	Experience int `json:"experience"`

	// Unspent points granted by level-ups.
	AttributePoints int `json:"attribute_points"`
	SkillPoints     int `json:"skill_points"`

	Attributes  Attributes  `json:"attributes"`
	Personality Personality `json:"personality"`
	Social      Social      `json:"social"`
	Status      Status      `json:"status"`

	Equipment    map[EquipSlot]Item `json:"equipment"`
	Inventory    []Item             `json:"inventory"`
	Skills       map[string]int     `json:"skills"`
	Achievements []string           `json:"achievements"`

	CreatedAt time.Time `json:"created_at"`
}

// New creates a level-1 character with baseline stats. The storyline is
// auto-assigned from the name.
func New(name string, profession Profession) *Character {
	c := &Character{
		Name:       name,
		Profession: profession,
		Storyline:  AssignStoryline(name),
		Level:      1,
		Attributes: Attributes{
			Strength: 10, Intelligence: 10, Dexterity: 10,
			Constitution: 10, Charisma: 10, Luck: 10,
		},
		Personality: Personality{
			Courage: 50, Wisdom: 50, Compassion: 50, Ambition: 50,
			Curiosity: 50, Patience: 50, Pride: 50, Loyalty: 50,
		},
		Social: Social{
			SocialStatus: StatusCommoner,
			Titles:       []string{},
		},
		Status: Status{
			Wealth: 100,
		},
		Equipment:    map[EquipSlot]Item{},
		Inventory:    []Item{},
		Skills:       map[string]int{},
		Achievements: []string{},
		CreatedAt:    time.Now(),
	}
	c.Status.Cultivation = CultivationRank(c.Storyline, c.Level)
	c.Status.HP = c.MaxHP()
	c.Status.MP = c.MaxMP()
	return c
}

// MaxHP derives the hit-point ceiling from constitution and level.
func (c *Character) MaxHP() int {
	return 100 + c.Attributes.Constitution*10 + (c.Level-1)*20
}

// MaxMP derives the mana ceiling from intelligence and level.
func (c *Character) MaxMP() int {
	return 50 + c.Attributes.Intelligence*8 + (c.Level-1)*10
}

// TotalAttack sums strength, equipment attack, and combat skill levels.
func (c *Character) TotalAttack() int {
	total := c.Attributes.Strength * 2
	for _, item := range c.Equipment {
		total += item.Attack
	}
	for _, lvl := range c.Skills {
		total += lvl
	}
	return total
}

// TotalDefense sums constitution and equipment defense.
func (c *Character) TotalDefense() int {
	total := c.Attributes.Constitution
	for _, item := range c.Equipment {
		total += item.Defense
	}
	return total
}

// CriticalRate is a percentage in [0, 50] from luck and dexterity.
func (c *Character) CriticalRate() int {
	rate := c.Attributes.Luck/2 + c.Attributes.Dexterity/4
	if rate > 50 {
		rate = 50
	}
	return rate
}

// DodgeRate is a percentage in [0, 40] from dexterity.
func (c *Character) DodgeRate() int {
	rate := c.Attributes.Dexterity / 2
	if rate > 40 {
		rate = 40
	}
	return rate
}

// HasSkill reports whether the character knows the named skill.
func (c *Character) HasSkill(name string) bool {
	_, ok := c.Skills[name]
	return ok
}

// HasTitle reports whether the character holds the given title.
func (c *Character) HasTitle(title string) bool {
	for _, t := range c.Social.Titles {
		if t == title {
			return true
		}
	}
	return false
}

// HasAchievement reports whether the achievement is already unlocked.
func (c *Character) HasAchievement(id string) bool {
	for _, a := range c.Achievements {
		if a == id {
			return true
		}
	}
	return false
}

// HasItem reports whether an inventory item with the given name exists.
func (c *Character) HasItem(name string) bool {
	for _, it := range c.Inventory {
		if it.Name == name {
			return true
		}
	}
	return false
}

// UpdateSocialStatus recomputes the standing tier from reputation.
func (c *Character) UpdateSocialStatus() {
	switch rep := c.Social.Reputation; {
	case rep < -100:
		c.Social.SocialStatus = StatusOutcast
	case rep < 100:
		c.Social.SocialStatus = StatusCommoner
	case rep < 500:
		c.Social.SocialStatus = StatusRespected
	case rep < 2000:
		c.Social.SocialStatus = StatusRenowned
	default:
		c.Social.SocialStatus = StatusLegendary
	}
}

// ClampVitals pulls hp/mp back inside their derived maxima and fatigue
// into 0–100. Called after any mutation that can change the maxima.
func (c *Character) ClampVitals() {
	if max := c.MaxHP(); c.Status.HP > max {
		c.Status.HP = max
	}
	if c.Status.HP < 0 {
		c.Status.HP = 0
	}
	if max := c.MaxMP(); c.Status.MP > max {
		c.Status.MP = max
	}
	if c.Status.MP < 0 {
		c.Status.MP = 0
	}
	if c.Status.Fatigue < 0 {
		c.Status.Fatigue = 0
	}
	if c.Status.Fatigue > 100 {
		c.Status.Fatigue = 100
	}
}
