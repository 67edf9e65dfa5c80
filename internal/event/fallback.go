package event

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/oiahoon/adventure-simulator/internal/character"
	"github.com/oiahoon/adventure-simulator/internal/entropy"
)

// template is a statically authored event scaled by character level.
type template struct {
	Title  string
	Desc   string // fmt template with the character name
	Type   string
	Rarity Rarity
	Status map[string]int
}

// locationTemplates buckets templates by location id; the "" bucket is
// the generic catch-all.
var locationTemplates = map[string][]template{
	"": {
		{
			Title:  "山路偶遇",
			Desc:   "%s在山路上遇到一位赶路的行脚商人，闲聊几句，打听到一些江湖近况。",
			Type:   "encounter",
			Rarity: RarityCommon,
			Status: map[string]int{"experience": 20},
		},
		{
			Title:  "静坐修炼",
			Desc:   "%s寻了处僻静角落打坐调息，呼吸吐纳之间，只觉神清气爽。",
			Type:   "training",
			Rarity: RarityCommon,
			Status: map[string]int{"experience": 30, "mp": 10, "fatigue": -10},
		},
		{
			Title:  "夜雨突至",
			Desc:   "%s赶路途中忽逢夜雨，淋了个透湿，只得寻客栈投宿，花去些盘缠。",
			Type:   "misfortune",
			Rarity: RarityCommon,
			Status: map[string]int{"wealth": -10, "fatigue": 5},
		},
		{
			Title:  "路见不平",
			Desc:   "%s路遇恶霸欺压百姓，出手相助，虽受了点轻伤，却赢得一片喝彩。",
			Type:   "social",
			Rarity: RarityUncommon,
			Status: map[string]int{"hp": -15, "experience": 50},
		},
		{
			Title:  "奇书残页",
			Desc:   "%s在路边旧书摊的故纸堆里翻出半页残卷，上面记载的口诀玄奥异常，细细参详之下获益匪浅。",
			Type:   "discovery",
			Rarity: RarityRare,
			Status: map[string]int{"experience": 150, "wealth": -20},
		},
		{
			Title:  "前辈遗泽",
			Desc:   "%s误入一处早已废弃的洞府，前人留下的一缕精纯灵机尚未散尽，吐纳之间修为大进。",
			Type:   "fortune",
			Rarity: RarityLegendary,
			Status: map[string]int{"experience": 300, "mp": 30},
		},
	},
	"village": {
		{
			Title:  "村中集市",
			Desc:   "%s逛了逛村口的小集市，顺手帮摊主搬了几筐货，得了几个铜钱谢礼。",
			Type:   "trade",
			Rarity: RarityCommon,
			Status: map[string]int{"wealth": 15, "experience": 10},
		},
		{
			Title:  "老者指点",
			Desc:   "%s在村头老树下听一位白发老者讲古，老者见其根骨不凡，随口指点了几句吐纳法门。",
			Type:   "fortune",
			Rarity: RarityUncommon,
			Status: map[string]int{"experience": 80},
		},
	},
	"forest": {
		{
			Title:  "林间采药",
			Desc:   "%s在林中认出几株年份不错的药草，小心采下，转手便能卖个好价钱。",
			Type:   "treasure",
			Rarity: RarityCommon,
			Status: map[string]int{"wealth": 30, "experience": 15},
		},
		{
			Title:  "野兽袭击",
			Desc:   "%s穿林而过时惊动了一头野猪，一番缠斗才将其击退，身上添了几道擦伤。",
			Type:   "combat",
			Rarity: RarityCommon,
			Status: map[string]int{"hp": -20, "experience": 60},
		},
	},
	"city": {
		{
			Title:  "酒楼听书",
			Desc:   "%s在酒楼里听说书人讲前朝侠客的轶事，听得入神，末了打赏了几个铜钱。",
			Type:   "rumor",
			Rarity: RarityCommon,
			Status: map[string]int{"wealth": -5, "experience": 25},
		},
		{
			Title:  "比武切磋",
			Desc:   "%s受邀与城中武馆弟子切磋，点到即止，双方都颇有收获。",
			Type:   "challenge",
			Rarity: RarityUncommon,
			Status: map[string]int{"hp": -10, "experience": 70},
		},
	},
}

// Fallback deterministically generates template events. Always
// succeeds: the last resort of the selection priority, so the pipeline
// has a result even with zero LLM availability.
type Fallback struct {
	rng *entropy.Source
}

// NewFallback creates a template generator over the given source.
func NewFallback(rng *entropy.Source) *Fallback {
	return &Fallback{rng: rng}
}

// defaultRarityWeights is the long-run rarity mix when no fortune bias
// is in play, indexed common/uncommon/rare/legendary.
var defaultRarityWeights = []float64{60, 25, 12, 3}

func rarityIndex(r Rarity) int {
	switch r {
	case RarityUncommon:
		return 1
	case RarityRare:
		return 2
	case RarityLegendary:
		return 3
	default:
		return 0
	}
}

// Generate produces one template event for the character at a location
// using the default rarity mix. Unknown locations fall through to the
// generic bucket.
func (f *Fallback) Generate(c *character.Character, location string) *Event {
	return f.GenerateWeighted(c, location, defaultRarityWeights)
}

// GenerateWeighted draws a template with per-rarity selection weights
// (indexed common/uncommon/rare/legendary), so callers can bias the
// pick toward rarer templates when fortune runs high.
func (f *Fallback) GenerateWeighted(c *character.Character, location string, rarityWeights []float64) *Event {
	pool := locationTemplates[location]
	pool = append(pool, locationTemplates[""]...)

	weights := make([]float64, len(pool))
	for i, t := range pool {
		if idx := rarityIndex(t.Rarity); idx < len(rarityWeights) {
			weights[i] = rarityWeights[idx]
		}
	}
	pick := f.rng.Pick(weights)
	if pick < 0 {
		pick = f.rng.Intn(len(pool))
	}
	t := pool[pick]

	// Scale numeric rewards gently with level so templates stay
	// relevant past the early game.
	scale := 1 + (c.Level-1)/5
	status := make(map[string]int, len(t.Status))
	for k, v := range t.Status {
		if k == "experience" || k == "wealth" {
			status[k] = v * scale
		} else {
			status[k] = v
		}
	}

	return &Event{
		ID:          uuid.NewString(),
		Title:       t.Title,
		Description: fmt.Sprintf(t.Desc, c.Name),
		Type:        t.Type,
		Rarity:      t.Rarity,
		Effects:     &EffectDelta{Status: status},
		Source:      SourceTemplate,
		CreatedAt:   time.Now(),
	}
}
