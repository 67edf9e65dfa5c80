package character

import (
	"hash/fnv"
	"strings"
)

// Storyline is one of the five static theme presets. It drives prompt
// vocabulary and cultivation-rank naming.
type Storyline string

const (
	StorylineXianxia  Storyline = "xianxia"
	StorylineXuanhuan Storyline = "xuanhuan"
	StorylineScifi    Storyline = "scifi"
	StorylineWuxia    Storyline = "wuxia"
	StorylineFantasy  Storyline = "fantasy"
)

// Storylines lists all presets in a stable order.
var Storylines = []Storyline{
	StorylineXianxia, StorylineXuanhuan, StorylineScifi,
	StorylineWuxia, StorylineFantasy,
}

// storylineHints maps name substrings to a storyline. First match wins,
// scanned in Storylines order.
var storylineHints = map[Storyline][]string{
	StorylineXianxia:  {"仙", "道", "真", "玄天", "云", "灵", "immortal", "dao"},
	StorylineXuanhuan: {"魔", "帝", "天", "武", "斗", "demon", "emperor"},
	StorylineScifi:    {"星", "机", "量子", "nova", "x-", "cyber", "mech", "star"},
	StorylineWuxia:    {"剑", "侠", "刀", "江湖", "blade", "sword"},
	StorylineFantasy:  {"dragon", "elf", "rune", "龙", "魔法"},
}

// AssignStoryline picks a storyline from name heuristics. Names with no
// hint hash to a stable preset so the assignment survives reloads.
func AssignStoryline(name string) Storyline {
	lower := strings.ToLower(name)
	for _, s := range Storylines {
		for _, hint := range storylineHints[s] {
			if strings.Contains(lower, hint) {
				return s
			}
		}
	}

	h := fnv.New32a()
	h.Write([]byte(name))
	return Storylines[int(h.Sum32())%len(Storylines)]
}

// cultivationRanks holds the ordered progression-tier labels per
// storyline. Index advances one rank every 10 levels.
var cultivationRanks = map[Storyline][]string{
	StorylineXianxia:  {"练气期", "筑基期", "金丹期", "元婴期", "化神期", "大乘期"},
	StorylineXuanhuan: {"斗者", "斗师", "斗灵", "斗王", "斗皇", "斗帝"},
	StorylineScifi:    {"学员", "士官", "指挥官", "舰长", "上将", "元帅"},
	StorylineWuxia:    {"不入流", "三流高手", "二流高手", "一流高手", "绝顶高手", "宗师"},
	StorylineFantasy:  {"见习者", "冒险者", "精英", "大师", "传奇", "神话"},
}

// CultivationRank returns the rank label for a storyline at a level.
// Levels past the table clamp to the final rank.
func CultivationRank(s Storyline, level int) string {
	ranks, ok := cultivationRanks[s]
	if !ok {
		ranks = cultivationRanks[StorylineFantasy]
	}
	idx := (level - 1) / 10
	if idx < 0 {
		idx = 0
	}
	if idx >= len(ranks) {
		idx = len(ranks) - 1
	}
	return ranks[idx]
}
