package llm

import (
	"fmt"
	"strings"

	"github.com/oiahoon/adventure-simulator/internal/character"
	"github.com/oiahoon/adventure-simulator/internal/event"
)

// storylineThemes maps each storyline to the vocabulary the prompt
// steers the model toward.
var storylineThemes = map[character.Storyline][]string{
	character.StorylineXianxia:  {"修仙", "灵气", "丹药", "法宝", "天劫", "洞府", "仙缘"},
	character.StorylineXuanhuan: {"斗气", "魔兽", "炼药", "古族", "秘境", "血脉", "帝境"},
	character.StorylineScifi:    {"星舰", "机甲", "人工智能", "虫族", "跃迁", "殖民地", "量子"},
	character.StorylineWuxia:    {"江湖", "门派", "轻功", "暗器", "恩怨", "侠义", "武林大会"},
	character.StorylineFantasy:  {"魔法", "巨龙", "精灵", "符文", "地下城", "圣剑", "王国"},
}

// storylineSetting is the one-line world framing per storyline.
var storylineSetting = map[character.Storyline]string{
	character.StorylineXianxia:  "一个凡人可以通过修炼问鼎长生的修仙世界",
	character.StorylineXuanhuan: "一个强者为尊、斗气与血脉决定命运的玄幻大陆",
	character.StorylineScifi:    "一个人类舰队在星海间开拓殖民地的未来时代",
	character.StorylineWuxia:    "一个刀光剑影、快意恩仇的武侠江湖",
	character.StorylineFantasy:  "一个剑与魔法、诸族并立的奇幻大陆",
}

// Themes returns the prompt vocabulary for a storyline.
func Themes(s character.Storyline) []string {
	if themes, ok := storylineThemes[s]; ok {
		return themes
	}
	return storylineThemes[character.StorylineFantasy]
}

// CharacterSummary is the slice of character state a prompt embeds.
type CharacterSummary struct {
	Name        string
	Profession  string
	Storyline   character.Storyline
	Level       int
	Cultivation string
	Reputation  int
	Wealth      int
}

// Summarize extracts the prompt-relevant fields from a character.
func Summarize(c *character.Character) CharacterSummary {
	return CharacterSummary{
		Name:        c.Name,
		Profession:  string(c.Profession),
		Storyline:   c.Storyline,
		Level:       c.Level,
		Cultivation: c.Status.Cultivation,
		Reputation:  c.Social.Reputation,
		Wealth:      c.Status.Wealth,
	}
}

// eventSystemPrompt is the role instruction for event generation.
const eventSystemPrompt = `你是一个文字冒险游戏的事件设计师。根据给出的角色与场景，设计符合世界观的随机事件。只输出JSON，不要输出任何解释文字。`

// BuildEventPrompt renders the event-generation prompt: role framing,
// storyline vocabulary, the exact JSON schema, and the numeric
// constraints the validator will enforce. Pure string formatting.
func BuildEventPrompt(cs CharacterSummary, location, context string, count int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "世界观：%s。\n", storylineSetting[cs.Storyline])
	fmt.Fprintf(&b, "主题关键词：%s。\n\n", strings.Join(Themes(cs.Storyline), "、"))

	fmt.Fprintf(&b, "角色：%s，%s，等级%d（%s），声望%d，财富%d。\n",
		cs.Name, cs.Profession, cs.Level, cs.Cultivation, cs.Reputation, cs.Wealth)
	fmt.Fprintf(&b, "当前位置：%s。\n", location)
	if context != "" {
		fmt.Fprintf(&b, "背景：%s\n", context)
	}

	fmt.Fprintf(&b, "\n请设计%d个随机事件，输出一个JSON数组，每个事件的结构如下：\n", count)
	b.WriteString(`{
  "id": "字符串，事件唯一标识",
  "title": "字符串，2-50字",
  "description": "字符串，20-500字的事件描述",
  "type": "字符串，取值之一：adventure/combat/social/mystery/treasure/training/romance/trade/exploration/cultivation/sect/rumor/encounter/fortune/misfortune/festival/challenge/discovery/karma/legacy",
  "rarity": "字符串，取值之一：common/uncommon/rare/legendary",
  "choices": [
    {
      "text": "字符串，3-100字的选项文本",
      "difficulty": "整数，10-90，可省略",
      "requirement": "字符串，strength/intelligence/dexterity/constitution/charisma/luck之一，可省略",
      "effects": {"hp": 0, "mp": 0, "wealth": 0, "reputation": 0, "experience": 0, "fatigue": 0}
    }
  ],
  "impact_description": "字符串，事件影响的一句话总结"
}
`)
	b.WriteString("\n约束：每个事件2-6个选项；effects的每个数值绝对值不超过1000，且整体收益与代价要均衡；")
	b.WriteString("内容健康，不涉及血腥、色情、政治等敏感题材。只输出JSON数组。")

	return b.String()
}

// sanitizeField strips characters that would break the schema text a
// prompt embeds. Player names are the only free-form input here.
func sanitizeField(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, `"`, "'")
	return strings.TrimSpace(s)
}

// candidate mirrors the JSON shape the event prompt requests.
type candidate struct {
	ID          string             `json:"id"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Type        string             `json:"type"`
	Rarity      string             `json:"rarity"`
	Choices     []event.Choice     `json:"choices"`
	Effects     *event.EffectDelta `json:"effects,omitempty"`
	Impact      string             `json:"impact_description"`
}
