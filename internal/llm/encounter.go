// Random encounter generation — a stranger, beast, or opportunity met
// on the road, shaped as a regular choice event.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/oiahoon/adventure-simulator/internal/event"
)

const encounterSystemPrompt = `你是一个文字冒险游戏的遭遇设计师。设计旅途中的偶遇：人物、妖兽、奇景或机缘。只输出JSON。`

// GenerateEncounter produces one encounter-flavored choice event.
func GenerateEncounter(ctx context.Context, client *Client, cs CharacterSummary, location string) (*event.Event, error) {
	if !client.Enabled() {
		return nil, ErrNotConfigured
	}

	var b strings.Builder
	fmt.Fprintf(&b, "世界观：%s。\n", storylineSetting[cs.Storyline])
	fmt.Fprintf(&b, "主题关键词：%s。\n", strings.Join(Themes(cs.Storyline), "、"))
	fmt.Fprintf(&b, "角色：%s，等级%d（%s）。\n", sanitizeField(cs.Name), cs.Level, cs.Cultivation)
	fmt.Fprintf(&b, "地点：%s。\n", sanitizeField(location))
	b.WriteString("\n请设计1个旅途遭遇事件（type固定为\"encounter\"），输出单个JSON对象，结构与字段约束如下：\n")
	b.WriteString(`{"id": "...", "title": "2-50字", "description": "20-500字", "type": "encounter", "rarity": "common/uncommon/rare/legendary", "choices": [2-6个选项，每项含text(3-100字)、可选difficulty(10-90)、可选requirement、effects(hp/mp/wealth/reputation/experience/fatigue，绝对值≤1000)], "impact_description": "..."}`)

	raw, err := client.Complete(ctx, encounterSystemPrompt, b.String(), 1200)
	if err != nil {
		return nil, fmt.Errorf("generate encounter: %w", err)
	}

	var c candidate
	if err := decodeJSON(raw, &c); err != nil {
		return nil, err
	}

	e := c.toEvent()
	e.Type = "encounter"
	validator := &event.Validator{}
	validator.Fix(e)
	if err := validator.Validate(e); err != nil {
		return nil, fmt.Errorf("encounter rejected: %w", err)
	}
	return e, nil
}
