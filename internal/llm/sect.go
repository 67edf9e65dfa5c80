// Sect event generation — faction happenings the player can react to.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/oiahoon/adventure-simulator/internal/event"
)

const sectSystemPrompt = `你是一个武侠/修仙游戏的门派事件设计师。设计发生在门派内部或门派之间的事件。只输出JSON。`

// GenerateSectEvent produces one sect-flavored choice event. Output
// passes through the same validator as adventure events.
func GenerateSectEvent(ctx context.Context, client *Client, cs CharacterSummary, sectName string) (*event.Event, error) {
	if !client.Enabled() {
		return nil, ErrNotConfigured
	}

	var b strings.Builder
	fmt.Fprintf(&b, "世界观：%s。\n", storylineSetting[cs.Storyline])
	fmt.Fprintf(&b, "门派：%s。\n", sanitizeField(sectName))
	fmt.Fprintf(&b, "角色：%s，等级%d（%s），声望%d。\n",
		sanitizeField(cs.Name), cs.Level, cs.Cultivation, cs.Reputation)
	b.WriteString("\n请设计1个门派事件（type固定为\"sect\"），输出单个JSON对象，结构与字段约束如下：\n")
	b.WriteString(`{"id": "...", "title": "2-50字", "description": "20-500字", "type": "sect", "rarity": "common/uncommon/rare/legendary", "choices": [2-6个选项，每项含text(3-100字)、可选difficulty(10-90)、可选requirement、effects(hp/mp/wealth/reputation/experience/fatigue，绝对值≤1000)], "impact_description": "..."}`)

	raw, err := client.Complete(ctx, sectSystemPrompt, b.String(), 1200)
	if err != nil {
		return nil, fmt.Errorf("generate sect event: %w", err)
	}

	var c candidate
	if err := decodeJSON(raw, &c); err != nil {
		return nil, err
	}

	e := c.toEvent()
	e.Type = "sect"
	validator := &event.Validator{}
	validator.Fix(e)
	if err := validator.Validate(e); err != nil {
		return nil, fmt.Errorf("sect event rejected: %w", err)
	}
	return e, nil
}
