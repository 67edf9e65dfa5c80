// NPC dialogue generation — short in-character lines for the MUD layer.
package llm

import (
	"context"
	"fmt"
	"strings"
)

// DialogueRequest describes the NPC and the situation.
type DialogueRequest struct {
	NPCName     string `json:"npc_name"`
	NPCRole     string `json:"npc_role"`
	PlayerName  string `json:"player_name"`
	Topic       string `json:"topic,omitempty"`
	Location    string `json:"location,omitempty"`
	Disposition string `json:"disposition,omitempty"` // e.g. "friendly", "hostile"
}

// Dialogue is one generated NPC exchange.
type Dialogue struct {
	NPCName string   `json:"npc_name"`
	Lines   []string `json:"lines"`
	Mood    string   `json:"mood"`
}

const dialogueSystemPrompt = `你是一个武侠/修仙文字游戏中的NPC对白写手。根据NPC身份与场景写出符合人物性格的对白。只输出JSON。`

// GenerateDialogue produces 2-4 lines of NPC dialogue.
func GenerateDialogue(ctx context.Context, client *Client, req DialogueRequest) (*Dialogue, error) {
	if !client.Enabled() {
		return nil, ErrNotConfigured
	}

	var b strings.Builder
	fmt.Fprintf(&b, "NPC：%s（%s）", sanitizeField(req.NPCName), sanitizeField(req.NPCRole))
	if req.Disposition != "" {
		fmt.Fprintf(&b, "，对玩家态度：%s", sanitizeField(req.Disposition))
	}
	b.WriteString("。\n")
	fmt.Fprintf(&b, "玩家：%s。\n", sanitizeField(req.PlayerName))
	if req.Location != "" {
		fmt.Fprintf(&b, "地点：%s。\n", sanitizeField(req.Location))
	}
	if req.Topic != "" {
		fmt.Fprintf(&b, "话题：%s。\n", sanitizeField(req.Topic))
	}
	b.WriteString(`
请写出该NPC对玩家说的2-4句对白，输出JSON：
{"npc_name": "...", "lines": ["第一句", "第二句"], "mood": "一词描述语气"}`)

	raw, err := client.Complete(ctx, dialogueSystemPrompt, b.String(), 600)
	if err != nil {
		return nil, fmt.Errorf("generate dialogue: %w", err)
	}

	var d Dialogue
	if err := decodeJSON(raw, &d); err != nil {
		return nil, err
	}
	if len(d.Lines) == 0 {
		return nil, fmt.Errorf("%w: dialogue has no lines", ErrMalformedResponse)
	}
	if d.NPCName == "" {
		d.NPCName = req.NPCName
	}
	return &d, nil
}
