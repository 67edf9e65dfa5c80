// Rumor generation — tavern gossip and world flavor for the MUD layer.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/oiahoon/adventure-simulator/internal/character"
)

// Rumor is one piece of overheard gossip. Credibility is 0-100.
type Rumor struct {
	Text        string `json:"text"`
	Subject     string `json:"subject"`
	Credibility int    `json:"credibility"`
}

const rumorSystemPrompt = `你是一个文字游戏的传闻写手，为酒馆与市井场景编写真假难辨的江湖传闻。只输出JSON。`

// GenerateRumors produces count rumors themed to a storyline.
func GenerateRumors(ctx context.Context, client *Client, storyline character.Storyline, location string, count int) ([]Rumor, error) {
	if !client.Enabled() {
		return nil, ErrNotConfigured
	}
	if count < 1 {
		count = 1
	}

	var b strings.Builder
	fmt.Fprintf(&b, "世界观：%s。\n", storylineSetting[storyline])
	fmt.Fprintf(&b, "主题关键词：%s。\n", strings.Join(Themes(storyline), "、"))
	if location != "" {
		fmt.Fprintf(&b, "传闻流传的地点：%s。\n", sanitizeField(location))
	}
	fmt.Fprintf(&b, `
请编写%d条市井传闻，输出JSON数组：
[{"text": "传闻内容，一两句话", "subject": "传闻涉及的人或事", "credibility": 0到100的整数}]`, count)

	raw, err := client.Complete(ctx, rumorSystemPrompt, b.String(), 800)
	if err != nil {
		return nil, fmt.Errorf("generate rumors: %w", err)
	}

	var rumors []Rumor
	if err := decodeJSON(raw, &rumors); err != nil {
		return nil, err
	}
	if len(rumors) == 0 {
		return nil, fmt.Errorf("%w: no rumors", ErrMalformedResponse)
	}
	for i := range rumors {
		if rumors[i].Credibility < 0 {
			rumors[i].Credibility = 0
		}
		if rumors[i].Credibility > 100 {
			rumors[i].Credibility = 100
		}
	}
	return rumors, nil
}
