// Martial-arts lore generation — named techniques with tiered grades.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/oiahoon/adventure-simulator/internal/character"
)

// MartialArt is a generated technique.
type MartialArt struct {
	Name        string `json:"name"`
	Grade       string `json:"grade"` // 入门/精通/大成/绝学
	Description string `json:"description"`
	Requirement string `json:"requirement,omitempty"`
}

var martialGrades = map[string]bool{
	"入门": true, "精通": true, "大成": true, "绝学": true,
}

const martialSystemPrompt = `你是一个武侠/修仙游戏的武学设定写手，为游戏设计功法与招式。只输出JSON。`

// GenerateMartialArts produces count techniques fitting a storyline.
func GenerateMartialArts(ctx context.Context, client *Client, storyline character.Storyline, style string, count int) ([]MartialArt, error) {
	if !client.Enabled() {
		return nil, ErrNotConfigured
	}
	if count < 1 {
		count = 1
	}

	var b strings.Builder
	fmt.Fprintf(&b, "世界观：%s。\n", storylineSetting[storyline])
	fmt.Fprintf(&b, "主题关键词：%s。\n", strings.Join(Themes(storyline), "、"))
	if style != "" {
		fmt.Fprintf(&b, "流派/风格：%s。\n", sanitizeField(style))
	}
	fmt.Fprintf(&b, `
请设计%d门功法，输出JSON数组：
[{"name": "功法名", "grade": "入门/精通/大成/绝学之一", "description": "一两句描述", "requirement": "习练条件，可省略"}]`, count)

	raw, err := client.Complete(ctx, martialSystemPrompt, b.String(), 800)
	if err != nil {
		return nil, fmt.Errorf("generate martial arts: %w", err)
	}

	var arts []MartialArt
	if err := decodeJSON(raw, &arts); err != nil {
		return nil, err
	}

	valid := arts[:0]
	for _, a := range arts {
		if a.Name == "" {
			continue
		}
		if !martialGrades[a.Grade] {
			a.Grade = "入门"
		}
		valid = append(valid, a)
	}
	if len(valid) == 0 {
		return nil, fmt.Errorf("%w: no usable techniques", ErrMalformedResponse)
	}
	return valid, nil
}
