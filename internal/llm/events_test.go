package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/oiahoon/adventure-simulator/internal/character"
	"github.com/oiahoon/adventure-simulator/internal/event"
)

// chatServer returns an httptest server that answers every chat
// completion with the given content string.
func chatServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("missing bearer auth, got %q", r.Header.Get("Authorization"))
		}
		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": content}},
			},
			"usage": map[string]int{"prompt_tokens": 10, "completion_tokens": 20},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
}

func testClient(url string) *Client {
	return NewClient("test-key", WithBaseURL(url), WithMinDelay(0))
}

func testSummary() CharacterSummary {
	return CharacterSummary{
		Name:        "云逸",
		Profession:  "warrior",
		Storyline:   character.StorylineXianxia,
		Level:       3,
		Cultivation: "练气期",
		Reputation:  10,
		Wealth:      150,
	}
}

func TestGenerateEventsSuccess(t *testing.T) {
	content := "生成结果如下：\n" + `[{
		"title": "林中偶遇",
		"description": "你在密林深处遇到了一位受伤的旅人，他恳求你伸出援手帮他包扎伤口。",
		"type": "encounter",
		"rarity": "common",
		"choices": [
			{"text": "救助旅人", "difficulty": 30, "effects": {"experience": 40, "reputation": 5}},
			{"text": "转身离开", "effects": {"fatigue": 2}}
		]
	}]`
	ts := chatServer(t, content)
	defer ts.Close()

	events, err := GenerateEvents(context.Background(), testClient(ts.URL), testSummary(), "forest", "", 1)
	if err != nil {
		t.Fatalf("GenerateEvents: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	ev := events[0]
	if ev.Source != event.SourceLLM {
		t.Errorf("source = %s, want llm", ev.Source)
	}
	if ev.ID == "" {
		t.Error("event ID not assigned")
	}
	if ev.Type != "encounter" {
		t.Errorf("type = %s, want encounter", ev.Type)
	}
}

func TestGenerateEventsSingleObject(t *testing.T) {
	content := `{
		"title": "山顶奇遇",
		"description": "山顶云雾缭绕之中，一座古老的石碑若隐若现，上面刻着模糊的文字。",
		"type": "discovery",
		"rarity": "uncommon",
		"choices": [
			{"text": "仔细研读石碑", "difficulty": 40, "effects": {"experience": 60}},
			{"text": "继续赶路", "effects": {}}
		]
	}`
	ts := chatServer(t, content)
	defer ts.Close()

	events, err := GenerateEvents(context.Background(), testClient(ts.URL), testSummary(), "mountain", "", 1)
	if err != nil {
		t.Fatalf("GenerateEvents: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
}

func TestGenerateEventsRepairsEpicRarity(t *testing.T) {
	content := `[{
		"title": "远古遗迹",
		"description": "一座沉睡千年的远古遗迹在地震后重见天日，无数宝藏的传说随之而来。",
		"type": "treasure",
		"rarity": "epic",
		"choices": [
			{"text": "进入遗迹探索", "difficulty": 70, "effects": {"experience": 200}},
			{"text": "在外围观望", "effects": {"experience": 10}}
		]
	}]`
	ts := chatServer(t, content)
	defer ts.Close()

	events, err := GenerateEvents(context.Background(), testClient(ts.URL), testSummary(), "ruins", "", 1)
	if err != nil {
		t.Fatalf("GenerateEvents: %v", err)
	}
	if events[0].Rarity != event.RarityRare {
		t.Errorf("rarity = %s, want rare after repair", events[0].Rarity)
	}
}

func TestGenerateEventsProseOnly(t *testing.T) {
	ts := chatServer(t, "抱歉，我无法生成事件。")
	defer ts.Close()

	_, err := GenerateEvents(context.Background(), testClient(ts.URL), testSummary(), "village", "", 1)
	if !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("error = %v, want ErrMalformedResponse", err)
	}
}

func TestGenerateEventsAllRejected(t *testing.T) {
	// Parseable JSON but unsalvageable: descriptions below the minimum
	// length cannot be repaired.
	content := `[{"title":"坏事件","description":"太短","type":"adventure","rarity":"common",
		"choices":[{"text":"选项一"},{"text":"选项二"}]}]`
	ts := chatServer(t, content)
	defer ts.Close()

	_, err := GenerateEvents(context.Background(), testClient(ts.URL), testSummary(), "village", "", 1)
	if !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("error = %v, want ErrMalformedResponse", err)
	}
}

func TestGenerateEventsDisabledClient(t *testing.T) {
	var c *Client
	_, err := GenerateEvents(context.Background(), c, testSummary(), "village", "", 1)
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("error = %v, want ErrNotConfigured", err)
	}
}

func TestCompleteUpstreamError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"rate limited"}`, http.StatusTooManyRequests)
	}))
	defer ts.Close()

	_, err := testClient(ts.URL).Complete(context.Background(), "", "hi", 100)
	var ue *UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("error = %v, want UpstreamError", err)
	}
	if ue.StatusCode != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", ue.StatusCode)
	}
}

func TestCompleteCancelledContext(t *testing.T) {
	ts := chatServer(t, "{}")
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := testClient(ts.URL).Complete(ctx, "", "hi", 100)
	if err == nil {
		t.Fatal("cancelled context produced no error")
	}
}
