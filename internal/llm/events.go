// Adventure event generation — the LLM path of the event pipeline:
// build prompt, call the model, extract JSON, validate and repair.
package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/oiahoon/adventure-simulator/internal/event"
)

// GenerateEvents asks the model for count events for the given
// character and location. Candidates are repaired where repairable and
// validated; rejected candidates are dropped and logged. Returns an
// error when the call fails or no candidate survives validation —
// callers fall back to cached or template events.
func GenerateEvents(ctx context.Context, client *Client, cs CharacterSummary, location, context_ string, count int) ([]*event.Event, error) {
	if !client.Enabled() {
		return nil, ErrNotConfigured
	}
	if count < 1 {
		count = 1
	}

	cs.Name = sanitizeField(cs.Name)
	prompt := BuildEventPrompt(cs, sanitizeField(location), sanitizeField(context_), count)

	raw, err := client.Complete(ctx, eventSystemPrompt, prompt, 2000)
	if err != nil {
		return nil, fmt.Errorf("generate events: %w", err)
	}

	candidates, err := decodeCandidates(raw)
	if err != nil {
		snippet := raw
		if len(snippet) > 120 {
			snippet = snippet[:120]
		}
		slog.Warn("event response not parseable", "error", err, "raw", snippet)
		return nil, err
	}

	validator := &event.Validator{}
	events := make([]*event.Event, 0, len(candidates))
	for _, c := range candidates {
		e := c.toEvent()
		validator.Fix(e)
		if err := validator.Validate(e); err != nil {
			slog.Warn("generated event rejected", "title", e.Title, "error", err)
			continue
		}
		events = append(events, e)
	}

	if len(events) == 0 {
		return nil, fmt.Errorf("%w: all %d candidates rejected", ErrMalformedResponse, len(candidates))
	}
	return events, nil
}

// decodeCandidates accepts either a JSON array of events or a single
// event object.
func decodeCandidates(raw string) ([]candidate, error) {
	var list []candidate
	if err := decodeJSON(raw, &list); err == nil {
		return list, nil
	}

	var single candidate
	if err := decodeJSON(raw, &single); err != nil {
		return nil, err
	}
	return []candidate{single}, nil
}

func (c candidate) toEvent() *event.Event {
	id := c.ID
	if id == "" {
		id = uuid.NewString()
	}
	return &event.Event{
		ID:          id,
		Title:       c.Title,
		Description: c.Description,
		Type:        c.Type,
		Rarity:      event.Rarity(c.Rarity),
		Choices:     c.Choices,
		Effects:     c.Effects,
		Impact:      c.Impact,
		Source:      event.SourceLLM,
		CreatedAt:   time.Now(),
	}
}
