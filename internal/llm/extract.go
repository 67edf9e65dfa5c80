package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractJSON returns the first complete top-level JSON object or array
// embedded in free-form model output. The scanner is bracket-depth
// aware and skips braces inside string literals, so prose containing
// braces or multiple JSON blocks does not mis-extract. Truncated output
// (depth never returns to zero) is ErrMalformedResponse.
func ExtractJSON(raw string) (string, error) {
	start := strings.IndexAny(raw, "{[")
	if start == -1 {
		return "", fmt.Errorf("%w: no JSON found", ErrMalformedResponse)
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(raw); i++ {
		ch := raw[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				return raw[start : i+1], nil
			}
		}
	}

	return "", fmt.Errorf("%w: truncated JSON", ErrMalformedResponse)
}

// decodeJSON extracts and unmarshals the first JSON value into v.
func decodeJSON(raw string, v any) error {
	jsonStr, err := ExtractJSON(raw)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(jsonStr), v); err != nil {
		snippet := jsonStr
		if len(snippet) > 200 {
			snippet = snippet[:200]
		}
		return fmt.Errorf("%w: %v (raw: %s)", ErrMalformedResponse, err, snippet)
	}
	return nil
}
