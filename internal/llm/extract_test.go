package llm

import (
	"errors"
	"testing"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			"bare object",
			`{"title":"test"}`,
			`{"title":"test"}`,
		},
		{
			"prose around object",
			"好的，这是生成的事件：\n```json\n{\"title\":\"奇遇\"}\n```\n希望你喜欢。",
			`{"title":"奇遇"}`,
		},
		{
			"array",
			"events follow: [{\"title\":\"a\"},{\"title\":\"b\"}] done",
			`[{"title":"a"},{"title":"b"}]`,
		},
		{
			"nested braces",
			`note {"a":{"b":{"c":1}}} trailing`,
			`{"a":{"b":{"c":1}}}`,
		},
		{
			"braces inside string literal",
			`{"text":"smiley {not a block} \"quoted\" }"}`,
			`{"text":"smiley {not a block} \"quoted\" }"}`,
		},
		{
			"first of several blocks",
			`{"first":1} and then {"second":2}`,
			`{"first":1}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.raw)
			if err != nil {
				t.Fatalf("ExtractJSON error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractJSONNoJSON(t *testing.T) {
	_, err := ExtractJSON("抱歉，我无法生成这个事件。请换一个主题试试。")
	if !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("error = %v, want ErrMalformedResponse", err)
	}
}

func TestExtractJSONTruncated(t *testing.T) {
	_, err := ExtractJSON(`{"title":"未完成的","description":"模型输出在这里被截断`)
	if !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("error = %v, want ErrMalformedResponse", err)
	}
}

func TestDecodeJSONBadPayload(t *testing.T) {
	var v struct{ Title string }
	err := decodeJSON(`{"title": }`, &v)
	if !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("error = %v, want ErrMalformedResponse", err)
	}
}
