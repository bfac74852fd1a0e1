package normalize

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/rs/zerolog"
)

func openaiResponsePayload() map[string]any {
	return map[string]any{
		"id":    "resp_01",
		"model": "gpt-4o",
		"output": []any{
			map[string]any{
				"type": "web_search_call", "id": "ws_1", "status": "completed",
				"action": map[string]any{
					"type":  "search",
					"query": "latest ai news",
					"sources": []any{
						map[string]any{"type": "url", "url": "https://news.example.com/story", "title": "Story"},
					},
				},
			},
			map[string]any{
				"type": "message", "id": "msg_1", "role": "assistant",
				"content": []any{
					map[string]any{
						"type": "output_text",
						"text": "Big news happened. More context follows here.",
						"annotations": []any{
							map[string]any{
								"type":        "url_citation",
								"url":         "https://news.example.com/story?utm_source=openai",
								"title":       "Story",
								"start_index": float64(0),
								"end_index":   float64(18),
							},
						},
					},
				},
			},
		},
	}
}

func TestOpenAIAnnotations(t *testing.T) {
	adapter := &openaiAdapter{log: zerolog.Nop()}
	resp, err := adapter.Normalize(context.Background(), openaiResponsePayload(), Options{Model: "gpt-4o"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(resp.Queries) != 1 || resp.Queries[0].Query != "latest ai news" {
		t.Fatalf("expected one query, got %+v", resp.Queries)
	}
	if len(resp.Sources) != 1 || *resp.Sources[0].Rank != 1 {
		t.Fatalf("expected one rank-1 source, got %+v", resp.Sources)
	}
	if len(resp.Citations) != 1 {
		t.Fatalf("expected one citation, got %+v", resp.Citations)
	}
	c := resp.Citations[0]
	// The tracking query string must not defeat source matching.
	if c.Rank == nil || *c.Rank != 1 {
		t.Fatalf("citation should match the source despite utm params, got %+v", c)
	}
	if c.Snippet != "Big news happened." {
		t.Fatalf("span snippet = %q, want %q", c.Snippet, "Big news happened.")
	}
	if c.StartIndex == nil || c.EndIndex == nil || *c.StartIndex != 0 || *c.EndIndex != 18 {
		t.Fatalf("offsets = (%v, %v), want (0, 18)", c.StartIndex, c.EndIndex)
	}
	if resp.ExtraLinksCount != 0 {
		t.Fatalf("expected no extra links, got %d", resp.ExtraLinksCount)
	}
}

func TestOpenAIMultiPartAnnotationOffsets(t *testing.T) {
	payload := map[string]any{
		"id": "resp_02",
		"output": []any{
			map[string]any{
				"type": "message",
				"content": []any{
					map[string]any{"type": "output_text", "text": "First part. ", "annotations": []any{}},
					map[string]any{
						"type": "output_text",
						"text": "Cited tail.",
						"annotations": []any{
							map[string]any{
								"type":        "url_citation",
								"url":         "https://tail.example.com/x",
								"start_index": float64(0),
								"end_index":   float64(11),
							},
						},
					},
				},
			},
		},
	}
	adapter := &openaiAdapter{log: zerolog.Nop()}
	resp, err := adapter.Normalize(context.Background(), payload, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Text != "First part. Cited tail." {
		t.Fatalf("text = %q", resp.Text)
	}
	c := resp.Citations[0]
	// Per-part indices are rebased onto the full answer text.
	if c.StartIndex == nil || *c.StartIndex != 12 {
		t.Fatalf("start = %v, want 12", c.StartIndex)
	}
	if c.Snippet != "Cited tail." {
		t.Fatalf("snippet = %q", c.Snippet)
	}
}

func TestOpenAISchemaRejection(t *testing.T) {
	tests := []struct {
		name    string
		payload any
	}{
		{name: "missing output", payload: map[string]any{"id": "resp"}},
		{name: "output not array", payload: map[string]any{"id": "resp", "output": map[string]any{}}},
		{name: "missing id", payload: map[string]any{"output": []any{}}},
	}
	adapter := &openaiAdapter{log: zerolog.Nop()}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := adapter.Normalize(context.Background(), tc.payload, Options{})
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
		})
	}
}

func TestOpenAINormalizeIdempotent(t *testing.T) {
	adapter := &openaiAdapter{log: zerolog.Nop()}
	first, err := adapter.Normalize(context.Background(), openaiResponsePayload(), Options{Model: "gpt-4o", LatencyMS: 7})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := adapter.Normalize(context.Background(), openaiResponsePayload(), Options{Model: "gpt-4o", LatencyMS: 7})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatal("normalizing identical payloads must yield identical records")
	}
}
