package spantrim

import (
	"strings"
	"testing"
)

func intPtr(v int) *int { return &v }

func TestResolveHeadingAndParagraph(t *testing.T) {
	text := "# Heading\nActual cited sentence.\n\nNext paragraph."
	afterHeading := len([]rune("# Heading\n"))

	tests := []struct {
		name      string
		start     *int
		end       *int
		snippet   string
		wantStart *int
		wantEnd   *int
		want      string
	}{
		{
			name:      "span after heading through next paragraph",
			start:     intPtr(afterHeading),
			end:       intPtr(len([]rune(text))),
			wantStart: intPtr(afterHeading),
			wantEnd:   intPtr(afterHeading + len([]rune("Actual cited sentence."))),
			want:      "Actual cited sentence.",
		},
		{
			name:      "span opening on heading line",
			start:     intPtr(0),
			end:       intPtr(len([]rune(text))),
			wantStart: intPtr(afterHeading),
			wantEnd:   intPtr(afterHeading + len([]rune("Actual cited sentence."))),
			want:      "Actual cited sentence.",
		},
		{
			name:    "missing offsets fall back to snippet",
			snippet: "- **Some** cited text",
			want:    "Some** cited text",
		},
		{
			name:    "offsets out of range fall back",
			start:   intPtr(5),
			end:     intPtr(10_000),
			snippet: "## raw snippet",
			want:    "raw snippet",
		},
		{
			name:    "inverted offsets fall back",
			start:   intPtr(20),
			end:     intPtr(10),
			snippet: "plain",
			want:    "plain",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			gotStart, gotEnd, got := Resolve(text, tc.start, tc.end, tc.snippet)
			if got != tc.want {
				t.Fatalf("cleaned span = %q, want %q", got, tc.want)
			}
			if (gotStart == nil) != (tc.wantStart == nil) || (gotEnd == nil) != (tc.wantEnd == nil) {
				t.Fatalf("offset presence mismatch: got (%v, %v)", gotStart, gotEnd)
			}
			if gotStart != nil && (*gotStart != *tc.wantStart || *gotEnd != *tc.wantEnd) {
				t.Fatalf("offsets = (%d, %d), want (%d, %d)", *gotStart, *gotEnd, *tc.wantStart, *tc.wantEnd)
			}
		})
	}
}

func TestResolveCollapsedSpan(t *testing.T) {
	text := "before *** after"
	start, end := 7, 10 // the "***" run
	gotStart, gotEnd, got := Resolve(text, &start, &end, "fallback snippet")
	if gotStart != nil || gotEnd != nil {
		t.Fatalf("expected nil offsets for collapsed span, got (%v, %v)", gotStart, gotEnd)
	}
	if got != "fallback snippet" {
		t.Fatalf("cleaned = %q, want fallback snippet", got)
	}
}

func TestResolveTrimsEdges(t *testing.T) {
	text := "Intro text **bolded claim** trailing"
	start := len([]rune("Intro text "))
	end := start + len([]rune("**bolded claim**"))
	gotStart, gotEnd, got := Resolve(text, &start, &end, "")
	if got != "bolded claim" {
		t.Fatalf("cleaned = %q, want %q", got, "bolded claim")
	}
	if gotStart == nil || gotEnd == nil {
		t.Fatal("expected non-nil offsets")
	}
	if string([]rune(text)[*gotStart:*gotEnd]) != "bolded claim" {
		t.Fatalf("offsets (%d, %d) do not address the cleaned span", *gotStart, *gotEnd)
	}
}

func TestResolveMultibyte(t *testing.T) {
	text := "Résumé — ünïcode claim here."
	start, end := 0, len([]rune(text))
	_, gotEnd, got := Resolve(text, &start, &end, "")
	if !strings.HasSuffix(got, "here.") {
		t.Fatalf("cleaned = %q", got)
	}
	if gotEnd == nil || *gotEnd > len([]rune(text)) {
		t.Fatalf("end offset out of rune range: %v", gotEnd)
	}
}

func TestCleanSnippet(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "- bullet item", want: "bullet item"},
		{in: "### Heading text", want: "Heading text"},
		{in: "1. numbered", want: "numbered"},
		{in: "*emphasis*", want: "emphasis"},
		{in: "  plain  ", want: "plain"},
		{in: "", want: ""},
	}
	for _, tc := range tests {
		if got := CleanSnippet(tc.in); got != tc.want {
			t.Fatalf("CleanSnippet(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
