// Package spantrim turns approximate vendor-supplied citation offsets into
// clean character spans over the full answer text, with layered fallbacks
// when offsets are missing or unusable.
package spantrim

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	headingLineRE      = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	bulletLineRE       = regexp.MustCompile(`(?m)^\s*(?:[-*+•]\s+|\d+[.)]\s+)`)
	emphasisPrefixRE   = regexp.MustCompile("^[*`~_]+")
	emphasisSuffixRE   = regexp.MustCompile("[*`~_]+$")
	headingLinePrefix  = regexp.MustCompile(`^#{1,6}\s`)
	leadingMarkupChars = "*`~_>#-+•"
	trailingMarkupChar = "*`~_"
)

// Resolve produces a cleaned span over text for one citation. Offsets are
// Unicode code point positions. When start/end are well-formed the span is
// trimmed of markup and whitespace, shrunk at an internal paragraph break,
// and moved past a heading line it opens on. When offsets are absent or
// unusable both returned offsets are nil and the cleaned snippet is the
// best-effort result. Never panics.
func Resolve(text string, start, end *int, snippet string) (*int, *int, string) {
	runes := []rune(text)
	if start == nil || end == nil || *start < 0 || *end <= *start || *end > len(runes) {
		return nil, nil, CleanSnippet(snippet)
	}
	s, e := *start, *end

	// A span opening on a heading line cites the body below it.
	lineStart := s
	for lineStart > 0 && runes[lineStart-1] != '\n' {
		lineStart--
	}
	if headingLinePrefix.MatchString(string(runes[lineStart:min(lineStart+8, len(runes))])) {
		nl := s
		for nl < e && runes[nl] != '\n' {
			nl++
		}
		if nl+1 >= e {
			return nil, nil, CleanSnippet(snippet)
		}
		s = nl + 1
	}

	// Shrink at the first paragraph break so the span never leaks into the
	// next paragraph.
	for i := s; i+1 < e; i++ {
		if runes[i] == '\n' && runes[i+1] == '\n' {
			e = i
			break
		}
	}

	for s < e && (unicode.IsSpace(runes[s]) || strings.ContainsRune(leadingMarkupChars, runes[s])) {
		s++
	}
	for e > s && (unicode.IsSpace(runes[e-1]) || strings.ContainsRune(trailingMarkupChar, runes[e-1])) {
		e--
	}
	if s >= e {
		return nil, nil, CleanSnippet(snippet)
	}
	return &s, &e, string(runes[s:e])
}

// CleanSnippet strips bullet and heading markers plus markdown emphasis
// from a raw snippet when no usable offsets exist.
func CleanSnippet(snippet string) string {
	snippet = headingLineRE.ReplaceAllString(snippet, "")
	snippet = bulletLineRE.ReplaceAllString(snippet, "")
	snippet = strings.TrimSpace(snippet)
	snippet = emphasisPrefixRE.ReplaceAllString(snippet, "")
	snippet = emphasisSuffixRE.ReplaceAllString(snippet, "")
	return strings.TrimSpace(snippet)
}
