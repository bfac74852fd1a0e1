package normalize

import (
	"regexp"
	"sort"
	"strings"
)

var (
	// [1]: https://example.com/article "Example Title" — anchored per line.
	refDefRE = regexp.MustCompile(`(?m)^[ \t]*\[(\d+)\]:[ \t]+(\S+?)(?:[ \t]+"([^"]*)")?[ \t]*$`)
	// [text](https://example.com), with an optional "!" prefix captured so
	// image syntax can be excluded (RE2 has no lookbehind).
	inlineLinkRE = regexp.MustCompile(`(!?)\[([^\]\n]*)\]\((https?://[^)\s]+)\)`)
)

type citationMatch struct {
	pos  int
	cite Citation
}

// extractCitations scans answer text for the two citation syntaxes and
// resolves each match against known sources in document order. A miss
// leaves rank nil; finalize later counts those as extra links.
func extractCitations(text string, ix sourceIndex) []Citation {
	var matches []citationMatch
	for _, m := range refDefRE.FindAllStringSubmatchIndex(text, -1) {
		rawURL := text[m[4]:m[5]]
		title := ""
		if m[6] >= 0 {
			title = text[m[6]:m[7]]
		}
		matches = append(matches, citationMatch{pos: m[0], cite: buildTextCitation(rawURL, title, ix)})
	}
	for _, m := range inlineLinkRE.FindAllStringSubmatchIndex(text, -1) {
		if text[m[2]:m[3]] == "!" {
			continue
		}
		title := text[m[4]:m[5]]
		rawURL := text[m[6]:m[7]]
		matches = append(matches, citationMatch{pos: m[0], cite: buildTextCitation(rawURL, title, ix)})
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].pos < matches[j].pos })
	out := make([]Citation, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.cite)
	}
	return out
}

func buildTextCitation(rawURL, title string, ix sourceIndex) Citation {
	c := Citation{URL: strings.TrimSpace(rawURL), Title: strings.TrimSpace(title)}
	if src := ix.lookup(c.URL); src != nil {
		c.Rank = copyIntPtr(src.Rank)
		c.Snippet = src.Snippet
		if c.Title == "" {
			c.Title = src.Title
		}
	}
	return c
}

// resolveRanks copies rank (and missing titles) from matched sources onto
// structured citations collected during the vendor walk.
func resolveRanks(citations []Citation, ix sourceIndex) {
	for i := range citations {
		if citations[i].Rank != nil {
			continue
		}
		if src := ix.lookup(citations[i].URL); src != nil {
			citations[i].Rank = copyIntPtr(src.Rank)
			if citations[i].Title == "" {
				citations[i].Title = src.Title
			}
		}
	}
}
