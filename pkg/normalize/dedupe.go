package normalize

import "github.com/citelens/citelens/pkg/shared/urlcanon"

// dedupeCitations removes citations whose canonical URL was already seen,
// preserving first-seen document order. Unparseable URLs fall back to the
// raw string as their key so distinct garbage is still kept apart.
func dedupeCitations(citations []Citation) []Citation {
	seen := make(map[string]bool, len(citations))
	out := make([]Citation, 0, len(citations))
	for _, c := range citations {
		if c.URL == "" {
			continue
		}
		key := urlcanon.Canonicalize(c.URL)
		if key == "" {
			key = c.URL
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, c)
	}
	return out
}

// sourceIndex resolves URLs against accumulated sources by canonical key.
type sourceIndex struct {
	byKey map[string]*Source
}

func indexSources(sources []Source) sourceIndex {
	ix := sourceIndex{byKey: make(map[string]*Source, len(sources))}
	for i := range sources {
		key := urlcanon.Canonicalize(sources[i].URL)
		if key == "" {
			key = sources[i].URL
		}
		if key == "" {
			continue
		}
		// First occurrence wins so rank reflects discovery order.
		if _, ok := ix.byKey[key]; !ok {
			ix.byKey[key] = &sources[i]
		}
	}
	return ix
}

func (ix sourceIndex) lookup(rawURL string) *Source {
	if len(ix.byKey) == 0 || rawURL == "" {
		return nil
	}
	key := urlcanon.Canonicalize(rawURL)
	if key == "" {
		key = rawURL
	}
	return ix.byKey[key]
}

// flattenSources collects per-query sources plus response-level extras
// into one ordered list.
func flattenSources(queries []SearchQuery, extra []Source) []Source {
	var out []Source
	for _, q := range queries {
		out = append(out, q.Sources...)
	}
	return append(out, extra...)
}

// finalize applies the cross-adapter invariants on an assembled record:
// citation dedup, extra-link counting, and non-nil sequence fields.
func finalize(resp *ProviderResponse) {
	if resp.Queries == nil {
		resp.Queries = []SearchQuery{}
	}
	for i := range resp.Queries {
		if resp.Queries[i].Sources == nil {
			resp.Queries[i].Sources = []Source{}
		}
	}
	if resp.Sources == nil {
		resp.Sources = []Source{}
	}
	resp.Citations = dedupeCitations(resp.Citations)
	ix := indexSources(resp.Sources)
	extras := 0
	for _, c := range resp.Citations {
		if ix.lookup(c.URL) == nil {
			extras++
		}
	}
	resp.ExtraLinksCount = extras
}
