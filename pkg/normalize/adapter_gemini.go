package normalize

import (
	"context"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/citelens/citelens/pkg/shared/httputil"
	"github.com/citelens/citelens/pkg/shared/spantrim"
	"github.com/citelens/citelens/pkg/shared/urlcanon"
)

const geminiRedirectHost = "vertexaisearch.cloud.google.com"

// geminiAdapter normalizes Gemini generateContent responses. Grounding
// metadata carries one flat source list and one flat query list with no
// linkage: sources are distributed across queries in contiguous chunks of
// len(sources)/len(queries), remainder assigned one-at-a-time to the
// earliest queries. Citations come from the groundingSupports structure;
// only the first matching chunk index per support becomes a citation.
type geminiAdapter struct {
	log      zerolog.Logger
	resolver *httputil.RedirectResolver
}

func (g *geminiAdapter) Vendor() string { return VendorGemini }

func (g *geminiAdapter) Normalize(ctx context.Context, raw any, opts Options) (*ProviderResponse, error) {
	doc, rawJSON, err := coercePayload(raw)
	if err != nil {
		return nil, &ValidationError{Vendor: VendorGemini, Detail: "payload coercion failed", Err: err}
	}
	if err := validateVendorPayload(VendorGemini, geminiSchema, doc); err != nil {
		return nil, err
	}

	var (
		text       strings.Builder
		queryTexts []string
		chunkSrcs  []Source
		structured []Citation
	)
	for _, cItem := range asSlice(doc["candidates"]) {
		candidate := asMap(cItem)
		if candidate == nil {
			continue
		}
		for _, pItem := range asSlice(asMap(candidate["content"])["parts"]) {
			text.WriteString(str(asMap(pItem), "text"))
		}
		meta := asMap(candidate["groundingMetadata"])
		if meta == nil {
			continue
		}
		queryTexts = append(queryTexts, strSlice(meta["webSearchQueries"])...)
		for _, chItem := range asSlice(meta["groundingChunks"]) {
			web := asMap(asMap(chItem)["web"])
			u := g.resolveSourceURL(ctx, str(web, "uri"))
			if u == "" {
				continue
			}
			chunkSrcs = append(chunkSrcs, Source{
				URL:    u,
				Title:  str(web, "title"),
				Domain: str(web, "domain"),
			})
		}
		structured = append(structured, g.supportCitations(meta, chunkSrcs, text.String())...)
	}

	answer := text.String()
	queries, leftover := distributeSources(queryTexts, chunkSrcs)
	sources := flattenSources(queries, leftover)
	ix := indexSources(sources)
	resolveRanks(structured, ix)

	resp := &ProviderResponse{
		Text:       answer,
		Queries:    queries,
		Sources:    sources,
		Citations:  append(structured, extractCitations(answer, ix)...),
		Raw:        rawJSON,
		Model:      firstNonEmpty(opts.Model, str(doc, "modelVersion")),
		Vendor:     VendorGemini,
		LatencyMS:  opts.LatencyMS,
		DataSource: DataSourceAPI,
	}
	if usage := asMap(doc["usageMetadata"]); usage != nil {
		resp.Metadata = map[string]any{"usage": usage}
	}
	finalize(resp)
	return resp, nil
}

// supportCitations converts groundingSupports entries into citations. A
// support maps one answer segment to one or more chunk indices; only the
// first in-range index is used.
func (g *geminiAdapter) supportCitations(meta map[string]any, chunks []Source, answer string) []Citation {
	var out []Citation
	for _, sItem := range asSlice(meta["groundingSupports"]) {
		support := asMap(sItem)
		if support == nil {
			continue
		}
		var src *Source
		for _, idxItem := range asSlice(support["groundingChunkIndices"]) {
			idx, ok := idxItem.(float64)
			if !ok || int(idx) < 0 || int(idx) >= len(chunks) {
				continue
			}
			src = &chunks[int(idx)]
			break
		}
		if src == nil {
			continue
		}
		segment := asMap(support["segment"])
		var start, end *int
		if v, ok := intField(segment, "startIndex"); ok {
			start = &v
		} else if segment != nil {
			// startIndex is omitted on the wire when zero.
			zero := 0
			start = &zero
		}
		if v, ok := intField(segment, "endIndex"); ok {
			end = &v
		}
		cs, ce, snippet := spantrim.Resolve(answer, start, end, str(segment, "text"))
		cite := Citation{
			URL:        src.URL,
			Title:      src.Title,
			Snippet:    snippet,
			StartIndex: cs,
			EndIndex:   ce,
		}
		if scores := asSlice(support["confidenceScores"]); len(scores) > 0 {
			if f, ok := scores[0].(float64); ok {
				cite.Confidence = floatPtr(f)
			}
		}
		out = append(out, cite)
	}
	return out
}

// resolveSourceURL unwraps the vendor redirect for grounding URLs. Any
// resolution failure keeps the wrapped URL; this path never fails the
// call.
func (g *geminiAdapter) resolveSourceURL(ctx context.Context, rawURL string) string {
	if !isGroundingRedirect(rawURL) {
		return rawURL
	}
	final, err := g.resolver.Resolve(ctx, rawURL)
	if err != nil {
		g.log.Debug().Err(err).Str("url", rawURL).Msg("Redirect resolution failed, keeping wrapped URL")
		return rawURL
	}
	return final
}

func isGroundingRedirect(rawURL string) bool {
	if rawURL == "" {
		return false
	}
	if urlcanon.Host(rawURL) == geminiRedirectHost {
		return true
	}
	parsed, err := url.Parse(rawURL)
	return err == nil && strings.Contains(parsed.Path, "/grounding-api-redirect/")
}

// distributeSources splits the flat source list into contiguous per-query
// chunks of size len(sources)/len(queries), with the remainder assigned
// one-at-a-time to the earliest queries. Sources left without a query
// (no queries at all) attach to the response as a whole.
func distributeSources(queryTexts []string, sources []Source) ([]SearchQuery, []Source) {
	queries := make([]SearchQuery, 0, len(queryTexts))
	for i, q := range queryTexts {
		queries = append(queries, SearchQuery{Query: q, Sources: []Source{}, OrderIndex: i})
	}
	if len(queries) == 0 {
		for i := range sources {
			sources[i].Rank = intPtr(i + 1)
		}
		return queries, sources
	}
	base := len(sources) / len(queries)
	rem := len(sources) % len(queries)
	pos := 0
	for i := range queries {
		size := base
		if i < rem {
			size++
		}
		for j := 0; j < size; j++ {
			src := sources[pos]
			src.Rank = intPtr(j + 1)
			queries[i].Sources = append(queries[i].Sources, src)
			pos++
		}
	}
	return queries, nil
}
