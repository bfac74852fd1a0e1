package normalize

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/citelens/citelens/pkg/shared/spantrim"
)

// anthropicAdapter normalizes Anthropic Messages API responses. Queries
// and result sets arrive as interleaved sequential content blocks: the
// Nth web_search_tool_result block pairs positionally with the Nth
// preceding server_tool_use block; there is no explicit key linking them.
type anthropicAdapter struct {
	log zerolog.Logger
}

func (a *anthropicAdapter) Vendor() string { return VendorAnthropic }

func (a *anthropicAdapter) Normalize(ctx context.Context, raw any, opts Options) (*ProviderResponse, error) {
	doc, rawJSON, err := coercePayload(raw)
	if err != nil {
		return nil, &ValidationError{Vendor: VendorAnthropic, Detail: "payload coercion failed", Err: err}
	}
	if err := validateVendorPayload(VendorAnthropic, anthropicSchema, doc); err != nil {
		return nil, err
	}

	var (
		queries    []SearchQuery
		structured []Citation
		text       strings.Builder
	)
	resultBlocks := 0
	for _, item := range asSlice(doc["content"]) {
		block := asMap(item)
		if block == nil {
			continue
		}
		switch str(block, "type") {
		case "text":
			text.WriteString(str(block, "text"))
			for _, cItem := range asSlice(block["citations"]) {
				cite := asMap(cItem)
				u := str(cite, "url")
				if u == "" {
					continue
				}
				structured = append(structured, Citation{
					URL:     u,
					Title:   str(cite, "title"),
					Snippet: spantrim.CleanSnippet(str(cite, "cited_text")),
				})
			}
		case "server_tool_use":
			if str(block, "name") != "web_search" {
				continue
			}
			queries = append(queries, SearchQuery{
				Query:      str(asMap(block["input"]), "query"),
				Sources:    []Source{},
				OrderIndex: len(queries),
			})
		case "web_search_tool_result":
			if resultBlocks >= len(queries) {
				// Surplus result block with no preceding query; dropped.
				a.log.Debug().Int("block", resultBlocks).Msg("Dropping web search result block without matching query")
				resultBlocks++
				continue
			}
			qi := resultBlocks
			resultBlocks++
			for _, rItem := range asSlice(block["content"]) {
				result := asMap(rItem)
				u := str(result, "url")
				if u == "" {
					continue
				}
				src := Source{
					URL:       u,
					Title:     str(result, "title"),
					Rank:      intPtr(len(queries[qi].Sources) + 1),
					Published: str(result, "page_age"),
				}
				// Opaque, but required verbatim for multi-turn requests.
				if enc := str(result, "encrypted_content"); enc != "" {
					src.Metadata = map[string]any{"encrypted_content": enc}
				}
				queries[qi].Sources = append(queries[qi].Sources, src)
			}
		}
	}

	answer := text.String()
	sources := flattenSources(queries, nil)
	ix := indexSources(sources)
	resolveRanks(structured, ix)

	resp := &ProviderResponse{
		Text:       answer,
		Queries:    queries,
		Sources:    sources,
		Citations:  append(structured, extractCitations(answer, ix)...),
		Raw:        rawJSON,
		Model:      firstNonEmpty(opts.Model, str(doc, "model")),
		Vendor:     VendorAnthropic,
		LatencyMS:  opts.LatencyMS,
		DataSource: DataSourceAPI,
	}
	if usage := asMap(doc["usage"]); usage != nil {
		resp.Metadata = map[string]any{"usage": usage}
	}
	finalize(resp)
	return resp, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
