package normalize

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/citelens/citelens/pkg/shared/spantrim"
)

// openaiAdapter normalizes OpenAI Responses API payloads. Queries arrive
// as web_search_call output items (with fetched sources under
// action.sources); citations are url_citation annotations on output_text
// content carrying explicit character spans. Source URLs come back with
// tracking query strings attached, so matching goes through the canonical
// key, which strips them.
type openaiAdapter struct {
	log zerolog.Logger
}

func (o *openaiAdapter) Vendor() string { return VendorOpenAI }

func (o *openaiAdapter) Normalize(ctx context.Context, raw any, opts Options) (*ProviderResponse, error) {
	doc, rawJSON, err := coercePayload(raw)
	if err != nil {
		return nil, &ValidationError{Vendor: VendorOpenAI, Detail: "payload coercion failed", Err: err}
	}
	if err := validateVendorPayload(VendorOpenAI, openaiSchema, doc); err != nil {
		return nil, err
	}

	var (
		queries    []SearchQuery
		structured []Citation
		text       strings.Builder
	)
	textOffset := 0 // running rune offset; annotation indices are per-part
	for _, item := range asSlice(doc["output"]) {
		block := asMap(item)
		if block == nil {
			continue
		}
		switch str(block, "type") {
		case "web_search_call":
			action := asMap(block["action"])
			q := SearchQuery{
				Query:      str(action, "query"),
				Sources:    []Source{},
				OrderIndex: len(queries),
			}
			for _, sItem := range asSlice(action["sources"]) {
				source := asMap(sItem)
				u := str(source, "url")
				if u == "" {
					continue
				}
				q.Sources = append(q.Sources, Source{
					URL:   u,
					Title: str(source, "title"),
					Rank:  intPtr(len(q.Sources) + 1),
				})
			}
			queries = append(queries, q)
		case "message":
			for _, cItem := range asSlice(block["content"]) {
				part := asMap(cItem)
				if str(part, "type") != "output_text" {
					continue
				}
				partText := str(part, "text")
				for _, aItem := range asSlice(part["annotations"]) {
					ann := asMap(aItem)
					if str(ann, "type") != "url_citation" {
						continue
					}
					u := str(ann, "url")
					if u == "" {
						continue
					}
					cite := Citation{URL: u, Title: str(ann, "title")}
					if s, ok := intField(ann, "start_index"); ok {
						v := textOffset + s
						cite.StartIndex = &v
					}
					if e, ok := intField(ann, "end_index"); ok {
						v := textOffset + e
						cite.EndIndex = &v
					}
					structured = append(structured, cite)
				}
				text.WriteString(partText)
				textOffset += len([]rune(partText))
			}
		}
	}

	answer := text.String()
	sources := flattenSources(queries, nil)
	ix := indexSources(sources)
	resolveRanks(structured, ix)
	for i := range structured {
		s, e, snippet := spantrim.Resolve(answer, structured[i].StartIndex, structured[i].EndIndex, structured[i].Snippet)
		structured[i].StartIndex, structured[i].EndIndex, structured[i].Snippet = s, e, snippet
	}

	resp := &ProviderResponse{
		Text:       answer,
		Queries:    queries,
		Sources:    sources,
		Citations:  append(structured, extractCitations(answer, ix)...),
		Raw:        rawJSON,
		Model:      firstNonEmpty(opts.Model, str(doc, "model")),
		Vendor:     VendorOpenAI,
		LatencyMS:  opts.LatencyMS,
		DataSource: DataSourceAPI,
	}
	if usage := asMap(doc["usage"]); usage != nil {
		resp.Metadata = map[string]any{"usage": usage}
	}
	finalize(resp)
	return resp, nil
}
