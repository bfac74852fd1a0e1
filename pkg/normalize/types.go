// Package normalize converts raw LLM vendor responses and captured browser
// traffic into one canonical record per interaction: answer text, issued
// search queries, fetched sources, and the citations actually used.
package normalize

import "encoding/json"

// DataSource identifies how the raw payload was obtained.
type DataSource string

const (
	DataSourceAPI DataSource = "api"
	DataSourceWeb DataSource = "web"
)

// Source is one fetched web result. Rank is the 1-indexed position at
// discovery within its owning query (or within the response-level list
// when no query correlation exists); nil means unknown order, never 0.
type Source struct {
	URL       string         `json:"url"`
	Title     string         `json:"title,omitempty"`
	Domain    string         `json:"domain,omitempty"`
	Rank      *int           `json:"rank,omitempty"`
	Published string         `json:"published,omitempty"`
	Snippet   string         `json:"snippet,omitempty"`
	Score     *float64       `json:"score,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// SearchQuery is one web search the model issued. Sources is empty when
// the underlying format does not reveal which query fetched which source;
// that gap is represented, not hidden.
type SearchQuery struct {
	Query          string    `json:"query"`
	Sources        []Source  `json:"sources"`
	OrderIndex     int       `json:"order_index"`
	RankingScores  []float64 `json:"ranking_scores,omitempty"`
	Reformulations []string  `json:"reformulations,omitempty"`
}

// Citation is one reference the answer text actually used. Rank is copied
// from the matched Source; nil rank with no source match marks an "extra
// link" cited in text but never listed among fetched sources. Start/End
// are Unicode code point offsets into the answer text.
type Citation struct {
	URL        string         `json:"url"`
	Title      string         `json:"title,omitempty"`
	Rank       *int           `json:"rank,omitempty"`
	Snippet    string         `json:"snippet,omitempty"`
	StartIndex *int           `json:"start_index,omitempty"`
	EndIndex   *int           `json:"end_index,omitempty"`
	Confidence *float64       `json:"confidence,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// ProviderResponse is the canonical record for one interaction. Citations
// are deduplicated by canonical URL with the first occurrence winning;
// ExtraLinksCount is the number of citations with no resolved source.
type ProviderResponse struct {
	Text            string          `json:"text"`
	Queries         []SearchQuery   `json:"queries"`
	Sources         []Source        `json:"sources"`
	Citations       []Citation      `json:"citations"`
	Raw             json.RawMessage `json:"raw,omitempty"`
	Model           string          `json:"model"`
	Vendor          string          `json:"vendor"`
	LatencyMS       int64           `json:"latency_ms"`
	Metadata        map[string]any  `json:"metadata,omitempty"`
	DataSource      DataSource      `json:"data_source"`
	ExtraLinksCount int             `json:"extra_links_count"`
}

// Options carries caller-supplied context for one normalization call.
type Options struct {
	// Model is the requested model id; vendor adapters fall back to the
	// model id found in the payload when empty.
	Model string
	// LatencyMS is the caller-measured request latency.
	LatencyMS int64
	// DisplayText is separately-extracted display text for capture
	// adapters; when empty the answer is reconstructed from the capture.
	DisplayText string
}

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

func copyIntPtr(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
