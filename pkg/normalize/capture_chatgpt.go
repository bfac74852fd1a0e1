package normalize

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

// chatgptCapture normalizes ChatGPT web traffic captured as a server-sent
// event stream. Each data record is either a full-value notification or a
// {p, o, v} patch with operation append or replace (plus batched
// o:"patch" lists). The format is unversioned and undocumented: malformed
// records are skipped, and a catastrophic parse failure degrades to a
// minimal record so at least the answer text survives.
type chatgptCapture struct {
	log zerolog.Logger
}

func (c *chatgptCapture) Vendor() string { return CaptureChatGPTWeb }

func (c *chatgptCapture) Normalize(ctx context.Context, raw any, opts Options) (resp *ProviderResponse, err error) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Warn().Any("panic", r).Msg("ChatGPT capture parsing failed, returning minimal record")
			resp = minimalCaptureRecord(CaptureChatGPTWeb, opts, opts.DisplayText)
			err = nil
		}
	}()

	body, rawJSON := captureBody(raw)
	acc := &streamAccumulator{log: c.log}
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "" || payload == "[DONE]" {
			continue
		}
		if !gjson.Valid(payload) {
			c.log.Debug().Str("event", truncate(payload, 120)).Msg("Skipping malformed capture event")
			continue
		}
		acc.apply(gjson.Parse(payload))
	}
	return acc.assemble(opts, rawJSON), nil
}

// captureBody extracts the event-stream text from the capture input,
// which is either the stream itself or a record with a "body" field.
func captureBody(raw any) (string, json.RawMessage) {
	switch v := raw.(type) {
	case string:
		encoded, _ := json.Marshal(map[string]string{"body": v})
		return v, encoded
	case []byte:
		encoded, _ := json.Marshal(map[string]string{"body": string(v)})
		return string(v), encoded
	default:
		doc, rawJSON, err := coercePayload(raw)
		if err != nil {
			return "", nil
		}
		return str(doc, "body"), rawJSON
	}
}

type streamAccumulator struct {
	log     zerolog.Logger
	parts   []string
	queries []SearchQuery
	groups  [][]Source
}

func (a *streamAccumulator) apply(ev gjson.Result) {
	if !ev.IsObject() {
		return
	}
	op := ev.Get("o").String()
	path := ev.Get("p").String()
	val := ev.Get("v")
	switch {
	case op == "patch":
		for _, sub := range val.Array() {
			a.apply(sub)
		}
	case path != "":
		a.applyPatch(path, op, val)
	case val.Exists():
		a.ingestValue(val)
	}
}

// ingestValue handles full-value notifications: a complete message object
// or a bare text fragment continuing the answer.
func (a *streamAccumulator) ingestValue(val gjson.Result) {
	if val.Type == gjson.String {
		a.appendPart(0, val.String())
		return
	}
	msg := val.Get("message")
	if !msg.Exists() {
		msg = val
	}
	if parts := msg.Get("content.parts"); parts.IsArray() {
		a.parts = a.parts[:0]
		for _, p := range parts.Array() {
			a.parts = append(a.parts, p.String())
		}
	}
	a.ingestMetadata(msg.Get("metadata"))
}

func (a *streamAccumulator) ingestMetadata(meta gjson.Result) {
	if !meta.Exists() {
		return
	}
	if q := meta.Get("search_queries"); q.Exists() {
		a.addQueries(q, false)
	}
	if q := meta.Get("search_model_queries"); q.Exists() {
		a.addQueries(q, true)
	}
	if groups := meta.Get("search_result_groups"); groups.IsArray() {
		for i, g := range groups.Array() {
			a.ensureGroup(i)
			a.groups[i] = append(a.groups[i], parseStreamEntries(g)...)
		}
	}
}

// applyPatch routes one {p, o, v} patch by the structural fragments of
// its path. Unknown paths are ignored; group indices may arrive out of
// order and are back-filled with empty placeholders.
func (a *streamAccumulator) applyPatch(path, op string, val gjson.Result) {
	segs := strings.Split(strings.Trim(path, "/"), "/")
	switch {
	case hasSeg(segs, "parts"):
		idx, _ := segIndexAfter(segs, "parts")
		if op == "replace" {
			a.setPart(idx, val.String())
		} else {
			a.appendPart(idx, val.String())
		}
	case hasSeg(segs, "search_result_groups"):
		gi, _ := segIndexAfter(segs, "search_result_groups")
		a.ensureGroup(gi)
		entries := parseStreamEntries(val)
		if op == "replace" {
			a.groups[gi] = entries
		} else {
			a.groups[gi] = append(a.groups[gi], entries...)
		}
	case hasSeg(segs, "search_queries"):
		a.addQueries(val, false)
	case hasSeg(segs, "search_model_queries"):
		a.addQueries(val, true)
	case hasSeg(segs, "metadata"):
		a.ingestMetadata(val)
	}
}

// addQueries records query text from either metadata list. Model-refined
// queries (search_model_queries) that arrive after a user-visible query
// attach to the latest query as reformulations instead of standing alone.
func (a *streamAccumulator) addQueries(val gjson.Result, refined bool) {
	add := func(q string) {
		q = strings.TrimSpace(q)
		if q == "" {
			return
		}
		for i := range a.queries {
			if a.queries[i].Query == q {
				return
			}
			for _, r := range a.queries[i].Reformulations {
				if r == q {
					return
				}
			}
		}
		if refined && len(a.queries) > 0 {
			last := &a.queries[len(a.queries)-1]
			last.Reformulations = append(last.Reformulations, q)
			return
		}
		a.queries = append(a.queries, SearchQuery{Query: q, Sources: []Source{}, OrderIndex: len(a.queries)})
	}
	if val.IsArray() {
		for _, item := range val.Array() {
			if item.Type == gjson.String {
				add(item.String())
			} else {
				add(item.Get("q").String())
			}
		}
		return
	}
	if val.Type == gjson.String {
		add(val.String())
		return
	}
	add(val.Get("q").String())
}

func (a *streamAccumulator) ensureGroup(i int) {
	for len(a.groups) <= i {
		a.groups = append(a.groups, []Source{})
	}
}

func (a *streamAccumulator) setPart(i int, text string) {
	for len(a.parts) <= i {
		a.parts = append(a.parts, "")
	}
	a.parts[i] = text
}

func (a *streamAccumulator) appendPart(i int, text string) {
	for len(a.parts) <= i {
		a.parts = append(a.parts, "")
	}
	a.parts[i] += text
}

// parseStreamEntries accepts a single entry, a list of entries, or a
// group object wrapping an entries list.
func parseStreamEntries(val gjson.Result) []Source {
	var out []Source
	switch {
	case val.IsArray():
		for _, item := range val.Array() {
			out = append(out, parseStreamEntries(item)...)
		}
	case val.Get("entries").IsArray():
		out = append(out, parseStreamEntries(val.Get("entries"))...)
	case val.Get("url").Exists():
		src := Source{
			URL:       val.Get("url").String(),
			Title:     val.Get("title").String(),
			Snippet:   val.Get("snippet").String(),
			Domain:    val.Get("attribution").String(),
			Published: val.Get("pub_date").String(),
		}
		if src.URL != "" {
			out = append(out, src)
		}
	}
	return out
}

func (a *streamAccumulator) assemble(opts Options, rawJSON json.RawMessage) *ProviderResponse {
	answer := opts.DisplayText
	if answer == "" {
		answer = strings.Join(a.parts, "")
	}
	// Group-to-query correlation is not keyed in this capture format, so
	// sources attach to the response as a whole and queries keep empty
	// lists; rank is the flat 1-indexed discovery position.
	var sources []Source
	for _, group := range a.groups {
		for _, src := range group {
			src.Rank = intPtr(len(sources) + 1)
			sources = append(sources, src)
		}
	}
	ix := indexSources(sources)
	resp := &ProviderResponse{
		Text:       answer,
		Queries:    a.queries,
		Sources:    sources,
		Citations:  extractCitations(answer, ix),
		Raw:        rawJSON,
		Model:      opts.Model,
		Vendor:     CaptureChatGPTWeb,
		LatencyMS:  opts.LatencyMS,
		DataSource: DataSourceWeb,
	}
	finalize(resp)
	return resp
}

func minimalCaptureRecord(vendor string, opts Options, text string) *ProviderResponse {
	resp := &ProviderResponse{
		Text:       text,
		Model:      opts.Model,
		Vendor:     vendor,
		LatencyMS:  opts.LatencyMS,
		DataSource: DataSourceWeb,
	}
	finalize(resp)
	return resp
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}

func segIndexAfter(segs []string, key string) (int, bool) {
	for i, seg := range segs {
		if seg == key && i+1 < len(segs) {
			if n, err := strconv.Atoi(segs[i+1]); err == nil && n >= 0 {
				return n, true
			}
		}
	}
	return 0, false
}

func hasSeg(segs []string, key string) bool {
	for _, seg := range segs {
		if seg == key {
			return true
		}
	}
	return false
}
