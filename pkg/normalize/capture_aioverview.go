package normalize

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
	"golang.org/x/net/html"

	"github.com/citelens/citelens/pkg/shared/urlcanon"
)

// aiOverviewCapture normalizes a captured Google AI Overview HTML
// document. Visible text comes from walking the tree outside script/style
// subtrees; source metadata is embedded as serialized array literals
// inside HTML comments, located by a quoted title followed within a
// bounded window by a quoted http(s) URL. The markup is an undocumented,
// versioned third-party format, so everything here degrades instead of
// failing.
type aiOverviewCapture struct {
	log zerolog.Logger
}

// Answer boilerplate appended by the UI, trimmed from the extracted text.
var overviewDisclaimers = []string{
	"AI responses may include mistakes.",
	"Generative AI is experimental.",
	"Info for reference only.",
}

// Hosts serving thumbnails, favicons, or click tracking rather than
// content; candidates on these hosts are skipped in favor of the next URL
// in the same match window.
var trackingHostRE = regexp.MustCompile(`(?i)(^|\.)(gstatic\.com|googleusercontent\.com|ggpht\.com|googleadservices\.com|doubleclick\.net|googlesyndication\.com|google\.com)$`)

var (
	quotedStringRE = regexp.MustCompile(`"((?:[^"\\]|\\.)*)"`)
	blankLinesRE   = regexp.MustCompile(`\n{3,}`)
)

// commentLookaheadWindow bounds how far past a candidate title the quoted
// URL may appear within the same serialized array.
const commentLookaheadWindow = 400

var skippedElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
	"head":     true,
	"iframe":   true,
	"svg":      true,
}

var blockElements = map[string]bool{
	"p": true, "div": true, "li": true, "ul": true, "ol": true,
	"br": true, "section": true, "article": true, "tr": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
}

func (a *aiOverviewCapture) Vendor() string { return CaptureAIOverview }

func (a *aiOverviewCapture) Normalize(ctx context.Context, raw any, opts Options) (resp *ProviderResponse, err error) {
	defer func() {
		if r := recover(); r != nil {
			a.log.Warn().Any("panic", r).Msg("AI Overview capture parsing failed, returning minimal record")
			resp = minimalCaptureRecord(CaptureAIOverview, opts, opts.DisplayText)
			err = nil
		}
	}()

	htmlText, rawJSON := htmlBody(raw)
	doc, parseErr := goquery.NewDocumentFromReader(strings.NewReader(htmlText))
	if parseErr != nil {
		a.log.Warn().Err(parseErr).Msg("AI Overview document unparseable, returning minimal record")
		return minimalCaptureRecord(CaptureAIOverview, opts, opts.DisplayText), nil
	}

	answer := opts.DisplayText
	if answer == "" {
		answer = visibleText(doc)
	}
	answer = trimDisclaimers(answer)

	var sources []Source
	seen := make(map[string]bool)
	for _, comment := range commentTexts(doc) {
		for _, cand := range scanCommentSources(comment) {
			if seen[cand.URL] {
				continue
			}
			seen[cand.URL] = true
			cand.Rank = intPtr(len(sources) + 1)
			cand.Domain = urlcanon.Host(cand.URL)
			sources = append(sources, cand)
		}
	}

	// The markup reveals no query text at all: sources attach to the
	// response as a whole and the query list stays empty.
	ix := indexSources(sources)
	resp = &ProviderResponse{
		Text:       answer,
		Sources:    sources,
		Citations:  extractCitations(answer, ix),
		Raw:        rawJSON,
		Model:      opts.Model,
		Vendor:     CaptureAIOverview,
		LatencyMS:  opts.LatencyMS,
		DataSource: DataSourceWeb,
	}
	finalize(resp)
	return resp, nil
}

func htmlBody(raw any) (string, json.RawMessage) {
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

// visibleText concatenates text nodes outside skipped subtrees, inserting
// paragraph breaks after block elements.
func visibleText(doc *goquery.Document) string {
	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.ElementNode:
			if skippedElements[n.Data] {
				return
			}
		case html.TextNode:
			if trimmed := strings.TrimSpace(n.Data); trimmed != "" {
				if sb.Len() > 0 && !strings.HasSuffix(sb.String(), "\n") {
					sb.WriteString(" ")
				}
				sb.WriteString(trimmed)
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
		if n.Type == html.ElementNode && blockElements[n.Data] {
			sb.WriteString("\n")
		}
	}
	for _, node := range doc.Nodes {
		walk(node)
	}
	text := blankLinesRE.ReplaceAllString(sb.String(), "\n\n")
	return strings.TrimSpace(text)
}

func trimDisclaimers(text string) string {
	for trimmed := true; trimmed; {
		trimmed = false
		for _, d := range overviewDisclaimers {
			if strings.HasSuffix(text, d) {
				text = strings.TrimSpace(strings.TrimSuffix(text, d))
				trimmed = true
			}
		}
	}
	return text
}

func commentTexts(doc *goquery.Document) []string {
	var out []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.CommentNode {
			out = append(out, n.Data)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	for _, node := range doc.Nodes {
		walk(node)
	}
	return out
}

// scanCommentSources extracts (title, url) pairs from one comment's
// serialized array literals: a quoted non-URL string followed, within the
// lookahead window, by a quoted http(s) URL on a non-tracking host.
func scanCommentSources(comment string) []Source {
	if !strings.Contains(comment, "http") {
		return nil
	}
	matches := quotedStringRE.FindAllStringSubmatchIndex(comment, -1)
	type quoted struct {
		value string
		pos   int
	}
	tokens := make([]quoted, 0, len(matches))
	for _, m := range matches {
		tokens = append(tokens, quoted{value: unescapeLiteral(comment[m[2]:m[3]]), pos: m[0]})
	}

	var out []Source
	for i, tok := range tokens {
		if !plausibleTitle(tok.value) {
			continue
		}
		for j := i + 1; j < len(tokens); j++ {
			if tokens[j].pos-tok.pos > commentLookaheadWindow {
				break
			}
			u := tokens[j].value
			if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
				continue
			}
			if isTrackingHost(u) {
				// Thumbnail/tracker; keep looking in the same window.
				continue
			}
			out = append(out, Source{URL: u, Title: tok.value})
			break
		}
	}
	return out
}

func plausibleTitle(s string) bool {
	if len(s) < 3 || len(s) > 300 {
		return false
	}
	if strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") || strings.HasPrefix(s, "//") {
		return false
	}
	for _, r := range s {
		if ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') || r > 127 {
			return true
		}
	}
	return false
}

func isTrackingHost(rawURL string) bool {
	host := urlcanon.Host(rawURL)
	return host == "" || trackingHostRE.MatchString(host)
}

func unescapeLiteral(s string) string {
	replacer := strings.NewReplacer(
		`\/`, "/",
		`\"`, `"`,
		`\\`, `\`,
		`\u0026`, "&",
		`\u003d`, "=",
	)
	return replacer.Replace(s)
}
