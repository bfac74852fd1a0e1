// Package urlcanon reduces URLs to comparison keys so that sources and
// citations can be matched across tracking parameters, fragments, and
// host aliasing.
package urlcanon

import (
	"net/url"
	"strings"
)

// Canonicalize returns the comparison key for rawURL: lower-case host
// without a leading "www.", path without a trailing slash (a bare "/" is
// kept), query and fragment dropped. Returns "" when the input cannot be
// parsed as an absolute URL. Never panics on malformed input.
func Canonicalize(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return ""
	}
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return ""
	}
	host := strings.ToLower(parsed.Host)
	host = strings.TrimPrefix(host, "www.")
	path := parsed.EscapedPath()
	if path != "/" {
		path = strings.TrimSuffix(path, "/")
	}
	return strings.ToLower(parsed.Scheme) + "://" + host + path
}

// Host returns the lower-cased host of rawURL without a leading "www.",
// or "" when the URL cannot be parsed.
func Host(rawURL string) string {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || parsed.Host == "" {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
}
