// Package httputil provides the small HTTP surface the normalization layer
// needs: following vendor link-wrapper URLs to their real destination.
package httputil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	DefaultRedirectTimeout = 5 * time.Second
	maxRedirectHops        = 10
)

// RedirectResolver follows wrapper/shortener URLs and reports where they
// land. A nil resolver (or one built with no client) resolves nothing,
// which keeps callers network-free.
type RedirectResolver struct {
	client *http.Client
}

// NewRedirectResolver returns a resolver with a bounded-timeout client.
func NewRedirectResolver(timeout time.Duration) *RedirectResolver {
	if timeout <= 0 {
		timeout = DefaultRedirectTimeout
	}
	return &RedirectResolver{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirectHops {
					return errors.New("too many redirects")
				}
				return nil
			},
		},
	}
}

// NewRedirectResolverWithClient wraps an existing client, primarily for
// tests that point at a local server.
func NewRedirectResolverWithClient(client *http.Client) *RedirectResolver {
	return &RedirectResolver{client: client}
}

// Resolve follows rawURL and returns the final destination URL. Any
// failure (timeout, connection error, non-2xx terminal response) is
// returned as an error; callers are expected to keep the original URL.
func (r *RedirectResolver) Resolve(ctx context.Context, rawURL string) (string, error) {
	if r == nil || r.client == nil {
		return "", errors.New("redirect resolution disabled")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("http %d", resp.StatusCode)
	}
	if resp.Request != nil && resp.Request.URL != nil {
		return resp.Request.URL.String(), nil
	}
	return rawURL, nil
}
