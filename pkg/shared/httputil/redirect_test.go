package httputil

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestResolveFollowsRedirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/wrapped", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/real/article", http.StatusFound)
	})
	mux.HandleFunc("/real/article", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	resolver := NewRedirectResolver(2 * time.Second)
	got, err := resolver.Resolve(context.Background(), srv.URL+"/wrapped")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := srv.URL + "/real/article"; got != want {
		t.Fatalf("resolved %q, want %q", got, want)
	}
}

func TestResolveTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer srv.Close()

	resolver := NewRedirectResolver(50 * time.Millisecond)
	if _, err := resolver.Resolve(context.Background(), srv.URL); err == nil {
		t.Fatal("expected timeout error")
	}
}

func TestResolveErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	resolver := NewRedirectResolver(time.Second)
	if _, err := resolver.Resolve(context.Background(), srv.URL); err == nil {
		t.Fatal("expected error for 404 response")
	}
}

func TestResolveDisabled(t *testing.T) {
	var resolver *RedirectResolver
	if _, err := resolver.Resolve(context.Background(), "https://example.com"); err == nil {
		t.Fatal("expected error from nil resolver")
	}
}
