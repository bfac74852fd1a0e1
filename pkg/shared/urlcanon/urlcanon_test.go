package urlcanon

import "testing"

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: "https://example.com/a/b", want: "https://example.com/a/b"},
		{name: "upper host www query fragment", in: "https://WWW.Example.com/a/b/?x=1#f", want: "https://example.com/a/b"},
		{name: "trailing slash", in: "https://example.com/a/b/", want: "https://example.com/a/b"},
		{name: "root slash kept", in: "https://example.com/", want: "https://example.com/"},
		{name: "no path", in: "https://example.com", want: "https://example.com"},
		{name: "scheme case", in: "HTTPS://example.com/x", want: "https://example.com/x"},
		{name: "tracking params", in: "https://example.com/page?utm_source=openai&utm_medium=chat", want: "https://example.com/page"},
		{name: "not a url", in: "not a url", want: ""},
		{name: "empty", in: "", want: ""},
		{name: "whitespace", in: "   ", want: ""},
		{name: "relative", in: "/just/a/path", want: ""},
		{name: "missing scheme", in: "example.com/a", want: ""},
		{name: "port preserved", in: "https://Example.com:8443/a/", want: "https://example.com:8443/a"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Canonicalize(tc.in); got != tc.want {
				t.Fatalf("Canonicalize(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestCanonicalizeEquality(t *testing.T) {
	a := Canonicalize("https://WWW.Example.com/a/b/?x=1#f")
	b := Canonicalize("https://example.com/a/b")
	if a == "" || a != b {
		t.Fatalf("expected equal keys, got %q and %q", a, b)
	}
}

func TestHost(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "https://www.Example.com/a", want: "example.com"},
		{in: "https://vertexaisearch.cloud.google.com/grounding-api-redirect/x", want: "vertexaisearch.cloud.google.com"},
		{in: "garbage", want: ""},
	}
	for _, tc := range tests {
		if got := Host(tc.in); got != tc.want {
			t.Fatalf("Host(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
