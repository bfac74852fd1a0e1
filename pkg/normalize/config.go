package normalize

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Vendor and capture identifiers.
const (
	VendorOpenAI    = "openai"
	VendorAnthropic = "anthropic"
	VendorGemini    = "gemini"

	CaptureChatGPTWeb = "chatgpt_web"
	CaptureAIOverview = "google_ai_overview"

	DefaultRedirectTimeoutSecs = 5
)

// Config controls adapter selection and redirect resolution. The model
// table is injected here rather than living in a package global so tests
// and callers can swap it freely.
type Config struct {
	// Models maps a model id to its vendor id. A model absent from the
	// table is rejected with UnsupportedModelError before any parsing.
	Models map[string]string `yaml:"models"`
	// RedirectTimeoutSecs bounds each redirect-resolution request.
	RedirectTimeoutSecs int `yaml:"redirect_timeout_seconds"`
	// ResolveRedirects disables all outbound requests when false; wrapped
	// URLs are then stored as-is.
	ResolveRedirects *bool `yaml:"resolve_redirects"`
}

// DefaultConfig returns the built-in model table.
func DefaultConfig() Config {
	return Config{
		Models: map[string]string{
			"gpt-4o":            VendorOpenAI,
			"gpt-4.1":           VendorOpenAI,
			"gpt-5":             VendorOpenAI,
			"o3":                VendorOpenAI,
			"claude-3-7-sonnet": VendorAnthropic,
			"claude-sonnet-4-5": VendorAnthropic,
			"claude-opus-4-1":   VendorAnthropic,
			"gemini-2.0-flash":  VendorGemini,
			"gemini-2.5-flash":  VendorGemini,
			"gemini-2.5-pro":    VendorGemini,
		},
		RedirectTimeoutSecs: DefaultRedirectTimeoutSecs,
	}
}

// WithDefaults fills unset fields from DefaultConfig.
func (c Config) WithDefaults() Config {
	def := DefaultConfig()
	if len(c.Models) == 0 {
		c.Models = def.Models
	}
	if c.RedirectTimeoutSecs <= 0 {
		c.RedirectTimeoutSecs = def.RedirectTimeoutSecs
	}
	return c
}

func (c Config) redirectsEnabled() bool {
	return c.ResolveRedirects == nil || *c.ResolveRedirects
}

// ParseConfig reads a YAML config document.
func ParseConfig(data []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}
