package normalize

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/citelens/citelens/pkg/shared/httputil"
)

// Adapter converts one raw payload into one canonical record. Calls are
// pure, synchronous transformations over an already-received payload; the
// only blocking I/O is redirect resolution inside the gemini adapter.
// Adapters hold no per-call state and are safe for concurrent use.
type Adapter interface {
	Vendor() string
	Normalize(ctx context.Context, raw any, opts Options) (*ProviderResponse, error)
}

// Registry selects adapters by model id or capture tag. Build one per
// configuration; it is immutable afterwards.
type Registry struct {
	cfg      Config
	vendors  map[string]Adapter
	captures map[string]Adapter
}

// NewRegistry wires the fixed adapter set from the given config.
func NewRegistry(cfg Config, log zerolog.Logger) *Registry {
	cfg = cfg.WithDefaults()
	var resolver *httputil.RedirectResolver
	if cfg.redirectsEnabled() {
		resolver = httputil.NewRedirectResolver(time.Duration(cfg.RedirectTimeoutSecs) * time.Second)
	}
	return &Registry{
		cfg: cfg,
		vendors: map[string]Adapter{
			VendorOpenAI:    &openaiAdapter{log: log},
			VendorAnthropic: &anthropicAdapter{log: log},
			VendorGemini:    &geminiAdapter{log: log, resolver: resolver},
		},
		captures: map[string]Adapter{
			CaptureChatGPTWeb: &chatgptCapture{log: log},
			CaptureAIOverview: &aiOverviewCapture{log: log},
		},
	}
}

// ForModel returns the vendor adapter for a model id. Unknown models are
// rejected here, before any payload parsing.
func (r *Registry) ForModel(model string) (Adapter, error) {
	vendor, ok := r.cfg.Models[model]
	if !ok {
		return nil, &UnsupportedModelError{Model: model}
	}
	adapter, ok := r.vendors[vendor]
	if !ok {
		return nil, &UnsupportedModelError{Model: model}
	}
	return adapter, nil
}

// ForCapture returns the capture adapter for a capture tag.
func (r *Registry) ForCapture(tag string) (Adapter, error) {
	adapter, ok := r.captures[tag]
	if !ok {
		return nil, &UnsupportedCaptureError{Tag: tag}
	}
	return adapter, nil
}
