package llmpipeline

import (
	"net/http"
	"strings"
	"time"

	"github.com/nexxia-ai/llmpipeline/backend"
	"github.com/nexxia-ai/llmpipeline/event"
)

const defaultTimeout = 60 * time.Second

// ExecCtx is the shared execution context for payload invocations. It
// carries the HTTP client, LLM backend, base URL, template variables, and
// an optional event handler. It is constructed once (via
// NewExecCtxBuilder) and shared across every payload in a chain.
// Cancellation is plumbed through the context.Context passed as the
// first argument to every blocking call (Invoke/Execute), the idiomatic
// Go substitute for an out-of-band cancellation flag.
//
// The backends in package backend do not read Client: they send requests
// through their own HTTPClient field, or http.DefaultClient when it is nil.
type ExecCtx struct {
	Client       *http.Client
	BaseURL      string
	Backend      backend.Backend
	Backoff      backend.BackoffConfig
	Vars         map[string]string
	EventHandler event.EventHandler
}

// emit forwards ev to ctx's event handler, if any.
func (ctx *ExecCtx) emit(ev event.Event) {
	event.Emit(ctx.EventHandler, ev)
}

// ExecCtxBuilder builds an ExecCtx. Zero value is not usable; start from
// NewExecCtxBuilder.
type ExecCtxBuilder struct {
	client       *http.Client
	baseURL      string
	backend      backend.Backend
	backoff      *backend.BackoffConfig
	vars         map[string]string
	eventHandler event.EventHandler
	timeout      time.Duration
}

// NewExecCtxBuilder starts a builder for an ExecCtx talking to baseURL
// (e.g. "http://localhost:11434" or "https://api.openai.com").
func NewExecCtxBuilder(baseURL string) *ExecCtxBuilder {
	return &ExecCtxBuilder{baseURL: baseURL, vars: make(map[string]string)}
}

// WithClient sets the HTTP client. If not set, a default client scoped to
// the builder's timeout is created.
func (b *ExecCtxBuilder) WithClient(client *http.Client) *ExecCtxBuilder {
	b.client = client
	return b
}

// WithBackend sets the LLM backend. Default: backend.NewOllamaBackend().
func (b *ExecCtxBuilder) WithBackend(be backend.Backend) *ExecCtxBuilder {
	b.backend = be
	return b
}

// WithOpenAI sets the backend to an unauthenticated OpenAI-compatible
// backend. Use WithOpenAIKey if the provider requires authentication.
func (b *ExecCtxBuilder) WithOpenAI() *ExecCtxBuilder {
	b.backend = backend.NewOpenAIBackend()
	return b
}

// WithOpenAIKey sets the backend to an OpenAI-compatible backend
// authenticated via "Authorization: Bearer {apiKey}".
func (b *ExecCtxBuilder) WithOpenAIKey(apiKey string) *ExecCtxBuilder {
	b.backend = backend.NewOpenAIBackend().WithAPIKey(apiKey)
	return b
}

// WithBackoff sets the transport retry configuration. Default:
// backend.BackoffNone().
func (b *ExecCtxBuilder) WithBackoff(cfg backend.BackoffConfig) *ExecCtxBuilder {
	b.backoff = &cfg
	return b
}

// WithVars sets all template variables at once, replacing any previously
// set.
func (b *ExecCtxBuilder) WithVars(vars map[string]string) *ExecCtxBuilder {
	b.vars = vars
	return b
}

// WithVar inserts a single template variable.
func (b *ExecCtxBuilder) WithVar(key, value string) *ExecCtxBuilder {
	b.vars[key] = value
	return b
}

// WithEventHandler sets the event handler for streaming tokens and
// lifecycle events.
func (b *ExecCtxBuilder) WithEventHandler(h event.EventHandler) *ExecCtxBuilder {
	b.eventHandler = h
	return b
}

// WithTimeout sets the timeout of the default HTTP client that Build
// stores in ExecCtx.Client. Default: 60 seconds. Ignored if WithClient was
// called.
func (b *ExecCtxBuilder) WithTimeout(timeout time.Duration) *ExecCtxBuilder {
	b.timeout = timeout
	return b
}

// Build finalizes the ExecCtx.
func (b *ExecCtxBuilder) Build() *ExecCtx {
	timeout := b.timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	client := b.client
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	be := b.backend
	if be == nil {
		be = backend.NewOllamaBackend()
	}
	boff := backend.BackoffNone()
	if b.backoff != nil {
		boff = *b.backoff
	}
	return &ExecCtx{
		Client:       client,
		BaseURL:      normalizeBaseURL(b.baseURL),
		Backend:      be,
		Backoff:      boff,
		Vars:         b.vars,
		EventHandler: b.eventHandler,
	}
}

// providerPathSuffixes are known provider path suffixes stripped from a
// base URL so backends don't double-path when they append their own
// endpoint. Order matters: longest first, so "/v1/chat/completions" is
// tried before its "/v1/chat" and "/v1" prefixes.
var providerPathSuffixes = []string{
	"/v1/chat/completions", "/v1/chat", "/v1",
	"/api/generate", "/api/chat", "/api",
}

// normalizeBaseURL strips a trailing slash and any known provider path
// suffix from url, e.g. "https://api.openai.com/v1" becomes
// "https://api.openai.com" and "http://localhost:11434/api" becomes
// "http://localhost:11434".
func normalizeBaseURL(url string) string {
	trimmed := strings.TrimSuffix(url, "/")
	for _, suffix := range providerPathSuffixes {
		if stripped, ok := strings.CutSuffix(trimmed, suffix); ok {
			return stripped
		}
	}
	return trimmed
}
