package llmpipeline

import (
	"github.com/pkoukk/tiktoken-go"
)

// LLMConfig carries the per-call generation parameters shared by every
// backend wire format. Unsupported fields are silently dropped by backends
// whose wire format has no equivalent (e.g. chat-completions providers
// drop Thinking and Options).
type LLMConfig struct {
	Temperature float64
	MaxTokens   int
	Thinking    bool
	JSONMode    bool
	Options     map[string]any
}

// DefaultLLMConfig returns the conservative defaults used when a LLMCall
// is built without an explicit config.
func DefaultLLMConfig() LLMConfig {
	return LLMConfig{
		Temperature: 0.7,
		MaxTokens:   2048,
		Thinking:    false,
		JSONMode:    false,
	}
}

// WithTemperature returns a copy of c with Temperature set.
func (c LLMConfig) WithTemperature(t float64) LLMConfig {
	c.Temperature = t
	return c
}

// WithMaxTokens returns a copy of c with MaxTokens set.
func (c LLMConfig) WithMaxTokens(n int) LLMConfig {
	c.MaxTokens = n
	return c
}

// WithThinking returns a copy of c with Thinking set.
func (c LLMConfig) WithThinking(enabled bool) LLMConfig {
	c.Thinking = enabled
	return c
}

// WithJSONMode returns a copy of c with JSONMode set.
func (c LLMConfig) WithJSONMode(enabled bool) LLMConfig {
	c.JSONMode = enabled
	return c
}

// WithOption returns a copy of c with a single custom option set, creating
// the Options map if necessary.
func (c LLMConfig) WithOption(key string, value any) LLMConfig {
	opts := make(map[string]any, len(c.Options)+1)
	for k, v := range c.Options {
		opts[k] = v
	}
	opts[key] = value
	c.Options = opts
	return c
}

// mergeCustomOptions shallow-merges extra into a copy of base, with extra
// taking precedence on key collisions. Either map may be nil.
func mergeCustomOptions(base, extra map[string]any) map[string]any {
	if len(base) == 0 && len(extra) == 0 {
		return nil
	}
	merged := make(map[string]any, len(base)+len(extra))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	return merged
}

// tokenEncoding is cached lazily; cl100k_base covers every model this
// package talks to closely enough for an estimate.
var tokenEncoding *tiktoken.Tiktoken

// EstimateTokens returns an approximate token count for text using the
// cl100k_base encoding. It is an estimate only: providers compute their own
// token accounting server-side, so this is meant for client-side prompt
// budgeting, not billing.
func EstimateTokens(text string) int {
	if tokenEncoding == nil {
		enc, err := tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			// Fall back to a rough heuristic if the encoding tables
			// failed to load (e.g. no network access to fetch the BPE
			// ranks file on first use).
			return len(text) / 4
		}
		tokenEncoding = enc
	}
	return len(tokenEncoding.Encode(text, nil, nil))
}
