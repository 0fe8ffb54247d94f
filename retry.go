package llmpipeline

import "fmt"

// ValidatorFunc is the semantic validator function used by RetryConfig.
// It receives the raw model text and the parsed value, returning an
// error describing the problem when the output is semantically invalid.
type ValidatorFunc func(raw string, value any) error

// RetryConfig enables LLM-in-the-loop retry on parse failure. When the
// output strategy on an LLMCall produces a parse failure (recorded in
// ParseDiagnostics), or an optional Validator rejects an otherwise
// successfully parsed value, the retry system constructs a correction
// prompt containing the original request, the bad output, and the error
// description, then re-calls the model.
//
//	// Simple: retry up to 2 times on parse failure
//	cfg := NewRetryConfig(2)
//
//	// With semantic validation
//	cfg := NewRetryConfig(2).RequiringKeys("title", "year")
//
//	// Disable temperature cool-down
//	cfg := NewRetryConfig(3).NoCoolDown()
type RetryConfig struct {
	// MaxRetries is the maximum retry attempts (not counting the initial
	// call). Clamped to the range 1-5.
	MaxRetries int

	// Validator runs AFTER the output strategy succeeds, for semantic
	// validation (range checks, required keys, enum values) beyond
	// structural parsing. Nil means no additional validation.
	Validator ValidatorFunc

	// CoolDown lowers the sampling temperature by 0.2 per retry attempt
	// (floored at 0.0) when true. Default: true.
	CoolDown bool
}

// NewRetryConfig creates a RetryConfig that retries up to maxRetries
// times on OutputStrategy parse failure only. maxRetries is clamped to
// [1, 5].
func NewRetryConfig(maxRetries int) RetryConfig {
	if maxRetries > 5 {
		maxRetries = 5
	}
	if maxRetries < 1 {
		maxRetries = 1
	}
	return RetryConfig{MaxRetries: maxRetries, CoolDown: true}
}

// WithValidator attaches a semantic validator to cfg.
func (cfg RetryConfig) WithValidator(fn ValidatorFunc) RetryConfig {
	cfg.Validator = fn
	return cfg
}

// RequiringKeys is shorthand for WithValidator that validates the parsed
// value is a map containing every key in keys, each with a non-nil
// value.
func (cfg RetryConfig) RequiringKeys(keys ...string) RetryConfig {
	return cfg.WithValidator(func(_ string, value any) error {
		m, ok := value.(map[string]any)
		if !ok {
			return fmt.Errorf("expected an object, got %T", value)
		}
		for _, key := range keys {
			v, present := m[key]
			if !present {
				return fmt.Errorf("missing required key: %q", key)
			}
			if v == nil {
				return fmt.Errorf("required key %q is null", key)
			}
		}
		return nil
	})
}

// NoCoolDown disables the temperature cool-down between retry attempts.
func (cfg RetryConfig) NoCoolDown() RetryConfig {
	cfg.CoolDown = false
	return cfg
}

// coolDownTemperature returns temperature lowered by 0.2 per attempt,
// floored at 0.0, when cfg.CoolDown is enabled. attempt is 1-indexed.
func (cfg RetryConfig) coolDownTemperature(temperature float64, attempt int) float64 {
	if !cfg.CoolDown {
		return temperature
	}
	t := temperature - 0.2*float64(attempt)
	if t < 0 {
		t = 0
	}
	return t
}
