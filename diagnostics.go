package llmpipeline

import (
	"time"

	"github.com/google/uuid"
)

// ParseDiagnostics records how a PayloadOutput's value was obtained: which
// parse strategy ultimately succeeded, whether repair or auto-completion
// had to run, and how much retrying (semantic and transport-level) the
// call required. Diagnostics are advisory only — they never cause a call
// to fail.
type ParseDiagnostics struct {
	Strategy         string
	ParseError       string
	RetryAttempts    int
	TransportRetries int
	BackoffTotal     time.Duration
	Repaired         bool
	AutoCompleted    bool
	CorrelationID    string
}

// NewParseDiagnostics returns a zero-value ParseDiagnostics stamped with a
// fresh correlation ID, suitable as the starting point for a single
// LLMCall.Invoke.
func NewParseDiagnostics() *ParseDiagnostics {
	return &ParseDiagnostics{CorrelationID: uuid.NewString()}
}

// Ok reports whether the value was obtained without a parse error. A true
// result does not imply the value matches the caller's expected shape in
// every case — Lossy strategy, for instance, always reports Ok.
func (d *ParseDiagnostics) Ok() bool {
	return d.ParseError == ""
}
