package llmpipeline

import "context"

// PayloadOutput is the result of invoking a Payload: a structured Value
// plus the diagnostics and side information describing how it was
// obtained.
type PayloadOutput struct {
	Value        any
	RawResponse  string
	Thinking     *string
	Model        string
	Diagnostics  *ParseDiagnostics
}

// FromValue wraps a pre-computed value as a successful PayloadOutput with
// no diagnostics, useful for Payload implementations that don't talk to a
// model (e.g. pure transforms inside a Chain).
func FromValue(value any) PayloadOutput {
	return PayloadOutput{Value: value, Diagnostics: NewParseDiagnostics()}
}

// ParseAs unmarshals Value into dst via a round trip through encoding/json,
// for callers that want a typed view of a dynamically parsed result.
func (o PayloadOutput) ParseAs(dst any) error {
	return reencode(o.Value, dst)
}

// Payload is a single executable step in an orchestration run. Chain
// itself implements Payload so chains can nest.
type Payload interface {
	// Kind returns a short, stable identifier of the payload's type
	// (e.g. "llm_call", "chain"), used for logging and events.
	Kind() string
	// Name returns the payload's instance name.
	Name() string
	// Invoke runs the payload against input using execCtx's backend,
	// vars, and event handler, honoring ctx cancellation.
	Invoke(ctx context.Context, execCtx *ExecCtx, input any) (PayloadOutput, error)
}
