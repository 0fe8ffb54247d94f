package llmpipeline

import "context"

// Chain composes multiple payloads into a sequential pipeline, piping each
// payload's output Value as the next payload's input. For branching,
// loops, or parallel execution, build a dedicated runtime around Payload
// instead.
//
// Chain itself implements Payload, so chains can be nested.
type Chain struct {
	name     string
	payloads []Payload
}

// NewChain creates a new empty chain.
func NewChain(name string) *Chain {
	return &Chain{name: name}
}

// Push adds a payload to the end of the chain (builder style).
func (c *Chain) Push(payload Payload) *Chain {
	c.payloads = append(c.payloads, payload)
	return c
}

// Add adds a payload to the end of the chain (mutation style).
func (c *Chain) Add(payload Payload) {
	c.payloads = append(c.payloads, payload)
}

// Len returns the number of payloads in the chain.
func (c *Chain) Len() int { return len(c.payloads) }

// IsEmpty reports whether the chain has no payloads.
func (c *Chain) IsEmpty() bool { return len(c.payloads) == 0 }

// Kind identifies this payload's type for logging and events.
func (c *Chain) Kind() string { return "chain" }

// Name returns the chain's instance name.
func (c *Chain) Name() string { return c.name }

// ExecuteAll runs every payload in order, returning each intermediate
// PayloadOutput. The first payload receives input; each subsequent payload
// receives the previous output's Value.
func (c *Chain) ExecuteAll(ctx context.Context, execCtx *ExecCtx, input any) ([]PayloadOutput, error) {
	if c.IsEmpty() {
		return nil, &InvalidConfigError{Message: "chain has no payloads"}
	}

	outputs := make([]PayloadOutput, 0, len(c.payloads))
	current := input

	for _, payload := range c.payloads {
		if err := ctx.Err(); err != nil {
			return nil, ErrCancelled
		}
		output, err := payload.Invoke(ctx, execCtx, current)
		if err != nil {
			return nil, err
		}
		current = output.Value
		outputs = append(outputs, output)
	}

	return outputs, nil
}

// Execute runs every payload in order and returns only the final output.
func (c *Chain) Execute(ctx context.Context, execCtx *ExecCtx, input any) (PayloadOutput, error) {
	outputs, err := c.ExecuteAll(ctx, execCtx, input)
	if err != nil {
		return PayloadOutput{}, err
	}
	return outputs[len(outputs)-1], nil
}

// Invoke satisfies the Payload interface, delegating to Execute so a Chain
// can be nested inside another Chain.
func (c *Chain) Invoke(ctx context.Context, execCtx *ExecCtx, input any) (PayloadOutput, error) {
	return c.Execute(ctx, execCtx, input)
}
