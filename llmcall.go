package llmpipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nexxia-ai/llmpipeline/backend"
	"github.com/nexxia-ai/llmpipeline/event"
	"github.com/nexxia-ai/llmpipeline/outputparser"
)

// LLMCall is the primary payload: it renders a prompt template, dispatches
// it to a backend, parses the raw text via an OutputStrategy, and
// optionally retries on a semantic validation failure.
type LLMCall struct {
	name           string
	promptTemplate string
	systemTemplate *string
	model          string
	config         LLMConfig
	streaming      bool
	outputStrategy OutputStrategy
	retry          *RetryConfig
}

// NewLLMCall creates a LLMCall with the default model, config, and the
// never-fails Lossy output strategy.
func NewLLMCall(name, promptTemplate string) *LLMCall {
	return &LLMCall{
		name:           name,
		promptTemplate: promptTemplate,
		model:          "llama3.2:3b",
		config:         DefaultLLMConfig(),
		outputStrategy: Lossy(),
	}
}

func (l *LLMCall) PromptTemplate() string         { return l.promptTemplate }
func (l *LLMCall) SystemTemplate() *string        { return l.systemTemplate }
func (l *LLMCall) Model() string                  { return l.model }
func (l *LLMCall) Config() LLMConfig              { return l.config }
func (l *LLMCall) IsStreaming() bool              { return l.streaming }
func (l *LLMCall) OutputStrategy() OutputStrategy { return l.outputStrategy }
func (l *LLMCall) Retry() *RetryConfig            { return l.retry }

// Kind identifies this payload's type for logging and events.
func (l *LLMCall) Kind() string { return "llm-call" }

// Name returns the payload's instance name.
func (l *LLMCall) Name() string { return l.name }

// WithSystem sets a system prompt template (triggers chat mode on Ollama).
func (l *LLMCall) WithSystem(template string) *LLMCall {
	l.systemTemplate = &template
	return l
}

// WithModel sets the model identifier.
func (l *LLMCall) WithModel(model string) *LLMCall {
	l.model = model
	return l
}

// WithConfig sets the generation config.
func (l *LLMCall) WithConfig(config LLMConfig) *LLMCall {
	l.config = config
	return l
}

// WithStreaming enables or disables the streaming endpoint.
func (l *LLMCall) WithStreaming(enabled bool) *LLMCall {
	l.streaming = enabled
	return l
}

// WithOutputStrategy sets a custom output strategy.
func (l *LLMCall) WithOutputStrategy(strategy OutputStrategy) *LLMCall {
	l.outputStrategy = strategy
	return l
}

// WithRetry sets the semantic retry configuration.
func (l *LLMCall) WithRetry(retry RetryConfig) *LLMCall {
	l.retry = &retry
	return l
}

// ExpectingJSON is shorthand for WithOutputStrategy(JSON()).
func (l *LLMCall) ExpectingJSON() *LLMCall { return l.WithOutputStrategy(JSON()) }

// ExpectingList is shorthand for WithOutputStrategy(StringList()).
func (l *LLMCall) ExpectingList() *LLMCall { return l.WithOutputStrategy(StringList()) }

// ExpectingChoice is shorthand for WithOutputStrategy(Choice(choices...)).
func (l *LLMCall) ExpectingChoice(choices ...string) *LLMCall {
	return l.WithOutputStrategy(Choice(choices...))
}

// ExpectingNumber is shorthand for WithOutputStrategy(Number()).
func (l *LLMCall) ExpectingNumber() *LLMCall { return l.WithOutputStrategy(Number()) }

// ExpectingNumberInRange is shorthand for WithOutputStrategy(NumberInRange(min, max)).
func (l *LLMCall) ExpectingNumberInRange(min, max float64) *LLMCall {
	return l.WithOutputStrategy(NumberInRange(min, max))
}

// ExpectingText is shorthand for WithOutputStrategy(Text()).
func (l *LLMCall) ExpectingText() *LLMCall { return l.WithOutputStrategy(Text()) }

// inputToString converts a Payload's input into the string substituted for
// {input} in the prompt template: the string itself if input is already a
// string, otherwise its JSON encoding.
func inputToString(input any) string {
	if s, ok := input.(string); ok {
		return s
	}
	buf, err := json.Marshal(input)
	if err != nil {
		return fmt.Sprintf("%v", input)
	}
	return string(buf)
}

// buildRequest assembles a backend.Request from the call's current state.
func (l *LLMCall) buildRequest(prompt, system string, messages []backend.ChatMessage, stream bool) backend.Request {
	return backend.Request{
		Prompt:      prompt,
		System:      system,
		Messages:    messages,
		Model:       l.model,
		Temperature: l.config.Temperature,
		MaxTokens:   l.config.MaxTokens,
		Thinking:    l.config.Thinking,
		JSONMode:    l.config.JSONMode,
		Options:     l.config.Options,
		Stream:      stream,
	}
}

// translateBackendErr converts a backend-level error into the root
// package's error taxonomy: cancellation (which backend.WithBackoff can
// surface mid-retry via context.Canceled/DeadlineExceeded) maps to the
// distinct ErrCancelled rather than being mistaken for a retryable
// transport failure, an HTTPError carries its status through unchanged,
// and anything else is a TransportError (connection failure, DNS
// failure, timeout).
func translateBackendErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ErrCancelled
	}
	var httpErr *backend.HTTPError
	if errors.As(err, &httpErr) {
		return &HTTPError{Status: httpErr.Status, Body: httpErr.Body, RetryAfter: httpErr.RetryAfter}
	}
	return &TransportError{Err: err}
}

// callBackend executes request non-streaming, tracking transport retries
// and backoff time spent, and emitting a TransportRetry event per retry.
func (l *LLMCall) callBackend(ctx context.Context, execCtx *ExecCtx, request backend.Request) (backend.Response, int, time.Duration, error) {
	var transportRetries int
	var backoffTotal time.Duration

	onRetry := func(attempt int, delay time.Duration, reason string) {
		transportRetries = attempt
		backoffTotal += delay
		execCtx.emit(&event.TransportRetryEvent{Name: l.name, Attempt: attempt, Delay: delay.Milliseconds(), Reason: reason})
	}

	resp, err := backend.WithBackoff(ctx, execCtx.Backoff, onRetry, func(ctx context.Context) (backend.Response, error) {
		return execCtx.Backend.Call(ctx, execCtx.BaseURL, request, nil)
	})
	if err != nil {
		return backend.Response{}, transportRetries, backoffTotal, translateBackendErr(err)
	}
	return resp, transportRetries, backoffTotal, nil
}

// callBackendStreaming executes request streaming, emitting a Token event
// per incremental chunk in addition to the transport retry tracking
// callBackend does.
func (l *LLMCall) callBackendStreaming(ctx context.Context, execCtx *ExecCtx, request backend.Request) (backend.Response, int, time.Duration, error) {
	var transportRetries int
	var backoffTotal time.Duration

	onRetry := func(attempt int, delay time.Duration, reason string) {
		transportRetries = attempt
		backoffTotal += delay
		execCtx.emit(&event.TransportRetryEvent{Name: l.name, Attempt: attempt, Delay: delay.Milliseconds(), Reason: reason})
	}
	onToken := func(chunk string) {
		execCtx.emit(&event.TokenEvent{Name: l.name, Chunk: chunk})
	}

	resp, err := backend.WithBackoff(ctx, execCtx.Backoff, onRetry, func(ctx context.Context) (backend.Response, error) {
		return execCtx.Backend.Call(ctx, execCtx.BaseURL, request, onToken)
	})
	if err != nil {
		return backend.Response{}, transportRetries, backoffTotal, translateBackendErr(err)
	}
	return resp, transportRetries, backoffTotal, nil
}

// checkRetryNeeded reports the reason a semantic retry is needed, or ""
// if output is acceptable: a parse error from the output strategy takes
// priority over the caller's validator.
func (l *LLMCall) checkRetryNeeded(output PayloadOutput, retryConfig RetryConfig) string {
	if output.Diagnostics != nil && output.Diagnostics.ParseError != "" {
		return output.Diagnostics.ParseError
	}
	if retryConfig.Validator != nil {
		if err := retryConfig.Validator(output.RawResponse, output.Value); err != nil {
			return err.Error()
		}
	}
	return ""
}

// buildOutput turns raw LLM text into a PayloadOutput using the configured
// OutputStrategy. This method must never fail: parse failures are recorded
// in Diagnostics.ParseError and the call falls back to a best-effort value
// instead of returning an error.
func (l *LLMCall) buildOutput(rawText string) PayloadOutput {
	thinking, cleaned := ExtractThinking(rawText)
	diag := NewParseDiagnostics()

	var value any
	switch l.outputStrategy.Kind {
	case StrategyLossy:
		diag.Strategy = "lossy"
		value = ParseValueLossy(cleaned)

	case StrategyJSON:
		diag.Strategy = "json"
		v, err := outputparser.ParseJSONValue(cleaned)
		if err != nil {
			diag.ParseError = err.Error()
			value = ParseValueLossy(cleaned)
		} else {
			value = v
		}

	case StrategyStringList:
		diag.Strategy = "string_list"
		items, err := outputparser.ParseStringListRaw(cleaned)
		if err != nil {
			diag.ParseError = err.Error()
			value = cleaned
		} else {
			arr := make([]any, len(items))
			for i, s := range items {
				arr[i] = s
			}
			value = arr
		}

	case StrategyXMLTag:
		diag.Strategy = "xml_tag"
		content, err := outputparser.ParseXMLTag(cleaned, l.outputStrategy.XMLTagName)
		if err != nil {
			diag.ParseError = err.Error()
			value = cleaned
		} else {
			value = content
		}

	case StrategyChoice:
		diag.Strategy = "choice"
		matched, err := outputparser.ParseChoice(cleaned, l.outputStrategy.Choices)
		if err != nil {
			diag.ParseError = err.Error()
			value = cleaned
		} else {
			value = matched
		}

	case StrategyNumber:
		diag.Strategy = "number"
		n, err := outputparser.ParseNumber(cleaned)
		if err != nil {
			diag.ParseError = err.Error()
			value = cleaned
		} else {
			value = n
		}

	case StrategyNumberInRange:
		diag.Strategy = "number_in_range"
		n, err := outputparser.ParseNumberInRange(cleaned, l.outputStrategy.Min, l.outputStrategy.Max)
		if err != nil {
			diag.ParseError = err.Error()
			value = cleaned
		} else {
			value = n
		}

	case StrategyText:
		diag.Strategy = "text"
		txt, err := outputparser.ParseText(cleaned)
		if err != nil {
			diag.ParseError = err.Error()
			value = cleaned
		} else {
			value = txt
		}

	case StrategyYAML:
		diag.Strategy = "yaml"
		var v any
		if err := outputparser.ParseYAML(cleaned, &v); err != nil {
			diag.ParseError = err.Error()
			value = cleaned
		} else {
			value = v
		}

	case StrategyCustom:
		diag.Strategy = "custom"
		v, err := l.outputStrategy.Custom(cleaned)
		if err != nil {
			diag.ParseError = err.Error()
			value = cleaned
		} else {
			value = v
		}
	}

	// The JSON strategy's own parser tries repair and auto-completion
	// internally; detect that one of those had to run by checking whether
	// a direct parse of the cleaned text (pre-repair) would itself have
	// succeeded.
	if diag.ParseError == "" && l.outputStrategy.Kind == StrategyJSON {
		if !json.Valid([]byte(cleaned)) {
			diag.Repaired = true
		}
	}

	return PayloadOutput{
		Value:       value,
		RawResponse: rawText,
		Thinking:    thinking,
		Model:       l.model,
		Diagnostics: diag,
	}
}

// Invoke renders the prompt and system templates, calls the backend, and
// parses the result via the configured OutputStrategy, retrying up to
// Retry.MaxRetries times on a semantic validation failure. It satisfies
// the Payload interface.
func (l *LLMCall) Invoke(ctx context.Context, execCtx *ExecCtx, input any) (PayloadOutput, error) {
	if err := ctx.Err(); err != nil {
		return PayloadOutput{}, ErrCancelled
	}

	execCtx.emit(&event.PayloadStartEvent{Name: l.name, PayloadKind: l.Kind()})

	inputStr := inputToString(input)
	prompt := Render(l.promptTemplate, inputStr, execCtx.Vars)
	var system string
	if l.systemTemplate != nil {
		system = Render(*l.systemTemplate, "", execCtx.Vars)
	}

	request := l.buildRequest(prompt, system, nil, l.streaming)

	var (
		response         backend.Response
		transportRetries int
		backoffTotal     time.Duration
		callErr          error
	)
	if l.streaming {
		response, transportRetries, backoffTotal, callErr = l.callBackendStreaming(ctx, execCtx, request)
	} else {
		response, transportRetries, backoffTotal, callErr = l.callBackend(ctx, execCtx, request)
	}
	if callErr != nil {
		execCtx.emit(&event.PayloadEndEvent{Name: l.name, OK: false})
		return PayloadOutput{}, callErr
	}

	output := l.buildOutput(response.Text)
	output.Diagnostics.TransportRetries = transportRetries
	output.Diagnostics.BackoffTotal = backoffTotal

	if l.retry != nil {
		retryConfig := *l.retry
		reason := l.checkRetryNeeded(output, retryConfig)

		if reason != "" {
			messages := []backend.ChatMessage{{Role: backend.RoleUser, Content: prompt}}

			for attempt := 1; attempt <= retryConfig.MaxRetries; attempt++ {
				if err := ctx.Err(); err != nil {
					return PayloadOutput{}, ErrCancelled
				}

				execCtx.emit(&event.RetryStartEvent{Name: l.name, Attempt: attempt, Reason: reason})

				messages = append(messages,
					backend.ChatMessage{Role: backend.RoleAssistant, Content: output.RawResponse},
					backend.ChatMessage{Role: backend.RoleUser, Content: fmt.Sprintf(
						"Your previous response was invalid: %s. Please try again with the correct format.", reason)},
				)

				retryTemperature := retryConfig.coolDownTemperature(l.config.Temperature, attempt)

				retryRequest := backend.Request{
					Prompt:      prompt,
					System:      system,
					Messages:    append([]backend.ChatMessage(nil), messages...),
					Model:       l.model,
					Temperature: retryTemperature,
					MaxTokens:   l.config.MaxTokens,
					Thinking:    l.config.Thinking,
					JSONMode:    l.config.JSONMode,
					Options:     l.config.Options,
					Stream:      false, // retries always non-streaming
				}

				response, tr, bt, err := l.callBackend(ctx, execCtx, retryRequest)
				transportRetries += tr
				backoffTotal += bt
				if err != nil {
					execCtx.emit(&event.RetryEndEvent{Name: l.name, Attempts: attempt, Success: false})
					execCtx.emit(&event.PayloadEndEvent{Name: l.name, OK: false})
					return PayloadOutput{}, err
				}

				output = l.buildOutput(response.Text)
				output.Diagnostics.RetryAttempts = attempt
				output.Diagnostics.TransportRetries = transportRetries
				output.Diagnostics.BackoffTotal = backoffTotal

				reason = l.checkRetryNeeded(output, retryConfig)
				if reason == "" {
					execCtx.emit(&event.RetryEndEvent{Name: l.name, Attempts: attempt, Success: true})
					break
				}

				if attempt == retryConfig.MaxRetries {
					output.Diagnostics.RetryAttempts = attempt
					execCtx.emit(&event.RetryEndEvent{Name: l.name, Attempts: attempt, Success: false})
				}
			}
		}
	}

	execCtx.emit(&event.PayloadEndEvent{Name: l.name, OK: true})
	return output, nil
}
