package llmpipeline

import (
	"context"
	"testing"

	"github.com/nexxia-ai/llmpipeline/backend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildOutputLossyBackwardCompat(t *testing.T) {
	call := NewLLMCall("test", "prompt")
	output := call.buildOutput(`{"key": "value"}`)
	assert.IsType(t, map[string]any{}, output.Value)
	assert.True(t, output.Diagnostics.Ok())
	assert.Equal(t, "lossy", output.Diagnostics.Strategy)
}

func TestBuildOutputJSONStrategySucceeds(t *testing.T) {
	call := NewLLMCall("test", "prompt").ExpectingJSON()
	output := call.buildOutput(`{"key": "value"}`)
	m := output.Value.(map[string]any)
	assert.Equal(t, "value", m["key"])
	assert.True(t, output.Diagnostics.Ok())
}

func TestBuildOutputJSONStrategyRepairs(t *testing.T) {
	call := NewLLMCall("test", "prompt").ExpectingJSON()
	output := call.buildOutput("{'key': 'value',}")
	m := output.Value.(map[string]any)
	assert.Equal(t, "value", m["key"])
	assert.True(t, output.Diagnostics.Ok())
	assert.True(t, output.Diagnostics.Repaired)
}

func TestBuildOutputJSONStrategyFails(t *testing.T) {
	call := NewLLMCall("test", "prompt").ExpectingJSON()
	output := call.buildOutput("not json at all, just prose")
	assert.False(t, output.Diagnostics.Ok())
	assert.NotEmpty(t, output.Diagnostics.ParseError)
}

func TestBuildOutputJSONStrategyNotRepairedWhenAlreadyValid(t *testing.T) {
	call := NewLLMCall("test", "prompt").ExpectingJSON()
	output := call.buildOutput(`{"a": 1}`)
	assert.Equal(t, "json", output.Diagnostics.Strategy)
	assert.True(t, output.Diagnostics.Ok())
	assert.False(t, output.Diagnostics.Repaired)
	assert.Equal(t, 0, output.Diagnostics.RetryAttempts)
}

func TestBuildOutputStringListStrategy(t *testing.T) {
	call := NewLLMCall("test", "prompt").ExpectingList()
	output := call.buildOutput(`["a", "b", "c"]`)
	arr := output.Value.([]any)
	assert.Equal(t, []any{"a", "b", "c"}, arr)
	assert.True(t, output.Diagnostics.Ok())
}

func TestBuildOutputChoiceStrategy(t *testing.T) {
	call := NewLLMCall("test", "prompt").ExpectingChoice("yes", "no")
	output := call.buildOutput("I think the answer is yes.")
	assert.Equal(t, "yes", output.Value)
	assert.True(t, output.Diagnostics.Ok())
}

func TestBuildOutputNumberStrategy(t *testing.T) {
	call := NewLLMCall("test", "prompt").ExpectingNumber()
	output := call.buildOutput("The answer is 42")
	assert.Equal(t, float64(42), output.Value)
	assert.True(t, output.Diagnostics.Ok())
}

func TestBuildOutputNumberInRangeStrategyFails(t *testing.T) {
	call := NewLLMCall("test", "prompt").ExpectingNumberInRange(0, 10)
	output := call.buildOutput("The answer is 42")
	assert.False(t, output.Diagnostics.Ok())
}

func TestBuildOutputTextStrategy(t *testing.T) {
	call := NewLLMCall("test", "prompt").ExpectingText()
	output := call.buildOutput("Sure, here is the summary: all good.")
	assert.Equal(t, "here is the summary: all good.", output.Value)
	assert.True(t, output.Diagnostics.Ok())
}

func TestBuildOutputXMLTagStrategy(t *testing.T) {
	call := NewLLMCall("test", "prompt").WithOutputStrategy(XMLTag("answer"))
	output := call.buildOutput("<answer>42</answer>")
	assert.Equal(t, "42", output.Value)
	assert.True(t, output.Diagnostics.Ok())
}

func TestBuildOutputStripsThinking(t *testing.T) {
	call := NewLLMCall("test", "prompt")
	output := call.buildOutput("<think>reasoning here</think>final answer")
	assert.Equal(t, "final answer", output.Value)
	require.NotNil(t, output.Thinking)
	assert.Equal(t, "reasoning here", *output.Thinking)
}

func TestCheckRetryNeededParseError(t *testing.T) {
	call := NewLLMCall("test", "prompt").ExpectingJSON()
	output := call.buildOutput("not json")
	cfg := NewRetryConfig(2)
	assert.NotEmpty(t, call.checkRetryNeeded(output, cfg))
}

func TestCheckRetryNeededValidator(t *testing.T) {
	call := NewLLMCall("test", "prompt")
	output := call.buildOutput(`{"title": "x"}`)
	cfg := NewRetryConfig(2).RequiringKeys("title", "year")
	assert.NotEmpty(t, call.checkRetryNeeded(output, cfg))
}

func TestCheckRetryNeededOK(t *testing.T) {
	call := NewLLMCall("test", "prompt")
	output := call.buildOutput(`{"title": "x", "year": 1999}`)
	cfg := NewRetryConfig(2).RequiringKeys("title", "year")
	assert.Empty(t, call.checkRetryNeeded(output, cfg))
}

func TestAccessorsDefaults(t *testing.T) {
	call := NewLLMCall("test", "prompt {input}")
	assert.Equal(t, "llm-call", call.Kind())
	assert.Equal(t, "test", call.Name())
	assert.Equal(t, "prompt {input}", call.PromptTemplate())
	assert.Nil(t, call.SystemTemplate())
	assert.Equal(t, "llama3.2:3b", call.Model())
	assert.False(t, call.IsStreaming())
	assert.Nil(t, call.Retry())
	assert.Equal(t, StrategyLossy, call.OutputStrategy().Kind)
}

func TestWithSystemSetsTemplate(t *testing.T) {
	call := NewLLMCall("test", "prompt").WithSystem("You are a helpful {role}.")
	require.NotNil(t, call.SystemTemplate())
	assert.Equal(t, "You are a helpful {role}.", *call.SystemTemplate())
}

func TestBuildRequestCarriesConfig(t *testing.T) {
	call := NewLLMCall("test", "prompt").WithModel("gpt-4").WithConfig(DefaultLLMConfig().WithTemperature(0.3))
	req := call.buildRequest("hello", "", nil, false)
	assert.Equal(t, "gpt-4", req.Model)
	assert.Equal(t, 0.3, req.Temperature)
	assert.Equal(t, "hello", req.Prompt)
	assert.False(t, req.Stream)
}

func TestInvokeNonStreamingSuccess(t *testing.T) {
	mock := backend.NewMockBackend(`{"ok": true}`)
	execCtx := NewExecCtxBuilder("http://localhost:11434").WithBackend(mock).Build()
	call := NewLLMCall("test", "Summarize: {input}").ExpectingJSON()

	output, err := call.Invoke(context.Background(), execCtx, "some text")
	require.NoError(t, err)
	m := output.Value.(map[string]any)
	assert.Equal(t, true, m["ok"])
	assert.True(t, output.Diagnostics.Ok())
}

func TestInvokeRendersInputAndVars(t *testing.T) {
	mock := backend.NewMockBackend("done")
	execCtx := NewExecCtxBuilder("http://localhost:11434").WithBackend(mock).WithVar("audience", "experts").Build()
	call := NewLLMCall("test", "Write for {audience}: {input}")

	_, err := call.Invoke(context.Background(), execCtx, "topic X")
	require.NoError(t, err)
}

func TestInvokeRetriesOnParseFailureThenSucceeds(t *testing.T) {
	mock := backend.NewMockBackend("not json at all", `{"key": "value"}`)
	execCtx := NewExecCtxBuilder("http://localhost:11434").WithBackend(mock).Build()
	call := NewLLMCall("test", "prompt").ExpectingJSON().WithRetry(NewRetryConfig(2))

	output, err := call.Invoke(context.Background(), execCtx, "x")
	require.NoError(t, err)
	assert.True(t, output.Diagnostics.Ok())
	assert.Equal(t, 1, output.Diagnostics.RetryAttempts)
}

func TestInvokeExhaustsRetriesReturnsBestEffort(t *testing.T) {
	mock := backend.NewMockBackend("still not json")
	execCtx := NewExecCtxBuilder("http://localhost:11434").WithBackend(mock).Build()
	call := NewLLMCall("test", "prompt").ExpectingJSON().WithRetry(NewRetryConfig(1))

	output, err := call.Invoke(context.Background(), execCtx, "x")
	require.NoError(t, err)
	assert.False(t, output.Diagnostics.Ok())
	assert.Equal(t, 1, output.Diagnostics.RetryAttempts)
}

func TestInvokeCancelledContext(t *testing.T) {
	mock := backend.NewMockBackend("anything")
	execCtx := NewExecCtxBuilder("http://localhost:11434").WithBackend(mock).Build()
	call := NewLLMCall("test", "prompt")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := call.Invoke(ctx, execCtx, "x")
	assert.ErrorIs(t, err, ErrCancelled)
}
