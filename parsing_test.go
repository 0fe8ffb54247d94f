package llmpipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractThinkingPresent(t *testing.T) {
	thinking, cleaned := ExtractThinking("Before <think>my reasoning here</think> after")
	require.NotNil(t, thinking)
	assert.Equal(t, "my reasoning here", *thinking)
	assert.Equal(t, "Before  after", cleaned)
}

func TestExtractThinkingAbsent(t *testing.T) {
	thinking, cleaned := ExtractThinking("no thinking tags here")
	assert.Nil(t, thinking)
	assert.Equal(t, "no thinking tags here", cleaned)
}

func TestExtractThinkingEmpty(t *testing.T) {
	thinking, cleaned := ExtractThinking("<think>  </think>actual content")
	assert.Nil(t, thinking)
	assert.Equal(t, "actual content", cleaned)
}

func TestExtractJSONBlock(t *testing.T) {
	text := "text\n```json\n{\"a\":1}\n```\nmore"
	block, ok := extractJSONBlock(text)
	require.True(t, ok)
	assert.Equal(t, `{"a":1}`, block)
}

func TestExtractJSONBlockNone(t *testing.T) {
	_, ok := extractJSONBlock("no code block")
	assert.False(t, ok)
}

func TestExtractJSONCandidateFromBlock(t *testing.T) {
	text := "```json\n{\"x\":1}\n```"
	candidate, ok := extractJSONCandidate(text)
	require.True(t, ok)
	assert.Equal(t, `{"x":1}`, candidate)
}

func TestExtractJSONCandidateEmbedded(t *testing.T) {
	text := `Here is the result: {"name": "test"} done.`
	candidate, ok := extractJSONCandidate(text)
	require.True(t, ok)

	val := ParseValueLossy(candidate)
	m := val.(map[string]any)
	assert.Equal(t, "test", m["name"])
}

func TestParseValueLossyJSON(t *testing.T) {
	val := ParseValueLossy(`{"key": "value"}`)
	m := val.(map[string]any)
	assert.Equal(t, "value", m["key"])
}

func TestParseValueLossyString(t *testing.T) {
	val := ParseValueLossy("just plain text")
	assert.Equal(t, "just plain text", val)
}

func TestParseValueDefensivelyOK(t *testing.T) {
	val, err := ParseValueDefensively(`{"a": 1}`)
	require.NoError(t, err)
	m := val.(map[string]any)
	assert.Equal(t, float64(1), m["a"])
}

func TestParseValueDefensivelyErr(t *testing.T) {
	_, err := ParseValueDefensively("not json")
	assert.Error(t, err)
}

func TestParseAsDirect(t *testing.T) {
	type T struct {
		Value string `json:"value"`
	}
	var got T
	err := ParseAs(`{"value": "hi"}`, &got)
	require.NoError(t, err)
	assert.Equal(t, "hi", got.Value)
}

func TestParseAsFromCodeBlock(t *testing.T) {
	type T struct {
		Value string `json:"value"`
	}
	var got T
	err := ParseAs("```json\n{\"value\": \"hi\"}\n```", &got)
	require.NoError(t, err)
	assert.Equal(t, "hi", got.Value)
}

func TestParseAsFails(t *testing.T) {
	type T struct {
		Value string `json:"value"`
	}
	var got T
	err := ParseAs("no json here at all", &got)
	assert.Error(t, err)
}
