package outputparser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJSONDirect(t *testing.T) {
	var v map[string]any
	err := ParseJSON(`{"name": "Paris", "population": 2100000}`, &v)
	require.NoError(t, err)
	assert.Equal(t, "Paris", v["name"])
}

func TestParseJSONMarkdownBlock(t *testing.T) {
	var v map[string]any
	err := ParseJSON("Here you go:\n```json\n{\"a\": 1}\n```", &v)
	require.NoError(t, err)
	assert.Equal(t, float64(1), v["a"])
}

func TestParseJSONAnyCodeBlock(t *testing.T) {
	var v map[string]any
	err := ParseJSON("```\n{\"a\": 1}\n```", &v)
	require.NoError(t, err)
	assert.Equal(t, float64(1), v["a"])
}

func TestParseJSONBracketFallback(t *testing.T) {
	var v map[string]any
	err := ParseJSON(`The answer is {"a": 1} as shown above.`, &v)
	require.NoError(t, err)
	assert.Equal(t, float64(1), v["a"])
}

func TestParseJSONArrayBracketFallback(t *testing.T) {
	var v []int
	err := ParseJSON(`The list is [1, 2, 3] above.`, &v)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, v)
}

func TestParseJSONWithThinkTagPrefix(t *testing.T) {
	var v map[string]any
	err := ParseJSON(`<think>let me compute</think>{"a": 1}`, &v)
	require.NoError(t, err)
	assert.Equal(t, float64(1), v["a"])
}

func TestParseJSONRepairFallback(t *testing.T) {
	var v map[string]any
	err := ParseJSON(`{'a': 1,}`, &v)
	require.NoError(t, err)
	assert.Equal(t, float64(1), v["a"])
}

func TestParseJSONAutoCompleteFallback(t *testing.T) {
	var v map[string]any
	err := ParseJSON(`{"a": 1, "b": "cut off`, &v)
	require.NoError(t, err)
	assert.Equal(t, float64(1), v["a"])
}

func TestParseJSONEmptyResponse(t *testing.T) {
	var v any
	err := ParseJSON("   ", &v)
	require.Error(t, err)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, ErrEmptyResponse, pe.Kind)
}

func TestParseJSONUnparseable(t *testing.T) {
	var v any
	err := ParseJSON("this has no json in it whatsoever", &v)
	require.Error(t, err)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, ErrDeserializationFailed, pe.Kind)
}

func TestParseJSONValueReturnsAny(t *testing.T) {
	v, err := ParseJSONValue(`{"a": 1}`)
	require.NoError(t, err)
	m, ok := v.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(1), m["a"])
}
