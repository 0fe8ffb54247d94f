package outputparser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseYAMLDirect(t *testing.T) {
	var v map[string]any
	err := ParseYAML("name: Paris\npopulation: 2100000\n", &v)
	require.NoError(t, err)
	assert.Equal(t, "Paris", v["name"])
}

func TestParseYAMLCodeBlock(t *testing.T) {
	var v map[string]any
	err := ParseYAML("Here you go:\n```yaml\nname: Paris\n```", &v)
	require.NoError(t, err)
	assert.Equal(t, "Paris", v["name"])
}

func TestParseYAMLAfterThinkTag(t *testing.T) {
	var v map[string]any
	err := ParseYAML("<think>reasoning</think>name: Paris\n", &v)
	require.NoError(t, err)
	assert.Equal(t, "Paris", v["name"])
}

func TestParseYAMLUnparseable(t *testing.T) {
	var v map[string]any
	err := ParseYAML(":::not yaml::: [[[", &v)
	require.Error(t, err)
}
