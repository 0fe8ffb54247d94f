package outputparser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTextAlreadyClean(t *testing.T) {
	text, err := ParseText("The capital of France is Paris.")
	require.NoError(t, err)
	assert.Equal(t, "The capital of France is Paris.", text)
}

func TestParseTextWithThinkTag(t *testing.T) {
	text, err := ParseText("<think>let me think</think>Paris is the capital.")
	require.NoError(t, err)
	assert.Equal(t, "Paris is the capital.", text)
}

func TestParseTextSurePrefix(t *testing.T) {
	text, err := ParseText("Sure! Paris is the capital of France.")
	require.NoError(t, err)
	assert.Equal(t, "Paris is the capital of France.", text)
}

func TestParseTextHeresPrefix(t *testing.T) {
	text, err := ParseText("Here's the answer:\nParis is the capital.")
	require.NoError(t, err)
	assert.Equal(t, "Paris is the capital.", text)
}

func TestParseTextEmptyAfterStrip(t *testing.T) {
	_, err := ParseText("   ")
	require.Error(t, err)
}

func TestParseTextOfCoursePrefix(t *testing.T) {
	text, err := ParseText("Of course! It is Paris.")
	require.NoError(t, err)
	assert.Equal(t, "It is Paris.", text)
}
