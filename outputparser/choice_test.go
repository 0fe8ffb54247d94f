package outputparser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseChoiceExactMatch(t *testing.T) {
	choice, err := ParseChoice("yes", []string{"yes", "no"})
	require.NoError(t, err)
	assert.Equal(t, "yes", choice)
}

func TestParseChoiceWithPeriod(t *testing.T) {
	choice, err := ParseChoice("yes.", []string{"yes", "no"})
	require.NoError(t, err)
	assert.Equal(t, "yes", choice)
}

func TestParseChoiceBold(t *testing.T) {
	choice, err := ParseChoice("**yes**", []string{"yes", "no"})
	require.NoError(t, err)
	assert.Equal(t, "yes", choice)
}

func TestParseChoiceQuoted(t *testing.T) {
	choice, err := ParseChoice(`"yes"`, []string{"yes", "no"})
	require.NoError(t, err)
	assert.Equal(t, "yes", choice)
}

func TestParseChoiceInProse(t *testing.T) {
	choice, err := ParseChoice("I believe the answer is yes, definitely.", []string{"yes", "no"})
	require.NoError(t, err)
	assert.Equal(t, "yes", choice)
}

func TestParseChoiceCaseInsensitive(t *testing.T) {
	choice, err := ParseChoice("YES", []string{"yes", "no"})
	require.NoError(t, err)
	assert.Equal(t, "yes", choice)
}

func TestParseChoiceEarliestWins(t *testing.T) {
	choice, err := ParseChoice("Not no, but actually yes is correct", []string{"yes", "no"})
	require.NoError(t, err)
	assert.Equal(t, "no", choice)
}

func TestParseChoiceWithThinkTag(t *testing.T) {
	choice, err := ParseChoice("<think>hmm</think>yes", []string{"yes", "no"})
	require.NoError(t, err)
	assert.Equal(t, "yes", choice)
}

func TestParseChoiceNoMatch(t *testing.T) {
	_, err := ParseChoice("maybe", []string{"yes", "no"})
	require.Error(t, err)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, ErrNoMatchingChoice, pe.Kind)
}

func TestParseChoiceRejectsSubstringOfLargerWord(t *testing.T) {
	_, err := ParseChoice("yesterday was a good day", []string{"yes"})
	require.Error(t, err)
}
