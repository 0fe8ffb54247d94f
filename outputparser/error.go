// Package outputparser turns raw, occasionally malformed LLM text into
// structured values: JSON, string lists, a choice among fixed options, a
// number, cleaned prose, XML-style tags, or YAML. Every entry point is
// grounded on the same "LLMs almost follow the format" assumption — each
// parser tries several strategies before giving up.
package outputparser

import "fmt"

// ParseError is the closed set of ways a parse attempt can fail.
type ParseError struct {
	Kind           ErrorKind
	ExpectedFormat string
	Text           string
	Reason         string
	RawJSON        string
	Valid          []string
}

// ErrorKind identifies which ParseError variant is populated.
type ErrorKind int

const (
	ErrEmptyResponse ErrorKind = iota
	ErrUnparseable
	ErrDeserializationFailed
	ErrNoMatchingChoice
	ErrNoNumber
)

func (e *ParseError) Error() string {
	switch e.Kind {
	case ErrEmptyResponse:
		return "empty response"
	case ErrUnparseable:
		return fmt.Sprintf("could not parse as %s: %s", e.ExpectedFormat, e.Text)
	case ErrDeserializationFailed:
		return fmt.Sprintf("deserialization failed: %s (raw: %s)", e.Reason, e.RawJSON)
	case ErrNoMatchingChoice:
		return fmt.Sprintf("no matching choice among %v", e.Valid)
	case ErrNoNumber:
		return "no number found"
	default:
		return "parse error"
	}
}

func errEmptyResponse() *ParseError { return &ParseError{Kind: ErrEmptyResponse} }

func errUnparseable(format, text string) *ParseError {
	return &ParseError{Kind: ErrUnparseable, ExpectedFormat: format, Text: truncate(text, 200)}
}

func errDeserializationFailed(reason, rawJSON string) *ParseError {
	return &ParseError{Kind: ErrDeserializationFailed, Reason: reason, RawJSON: rawJSON}
}

func errNoMatchingChoice(valid []string) *ParseError {
	return &ParseError{Kind: ErrNoMatchingChoice, Valid: valid}
}

func errNoNumber() *ParseError { return &ParseError{Kind: ErrNoNumber} }

// truncate shortens s to maxLen runes, appending "..." when it does.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}
