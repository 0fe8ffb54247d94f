package outputparser

import (
	"encoding/json"
)

// ParseJSONValue extracts a JSON value from response using a 5-strategy
// pipeline: direct parse on the preprocessed text, a markdown ```json
// code block, any fenced code block that looks like JSON, a
// bracket-matched object, and a bracket-matched array. The first of these
// that yields a candidate is parsed; if that fails, TryRepairJSON runs on
// the candidate and then on the whole preprocessed text, and
// AutoCompleteJSON runs on the candidate, before giving up.
func ParseJSONValue(response string) (any, error) {
	var v any
	if err := ParseJSON(response, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// ParseJSON extracts a JSON value from response and decodes it into dst,
// using the same strategy pipeline as ParseJSONValue.
func ParseJSON(response string, dst any) error {
	cleaned := Preprocess(response)
	if cleaned == "" {
		return errEmptyResponse()
	}

	candidate, hasCandidate := extractJSONCandidate(cleaned)

	if hasCandidate {
		if err := json.Unmarshal([]byte(candidate), dst); err == nil {
			return nil
		}
	}

	if repaired, ok := TryRepairJSON(candidate); ok {
		if err := json.Unmarshal([]byte(repaired), dst); err == nil {
			return nil
		}
	}
	if candidate != cleaned {
		if repaired, ok := TryRepairJSON(cleaned); ok {
			if err := json.Unmarshal([]byte(repaired), dst); err == nil {
				return nil
			}
		}
	}

	if completed, ok := AutoCompleteJSON(candidate); ok {
		if err := json.Unmarshal([]byte(completed), dst); err == nil {
			return nil
		}
	}

	return errDeserializationFailed("no strategy produced valid JSON", truncate(cleaned, 200))
}

// extractJSONCandidate finds the most likely JSON substring in cleaned:
// a direct-parseable whole string, a ```json code block, any code block
// starting with { or [, a bracket-matched object, a bracket-matched
// array, or — failing all of those — cleaned itself as a fallback
// candidate for repair.
func extractJSONCandidate(cleaned string) (string, bool) {
	if json.Valid([]byte(cleaned)) {
		return cleaned, true
	}

	if block, ok := ExtractCodeBlockFor(cleaned, "json"); ok {
		return block, true
	}

	if _, block, ok := ExtractCodeBlock(cleaned); ok {
		trimmed := trimLeadingSpace(block)
		if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
			return block, true
		}
	}

	if obj, ok := FindBracketed(cleaned, '{', '}'); ok {
		return obj, true
	}

	if arr, ok := FindBracketed(cleaned, '[', ']'); ok {
		return arr, true
	}

	return cleaned, false
}

func trimLeadingSpace(s string) string {
	i := 0
	for i < len(s) && (s[i] == ' ' || s[i] == '\n' || s[i] == '\t' || s[i] == '\r') {
		i++
	}
	return s[i:]
}
