package llmpipeline

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractThinking splits a <think>...</think> block (DeepSeek R1 style) out
// of text, returning the thinking content (nil if absent or blank) and the
// remaining text with the block removed and trimmed.
func ExtractThinking(text string) (thinking *string, cleaned string) {
	const open, close = "<think>", "</think>"

	start := strings.Index(text, open)
	if start < 0 {
		return nil, text
	}
	end := strings.Index(text, close)
	if end < 0 {
		return nil, text
	}

	think := strings.TrimSpace(text[start+len(open) : end])
	rest := strings.TrimSpace(text[:start] + text[end+len(close):])
	if think == "" {
		return nil, rest
	}
	return &think, rest
}

// extractJSONBlock pulls the content of a ```json, ```JSON, or plain ```
// fenced code block out of text, in that search order.
func extractJSONBlock(text string) (string, bool) {
	for _, marker := range []string{"```json", "```JSON", "```"} {
		start := strings.Index(text, marker)
		if start < 0 {
			continue
		}
		contentStart := start + len(marker)
		end := strings.Index(text[contentStart:], "```")
		if end < 0 {
			continue
		}
		return strings.TrimSpace(text[contentStart : contentStart+end]), true
	}
	return "", false
}

// extractJSONCandidate locates a JSON object or array inside text that may
// carry surrounding prose: first a fenced code block, then the first '{' or
// '[' paired with the last matching closer that parses.
func extractJSONCandidate(text string) (string, bool) {
	trimmed := strings.TrimSpace(text)

	if block, ok := extractJSONBlock(trimmed); ok {
		return block, true
	}

	idx := strings.IndexAny(trimmed, "{[")
	if idx < 0 {
		return "", false
	}
	candidate := trimmed[idx:]
	if json.Valid([]byte(candidate)) {
		return candidate, true
	}

	open := candidate[0]
	closeByte := byte('}')
	if open == '[' {
		closeByte = ']'
	}
	end := strings.LastIndexByte(candidate, closeByte)
	if end < 0 {
		return "", false
	}
	substr := candidate[:end+1]
	if json.Valid([]byte(substr)) {
		return substr, true
	}
	return "", false
}

// ParseValueLossy parses text into an any value, never failing: direct JSON
// parse, then embedded-JSON extraction, then the trimmed text wrapped as a
// plain string.
func ParseValueLossy(text string) any {
	trimmed := strings.TrimSpace(text)

	var val any
	if json.Unmarshal([]byte(trimmed), &val) == nil {
		return val
	}

	if candidate, ok := extractJSONCandidate(trimmed); ok {
		var v any
		if json.Unmarshal([]byte(candidate), &v) == nil {
			return v
		}
	}

	return trimmed
}

// ParseValueDefensively parses text into an any value via the same
// strategies as ParseValueLossy, but returns an error instead of falling
// back to a string when no valid JSON is found.
func ParseValueDefensively(text string) (any, error) {
	trimmed := strings.TrimSpace(text)

	var val any
	if json.Unmarshal([]byte(trimmed), &val) == nil {
		return val, nil
	}

	if candidate, ok := extractJSONCandidate(trimmed); ok {
		var v any
		if json.Unmarshal([]byte(candidate), &v) == nil {
			return v, nil
		}
	}

	return nil, &OtherError{Message: fmt.Sprintf(
		"no valid JSON found in LLM output. Raw text (truncated): %s", truncateText(trimmed, 200)),
	}
}

// ParseAs parses text into dst (a pointer) via the same defensive
// strategies as ParseValueDefensively: direct parse, fenced code block,
// then embedded JSON detection.
func ParseAs(text string, dst any) error {
	trimmed := strings.TrimSpace(text)

	if json.Unmarshal([]byte(trimmed), dst) == nil {
		return nil
	}

	if block, ok := extractJSONBlock(trimmed); ok {
		if json.Unmarshal([]byte(block), dst) == nil {
			return nil
		}
	}

	idx := strings.IndexAny(trimmed, "{[")
	if idx >= 0 {
		candidate := trimmed[idx:]
		if json.Unmarshal([]byte(candidate), dst) == nil {
			return nil
		}
		open := candidate[0]
		closeByte := byte('}')
		if open == '[' {
			closeByte = ']'
		}
		if end := strings.LastIndexByte(candidate, closeByte); end >= 0 {
			if json.Unmarshal([]byte(candidate[:end+1]), dst) == nil {
				return nil
			}
		}
	}

	return &OtherError{Message: fmt.Sprintf(
		"failed to parse LLM output as expected type. Raw text (truncated): %s", truncateText(trimmed, 200)),
	}
}

func truncateText(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen]
}
