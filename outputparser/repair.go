package outputparser

import (
	"encoding/json"
	"strings"
)

// TryRepairJSON attempts to turn near-miss JSON into valid JSON by
// applying a fixed, order-sensitive sequence of textual repairs: strip
// comments, normalize Python literals (True/False/None), drop trailing
// commas, convert single-quoted strings/keys to double-quoted, quote bare
// object keys, append missing closing brackets/braces, and escape raw
// newlines inside string values. Each pass only rewrites text outside of
// string literals. Returns the repaired text and true if the result
// parses as valid JSON; if text is already valid JSON, it is returned
// unchanged with no passes applied.
func TryRepairJSON(text string) (string, bool) {
	if json.Valid([]byte(text)) {
		return text, true
	}

	repaired := text
	repaired = stripJSONComments(repaired)
	repaired = normalizePythonLiterals(repaired)
	repaired = removeTrailingCommas(repaired)
	repaired = singleToDoubleQuotes(repaired)
	repaired = quoteUnquotedKeys(repaired)
	repaired = closeMissingBrackets(repaired)
	repaired = escapeRawNewlines(repaired)

	return repaired, json.Valid([]byte(repaired))
}

// stripJSONComments removes // line comments and /* block comments */
// that appear outside string literals.
func stripJSONComments(text string) string {
	var out strings.Builder
	inString := false
	escaped := false
	for i := 0; i < len(text); i++ {
		c := text[i]
		if inString {
			out.WriteByte(c)
			if escaped {
				escaped = false
			} else if c == '\\' {
				escaped = true
			} else if c == '"' {
				inString = false
			}
			continue
		}
		if c == '"' {
			inString = true
			out.WriteByte(c)
			continue
		}
		if c == '/' && i+1 < len(text) && text[i+1] == '/' {
			for i < len(text) && text[i] != '\n' {
				i++
			}
			if i < len(text) {
				out.WriteByte('\n')
			}
			continue
		}
		if c == '/' && i+1 < len(text) && text[i+1] == '*' {
			end := strings.Index(text[i+2:], "*/")
			if end < 0 {
				break
			}
			i = i + 2 + end + 1
			continue
		}
		out.WriteByte(c)
	}
	return out.String()
}

// normalizePythonLiterals rewrites Python-style True/False/None to their
// JSON equivalents when they appear outside string literals, as a whole
// word (not part of a longer identifier).
func normalizePythonLiterals(text string) string {
	replacements := map[string]string{"True": "true", "False": "false", "None": "null"}
	var out strings.Builder
	inString := false
	escaped := false
	i := 0
	for i < len(text) {
		c := text[i]
		if inString {
			out.WriteByte(c)
			if escaped {
				escaped = false
			} else if c == '\\' {
				escaped = true
			} else if c == '"' {
				inString = false
			}
			i++
			continue
		}
		if c == '"' {
			inString = true
			out.WriteByte(c)
			i++
			continue
		}
		matched := false
		for word, repl := range replacements {
			if strings.HasPrefix(text[i:], word) {
				before := i == 0 || !isIdentByte(text[i-1])
				afterIdx := i + len(word)
				after := afterIdx >= len(text) || !isIdentByte(text[afterIdx])
				if before && after {
					out.WriteString(repl)
					i += len(word)
					matched = true
					break
				}
			}
		}
		if matched {
			continue
		}
		out.WriteByte(c)
		i++
	}
	return out.String()
}

func isIdentByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// removeTrailingCommas deletes a comma that appears (ignoring whitespace)
// immediately before a closing "}" or "]", outside string literals.
func removeTrailingCommas(text string) string {
	var out strings.Builder
	inString := false
	escaped := false
	runes := []byte(text)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		if inString {
			out.WriteByte(c)
			if escaped {
				escaped = false
			} else if c == '\\' {
				escaped = true
			} else if c == '"' {
				inString = false
			}
			continue
		}
		if c == '"' {
			inString = true
			out.WriteByte(c)
			continue
		}
		if c == ',' {
			j := i + 1
			for j < len(runes) && (runes[j] == ' ' || runes[j] == '\n' || runes[j] == '\t' || runes[j] == '\r') {
				j++
			}
			if j < len(runes) && (runes[j] == '}' || runes[j] == ']') {
				continue // drop the comma
			}
		}
		out.WriteByte(c)
	}
	return out.String()
}

// singleToDoubleQuotes converts 'single quoted' strings to "double
// quoted" ones, but only when the opening "'" sits at a structural
// boundary (the nearest non-whitespace byte before it is one of
// "{[:," and the nearest non-whitespace byte after its matching closer
// is one of "}]:,"). This keeps it from misreading an apostrophe inside
// an already-valid double-quoted string, e.g. "don't", as a quote.
func singleToDoubleQuotes(text string) string {
	var out strings.Builder
	inDouble := false
	escaped := false
	i := 0
	for i < len(text) {
		c := text[i]
		if inDouble {
			out.WriteByte(c)
			if escaped {
				escaped = false
			} else if c == '\\' {
				escaped = true
			} else if c == '"' {
				inDouble = false
			}
			i++
			continue
		}
		if c == '"' {
			inDouble = true
			out.WriteByte(c)
			i++
			continue
		}
		if c == '\'' && isStringBoundaryBefore(text, i) {
			if closeIdx, ok := findClosingSingleQuote(text, i+1); ok && isStringBoundaryAfter(text, closeIdx) {
				out.WriteByte('"')
				j := i + 1
				escapedInner := false
				for j < closeIdx {
					ch := text[j]
					if escapedInner {
						out.WriteByte(ch)
						escapedInner = false
						j++
						continue
					}
					if ch == '\\' {
						escapedInner = true
						out.WriteByte(ch)
						j++
						continue
					}
					if ch == '"' {
						out.WriteByte('\\')
					}
					out.WriteByte(ch)
					j++
				}
				out.WriteByte('"')
				i = closeIdx + 1
				continue
			}
		}
		out.WriteByte(c)
		i++
	}
	return out.String()
}

// isStringBoundaryBefore reports whether the nearest non-whitespace byte
// before position i (a candidate opening quote) is a structural byte
// that could precede a string value or key: "{[:," or the start of text.
func isStringBoundaryBefore(text string, i int) bool {
	if i == 0 {
		return true
	}
	j := i - 1
	for j > 0 && isJSONSpace(text[j]) {
		j--
	}
	if isJSONSpace(text[j]) && j == 0 {
		return true
	}
	switch text[j] {
	case '{', '[', ':', ',':
		return true
	}
	return false
}

// isStringBoundaryAfter reports whether the nearest non-whitespace byte
// after position i (a candidate closing quote) is a structural byte that
// could follow a string value or key: "}]:," or the end of text.
func isStringBoundaryAfter(text string, i int) bool {
	if i+1 >= len(text) {
		return true
	}
	j := i + 1
	for j < len(text) && isJSONSpace(text[j]) {
		j++
	}
	if j >= len(text) {
		return true
	}
	switch text[j] {
	case '}', ']', ':', ',':
		return true
	}
	return false
}

func isJSONSpace(c byte) bool {
	return c == ' ' || c == '\n' || c == '\t' || c == '\r'
}

// findClosingSingleQuote finds the next unescaped "'" starting at start.
func findClosingSingleQuote(text string, start int) (int, bool) {
	i := start
	for i < len(text) {
		if text[i] == '\\' {
			i += 2
			continue
		}
		if text[i] == '\'' {
			return i, true
		}
		i++
	}
	return 0, false
}

// quoteUnquotedKeys wraps bare object keys (identifier characters
// immediately followed by optional whitespace and a colon) in double
// quotes.
func quoteUnquotedKeys(text string) string {
	var out strings.Builder
	inString := false
	escaped := false
	i := 0
	for i < len(text) {
		c := text[i]
		if inString {
			out.WriteByte(c)
			if escaped {
				escaped = false
			} else if c == '\\' {
				escaped = true
			} else if c == '"' {
				inString = false
			}
			i++
			continue
		}
		if c == '"' {
			inString = true
			out.WriteByte(c)
			i++
			continue
		}
		if c == '{' || c == ',' {
			out.WriteByte(c)
			i++
			j := i
			for j < len(text) && (text[j] == ' ' || text[j] == '\n' || text[j] == '\t' || text[j] == '\r') {
				j++
			}
			keyStart := j
			for j < len(text) && isIdentByte(text[j]) {
				j++
			}
			if j > keyStart {
				k := j
				for k < len(text) && (text[k] == ' ' || text[k] == '\n' || text[k] == '\t' || text[k] == '\r') {
					k++
				}
				if k < len(text) && text[k] == ':' {
					out.WriteString(text[i:keyStart])
					out.WriteByte('"')
					out.WriteString(text[keyStart:j])
					out.WriteByte('"')
					i = j
					continue
				}
			}
			continue
		}
		out.WriteByte(c)
		i++
	}
	return out.String()
}

// closeMissingBrackets appends a "}" or "]" for every unmatched "{" or
// "[" found outside string literals, brackets first then braces, the
// order spec.md prescribes for step 6 of the repair sequence.
func closeMissingBrackets(text string) string {
	openBraces := 0
	openBrackets := 0
	inString := false
	escaped := false
	for i := 0; i < len(text); i++ {
		c := text[i]
		if escaped {
			escaped = false
			continue
		}
		if inString {
			if c == '\\' {
				escaped = true
			} else if c == '"' {
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			openBraces++
		case '}':
			openBraces--
		case '[':
			openBrackets++
		case ']':
			openBrackets--
		}
	}

	var out strings.Builder
	out.WriteString(text)
	for i := 0; i < openBrackets; i++ {
		out.WriteByte(']')
	}
	for i := 0; i < openBraces; i++ {
		out.WriteByte('}')
	}
	return out.String()
}

// escapeRawNewlines escapes raw "\n"/"\r" bytes found inside string
// literals, a common LLM mistake when a string value spans what was
// meant to be multiple lines.
func escapeRawNewlines(text string) string {
	var out strings.Builder
	inString := false
	escaped := false
	for i := 0; i < len(text); i++ {
		c := text[i]
		if inString {
			if escaped {
				out.WriteByte(c)
				escaped = false
				continue
			}
			switch c {
			case '\\':
				escaped = true
				out.WriteByte(c)
			case '"':
				inString = false
				out.WriteByte(c)
			case '\n':
				out.WriteString(`\n`)
			case '\r':
				out.WriteString(`\r`)
			default:
				out.WriteByte(c)
			}
			continue
		}
		if c == '"' {
			inString = true
		}
		out.WriteByte(c)
	}
	return out.String()
}
