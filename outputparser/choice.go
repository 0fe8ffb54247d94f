package outputparser

import "strings"

// ParseChoice matches response against validChoices, handling common LLM
// formatting: direct match, bold (**choice**), quoted ('choice' or
// "choice"), parenthesized, and in-prose. Matching is case-insensitive.
// If more than one valid choice appears in the text, the one found at
// the earliest position wins.
func ParseChoice(response string, validChoices []string) (string, error) {
	cleaned := Preprocess(response)
	if cleaned == "" {
		return "", errEmptyResponse()
	}

	lower := strings.ToLower(cleaned)
	stripped := strings.Trim(lower, ".!, \t\n\r")
	stripped = strings.TrimPrefix(stripped, "**")
	stripped = strings.TrimSuffix(stripped, "**")
	stripped = strings.Trim(stripped, "\"'()")
	stripped = strings.TrimSpace(stripped)

	for _, choice := range validChoices {
		if strings.EqualFold(stripped, choice) {
			return choice, nil
		}
	}

	for _, choice := range validChoices {
		choiceLower := strings.ToLower(choice)
		if strings.HasPrefix(stripped, choiceLower) {
			after := len(choiceLower)
			if after >= len(stripped) || !isAlnumByte(stripped[after]) {
				return choice, nil
			}
		}
	}

	var best string
	bestPos := -1
	for _, choice := range validChoices {
		choiceLower := strings.ToLower(choice)
		if pos, ok := findWordBoundaryMatch(lower, choiceLower); ok {
			if bestPos == -1 || pos < bestPos {
				best, bestPos = choice, pos
			}
		}
	}
	if bestPos >= 0 {
		return best, nil
	}

	return "", errNoMatchingChoice(validChoices)
}

func isAlnumByte(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// findWordBoundaryMatch finds the first occurrence of needle in haystack
// that is not adjacent to an alphanumeric character on either side.
func findWordBoundaryMatch(haystack, needle string) (int, bool) {
	searchFrom := 0
	for searchFrom <= len(haystack) {
		idx := strings.Index(haystack[searchFrom:], needle)
		if idx < 0 {
			return 0, false
		}
		pos := searchFrom + idx
		end := pos + len(needle)

		boundaryBefore := pos == 0 || !isAlnumByte(haystack[pos-1])
		boundaryAfter := end >= len(haystack) || !isAlnumByte(haystack[end])

		if boundaryBefore && boundaryAfter {
			return pos, true
		}
		searchFrom = pos + 1
	}
	return 0, false
}
