package outputparser

import "strings"

// simplePrefixes are common LLM boilerplate openers stripped whole; only
// the first match (in order) is removed.
var simplePrefixes = []string{
	"Sure! ", "Sure, ", "Sure.\n",
	"Of course! ", "Of course, ", "Of course.\n",
	"Certainly! ", "Certainly, ", "Certainly.\n",
	"Absolutely! ", "Absolutely, ",
}

// linePrefixes are boilerplate openers that consume everything up to the
// next newline or colon (e.g. "Here's the answer:\n...").
var linePrefixes = []string{"Here's ", "Here is "}

// ParseText extracts clean prose from response: strip <think> blocks,
// strip one leading boilerplate prefix ("Sure! ...", "Here's ...: ..."),
// and trim. Returns EmptyResponse if nothing remains.
func ParseText(response string) (string, error) {
	cleaned := Preprocess(response)
	if cleaned == "" {
		return "", errEmptyResponse()
	}

	text := cleaned
	strippedSimple := false
	for _, prefix := range simplePrefixes {
		if rest, ok := strings.CutPrefix(text, prefix); ok {
			text = rest
			strippedSimple = true
			break
		}
	}

	if !strippedSimple {
		for _, prefix := range linePrefixes {
			if rest, ok := strings.CutPrefix(text, prefix); ok {
				idx := strings.IndexByte(rest, '\n')
				if colon := strings.IndexByte(rest, ':'); colon >= 0 && (idx < 0 || colon < idx) {
					idx = colon
				}
				if idx >= 0 {
					text = strings.TrimLeft(rest[idx+1:], " \t")
				}
				break
			}
		}
	}

	result := strings.TrimSpace(text)
	if result == "" {
		return "", errEmptyResponse()
	}
	return result, nil
}
