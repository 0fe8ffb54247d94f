package outputparser

import (
	"encoding/json"
	"strconv"
	"strings"
)

var listObjectKeys = []string{"tags", "items", "results", "list"}

// ParseStringList parses a list of strings out of response, then cleans
// each item: lowercased, trimmed, deduplicated, and filtered to drop
// empty entries or entries of 50 or more characters.
func ParseStringList(response string) ([]string, error) {
	items, err := parseStringListInner(response)
	if err != nil {
		return nil, err
	}
	return cleanTags(items), nil
}

// ParseStringListRaw parses a list of strings out of response with only
// whitespace-trimming and empty-item filtering applied — no lowercasing,
// deduplication, or length filter.
func ParseStringListRaw(response string) ([]string, error) {
	items, err := parseStringListInner(response)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out, nil
}

func parseStringListInner(response string) ([]string, error) {
	cleaned := Preprocess(response)
	if cleaned == "" {
		return nil, errEmptyResponse()
	}

	var arr []string
	if err := json.Unmarshal([]byte(cleaned), &arr); err == nil {
		return arr, nil
	}

	if items, ok := tryExtractListFromObject(cleaned); ok {
		return items, nil
	}

	if block, ok := extractListFromCodeBlock(cleaned); ok {
		return block, nil
	}

	if b, ok := FindBracketed(cleaned, '[', ']'); ok {
		var fromBracket []string
		if err := json.Unmarshal([]byte(b), &fromBracket); err == nil {
			return fromBracket, nil
		}
	}

	if repaired, ok := TryRepairJSON(cleaned); ok {
		var fromRepair []string
		if err := json.Unmarshal([]byte(repaired), &fromRepair); err == nil {
			return fromRepair, nil
		}
	}

	if items, ok := extractFromList(cleaned); ok {
		return items, nil
	}

	if strings.Contains(cleaned, ",") {
		var items []string
		for _, part := range strings.Split(cleaned, ",") {
			if t := strings.TrimSpace(part); t != "" {
				items = append(items, t)
			}
		}
		if len(items) > 0 {
			return items, nil
		}
	}

	return nil, errUnparseable("string list", cleaned)
}

func tryExtractListFromObject(cleaned string) ([]string, bool) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &obj); err != nil {
		return nil, false
	}
	for _, key := range listObjectKeys {
		raw, ok := obj[key]
		if !ok {
			continue
		}
		var items []string
		if err := json.Unmarshal(raw, &items); err == nil {
			return items, true
		}
	}
	return nil, false
}

func extractListFromCodeBlock(cleaned string) ([]string, bool) {
	if _, block, ok := ExtractCodeBlock(cleaned); ok {
		var items []string
		if err := json.Unmarshal([]byte(block), &items); err == nil {
			return items, true
		}
		if found, ok := extractFromList(block); ok {
			return found, true
		}
	}
	return nil, false
}

// extractFromList parses a numbered ("1.", "2)") or bulleted ("-", "*",
// "•") list from text, one item per line. Requires at least 2 items to
// avoid misinterpreting ordinary prose that happens to start a line with
// a dash.
func extractFromList(text string) ([]string, bool) {
	var items []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if item, ok := stripListMarker(line); ok {
			items = append(items, item)
		}
	}
	if len(items) < 2 {
		return nil, false
	}
	return items, true
}

func stripListMarker(line string) (string, bool) {
	for _, marker := range []string{"-", "*", "•"} {
		if strings.HasPrefix(line, marker+" ") {
			return strings.TrimSpace(line[len(marker)+1:]), true
		}
	}
	// Numbered markers: "1." or "1)"
	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	if i == 0 || i >= len(line) {
		return "", false
	}
	if line[i] != '.' && line[i] != ')' {
		return "", false
	}
	if _, err := strconv.Atoi(line[:i]); err != nil {
		return "", false
	}
	return strings.TrimSpace(line[i+1:]), true
}

func cleanTags(items []string) []string {
	seen := make(map[string]bool, len(items))
	var out []string
	for _, item := range items {
		t := strings.ToLower(strings.TrimSpace(item))
		if t == "" || len(t) >= 50 {
			continue
		}
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
