package outputparser

import "strings"

// ParseXMLTag extracts the content of a single XML-style tag from
// response: <tag>content</tag>. This is not a real XML parser — it is a
// lightweight delimiter match. A missing closing tag takes the content to
// the end of the string.
func ParseXMLTag(response string, tag string) (string, error) {
	cleaned := Preprocess(response)
	if cleaned == "" {
		return "", errEmptyResponse()
	}

	openTag := "<" + tag + ">"
	closeTag := "</" + tag + ">"

	start := strings.Index(cleaned, openTag)
	if start < 0 {
		return "", errUnparseable("XML tag", cleaned)
	}
	contentStart := start + len(openTag)
	var content string
	if end := strings.Index(cleaned[contentStart:], closeTag); end >= 0 {
		content = cleaned[contentStart : contentStart+end]
	} else {
		content = cleaned[contentStart:]
	}
	return strings.TrimSpace(content), nil
}

// ParseXMLTags extracts content for every tag in tags that is found in
// response, returning a map of tag name to content. Tags not found are
// simply absent; an error is returned only if none of the tags were
// found.
func ParseXMLTags(response string, tags []string) (map[string]string, error) {
	cleaned := Preprocess(response)
	if cleaned == "" {
		return nil, errEmptyResponse()
	}

	results := make(map[string]string)
	for _, tag := range tags {
		openTag := "<" + tag + ">"
		closeTag := "</" + tag + ">"
		start := strings.Index(cleaned, openTag)
		if start < 0 {
			continue
		}
		contentStart := start + len(openTag)
		var content string
		if end := strings.Index(cleaned[contentStart:], closeTag); end >= 0 {
			content = cleaned[contentStart : contentStart+end]
		} else {
			content = cleaned[contentStart:]
		}
		results[tag] = strings.TrimSpace(content)
	}

	if len(results) == 0 {
		return nil, errUnparseable("XML tags", cleaned)
	}
	return results, nil
}
