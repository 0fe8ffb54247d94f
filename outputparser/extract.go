package outputparser

import (
	"strings"
)

// StripThinkTags removes the first <think>...</think> block from text, or,
// when text has no "<think>", the first <thinking>...</thinking> block.
// An unbalanced open tag ends the cleaned text at that tag (everything
// from the tag on is considered reasoning). Only one block is removed;
// any later block stays in the cleaned text. The cleaned text and the
// extracted thinking content are both trimmed; if the thinking content is
// empty after trimming, the returned thinking string is empty.
func StripThinkTags(text string) (cleaned string, thinking string) {
	for _, tag := range []string{"think", "thinking"} {
		open := "<" + tag + ">"
		close := "</" + tag + ">"
		start := strings.Index(text, open)
		if start < 0 {
			continue
		}
		contentStart := start + len(open)
		if end := strings.Index(text[contentStart:], close); end >= 0 {
			thinking = strings.TrimSpace(text[contentStart : contentStart+end])
			before := text[:start]
			after := text[contentStart+end+len(close):]
			cleaned = strings.TrimSpace(before + after)
			return cleaned, thinking
		}
		// No closing tag: everything from the open tag on is thinking.
		thinking = strings.TrimSpace(text[contentStart:])
		cleaned = strings.TrimSpace(text[:start])
		return cleaned, thinking
	}
	return strings.TrimSpace(text), ""
}

// Preprocess strips the first <think> or <thinking> block (see
// StripThinkTags) and trims whitespace, discarding
// the extracted thinking content. It is the common first step of every
// parser in this package.
func Preprocess(text string) string {
	cleaned, _ := StripThinkTags(text)
	return cleaned
}

// ExtractCodeBlock returns the language tag (possibly empty) and content
// of the first fenced ``` code block found in text.
func ExtractCodeBlock(text string) (lang string, content string, ok bool) {
	start := strings.Index(text, "```")
	if start < 0 {
		return "", "", false
	}
	rest := text[start+3:]
	firstNewline := strings.IndexByte(rest, '\n')
	if firstNewline < 0 {
		return "", "", false
	}
	lang = strings.TrimSpace(rest[:firstNewline])
	body := rest[firstNewline+1:]
	end := strings.Index(body, "```")
	if end < 0 {
		return "", "", false
	}
	return lang, strings.TrimSpace(body[:end]), true
}

// ExtractCodeBlockFor returns the content of the first fenced code block
// whose language tag matches lang case-insensitively (e.g. "```json").
func ExtractCodeBlockFor(text string, lang string) (string, bool) {
	search := text
	for {
		idx := strings.Index(search, "```")
		if idx < 0 {
			return "", false
		}
		rest := search[idx+3:]
		newline := strings.IndexByte(rest, '\n')
		if newline < 0 {
			return "", false
		}
		tag := strings.TrimSpace(rest[:newline])
		body := rest[newline+1:]
		end := strings.Index(body, "```")
		if end < 0 {
			return "", false
		}
		if strings.EqualFold(tag, lang) {
			return strings.TrimSpace(body[:end]), true
		}
		search = body[end+3:]
	}
}

// FindBracketed scans text for substrings balanced between open and
// close (honoring string literals and backslash escapes so brackets
// inside quoted strings don't confuse the count), and returns the LAST
// such region found — LLMs that restate an example before the real
// answer tend to put the real answer last. Scanning resumes after the end
// of each balanced region, so a region nested inside another one is
// never returned on its own.
func FindBracketed(text string, open, close byte) (string, bool) {
	var bestStart, bestEnd int
	found := false

	for i := 0; i < len(text); i++ {
		if text[i] != open {
			continue
		}
		depth := 0
		inString := false
		escaped := false
	scan:
		for j := i; j < len(text); j++ {
			c := text[j]
			if inString {
				switch {
				case escaped:
					escaped = false
				case c == '\\':
					escaped = true
				case c == '"':
					inString = false
				}
				continue
			}
			switch c {
			case '"':
				inString = true
			case open:
				depth++
			case close:
				depth--
				if depth == 0 {
					bestStart, bestEnd = i, j+1
					found = true
					i = j
					break scan
				}
			}
		}
	}

	if !found {
		return "", false
	}
	return text[bestStart:bestEnd], true
}
