package llmpipeline

import (
	"strconv"
	"strings"
)

const (
	escapeSentinelOpen  = "\x00LBRACE\x00"
	escapeSentinelClose = "\x00RBRACE\x00"
)

// Render substitutes {key} placeholders in template with values from
// vars, and the special {input} placeholder with input. Use {{ and }}
// to insert a literal { or }.
//
//	Render("Hello {name}, here is JSON: {{\"key\": \"val\"}}", "data", map[string]string{"name": "Alice"})
//	// => `Hello Alice, here is JSON: {"key": "val"}`
func Render(template string, input string, vars map[string]string) string {
	// Pass 1: protect escaped braces.
	rendered := strings.ReplaceAll(template, "{{", escapeSentinelOpen)
	rendered = strings.ReplaceAll(rendered, "}}", escapeSentinelClose)

	// Pass 2: substitute placeholders.
	rendered = strings.ReplaceAll(rendered, "{input}", input)
	for key, value := range vars {
		rendered = strings.ReplaceAll(rendered, "{"+key+"}", value)
	}

	// Pass 3: restore escaped braces.
	rendered = strings.ReplaceAll(rendered, escapeSentinelOpen, "{")
	rendered = strings.ReplaceAll(rendered, escapeSentinelClose, "}")
	return rendered
}

// NumberedList renders items as a 1-indexed numbered list, one per line.
func NumberedList(items []string) string {
	var b strings.Builder
	for i, item := range items {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteString(". ")
		b.WriteString(item)
	}
	return b.String()
}

// Section wraps content in a "## label" labeled section for structured
// prompts.
func Section(label, content string) string {
	return "## " + label + "\n" + content
}
