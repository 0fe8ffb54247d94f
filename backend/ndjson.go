package backend

import (
	"encoding/json"
	"strings"

	"github.com/nexxia-ai/llmpipeline/outputparser"
)

// NDJSONDecoder decodes a stream of newline-delimited JSON objects,
// buffering partial lines across chunk boundaries. Used by OllamaBackend,
// whose streaming endpoints emit one JSON object per line.
type NDJSONDecoder struct {
	buffer strings.Builder
}

// NewNDJSONDecoder returns an empty decoder.
func NewNDJSONDecoder() *NDJSONDecoder {
	return &NDJSONDecoder{}
}

// Decode feeds chunk into the decoder and returns every complete JSON
// object found. Lines that fail to parse as JSON are silently skipped —
// Ollama occasionally emits a blank keep-alive line.
func (d *NDJSONDecoder) Decode(chunk []byte) []map[string]any {
	d.buffer.Write(chunk)
	buffered := d.buffer.String()
	d.buffer.Reset()

	var values []map[string]any
	for {
		idx := strings.IndexByte(buffered, '\n')
		if idx < 0 {
			break
		}
		line := strings.TrimSpace(buffered[:idx])
		buffered = buffered[idx+1:]
		if line == "" {
			continue
		}
		var v map[string]any
		if err := json.Unmarshal([]byte(line), &v); err == nil {
			values = append(values, v)
		}
	}
	d.buffer.WriteString(buffered)
	return values
}

// Flush attempts to parse any content remaining in the buffer once the
// stream has ended: a direct parse first, then auto-completion for a
// line that was truncated mid-token. Returns nil if nothing usable
// remains.
func (d *NDJSONDecoder) Flush() map[string]any {
	remaining := strings.TrimSpace(d.buffer.String())
	d.buffer.Reset()
	if remaining == "" {
		return nil
	}
	var v map[string]any
	if err := json.Unmarshal([]byte(remaining), &v); err == nil {
		return v
	}
	if completed, ok := outputparser.AutoCompleteJSON(remaining); ok {
		if err := json.Unmarshal([]byte(completed), &v); err == nil {
			return v
		}
	}
	return nil
}
