package backend

import (
	"encoding/json"
	"strings"
)

// SSEDecoder decodes Server-Sent Events frames from an OpenAI-compatible
// streaming endpoint: "data: {...}" lines terminated by "data: [DONE]",
// with "event:" lines and blank keep-alive lines ignored.
type SSEDecoder struct {
	buffer strings.Builder
}

// NewSSEDecoder returns an empty decoder.
func NewSSEDecoder() *SSEDecoder {
	return &SSEDecoder{}
}

// Decode feeds chunk into the decoder and returns every complete JSON
// payload carried by a "data:" line, excluding the "[DONE]" terminator.
func (d *SSEDecoder) Decode(chunk []byte) []map[string]any {
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
		if v, ok := decodeSSELine(line); ok {
			values = append(values, v)
		}
	}
	d.buffer.WriteString(buffered)
	return values
}

// Flush parses any "data:" lines remaining in the buffer once the stream
// has ended.
func (d *SSEDecoder) Flush() []map[string]any {
	remaining := strings.TrimSpace(d.buffer.String())
	d.buffer.Reset()
	if remaining == "" {
		return nil
	}
	var values []map[string]any
	for _, line := range strings.Split(remaining, "\n") {
		if v, ok := decodeSSELine(strings.TrimSpace(line)); ok {
			values = append(values, v)
		}
	}
	return values
}

func decodeSSELine(line string) (map[string]any, bool) {
	if line == "" || strings.HasPrefix(line, "event:") {
		return nil, false
	}
	data, ok := strings.CutPrefix(line, "data: ")
	if !ok {
		data, ok = strings.CutPrefix(line, "data:")
	}
	if !ok {
		return nil, false
	}
	data = strings.TrimSpace(data)
	if data == "[DONE]" {
		return nil, false
	}
	var v map[string]any
	if err := json.Unmarshal([]byte(data), &v); err != nil {
		return nil, false
	}
	return v, true
}
