package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// OllamaBackend talks to Ollama's native API: "/api/generate" for
// prompt-only calls, "/api/chat" when a system prompt or message history
// is present. Streaming uses NDJSON with one {"response": ...} or
// {"message": {"content": ...}} object per line.
//
// This is the default backend.
type OllamaBackend struct {
	HTTPClient *http.Client
}

// NewOllamaBackend returns a backend using http.DefaultClient.
func NewOllamaBackend() *OllamaBackend {
	return &OllamaBackend{}
}

func (b *OllamaBackend) String() string { return "ollama" }

func (b *OllamaBackend) client() *http.Client {
	if b.HTTPClient != nil {
		return b.HTTPClient
	}
	return http.DefaultClient
}

// useChat reports whether req should go to "/api/chat" rather than
// "/api/generate": true when a system prompt or prior message history is
// present.
func useChat(req Request) bool {
	return req.System != "" || len(req.Messages) > 0
}

func (b *OllamaBackend) buildOptions(req Request) map[string]any {
	opts := map[string]any{
		"temperature": req.Temperature,
		"num_predict": req.MaxTokens,
	}
	if req.Thinking {
		opts["extended_thinking"] = true
	}
	for k, v := range req.Options {
		opts[k] = v
	}
	return opts
}

func (b *OllamaBackend) buildGenerateBody(req Request, stream bool) map[string]any {
	body := map[string]any{
		"model":   req.Model,
		"prompt":  req.Prompt,
		"stream":  stream,
		"options": b.buildOptions(req),
	}
	if req.JSONMode {
		body["format"] = "json"
	}
	return body
}

func (b *OllamaBackend) buildChatBody(req Request, stream bool) map[string]any {
	var messages []map[string]any
	if req.System != "" {
		messages = append(messages, map[string]any{"role": "system", "content": req.System})
	}
	for _, m := range req.Messages {
		messages = append(messages, map[string]any{"role": string(m.Role), "content": m.Content})
	}
	// The current prompt is appended as a user turn only when there is
	// no prior history — on retry, the prompt is already the last user
	// message in Messages.
	if len(req.Messages) == 0 {
		messages = append(messages, map[string]any{"role": "user", "content": req.Prompt})
	}
	body := map[string]any{
		"model":    req.Model,
		"messages": messages,
		"stream":   stream,
		"options":  b.buildOptions(req),
	}
	if req.JSONMode {
		body["format"] = "json"
	}
	return body
}

func (b *OllamaBackend) endpointAndBody(baseURL string, req Request, stream bool) (string, map[string]any) {
	base := strings.TrimRight(baseURL, "/")
	if useChat(req) {
		return base + "/api/chat", b.buildChatBody(req, stream)
	}
	return base + "/api/generate", b.buildGenerateBody(req, stream)
}

func parseRetryAfter(value string) *time.Duration {
	if secs, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
		d := time.Duration(secs) * time.Second
		return &d
	}
	return nil
}

func (b *OllamaBackend) postJSON(ctx context.Context, url string, body map[string]any) (*http.Response, error) {
	buf, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(buf))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := b.client().Do(httpReq)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		respBody, _ := io.ReadAll(resp.Body)
		var retryAfter *time.Duration
		if v := resp.Header.Get("Retry-After"); v != "" {
			retryAfter = parseRetryAfter(v)
		}
		return nil, &HTTPError{Status: resp.StatusCode, Body: string(respBody), RetryAfter: retryAfter}
	}
	return resp, nil
}

func extractOllamaContent(v map[string]any, chat bool) string {
	if chat {
		if m, ok := v["message"].(map[string]any); ok {
			if s, ok := m["content"].(string); ok {
				return s
			}
		}
		return ""
	}
	s, _ := v["response"].(string)
	return s
}

func (b *OllamaBackend) Call(ctx context.Context, baseURL string, req Request, onToken TokenFunc) (Response, error) {
	chat := useChat(req)
	url, body := b.endpointAndBody(baseURL, req, req.Stream)

	resp, err := b.postJSON(ctx, url, body)
	if err != nil {
		return Response{}, err
	}
	defer resp.Body.Close()

	if !req.Stream {
		var parsed map[string]any
		if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
			return Response{}, &JSONDecodeErr{Err: err}
		}
		model, _ := parsed["model"].(string)
		return Response{Text: extractOllamaContent(parsed, chat), Model: model}, nil
	}

	decoder := NewNDJSONDecoder()
	buf := make([]byte, 4096)
	var accumulated strings.Builder
	var model string

	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			for _, v := range decoder.Decode(buf[:n]) {
				if t := extractOllamaContent(v, chat); t != "" {
					accumulated.WriteString(t)
					if onToken != nil {
						onToken(t)
					}
				}
				if m, ok := v["model"].(string); ok {
					model = m
				}
			}
		}
		if readErr != nil {
			if readErr != io.EOF {
				return Response{}, readErr
			}
			break
		}
	}
	if v := decoder.Flush(); v != nil {
		if t := extractOllamaContent(v, chat); t != "" {
			accumulated.WriteString(t)
			if onToken != nil {
				onToken(t)
			}
		}
	}
	return Response{Text: accumulated.String(), Model: model}, nil
}

// JSONDecodeErr mirrors the root package's JSONDecodeError without
// importing it, avoiding a backend -> root import cycle.
type JSONDecodeErr struct{ Err error }

func (e *JSONDecodeErr) Error() string { return "json decode failed: " + e.Err.Error() }
func (e *JSONDecodeErr) Unwrap() error  { return e.Err }
