package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// OpenAIBackend talks to any OpenAI-compatible chat-completions API:
// OpenAI itself, Anthropic's compat layer, vLLM, llama.cpp server, LM
// Studio, Together AI, Groq, Mistral, Fireworks, and Ollama's own "/v1/"
// endpoint. Endpoint: "/v1/chat/completions", always chat mode. Streaming
// uses SSE.
type OpenAIBackend struct {
	HTTPClient   *http.Client
	APIKey       string
	Organization string
}

// NewOpenAIBackend returns an unauthenticated backend.
func NewOpenAIBackend() *OpenAIBackend {
	return &OpenAIBackend{}
}

// WithAPIKey sets the bearer token sent as Authorization: Bearer {key}.
func (b *OpenAIBackend) WithAPIKey(key string) *OpenAIBackend {
	b.APIKey = key
	return b
}

// WithOrganization sets the OpenAI-Organization header.
func (b *OpenAIBackend) WithOrganization(org string) *OpenAIBackend {
	b.Organization = org
	return b
}

// String redacts APIKey to its first 6 characters followed by "***" so
// debug/log output never leaks the full credential.
func (b *OpenAIBackend) String() string {
	key := "None"
	if b.APIKey != "" {
		if len(b.APIKey) > 6 {
			key = b.APIKey[:6] + "***"
		} else {
			key = "***"
		}
	}
	return fmt.Sprintf("OpenAIBackend{api_key: %s, organization: %q}", key, b.Organization)
}

func (b *OpenAIBackend) client() *http.Client {
	if b.HTTPClient != nil {
		return b.HTTPClient
	}
	return http.DefaultClient
}

func buildOpenAIMessages(req Request) []map[string]any {
	var messages []map[string]any
	if req.System != "" {
		messages = append(messages, map[string]any{"role": "system", "content": req.System})
	}
	for _, m := range req.Messages {
		messages = append(messages, map[string]any{"role": string(m.Role), "content": m.Content})
	}
	if len(req.Messages) == 0 {
		messages = append(messages, map[string]any{"role": "user", "content": req.Prompt})
	}
	return messages
}

// buildOpenAIBody builds the "/v1/chat/completions" request body. Thinking and
// custom Options are silently dropped: the chat-completions wire format
// has no equivalent for either.
func buildOpenAIBody(req Request, stream bool) map[string]any {
	body := map[string]any{
		"model":       req.Model,
		"messages":    buildOpenAIMessages(req),
		"temperature": req.Temperature,
		"max_tokens":  req.MaxTokens,
		"stream":      stream,
	}
	if req.JSONMode {
		body["response_format"] = map[string]any{"type": "json_object"}
	}
	return body
}

func (b *OpenAIBackend) newRequest(ctx context.Context, url string, body map[string]any) (*http.Request, error) {
	buf, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(buf))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if b.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+b.APIKey)
	}
	if b.Organization != "" {
		httpReq.Header.Set("OpenAI-Organization", b.Organization)
	}
	return httpReq, nil
}

func (b *OpenAIBackend) do(ctx context.Context, url string, body map[string]any) (*http.Response, error) {
	httpReq, err := b.newRequest(ctx, url, body)
	if err != nil {
		return nil, err
	}
	resp, err := b.client().Do(httpReq)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		respBody, _ := io.ReadAll(resp.Body)
		var retryAfter = parseRetryAfter(resp.Header.Get("Retry-After"))
		return nil, &HTTPError{Status: resp.StatusCode, Body: string(respBody), RetryAfter: retryAfter}
	}
	return resp, nil
}

func extractOpenAIChoiceContent(v map[string]any, delta bool) string {
	choices, ok := v["choices"].([]any)
	if !ok || len(choices) == 0 {
		return ""
	}
	choice, ok := choices[0].(map[string]any)
	if !ok {
		return ""
	}
	key := "message"
	if delta {
		key = "delta"
	}
	m, ok := choice[key].(map[string]any)
	if !ok {
		return ""
	}
	s, _ := m["content"].(string)
	return s
}

func (b *OpenAIBackend) Call(ctx context.Context, baseURL string, req Request, onToken TokenFunc) (Response, error) {
	url := strings.TrimRight(baseURL, "/") + "/v1/chat/completions"
	body := buildOpenAIBody(req, req.Stream)

	resp, err := b.do(ctx, url, body)
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
		return Response{Text: extractOpenAIChoiceContent(parsed, false), Model: model}, nil
	}

	decoder := NewSSEDecoder()
	buf := make([]byte, 4096)
	var accumulated strings.Builder

	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			for _, v := range decoder.Decode(buf[:n]) {
				if t := extractOpenAIChoiceContent(v, true); t != "" {
					accumulated.WriteString(t)
					if onToken != nil {
						onToken(t)
					}
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
	for _, v := range decoder.Flush() {
		if t := extractOpenAIChoiceContent(v, true); t != "" {
			accumulated.WriteString(t)
			if onToken != nil {
				onToken(t)
			}
		}
	}
	return Response{Text: accumulated.String()}, nil
}
