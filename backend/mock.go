package backend

import (
	"context"
	"sync/atomic"
)

// MockBackend returns pre-configured responses in order, cycling back to
// the start once exhausted. Streaming emits the entire response as a
// single token. Used for deterministic tests against this module without
// a live model server.
type MockBackend struct {
	responses []string
	index     atomic.Uint64
}

// NewMockBackend returns a backend cycling through responses in order. It
// panics if responses is empty.
func NewMockBackend(responses ...string) *MockBackend {
	if len(responses) == 0 {
		panic("backend: MockBackend requires at least one response")
	}
	return &MockBackend{responses: responses}
}

// FixedMockBackend returns a mock that always returns response.
func FixedMockBackend(response string) *MockBackend {
	return NewMockBackend(response)
}

func (b *MockBackend) String() string { return "mock" }

func (b *MockBackend) next() string {
	idx := b.index.Add(1) - 1
	return b.responses[idx%uint64(len(b.responses))]
}

func (b *MockBackend) Call(ctx context.Context, baseURL string, req Request, onToken TokenFunc) (Response, error) {
	text := b.next()
	if req.Stream && onToken != nil {
		onToken(text)
	}
	return Response{Text: text, Model: req.Model}, nil
}
