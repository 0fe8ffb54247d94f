package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventKinds(t *testing.T) {
	assert.Equal(t, "payload_start", (&PayloadStartEvent{}).Kind())
	assert.Equal(t, "token", (&TokenEvent{}).Kind())
	assert.Equal(t, "payload_end", (&PayloadEndEvent{}).Kind())
	assert.Equal(t, "retry_start", (&RetryStartEvent{}).Kind())
	assert.Equal(t, "retry_end", (&RetryEndEvent{}).Kind())
	assert.Equal(t, "partial_parse", (&PartialParseEvent{}).Kind())
	assert.Equal(t, "transport_retry", (&TransportRetryEvent{}).Kind())
}

func TestEmitNilHandlerIsNoop(t *testing.T) {
	assert.NotPanics(t, func() {
		Emit(nil, &TokenEvent{Name: "call", Chunk: "hi"})
	})
}

func TestEmitCallsHandler(t *testing.T) {
	var got Event
	h := EventHandlerFunc(func(ev Event) { got = ev })
	Emit(h, &PayloadEndEvent{Name: "call", OK: true})
	assert.NotNil(t, got)
	assert.Equal(t, "payload_end", got.Kind())
}

func TestSlogEventHandlerDoesNotPanic(t *testing.T) {
	h := NewSlogEventHandler(nil)
	assert.NotPanics(t, func() {
		h.OnEvent(&TokenEvent{Name: "call", Chunk: "hi"})
		h.OnEvent(&PayloadStartEvent{Name: "call", PayloadKind: "llm-call"})
		h.OnEvent(&RetryStartEvent{Name: "call", Attempt: 1, Reason: "parse error"})
	})
}
