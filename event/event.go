// Package event provides an optional, non-intrusive way to observe
// payload execution. Payloads emit events when they start, produce
// tokens, retry, or finish. Callers implement EventHandler to receive
// them for logging, progress tracking, or streaming UIs.
package event

import (
	"log/slog"
)

// Event identifies the types that can be sent to an EventHandler. The
// caller typically uses a type switch to handle the event it cares about.
//
//	handler := event.EventHandlerFunc(func(ev event.Event) {
//		switch e := ev.(type) {
//		case *event.TokenEvent:
//			fmt.Print(e.Chunk)
//		case *event.PayloadEndEvent:
//			fmt.Println("done:", e.OK)
//		}
//	})
type Event interface {
	Kind() string
}

// PayloadStartEvent fires when a payload begins executing. PayloadKind is
// the payload's stable type identifier (e.g. "llm-call", "chain").
type PayloadStartEvent struct {
	Name        string
	PayloadKind string
}

func (e *PayloadStartEvent) Kind() string { return "payload_start" }

// TokenEvent fires for each token received while streaming.
type TokenEvent struct {
	Name  string
	Chunk string
}

func (e *TokenEvent) Kind() string { return "token" }

// PayloadEndEvent fires when a payload finishes executing.
type PayloadEndEvent struct {
	Name string
	OK   bool
}

func (e *PayloadEndEvent) Kind() string { return "payload_end" }

// RetryStartEvent fires when a semantic retry attempt is starting.
type RetryStartEvent struct {
	Name    string
	Attempt int
	Reason  string
}

func (e *RetryStartEvent) Kind() string { return "retry_start" }

// RetryEndEvent fires when a semantic retry sequence has completed.
type RetryEndEvent struct {
	Name     string
	Attempts int
	Success  bool
}

func (e *RetryEndEvent) Kind() string { return "retry_end" }

// PartialParseEvent fires with a partial parse result from streaming
// JSON, before the payload has finished.
type PartialParseEvent struct {
	Name     string
	Value    any
	Complete bool
}

func (e *PartialParseEvent) Kind() string { return "partial_parse" }

// TransportRetryEvent fires on a transport-level retry due to an HTTP
// error or connection failure.
type TransportRetryEvent struct {
	Name   string
	Attempt int
	Delay   int64 // milliseconds
	Reason  string
}

func (e *TransportRetryEvent) Kind() string { return "transport_retry" }

// EventHandler receives lifecycle events during payload execution. It is
// entirely optional — payloads work without one.
type EventHandler interface {
	OnEvent(ev Event)
}

// EventHandlerFunc adapts a plain function to EventHandler.
type EventHandlerFunc func(ev Event)

func (f EventHandlerFunc) OnEvent(ev Event) { f(ev) }

// Emit calls handler.OnEvent if handler is non-nil. No-op otherwise, so
// callers never need to nil-check before emitting.
func Emit(handler EventHandler, ev Event) {
	if handler != nil {
		handler.OnEvent(ev)
	}
}

// SlogEventHandler logs every event at Debug level through a *slog.Logger,
// one structured log line per event with its fields attached. Useful as a
// default handler for diagnosing a run without writing a custom one.
type SlogEventHandler struct {
	Logger *slog.Logger
}

// NewSlogEventHandler wraps logger, or slog.Default() if logger is nil.
func NewSlogEventHandler(logger *slog.Logger) *SlogEventHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogEventHandler{Logger: logger}
}

func (h *SlogEventHandler) OnEvent(ev Event) {
	switch e := ev.(type) {
	case *PayloadStartEvent:
		h.Logger.Debug("payload start", "name", e.Name)
	case *TokenEvent:
		h.Logger.Debug("token", "name", e.Name, "len", len(e.Chunk))
	case *PayloadEndEvent:
		h.Logger.Debug("payload end", "name", e.Name, "ok", e.OK)
	case *RetryStartEvent:
		h.Logger.Debug("retry start", "name", e.Name, "attempt", e.Attempt, "reason", e.Reason)
	case *RetryEndEvent:
		h.Logger.Debug("retry end", "name", e.Name, "attempts", e.Attempts, "success", e.Success)
	case *PartialParseEvent:
		h.Logger.Debug("partial parse", "name", e.Name, "complete", e.Complete)
	case *TransportRetryEvent:
		h.Logger.Debug("transport retry", "name", e.Name, "attempt", e.Attempt, "delay_ms", e.Delay, "reason", e.Reason)
	default:
		h.Logger.Debug("event", "kind", ev.Kind())
	}
}
