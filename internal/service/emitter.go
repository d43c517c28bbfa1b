package service

import (
	"context"
	"log"
)

// ─────────────────────────────────────────────────────────────
// EventEmitter - decouples services from their consumers
// ─────────────────────────────────────────────────────────────

// EventEmitter is an interface for emitting change events.
// Services receive this interface instead of concrete consumers (file sync,
// MCP notifications, logs), which keeps them independently testable with a
// mock emitter.
type EventEmitter interface {
	Emit(ctx context.Context, event string, data any)
}

// EventDrawingChanged is emitted after a page's drawing was committed.
// The payload is a DrawingChanged.
const EventDrawingChanged = "drawing:changed"

// DrawingChanged describes one committed drawing operation.
type DrawingChanged struct {
	PageID string `json:"pageId"`
	// Label names the operation, e.g. "move" or "undo".
	Label string `json:"label"`
	// Changed lists the ids of elements written by the operation.
	Changed []string `json:"changed,omitempty"`
	// Data is the page's full drawing after the operation.
	Data string `json:"-"`
}

// MultiEmitter forwards every event to each emitter in order.
type MultiEmitter []EventEmitter

func (m MultiEmitter) Emit(ctx context.Context, event string, data any) {
	for _, e := range m {
		if e != nil {
			e.Emit(ctx, event, data)
		}
	}
}

// LogEmitter writes a one-line summary of every event to the standard logger.
type LogEmitter struct{}

func (LogEmitter) Emit(_ context.Context, event string, data any) {
	if dc, ok := data.(DrawingChanged); ok {
		log.Printf("[event] %s page=%s op=%s elements=%d", event, dc.PageID, dc.Label, len(dc.Changed))
		return
	}
	log.Printf("[event] %s", event)
}

// MockEmitter is a test-friendly EventEmitter that records all calls.
type MockEmitter struct {
	Events []EmittedEvent
}

// EmittedEvent holds a single recorded emission for test assertions.
type EmittedEvent struct {
	Event string
	Data  any
}

func (m *MockEmitter) Emit(_ context.Context, event string, data any) {
	m.Events = append(m.Events, EmittedEvent{Event: event, Data: data})
}
