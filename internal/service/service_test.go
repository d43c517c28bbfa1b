package service_test

import (
	"context"
	"testing"
	"time"

	"whiteboard/internal/service"
)

// ─────────────────────────────────────────────────────────────
// runningJobsGuard tests
// ─────────────────────────────────────────────────────────────

func TestRunningGuard_TryLock(t *testing.T) {
	var g service.ExportedRunningGuard

	if !g.TryLock("janitor") {
		t.Fatal("expected first TryLock to succeed")
	}
	if g.TryLock("janitor") {
		t.Fatal("expected second TryLock for the same key to fail")
	}
	if !g.TryLock("page-2") {
		t.Fatal("expected TryLock for a different key to succeed")
	}
	g.Unlock("janitor")
	g.Unlock("page-2")

	if !g.TryLock("janitor") {
		t.Fatal("expected TryLock to succeed after unlock")
	}
	g.Unlock("janitor")
}

func TestRunningGuard_WaitAll(t *testing.T) {
	var g service.ExportedRunningGuard

	if !g.TryLock("janitor") {
		t.Fatal("expected lock to succeed")
	}

	done := make(chan struct{})
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer cancel()
		g.WaitAll(ctx)
		close(done)
	}()

	go func() {
		time.Sleep(20 * time.Millisecond)
		g.Unlock("janitor")
	}()

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Fatal("WaitAll timed out")
	}
}

// ─────────────────────────────────────────────────────────────
// Emitter tests
// ─────────────────────────────────────────────────────────────

func TestMockEmitter_RecordsEvents(t *testing.T) {
	m := &service.MockEmitter{}
	ctx := context.Background()

	m.Emit(ctx, service.EventDrawingChanged, service.DrawingChanged{PageID: "p1"})
	m.Emit(ctx, "page:viewport-changed", nil)

	if len(m.Events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(m.Events))
	}
	if m.Events[0].Event != service.EventDrawingChanged {
		t.Errorf("expected %q, got %q", service.EventDrawingChanged, m.Events[0].Event)
	}
}

func TestMultiEmitter_FansOut(t *testing.T) {
	a, b := &service.MockEmitter{}, &service.MockEmitter{}
	m := service.MultiEmitter{a, nil, b, service.LogEmitter{}}

	m.Emit(context.Background(), service.EventDrawingChanged, service.DrawingChanged{PageID: "p1", Label: "move"})

	if len(a.Events) != 1 || len(b.Events) != 1 {
		t.Fatalf("expected one event on each emitter, got %d and %d", len(a.Events), len(b.Events))
	}
	if dc, ok := b.Events[0].Data.(service.DrawingChanged); !ok || dc.Label != "move" {
		t.Errorf("unexpected payload %#v", b.Events[0].Data)
	}
}
