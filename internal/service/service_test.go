package service_test

import (
	"context"
	"testing"

	"nodeflow/internal/service"
)

// ─────────────────────────────────────────────────────────────
// MockEmitter tests
// ─────────────────────────────────────────────────────────────

func TestMockEmitter_RecordsEvents(t *testing.T) {
	m := &service.MockEmitter{}
	ctx := context.Background()

	m.Emit(ctx, "test:event", map[string]string{"foo": "bar"})
	m.Emit(ctx, "test:event2", nil)

	if len(m.Events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(m.Events))
	}
	if m.Events[0].Event != "test:event" {
		t.Errorf("expected 'test:event', got %q", m.Events[0].Event)
	}
}

func TestMockEmitter_LastEvent(t *testing.T) {
	m := &service.MockEmitter{}
	ctx := context.Background()

	m.Emit(ctx, "a", "first")
	m.Emit(ctx, "b", "second")

	if m.Events[len(m.Events)-1].Event != "b" {
		t.Errorf("expected last event 'b', got %q", m.Events[len(m.Events)-1].Event)
	}
}

func TestMockEmitter_Count(t *testing.T) {
	m := &service.MockEmitter{}
	m.Emit(context.Background(), service.EventCanvasChanged, nil)
	m.Emit(context.Background(), service.EventCanvasChanged, nil)
	m.Emit(context.Background(), service.EventWorkflowSaved, nil)

	if got := m.Count(service.EventCanvasChanged); got != 2 {
		t.Errorf("expected 2 canvas events, got %d", got)
	}
}
