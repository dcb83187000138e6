package state

import (
	"fmt"
	"testing"
)

func TestOrderInitialStatusSeedsTimeline(t *testing.T) {
	s := NewOrderState()
	history := []TrackingEvent{
		{Status: "shipped", Timestamp: "T2"},
		{Status: "processing", Timestamp: "T1"},
	}

	s = ApplyInitialStatus(s, "shipped", history)

	if !s.Seeded {
		t.Error("expected state to be seeded")
	}
	if s.CurrentStatus != "shipped" {
		t.Errorf("expected status shipped, got %q", s.CurrentStatus)
	}
	if len(s.Events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(s.Events))
	}
}

func TestOrderUpdatesPrependMostRecentFirst(t *testing.T) {
	s := ApplyInitialStatus(NewOrderState(), "processing", []TrackingEvent{
		{Status: "processing", Timestamp: "T0"},
	})

	const k = 4
	for i := 1; i <= k; i++ {
		s = ApplyStatusUpdate(s, TrackingEvent{
			Status:    fmt.Sprintf("step_%d", i),
			Timestamp: fmt.Sprintf("T%d", i),
		})
	}

	if len(s.Events) != k+1 {
		t.Fatalf("expected %d events, got %d", k+1, len(s.Events))
	}
	if s.Events[0].Status != fmt.Sprintf("step_%d", k) {
		t.Errorf("expected most recent event first, got %q", s.Events[0].Status)
	}
	if s.Events[len(s.Events)-1].Status != "processing" {
		t.Errorf("expected oldest event last, got %q", s.Events[len(s.Events)-1].Status)
	}
	if s.CurrentStatus != fmt.Sprintf("step_%d", k) {
		t.Errorf("expected current status of last update, got %q", s.CurrentStatus)
	}
}

func TestOrderSnapshotOnReconnectReplacesTimeline(t *testing.T) {
	s := ApplyInitialStatus(NewOrderState(), "processing", []TrackingEvent{
		{Status: "processing", Timestamp: "T0"},
	})
	s = ApplyStatusUpdate(s, TrackingEvent{Status: "shipped", Timestamp: "T1"})

	// server snapshot after reconnect carries the full, authoritative list
	s = ApplyInitialStatus(s, "delivered", []TrackingEvent{
		{Status: "delivered", Timestamp: "T2"},
		{Status: "shipped", Timestamp: "T1"},
		{Status: "processing", Timestamp: "T0"},
	})

	if len(s.Events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(s.Events))
	}
	if s.CurrentStatus != "delivered" {
		t.Errorf("expected delivered, got %q", s.CurrentStatus)
	}
}

func TestOrderReducerDoesNotMutateInput(t *testing.T) {
	s := ApplyInitialStatus(NewOrderState(), "processing", []TrackingEvent{
		{Status: "processing", Timestamp: "T0"},
	})

	_ = ApplyStatusUpdate(s, TrackingEvent{Status: "shipped", Timestamp: "T1"})

	if len(s.Events) != 1 {
		t.Errorf("input event list mutated, len=%d", len(s.Events))
	}
	if s.CurrentStatus != "processing" {
		t.Errorf("input status mutated to %q", s.CurrentStatus)
	}
}
