package observ

import "testing"

func TestCountersAndGauges(t *testing.T) {
	IncCounter("test_events_total", map[string]string{"b": "2", "a": "1"})
	IncCounter("test_events_total", map[string]string{"a": "1", "b": "2"})
	SetGauge("test_refs", 3, nil)

	counters, gauges := Snapshot()

	// label order must not matter
	if got := counters["test_events_total"]["a=1,b=2"]; got != 2 {
		t.Errorf("expected canonical label key with count 2, got %d", got)
	}
	if got := gauges["test_refs"][""]; got != 3 {
		t.Errorf("expected gauge 3, got %f", got)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	IncCounter("test_copy_total", nil)
	counters, _ := Snapshot()
	counters["test_copy_total"][""] = 999

	fresh, _ := Snapshot()
	if fresh["test_copy_total"][""] == 999 {
		t.Error("snapshot must not alias the live registry")
	}
}
