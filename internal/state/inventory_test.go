package state

import "testing"

func TestInventoryAlertUpsertsByProduct(t *testing.T) {
	s := NewInventoryState()
	s = ApplyAlert(s, Alert{ProductID: "sku-1", CurrentStock: 4, Threshold: 10, Timestamp: "T1"})
	s = ApplyAlert(s, Alert{ProductID: "sku-1", CurrentStock: 2, Threshold: 10, Timestamp: "T2"})

	if len(s.Alerts) != 1 {
		t.Fatalf("expected exactly one alert record, got %d", len(s.Alerts))
	}
	a := s.Alerts["sku-1"]
	if a.CurrentStock != 2 || a.Timestamp != "T2" {
		t.Errorf("expected second event's values, got stock=%d ts=%q", a.CurrentStock, a.Timestamp)
	}
}

func TestInventoryAlertsForDistinctProducts(t *testing.T) {
	s := NewInventoryState()
	s = ApplyAlert(s, Alert{ProductID: "sku-1", CurrentStock: 4, Threshold: 10})
	s = ApplyAlert(s, Alert{ProductID: "sku-2", CurrentStock: 1, Threshold: 5})

	if len(s.Alerts) != 2 {
		t.Fatalf("expected 2 alerts, got %d", len(s.Alerts))
	}
}

func TestInventoryClearAlert(t *testing.T) {
	s := NewInventoryState()
	s = ApplyAlert(s, Alert{ProductID: "sku-1", CurrentStock: 4, Threshold: 10})

	s = ClearAlert(s, "sku-1")
	if len(s.Alerts) != 0 {
		t.Errorf("expected alert cleared, got %d", len(s.Alerts))
	}

	// clearing an unknown product is a no-op, never a panic
	s = ClearAlert(s, "sku-missing")
	if len(s.Alerts) != 0 {
		t.Errorf("expected no alerts, got %d", len(s.Alerts))
	}
}

func TestInventoryReducerDoesNotMutateInput(t *testing.T) {
	s := NewInventoryState()
	s = ApplyAlert(s, Alert{ProductID: "sku-1", CurrentStock: 4, Threshold: 10})

	_ = ApplyAlert(s, Alert{ProductID: "sku-1", CurrentStock: 1, Threshold: 10})
	_ = ClearAlert(s, "sku-1")

	if s.Alerts["sku-1"].CurrentStock != 4 {
		t.Errorf("input state mutated: stock=%d", s.Alerts["sku-1"].CurrentStock)
	}
}
