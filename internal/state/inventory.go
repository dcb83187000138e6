package state

// Alert is the latest known low-stock state for one product
type Alert struct {
	ProductID    string `json:"product_id"`
	CurrentStock int    `json:"current_stock"`
	Threshold    int    `json:"threshold"`
	Timestamp    string `json:"timestamp"`
}

// InventoryState is the reduced inventory view: active alerts keyed by
// product id. An alert is a latest-state record, not a log.
type InventoryState struct {
	Alerts map[string]Alert `json:"alerts"`
}

// NewInventoryState returns an empty inventory view
func NewInventoryState() InventoryState {
	return InventoryState{Alerts: map[string]Alert{}}
}

// ApplyAlert upserts the alert for its product: a later event for the same
// product replaces the earlier one, never appends. The first alert for a
// product creates the record, since the alert itself is the record.
func ApplyAlert(s InventoryState, a Alert) InventoryState {
	next := cloneInventory(s)
	next.Alerts[a.ProductID] = a
	return next
}

// ClearAlert removes the alert for a product, e.g. after restock. Clearing
// an unknown product is a no-op.
func ClearAlert(s InventoryState, productID string) InventoryState {
	if _, ok := s.Alerts[productID]; !ok {
		return s
	}
	next := cloneInventory(s)
	delete(next.Alerts, productID)
	return next
}

func cloneInventory(s InventoryState) InventoryState {
	alerts := make(map[string]Alert, len(s.Alerts))
	for id, a := range s.Alerts {
		alerts[id] = a
	}
	return InventoryState{Alerts: alerts}
}
