package stubs

// ScriptedFrame is one server push in a canned scenario
type ScriptedFrame struct {
	DelayMs int            `json:"delay_ms" yaml:"delay_ms"`
	Data    map[string]any `json:"data" yaml:"data"`
}

// DemoOrderScript returns the canned order-tracking pushes sent after the
// initial snapshot.
func DemoOrderScript() []ScriptedFrame {
	return []ScriptedFrame{
		{DelayMs: 1500, Data: map[string]any{
			"type":    "status_update",
			"status":  "shipped",
			"message": "Package left the warehouse",
			"tracking_data": map[string]any{
				"location":  "Oakland, CA",
				"timestamp": "2026-08-28T09:15:00Z",
			},
		}},
		{DelayMs: 3000, Data: map[string]any{
			"type":    "status_update",
			"status":  "in_transit",
			"message": "Arrived at regional facility",
			"tracking_data": map[string]any{
				"location":  "Sacramento, CA",
				"timestamp": "2026-08-28T14:40:00Z",
			},
		}},
		{DelayMs: 4500, Data: map[string]any{
			"type":    "status_update",
			"status":  "out_for_delivery",
			"message": "On the delivery vehicle",
			"tracking_data": map[string]any{
				"location":  "Reno, NV",
				"timestamp": "2026-08-29T08:05:00Z",
			},
		}},
	}
}

// DemoInventoryScript returns the canned low-stock alert pushes
func DemoInventoryScript() []ScriptedFrame {
	return []ScriptedFrame{
		{DelayMs: 1000, Data: map[string]any{
			"type":          "alert",
			"product_id":    "sku-1042",
			"current_stock": 4,
			"threshold":     10,
			"timestamp":     "2026-08-28T09:00:00Z",
		}},
		{DelayMs: 2500, Data: map[string]any{
			"type":          "alert",
			"product_id":    "sku-2210",
			"current_stock": 1,
			"threshold":     5,
			"timestamp":     "2026-08-28T09:02:00Z",
		}},
		{DelayMs: 4000, Data: map[string]any{
			"type":          "alert",
			"product_id":    "sku-1042",
			"current_stock": 2,
			"threshold":     10,
			"timestamp":     "2026-08-28T09:06:00Z",
		}},
	}
}
