package state

// TrackingEvent is one entry in an order's tracking timeline
type TrackingEvent struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	Location  string `json:"location"`
	Timestamp string `json:"timestamp"`
}

// OrderState is the reduced order-tracking view: current status plus the
// tracking timeline, most recent first.
type OrderState struct {
	CurrentStatus string          `json:"current_status"`
	Events        []TrackingEvent `json:"events"`
	Seeded        bool            `json:"seeded"` // initial snapshot received
}

// NewOrderState returns an empty order-tracking view
func NewOrderState() OrderState {
	return OrderState{}
}

// ApplyInitialStatus seeds the view from a full server snapshot. A snapshot
// arriving on a reconnect replaces the timeline: the server copy is
// authoritative and already contains everything pushed while offline.
func ApplyInitialStatus(s OrderState, status string, history []TrackingEvent) OrderState {
	return OrderState{
		CurrentStatus: status,
		Events:        append([]TrackingEvent{}, history...),
		Seeded:        true,
	}
}

// ApplyStatusUpdate prepends exactly one event and moves current status
// forward. History is never replaced by updates, only extended.
func ApplyStatusUpdate(s OrderState, ev TrackingEvent) OrderState {
	events := make([]TrackingEvent, 0, len(s.Events)+1)
	events = append(events, ev)
	events = append(events, s.Events...)
	return OrderState{
		CurrentStatus: ev.Status,
		Events:        events,
		Seeded:        s.Seeded,
	}
}
