package consumer

import (
	"sync"

	"github.com/shopstream/realtime/internal/protocol"
	"github.com/shopstream/realtime/internal/state"
	"github.com/shopstream/realtime/internal/subscription"
	"github.com/shopstream/realtime/internal/transport"
)

// OrderSnapshot is the order-tracking view plus connection health. While
// offline the view keeps the last known timeline rather than erroring.
type OrderSnapshot struct {
	Connected bool
	Data      state.OrderState
	Err       string
}

// OrderWatcher follows one order's tracking channel
type OrderWatcher struct {
	handle *subscription.Handle

	mu        sync.Mutex
	data      state.OrderState
	connected bool
	lastErr   string

	updates   chan OrderSnapshot
	closeOnce sync.Once
}

// WatchOrder subscribes to an order-tracking topic and starts folding its
// events.
func WatchOrder(reg *subscription.Registry, orderID, token string) (*OrderWatcher, error) {
	h, err := reg.Subscribe(subscription.Topic{Kind: subscription.TopicOrders, ID: orderID}, token)
	if err != nil {
		return nil, err
	}
	w := &OrderWatcher{
		handle:  h,
		data:    state.NewOrderState(),
		updates: make(chan OrderSnapshot, updateBuffer),
	}
	go w.loop()
	return w, nil
}

// Updates delivers a snapshot after every state change. Closes after Close.
func (w *OrderWatcher) Updates() <-chan OrderSnapshot {
	return w.updates
}

// Snapshot returns the current view without waiting for an update
func (w *OrderWatcher) Snapshot() OrderSnapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshotLocked()
}

// Close withdraws interest in the order. Idempotent.
func (w *OrderWatcher) Close() {
	w.closeOnce.Do(func() { w.handle.Unsubscribe() })
}

func (w *OrderWatcher) loop() {
	events, states := w.handle.Events(), w.handle.States()
	for events != nil || states != nil {
		select {
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			w.mu.Lock()
			switch e := ev.(type) {
			case protocol.InitialStatus:
				w.data = state.ApplyInitialStatus(w.data, e.Order.Status, trackingHistory(e.Order.TrackingEvents))
			case protocol.StatusUpdate:
				w.data = state.ApplyStatusUpdate(w.data, state.TrackingEvent{
					Status:    e.Status,
					Message:   e.Message,
					Location:  e.TrackingData.Location,
					Timestamp: e.TrackingData.Timestamp,
				})
			default:
				w.mu.Unlock()
				continue
			}
			snap := w.snapshotLocked()
			w.mu.Unlock()
			publishOrder(w.updates, snap)
		case sc, ok := <-states:
			if !ok {
				states = nil
				continue
			}
			w.mu.Lock()
			w.connected = sc.Current == transport.StateOpen
			if sc.Err != nil {
				w.lastErr = sc.Err.Error()
			} else if w.connected {
				w.lastErr = ""
			}
			snap := w.snapshotLocked()
			w.mu.Unlock()
			publishOrder(w.updates, snap)
		}
	}
	close(w.updates)
}

func (w *OrderWatcher) snapshotLocked() OrderSnapshot {
	return OrderSnapshot{Connected: w.connected, Data: w.data, Err: w.lastErr}
}

func trackingHistory(events []protocol.TrackingEvent) []state.TrackingEvent {
	out := make([]state.TrackingEvent, 0, len(events))
	for _, e := range events {
		out = append(out, state.TrackingEvent{
			Status:    e.Status,
			Message:   e.Message,
			Location:  e.Location,
			Timestamp: e.Timestamp,
		})
	}
	return out
}

func publishOrder(ch chan OrderSnapshot, snap OrderSnapshot) {
	select {
	case ch <- snap:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- snap:
	default:
	}
}
