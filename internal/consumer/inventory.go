package consumer

import (
	"sync"

	"github.com/shopstream/realtime/internal/protocol"
	"github.com/shopstream/realtime/internal/state"
	"github.com/shopstream/realtime/internal/subscription"
	"github.com/shopstream/realtime/internal/transport"
)

// InventorySnapshot is the low-stock alert view plus connection health
type InventorySnapshot struct {
	Connected bool
	Data      state.InventoryState
	Err       string
}

// InventoryWatcher follows a user's notification channel for low-stock
// alerts.
type InventoryWatcher struct {
	handle *subscription.Handle

	mu        sync.Mutex
	data      state.InventoryState
	connected bool
	lastErr   string
	finished  bool

	updates   chan InventorySnapshot
	closeOnce sync.Once
}

// WatchInventory subscribes to a user's notifications topic and folds
// inventory alerts.
func WatchInventory(reg *subscription.Registry, userID, token string) (*InventoryWatcher, error) {
	h, err := reg.Subscribe(subscription.Topic{Kind: subscription.TopicNotifications, ID: userID}, token)
	if err != nil {
		return nil, err
	}
	w := &InventoryWatcher{
		handle:  h,
		data:    state.NewInventoryState(),
		updates: make(chan InventorySnapshot, updateBuffer),
	}
	go w.loop()
	return w, nil
}

// Updates delivers a snapshot after every state change. Closes after Close.
func (w *InventoryWatcher) Updates() <-chan InventorySnapshot {
	return w.updates
}

// Snapshot returns the current view without waiting for an update
func (w *InventoryWatcher) Snapshot() InventorySnapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshotLocked()
}

// Dismiss removes a product's alert locally, e.g. after the user acts on
// it. Unknown products are a no-op.
func (w *InventoryWatcher) Dismiss(productID string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.data = state.ClearAlert(w.data, productID)
	if !w.finished {
		publishInventory(w.updates, w.snapshotLocked())
	}
}

// Close withdraws interest in the notification channel. Idempotent.
func (w *InventoryWatcher) Close() {
	w.closeOnce.Do(func() { w.handle.Unsubscribe() })
}

func (w *InventoryWatcher) loop() {
	events, states := w.handle.Events(), w.handle.States()
	for events != nil || states != nil {
		select {
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			alert, ok := ev.(protocol.InventoryAlert)
			if !ok {
				continue
			}
			w.mu.Lock()
			w.data = state.ApplyAlert(w.data, state.Alert{
				ProductID:    alert.ProductID,
				CurrentStock: alert.CurrentStock,
				Threshold:    alert.Threshold,
				Timestamp:    alert.Timestamp,
			})
			snap := w.snapshotLocked()
			w.mu.Unlock()
			publishInventory(w.updates, snap)
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
			publishInventory(w.updates, snap)
		}
	}
	w.mu.Lock()
	w.finished = true
	close(w.updates)
	w.mu.Unlock()
}

func (w *InventoryWatcher) snapshotLocked() InventorySnapshot {
	return InventorySnapshot{Connected: w.connected, Data: w.data, Err: w.lastErr}
}

func publishInventory(ch chan InventorySnapshot, snap InventorySnapshot) {
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
