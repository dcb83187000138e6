// Package consumer bridges topic subscriptions and state reducers to a UI
// loop. A watcher subscribes on construction, folds decoded events through
// its domain reducer, and publishes immutable snapshots over a channel.
// Close releases the subscription exactly once, after which no further
// snapshots are delivered.
package consumer

import (
	"sync"

	"github.com/shopstream/realtime/internal/protocol"
	"github.com/shopstream/realtime/internal/state"
	"github.com/shopstream/realtime/internal/subscription"
	"github.com/shopstream/realtime/internal/transport"
)

const updateBuffer = 16

// ChatSnapshot is the chat view plus connection health for indicators
type ChatSnapshot struct {
	Connected bool
	Data      state.ChatState
	Err       string
}

// ChatWatcher follows one chat room
type ChatWatcher struct {
	handle *subscription.Handle
	roomID string

	mu        sync.Mutex
	data      state.ChatState
	connected bool
	lastErr   string

	finished bool // set under mu when the loop closes updates

	updates   chan ChatSnapshot
	closeOnce sync.Once
}

// WatchChat subscribes to a chat room and starts folding its events
func WatchChat(reg *subscription.Registry, roomID, token string) (*ChatWatcher, error) {
	h, err := reg.Subscribe(subscription.Topic{Kind: subscription.TopicChat, ID: roomID}, token)
	if err != nil {
		return nil, err
	}
	w := &ChatWatcher{
		handle:  h,
		roomID:  roomID,
		data:    state.NewChatState(),
		updates: make(chan ChatSnapshot, updateBuffer),
	}
	go w.loop()
	return w, nil
}

// Updates delivers a snapshot after every state change. Slow consumers see
// coalesced snapshots, never a stalled connection. Closes after Close.
func (w *ChatWatcher) Updates() <-chan ChatSnapshot {
	return w.updates
}

// Snapshot returns the current view without waiting for an update
func (w *ChatWatcher) Snapshot() ChatSnapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshotLocked()
}

// SetActiveRoom marks the room active, clearing its unread counter
func (w *ChatWatcher) SetActiveRoom(roomID string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.data = state.SetActiveRoom(w.data, roomID)
	if !w.finished {
		publishChat(w.updates, w.snapshotLocked())
	}
}

// MarkRead clears unread state without changing the active room
func (w *ChatWatcher) MarkRead(roomID string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.data = state.MarkRoomRead(w.data, roomID)
	if !w.finished {
		publishChat(w.updates, w.snapshotLocked())
	}
}

// SendMessage encodes and sends a chat message. Fails with
// transport.ErrNotConnected while offline; the frame is dropped so the UI
// can give immediate feedback.
func (w *ChatWatcher) SendMessage(content string) error {
	frame, err := protocol.EncodeChatSend(content)
	if err != nil {
		return err
	}
	return w.handle.Send(frame)
}

// Close withdraws interest in the room. Idempotent; safe under rapid
// mount/unmount cycles.
func (w *ChatWatcher) Close() {
	w.closeOnce.Do(func() { w.handle.Unsubscribe() })
}

func (w *ChatWatcher) loop() {
	events, states := w.handle.Events(), w.handle.States()
	for events != nil || states != nil {
		select {
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			msg, ok := ev.(protocol.ChatMessage)
			if !ok {
				continue
			}
			w.mu.Lock()
			w.data = state.ApplyMessage(w.data, w.roomID, state.Message{
				ID:        msg.ID,
				Content:   msg.Content,
				UserID:    msg.UserID,
				Timestamp: msg.Timestamp,
				IsRead:    msg.IsRead,
			})
			snap := w.snapshotLocked()
			w.mu.Unlock()
			publishChat(w.updates, snap)
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
			publishChat(w.updates, snap)
		}
	}
	w.mu.Lock()
	w.finished = true
	close(w.updates)
	w.mu.Unlock()
}

func (w *ChatWatcher) snapshotLocked() ChatSnapshot {
	return ChatSnapshot{Connected: w.connected, Data: w.data, Err: w.lastErr}
}

// publishChat never blocks: when the consumer lags, the oldest queued
// snapshot is dropped in favor of the newest.
func publishChat(ch chan ChatSnapshot, snap ChatSnapshot) {
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
