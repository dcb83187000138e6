package subscription

import (
	"sync"

	"github.com/google/uuid"

	"github.com/shopstream/realtime/internal/protocol"
	"github.com/shopstream/realtime/internal/transport"
)

// Handle is one consumer's claim on a topic. Dropping the claim is
// explicit: Unsubscribe is safe to call any number of times and releases
// the underlying connection reference exactly once.
type Handle struct {
	ID    uuid.UUID
	Topic Topic

	reg  *Registry
	conn *conn

	events chan protocol.Event
	states chan transport.StateChange

	once sync.Once
}

// Events delivers decoded events for this topic in transport order. The
// channel closes on Unsubscribe.
func (h *Handle) Events() <-chan protocol.Event {
	return h.events
}

// States delivers connection state changes for the shared connection. The
// channel closes on Unsubscribe.
func (h *Handle) States() <-chan transport.StateChange {
	return h.states
}

// Send writes an outbound frame on the shared connection
func (h *Handle) Send(payload []byte) error {
	return h.conn.transport.Send(payload)
}

// State reports the shared connection's current state
func (h *Handle) State() transport.ConnectionState {
	return h.conn.transport.State()
}

// Health reports the shared connection's health summary
func (h *Handle) Health() transport.Health {
	return h.conn.transport.Health()
}

// Unsubscribe withdraws interest. The connection closes when the last
// handle sharing it unsubscribes. Idempotent.
func (h *Handle) Unsubscribe() {
	h.once.Do(func() { h.reg.release(h) })
}

// markReleased consumes the once without running release, for registry-side
// teardown. Reports whether this call won the once.
func (h *Handle) markReleased() bool {
	won := false
	h.once.Do(func() { won = true })
	return won
}
