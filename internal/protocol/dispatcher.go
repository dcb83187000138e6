package protocol

import (
	"sync"

	"github.com/shopstream/realtime/internal/observ"
)

// Dispatcher turns raw frames from a single connection into typed event
// callbacks. Parse failures are reported, counted, and swallowed: a bad
// frame never tears down the connection it arrived on.
type Dispatcher struct {
	// OnEvent receives every recognized event, in transport delivery order.
	OnEvent func(Event)
	// OnUnknown receives well-formed frames outside the recognized set.
	// Optional; unknown events also flow through OnEvent when it is set.
	OnUnknown func(Unknown)
	// OnError receives parse failures. Optional.
	OnError func(*ParseError)

	mu      sync.Mutex
	lastSeq int64
	seeded  bool
	gaps    int64
}

// HandleFrame is registered as a transport message handler. It never panics
// and never returns an error to the transport layer.
func (d *Dispatcher) HandleFrame(data []byte) {
	ev, seq, err := Decode(data)
	if err != nil {
		observ.IncCounter("protocol_parse_errors_total", nil)
		if pe, ok := err.(*ParseError); ok && d.OnError != nil {
			d.OnError(pe)
		}
		return
	}

	if seq > 0 {
		d.trackSeq(seq)
	}

	if u, ok := ev.(Unknown); ok {
		observ.IncCounter("protocol_unknown_events_total", map[string]string{"type": u.Type})
		if d.OnUnknown != nil {
			d.OnUnknown(u)
		}
		if d.OnEvent != nil {
			d.OnEvent(u)
		}
		return
	}

	observ.IncCounter("protocol_events_total", map[string]string{"type": string(ev.Kind())})
	if d.OnEvent != nil {
		d.OnEvent(ev)
	}
}

// Gaps returns how many sequence gaps this connection has observed
func (d *Dispatcher) Gaps() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gaps
}

// ResetSeq clears the sequence baseline. Servers restart their counters on
// a fresh connection, so the owner calls this when the transport reconnects;
// tracking reseeds from the first stamped frame afterwards.
func (d *Dispatcher) ResetSeq() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lastSeq = 0
	d.seeded = false
}

// trackSeq detects dropped or reordered frames on servers that stamp a
// monotonic sequence number. Detection only; no client-side reordering.
func (d *Dispatcher) trackSeq(seq int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.seeded && seq > d.lastSeq+1 {
		d.gaps++
		observ.IncCounter("protocol_seq_gaps_total", nil)
		observ.Log("protocol_seq_gap", map[string]any{"last": d.lastSeq, "current": seq})
	}
	if seq > d.lastSeq {
		d.lastSeq = seq
	}
	d.seeded = true
}
