package subscription

import (
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/shopstream/realtime/internal/observ"
	"github.com/shopstream/realtime/internal/protocol"
	"github.com/shopstream/realtime/internal/transport"
)

// Transport is the connection surface the registry drives. Satisfied by
// *transport.WSClient; tests substitute a fake via WithTransportFactory.
type Transport interface {
	Connect()
	Disconnect()
	Send(payload []byte) error
	OnMessage(h func([]byte))
	OnStateChange(h func(transport.StateChange))
	State() transport.ConnectionState
	Health() transport.Health
}

// TransportFactory builds a transport for a resolved connection config
type TransportFactory func(cfg transport.Config) Transport

const (
	eventBuffer = 64
	stateBuffer = 8
)

// Registry is an explicit, constructable connection registry: no ambient
// module state. Connections are created on first subscribe for a URL and
// torn down when the last handle for that URL unsubscribes.
type Registry struct {
	resolver Resolver
	tcfg     transport.Config
	factory  TransportFactory

	mu    sync.Mutex
	conns map[string]*conn
}

// conn is one shared connection plus its current subscriber set
type conn struct {
	url        string
	transport  Transport
	dispatcher *protocol.Dispatcher

	mu   sync.Mutex
	subs map[uuid.UUID]*Handle
}

// NewRegistry creates a registry resolving topics through the given
// resolver. tcfg supplies reconnect/timeout/rate settings for every
// connection the registry opens; URL is filled per topic.
func NewRegistry(resolver Resolver, tcfg transport.Config, opts ...Option) *Registry {
	r := &Registry{
		resolver: resolver,
		tcfg:     tcfg,
		factory:  func(cfg transport.Config) Transport { return transport.NewWSClient(cfg) },
		conns:    map[string]*conn{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Option customizes registry construction
type Option func(*Registry)

// WithTransportFactory substitutes the transport constructor, used by tests
// to run the registry against a fake connection.
func WithTransportFactory(f TransportFactory) Option {
	return func(r *Registry) { r.factory = f }
}

// Subscribe registers interest in a topic. The returned handle delivers
// decoded events and connection state changes until Unsubscribe. A second
// subscribe for the same resolved URL reuses the live connection.
func (r *Registry) Subscribe(t Topic, token string) (*Handle, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrAuthRequired
	}
	url, err := r.resolver.URL(t, token)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.conns[url]
	if !ok {
		c = r.openConnLocked(url)
	}

	h := &Handle{
		ID:     uuid.New(),
		Topic:  t,
		reg:    r,
		conn:   c,
		events: make(chan protocol.Event, eventBuffer),
		states: make(chan transport.StateChange, stateBuffer),
	}

	c.mu.Lock()
	c.subs[h.ID] = h
	refs := len(c.subs)
	// Seed the new handle with the connection's current state so a
	// subscriber joining a live connection sees it immediately instead of
	// waiting for the next transition. Under c.mu so a concurrent fanout
	// cannot land behind a staler seed.
	cur := c.transport.State()
	select {
	case h.states <- transport.StateChange{Previous: cur, Current: cur}:
	default:
	}
	c.mu.Unlock()

	observ.SetGauge("subscription_refs", float64(refs), map[string]string{"topic": t.String()})
	observ.Log("subscription_added", map[string]any{"topic": t.String(), "refs": refs})
	return h, nil
}

// ConnectionCount reports how many live connections the registry holds
func (r *Registry) ConnectionCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conns)
}

// Close disconnects every connection and releases every handle. The
// registry stays usable; subsequent subscribes open fresh connections.
func (r *Registry) Close() {
	r.mu.Lock()
	conns := make([]*conn, 0, len(r.conns))
	for _, c := range r.conns {
		conns = append(conns, c)
	}
	r.conns = map[string]*conn{}
	r.mu.Unlock()

	for _, c := range conns {
		c.transport.Disconnect()
		c.mu.Lock()
		for id, h := range c.subs {
			delete(c.subs, id)
			if h.markReleased() {
				close(h.events)
				close(h.states)
			}
		}
		c.mu.Unlock()
	}
}

// openConnLocked creates and connects the shared connection for a URL.
// Callers must hold r.mu.
func (r *Registry) openConnLocked(url string) *conn {
	c := &conn{
		url:  url,
		subs: map[uuid.UUID]*Handle{},
	}
	c.dispatcher = &protocol.Dispatcher{
		OnEvent: c.fanoutEvent,
		OnError: func(pe *protocol.ParseError) {
			observ.Log("subscription_parse_error", map[string]any{"error": pe.Error()})
		},
	}

	cfg := r.tcfg
	cfg.URL = url
	tr := r.factory(cfg)
	tr.OnMessage(c.dispatcher.HandleFrame)
	tr.OnStateChange(func(sc transport.StateChange) {
		if sc.Current == transport.StateConnecting {
			c.dispatcher.ResetSeq()
		}
		c.fanoutState(sc)
	})
	c.transport = tr

	r.conns[url] = c
	tr.Connect()
	return c
}

// release detaches a handle; the connection closes when the last handle for
// its URL is gone. Called at most once per handle via Handle.Unsubscribe.
func (r *Registry) release(h *Handle) {
	r.mu.Lock()
	c := h.conn

	c.mu.Lock()
	delete(c.subs, h.ID)
	refs := len(c.subs)
	close(h.events)
	close(h.states)
	c.mu.Unlock()

	last := refs == 0
	if last {
		delete(r.conns, c.url)
	}
	r.mu.Unlock()

	if last {
		c.transport.Disconnect()
	}

	observ.SetGauge("subscription_refs", float64(refs), map[string]string{"topic": h.Topic.String()})
	observ.Log("subscription_removed", map[string]any{"topic": h.Topic.String(), "refs": refs})
}

// fanoutEvent delivers a decoded event to every subscriber. Sends are
// non-blocking: a consumer that stops draining loses events rather than
// stalling the read loop for everyone sharing the connection.
func (c *conn) fanoutEvent(ev protocol.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, h := range c.subs {
		select {
		case h.events <- ev:
		default:
			observ.IncCounter("subscription_events_dropped_total", map[string]string{"topic": h.Topic.String()})
		}
	}
}

func (c *conn) fanoutState(sc transport.StateChange) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, h := range c.subs {
		select {
		case h.states <- sc:
		default:
		}
	}
}
