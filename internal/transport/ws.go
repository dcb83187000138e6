package transport

import (
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/shopstream/realtime/internal/observ"
)

// WSClient owns exactly one WebSocket connection to a single URL and drives
// it through CLOSED -> CONNECTING -> OPEN -> (CLOSING ->) CLOSED. Unexpected
// closes while not explicitly disconnected trigger the reconnection policy.
type WSClient struct {
	cfg     Config
	dialer  *websocket.Dialer
	limiter *rate.Limiter

	mu         sync.Mutex
	state      ConnectionState
	conn       *websocket.Conn
	gen        uint64 // bumped on Connect/Disconnect; stale goroutines and timers check it
	closed     bool   // explicit disconnect latch, suppresses reconnection
	retryCount int
	retryTimer *time.Timer
	lastErr    error

	wmu sync.Mutex // serializes frame writes

	msgHandlers   []func([]byte)
	stateHandlers []func(StateChange)

	messagesReceived  atomic.Int64
	reconnectAttempts atomic.Int64
	sendsDropped      atomic.Int64
}

// NewWSClient creates a client for the given target. The connection is not
// opened until Connect is called.
func NewWSClient(cfg Config) *WSClient {
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = 10 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}
	cfg.Reconnect = cfg.Reconnect.withDefaults()

	c := &WSClient{
		cfg:    cfg,
		dialer: &websocket.Dialer{HandshakeTimeout: cfg.HandshakeTimeout},
		state:  StateClosed,
	}
	if cfg.SendRatePerSec > 0 {
		burst := cfg.SendBurst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.SendRatePerSec), burst)
	}
	return c
}

// OnMessage registers a handler for inbound frames. Handlers run on the read
// goroutine in delivery order and must not block.
func (c *WSClient) OnMessage(h func([]byte)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgHandlers = append(c.msgHandlers, h)
}

// OnStateChange registers a handler invoked synchronously on every state
// transition, on the goroutine that observed the transport event.
func (c *WSClient) OnStateChange(h func(StateChange)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stateHandlers = append(c.stateHandlers, h)
}

// State returns the current connection state
func (c *WSClient) State() ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Health returns a point-in-time connection summary
func (c *WSClient) Health() Health {
	c.mu.Lock()
	state := c.state
	retries := c.retryCount
	lastErr := ""
	if c.lastErr != nil {
		lastErr = c.lastErr.Error()
	}
	c.mu.Unlock()
	return Health{
		State:             state,
		RetryCount:        retries,
		LastError:         lastErr,
		MessagesReceived:  c.messagesReceived.Load(),
		ReconnectAttempts: c.reconnectAttempts.Load(),
		SendsDropped:      c.sendsDropped.Load(),
	}
}

// Connect starts dialing. It is a no-op unless the client is CLOSED.
func (c *WSClient) Connect() {
	c.mu.Lock()
	if c.state != StateClosed {
		c.mu.Unlock()
		return
	}
	c.closed = false
	c.retryCount = 0
	c.gen++
	gen := c.gen
	notify := c.transitionLocked(StateConnecting, nil)
	c.mu.Unlock()
	notify()
	go c.dial(gen)
}

// Disconnect closes the connection and cancels any pending reconnection
// attempt. Explicit disconnect is terminal: no state-change notification
// fires after the final CLOSED, and no retry is resurrected.
func (c *WSClient) Disconnect() {
	c.mu.Lock()
	alreadyDown := c.closed && c.state == StateClosed
	c.closed = true
	c.gen++
	if c.retryTimer != nil {
		c.retryTimer.Stop()
		c.retryTimer = nil
	}
	if alreadyDown || c.state == StateClosed {
		// nothing live, just the cancelled timer
		c.mu.Unlock()
		return
	}
	conn := c.conn
	c.conn = nil
	notifyClosing := c.transitionLocked(StateClosing, nil)
	notifyClosed := c.transitionLocked(StateClosed, nil)
	c.mu.Unlock()

	if conn != nil {
		deadline := time.Now().Add(time.Second)
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		conn.Close()
	}
	notifyClosing()
	notifyClosed()
}

// Send writes one text frame. It fails with ErrNotConnected while not OPEN
// (the frame is dropped, never queued) and ErrSendThrottled when the
// outbound rate limit rejects the frame.
func (c *WSClient) Send(payload []byte) error {
	c.mu.Lock()
	if c.state != StateOpen || c.conn == nil {
		c.mu.Unlock()
		c.sendsDropped.Add(1)
		observ.IncCounter("transport_sends_dropped_total", map[string]string{"reason": "not_connected"})
		return ErrNotConnected
	}
	conn := c.conn
	c.mu.Unlock()

	if c.limiter != nil && !c.limiter.Allow() {
		c.sendsDropped.Add(1)
		observ.IncCounter("transport_sends_dropped_total", map[string]string{"reason": "throttled"})
		return ErrSendThrottled
	}

	c.wmu.Lock()
	defer c.wmu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// transitionLocked updates state and returns the notification closure to run
// after the mutex is released, so handlers can call back into the client.
// Callers must hold c.mu.
func (c *WSClient) transitionLocked(next ConnectionState, err error) func() {
	prev := c.state
	c.state = next
	if err != nil {
		c.lastErr = err
	}
	handlers := append([]func(StateChange){}, c.stateHandlers...)
	change := StateChange{Previous: prev, Current: next, Err: err}
	return func() {
		for _, h := range handlers {
			h(change)
		}
	}
}

func (c *WSClient) dial(gen uint64) {
	conn, _, err := c.dialer.Dial(c.cfg.URL, nil)

	c.mu.Lock()
	if gen != c.gen || c.closed {
		c.mu.Unlock()
		if err == nil {
			conn.Close()
		}
		return
	}
	if err != nil {
		notify := c.transitionLocked(StateClosed, err)
		c.scheduleRetryLocked(gen)
		c.mu.Unlock()
		notify()
		observ.IncCounter("transport_dial_failures_total", map[string]string{"url": c.cfg.URL})
		return
	}

	c.conn = conn
	c.retryCount = 0
	notify := c.transitionLocked(StateOpen, nil)
	c.mu.Unlock()
	notify()
	observ.Log("transport_connected", map[string]any{"url": c.cfg.URL})

	go c.readLoop(gen, conn)
}

func (c *WSClient) readLoop(gen uint64, conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.handleReadError(gen, err)
			return
		}

		c.mu.Lock()
		stale := gen != c.gen
		handlers := append([]func([]byte){}, c.msgHandlers...)
		c.mu.Unlock()
		if stale {
			return
		}

		c.messagesReceived.Add(1)
		for _, h := range handlers {
			h(data)
		}
	}
}

// handleReadError records an unexpected close and arms the reconnection
// policy. Reads failing after an explicit disconnect are ignored.
func (c *WSClient) handleReadError(gen uint64, err error) {
	c.mu.Lock()
	if gen != c.gen || c.closed {
		c.mu.Unlock()
		return
	}
	c.conn = nil
	notify := c.transitionLocked(StateClosed, err)
	c.scheduleRetryLocked(gen)
	c.mu.Unlock()
	notify()

	observ.Log("transport_disconnected", map[string]any{"url": c.cfg.URL, "error": err.Error()})
	observ.IncCounter("transport_disconnects_total", map[string]string{"url": c.cfg.URL})
}

// scheduleRetryLocked arms the reconnection timer using exponential backoff
// with jitter. Callers must hold c.mu.
func (c *WSClient) scheduleRetryLocked(gen uint64) {
	rc := c.cfg.Reconnect
	if rc.MaxAttempts > 0 && c.retryCount >= rc.MaxAttempts {
		observ.Log("transport_retries_exhausted", map[string]any{"url": c.cfg.URL, "attempts": c.retryCount})
		return
	}

	delay := c.backoffDelay(c.retryCount)
	if rc.JitterMs > 0 {
		delay += time.Duration(rand.Intn(rc.JitterMs+1)) * time.Millisecond
	}
	c.retryCount++
	c.reconnectAttempts.Add(1)

	observ.Log("transport_reconnect_scheduled", map[string]any{
		"url":      c.cfg.URL,
		"attempt":  c.retryCount,
		"delay_ms": delay.Milliseconds(),
	})

	c.retryTimer = time.AfterFunc(delay, func() { c.retry(gen) })
}

func (c *WSClient) retry(gen uint64) {
	c.mu.Lock()
	if gen != c.gen || c.closed || c.state != StateClosed {
		c.mu.Unlock()
		return
	}
	notify := c.transitionLocked(StateConnecting, nil)
	c.mu.Unlock()
	notify()
	go c.dial(gen)
}

// backoffDelay returns the base delay before the given zero-based attempt:
// initial * multiplier^attempt, capped at the configured maximum.
func (c *WSClient) backoffDelay(attempt int) time.Duration {
	rc := c.cfg.Reconnect
	d := float64(rc.InitialDelayMs)
	for i := 0; i < attempt; i++ {
		d *= rc.Multiplier
		if d >= float64(rc.MaxDelayMs) {
			d = float64(rc.MaxDelayMs)
			break
		}
	}
	return time.Duration(d) * time.Millisecond
}
