package transport

import (
	"errors"
	"time"
)

// ErrNotConnected is returned by Send when the connection is not OPEN.
// The frame is dropped; callers decide whether to surface or retry. There is
// no implicit buffering of frames written to a dead connection.
var ErrNotConnected = errors.New("transport: not connected")

// ErrSendThrottled is returned by Send when the outbound rate limit is
// exceeded. The frame is dropped.
var ErrSendThrottled = errors.New("transport: send rate limit exceeded")

// ConnectionState represents the current state of a transport connection
type ConnectionState int32

const (
	StateClosed     ConnectionState = iota // 0 = down, initial and terminal
	StateConnecting                        // 1 = dialing
	StateOpen                              // 2 = up, frames flow
	StateClosing                           // 3 = explicit disconnect in progress
)

// String returns human-readable connection state
func (s ConnectionState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	default:
		return "unknown"
	}
}

// StateChange is passed to state-change handlers on every transition.
// Err carries the transport error that caused the transition, nil on clean
// transitions (successful open, explicit disconnect).
type StateChange struct {
	Previous ConnectionState
	Current  ConnectionState
	Err      error
}

// Health is a point-in-time summary of a connection, consumed by status
// indicators and metrics dumps.
type Health struct {
	State             ConnectionState `json:"state"`
	RetryCount        int             `json:"retry_count"`
	LastError         string          `json:"last_error"`
	MessagesReceived  int64           `json:"messages_received"`
	ReconnectAttempts int64           `json:"reconnect_attempts"`
	SendsDropped      int64           `json:"sends_dropped"`
}

// Config configures a single WebSocket client connection
type Config struct {
	URL string

	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration

	// Outbound rate limit; zero disables throttling
	SendRatePerSec float64
	SendBurst      int

	Reconnect ReconnectConfig
}

type ReconnectConfig struct {
	InitialDelayMs int     `yaml:"initial_delay_ms"`
	MaxDelayMs     int     `yaml:"max_delay_ms"`
	Multiplier     float64 `yaml:"multiplier"`
	JitterMs       int     `yaml:"jitter_ms"`
	MaxAttempts    int     `yaml:"max_attempts"` // <=0 for infinite
}

// withDefaults fills zero-valued reconnect settings
func (r ReconnectConfig) withDefaults() ReconnectConfig {
	if r.InitialDelayMs <= 0 {
		r.InitialDelayMs = 1000
	}
	if r.MaxDelayMs <= 0 {
		r.MaxDelayMs = 30000
	}
	if r.Multiplier < 1.0 {
		r.Multiplier = 2.0
	}
	if r.JitterMs < 0 {
		r.JitterMs = 0
	}
	return r
}
