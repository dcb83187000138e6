package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/shopstream/realtime/internal/subscription"
	"github.com/shopstream/realtime/internal/transport"
)

// Endpoints holds the WebSocket URL templates per topic kind. Templates
// carry {id} and {token} placeholders; the backend owns the exact shape.
type Endpoints struct {
	Chat          string `yaml:"chat"`
	Orders        string `yaml:"orders"`
	Notifications string `yaml:"notifications"`
}

type Root struct {
	Endpoints Endpoints `yaml:"endpoints"`

	Reconnect transport.ReconnectConfig `yaml:"reconnect"`

	HandshakeTimeoutMs int     `yaml:"handshake_timeout_ms"`
	WriteTimeoutMs     int     `yaml:"write_timeout_ms"`
	SendRatePerSec     float64 `yaml:"send_rate_per_sec"`
	SendBurst          int     `yaml:"send_burst"`

	MetricsAddr string `yaml:"metrics_addr"`

	// Bounded demo runs; zero means run until interrupted
	MaxDurationSecs int `yaml:"max_duration_secs"`
}

func Load(path string) (Root, error) {
	var c Root
	b, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return c, err
	}
	return applyDefaults(c), nil
}

// Default returns the configuration used when no file is given, pointing at
// the local stub backend.
func Default() Root {
	return applyDefaults(Root{})
}

func applyDefaults(c Root) Root {
	if c.Endpoints.Chat == "" {
		c.Endpoints.Chat = "ws://localhost:8091/ws/chat/{id}/?token={token}"
	}
	if c.Endpoints.Orders == "" {
		c.Endpoints.Orders = "ws://localhost:8091/ws/orders/tracking/{id}/?token={token}"
	}
	if c.Endpoints.Notifications == "" {
		c.Endpoints.Notifications = "ws://localhost:8091/ws/notifications/{id}/?token={token}"
	}
	if c.Reconnect.InitialDelayMs == 0 {
		c.Reconnect.InitialDelayMs = 1000
	}
	if c.Reconnect.MaxDelayMs == 0 {
		c.Reconnect.MaxDelayMs = 30000
	}
	if c.Reconnect.Multiplier == 0 {
		c.Reconnect.Multiplier = 2.0
	}
	if c.Reconnect.JitterMs == 0 {
		c.Reconnect.JitterMs = 250
	}
	if c.HandshakeTimeoutMs == 0 {
		c.HandshakeTimeoutMs = 10000
	}
	if c.WriteTimeoutMs == 0 {
		c.WriteTimeoutMs = 5000
	}
	if c.SendRatePerSec == 0 {
		c.SendRatePerSec = 5
	}
	if c.SendBurst == 0 {
		c.SendBurst = 5
	}
	return c
}

// TransportConfig builds the per-connection transport settings. URL is
// filled by the subscription registry per topic.
func (c Root) TransportConfig() transport.Config {
	return transport.Config{
		HandshakeTimeout: time.Duration(c.HandshakeTimeoutMs) * time.Millisecond,
		WriteTimeout:     time.Duration(c.WriteTimeoutMs) * time.Millisecond,
		SendRatePerSec:   c.SendRatePerSec,
		SendBurst:        c.SendBurst,
		Reconnect:        c.Reconnect,
	}
}

// ResolverTemplates maps topic kinds to their endpoint templates
func (c Root) ResolverTemplates() map[subscription.TopicKind]string {
	return map[subscription.TopicKind]string{
		subscription.TopicChat:          c.Endpoints.Chat,
		subscription.TopicOrders:        c.Endpoints.Orders,
		subscription.TopicNotifications: c.Endpoints.Notifications,
	}
}
