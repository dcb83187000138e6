package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sync.yaml")
	content := `
endpoints:
  orders: "wss://api.example.com/ws/orders/tracking/{id}/?token={token}"
reconnect:
  initial_delay_ms: 500
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if c.Endpoints.Orders != "wss://api.example.com/ws/orders/tracking/{id}/?token={token}" {
		t.Errorf("explicit endpoint overridden: %q", c.Endpoints.Orders)
	}
	if c.Endpoints.Chat == "" || c.Endpoints.Notifications == "" {
		t.Error("missing endpoints should get defaults")
	}
	if c.Reconnect.InitialDelayMs != 500 {
		t.Errorf("explicit reconnect delay overridden: %d", c.Reconnect.InitialDelayMs)
	}
	if c.Reconnect.MaxDelayMs != 30000 {
		t.Errorf("expected default max delay 30000, got %d", c.Reconnect.MaxDelayMs)
	}
	if c.Reconnect.Multiplier != 2.0 {
		t.Errorf("expected default multiplier 2.0, got %f", c.Reconnect.Multiplier)
	}
	if c.SendRatePerSec != 5 {
		t.Errorf("expected default send rate, got %f", c.SendRatePerSec)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestTransportConfigMapping(t *testing.T) {
	c := Default()
	tc := c.TransportConfig()

	if tc.HandshakeTimeout != 10*time.Second {
		t.Errorf("expected 10s handshake timeout, got %v", tc.HandshakeTimeout)
	}
	if tc.WriteTimeout != 5*time.Second {
		t.Errorf("expected 5s write timeout, got %v", tc.WriteTimeout)
	}
	if tc.Reconnect.InitialDelayMs != 1000 {
		t.Errorf("expected 1000ms initial delay, got %d", tc.Reconnect.InitialDelayMs)
	}
}

func TestResolverTemplatesCoverAllKinds(t *testing.T) {
	templates := Default().ResolverTemplates()
	if len(templates) != 3 {
		t.Fatalf("expected 3 templates, got %d", len(templates))
	}
	for kind, tmpl := range templates {
		if tmpl == "" {
			t.Errorf("empty template for kind %s", kind)
		}
	}
}
