// Package subscription maps logical topics onto shared transport
// connections. It owns the only shared mutable resource in the sync layer:
// reference-counted connections keyed by resolved URL, so the (base URL,
// topic id, token) tuple has at most one live socket.
package subscription

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrAuthRequired is returned by Subscribe when no usable token is
// available. Failing fast beats opening a connection the server will
// reject.
var ErrAuthRequired = errors.New("subscription: auth token required")

// TopicKind selects which backend endpoint a topic resolves against
type TopicKind string

const (
	TopicChat          TopicKind = "chat"          // id = room id
	TopicOrders        TopicKind = "orders"        // id = order id
	TopicNotifications TopicKind = "notifications" // id = user id
)

// Topic is a logical channel a consumer wants updates about
type Topic struct {
	Kind TopicKind
	ID   string
}

func (t Topic) String() string {
	return string(t.Kind) + ":" + t.ID
}

// Resolver turns a topic plus token into a concrete connection URL. The
// exact URL shape is configuration: templates carry {id} and {token}
// placeholders, e.g. "ws://host/ws/orders/tracking/{id}/?token={token}".
type Resolver struct {
	templates map[TopicKind]string
}

// NewResolver builds a resolver from endpoint templates keyed by kind
func NewResolver(templates map[TopicKind]string) Resolver {
	cp := make(map[TopicKind]string, len(templates))
	for k, v := range templates {
		cp[k] = v
	}
	return Resolver{templates: cp}
}

// URL substitutes the topic id and token into the kind's template
func (r Resolver) URL(t Topic, token string) (string, error) {
	tmpl, ok := r.templates[t.Kind]
	if !ok || tmpl == "" {
		return "", fmt.Errorf("no endpoint configured for topic kind %q", t.Kind)
	}
	if t.ID == "" {
		return "", fmt.Errorf("empty topic id for kind %q", t.Kind)
	}
	resolved := strings.ReplaceAll(tmpl, "{id}", url.PathEscape(t.ID))
	resolved = strings.ReplaceAll(resolved, "{token}", url.QueryEscape(token))
	return resolved, nil
}
