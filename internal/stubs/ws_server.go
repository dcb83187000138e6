package stubs

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/shopstream/realtime/internal/observ"
)

// WSServer is a stub storefront backend for local runs and tests. It serves
// the three topic endpoints, rejects tokenless connections before the
// upgrade, replays scripted pushes, and echoes chat sends back to every
// client in the room.
type WSServer struct {
	upgrader websocket.Upgrader

	OrderScript     []ScriptedFrame
	InventoryScript []ScriptedFrame

	mu    sync.RWMutex
	rooms map[string]map[string]*stubClient // channel path -> client id -> client
}

type stubClient struct {
	id   string
	send chan []byte

	mu     sync.Mutex
	closed bool
	seq    int64
}

// enqueue delivers a frame unless the client is gone; full buffers drop
func (c *stubClient) enqueue(b []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- b:
		return true
	default:
		return false
	}
}

func (c *stubClient) shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *stubClient) nextSeq() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	return c.seq
}

// NewWSServer creates a stub server with the demo scripts
func NewWSServer() *WSServer {
	return &WSServer{
		upgrader:        websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
		OrderScript:     DemoOrderScript(),
		InventoryScript: DemoInventoryScript(),
		rooms:           map[string]map[string]*stubClient{},
	}
}

// ServeHTTP routes /ws/chat/{roomId}/, /ws/orders/tracking/{orderId}/ and
// /ws/notifications/{userId}/.
func (s *WSServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("token") == "" {
		http.Error(w, "missing token", http.StatusForbidden)
		return
	}

	path := strings.Trim(r.URL.Path, "/")
	parts := strings.Split(path, "/")
	if len(parts) < 3 || parts[0] != "ws" {
		http.NotFound(w, r)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		observ.Log("stub_upgrade_failed", map[string]any{"error": err.Error()})
		return
	}

	c := &stubClient{id: uuid.NewString(), send: make(chan []byte, 64)}
	s.register(path, c)
	go s.writeLoop(path, c, conn)

	switch {
	case parts[1] == "chat":
		s.readChatLoop(path, c, conn)
	case parts[1] == "orders" && len(parts) >= 4 && parts[2] == "tracking":
		go s.replay(c, s.orderFrames())
		s.drainLoop(path, c, conn)
	case parts[1] == "notifications":
		go s.replay(c, s.InventoryScript)
		s.drainLoop(path, c, conn)
	default:
		conn.Close()
		s.unregister(path, c)
	}
}

// orderFrames prepends the initial snapshot to the scripted updates
func (s *WSServer) orderFrames() []ScriptedFrame {
	initial := ScriptedFrame{Data: map[string]any{
		"type": "initial_status",
		"order": map[string]any{
			"status": "processing",
			"tracking_events": []map[string]any{
				{
					"status":    "processing",
					"message":   "Order confirmed",
					"location":  "Oakland, CA",
					"timestamp": "2026-08-28T08:00:00Z",
				},
			},
		},
	}}
	return append([]ScriptedFrame{initial}, s.OrderScript...)
}

func (s *WSServer) register(path string, c *stubClient) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[path]
	if !ok {
		room = map[string]*stubClient{}
		s.rooms[path] = room
	}
	room[c.id] = c
}

func (s *WSServer) unregister(path string, c *stubClient) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if room, ok := s.rooms[path]; ok {
		delete(room, c.id)
		if len(room) == 0 {
			delete(s.rooms, path)
		}
	}
	c.shutdown()
}

func (s *WSServer) writeLoop(path string, c *stubClient, conn *websocket.Conn) {
	for frame := range c.send {
		conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
			conn.Close()
			return
		}
	}
	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	conn.Close()
}

// replay pushes scripted frames to one client, stamping a per-client seq
func (s *WSServer) replay(c *stubClient, frames []ScriptedFrame) {
	for _, f := range frames {
		if f.DelayMs > 0 {
			time.Sleep(time.Duration(f.DelayMs) * time.Millisecond)
		}
		s.push(c, f.Data)
	}
}

func (s *WSServer) push(c *stubClient, data map[string]any) {
	frame := make(map[string]any, len(data)+1)
	for k, v := range data {
		frame[k] = v
	}
	frame["seq"] = c.nextSeq()
	b, err := json.Marshal(frame)
	if err != nil {
		return
	}
	if !c.enqueue(b) {
		observ.IncCounter("stub_frames_dropped_total", nil)
	}
}

// readChatLoop echoes inbound chat sends back to every client in the room
func (s *WSServer) readChatLoop(path string, c *stubClient, conn *websocket.Conn) {
	defer s.unregister(path, c)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var in struct {
			Type    string `json:"type"`
			Content string `json:"content"`
		}
		if err := json.Unmarshal(data, &in); err != nil || in.Type != "message" {
			continue
		}
		msg := map[string]any{
			"type":      "message",
			"id":        uuid.NewString(),
			"content":   in.Content,
			"userId":    c.id,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"isRead":    false,
		}
		s.broadcast(path, msg)
	}
}

// drainLoop consumes inbound frames on receive-only channels until close
func (s *WSServer) drainLoop(path string, c *stubClient, conn *websocket.Conn) {
	defer s.unregister(path, c)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *WSServer) broadcast(path string, data map[string]any) {
	s.mu.RLock()
	clients := make([]*stubClient, 0, len(s.rooms[path]))
	for _, c := range s.rooms[path] {
		clients = append(clients, c)
	}
	s.mu.RUnlock()
	for _, c := range clients {
		s.push(c, data)
	}
}
