package protocol

import "encoding/json"

// Kind discriminates inbound event types across all domains
type Kind string

const (
	KindChatMessage    Kind = "message"
	KindInitialStatus  Kind = "initial_status"
	KindStatusUpdate   Kind = "status_update"
	KindInventoryAlert Kind = "alert"
	KindUnknown        Kind = "unknown"
)

// Event is a parsed server-pushed message. The concrete type is one of the
// structs below, closed over the recognized wire types.
type Event interface {
	Kind() Kind
}

// ChatMessage is an inbound chat frame
type ChatMessage struct {
	ID        string `json:"id"`
	Content   string `json:"content"`
	UserID    string `json:"userId"`
	Timestamp string `json:"timestamp"`
	IsRead    bool   `json:"isRead"`
}

func (ChatMessage) Kind() Kind { return KindChatMessage }

// TrackingEvent is one entry in an order's tracking history
type TrackingEvent struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	Location  string `json:"location"`
	Timestamp string `json:"timestamp"`
}

// InitialStatus seeds the full order-tracking view on subscribe
type InitialStatus struct {
	Order struct {
		Status         string          `json:"status"`
		TrackingEvents []TrackingEvent `json:"tracking_events"`
	} `json:"order"`
}

func (InitialStatus) Kind() Kind { return KindInitialStatus }

// StatusUpdate carries one incremental order-tracking event
type StatusUpdate struct {
	Status       string `json:"status"`
	Message      string `json:"message"`
	TrackingData struct {
		Location  string `json:"location"`
		Timestamp string `json:"timestamp"`
	} `json:"tracking_data"`
}

func (StatusUpdate) Kind() Kind { return KindStatusUpdate }

// InventoryAlert is the latest known low-stock state for a product
type InventoryAlert struct {
	ProductID    string `json:"product_id"`
	CurrentStock int    `json:"current_stock"`
	Threshold    int    `json:"threshold"`
	Timestamp    string `json:"timestamp"`
}

func (InventoryAlert) Kind() Kind { return KindInventoryAlert }

// Unknown wraps a well-formed frame whose type is outside the recognized
// set. It is forwarded to the generic handler for extensibility, never
// dropped silently and never an error.
type Unknown struct {
	Type string
	Raw  json.RawMessage
}

func (Unknown) Kind() Kind { return KindUnknown }
