package protocol

import (
	"encoding/json"
	"fmt"
)

// ParseError reports a malformed inbound frame. It never propagates past
// the dispatch layer; the connection stays open.
type ParseError struct {
	Frame string // truncated copy of the offending frame
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse frame %q: %v", e.Frame, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

const frameSnippetLen = 120

func newParseError(data []byte, err error) *ParseError {
	s := string(data)
	if len(s) > frameSnippetLen {
		s = s[:frameSnippetLen]
	}
	return &ParseError{Frame: s, Err: err}
}

// envelope is the minimal shape every inbound frame must decode to. Seq is
// optional; servers that stamp frames with a monotonic sequence enable gap
// detection in the Dispatcher.
type envelope struct {
	Type string `json:"type"`
	Seq  int64  `json:"seq,omitempty"`
}

// Decode parses a raw inbound frame into a typed event. Frames with an
// unrecognized type decode to Unknown with a nil error; only malformed
// frames produce a *ParseError.
func Decode(data []byte) (Event, int64, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, 0, newParseError(data, err)
	}
	if env.Type == "" {
		return nil, 0, newParseError(data, fmt.Errorf("missing type discriminant"))
	}

	switch Kind(env.Type) {
	case KindChatMessage:
		var ev ChatMessage
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil, 0, newParseError(data, err)
		}
		return ev, env.Seq, nil
	case KindInitialStatus:
		var ev InitialStatus
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil, 0, newParseError(data, err)
		}
		return ev, env.Seq, nil
	case KindStatusUpdate:
		var ev StatusUpdate
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil, 0, newParseError(data, err)
		}
		return ev, env.Seq, nil
	case KindInventoryAlert:
		var ev InventoryAlert
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil, 0, newParseError(data, err)
		}
		return ev, env.Seq, nil
	default:
		return Unknown{Type: env.Type, Raw: append([]byte(nil), data...)}, env.Seq, nil
	}
}

// chatSendFrame is the outbound chat wire shape
type chatSendFrame struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// EncodeChatSend serializes a local "send chat message" action into a frame
// for Transport.Send.
func EncodeChatSend(content string) ([]byte, error) {
	b, err := json.Marshal(chatSendFrame{Type: string(KindChatMessage), Content: content})
	if err != nil {
		return nil, fmt.Errorf("encode chat frame: %w", err)
	}
	return b, nil
}
