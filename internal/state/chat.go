// Package state holds the pure per-domain reducers: (state, event) -> state.
// Reducers never mutate their input; every transition returns a fresh
// snapshot with copy-on-write sharing of untouched rooms and histories, so
// consumers can hold previous snapshots safely.
package state

// Message is one chat message as shown in a room
type Message struct {
	ID        string `json:"id"`
	Content   string `json:"content"`
	UserID    string `json:"userId"`
	Timestamp string `json:"timestamp"`
	IsRead    bool   `json:"isRead"`
}

// Room holds the ordered message history for one chat room
type Room struct {
	ID          string    `json:"id"`
	Messages    []Message `json:"messages"`     // oldest first
	UnreadCount int       `json:"unread_count"` // messages arrived while inactive
	Active      bool      `json:"active"`
}

// ChatState is the reduced chat view: rooms in first-seen order
type ChatState struct {
	RoomOrder []string        `json:"room_order"`
	Rooms     map[string]Room `json:"rooms"`
}

// NewChatState returns an empty chat view
func NewChatState() ChatState {
	return ChatState{Rooms: map[string]Room{}}
}

// ApplyMessage appends a message to a room, creating the room on demand.
// A message for the active room is immediately read; in any other room it
// increments the unread counter.
func ApplyMessage(s ChatState, roomID string, msg Message) ChatState {
	next := cloneChat(s)
	room, ok := next.Rooms[roomID]
	if !ok {
		room = Room{ID: roomID}
		next.RoomOrder = append(next.RoomOrder, roomID)
	}

	if room.Active {
		msg.IsRead = true
	} else {
		room.UnreadCount++
	}
	room.Messages = append(append([]Message{}, room.Messages...), msg)
	next.Rooms[roomID] = room
	return next
}

// SetActiveRoom marks one room active and all others inactive. Activating a
// room clears its unread counter and marks its messages read. Unknown rooms
// are created on demand, matching ApplyMessage.
func SetActiveRoom(s ChatState, roomID string) ChatState {
	next := cloneChat(s)
	if _, ok := next.Rooms[roomID]; !ok {
		next.Rooms[roomID] = Room{ID: roomID}
		next.RoomOrder = append(next.RoomOrder, roomID)
	}
	for id, room := range next.Rooms {
		if id == roomID {
			room.Active = true
			room = markRead(room)
		} else {
			room.Active = false
		}
		next.Rooms[id] = room
	}
	return next
}

// MarkRoomRead clears the unread counter and read flags without changing
// which room is active. Unknown rooms are a no-op: there is nothing to read.
func MarkRoomRead(s ChatState, roomID string) ChatState {
	if _, ok := s.Rooms[roomID]; !ok {
		return s
	}
	next := cloneChat(s)
	next.Rooms[roomID] = markRead(next.Rooms[roomID])
	return next
}

// TotalUnread sums unread counters across all rooms, for badge indicators
func TotalUnread(s ChatState) int {
	total := 0
	for _, room := range s.Rooms {
		total += room.UnreadCount
	}
	return total
}

func markRead(room Room) Room {
	room.UnreadCount = 0
	if len(room.Messages) == 0 {
		return room
	}
	msgs := append([]Message{}, room.Messages...)
	for i := range msgs {
		msgs[i].IsRead = true
	}
	room.Messages = msgs
	return room
}

func cloneChat(s ChatState) ChatState {
	rooms := make(map[string]Room, len(s.Rooms))
	for id, room := range s.Rooms {
		rooms[id] = room
	}
	return ChatState{
		RoomOrder: append([]string{}, s.RoomOrder...),
		Rooms:     rooms,
	}
}
