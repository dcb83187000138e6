package state

import (
	"fmt"
	"testing"
)

func TestChatUnreadCountsPerRoomActivity(t *testing.T) {
	testCases := []struct {
		name           string
		activeRoom     string
		messageRoom    string
		messageCount   int
		expectedUnread int
	}{
		{
			name:           "inactive_room_accumulates_unread",
			activeRoom:     "",
			messageRoom:    "r1",
			messageCount:   5,
			expectedUnread: 5,
		},
		{
			name:           "active_room_stays_read",
			activeRoom:     "r1",
			messageRoom:    "r1",
			messageCount:   3,
			expectedUnread: 0,
		},
		{
			name:           "other_room_active_still_accumulates",
			activeRoom:     "r2",
			messageRoom:    "r1",
			messageCount:   2,
			expectedUnread: 2,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := NewChatState()
			if tc.activeRoom != "" {
				s = SetActiveRoom(s, tc.activeRoom)
			}
			for i := 0; i < tc.messageCount; i++ {
				s = ApplyMessage(s, tc.messageRoom, Message{
					ID:      fmt.Sprintf("m%d", i),
					Content: "hello",
					UserID:  "u2",
				})
			}

			room := s.Rooms[tc.messageRoom]
			if room.UnreadCount != tc.expectedUnread {
				t.Errorf("expected unread %d, got %d", tc.expectedUnread, room.UnreadCount)
			}
			if len(room.Messages) != tc.messageCount {
				t.Errorf("expected %d messages, got %d", tc.messageCount, len(room.Messages))
			}
		})
	}
}

func TestChatActivateClearsUnreadAndMarksRead(t *testing.T) {
	s := NewChatState()
	for i := 0; i < 4; i++ {
		s = ApplyMessage(s, "r1", Message{ID: fmt.Sprintf("m%d", i), Content: "hi", UserID: "u2"})
	}
	if s.Rooms["r1"].UnreadCount != 4 {
		t.Fatalf("expected 4 unread, got %d", s.Rooms["r1"].UnreadCount)
	}

	s = SetActiveRoom(s, "r1")

	room := s.Rooms["r1"]
	if room.UnreadCount != 0 {
		t.Errorf("expected unread reset to 0, got %d", room.UnreadCount)
	}
	if !room.Active {
		t.Error("expected room to be active")
	}
	for i, msg := range room.Messages {
		if !msg.IsRead {
			t.Errorf("message %d not marked read", i)
		}
	}
}

func TestChatActiveRoomIsExclusive(t *testing.T) {
	s := NewChatState()
	s = SetActiveRoom(s, "r1")
	s = SetActiveRoom(s, "r2")

	if s.Rooms["r1"].Active {
		t.Error("r1 should be inactive after activating r2")
	}
	if !s.Rooms["r2"].Active {
		t.Error("r2 should be active")
	}
}

func TestChatMessageForUnknownRoomCreatesIt(t *testing.T) {
	s := NewChatState()
	s = ApplyMessage(s, "new-room", Message{ID: "m1", Content: "hi", UserID: "u2"})

	room, ok := s.Rooms["new-room"]
	if !ok {
		t.Fatal("expected room to be auto-created")
	}
	if room.UnreadCount != 1 {
		t.Errorf("expected unread 1, got %d", room.UnreadCount)
	}
	if len(s.RoomOrder) != 1 || s.RoomOrder[0] != "new-room" {
		t.Errorf("expected room order [new-room], got %v", s.RoomOrder)
	}
}

func TestChatMarkReadUnknownRoomIsNoop(t *testing.T) {
	s := NewChatState()
	s2 := MarkRoomRead(s, "missing")
	if len(s2.Rooms) != 0 {
		t.Errorf("expected no rooms, got %d", len(s2.Rooms))
	}
}

func TestChatReducerDoesNotMutateInput(t *testing.T) {
	s := NewChatState()
	s = ApplyMessage(s, "r1", Message{ID: "m1", Content: "a", UserID: "u2"})

	before := s.Rooms["r1"].UnreadCount
	_ = ApplyMessage(s, "r1", Message{ID: "m2", Content: "b", UserID: "u2"})
	_ = SetActiveRoom(s, "r1")

	if s.Rooms["r1"].UnreadCount != before {
		t.Errorf("input state mutated: unread %d -> %d", before, s.Rooms["r1"].UnreadCount)
	}
	if len(s.Rooms["r1"].Messages) != 1 {
		t.Errorf("input message list mutated, len=%d", len(s.Rooms["r1"].Messages))
	}
}

func TestChatScenarioMessageThenActivate(t *testing.T) {
	// subscribe to r1, receive a message while inactive, then open the room
	s := NewChatState()
	s = ApplyMessage(s, "r1", Message{ID: "m1", Content: "hi", UserID: "u2", Timestamp: "T1"})

	if got := s.Rooms["r1"].UnreadCount; got != 1 {
		t.Fatalf("expected unreadCount 1, got %d", got)
	}

	s = SetActiveRoom(s, "r1")
	if got := s.Rooms["r1"].UnreadCount; got != 0 {
		t.Fatalf("expected unreadCount 0 after activation, got %d", got)
	}
}
