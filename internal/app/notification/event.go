package notification

import "github.com/KuotenoAshiato/spotify-jukebox/internal/domain/room"

// EventType represents a room event type.
type EventType int

const (
	EventStateUpdated EventType = iota // Room state changed
	EventRoomClosed                    // Room was closed or evicted
)

// String returns the string representation of the event type.
func (e EventType) String() string {
	switch e {
	case EventStateUpdated:
		return "state_updated"
	case EventRoomClosed:
		return "room_closed"
	default:
		return "unknown"
	}
}

// Event represents a room event. State is shared between subscribers and
// must be treated as read-only.
type Event struct {
	Type       EventType
	RoomID     string
	SequenceNo uint64
	State      *room.State // nil for EventRoomClosed
	Reason     string      // set for EventRoomClosed
}
