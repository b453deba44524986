package socket

import (
	"encoding/json"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KuotenoAshiato/spotify-jukebox/internal/app/notification"
	"github.com/KuotenoAshiato/spotify-jukebox/internal/app/session"
	"github.com/KuotenoAshiato/spotify-jukebox/internal/domain/room"
)

type emitted struct {
	roomID string
	event  string
	args   []any
}

func TestBridge_Send(t *testing.T) {
	var got []emitted
	b := newBridge(func(roomID, event string, args ...any) {
		got = append(got, emitted{roomID: roomID, event: event, args: args})
	})

	state := room.State{RoomID: "party"}
	require.NoError(t, b.Send(notification.Event{Type: notification.EventStateUpdated, RoomID: "party", State: &state}))
	require.NoError(t, b.Send(notification.Event{Type: notification.EventStateUpdated, RoomID: "party"}))
	require.NoError(t, b.Send(notification.Event{Type: notification.EventRoomClosed, RoomID: "party", Reason: session.CloseReasonIdle}))

	require.Len(t, got, 2, "a state event without state is not forwarded")
	assert.Equal(t, emitted{roomID: "party", event: EventStateUpdated, args: []any{state}}, got[0])
	assert.Equal(t, emitted{roomID: "party", event: EventRoomClosed, args: []any{session.CloseReasonIdle}}, got[1])
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"invalid input", errors.Wrap(session.ErrInvalidInput, "patch"), "invalid_input"},
		{"missing room", errors.Wrap(session.ErrRoomNotFound, "party"), "not_found"},
		{"rejected track", errors.Wrap(session.ErrTrackRejected, "duplicate"), "track_rejected"},
		{"other", errors.New("boom"), "internal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errorCode(tt.err))
		})
	}
}

func TestUpvoteArgs(t *testing.T) {
	tests := []struct {
		name       string
		payload    string
		wantRef    string
		wantDevice string
	}{
		{"object", `{"uniqueId":"abc-123","deviceId":"dev-1"}`, "abc-123", "dev-1"},
		{"bare entry id", `"abc-123"`, "abc-123", "conn-1"},
		{"missing device", `{"uniqueId":"abc-123"}`, "abc-123", "conn-1"},
		{"empty device", `{"uniqueId":"abc-123","deviceId":""}`, "abc-123", "conn-1"},
		{"uri as ref", `{"uniqueId":"spotify:track:1","deviceId":"dev-1"}`, "spotify:track:1", "dev-1"},
		{"unknown shape", `42`, "", "conn-1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Decoded the way the socket.io parser fills an any parameter.
			var payload any
			require.NoError(t, json.Unmarshal([]byte(tt.payload), &payload))

			ref, device := upvoteArgs(payload, "conn-1")
			assert.Equal(t, tt.wantRef, ref)
			assert.Equal(t, tt.wantDevice, device)
		})
	}
}
