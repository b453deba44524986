package web

import (
	"net/http"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	zlog "github.com/rs/zerolog/log"

	"github.com/KuotenoAshiato/spotify-jukebox/internal/app/notification"
	"github.com/KuotenoAshiato/spotify-jukebox/internal/domain/room"
)

const feedWriteTimeout = 10 * time.Second

var feedUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 16384,
	// Displays are served from arbitrary origins (TVs, kiosks).
	CheckOrigin: func(r *http.Request) bool { return true },
}

// FeedEvent is one JSON message of the display feed.
type FeedEvent struct {
	Type       string      `json:"type"`
	RoomID     string      `json:"roomId"`
	SequenceNo uint64      `json:"sequenceNo"`
	State      *room.State `json:"state,omitempty"`
	Reason     string      `json:"reason,omitempty"`
}

var errFeedClosed = errors.New("feed closed")

// feedStream writes gateway events to a websocket. The gateway delivers from
// a single goroutine, so writes never overlap.
type feedStream struct {
	conn *websocket.Conn

	mu       sync.Mutex
	finished bool
	closed   chan struct{}
	once     sync.Once
}

func (s *feedStream) Send(ev notification.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finished {
		return errFeedClosed
	}

	_ = s.conn.SetWriteDeadline(time.Now().Add(feedWriteTimeout))
	err := s.conn.WriteJSON(FeedEvent{
		Type:       ev.Type.String(),
		RoomID:     ev.RoomID,
		SequenceNo: ev.SequenceNo,
		State:      ev.State,
		Reason:     ev.Reason,
	})
	if err != nil {
		return err
	}
	if ev.Type == notification.EventRoomClosed {
		s.once.Do(func() { close(s.closed) })
	}
	return nil
}

func (s *feedStream) finish() {
	s.mu.Lock()
	s.finished = true
	s.mu.Unlock()
}

// feed streams a room's state to a read-only display over a websocket. The
// first message is the current state.
func (rt *Router) feed(c *gin.Context) {
	roomID := c.Param("roomId")

	conn, err := feedUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		zlog.Warn().Str("room_id", roomID).Msgf("websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	stream := &feedStream{conn: conn, closed: make(chan struct{})}
	subscriptionID, err := rt.sessions.Subscribe(roomID, stream)
	if err != nil {
		zlog.Warn().Str("room_id", roomID).Msgf("feed subscribe failed: %v", err)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, err.Error()),
			time.Now().Add(time.Second))
		return
	}
	zlog.Debug().Str("room_id", roomID).Msgf("feed opened: subscription_id=%s", subscriptionID)

	// Drain incoming frames so control messages are processed.
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	select {
	case <-readDone:
	case <-stream.closed:
	case <-rt.sessions.Done():
	case <-c.Request.Context().Done():
	}

	rt.sessions.Unsubscribe(subscriptionID)
	stream.finish()
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	zlog.Debug().Str("room_id", roomID).Msgf("feed closed: subscription_id=%s", subscriptionID)
}
