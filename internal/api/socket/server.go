// Package socket serves the realtime Socket.IO protocol used by the browser
// guest, host and display pages.
package socket

import (
	"context"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	socketio "github.com/googollee/go-socket.io"
	zlog "github.com/rs/zerolog/log"

	"github.com/KuotenoAshiato/spotify-jukebox/internal/app/notification"
	"github.com/KuotenoAshiato/spotify-jukebox/internal/app/session"
	"github.com/KuotenoAshiato/spotify-jukebox/internal/domain/track"
)

const namespace = "/"

// addTrackTimeout bounds one asynchronous add_track, tag fetch included.
const addTrackTimeout = 30 * time.Second

// Client-to-server events.
const (
	EventJoinRoom            = "join_room"
	EventUpdateState         = "update_state"
	EventAddTrack            = "add_track"
	EventUpdateTrackGenre    = "update_track_genre"
	EventRemoveSuggestion    = "remove_suggestion"
	EventClearAllSuggestions = "clear_all_suggestions"
	EventUpvoteTrack         = "upvote_track"
	EventLogoutSpotify       = "logout_spotify"
	EventVoteGenre           = "vote_genre"
	EventVoteRtv             = "vote_rtv"
	EventSkipTrack           = "skip_track"
	EventMoveBucket          = "move_bucket"
	EventRemoveTrack         = "remove_track"
	EventClearQueue          = "clear_queue"
	EventClearHistory        = "clear_history"
)

// Server-to-client events.
const (
	EventInitState    = "init_state"
	EventStateUpdated = "state_updated"
	EventRoomClosed   = "room_closed"
	EventError        = "error"
)

// ConnCtx is the per-connection context.
type ConnCtx struct {
	RoomID string
}

// Server bridges Socket.IO connections to the session manager.
type Server struct {
	sessions *session.Manager
	io       *socketio.Server

	ctx            context.Context
	cancel         context.CancelFunc
	subscriptionID string
}

// New creates a new Socket.IO server.
func New(sessions *session.Manager) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		sessions: sessions,
		io:       socketio.NewServer(nil),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Mount registers the event handlers, starts serving and attaches the server
// to the router.
func (srv *Server) Mount(r *gin.Engine) {
	io := srv.io

	io.OnConnect(namespace, func(s socketio.Conn) error {
		s.SetContext(&ConnCtx{})
		zlog.Debug().Str("sid", s.ID()).Msg("socket connected")
		return nil
	})

	io.OnEvent(namespace, EventJoinRoom, func(s socketio.Conn, roomID string) {
		state, err := srv.sessions.JoinRoom(roomID)
		if err != nil {
			srv.fail(s, EventJoinRoom, err)
			return
		}
		s.LeaveAll()
		s.Join(roomID)
		s.SetContext(&ConnCtx{RoomID: roomID})
		zlog.Debug().Str("sid", s.ID()).Str("room_id", roomID).Msg("socket joined room")
		s.Emit(EventInitState, state)
	})

	io.OnEvent(namespace, EventUpdateState, func(s socketio.Conn, fields map[string]any) {
		srv.check(s, EventUpdateState, srv.sessions.ApplyPartialUpdate(roomOf(s), fields))
	})

	io.OnEvent(namespace, EventAddTrack, func(s socketio.Conn, desc track.Descriptor) {
		roomID := roomOf(s)
		// Tag fetching may be slow; the connection keeps reading meanwhile.
		go func() {
			ctx, cancel := context.WithTimeout(srv.ctx, addTrackTimeout)
			defer cancel()
			if _, err := srv.sessions.AddTrack(ctx, roomID, desc); err != nil {
				srv.fail(s, EventAddTrack, err)
			}
		}()
	})

	io.OnEvent(namespace, EventUpdateTrackGenre, func(s socketio.Conn, payload struct {
		ArtistID   string   `json:"artistId"`
		ArtistName string   `json:"artistName"`
		NewGenre   string   `json:"newGenre"`
		RawGenres  []string `json:"rawGenres"`
	}) {
		err := srv.sessions.UpdateTrackGenre(srv.ctx, roomOf(s), payload.ArtistID, payload.NewGenre, payload.RawGenres, payload.ArtistName)
		srv.check(s, EventUpdateTrackGenre, err)
	})

	io.OnEvent(namespace, EventRemoveSuggestion, func(s socketio.Conn, artistID string) {
		srv.check(s, EventRemoveSuggestion, srv.sessions.RemoveSuggestion(roomOf(s), artistID))
	})

	io.OnEvent(namespace, EventClearAllSuggestions, func(s socketio.Conn) {
		srv.check(s, EventClearAllSuggestions, srv.sessions.ClearSuggestions(roomOf(s)))
	})

	io.OnEvent(namespace, EventUpvoteTrack, func(s socketio.Conn, payload any) {
		ref, deviceID := upvoteArgs(payload, s.ID())
		srv.check(s, EventUpvoteTrack, srv.sessions.UpvoteTrack(roomOf(s), ref, deviceID))
	})

	io.OnEvent(namespace, EventLogoutSpotify, func(s socketio.Conn) {
		srv.check(s, EventLogoutSpotify, srv.sessions.Logout(roomOf(s)))
	})

	io.OnEvent(namespace, EventVoteGenre, func(s socketio.Conn, payload struct {
		Genre    string `json:"genre"`
		DeviceID string `json:"deviceId"`
	}) {
		srv.check(s, EventVoteGenre, srv.sessions.VoteGenre(roomOf(s), payload.Genre, payload.DeviceID))
	})

	io.OnEvent(namespace, EventVoteRtv, func(s socketio.Conn, deviceID string) {
		srv.check(s, EventVoteRtv, srv.sessions.VoteRtv(roomOf(s), deviceID))
	})

	io.OnEvent(namespace, EventSkipTrack, func(s socketio.Conn) {
		srv.check(s, EventSkipTrack, srv.sessions.Skip(roomOf(s)))
	})

	io.OnEvent(namespace, EventMoveBucket, func(s socketio.Conn, targetIndex int) {
		srv.check(s, EventMoveBucket, srv.sessions.MoveBucket(roomOf(s), targetIndex))
	})

	io.OnEvent(namespace, EventRemoveTrack, func(s socketio.Conn, uniqueID string) {
		srv.check(s, EventRemoveTrack, srv.sessions.RemoveTrack(roomOf(s), uniqueID))
	})

	io.OnEvent(namespace, EventClearQueue, func(s socketio.Conn) {
		srv.check(s, EventClearQueue, srv.sessions.ClearQueue(roomOf(s)))
	})

	io.OnEvent(namespace, EventClearHistory, func(s socketio.Conn) {
		srv.check(s, EventClearHistory, srv.sessions.ClearHistory(roomOf(s)))
	})

	io.OnError(namespace, func(s socketio.Conn, e error) {
		if s == nil {
			zlog.Error().Msgf("socket error: %v", e)
			return
		}
		zlog.Error().Str("sid", s.ID()).Msgf("socket error: %v", e)
	})

	io.OnDisconnect(namespace, func(s socketio.Conn, reason string) {
		zlog.Debug().Str("sid", s.ID()).Str("room_id", roomOf(s)).Msgf("socket disconnected: reason=%s", reason)
	})

	srv.subscriptionID = srv.sessions.Gateway().Subscribe("", newBridge(func(roomID, event string, args ...any) {
		io.BroadcastToRoom(namespace, roomID, event, args...)
	}))

	go func() {
		if err := io.Serve(); err != nil {
			zlog.Error().Msgf("socket.io server stopped: %v", err)
		}
	}()

	r.GET("/socket.io/*any", gin.WrapH(io))
	r.POST("/socket.io/*any", gin.WrapH(io))

	// Basic CORS preflight for Socket.IO POST
	r.OPTIONS("/socket.io/*any", func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		c.Status(http.StatusNoContent)
	})
}

// Close stops the bridge and the Socket.IO server.
func (srv *Server) Close() error {
	srv.cancel()
	if srv.subscriptionID != "" {
		srv.sessions.Gateway().Unsubscribe(srv.subscriptionID)
	}
	return srv.io.Close()
}

func roomOf(s socketio.Conn) string {
	if ctx, ok := s.Context().(*ConnCtx); ok {
		return ctx.RoomID
	}
	return ""
}

// upvoteArgs reads an upvote_track payload: either {uniqueId, deviceId} or a
// bare entry ID sent by older clients. A missing device falls back to the
// connection ID.
func upvoteArgs(payload any, connID string) (ref, deviceID string) {
	switch p := payload.(type) {
	case string:
		ref = p
	case map[string]any:
		ref, _ = p["uniqueId"].(string)
		deviceID, _ = p["deviceId"].(string)
	}
	if deviceID == "" {
		deviceID = connID
	}
	return ref, deviceID
}

func (srv *Server) check(s socketio.Conn, event string, err error) {
	if err != nil {
		srv.fail(s, event, err)
	}
}

// fail reports an error to the sender only.
func (srv *Server) fail(s socketio.Conn, event string, err error) {
	zlog.Warn().Str("sid", s.ID()).Str("room_id", roomOf(s)).Msgf("socket event failed: event=%s error=%v", event, err)
	s.Emit(EventError, map[string]any{"event": event, "code": errorCode(err), "message": err.Error()})
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, session.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, session.ErrRoomNotFound):
		return "not_found"
	case errors.Is(err, session.ErrTrackRejected):
		return "track_rejected"
	default:
		return "internal"
	}
}

// bridge forwards gateway events of every room to the Socket.IO room of the
// same id.
type bridge struct {
	emit func(roomID, event string, args ...any)
}

func newBridge(emit func(roomID, event string, args ...any)) notification.Stream {
	return &bridge{emit: emit}
}

func (b *bridge) Send(ev notification.Event) error {
	switch ev.Type {
	case notification.EventStateUpdated:
		if ev.State != nil {
			b.emit(ev.RoomID, EventStateUpdated, *ev.State)
		}
	case notification.EventRoomClosed:
		b.emit(ev.RoomID, EventRoomClosed, ev.Reason)
	}
	return nil
}
