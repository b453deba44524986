package connect

import (
	"context"
	"sync"

	"connectrpc.com/connect"
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	jukeboxv1 "github.com/KuotenoAshiato/spotify-jukebox/internal/api/jukeboxv1"
	"github.com/KuotenoAshiato/spotify-jukebox/internal/app/notification"
	"github.com/KuotenoAshiato/spotify-jukebox/internal/app/session"
)

// RoomService implements the RoomService RPC.
type RoomService struct {
	session *session.Manager
}

// NewRoomService creates a new RoomService.
func NewRoomService(session *session.Manager) *RoomService {
	return &RoomService{session: session}
}

// Ensure RoomService implements the interface.
var _ jukeboxv1.RoomServiceHandler = (*RoomService)(nil)

var empty = &jukeboxv1.Empty{}

// reply wraps a result or maps the error.
func reply[T any](procedure string, msg *T, err error) (*connect.Response[T], error) {
	if err != nil {
		return nil, toConnectError(procedure, err)
	}
	return connect.NewResponse(msg), nil
}

// JoinRoom returns the room state, creating the room if needed.
func (s *RoomService) JoinRoom(
	ctx context.Context,
	req *connect.Request[jukeboxv1.RoomRef],
) (*connect.Response[jukeboxv1.RoomState], error) {
	state, err := s.session.JoinRoom(req.Msg.RoomID)
	return reply(jukeboxv1.RoomServiceJoinRoomProcedure, &jukeboxv1.RoomState{State: state}, err)
}

// ApplyPartialUpdate merges named fields into the room.
func (s *RoomService) ApplyPartialUpdate(
	ctx context.Context,
	req *connect.Request[jukeboxv1.ApplyPartialUpdateRequest],
) (*connect.Response[jukeboxv1.Empty], error) {
	err := s.session.ApplyPartialUpdate(req.Msg.RoomID, req.Msg.Fields)
	return reply(jukeboxv1.RoomServiceApplyPartialUpdateProcedure, empty, err)
}

// AddTrack classifies and queues a track.
func (s *RoomService) AddTrack(
	ctx context.Context,
	req *connect.Request[jukeboxv1.AddTrackRequest],
) (*connect.Response[jukeboxv1.AddTrackResponse], error) {
	added, err := s.session.AddTrack(ctx, req.Msg.RoomID, req.Msg.Track)
	return reply(jukeboxv1.RoomServiceAddTrackProcedure, &jukeboxv1.AddTrackResponse{
		Added: added != nil,
		Track: added,
	}, err)
}

// UpdateTrackGenre confirms an artist's genre in the room.
func (s *RoomService) UpdateTrackGenre(
	ctx context.Context,
	req *connect.Request[jukeboxv1.UpdateTrackGenreRequest],
) (*connect.Response[jukeboxv1.Empty], error) {
	m := req.Msg
	err := s.session.UpdateTrackGenre(ctx, m.RoomID, m.ArtistID, m.NewGenre, m.RawGenres, m.ArtistName)
	return reply(jukeboxv1.RoomServiceUpdateTrackGenreProcedure, empty, err)
}

// RemoveSuggestion drops an artist's pending suggestion.
func (s *RoomService) RemoveSuggestion(
	ctx context.Context,
	req *connect.Request[jukeboxv1.RemoveSuggestionRequest],
) (*connect.Response[jukeboxv1.Empty], error) {
	err := s.session.RemoveSuggestion(req.Msg.RoomID, req.Msg.ArtistID)
	return reply(jukeboxv1.RoomServiceRemoveSuggestionProcedure, empty, err)
}

// ClearSuggestions drops all pending suggestions.
func (s *RoomService) ClearSuggestions(
	ctx context.Context,
	req *connect.Request[jukeboxv1.RoomRef],
) (*connect.Response[jukeboxv1.Empty], error) {
	err := s.session.ClearSuggestions(req.Msg.RoomID)
	return reply(jukeboxv1.RoomServiceClearSuggestionsProcedure, empty, err)
}

// UpvoteTrack records a device's upvote.
func (s *RoomService) UpvoteTrack(
	ctx context.Context,
	req *connect.Request[jukeboxv1.UpvoteTrackRequest],
) (*connect.Response[jukeboxv1.Empty], error) {
	err := s.session.UpvoteTrack(req.Msg.RoomID, req.Msg.UniqueID, req.Msg.DeviceID)
	return reply(jukeboxv1.RoomServiceUpvoteTrackProcedure, empty, err)
}

// VoteGenre moves a device's genre vote.
func (s *RoomService) VoteGenre(
	ctx context.Context,
	req *connect.Request[jukeboxv1.VoteGenreRequest],
) (*connect.Response[jukeboxv1.Empty], error) {
	err := s.session.VoteGenre(req.Msg.RoomID, req.Msg.Genre, req.Msg.DeviceID)
	return reply(jukeboxv1.RoomServiceVoteGenreProcedure, empty, err)
}

// VoteRtv records a rock-the-vote vote.
func (s *RoomService) VoteRtv(
	ctx context.Context,
	req *connect.Request[jukeboxv1.VoteRtvRequest],
) (*connect.Response[jukeboxv1.Empty], error) {
	err := s.session.VoteRtv(req.Msg.RoomID, req.Msg.DeviceID)
	return reply(jukeboxv1.RoomServiceVoteRtvProcedure, empty, err)
}

// Logout clears the room's Spotify credentials.
func (s *RoomService) Logout(
	ctx context.Context,
	req *connect.Request[jukeboxv1.RoomRef],
) (*connect.Response[jukeboxv1.Empty], error) {
	err := s.session.Logout(req.Msg.RoomID)
	return reply(jukeboxv1.RoomServiceLogoutProcedure, empty, err)
}

// Skip moves the head track to the history.
func (s *RoomService) Skip(
	ctx context.Context,
	req *connect.Request[jukeboxv1.RoomRef],
) (*connect.Response[jukeboxv1.Empty], error) {
	err := s.session.Skip(req.Msg.RoomID)
	return reply(jukeboxv1.RoomServiceSkipProcedure, empty, err)
}

// MoveBucket moves a genre bucket up by one.
func (s *RoomService) MoveBucket(
	ctx context.Context,
	req *connect.Request[jukeboxv1.MoveBucketRequest],
) (*connect.Response[jukeboxv1.Empty], error) {
	err := s.session.MoveBucket(req.Msg.RoomID, req.Msg.TargetIndex)
	return reply(jukeboxv1.RoomServiceMoveBucketProcedure, empty, err)
}

// RemoveTrack removes a queued entry.
func (s *RoomService) RemoveTrack(
	ctx context.Context,
	req *connect.Request[jukeboxv1.RemoveTrackRequest],
) (*connect.Response[jukeboxv1.Empty], error) {
	err := s.session.RemoveTrack(req.Msg.RoomID, req.Msg.UniqueID)
	return reply(jukeboxv1.RoomServiceRemoveTrackProcedure, empty, err)
}

// ClearQueue empties the queue.
func (s *RoomService) ClearQueue(
	ctx context.Context,
	req *connect.Request[jukeboxv1.RoomRef],
) (*connect.Response[jukeboxv1.Empty], error) {
	err := s.session.ClearQueue(req.Msg.RoomID)
	return reply(jukeboxv1.RoomServiceClearQueueProcedure, empty, err)
}

// ClearHistory empties the history.
func (s *RoomService) ClearHistory(
	ctx context.Context,
	req *connect.Request[jukeboxv1.RoomRef],
) (*connect.Response[jukeboxv1.Empty], error) {
	err := s.session.ClearHistory(req.Msg.RoomID)
	return reply(jukeboxv1.RoomServiceClearHistoryProcedure, empty, err)
}

// VerifyHost checks a host secret hash.
func (s *RoomService) VerifyHost(
	ctx context.Context,
	req *connect.Request[jukeboxv1.HostRequest],
) (*connect.Response[jukeboxv1.VerifyHostResponse], error) {
	ok, err := s.session.VerifyHost(req.Msg.RoomID, req.Msg.HostPasswordHash)
	return reply(jukeboxv1.RoomServiceVerifyHostProcedure, &jukeboxv1.VerifyHostResponse{Verified: ok}, err)
}

// BeginLogin starts a Spotify login for the room.
func (s *RoomService) BeginLogin(
	ctx context.Context,
	req *connect.Request[jukeboxv1.RoomRef],
) (*connect.Response[jukeboxv1.BeginLoginResponse], error) {
	authURL, err := s.session.BeginLogin(req.Msg.RoomID)
	return reply(jukeboxv1.RoomServiceBeginLoginProcedure, &jukeboxv1.BeginLoginResponse{AuthURL: authURL}, err)
}

// CloseRoom closes the room on behalf of its host.
func (s *RoomService) CloseRoom(
	ctx context.Context,
	req *connect.Request[jukeboxv1.HostRequest],
) (*connect.Response[jukeboxv1.MergeResponse], error) {
	procedure := jukeboxv1.RoomServiceCloseRoomProcedure
	ok, err := s.session.VerifyHost(req.Msg.RoomID, req.Msg.HostPasswordHash)
	if err != nil {
		return nil, toConnectError(procedure, err)
	}
	if !ok {
		return nil, toConnectError(procedure, errors.Wrapf(errHostRejected, "room %s", req.Msg.RoomID))
	}
	res, err := s.session.CloseRoom(req.Msg.RoomID, session.CloseReasonHost)
	return reply(procedure, &jukeboxv1.MergeResponse{Result: res}, err)
}

// SubscribeRoom streams the room's current state, then every update, until
// the client disconnects or the room closes.
func (s *RoomService) SubscribeRoom(
	ctx context.Context,
	req *connect.Request[jukeboxv1.RoomRef],
	stream *connect.ServerStream[jukeboxv1.RoomEvent],
) error {
	adapter := newStreamAdapter(stream)
	subscriptionID, err := s.session.Subscribe(req.Msg.RoomID, adapter)
	if err != nil {
		return toConnectError(jukeboxv1.RoomServiceSubscribeRoomProcedure, err)
	}
	zlog.Debug().Str("room_id", req.Msg.RoomID).Msgf("room stream opened: subscription_id=%s", subscriptionID)

	// Wait for client disconnect, room close or manager stop
	select {
	case <-ctx.Done():
	case <-adapter.closed:
	case <-s.session.Done():
	}

	s.session.Unsubscribe(subscriptionID)
	adapter.finish()
	zlog.Debug().Str("room_id", req.Msg.RoomID).Msgf("room stream closed: subscription_id=%s", subscriptionID)
	return nil
}

var errStreamFinished = errors.New("stream finished")

// streamAdapter adapts connect.ServerStream to notification.Stream. Sends
// after the handler returned are refused.
type streamAdapter struct {
	mu       sync.Mutex
	stream   *connect.ServerStream[jukeboxv1.RoomEvent]
	finished bool
	closed   chan struct{}
	once     sync.Once
}

func newStreamAdapter(stream *connect.ServerStream[jukeboxv1.RoomEvent]) *streamAdapter {
	return &streamAdapter{stream: stream, closed: make(chan struct{})}
}

func (a *streamAdapter) Send(ev notification.Event) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.finished {
		return errStreamFinished
	}
	if err := a.stream.Send(toRoomEvent(ev)); err != nil {
		return err
	}
	if ev.Type == notification.EventRoomClosed {
		a.once.Do(func() { close(a.closed) })
	}
	return nil
}

func (a *streamAdapter) finish() {
	a.mu.Lock()
	a.finished = true
	a.mu.Unlock()
}

func toRoomEvent(ev notification.Event) *jukeboxv1.RoomEvent {
	return &jukeboxv1.RoomEvent{
		Type:       ev.Type.String(),
		RoomID:     ev.RoomID,
		SequenceNo: ev.SequenceNo,
		State:      ev.State,
		Reason:     ev.Reason,
	}
}
