package jukeboxv1

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
)

// RoomServiceName is the fully-qualified name of the RoomService service.
const RoomServiceName = "jukebox.v1.RoomService"

// Procedure names of the RoomService.
const (
	RoomServiceJoinRoomProcedure           = "/jukebox.v1.RoomService/JoinRoom"
	RoomServiceApplyPartialUpdateProcedure = "/jukebox.v1.RoomService/ApplyPartialUpdate"
	RoomServiceAddTrackProcedure           = "/jukebox.v1.RoomService/AddTrack"
	RoomServiceUpdateTrackGenreProcedure   = "/jukebox.v1.RoomService/UpdateTrackGenre"
	RoomServiceRemoveSuggestionProcedure   = "/jukebox.v1.RoomService/RemoveSuggestion"
	RoomServiceClearSuggestionsProcedure   = "/jukebox.v1.RoomService/ClearSuggestions"
	RoomServiceUpvoteTrackProcedure        = "/jukebox.v1.RoomService/UpvoteTrack"
	RoomServiceVoteGenreProcedure          = "/jukebox.v1.RoomService/VoteGenre"
	RoomServiceVoteRtvProcedure            = "/jukebox.v1.RoomService/VoteRtv"
	RoomServiceLogoutProcedure             = "/jukebox.v1.RoomService/Logout"
	RoomServiceSkipProcedure               = "/jukebox.v1.RoomService/Skip"
	RoomServiceMoveBucketProcedure         = "/jukebox.v1.RoomService/MoveBucket"
	RoomServiceRemoveTrackProcedure        = "/jukebox.v1.RoomService/RemoveTrack"
	RoomServiceClearQueueProcedure         = "/jukebox.v1.RoomService/ClearQueue"
	RoomServiceClearHistoryProcedure       = "/jukebox.v1.RoomService/ClearHistory"
	RoomServiceVerifyHostProcedure         = "/jukebox.v1.RoomService/VerifyHost"
	RoomServiceBeginLoginProcedure         = "/jukebox.v1.RoomService/BeginLogin"
	RoomServiceCloseRoomProcedure          = "/jukebox.v1.RoomService/CloseRoom"
	RoomServiceSubscribeRoomProcedure      = "/jukebox.v1.RoomService/SubscribeRoom"
)

// RoomServiceHandler is implemented by the room service.
type RoomServiceHandler interface {
	JoinRoom(context.Context, *connect.Request[RoomRef]) (*connect.Response[RoomState], error)
	ApplyPartialUpdate(context.Context, *connect.Request[ApplyPartialUpdateRequest]) (*connect.Response[Empty], error)
	AddTrack(context.Context, *connect.Request[AddTrackRequest]) (*connect.Response[AddTrackResponse], error)
	UpdateTrackGenre(context.Context, *connect.Request[UpdateTrackGenreRequest]) (*connect.Response[Empty], error)
	RemoveSuggestion(context.Context, *connect.Request[RemoveSuggestionRequest]) (*connect.Response[Empty], error)
	ClearSuggestions(context.Context, *connect.Request[RoomRef]) (*connect.Response[Empty], error)
	UpvoteTrack(context.Context, *connect.Request[UpvoteTrackRequest]) (*connect.Response[Empty], error)
	VoteGenre(context.Context, *connect.Request[VoteGenreRequest]) (*connect.Response[Empty], error)
	VoteRtv(context.Context, *connect.Request[VoteRtvRequest]) (*connect.Response[Empty], error)
	Logout(context.Context, *connect.Request[RoomRef]) (*connect.Response[Empty], error)
	Skip(context.Context, *connect.Request[RoomRef]) (*connect.Response[Empty], error)
	MoveBucket(context.Context, *connect.Request[MoveBucketRequest]) (*connect.Response[Empty], error)
	RemoveTrack(context.Context, *connect.Request[RemoveTrackRequest]) (*connect.Response[Empty], error)
	ClearQueue(context.Context, *connect.Request[RoomRef]) (*connect.Response[Empty], error)
	ClearHistory(context.Context, *connect.Request[RoomRef]) (*connect.Response[Empty], error)
	VerifyHost(context.Context, *connect.Request[HostRequest]) (*connect.Response[VerifyHostResponse], error)
	BeginLogin(context.Context, *connect.Request[RoomRef]) (*connect.Response[BeginLoginResponse], error)
	CloseRoom(context.Context, *connect.Request[HostRequest]) (*connect.Response[MergeResponse], error)
	SubscribeRoom(context.Context, *connect.Request[RoomRef], *connect.ServerStream[RoomEvent]) error
}

// NewRoomServiceHandler builds an HTTP handler for the service and returns
// the path to mount it on.
func NewRoomServiceHandler(svc RoomServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(Codec{})}, opts...)

	mux := http.NewServeMux()
	mux.Handle(RoomServiceJoinRoomProcedure, connect.NewUnaryHandler(RoomServiceJoinRoomProcedure, svc.JoinRoom, opts...))
	mux.Handle(RoomServiceApplyPartialUpdateProcedure, connect.NewUnaryHandler(RoomServiceApplyPartialUpdateProcedure, svc.ApplyPartialUpdate, opts...))
	mux.Handle(RoomServiceAddTrackProcedure, connect.NewUnaryHandler(RoomServiceAddTrackProcedure, svc.AddTrack, opts...))
	mux.Handle(RoomServiceUpdateTrackGenreProcedure, connect.NewUnaryHandler(RoomServiceUpdateTrackGenreProcedure, svc.UpdateTrackGenre, opts...))
	mux.Handle(RoomServiceRemoveSuggestionProcedure, connect.NewUnaryHandler(RoomServiceRemoveSuggestionProcedure, svc.RemoveSuggestion, opts...))
	mux.Handle(RoomServiceClearSuggestionsProcedure, connect.NewUnaryHandler(RoomServiceClearSuggestionsProcedure, svc.ClearSuggestions, opts...))
	mux.Handle(RoomServiceUpvoteTrackProcedure, connect.NewUnaryHandler(RoomServiceUpvoteTrackProcedure, svc.UpvoteTrack, opts...))
	mux.Handle(RoomServiceVoteGenreProcedure, connect.NewUnaryHandler(RoomServiceVoteGenreProcedure, svc.VoteGenre, opts...))
	mux.Handle(RoomServiceVoteRtvProcedure, connect.NewUnaryHandler(RoomServiceVoteRtvProcedure, svc.VoteRtv, opts...))
	mux.Handle(RoomServiceLogoutProcedure, connect.NewUnaryHandler(RoomServiceLogoutProcedure, svc.Logout, opts...))
	mux.Handle(RoomServiceSkipProcedure, connect.NewUnaryHandler(RoomServiceSkipProcedure, svc.Skip, opts...))
	mux.Handle(RoomServiceMoveBucketProcedure, connect.NewUnaryHandler(RoomServiceMoveBucketProcedure, svc.MoveBucket, opts...))
	mux.Handle(RoomServiceRemoveTrackProcedure, connect.NewUnaryHandler(RoomServiceRemoveTrackProcedure, svc.RemoveTrack, opts...))
	mux.Handle(RoomServiceClearQueueProcedure, connect.NewUnaryHandler(RoomServiceClearQueueProcedure, svc.ClearQueue, opts...))
	mux.Handle(RoomServiceClearHistoryProcedure, connect.NewUnaryHandler(RoomServiceClearHistoryProcedure, svc.ClearHistory, opts...))
	mux.Handle(RoomServiceVerifyHostProcedure, connect.NewUnaryHandler(RoomServiceVerifyHostProcedure, svc.VerifyHost, opts...))
	mux.Handle(RoomServiceBeginLoginProcedure, connect.NewUnaryHandler(RoomServiceBeginLoginProcedure, svc.BeginLogin, opts...))
	mux.Handle(RoomServiceCloseRoomProcedure, connect.NewUnaryHandler(RoomServiceCloseRoomProcedure, svc.CloseRoom, opts...))
	mux.Handle(RoomServiceSubscribeRoomProcedure, connect.NewServerStreamHandler(RoomServiceSubscribeRoomProcedure, svc.SubscribeRoom, opts...))

	return "/" + RoomServiceName + "/", mux
}

// RoomServiceClient is a client for the room service.
type RoomServiceClient struct {
	joinRoom      *connect.Client[RoomRef, RoomState]
	addTrack      *connect.Client[AddTrackRequest, AddTrackResponse]
	upvoteTrack   *connect.Client[UpvoteTrackRequest, Empty]
	voteGenre     *connect.Client[VoteGenreRequest, Empty]
	voteRtv       *connect.Client[VoteRtvRequest, Empty]
	skip          *connect.Client[RoomRef, Empty]
	applyUpdate   *connect.Client[ApplyPartialUpdateRequest, Empty]
	subscribeRoom *connect.Client[RoomRef, RoomEvent]
}

// NewRoomServiceClient creates a client for the service at baseURL.
func NewRoomServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *RoomServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(Codec{})}, opts...)
	return &RoomServiceClient{
		joinRoom:      connect.NewClient[RoomRef, RoomState](httpClient, baseURL+RoomServiceJoinRoomProcedure, opts...),
		addTrack:      connect.NewClient[AddTrackRequest, AddTrackResponse](httpClient, baseURL+RoomServiceAddTrackProcedure, opts...),
		upvoteTrack:   connect.NewClient[UpvoteTrackRequest, Empty](httpClient, baseURL+RoomServiceUpvoteTrackProcedure, opts...),
		voteGenre:     connect.NewClient[VoteGenreRequest, Empty](httpClient, baseURL+RoomServiceVoteGenreProcedure, opts...),
		voteRtv:       connect.NewClient[VoteRtvRequest, Empty](httpClient, baseURL+RoomServiceVoteRtvProcedure, opts...),
		skip:          connect.NewClient[RoomRef, Empty](httpClient, baseURL+RoomServiceSkipProcedure, opts...),
		applyUpdate:   connect.NewClient[ApplyPartialUpdateRequest, Empty](httpClient, baseURL+RoomServiceApplyPartialUpdateProcedure, opts...),
		subscribeRoom: connect.NewClient[RoomRef, RoomEvent](httpClient, baseURL+RoomServiceSubscribeRoomProcedure, opts...),
	}
}

// JoinRoom calls jukebox.v1.RoomService.JoinRoom.
func (c *RoomServiceClient) JoinRoom(ctx context.Context, req *connect.Request[RoomRef]) (*connect.Response[RoomState], error) {
	return c.joinRoom.CallUnary(ctx, req)
}

// AddTrack calls jukebox.v1.RoomService.AddTrack.
func (c *RoomServiceClient) AddTrack(ctx context.Context, req *connect.Request[AddTrackRequest]) (*connect.Response[AddTrackResponse], error) {
	return c.addTrack.CallUnary(ctx, req)
}

// UpvoteTrack calls jukebox.v1.RoomService.UpvoteTrack.
func (c *RoomServiceClient) UpvoteTrack(ctx context.Context, req *connect.Request[UpvoteTrackRequest]) (*connect.Response[Empty], error) {
	return c.upvoteTrack.CallUnary(ctx, req)
}

// VoteGenre calls jukebox.v1.RoomService.VoteGenre.
func (c *RoomServiceClient) VoteGenre(ctx context.Context, req *connect.Request[VoteGenreRequest]) (*connect.Response[Empty], error) {
	return c.voteGenre.CallUnary(ctx, req)
}

// VoteRtv calls jukebox.v1.RoomService.VoteRtv.
func (c *RoomServiceClient) VoteRtv(ctx context.Context, req *connect.Request[VoteRtvRequest]) (*connect.Response[Empty], error) {
	return c.voteRtv.CallUnary(ctx, req)
}

// Skip calls jukebox.v1.RoomService.Skip.
func (c *RoomServiceClient) Skip(ctx context.Context, req *connect.Request[RoomRef]) (*connect.Response[Empty], error) {
	return c.skip.CallUnary(ctx, req)
}

// ApplyPartialUpdate calls jukebox.v1.RoomService.ApplyPartialUpdate.
func (c *RoomServiceClient) ApplyPartialUpdate(ctx context.Context, req *connect.Request[ApplyPartialUpdateRequest]) (*connect.Response[Empty], error) {
	return c.applyUpdate.CallUnary(ctx, req)
}

// SubscribeRoom calls jukebox.v1.RoomService.SubscribeRoom.
func (c *RoomServiceClient) SubscribeRoom(ctx context.Context, req *connect.Request[RoomRef]) (*connect.ServerStreamForClient[RoomEvent], error) {
	return c.subscribeRoom.CallServerStream(ctx, req)
}
