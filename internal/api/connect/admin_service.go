package connect

import (
	"context"

	"connectrpc.com/connect"

	jukeboxv1 "github.com/KuotenoAshiato/spotify-jukebox/internal/api/jukeboxv1"
	"github.com/KuotenoAshiato/spotify-jukebox/internal/app/session"
	"github.com/KuotenoAshiato/spotify-jukebox/internal/domain/knowledge"
)

// AdminService implements the AdminService RPC.
type AdminService struct {
	session *session.Manager
}

// NewAdminService creates a new AdminService.
func NewAdminService(session *session.Manager) *AdminService {
	return &AdminService{session: session}
}

// Ensure AdminService implements the interface.
var _ jukeboxv1.AdminServiceHandler = (*AdminService)(nil)

// GetData returns the global knowledge and the service stats.
func (s *AdminService) GetData(
	ctx context.Context,
	req *connect.Request[jukeboxv1.Empty],
) (*connect.Response[jukeboxv1.GetDataResponse], error) {
	data, stats := s.session.Data()
	return connect.NewResponse(&jukeboxv1.GetDataResponse{
		Data: data,
		Stats: jukeboxv1.Stats{
			ActiveRooms:    stats.ActiveRooms,
			TotalArtists:   stats.TotalArtists,
			TotalRawTags:   stats.TotalRawTags,
			ConflictsCount: stats.ConflictsCount,
		},
	}), nil
}

// ListRooms summarizes the live rooms.
func (s *AdminService) ListRooms(
	ctx context.Context,
	req *connect.Request[jukeboxv1.Empty],
) (*connect.Response[jukeboxv1.ListRoomsResponse], error) {
	summaries := s.session.ListRooms()
	rooms := make([]jukeboxv1.RoomSummary, 0, len(summaries))
	for _, r := range summaries {
		rooms = append(rooms, jukeboxv1.RoomSummary{
			RoomID:          r.RoomID,
			QueueLength:     r.QueueLength,
			SuggestionCount: r.SuggestionCount,
			CurrentGenre:    r.CurrentGenre,
			LoggedIn:        r.LoggedIn,
			LastActivity:    r.LastActivity,
		})
	}
	return connect.NewResponse(&jukeboxv1.ListRoomsResponse{Rooms: rooms}), nil
}

// ResolveConflict applies a decision to an artist conflict.
func (s *AdminService) ResolveConflict(
	ctx context.Context,
	req *connect.Request[jukeboxv1.ResolveConflictRequest],
) (*connect.Response[jukeboxv1.Empty], error) {
	err := s.session.ResolveConflict(session.ConflictInput{
		ArtistID:    req.Msg.ArtistID,
		Resolution:  knowledge.Resolution(req.Msg.Resolution),
		CustomGenre: req.Msg.CustomGenre,
	})
	return reply(jukeboxv1.AdminServiceResolveConflictProcedure, empty, err)
}

// SaveArtist stores an artist classification.
func (s *AdminService) SaveArtist(
	ctx context.Context,
	req *connect.Request[jukeboxv1.Artist],
) (*connect.Response[jukeboxv1.Empty], error) {
	err := s.session.SaveArtist(toArtistInput(*req.Msg))
	return reply(jukeboxv1.AdminServiceSaveArtistProcedure, empty, err)
}

// SaveArtistsBulk stores many artist classifications at once.
func (s *AdminService) SaveArtistsBulk(
	ctx context.Context,
	req *connect.Request[jukeboxv1.SaveArtistsBulkRequest],
) (*connect.Response[jukeboxv1.CountResponse], error) {
	in := make([]session.ArtistInput, 0, len(req.Msg.Artists))
	for _, a := range req.Msg.Artists {
		in = append(in, toArtistInput(a))
	}
	n, err := s.session.SaveArtistsBulk(in)
	return reply(jukeboxv1.AdminServiceSaveArtistsBulkProcedure, &jukeboxv1.CountResponse{Count: n}, err)
}

// DeleteArtist removes an artist.
func (s *AdminService) DeleteArtist(
	ctx context.Context,
	req *connect.Request[jukeboxv1.DeleteArtistRequest],
) (*connect.Response[jukeboxv1.Empty], error) {
	err := s.session.DeleteArtist(req.Msg.ArtistID)
	return reply(jukeboxv1.AdminServiceDeleteArtistProcedure, empty, err)
}

// SaveRawTag stores a raw-tag classification.
func (s *AdminService) SaveRawTag(
	ctx context.Context,
	req *connect.Request[jukeboxv1.RawTag],
) (*connect.Response[jukeboxv1.Empty], error) {
	err := s.session.SaveRawTag(session.RawTagInput{Tag: req.Msg.Tag, Genre: req.Msg.Genre})
	return reply(jukeboxv1.AdminServiceSaveRawTagProcedure, empty, err)
}

// DeleteRawTag removes a raw tag.
func (s *AdminService) DeleteRawTag(
	ctx context.Context,
	req *connect.Request[jukeboxv1.DeleteRawTagRequest],
) (*connect.Response[jukeboxv1.Empty], error) {
	err := s.session.DeleteRawTag(req.Msg.Tag)
	return reply(jukeboxv1.AdminServiceDeleteRawTagProcedure, empty, err)
}

// MergeRoom folds a live room's knowledge into the global store.
func (s *AdminService) MergeRoom(
	ctx context.Context,
	req *connect.Request[jukeboxv1.RoomRef],
) (*connect.Response[jukeboxv1.MergeResponse], error) {
	res, err := s.session.MergeRoom(req.Msg.RoomID)
	return reply(jukeboxv1.AdminServiceMergeRoomProcedure, &jukeboxv1.MergeResponse{Result: res}, err)
}

// ImportPlaylist lists a playlist's artists with their known genres.
func (s *AdminService) ImportPlaylist(
	ctx context.Context,
	req *connect.Request[jukeboxv1.ImportPlaylistRequest],
) (*connect.Response[jukeboxv1.ImportPlaylistResponse], error) {
	imp, err := s.session.ImportPlaylist(ctx, req.Msg.PlaylistURL)
	if err != nil {
		return nil, toConnectError(jukeboxv1.AdminServiceImportPlaylistProcedure, err)
	}
	return connect.NewResponse(&jukeboxv1.ImportPlaylistResponse{
		PlaylistID: imp.PlaylistID,
		TrackCount: imp.TrackCount,
		Artists:    imp.Artists,
	}), nil
}

// CloseRoom closes a room now.
func (s *AdminService) CloseRoom(
	ctx context.Context,
	req *connect.Request[jukeboxv1.RoomRef],
) (*connect.Response[jukeboxv1.MergeResponse], error) {
	res, err := s.session.CloseRoom(req.Msg.RoomID, session.CloseReasonAdmin)
	return reply(jukeboxv1.AdminServiceCloseRoomProcedure, &jukeboxv1.MergeResponse{Result: res}, err)
}

func toArtistInput(a jukeboxv1.Artist) session.ArtistInput {
	return session.ArtistInput{ArtistID: a.ArtistID, Genre: a.Genre, Name: a.Name}
}
