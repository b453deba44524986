package jukeboxv1

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
)

// AdminServiceName is the fully-qualified name of the AdminService service.
const AdminServiceName = "jukebox.v1.AdminService"

// Procedure names of the AdminService.
const (
	AdminServiceGetDataProcedure         = "/jukebox.v1.AdminService/GetData"
	AdminServiceListRoomsProcedure       = "/jukebox.v1.AdminService/ListRooms"
	AdminServiceResolveConflictProcedure = "/jukebox.v1.AdminService/ResolveConflict"
	AdminServiceSaveArtistProcedure      = "/jukebox.v1.AdminService/SaveArtist"
	AdminServiceSaveArtistsBulkProcedure = "/jukebox.v1.AdminService/SaveArtistsBulk"
	AdminServiceDeleteArtistProcedure    = "/jukebox.v1.AdminService/DeleteArtist"
	AdminServiceSaveRawTagProcedure      = "/jukebox.v1.AdminService/SaveRawTag"
	AdminServiceDeleteRawTagProcedure    = "/jukebox.v1.AdminService/DeleteRawTag"
	AdminServiceMergeRoomProcedure       = "/jukebox.v1.AdminService/MergeRoom"
	AdminServiceImportPlaylistProcedure  = "/jukebox.v1.AdminService/ImportPlaylist"
	AdminServiceCloseRoomProcedure       = "/jukebox.v1.AdminService/CloseRoom"
)

// AdminServiceHandler is implemented by the admin service.
type AdminServiceHandler interface {
	GetData(context.Context, *connect.Request[Empty]) (*connect.Response[GetDataResponse], error)
	ListRooms(context.Context, *connect.Request[Empty]) (*connect.Response[ListRoomsResponse], error)
	ResolveConflict(context.Context, *connect.Request[ResolveConflictRequest]) (*connect.Response[Empty], error)
	SaveArtist(context.Context, *connect.Request[Artist]) (*connect.Response[Empty], error)
	SaveArtistsBulk(context.Context, *connect.Request[SaveArtistsBulkRequest]) (*connect.Response[CountResponse], error)
	DeleteArtist(context.Context, *connect.Request[DeleteArtistRequest]) (*connect.Response[Empty], error)
	SaveRawTag(context.Context, *connect.Request[RawTag]) (*connect.Response[Empty], error)
	DeleteRawTag(context.Context, *connect.Request[DeleteRawTagRequest]) (*connect.Response[Empty], error)
	MergeRoom(context.Context, *connect.Request[RoomRef]) (*connect.Response[MergeResponse], error)
	ImportPlaylist(context.Context, *connect.Request[ImportPlaylistRequest]) (*connect.Response[ImportPlaylistResponse], error)
	CloseRoom(context.Context, *connect.Request[RoomRef]) (*connect.Response[MergeResponse], error)
}

// NewAdminServiceHandler builds an HTTP handler for the service and returns
// the path to mount it on.
func NewAdminServiceHandler(svc AdminServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(Codec{})}, opts...)

	mux := http.NewServeMux()
	mux.Handle(AdminServiceGetDataProcedure, connect.NewUnaryHandler(AdminServiceGetDataProcedure, svc.GetData, opts...))
	mux.Handle(AdminServiceListRoomsProcedure, connect.NewUnaryHandler(AdminServiceListRoomsProcedure, svc.ListRooms, opts...))
	mux.Handle(AdminServiceResolveConflictProcedure, connect.NewUnaryHandler(AdminServiceResolveConflictProcedure, svc.ResolveConflict, opts...))
	mux.Handle(AdminServiceSaveArtistProcedure, connect.NewUnaryHandler(AdminServiceSaveArtistProcedure, svc.SaveArtist, opts...))
	mux.Handle(AdminServiceSaveArtistsBulkProcedure, connect.NewUnaryHandler(AdminServiceSaveArtistsBulkProcedure, svc.SaveArtistsBulk, opts...))
	mux.Handle(AdminServiceDeleteArtistProcedure, connect.NewUnaryHandler(AdminServiceDeleteArtistProcedure, svc.DeleteArtist, opts...))
	mux.Handle(AdminServiceSaveRawTagProcedure, connect.NewUnaryHandler(AdminServiceSaveRawTagProcedure, svc.SaveRawTag, opts...))
	mux.Handle(AdminServiceDeleteRawTagProcedure, connect.NewUnaryHandler(AdminServiceDeleteRawTagProcedure, svc.DeleteRawTag, opts...))
	mux.Handle(AdminServiceMergeRoomProcedure, connect.NewUnaryHandler(AdminServiceMergeRoomProcedure, svc.MergeRoom, opts...))
	mux.Handle(AdminServiceImportPlaylistProcedure, connect.NewUnaryHandler(AdminServiceImportPlaylistProcedure, svc.ImportPlaylist, opts...))
	mux.Handle(AdminServiceCloseRoomProcedure, connect.NewUnaryHandler(AdminServiceCloseRoomProcedure, svc.CloseRoom, opts...))

	return "/" + AdminServiceName + "/", mux
}

// AdminServiceClient is a client for the admin service.
type AdminServiceClient struct {
	getData         *connect.Client[Empty, GetDataResponse]
	listRooms       *connect.Client[Empty, ListRoomsResponse]
	resolveConflict *connect.Client[ResolveConflictRequest, Empty]
	saveArtist      *connect.Client[Artist, Empty]
	saveArtistsBulk *connect.Client[SaveArtistsBulkRequest, CountResponse]
	deleteArtist    *connect.Client[DeleteArtistRequest, Empty]
	saveRawTag      *connect.Client[RawTag, Empty]
	deleteRawTag    *connect.Client[DeleteRawTagRequest, Empty]
	mergeRoom       *connect.Client[RoomRef, MergeResponse]
	importPlaylist  *connect.Client[ImportPlaylistRequest, ImportPlaylistResponse]
	closeRoom       *connect.Client[RoomRef, MergeResponse]
}

// NewAdminServiceClient creates a client for the service at baseURL.
func NewAdminServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *AdminServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(Codec{})}, opts...)
	return &AdminServiceClient{
		getData:         connect.NewClient[Empty, GetDataResponse](httpClient, baseURL+AdminServiceGetDataProcedure, opts...),
		listRooms:       connect.NewClient[Empty, ListRoomsResponse](httpClient, baseURL+AdminServiceListRoomsProcedure, opts...),
		resolveConflict: connect.NewClient[ResolveConflictRequest, Empty](httpClient, baseURL+AdminServiceResolveConflictProcedure, opts...),
		saveArtist:      connect.NewClient[Artist, Empty](httpClient, baseURL+AdminServiceSaveArtistProcedure, opts...),
		saveArtistsBulk: connect.NewClient[SaveArtistsBulkRequest, CountResponse](httpClient, baseURL+AdminServiceSaveArtistsBulkProcedure, opts...),
		deleteArtist:    connect.NewClient[DeleteArtistRequest, Empty](httpClient, baseURL+AdminServiceDeleteArtistProcedure, opts...),
		saveRawTag:      connect.NewClient[RawTag, Empty](httpClient, baseURL+AdminServiceSaveRawTagProcedure, opts...),
		deleteRawTag:    connect.NewClient[DeleteRawTagRequest, Empty](httpClient, baseURL+AdminServiceDeleteRawTagProcedure, opts...),
		mergeRoom:       connect.NewClient[RoomRef, MergeResponse](httpClient, baseURL+AdminServiceMergeRoomProcedure, opts...),
		importPlaylist:  connect.NewClient[ImportPlaylistRequest, ImportPlaylistResponse](httpClient, baseURL+AdminServiceImportPlaylistProcedure, opts...),
		closeRoom:       connect.NewClient[RoomRef, MergeResponse](httpClient, baseURL+AdminServiceCloseRoomProcedure, opts...),
	}
}

// GetData calls jukebox.v1.AdminService.GetData.
func (c *AdminServiceClient) GetData(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[GetDataResponse], error) {
	return c.getData.CallUnary(ctx, req)
}

// ListRooms calls jukebox.v1.AdminService.ListRooms.
func (c *AdminServiceClient) ListRooms(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[ListRoomsResponse], error) {
	return c.listRooms.CallUnary(ctx, req)
}

// ResolveConflict calls jukebox.v1.AdminService.ResolveConflict.
func (c *AdminServiceClient) ResolveConflict(ctx context.Context, req *connect.Request[ResolveConflictRequest]) (*connect.Response[Empty], error) {
	return c.resolveConflict.CallUnary(ctx, req)
}

// SaveArtist calls jukebox.v1.AdminService.SaveArtist.
func (c *AdminServiceClient) SaveArtist(ctx context.Context, req *connect.Request[Artist]) (*connect.Response[Empty], error) {
	return c.saveArtist.CallUnary(ctx, req)
}

// SaveArtistsBulk calls jukebox.v1.AdminService.SaveArtistsBulk.
func (c *AdminServiceClient) SaveArtistsBulk(ctx context.Context, req *connect.Request[SaveArtistsBulkRequest]) (*connect.Response[CountResponse], error) {
	return c.saveArtistsBulk.CallUnary(ctx, req)
}

// DeleteArtist calls jukebox.v1.AdminService.DeleteArtist.
func (c *AdminServiceClient) DeleteArtist(ctx context.Context, req *connect.Request[DeleteArtistRequest]) (*connect.Response[Empty], error) {
	return c.deleteArtist.CallUnary(ctx, req)
}

// SaveRawTag calls jukebox.v1.AdminService.SaveRawTag.
func (c *AdminServiceClient) SaveRawTag(ctx context.Context, req *connect.Request[RawTag]) (*connect.Response[Empty], error) {
	return c.saveRawTag.CallUnary(ctx, req)
}

// DeleteRawTag calls jukebox.v1.AdminService.DeleteRawTag.
func (c *AdminServiceClient) DeleteRawTag(ctx context.Context, req *connect.Request[DeleteRawTagRequest]) (*connect.Response[Empty], error) {
	return c.deleteRawTag.CallUnary(ctx, req)
}

// MergeRoom calls jukebox.v1.AdminService.MergeRoom.
func (c *AdminServiceClient) MergeRoom(ctx context.Context, req *connect.Request[RoomRef]) (*connect.Response[MergeResponse], error) {
	return c.mergeRoom.CallUnary(ctx, req)
}

// ImportPlaylist calls jukebox.v1.AdminService.ImportPlaylist.
func (c *AdminServiceClient) ImportPlaylist(ctx context.Context, req *connect.Request[ImportPlaylistRequest]) (*connect.Response[ImportPlaylistResponse], error) {
	return c.importPlaylist.CallUnary(ctx, req)
}

// CloseRoom calls jukebox.v1.AdminService.CloseRoom.
func (c *AdminServiceClient) CloseRoom(ctx context.Context, req *connect.Request[RoomRef]) (*connect.Response[MergeResponse], error) {
	return c.closeRoom.CallUnary(ctx, req)
}
