package jukeboxv1

import (
	"time"

	"github.com/KuotenoAshiato/spotify-jukebox/internal/domain/knowledge"
	"github.com/KuotenoAshiato/spotify-jukebox/internal/domain/playlist"
	"github.com/KuotenoAshiato/spotify-jukebox/internal/domain/room"
	"github.com/KuotenoAshiato/spotify-jukebox/internal/domain/track"
)

// Empty is a message without fields.
type Empty struct{}

// RoomRef names a room.
type RoomRef struct {
	RoomID string `json:"roomId"`
}

// RoomState carries a sanitized room state.
type RoomState struct {
	State room.State `json:"state"`
}

type ApplyPartialUpdateRequest struct {
	RoomID string         `json:"roomId"`
	Fields map[string]any `json:"fields"`
}

type AddTrackRequest struct {
	RoomID string           `json:"roomId"`
	Track  track.Descriptor `json:"track"`
}

// AddTrackResponse reports the queued entry. Added is false when the room
// closed before the track could be queued.
type AddTrackResponse struct {
	Added bool         `json:"added"`
	Track *track.Track `json:"track,omitempty"`
}

type UpdateTrackGenreRequest struct {
	RoomID     string   `json:"roomId"`
	ArtistID   string   `json:"artistId"`
	ArtistName string   `json:"artistName"`
	NewGenre   string   `json:"newGenre"`
	RawGenres  []string `json:"rawGenres"`
}

type RemoveSuggestionRequest struct {
	RoomID   string `json:"roomId"`
	ArtistID string `json:"artistId"`
}

type UpvoteTrackRequest struct {
	RoomID   string `json:"roomId"`
	UniqueID string `json:"uniqueId"`
	DeviceID string `json:"deviceId"`
}

type VoteGenreRequest struct {
	RoomID   string `json:"roomId"`
	Genre    string `json:"genre"`
	DeviceID string `json:"deviceId"`
}

type VoteRtvRequest struct {
	RoomID   string `json:"roomId"`
	DeviceID string `json:"deviceId"`
}

type MoveBucketRequest struct {
	RoomID      string `json:"roomId"`
	TargetIndex int    `json:"targetIndex"`
}

type RemoveTrackRequest struct {
	RoomID   string `json:"roomId"`
	UniqueID string `json:"uniqueId"`
}

// HostRequest names a room and proves the caller is its host.
type HostRequest struct {
	RoomID           string `json:"roomId"`
	HostPasswordHash string `json:"hostPasswordHash"`
}

type VerifyHostResponse struct {
	Verified bool `json:"verified"`
}

type BeginLoginResponse struct {
	AuthURL string `json:"authUrl"`
}

// RoomEvent is one server-streamed room event.
type RoomEvent struct {
	Type       string      `json:"type"` // state_updated or room_closed
	RoomID     string      `json:"roomId"`
	SequenceNo uint64      `json:"sequenceNo"`
	State      *room.State `json:"state,omitempty"`
	Reason     string      `json:"reason,omitempty"`
}

// Stats summarizes the service.
type Stats struct {
	ActiveRooms    int `json:"activeRooms"`
	TotalArtists   int `json:"totalArtists"`
	TotalRawTags   int `json:"totalRawTags"`
	ConflictsCount int `json:"conflictsCount"`
}

type GetDataResponse struct {
	Data  knowledge.Global `json:"data"`
	Stats Stats            `json:"stats"`
}

// RoomSummary describes a live room.
type RoomSummary struct {
	RoomID          string    `json:"roomId"`
	QueueLength     int       `json:"queueLength"`
	SuggestionCount int       `json:"suggestionCount"`
	CurrentGenre    string    `json:"currentPlayingGenre"`
	LoggedIn        bool      `json:"loggedIn"`
	LastActivity    time.Time `json:"lastActivity"`
}

type ListRoomsResponse struct {
	Rooms []RoomSummary `json:"rooms"`
}

type ResolveConflictRequest struct {
	ArtistID    string `json:"artistId"`
	Resolution  string `json:"resolution"` // keep_global, accept_new or custom
	CustomGenre string `json:"customGenre,omitempty"`
}

// Artist is an artist classification.
type Artist struct {
	ArtistID string `json:"artistId"`
	Genre    string `json:"genre"`
	Name     string `json:"name,omitempty"`
}

type SaveArtistsBulkRequest struct {
	Artists []Artist `json:"artists"`
}

type CountResponse struct {
	Count int `json:"count"`
}

type DeleteArtistRequest struct {
	ArtistID string `json:"artistId"`
}

// RawTag is a raw-tag classification.
type RawTag struct {
	Tag   string `json:"tag"`
	Genre string `json:"genre"`
}

type DeleteRawTagRequest struct {
	Tag string `json:"tag"`
}

type MergeResponse struct {
	Result knowledge.MergeResult `json:"result"`
}

type ImportPlaylistRequest struct {
	PlaylistURL string `json:"playlistUrl"`
}

type ImportPlaylistResponse struct {
	PlaylistID string                   `json:"playlistId"`
	TrackCount int                      `json:"trackCount"`
	Artists    []playlist.ArtistSummary `json:"artists"`
}
