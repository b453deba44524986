package session

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	zlog "github.com/rs/zerolog/log"

	"github.com/KuotenoAshiato/spotify-jukebox/internal/app/session/state"
	"github.com/KuotenoAshiato/spotify-jukebox/internal/domain/knowledge"
	"github.com/KuotenoAshiato/spotify-jukebox/internal/domain/playlist"
	"github.com/KuotenoAshiato/spotify-jukebox/internal/domain/room"
)

var validate = validator.New()

// Stats summarizes the service for administrators.
type Stats struct {
	ActiveRooms int `json:"activeRooms"`
	state.Stats
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

// ArtistInput is an administrative artist classification.
type ArtistInput struct {
	ArtistID string `json:"artistId" validate:"required"`
	Genre    string `json:"genre" validate:"required"`
	Name     string `json:"name"`
}

// RawTagInput is an administrative raw-tag classification.
type RawTagInput struct {
	Tag   string `json:"tag" validate:"required"`
	Genre string `json:"genre" validate:"required"`
}

// ConflictInput is an administrative conflict decision.
type ConflictInput struct {
	ArtistID    string               `json:"artistId" validate:"required"`
	Resolution  knowledge.Resolution `json:"resolution" validate:"required,oneof=keep_global accept_new custom"`
	CustomGenre string               `json:"customGenre" validate:"required_if=Resolution custom"`
}

// PlaylistImport is the artist breakdown of a playlist.
type PlaylistImport struct {
	PlaylistID string                   `json:"playlistId"`
	TrackCount int                      `json:"trackCount"`
	Artists    []playlist.ArtistSummary `json:"artists"`
}

// Data returns a copy of the global knowledge and the service stats.
func (m *Manager) Data() (knowledge.Global, Stats) {
	return m.global.Snapshot(), m.Stats()
}

// Stats returns the service stats.
func (m *Manager) Stats() Stats {
	return Stats{
		ActiveRooms: m.rooms.Count(),
		Stats:       m.global.Stats(),
	}
}

// ListRooms summarizes every live room in room-id order.
func (m *Manager) ListRooms() []RoomSummary {
	entries := m.rooms.All()
	summaries := make([]RoomSummary, 0, len(entries))
	for _, e := range entries {
		e.Read(func(r *room.Room) {
			summaries = append(summaries, RoomSummary{
				RoomID:          r.ID,
				QueueLength:     len(r.Queue),
				SuggestionCount: len(r.Suggestions),
				CurrentGenre:    r.CurrentPlayingGenre,
				LoggedIn:        r.Credentials.RefreshToken != "",
				LastActivity:    r.LastActivity,
			})
		})
	}
	return summaries
}

// ResolveConflict applies an administrative decision to an artist conflict.
func (m *Manager) ResolveConflict(in ConflictInput) error {
	if err := validate.Struct(in); err != nil {
		return invalidInput(err)
	}
	return m.updateGlobal("resolve_conflict", func(g *knowledge.Global) error {
		return g.ResolveConflict(in.ArtistID, in.Resolution, in.CustomGenre)
	})
}

// SaveArtist stores an artist classification.
func (m *Manager) SaveArtist(in ArtistInput) error {
	if err := validate.Struct(in); err != nil {
		return invalidInput(err)
	}
	return m.updateGlobal("save_artist", func(g *knowledge.Global) error {
		g.SetArtist(in.ArtistID, in.Genre, in.Name)
		return nil
	})
}

// SaveArtistsBulk stores many artist classifications. Nothing is stored if
// any entry is invalid.
func (m *Manager) SaveArtistsBulk(in []ArtistInput) (int, error) {
	if len(in) == 0 {
		return 0, invalidInput(errors.New("no artists given"))
	}
	for i, a := range in {
		if err := validate.Struct(a); err != nil {
			return 0, invalidInput(errors.Wrapf(err, "artist %d", i))
		}
	}
	err := m.updateGlobal("save_artists_bulk", func(g *knowledge.Global) error {
		for _, a := range in {
			g.SetArtist(a.ArtistID, a.Genre, a.Name)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(in), nil
}

// DeleteArtist removes an artist. Unknown artists are ignored.
func (m *Manager) DeleteArtist(artistID string) error {
	if artistID == "" {
		return invalidInput(errors.New("artist id is required"))
	}
	return m.updateGlobal("delete_artist", func(g *knowledge.Global) error {
		g.DeleteArtist(artistID)
		return nil
	})
}

// SaveRawTag stores a raw-tag classification.
func (m *Manager) SaveRawTag(in RawTagInput) error {
	if err := validate.Struct(in); err != nil {
		return invalidInput(err)
	}
	return m.updateGlobal("save_raw_tag", func(g *knowledge.Global) error {
		g.SetRawTag(in.Tag, in.Genre)
		return nil
	})
}

// DeleteRawTag removes a raw tag. Unknown tags are ignored.
func (m *Manager) DeleteRawTag(tag string) error {
	if tag == "" {
		return invalidInput(errors.New("tag is required"))
	}
	return m.updateGlobal("delete_raw_tag", func(g *knowledge.Global) error {
		g.DeleteRawTag(tag)
		return nil
	})
}

// MergeRoom folds a live room's knowledge into the global store without
// closing the room.
func (m *Manager) MergeRoom(roomID string) (knowledge.MergeResult, error) {
	if roomID == "" {
		return knowledge.MergeResult{}, invalidInput(errors.New("room id is required"))
	}
	e, err := m.rooms.Get(roomID)
	if err != nil {
		return knowledge.MergeResult{}, err
	}

	var local knowledge.Knowledge
	if !e.Read(func(r *room.Room) { local = r.Knowledge.Clone() }) {
		return knowledge.MergeResult{}, errors.Wrapf(ErrRoomNotFound, "room %s", roomID)
	}

	var res knowledge.MergeResult
	err = m.updateGlobal("merge_room", func(g *knowledge.Global) error {
		res = g.Merge(local, roomID)
		return nil
	})
	return res, err
}

// ImportPlaylist lists a playlist's artists with their known global genre,
// unknown artists first.
func (m *Manager) ImportPlaylist(ctx context.Context, playlistURL string) (*PlaylistImport, error) {
	if playlistURL == "" {
		return nil, invalidInput(errors.New("playlist url is required"))
	}
	if m.spotify == nil {
		return nil, ErrLoginUnavailable
	}

	p, err := m.spotify.GetPlaylist(ctx, playlistURL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load playlist")
	}

	artists := p.ArtistSummaries(func(artistID string) string {
		genre, _ := m.global.ArtistGenre(artistID)
		return genre
	})
	zlog.Info().Msgf("playlist imported: playlist_id=%s tracks=%d artists=%d", p.ID, p.TrackCount(), len(artists))
	return &PlaylistImport{
		PlaylistID: p.ID,
		TrackCount: p.TrackCount(),
		Artists:    artists,
	}, nil
}

// updateGlobal mutates the global store and queues a save.
func (m *Manager) updateGlobal(op string, fn func(g *knowledge.Global) error) error {
	if _, err := m.global.Update(fn); err != nil {
		return err
	}
	zlog.Debug().Msgf("global knowledge updated: op=%s", op)
	m.persister.markGlobal()
	return nil
}
