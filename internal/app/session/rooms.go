package session

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/KuotenoAshiato/spotify-jukebox/internal/app/classifier"
	"github.com/KuotenoAshiato/spotify-jukebox/internal/app/filter"
	"github.com/KuotenoAshiato/spotify-jukebox/internal/app/notification"
	"github.com/KuotenoAshiato/spotify-jukebox/internal/app/session/registry"
	"github.com/KuotenoAshiato/spotify-jukebox/internal/domain/room"
	"github.com/KuotenoAshiato/spotify-jukebox/internal/domain/track"
)

// maxJoinAttempts bounds retries when a join races with the room's eviction.
const maxJoinAttempts = 3

// JoinRoom returns the room's sanitized state, creating the room if absent.
func (m *Manager) JoinRoom(roomID string) (room.State, error) {
	var st room.State
	err := m.withLiveRoom(roomID, func(r *room.Room) {
		st = r.Sanitize()
	})
	return st, err
}

// Subscribe joins the room and registers stream for its events. The first
// event delivered is the current state.
func (m *Manager) Subscribe(roomID string, stream notification.Stream) (string, error) {
	var id string
	err := m.withLiveRoom(roomID, func(r *room.Room) {
		id = m.notification.SubscribeWithState(roomID, stream, r.Sanitize())
	})
	return id, err
}

// Unsubscribe removes a subscription created by Subscribe.
func (m *Manager) Unsubscribe(subscriptionID string) {
	m.notification.Unsubscribe(subscriptionID)
}

// withLiveRoom runs fn on the room under its lock, creating the room first if
// needed, and refreshes its activity.
func (m *Manager) withLiveRoom(roomID string, fn func(r *room.Room)) error {
	if roomID == "" {
		return invalidInput(errors.New("room id is required"))
	}

	for attempt := 0; attempt < maxJoinAttempts; attempt++ {
		e, created := m.rooms.GetOrCreate(roomID, func() *room.Room {
			return room.New(roomID, m.now(), m.config.Rooms.DefaultRTVThreshold)
		})
		if created {
			zlog.Info().Str("room_id", roomID).Msg("room created")
			m.persister.markRoom(roomID)
		}

		err := e.Mutate(func(r *room.Room) error {
			r.Touch(m.now())
			fn(r)
			return nil
		})
		if !errors.Is(err, registry.ErrRoomClosed) {
			return err
		}
		// Closed between lookup and lock: drop it and create a fresh room.
		m.rooms.Remove(e)
	}
	return errors.Newf("room %s kept closing while joining", roomID)
}

// ApplyPartialUpdate merges named fields into the room. A threshold change
// runs the rock-the-vote check in the same mutation.
func (m *Manager) ApplyPartialUpdate(roomID string, fields map[string]any) error {
	patch, err := room.DecodePatch(fields)
	if err != nil {
		return invalidInput(err)
	}

	err = m.mutate(roomID, "apply_partial_update", func(r *room.Room) error {
		fired, err := r.ApplyPatch(patch)
		if err != nil {
			return invalidInput(err)
		}
		if fired {
			zlog.Info().Str("room_id", roomID).Msgf("genre change fired by threshold update: genre=%s", r.CurrentPlayingGenre)
		}
		return nil
	})
	return ignoreNotFound(roomID, "apply_partial_update", err)
}

// AddTrack classifies and queues a track. Classification runs without the
// room lock; the result is applied only if the room still exists. A nil
// track with a nil error means the room was gone.
func (m *Manager) AddTrack(ctx context.Context, roomID string, desc track.Descriptor) (*track.Track, error) {
	e, err := m.rooms.Get(roomID)
	if err != nil {
		return nil, ignoreNotFound(roomID, "add_track", err)
	}

	var credential string
	if !e.Read(func(r *room.Room) { credential = r.Credentials.AccessToken }) {
		return nil, nil
	}

	result := m.classifier.Classify(ctx, classifier.Request{
		ArtistID:   desc.ArtistID,
		ArtistName: desc.Artist,
		Credential: credential,
		Local:      entrySource{e},
		Siblings:   m.siblingSources(roomID),
		Global:     m.global,
	})

	var added track.Track
	err = m.mutateEntry(e, "add_track", true, func(r *room.Room) error {
		final := result
		// The host may have confirmed the artist while tags were fetched.
		if local, ok := classifier.ResolveLocal(r.Knowledge, desc.ArtistID, result.RawTags); ok {
			final = local
		}

		verdict := m.filterChain.Execute(ctx, filter.Request{
			RoomID:     roomID,
			Descriptor: desc,
			Queue:      r.Queue,
		})
		if !verdict.Accepted {
			return errors.Mark(
				errors.Newf("track %s rejected by %s: %s", desc.URI, verdict.Filter, verdict.Code),
				ErrTrackRejected)
		}

		added = track.New(desc, final.Genre)
		r.Insert(added)
		if final.Provisional && desc.ArtistID != "" {
			r.AddSuggestion(room.Suggestion{
				TrackID:        desc.URI,
				ArtistID:       desc.ArtistID,
				Name:           desc.Name,
				Artist:         desc.Artist,
				SuggestedGenre: final.Genre,
				RawGenres:      final.RawTags,
			})
		}
		zlog.Debug().Str("room_id", roomID).Msgf("track added: name=%s genre=%s origin=%s from_room=%s",
			desc.Name, final.Genre, final.Origin, final.FromRoom)
		return nil
	})
	if errors.Is(err, ErrRoomNotFound) {
		zlog.Debug().Str("room_id", roomID).Msg("discarding classification for closed room")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &added, nil
}

// UpvoteTrack records a device's upvote. Repeated votes are ignored.
func (m *Manager) UpvoteTrack(roomID, uniqueID, deviceID string) error {
	err := m.mutate(roomID, "upvote_track", func(r *room.Room) error {
		r.Upvote(uniqueID, deviceID)
		return nil
	})
	return ignoreNotFound(roomID, "upvote_track", err)
}

// VoteGenre moves a device's genre vote and re-sorts the queue.
func (m *Manager) VoteGenre(roomID, genre, deviceID string) error {
	err := m.mutate(roomID, "vote_genre", func(r *room.Room) error {
		r.RecordGenreVote(genre, deviceID)
		return nil
	})
	return ignoreNotFound(roomID, "vote_genre", err)
}

// VoteRtv records a rock-the-vote vote.
func (m *Manager) VoteRtv(roomID, deviceID string) error {
	err := m.mutate(roomID, "vote_rtv", func(r *room.Room) error {
		if r.RecordRtvVote(deviceID) {
			zlog.Info().Str("room_id", roomID).Msgf("rock the vote fired: genre=%s", r.CurrentPlayingGenre)
		}
		return nil
	})
	return ignoreNotFound(roomID, "vote_rtv", err)
}

// UpdateTrackGenre confirms a genre for an artist in the room. A display
// name containing a comma is a joined artist list and gets corrected.
func (m *Manager) UpdateTrackGenre(ctx context.Context, roomID, artistID, newGenre string, rawTags []string, artistName string) error {
	if artistID == "" || newGenre == "" {
		return invalidInput(errors.New("artist id and genre are required"))
	}

	spotifyName := ""
	if strings.Contains(artistName, ",") {
		spotifyName = m.lookupArtistName(ctx, roomID, artistID)
	}

	err := m.mutate(roomID, "update_track_genre", func(r *room.Room) error {
		name := artistName
		if strings.Contains(name, ",") {
			name = m.correctArtistName(r, artistID, spotifyName)
		}
		r.ReassignGenre(artistID, newGenre, rawTags, name)
		return nil
	})
	return ignoreNotFound(roomID, "update_track_genre", err)
}

// lookupArtistName asks Spotify for the artist's name with the room token.
func (m *Manager) lookupArtistName(ctx context.Context, roomID, artistID string) string {
	if m.spotify == nil {
		return ""
	}
	e, err := m.rooms.Get(roomID)
	if err != nil {
		return ""
	}
	var token string
	e.Read(func(r *room.Room) { token = r.Credentials.AccessToken })
	if token == "" {
		return ""
	}
	name, err := m.spotify.ArtistName(ctx, token, artistID)
	if err != nil {
		zlog.Warn().Str("room_id", roomID).Msgf("failed to look up artist name: artist_id=%s error=%v", artistID, err)
		return ""
	}
	return name
}

// correctArtistName prefers the Spotify name, then a comma-free name of a
// queued track by the artist, then a comma-free global name.
func (m *Manager) correctArtistName(r *room.Room, artistID, spotifyName string) string {
	if spotifyName != "" {
		return spotifyName
	}
	for _, t := range r.Queue {
		if t.ArtistID == artistID && t.Artist != "" && !strings.Contains(t.Artist, ",") {
			return t.Artist
		}
	}
	if name := m.global.ArtistName(artistID); name != "" && !strings.Contains(name, ",") {
		return name
	}
	return ""
}

// RemoveSuggestion drops the artist's pending suggestion.
func (m *Manager) RemoveSuggestion(roomID, artistID string) error {
	err := m.mutate(roomID, "remove_suggestion", func(r *room.Room) error {
		r.RemoveSuggestion(artistID)
		return nil
	})
	return ignoreNotFound(roomID, "remove_suggestion", err)
}

// ClearSuggestions drops all pending suggestions.
func (m *Manager) ClearSuggestions(roomID string) error {
	err := m.mutate(roomID, "clear_suggestions", func(r *room.Room) error {
		r.ClearSuggestions()
		return nil
	})
	return ignoreNotFound(roomID, "clear_suggestions", err)
}

// Logout clears the room's Spotify credentials.
func (m *Manager) Logout(roomID string) error {
	err := m.mutate(roomID, "logout", func(r *room.Room) error {
		r.Logout()
		return nil
	})
	return ignoreNotFound(roomID, "logout", err)
}

// siblingSources returns every other live room as a classifier source, in
// room-id order.
func (m *Manager) siblingSources(roomID string) []classifier.Sibling {
	entries := m.rooms.Siblings(roomID)
	siblings := make([]classifier.Sibling, 0, len(entries))
	for _, e := range entries {
		siblings = append(siblings, classifier.Sibling{RoomID: e.ID(), Source: entrySource{e}})
	}
	return siblings
}

// entrySource reads a room's knowledge under that room's lock, one lookup at
// a time. Closed rooms know nothing.
type entrySource struct {
	e *registry.Entry
}

func (s entrySource) ArtistGenre(artistID string) (genre string, ok bool) {
	s.e.Read(func(r *room.Room) {
		genre, ok = r.Knowledge.ArtistGenre(artistID)
	})
	return genre, ok
}

func (s entrySource) TagGenre(rawTags []string) (genre string, ok bool) {
	s.e.Read(func(r *room.Room) {
		genre, ok = r.Knowledge.TagGenre(rawTags)
	})
	return genre, ok
}
