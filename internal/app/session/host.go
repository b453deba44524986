package session

import (
	"context"
	"crypto/subtle"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/KuotenoAshiato/spotify-jukebox/internal/app/session/registry"
	"github.com/KuotenoAshiato/spotify-jukebox/internal/domain/knowledge"
	"github.com/KuotenoAshiato/spotify-jukebox/internal/domain/room"
)

// Reasons sent with a room-closed notice.
const (
	CloseReasonHost  = "closed_by_host"
	CloseReasonAdmin = "closed_by_admin"
	CloseReasonIdle  = "idle_timeout"
)

// Skip plays the next track: the head moves to the history.
func (m *Manager) Skip(roomID string) error {
	err := m.mutate(roomID, "skip", func(r *room.Room) error {
		if head, ok := r.DequeueHead(); ok {
			zlog.Debug().Str("room_id", roomID).Msgf("skipped: name=%s next_genre=%s", head.Name, r.CurrentPlayingGenre)
		}
		return nil
	})
	return ignoreNotFound(roomID, "skip", err)
}

// MoveBucket swaps the genre bucket at targetIndex with the bucket above it.
func (m *Manager) MoveBucket(roomID string, targetIndex int) error {
	err := m.mutate(roomID, "move_bucket", func(r *room.Room) error {
		r.MoveBucketAbove(targetIndex)
		return nil
	})
	return ignoreNotFound(roomID, "move_bucket", err)
}

// RemoveTrack removes a queued entry by unique ID or URI.
func (m *Manager) RemoveTrack(roomID, ref string) error {
	err := m.mutate(roomID, "remove_track", func(r *room.Room) error {
		r.RemoveTrack(ref)
		return nil
	})
	return ignoreNotFound(roomID, "remove_track", err)
}

// ClearQueue empties the queue.
func (m *Manager) ClearQueue(roomID string) error {
	err := m.mutate(roomID, "clear_queue", func(r *room.Room) error {
		r.ClearQueue()
		return nil
	})
	return ignoreNotFound(roomID, "clear_queue", err)
}

// ClearHistory empties the history.
func (m *Manager) ClearHistory(roomID string) error {
	err := m.mutate(roomID, "clear_history", func(r *room.Room) error {
		r.ClearHistory()
		return nil
	})
	return ignoreNotFound(roomID, "clear_history", err)
}

// VerifyHost checks a host secret hash. A room without a secret accepts
// anyone.
func (m *Manager) VerifyHost(roomID, hash string) (bool, error) {
	e, err := m.rooms.Get(roomID)
	if err != nil {
		return false, err
	}
	var ok bool
	if !e.Read(func(r *room.Room) {
		ok = r.HostSecretHash == "" ||
			subtle.ConstantTimeCompare([]byte(r.HostSecretHash), []byte(hash)) == 1
	}) {
		return false, errors.Wrapf(ErrRoomNotFound, "room %s", roomID)
	}
	return ok, nil
}

// CloseRoom evicts the room now: its knowledge is merged into the global
// store and subscribers are told it closed.
func (m *Manager) CloseRoom(roomID, reason string) (knowledge.MergeResult, error) {
	e, err := m.rooms.Get(roomID)
	if err != nil {
		return knowledge.MergeResult{}, err
	}
	res, ok := m.closeEntry(e, reason, nil)
	if !ok {
		return knowledge.MergeResult{}, errors.Wrapf(ErrRoomNotFound, "room %s", roomID)
	}
	return res, nil
}

// closeEntry merges and closes the room if cond (nil means always) holds
// under the room lock. Lock order is room then global.
func (m *Manager) closeEntry(e *registry.Entry, reason string, cond func(r *room.Room) bool) (knowledge.MergeResult, bool) {
	var res knowledge.MergeResult
	closed := e.Close(func(r *room.Room) bool {
		if cond != nil && !cond(r) {
			return false
		}
		if _, err := m.global.Update(func(g *knowledge.Global) error {
			res = g.Merge(r.Knowledge, r.ID)
			return nil
		}); err != nil {
			zlog.Error().Str("room_id", r.ID).Msgf("failed to merge room knowledge: %v", err)
		}
		m.notification.NotifyRoomClosed(r.ID, reason)
		// Queued before the entry reads as closed, so a join that replaces
		// it marks the new room dirty after this.
		m.persister.markDeleted(r.ID)
		return true
	})
	if !closed {
		return res, false
	}

	m.rooms.Remove(e)
	m.persister.markGlobal()
	zlog.Info().Str("room_id", e.ID()).Msgf("room closed: reason=%s added=%d conflicts=%d tags_added=%d",
		reason, res.Added, res.Conflicts, res.TagsAdded)
	return res, true
}

// BeginLogin starts a PKCE login for the room and returns the authorization
// URL. The room ID is the OAuth state.
func (m *Manager) BeginLogin(roomID string) (string, error) {
	if m.spotify == nil {
		return "", ErrLoginUnavailable
	}
	var authURL string
	err := m.withLiveRoom(roomID, func(r *room.Room) {
		var verifier string
		authURL, verifier = m.spotify.AuthURL(roomID)
		r.Credentials.CodeVerifier = verifier
	})
	if err != nil {
		return "", err
	}
	m.persister.markRoom(roomID)
	return authURL, nil
}

// CompleteLogin exchanges the authorization code and stores the tokens on
// the room named by state. The exchange runs without the room lock; the
// tokens are dropped if the room closed or another login started meanwhile.
func (m *Manager) CompleteLogin(ctx context.Context, state, code string) error {
	if m.spotify == nil {
		return ErrLoginUnavailable
	}
	e, err := m.rooms.Get(state)
	if err != nil {
		return err
	}

	var verifier string
	e.Read(func(r *room.Room) { verifier = r.Credentials.CodeVerifier })
	if verifier == "" {
		return errors.Wrapf(ErrLoginNotPending, "room %s", state)
	}

	token, err := m.spotify.Exchange(ctx, code, verifier)
	if err != nil {
		return err
	}

	return m.mutateEntry(e, "complete_login", true, func(r *room.Room) error {
		if r.Credentials.CodeVerifier != verifier {
			return errors.Wrapf(ErrLoginNotPending, "room %s", state)
		}
		r.Credentials = room.Credentials{
			AccessToken:  token.AccessToken,
			RefreshToken: token.RefreshToken,
			Expiry:       token.Expiry,
		}
		zlog.Info().Str("room_id", r.ID).Msg("spotify login completed")
		return nil
	})
}
