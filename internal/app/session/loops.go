package session

import (
	"context"
	"time"

	zlog "github.com/rs/zerolog/log"

	"github.com/KuotenoAshiato/spotify-jukebox/internal/domain/room"
)

// evictLoop closes idle rooms every sweep interval.
func (m *Manager) evictLoop(ctx context.Context) {
	ticker := time.NewTicker(m.config.Rooms.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.EvictIdle(m.now())
		}
	}
}

// EvictIdle closes every room idle for longer than the idle timeout and
// returns how many were closed. Rooms are locked one at a time.
func (m *Manager) EvictIdle(now time.Time) int {
	window := m.config.Rooms.IdleTimeout
	evicted := 0
	for _, e := range m.rooms.All() {
		// The idle check is repeated under the lock that closes the room, so
		// a room touched since the scan survives.
		if _, ok := m.closeEntry(e, CloseReasonIdle, func(r *room.Room) bool {
			return r.IdleSince(now, window)
		}); ok {
			evicted++
		}
	}
	if evicted > 0 {
		zlog.Info().Msgf("evicted idle rooms: count=%d remaining=%d", evicted, m.rooms.Count())
	}
	return evicted
}

// refreshLoop renews every logged-in room's access token.
func (m *Manager) refreshLoop(ctx context.Context) {
	ticker := time.NewTicker(m.config.Spotify.TokenRefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.RefreshTokens(ctx)
		}
	}
}

// RefreshTokens renews the access token of every room holding a refresh
// token. Token requests run without room locks; a result is applied only if
// the room still exists and still holds the same refresh token.
func (m *Manager) RefreshTokens(ctx context.Context) int {
	if m.spotify == nil {
		return 0
	}

	refreshed := 0
	for _, e := range m.rooms.All() {
		var refreshToken string
		e.Read(func(r *room.Room) { refreshToken = r.Credentials.RefreshToken })
		if refreshToken == "" {
			continue
		}

		token, err := m.spotify.Refresh(ctx, refreshToken)
		if err != nil {
			zlog.Warn().Str("room_id", e.ID()).Msgf("failed to refresh spotify token: %v", err)
			continue
		}

		err = m.mutateEntry(e, "refresh_token", false, func(r *room.Room) error {
			if r.Credentials.RefreshToken != refreshToken {
				return errStaleRefresh
			}
			r.Credentials.AccessToken = token.AccessToken
			r.Credentials.RefreshToken = token.RefreshToken
			r.Credentials.Expiry = token.Expiry
			return nil
		})
		if err != nil {
			zlog.Debug().Str("room_id", e.ID()).Msgf("discarding refreshed token: %v", err)
			continue
		}
		refreshed++
	}
	if refreshed > 0 {
		zlog.Info().Msgf("refreshed spotify tokens: rooms=%d", refreshed)
	}
	return refreshed
}
