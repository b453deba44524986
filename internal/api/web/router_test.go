package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/KuotenoAshiato/spotify-jukebox/internal/app/session"
	"github.com/KuotenoAshiato/spotify-jukebox/internal/app/tags"
	"github.com/KuotenoAshiato/spotify-jukebox/internal/domain/playlist"
	"github.com/KuotenoAshiato/spotify-jukebox/internal/infra/config"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type noTags struct{}

func (noTags) FetchArtistTags(context.Context, tags.Query) []string { return nil }

type fakeSpotify struct{}

func (fakeSpotify) ArtistGenres(context.Context, string, string) ([]string, error) { return nil, nil }

func (fakeSpotify) ArtistName(context.Context, string, string) (string, error) {
	return "", errors.New("not found")
}

func (fakeSpotify) GetPlaylist(context.Context, string) (*playlist.Playlist, error) {
	return nil, errors.New("not found")
}

func (fakeSpotify) AuthURL(state string) (string, string) {
	return "https://accounts.example.com/authorize?state=" + state, "verifier-" + state
}

func (fakeSpotify) Exchange(_ context.Context, code, _ string) (*oauth2.Token, error) {
	if code == "bad" {
		return nil, errors.New("invalid_grant")
	}
	return &oauth2.Token{AccessToken: "access-" + code, RefreshToken: "refresh-" + code}, nil
}

func (fakeSpotify) Refresh(context.Context, string) (*oauth2.Token, error) {
	return nil, errors.New("not implemented")
}

func newTestRouter(t *testing.T, spotify session.SpotifyClient) (*gin.Engine, *session.Manager) {
	t.Helper()
	cfg := &config.Config{
		Server: config.ServerConfig{PublicURL: "http://jukebox.local/"},
		Admin:  config.AdminConfig{Password: "secret"},
		Rooms:  config.RoomsConfig{DefaultRTVThreshold: 3},
	}
	sessions, err := session.NewManager(cfg, session.Dependencies{Tags: noTags{}, Spotify: spotify})
	require.NoError(t, err)
	t.Cleanup(sessions.Gateway().Close)
	return NewRouter(cfg, sessions), sessions
}

func get(r http.Handler, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestHealth(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	w := get(r, "/health")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, true, body["ok"])
	assert.NotEmpty(t, body["time"])
}

func TestLogin(t *testing.T) {
	t.Run("redirects to spotify", func(t *testing.T) {
		r, sessions := newTestRouter(t, fakeSpotify{})

		w := get(r, "/api/login?room=party")
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "https://accounts.example.com/authorize?state=party", w.Header().Get("Location"))
		assert.Equal(t, 1, sessions.Stats().ActiveRooms)
	})

	t.Run("missing room", func(t *testing.T) {
		r, _ := newTestRouter(t, fakeSpotify{})
		assert.Equal(t, http.StatusBadRequest, get(r, "/api/login").Code)
	})

	t.Run("spotify not configured", func(t *testing.T) {
		r, _ := newTestRouter(t, nil)
		assert.Equal(t, http.StatusServiceUnavailable, get(r, "/api/login?room=party").Code)
	})
}

func TestCallback(t *testing.T) {
	r, sessions := newTestRouter(t, fakeSpotify{})
	require.Equal(t, http.StatusFound, get(r, "/api/login?room=party").Code)

	tests := []struct {
		name         string
		target       string
		wantStatus   int
		wantLocation string
	}{
		{"missing code", "/api/callback?state=party", http.StatusBadRequest, ""},
		{"unknown room", "/api/callback?code=c1&state=ghost", http.StatusNotFound, ""},
		{"denied by user", "/api/callback?error=access_denied&state=party", http.StatusFound, "http://jukebox.local/host?room=party"},
		{"exchange fails", "/api/callback?code=bad&state=party", http.StatusInternalServerError, ""},
		{"success", "/api/callback?code=c1&state=party", http.StatusFound, "http://jukebox.local/host?room=party"},
		{"verifier is single use", "/api/callback?code=c2&state=party", http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(r, tt.target)
			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantLocation != "" {
				assert.Equal(t, tt.wantLocation, w.Header().Get("Location"))
			}
		})
	}

	rooms := sessions.ListRooms()
	require.Len(t, rooms, 1)
	assert.True(t, rooms[0].LoggedIn)
}

func TestConnectMounts(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/jukebox.v1.RoomService/JoinRoom", strings.NewReader(`{"roomId":"party"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"roomId":"party"`)

	req = httptest.NewRequest(http.MethodPost, "/jukebox.v1.AdminService/GetData", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestFeed(t *testing.T) {
	r, sessions := newTestRouter(t, nil)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws/rooms/party", nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var first FeedEvent
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, "state_updated", first.Type)
	assert.Equal(t, "party", first.RoomID)
	require.NotNil(t, first.State)

	require.NoError(t, sessions.VoteRtv("party", "d1"))

	var update FeedEvent
	require.NoError(t, conn.ReadJSON(&update))
	require.NotNil(t, update.State)
	assert.Equal(t, []string{"d1"}, update.State.RTVVotedBy)
	assert.Greater(t, update.SequenceNo, first.SequenceNo)

	_, err = sessions.CloseRoom("party", session.CloseReasonAdmin)
	require.NoError(t, err)

	var closed FeedEvent
	require.NoError(t, conn.ReadJSON(&closed))
	assert.Equal(t, "room_closed", closed.Type)
	assert.Equal(t, session.CloseReasonAdmin, closed.Reason)

	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
}
