// Package web assembles the HTTP surface of the jukebox server: health, the
// Spotify login redirect pair, the websocket display feed and the mounts for
// the Connect and Socket.IO handlers.
package web

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"connectrpc.com/connect"
	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	zlog "github.com/rs/zerolog/log"

	apiconnect "github.com/KuotenoAshiato/spotify-jukebox/internal/api/connect"
	jukeboxv1 "github.com/KuotenoAshiato/spotify-jukebox/internal/api/jukeboxv1"
	"github.com/KuotenoAshiato/spotify-jukebox/internal/app/session"
	"github.com/KuotenoAshiato/spotify-jukebox/internal/infra/config"
)

// Mounter attaches additional routes to the router.
type Mounter interface {
	Mount(r *gin.Engine)
}

// Router serves the web endpoints.
type Router struct {
	sessions *session.Manager
	config   *config.Config
	now      func() time.Time
}

// NewRouter builds the gin engine with every route registered. Each mounter
// adds its own routes after the built-in ones.
func NewRouter(cfg *config.Config, sessions *session.Manager, mounters ...Mounter) *gin.Engine {
	rt := &Router{sessions: sessions, config: cfg, now: time.Now}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger())

	r.GET("/health", rt.health)
	r.GET("/api/login", rt.login)
	r.GET("/api/callback", rt.callback)
	r.GET("/ws/rooms/:roomId", rt.feed)

	roomPath, roomHandler := jukeboxv1.NewRoomServiceHandler(apiconnect.NewRoomService(sessions))
	adminPath, adminHandler := jukeboxv1.NewAdminServiceHandler(
		apiconnect.NewAdminService(sessions),
		connect.WithInterceptors(apiconnect.NewAdminAuthInterceptor(cfg)),
	)
	r.Any(roomPath+"*procedure", gin.WrapH(roomHandler))
	r.Any(adminPath+"*procedure", gin.WrapH(adminHandler))

	for _, m := range mounters {
		m.Mount(r)
	}
	return r
}

func (rt *Router) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "time": rt.now().UTC().Format(time.RFC3339)})
}

// login redirects the host to the Spotify authorization page for a room.
func (rt *Router) login(c *gin.Context) {
	roomID := c.Query("room")
	if roomID == "" {
		c.String(http.StatusBadRequest, "missing room")
		return
	}
	authURL, err := rt.sessions.BeginLogin(roomID)
	if err != nil {
		rt.loginFailed(c, roomID, err)
		return
	}
	c.Redirect(http.StatusFound, authURL)
}

// callback completes the login and sends the host back to the room.
func (rt *Router) callback(c *gin.Context) {
	code, state := c.Query("code"), c.Query("state")
	if reason := c.Query("error"); reason != "" {
		zlog.Warn().Str("room_id", state).Msgf("spotify login denied: %s", reason)
		c.Redirect(http.StatusFound, rt.hostURL(state))
		return
	}
	if code == "" || state == "" {
		c.String(http.StatusBadRequest, "missing code or state")
		return
	}
	if err := rt.sessions.CompleteLogin(c.Request.Context(), state, code); err != nil {
		rt.loginFailed(c, state, err)
		return
	}
	c.Redirect(http.StatusFound, rt.hostURL(state))
}

func (rt *Router) loginFailed(c *gin.Context, roomID string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, session.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, session.ErrRoomNotFound), errors.Is(err, session.ErrLoginNotPending):
		status = http.StatusNotFound
	case errors.Is(err, session.ErrLoginUnavailable):
		status = http.StatusServiceUnavailable
	}
	zlog.Warn().Str("room_id", roomID).Msgf("spotify login failed: status=%d error=%v", status, err)
	c.String(status, http.StatusText(status))
}

func (rt *Router) hostURL(roomID string) string {
	base := strings.TrimSuffix(rt.config.Server.PublicURL, "/")
	return base + "/host?room=" + url.QueryEscape(roomID)
}

// requestLogger logs each request through zerolog. Long-lived transports
// are skipped.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/socket.io") || strings.HasPrefix(path, "/ws/") {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		zlog.Debug().
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("http request")
	}
}
