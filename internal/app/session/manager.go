// Package session provides the room session manager: the room store, every
// room and admin operation, persistence and the background loops.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/KuotenoAshiato/spotify-jukebox/internal/app/classifier"
	"github.com/KuotenoAshiato/spotify-jukebox/internal/app/filter"
	"github.com/KuotenoAshiato/spotify-jukebox/internal/app/notification"
	"github.com/KuotenoAshiato/spotify-jukebox/internal/app/session/registry"
	"github.com/KuotenoAshiato/spotify-jukebox/internal/app/session/state"
	"github.com/KuotenoAshiato/spotify-jukebox/internal/app/tags"
	"github.com/KuotenoAshiato/spotify-jukebox/internal/domain/knowledge"
	"github.com/KuotenoAshiato/spotify-jukebox/internal/domain/playlist"
	"github.com/KuotenoAshiato/spotify-jukebox/internal/domain/room"
	"github.com/KuotenoAshiato/spotify-jukebox/internal/infra/config"
	"github.com/KuotenoAshiato/spotify-jukebox/internal/infra/store"
)

var (
	ErrRoomNotFound      = registry.ErrRoomNotFound
	ErrInvalidInput      = errors.New("invalid input")
	ErrTrackRejected     = errors.New("track rejected")
	ErrLoginUnavailable  = errors.New("spotify login is not configured")
	ErrLoginNotPending   = errors.New("no login in progress for room")
	ErrManagerNotRunning = errors.New("session manager is not running")

	errStaleRefresh = errors.New("refresh token changed meanwhile")
)

// SpotifyClient defines the Spotify operations the manager needs.
type SpotifyClient interface {
	tags.SpotifyClient
	ArtistName(ctx context.Context, accessToken, artistID string) (string, error)
	GetPlaylist(ctx context.Context, playlistURL string) (*playlist.Playlist, error)
	AuthURL(state string) (authURL, verifier string)
	Exchange(ctx context.Context, code, verifier string) (*oauth2.Token, error)
	Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error)
}

// Dependencies are the collaborators of a Manager. Nil fields get defaults:
// an in-memory store, a tag chain built from configuration and the wall clock.
type Dependencies struct {
	Store   store.Store
	Spotify SpotifyClient
	Tags    classifier.TagFetcher
	Now     func() time.Time
}

// Manager manages all rooms.
type Manager struct {
	// Configuration
	config *config.Config

	// Components
	rooms        *registry.RoomRegistry
	global       *state.Manager
	classifier   *classifier.Classifier
	filterChain  *filter.Chain
	notification *notification.Gateway
	spotify      SpotifyClient
	store        store.Store
	persister    *persister
	now          func() time.Time

	// Lifecycle
	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	done    chan struct{}
}

// NewManager creates a new session manager.
func NewManager(cfg *config.Config, deps Dependencies) (*Manager, error) {
	filterChain, err := filter.NewChainFromSettings(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create filter chain")
	}

	fetcher := deps.Tags
	if fetcher == nil {
		chain, err := tags.NewChainFromConfig(cfg, deps.Spotify)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create tag fetcher chain")
		}
		fetcher = chain
	}

	st := deps.Store
	if st == nil {
		st = store.NewMemoryStore()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	m := &Manager{
		config:       cfg,
		rooms:        registry.NewRoomRegistry(),
		global:       state.New(knowledge.NewGlobal()),
		classifier:   classifier.New(fetcher),
		filterChain:  filterChain,
		notification: notification.NewGateway(0),
		spotify:      deps.Spotify,
		store:        st,
		now:          now,
		done:         make(chan struct{}),
	}
	m.persister = newPersister(st, m.rooms, m.global)

	return m, nil
}

// Start restores the last snapshot and starts the background loops.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return nil
	}

	snap, err := m.store.LoadSnapshot(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to load snapshot")
	}
	if _, err := m.global.Update(func(g *knowledge.Global) error {
		*g = snap.Global
		return nil
	}); err != nil {
		return err
	}
	now := m.now()
	for _, r := range snap.Rooms {
		// Restored rooms get a full idle window before eviction.
		r.Touch(now)
		m.rooms.Put(r)
	}
	zlog.Info().Msgf("snapshot restored: rooms=%d artists=%d raw_tags=%d conflicts=%d",
		len(snap.Rooms), len(snap.Global.Artists), len(snap.Global.RawTags), len(snap.Global.Conflicts))

	loopCtx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.running = true

	m.goLoop("persist", func() { m.persister.run(loopCtx, m.config.Rooms.SaveInterval) })
	m.goLoop("evict", func() { m.evictLoop(loopCtx) })
	if m.spotify != nil {
		m.goLoop("token_refresh", func() { m.refreshLoop(loopCtx) })
	}

	return nil
}

// Stop stops the background loops and writes a final snapshot.
func (m *Manager) Stop(ctx context.Context) error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return ErrManagerNotRunning
	}
	m.running = false
	m.cancel()
	m.mu.Unlock()

	m.wg.Wait()
	m.persister.flushAll(ctx)
	m.notification.Close()
	close(m.done)

	if err := m.store.Close(); err != nil {
		return errors.Wrap(err, "failed to close store")
	}
	zlog.Info().Msg("session manager stopped")
	return nil
}

// Done returns a channel that is closed when the manager is stopped.
func (m *Manager) Done() <-chan struct{} {
	return m.done
}

// Gateway returns the broadcast gateway.
func (m *Manager) Gateway() *notification.Gateway {
	return m.notification
}

// Filters returns the admission filter chain.
func (m *Manager) Filters() []filter.Filter {
	return m.filterChain.Filters()
}

func (m *Manager) goLoop(name string, fn func()) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				zlog.Error().Msgf("%s loop panicked: %v", name, r)
			}
		}()
		fn()
	}()
}

// mutate applies fn to an existing room under its lock, then refreshes the
// activity timestamp, publishes the sanitized state and queues a save.
// A closed room reports ErrRoomNotFound.
func (m *Manager) mutate(roomID, op string, fn func(r *room.Room) error) error {
	e, err := m.rooms.Get(roomID)
	if err != nil {
		return err
	}
	return m.mutateEntry(e, op, true, fn)
}

// mutateEntry is mutate on a known entry. touch=false leaves the activity
// timestamp alone, for background work that must not keep a room alive.
func (m *Manager) mutateEntry(e *registry.Entry, op string, touch bool, fn func(r *room.Room) error) error {
	err := e.Mutate(func(r *room.Room) error {
		if err := fn(r); err != nil {
			return err
		}
		if touch {
			r.Touch(m.now())
		}
		m.notification.Publish(r.ID, r.Sanitize())
		return nil
	})
	if errors.Is(err, registry.ErrRoomClosed) {
		return errors.Mark(errors.Wrapf(err, "room %s", e.ID()), ErrRoomNotFound)
	}
	if err != nil {
		return err
	}

	zlog.Debug().Str("room_id", e.ID()).Msgf("room mutated: op=%s", op)
	m.persister.markRoom(e.ID())
	return nil
}

// ignoreNotFound turns a missing room into a silent no-op for client events.
func ignoreNotFound(roomID, op string, err error) error {
	if errors.Is(err, ErrRoomNotFound) {
		zlog.Debug().Str("room_id", roomID).Msgf("ignoring event for missing room: op=%s", op)
		return nil
	}
	return err
}

func invalidInput(err error) error {
	return errors.Mark(errors.Wrap(err, "invalid input"), ErrInvalidInput)
}
