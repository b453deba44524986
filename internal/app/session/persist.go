package session

import (
	"context"
	"sync"
	"time"

	zlog "github.com/rs/zerolog/log"

	"github.com/KuotenoAshiato/spotify-jukebox/internal/app/session/registry"
	"github.com/KuotenoAshiato/spotify-jukebox/internal/app/session/state"
	"github.com/KuotenoAshiato/spotify-jukebox/internal/domain/room"
	"github.com/KuotenoAshiato/spotify-jukebox/internal/infra/store"
)

// saveTimeout bounds one write to the store.
const saveTimeout = 10 * time.Second

// persister writes dirty rooms and the global store in the background.
// Failures are logged and retried by the next periodic save.
type persister struct {
	store  store.Store
	rooms  *registry.RoomRegistry
	global *state.Manager

	mu          sync.Mutex
	dirtyRooms  map[string]struct{}
	deleted     map[string]struct{}
	globalDirty bool

	kick chan struct{}
}

func newPersister(st store.Store, rooms *registry.RoomRegistry, global *state.Manager) *persister {
	return &persister{
		store:      st,
		rooms:      rooms,
		global:     global,
		dirtyRooms: make(map[string]struct{}),
		deleted:    make(map[string]struct{}),
		kick:       make(chan struct{}, 1),
	}
}

func (p *persister) markRoom(roomID string) {
	p.mu.Lock()
	p.dirtyRooms[roomID] = struct{}{}
	p.mu.Unlock()
	p.wake()
}

func (p *persister) markDeleted(roomID string) {
	p.mu.Lock()
	delete(p.dirtyRooms, roomID)
	p.deleted[roomID] = struct{}{}
	p.mu.Unlock()
	p.wake()
}

func (p *persister) markGlobal() {
	p.mu.Lock()
	p.globalDirty = true
	p.mu.Unlock()
	p.wake()
}

func (p *persister) wake() {
	select {
	case p.kick <- struct{}{}:
	default:
	}
}

// run flushes on every wake-up and saves all rooms every interval.
func (p *persister) run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.kick:
			p.flush(ctx)
		case <-ticker.C:
			p.flushAll(ctx)
		}
	}
}

// flushAll marks every live room dirty and flushes.
func (p *persister) flushAll(ctx context.Context) {
	p.mu.Lock()
	for _, e := range p.rooms.All() {
		p.dirtyRooms[e.ID()] = struct{}{}
	}
	p.mu.Unlock()
	p.flush(ctx)
}

// flush applies deletions before saves so a re-created room is never
// deleted after being written.
func (p *persister) flush(ctx context.Context) {
	p.mu.Lock()
	dirty := p.dirtyRooms
	deleted := p.deleted
	globalDirty := p.globalDirty
	p.dirtyRooms = make(map[string]struct{})
	p.deleted = make(map[string]struct{})
	p.globalDirty = false
	p.mu.Unlock()

	if ctx.Err() != nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, saveTimeout)
	defer cancel()

	for id := range deleted {
		if err := p.store.DeleteRoom(ctx, id); err != nil {
			zlog.Warn().Str("room_id", id).Msgf("failed to delete room from store: %v", err)
		}
	}

	var rooms []*room.Room
	for id := range dirty {
		e, err := p.rooms.Get(id)
		if err != nil {
			continue
		}
		e.Read(func(r *room.Room) {
			rooms = append(rooms, r.Clone())
		})
	}
	if err := p.store.SaveRoomStates(ctx, rooms); err != nil {
		zlog.Warn().Msgf("failed to save room states: rooms=%d error=%v", len(rooms), err)
	}

	if globalDirty {
		if err := p.store.SaveGlobalKnowledge(ctx, p.global.Snapshot()); err != nil {
			zlog.Warn().Msgf("failed to save global knowledge: %v", err)
			p.mu.Lock()
			p.globalDirty = true
			p.mu.Unlock()
		}
	}
}
