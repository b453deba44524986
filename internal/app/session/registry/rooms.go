// Package registry provides the concurrent room registry. Each room has its
// own mutation lock so operations on unrelated rooms never block each other.
package registry

import (
	"slices"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/KuotenoAshiato/spotify-jukebox/internal/domain/room"
)

var (
	ErrRoomNotFound = errors.New("room not found")
	ErrRoomClosed   = errors.New("room is closed")
)

// Entry guards one room. A closed entry rejects every further mutation.
type Entry struct {
	id     string
	mu     sync.Mutex
	room   *room.Room
	closed bool
}

// ID returns the room ID.
func (e *Entry) ID() string {
	return e.id
}

// Mutate runs fn with exclusive access to the room.
func (e *Entry) Mutate(fn func(r *room.Room) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrRoomClosed
	}
	return fn(e.room)
}

// Read runs fn with exclusive access to the room. fn must not modify it.
// It returns false if the room is closed.
func (e *Entry) Read(fn func(r *room.Room)) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return false
	}
	fn(e.room)
	return true
}

// Close runs fn on the final room state and marks the entry closed if fn
// returns true. A nil fn always closes. It returns false if the entry was
// already closed or fn kept it open.
func (e *Entry) Close(fn func(r *room.Room) bool) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return false
	}
	if fn != nil && !fn(e.room) {
		return false
	}
	e.closed = true
	return true
}

// Closed reports whether the entry was closed.
func (e *Entry) Closed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

// RoomRegistry maps room IDs to entries with thread-safe access. The
// registry lock is never held while an entry lock is taken.
type RoomRegistry struct {
	mu    sync.RWMutex
	rooms map[string]*Entry
}

// NewRoomRegistry creates a new room registry.
func NewRoomRegistry() *RoomRegistry {
	return &RoomRegistry{
		rooms: make(map[string]*Entry),
	}
}

// GetOrCreate returns the room's entry, creating it with create if absent.
// The boolean is true if the entry was created.
func (r *RoomRegistry) GetOrCreate(id string, create func() *room.Room) (*Entry, bool) {
	r.mu.RLock()
	e, ok := r.rooms[id]
	r.mu.RUnlock()
	if ok {
		return e, false
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.rooms[id]; ok {
		return e, false
	}
	e = &Entry{id: id, room: create()}
	r.rooms[id] = e
	return e, true
}

// Put registers a restored room, replacing any existing entry.
func (r *RoomRegistry) Put(rm *room.Room) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rooms[rm.ID] = &Entry{id: rm.ID, room: rm}
}

// Get retrieves a room's entry by ID.
func (r *RoomRegistry) Get(id string) (*Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.rooms[id]
	if !ok {
		return nil, errors.Wrapf(ErrRoomNotFound, "room %s", id)
	}
	return e, nil
}

// Remove deletes the entry if it is still the registered one for its room.
func (r *RoomRegistry) Remove(e *Entry) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cur, ok := r.rooms[e.id]; ok && cur == e {
		delete(r.rooms, e.id)
		return true
	}
	return false
}

// All returns all entries sorted by room ID.
func (r *RoomRegistry) All() []*Entry {
	r.mu.RLock()
	result := make([]*Entry, 0, len(r.rooms))
	for _, e := range r.rooms {
		result = append(result, e)
	}
	r.mu.RUnlock()

	slices.SortFunc(result, func(a, b *Entry) int {
		switch {
		case a.id < b.id:
			return -1
		case a.id > b.id:
			return 1
		}
		return 0
	})
	return result
}

// Siblings returns every entry except the given room, sorted by room ID.
func (r *RoomRegistry) Siblings(id string) []*Entry {
	return slices.DeleteFunc(r.All(), func(e *Entry) bool { return e.id == id })
}

// Count returns the number of rooms.
func (r *RoomRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}
