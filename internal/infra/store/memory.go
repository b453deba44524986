package store

import (
	"context"
	"sync"

	"github.com/KuotenoAshiato/spotify-jukebox/internal/domain/knowledge"
	"github.com/KuotenoAshiato/spotify-jukebox/internal/domain/room"
)

// MemoryStore keeps snapshots in memory. It is used for tests and for
// deployments that do not need persistence.
type MemoryStore struct {
	mu     sync.RWMutex
	rooms  map[string]*room.Room
	global knowledge.Global
}

// NewMemoryStore creates an empty memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rooms:  make(map[string]*room.Room),
		global: knowledge.NewGlobal(),
	}
}

// LoadSnapshot returns copies of the stored rooms and global knowledge.
func (s *MemoryStore) LoadSnapshot(_ context.Context) (Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := emptySnapshot()
	for id, r := range s.rooms {
		snap.Rooms[id] = r.Clone()
	}
	snap.Global = s.global.Clone()
	return snap, nil
}

// SaveRoomStates stores copies of the rooms.
func (s *MemoryStore) SaveRoomStates(_ context.Context, rooms []*room.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range rooms {
		s.rooms[r.ID] = r.Clone()
	}
	return nil
}

// SaveGlobalKnowledge stores a copy of the global knowledge.
func (s *MemoryStore) SaveGlobalKnowledge(_ context.Context, g knowledge.Global) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.global = g.Clone()
	return nil
}

// DeleteRoom removes a room.
func (s *MemoryStore) DeleteRoom(_ context.Context, roomID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, roomID)
	return nil
}

// RoomCount returns the number of stored rooms.
func (s *MemoryStore) RoomCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}

// Close is a no-op.
func (s *MemoryStore) Close() error {
	return nil
}
