package state

import (
	"sync"

	"github.com/KuotenoAshiato/spotify-jukebox/internal/domain/knowledge"
)

// Manager manages the global knowledge store with thread-safe access.
// Callers may hold a room lock while calling into Manager, never the reverse.
type Manager struct {
	mu     sync.RWMutex
	global knowledge.Global
}

// New creates a new state manager holding a copy of g.
func New(g knowledge.Global) *Manager {
	g = g.Clone()
	g.Normalize()
	return &Manager{global: g}
}

// ArtistGenre returns the global genre of the artist.
func (m *Manager) ArtistGenre(artistID string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.global.ArtistGenre(artistID)
}

// TagGenre returns the global genre of the first known raw tag.
func (m *Manager) TagGenre(rawTags []string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.global.TagGenre(rawTags)
}

// ArtistName returns the global display name of the artist.
func (m *Manager) ArtistName(artistID string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.global.ArtistNames[artistID]
}

// Snapshot returns a deep copy of the global store.
func (m *Manager) Snapshot() knowledge.Global {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.global.Clone()
}

// Update runs fn with exclusive access and returns a copy of the store after
// fn succeeded. On error the store is left untouched.
func (m *Manager) Update(fn func(g *knowledge.Global) error) (knowledge.Global, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	work := m.global.Clone()
	if err := fn(&work); err != nil {
		return knowledge.Global{}, err
	}
	m.global = work
	return m.global.Clone(), nil
}

// Stats returns counters of the global store.
func (m *Manager) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Stats{
		TotalArtists:   len(m.global.Artists),
		TotalRawTags:   len(m.global.RawTags),
		ConflictsCount: len(m.global.Conflicts),
	}
}
