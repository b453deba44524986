// Package store provides the durable snapshot store for rooms and global
// knowledge. The backend is chosen by the scheme of the storage URL.
package store

import (
	"context"
	"net/url"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/KuotenoAshiato/spotify-jukebox/internal/domain/knowledge"
	"github.com/KuotenoAshiato/spotify-jukebox/internal/domain/room"
)

// Snapshot is everything restored at startup.
type Snapshot struct {
	Rooms  map[string]*room.Room
	Global knowledge.Global
}

// Store persists room states and global knowledge.
type Store interface {
	LoadSnapshot(ctx context.Context) (Snapshot, error)
	SaveRoomStates(ctx context.Context, rooms []*room.Room) error
	SaveGlobalKnowledge(ctx context.Context, g knowledge.Global) error
	DeleteRoom(ctx context.Context, roomID string) error
	Close() error
}

// Open opens the store for rawURL. Supported schemes: sqlite, postgres,
// postgresql and memory.
func Open(ctx context.Context, rawURL string) (Store, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, errors.Wrap(err, "invalid storage url")
	}

	switch u.Scheme {
	case "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		path := strings.TrimPrefix(rawURL, "sqlite://")
		if path == "" {
			return nil, errors.New("sqlite storage url needs a file path")
		}
		return OpenSQLite(ctx, path)
	case "postgres", "postgresql":
		return OpenPostgres(ctx, rawURL)
	default:
		return nil, errors.Newf("unsupported storage scheme %q", u.Scheme)
	}
}

func emptySnapshot() Snapshot {
	return Snapshot{
		Rooms:  make(map[string]*room.Room),
		Global: knowledge.NewGlobal(),
	}
}
