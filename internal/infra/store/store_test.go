package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KuotenoAshiato/spotify-jukebox/internal/domain/knowledge"
	"github.com/KuotenoAshiato/spotify-jukebox/internal/domain/room"
	"github.com/KuotenoAshiato/spotify-jukebox/internal/domain/track"
)

func sampleRoom(id string) *room.Room {
	r := room.New(id, time.Unix(1700000000, 0), 2)
	r.Insert(track.New(track.Descriptor{URI: "spotify:track:1", Name: "Song", Artist: "Band", ArtistID: "a1"}, "Rock"))
	r.Knowledge.Learn("a1", "Rock", "Band", []string{"rock"})
	r.Credentials.RefreshToken = "refresh"
	return r
}

func sampleGlobal() knowledge.Global {
	g := knowledge.NewGlobal()
	g.SetArtist("a1", "Rock", "Band")
	g.SetRawTag("jazz fusion", "Jazz")
	g.Merge(knowledge.Knowledge{Artists: map[string]string{"a1": "Metal"}}, "r9")
	return g
}

func openStores(t *testing.T) map[string]Store {
	t.Helper()
	ctx := context.Background()

	sqlite, err := Open(ctx, "sqlite://"+filepath.Join(t.TempDir(), "jukebox.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlite.Close() })

	memory, err := Open(ctx, "memory://")
	require.NoError(t, err)

	return map[string]Store{"sqlite": sqlite, "memory": memory}
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()

	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			snap, err := s.LoadSnapshot(ctx)
			require.NoError(t, err)
			assert.Empty(t, snap.Rooms)
			assert.Empty(t, snap.Global.Artists)

			require.NoError(t, s.SaveRoomStates(ctx, []*room.Room{sampleRoom("r1"), sampleRoom("r2")}))
			require.NoError(t, s.SaveGlobalKnowledge(ctx, sampleGlobal()))

			updated := sampleRoom("r1")
			updated.ClearQueue()
			require.NoError(t, s.SaveRoomStates(ctx, []*room.Room{updated}))

			snap, err = s.LoadSnapshot(ctx)
			require.NoError(t, err)
			require.Len(t, snap.Rooms, 2)

			r1 := snap.Rooms["r1"]
			assert.Empty(t, r1.Queue)
			assert.Equal(t, room.NoGenre, r1.CurrentPlayingGenre)
			assert.Equal(t, 2, r1.RTV.Threshold)
			assert.Equal(t, "refresh", r1.Credentials.RefreshToken)

			r2 := snap.Rooms["r2"]
			require.Len(t, r2.Queue, 1)
			assert.Equal(t, "Rock", r2.Queue[0].Genre)
			assert.Equal(t, "Rock", r2.Knowledge.RawTags["rock"])

			assert.Equal(t, "Rock", snap.Global.Artists["a1"])
			assert.Equal(t, "Jazz", snap.Global.RawTags["jazz fusion"])
			require.Len(t, snap.Global.Conflicts, 1)
			assert.Equal(t, "Metal", snap.Global.Conflicts[0].RoomGenre)

			require.NoError(t, s.DeleteRoom(ctx, "r1"))
			require.NoError(t, s.DeleteRoom(ctx, "missing"))
			snap, err = s.LoadSnapshot(ctx)
			require.NoError(t, err)
			assert.Len(t, snap.Rooms, 1)
		})
	}
}

func TestStore_SQLitePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "jukebox.db")

	s, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.SaveRoomStates(ctx, []*room.Room{sampleRoom("r1")}))
	require.NoError(t, s.Close())

	s, err = OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer s.Close()

	snap, err := s.LoadSnapshot(ctx)
	require.NoError(t, err)
	assert.Contains(t, snap.Rooms, "r1")
}

func TestOpen_Schemes(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{name: "memory", url: "memory://"},
		{name: "unknown scheme", url: "mongodb://localhost/jukebox", wantErr: true},
		{name: "sqlite without path", url: "sqlite://", wantErr: true},
		{name: "no scheme", url: "jukebox.db", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Open(context.Background(), tt.url)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NoError(t, s.Close())
		})
	}
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	r := sampleRoom("r1")
	require.NoError(t, s.SaveRoomStates(ctx, []*room.Room{r}))

	r.ClearQueue()
	snap, err := s.LoadSnapshot(ctx)
	require.NoError(t, err)
	assert.Len(t, snap.Rooms["r1"].Queue, 1)
	assert.Equal(t, 1, s.RoomCount())
}
