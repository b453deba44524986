package playlist

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlaylist_ArtistSummaries(t *testing.T) {
	known := map[string]string{"a2": "Rock"}
	p := &Playlist{
		ID: "playlist-1",
		Items: []Item{
			{URI: "spotify:track:1", Artists: []Artist{{ID: "a1", Name: "Beta"}, {ID: "a2", Name: "Known"}}},
			{URI: "spotify:track:2", Artists: []Artist{{ID: "a2", Name: "Known"}}},
			{URI: "spotify:track:3", Artists: []Artist{{ID: "a3", Name: "Alpha"}}},
			{URI: "spotify:track:4", Artists: []Artist{{ID: "a3", Name: "Alpha"}, {ID: "", Name: "local file"}}},
			{URI: "spotify:track:5", Artists: []Artist{{ID: "a4", Name: "alpha two"}}},
		},
	}

	result := p.ArtistSummaries(func(id string) string { return known[id] })

	assert.Equal(t, []ArtistSummary{
		{ID: "a3", Name: "Alpha", Count: 2},
		{ID: "a4", Name: "alpha two", Count: 1},
		{ID: "a1", Name: "Beta", Count: 1},
		{ID: "a2", Name: "Known", Count: 2, ExistingGenre: "Rock"},
	}, result)
}

func TestPlaylist_ArtistSummariesEmpty(t *testing.T) {
	tests := []struct {
		name     string
		playlist *Playlist
	}{
		{name: "no items", playlist: &Playlist{}},
		{name: "no artists", playlist: &Playlist{Items: []Item{{URI: "spotify:track:1"}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.playlist.ArtistSummaries(nil)
			assert.Empty(t, result)
			assert.NotNil(t, result)
		})
	}
}

func TestPlaylist_TrackCount(t *testing.T) {
	p := &Playlist{Items: []Item{{URI: "a"}, {URI: "b"}}}
	assert.Equal(t, 2, p.TrackCount())
}
