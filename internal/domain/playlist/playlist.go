// Package playlist provides the Playlist domain entity used by the admin
// playlist import.
package playlist

import (
	"sort"
	"strings"
)

// Artist is a credited artist of a playlist track.
type Artist struct {
	ID   string
	Name string
}

// Item is one track of a playlist.
type Item struct {
	URI     string
	Name    string
	Artists []Artist
}

// Playlist represents a Spotify playlist.
type Playlist struct {
	ID    string // Spotify Playlist ID
	Items []Item
}

// ArtistSummary aggregates how often an artist appears in a playlist.
type ArtistSummary struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Count         int    `json:"count"`
	ExistingGenre string `json:"existingGenre"`
}

// ArtistSummaries counts every credited artist of the playlist. genreOf
// returns the already known genre of an artist, or "".
//
// Artists without a known genre come first, then by descending count, then by name.
func (p *Playlist) ArtistSummaries(genreOf func(artistID string) string) []ArtistSummary {
	byID := make(map[string]*ArtistSummary)
	for _, item := range p.Items {
		for _, a := range item.Artists {
			if a.ID == "" {
				continue
			}
			s, ok := byID[a.ID]
			if !ok {
				s = &ArtistSummary{ID: a.ID, Name: a.Name}
				if genreOf != nil {
					s.ExistingGenre = genreOf(a.ID)
				}
				byID[a.ID] = s
			}
			s.Count++
		}
	}

	out := make([]ArtistSummary, 0, len(byID))
	for _, s := range byID {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		iKnown, jKnown := out[i].ExistingGenre != "", out[j].ExistingGenre != ""
		if iKnown != jKnown {
			return !iKnown
		}
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out
}

// TrackCount returns the number of tracks in the playlist.
func (p *Playlist) TrackCount() int {
	return len(p.Items)
}
