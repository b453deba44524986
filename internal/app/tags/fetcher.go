// Package tags provides raw external tag fetchers for artists.
package tags

import (
	"context"
	"strings"
)

// Query identifies the artist whose tags are fetched.
type Query struct {
	ArtistID   string
	ArtistName string
	Credential string // room's Spotify access token, may be empty
}

// Fetcher is the interface for raw tag sources.
// Implementations return an empty slice, not an error, when the source has
// nothing to say about the artist.
type Fetcher interface {
	// Fetch retrieves raw tags for the artist, most relevant first.
	Fetch(ctx context.Context, q Query) ([]string, error)

	// Name returns the fetcher name (used in config).
	Name() string
}

// normalize lowercases, trims and de-duplicates tags, keeping their order.
func normalize(raw []string) []string {
	seen := make(map[string]bool, len(raw))
	out := make([]string, 0, len(raw))
	for _, t := range raw {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
