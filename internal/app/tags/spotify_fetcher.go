package tags

import (
	"context"

	"github.com/cockroachdb/errors"
)

// SpotifyClient defines the Spotify operations needed by the Spotify fetcher.
type SpotifyClient interface {
	ArtistGenres(ctx context.Context, accessToken, artistID string) ([]string, error)
}

// SpotifyFetcher reads the genres Spotify lists on the artist. It needs the
// room's access token and stays silent without one.
type SpotifyFetcher struct {
	spotify SpotifyClient
}

// NewSpotifyFetcher creates a new SpotifyFetcher.
func NewSpotifyFetcher(spotify SpotifyClient) (*SpotifyFetcher, error) {
	if spotify == nil {
		return nil, errors.New("spotify client is required")
	}
	return &SpotifyFetcher{spotify: spotify}, nil
}

// Fetch retrieves the artist's Spotify genres.
func (f *SpotifyFetcher) Fetch(ctx context.Context, q Query) ([]string, error) {
	if q.Credential == "" || q.ArtistID == "" {
		return []string{}, nil
	}
	genres, err := f.spotify.ArtistGenres(ctx, q.Credential, q.ArtistID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch spotify genres")
	}
	return genres, nil
}

// Name returns the fetcher name.
func (f *SpotifyFetcher) Name() string {
	return "spotify"
}
