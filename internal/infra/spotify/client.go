// Package spotify provides a client for the Spotify API and the per-room
// PKCE authorization flow.
package spotify

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/KuotenoAshiato/spotify-jukebox/internal/domain/playlist"
)

// ErrMissingToken is returned when an operation needs a user token and none was given.
var ErrMissingToken = errors.New("spotify access token is required")

// Client is a Spotify API client.
type Client struct {
	user       *oauth2.Config
	app        *clientcredentials.Config
	apiBaseURL string
	maxRetries int
	retryDelay time.Duration
}

// Config represents Spotify client configuration.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string

	// Overrides for tests. Empty means the public Spotify endpoints.
	AuthURL    string
	TokenURL   string
	APIBaseURL string
}

// New creates a new Spotify client.
func New(cfg Config) (*Client, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, errors.New("spotify credentials are required")
	}

	authURL, tokenURL := spotifyauth.AuthURL, spotifyauth.TokenURL
	if cfg.AuthURL != "" {
		authURL = cfg.AuthURL
	}
	if cfg.TokenURL != "" {
		tokenURL = cfg.TokenURL
	}

	return &Client{
		user: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint: oauth2.Endpoint{
				AuthURL:  authURL,
				TokenURL: tokenURL,
			},
			Scopes: []string{
				spotifyauth.ScopeUserModifyPlaybackState,
				spotifyauth.ScopeUserReadPlaybackState,
				spotifyauth.ScopeUserReadCurrentlyPlaying,
			},
		},
		app: &clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     tokenURL,
		},
		apiBaseURL: cfg.APIBaseURL,
		maxRetries: 3,
		retryDelay: time.Second,
	}, nil
}

// api returns a Web API client authorized by the given token source.
func (c *Client) api(ctx context.Context, ts oauth2.TokenSource) *spotify.Client {
	var opts []spotify.ClientOption
	if c.apiBaseURL != "" {
		opts = append(opts, spotify.WithBaseURL(c.apiBaseURL))
	}
	return spotify.New(oauth2.NewClient(ctx, ts), opts...)
}

func (c *Client) userAPI(ctx context.Context, accessToken string) (*spotify.Client, error) {
	if accessToken == "" {
		return nil, ErrMissingToken
	}
	return c.api(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})), nil
}

// ArtistGenres returns the genres Spotify lists for the artist.
func (c *Client) ArtistGenres(ctx context.Context, accessToken, artistID string) ([]string, error) {
	artist, err := c.getArtist(ctx, accessToken, artistID)
	if err != nil {
		return nil, err
	}
	return artist.Genres, nil
}

// ArtistName returns the display name of the artist.
func (c *Client) ArtistName(ctx context.Context, accessToken, artistID string) (string, error) {
	artist, err := c.getArtist(ctx, accessToken, artistID)
	if err != nil {
		return "", err
	}
	return artist.Name, nil
}

func (c *Client) getArtist(ctx context.Context, accessToken, artistID string) (*spotify.FullArtist, error) {
	if artistID == "" {
		return nil, errors.New("artist id is required")
	}
	client, err := c.userAPI(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	var result *spotify.FullArtist
	err = c.retry(ctx, func() error {
		a, err := client.GetArtist(ctx, spotify.ID(artistID))
		if err != nil {
			return err
		}
		result = a
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get artist %s", artistID)
	}
	return result, nil
}

// GetPlaylist retrieves all items of a playlist using an app token
// (client-credentials grant), so no room login is needed.
func (c *Client) GetPlaylist(ctx context.Context, playlistURL string) (*playlist.Playlist, error) {
	playlistID := extractPlaylistID(playlistURL)
	if playlistID == "" {
		return nil, errors.New("invalid playlist URL")
	}

	client := c.api(ctx, c.app.TokenSource(ctx))
	result := &playlist.Playlist{ID: playlistID}
	offset := 0
	limit := 100

	for {
		var page *spotify.PlaylistItemPage
		err := c.retry(ctx, func() error {
			p, err := client.GetPlaylistItems(ctx, spotify.ID(playlistID),
				spotify.Limit(limit),
				spotify.Offset(offset),
			)
			if err != nil {
				return err
			}
			page = p
			return nil
		})
		if err != nil {
			return nil, errors.Wrap(err, "failed to get playlist items")
		}

		for _, item := range page.Items {
			// Episodes and local files carry no artist ids.
			if item.Track.Track == nil || item.Track.Track.ID == "" {
				continue
			}
			result.Items = append(result.Items, convertItem(item.Track.Track))
		}

		if len(page.Items) < limit {
			break
		}
		offset += limit
	}

	return result, nil
}

func convertItem(t *spotify.FullTrack) playlist.Item {
	artists := make([]playlist.Artist, 0, len(t.Artists))
	for _, a := range t.Artists {
		artists = append(artists, playlist.Artist{ID: string(a.ID), Name: a.Name})
	}
	return playlist.Item{
		URI:     string(t.URI),
		Name:    t.Name,
		Artists: artists,
	}
}

// retry retries an operation with linear backoff.
func (c *Client) retry(ctx context.Context, fn func() error) error {
	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !isRetryable(err) {
			return err
		}

		if i < c.maxRetries-1 {
			select {
			case <-ctx.Done():
				return errors.Wrap(ctx.Err(), "retry aborted")
			case <-time.After(c.retryDelay * time.Duration(i+1)):
			}
		}
	}
	return errors.Wrap(lastErr, "max retries exceeded")
}

// isRetryable checks if an error is retryable.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	var spErr spotify.Error
	if errors.As(err, &spErr) {
		return spErr.Status == 429 || spErr.Status >= 500
	}
	// Rate limit errors and server errors are retryable
	errStr := err.Error()
	return strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "500") ||
		strings.Contains(errStr, "502") ||
		strings.Contains(errStr, "503") ||
		strings.Contains(errStr, "504")
}

// extractPlaylistID extracts the playlist ID from a Spotify playlist URL or URI.
func extractPlaylistID(input string) string {
	input = strings.TrimSpace(input)
	// Handle Spotify URI format: spotify:playlist:PLAYLIST_ID
	if strings.HasPrefix(input, "spotify:playlist:") {
		return strings.TrimPrefix(input, "spotify:playlist:")
	}

	// Handle URL format: https://open.spotify.com/playlist/PLAYLIST_ID or https://open.spotify.com/intl-XX/playlist/PLAYLIST_ID
	if strings.Contains(input, "open.spotify.com") && strings.Contains(input, "/playlist/") {
		parts := strings.Split(input, "/playlist/")
		id := strings.Split(parts[len(parts)-1], "?")[0]
		return strings.TrimRight(id, "/")
	}

	// Assume it's already a playlist ID
	return input
}
