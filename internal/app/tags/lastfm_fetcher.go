package tags

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"

	"github.com/KuotenoAshiato/spotify-jukebox/internal/infra/lastfm"
)

// LastFmClient defines the interface for Last.fm operations.
type LastFmClient interface {
	GetArtistTopTags(ctx context.Context, artistName string, limit int) ([]lastfm.Tag, error)
}

type LastFmFetcherConfig struct {
	APIKey   string `yaml:"api_key" mapstructure:"api_key" validate:"required"`
	TagLimit int    `yaml:"tag_limit" mapstructure:"tag_limit" default:"5" validate:"gte=1,lte=50"`
	MinCount int    `yaml:"min_count" mapstructure:"min_count" default:"10" validate:"gte=0,lte=100"`
}

// LastFmFetcher reads the artist's top tags from Last.fm. It works by artist
// name and needs no room credential.
type LastFmFetcher struct {
	lastfm LastFmClient
	config *LastFmFetcherConfig
}

// NewLastFmFetcher creates a new LastFmFetcher from provider settings.
func NewLastFmFetcher(settings map[string]any) (*LastFmFetcher, error) {
	if len(settings) == 0 {
		return nil, errors.New("settings are required")
	}

	var config LastFmFetcherConfig
	if err := mapstructure.Decode(settings, &config); err != nil {
		return nil, errors.Wrap(err, "failed to decode settings")
	}
	if err := defaults.Set(&config); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}
	if err := validator.New().Struct(config); err != nil {
		return nil, errors.Wrap(err, "validation failed")
	}

	client, err := lastfm.New(lastfm.Config{APIKey: config.APIKey})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create last.fm client")
	}

	return newLastFmFetcher(client, &config), nil
}

func newLastFmFetcher(client LastFmClient, config *LastFmFetcherConfig) *LastFmFetcher {
	return &LastFmFetcher{lastfm: client, config: config}
}

// Fetch retrieves the artist's top tags whose weight reaches MinCount.
func (f *LastFmFetcher) Fetch(ctx context.Context, q Query) ([]string, error) {
	if q.ArtistName == "" {
		return []string{}, nil
	}
	tags, err := f.lastfm.GetArtistTopTags(ctx, q.ArtistName, f.config.TagLimit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch last.fm tags")
	}

	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t.Count < f.config.MinCount {
			continue
		}
		out = append(out, t.Name)
	}
	return out, nil
}

// Name returns the fetcher name.
func (f *LastFmFetcher) Name() string {
	return "lastfm"
}
