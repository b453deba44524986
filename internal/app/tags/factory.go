package tags

import (
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/KuotenoAshiato/spotify-jukebox/internal/infra/config"
)

// NewChainFromConfig creates a fetcher chain from configuration.
func NewChainFromConfig(cfg *config.Config, spotify SpotifyClient) (*Chain, error) {
	if len(cfg.Tags.Providers) == 0 {
		return nil, errors.New("no tag providers configured")
	}

	var fetchers []FetcherWithMetadata

	for i, pcfg := range cfg.Tags.Providers {
		var fetcher Fetcher
		var err error
		zlog.Debug().Msgf("creating tag fetcher: index=%d type=%s", i+1, pcfg.Type)
		switch pcfg.Type {
		case "spotify":
			fetcher, err = NewSpotifyFetcher(spotify)

		case "lastfm":
			fetcher, err = NewLastFmFetcher(pcfg.Settings)

		default:
			return nil, errors.Newf("unsupported provider type: %s (provider index %d)", pcfg.Type, i)
		}

		if err != nil {
			return nil, errors.Wrapf(err, "failed to create provider (index %d, type %s)", i, pcfg.Type)
		}

		fetchers = append(fetchers, FetcherWithMetadata{
			Fetcher:     fetcher,
			DisplayName: pcfg.DisplayName,
		})

		zlog.Info().Msgf("registered tag fetcher: index=%d type=%s display_name=%s", i+1, pcfg.Type, pcfg.DisplayName)
	}

	return NewChain(fetchers, cfg.Tags.FetchTimeout), nil
}
