package tags

import (
	"context"
	"time"

	zlog "github.com/rs/zerolog/log"
)

// FetcherWithMetadata wraps a fetcher with its metadata.
type FetcherWithMetadata struct {
	Fetcher     Fetcher
	DisplayName string
}

// Chain tries fetchers in order and returns the tags of the first one that
// has any.
type Chain struct {
	fetchers []FetcherWithMetadata
	timeout  time.Duration
}

// NewChain creates a new fetcher chain. timeout bounds each fetcher call;
// zero means no extra bound.
func NewChain(fetchers []FetcherWithMetadata, timeout time.Duration) *Chain {
	return &Chain{
		fetchers: fetchers,
		timeout:  timeout,
	}
}

// FetchArtistTags returns the artist's raw tags, or an empty slice when every
// fetcher failed or had none. Failures are logged and never returned.
func (c *Chain) FetchArtistTags(ctx context.Context, q Query) []string {
	for i, fm := range c.fetchers {
		zlog.Debug().Msgf("trying tag fetcher: index=%d total=%d name=%s fetcher_type=%s artist_id=%s",
			i+1, len(c.fetchers), fm.DisplayName, fm.Fetcher.Name(), q.ArtistID)

		tags, err := c.fetch(ctx, fm.Fetcher, q)
		if err != nil {
			zlog.Warn().Msgf("tag fetcher failed, trying next: fetcher=%s artist_id=%s error=%v",
				fm.DisplayName, q.ArtistID, err)
			continue
		}

		tags = normalize(tags)
		if len(tags) == 0 {
			zlog.Debug().Msgf("tag fetcher returned no tags: fetcher=%s artist_id=%s", fm.DisplayName, q.ArtistID)
			continue
		}

		zlog.Debug().Msgf("tag fetcher returned tags: fetcher=%s artist_id=%s tags=%v", fm.DisplayName, q.ArtistID, tags)
		return tags
	}
	return []string{}
}

func (c *Chain) fetch(ctx context.Context, f Fetcher, q Query) ([]string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	return f.Fetch(ctx, q)
}

// Name returns the chain name.
func (c *Chain) Name() string {
	return "tag_chain"
}
