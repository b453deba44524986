// Package classifier resolves a genre label for an artist through a layered
// lookup chain: room knowledge, fetched raw tags against room knowledge,
// sibling rooms, the global store, then the unknown sentinel.
package classifier

import (
	"context"

	zlog "github.com/rs/zerolog/log"

	"github.com/KuotenoAshiato/spotify-jukebox/internal/app/tags"
)

// UnknownGenre is assigned when nothing knows the artist.
const UnknownGenre = "Genre-Unknown"

// Source is a read-only view of genre knowledge. Implementations must be
// safe to call without any room lock held by the caller.
type Source interface {
	ArtistGenre(artistID string) (string, bool)
	TagGenre(rawTags []string) (string, bool)
}

// TagFetcher fetches raw external tags. It returns an empty slice on failure.
type TagFetcher interface {
	FetchArtistTags(ctx context.Context, q tags.Query) []string
}

// Sibling is another live room's knowledge.
type Sibling struct {
	RoomID string
	Source Source
}

// Origin tells which layer produced a classification.
type Origin int

const (
	OriginUnknown      Origin = iota // Nothing matched
	OriginLocalArtist                // Room artist knowledge
	OriginLocalTag                   // Room raw-tag knowledge
	OriginSiblingArtist              // Another room's artist knowledge
	OriginSiblingTag                 // Another room's raw-tag knowledge
	OriginGlobalArtist               // Global artist knowledge
	OriginGlobalTag                  // Global raw-tag knowledge
)

// String returns the string representation of the origin.
func (o Origin) String() string {
	switch o {
	case OriginUnknown:
		return "unknown"
	case OriginLocalArtist:
		return "local_artist"
	case OriginLocalTag:
		return "local_tag"
	case OriginSiblingArtist:
		return "sibling_artist"
	case OriginSiblingTag:
		return "sibling_tag"
	case OriginGlobalArtist:
		return "global_artist"
	case OriginGlobalTag:
		return "global_tag"
	default:
		return "invalid"
	}
}

// Provisional reports whether a result from this origin needs host confirmation.
func (o Origin) Provisional() bool {
	return o >= OriginSiblingArtist
}

// Request is the input of one classification.
type Request struct {
	ArtistID   string
	ArtistName string
	Credential string

	Local    Source
	Siblings []Sibling // scanned in order
	Global   Source
}

// Result is a resolved genre.
type Result struct {
	Genre       string
	Provisional bool
	RawTags     []string
	Origin      Origin
	FromRoom    string // sibling room id for sibling origins
}

// Classifier runs the resolution chain.
type Classifier struct {
	fetcher TagFetcher
}

// New creates a new Classifier. fetcher may be nil, in which case no raw tags
// are ever fetched.
func New(fetcher TagFetcher) *Classifier {
	return &Classifier{fetcher: fetcher}
}

// Classify resolves the artist's genre. First match wins.
func (c *Classifier) Classify(ctx context.Context, req Request) Result {
	if g, ok := lookupArtist(req.Local, req.ArtistID); ok {
		return newResult(g, OriginLocalArtist, []string{}, "")
	}

	raw := c.fetchTags(ctx, req)

	if r, ok := ResolveLocal(req.Local, req.ArtistID, raw); ok {
		return r
	}

	for _, s := range req.Siblings {
		if g, ok := lookupArtist(s.Source, req.ArtistID); ok {
			return newResult(g, OriginSiblingArtist, raw, s.RoomID)
		}
	}
	for _, s := range req.Siblings {
		if g, ok := lookupTags(s.Source, raw); ok {
			return newResult(g, OriginSiblingTag, raw, s.RoomID)
		}
	}

	if g, ok := lookupArtist(req.Global, req.ArtistID); ok {
		return newResult(g, OriginGlobalArtist, raw, "")
	}
	if g, ok := lookupTags(req.Global, raw); ok {
		return newResult(g, OriginGlobalTag, raw, "")
	}

	zlog.Debug().Msgf("artist unknown everywhere: artist_id=%s tags=%v", req.ArtistID, raw)
	return newResult(UnknownGenre, OriginUnknown, raw, "")
}

// ResolveLocal runs only the confirmed layers against already fetched tags.
// It is used to re-check a classification after the room changed.
func ResolveLocal(local Source, artistID string, rawTags []string) (Result, bool) {
	if rawTags == nil {
		rawTags = []string{}
	}
	if g, ok := lookupArtist(local, artistID); ok {
		return newResult(g, OriginLocalArtist, rawTags, ""), true
	}
	if g, ok := lookupTags(local, rawTags); ok {
		return newResult(g, OriginLocalTag, rawTags, ""), true
	}
	return Result{}, false
}

func (c *Classifier) fetchTags(ctx context.Context, req Request) []string {
	if c.fetcher == nil {
		return []string{}
	}
	raw := c.fetcher.FetchArtistTags(ctx, tags.Query{
		ArtistID:   req.ArtistID,
		ArtistName: req.ArtistName,
		Credential: req.Credential,
	})
	if raw == nil {
		return []string{}
	}
	return raw
}

func lookupArtist(s Source, artistID string) (string, bool) {
	if s == nil || artistID == "" {
		return "", false
	}
	return s.ArtistGenre(artistID)
}

func lookupTags(s Source, rawTags []string) (string, bool) {
	if s == nil || len(rawTags) == 0 {
		return "", false
	}
	return s.TagGenre(rawTags)
}

func newResult(genre string, origin Origin, rawTags []string, fromRoom string) Result {
	return Result{
		Genre:       genre,
		Provisional: origin.Provisional(),
		RawTags:     rawTags,
		Origin:      origin,
		FromRoom:    fromRoom,
	}
}
