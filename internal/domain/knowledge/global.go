package knowledge

import (
	"slices"

	"github.com/cockroachdb/errors"
)

var (
	ErrNoConflict         = errors.New("no conflict for artist")
	ErrInvalidResolution  = errors.New("invalid conflict resolution")
	ErrMissingCustomGenre = errors.New("custom resolution requires a genre")
)

// Conflict records a disagreement between the global store and a room.
type Conflict struct {
	ArtistID    string `json:"artistId"`
	Name        string `json:"name"`
	GlobalGenre string `json:"globalGenre"`
	RoomGenre   string `json:"roomGenre"`
	FromRoom    string `json:"fromRoom"`
}

// Global is the process-wide knowledge aggregate.
type Global struct {
	Knowledge
	Conflicts []Conflict `json:"conflicts"`
}

// NewGlobal returns an empty global store.
func NewGlobal() Global {
	return Global{Knowledge: New(), Conflicts: []Conflict{}}
}

// Clone returns a deep copy.
func (g Global) Clone() Global {
	return Global{
		Knowledge: g.Knowledge.Clone(),
		Conflicts: append([]Conflict{}, g.Conflicts...),
	}
}

// MergeResult summarizes a merge of room knowledge into the global store.
type MergeResult struct {
	Added     int `json:"added"`
	Conflicts int `json:"conflicts"`
	TagsAdded int `json:"tagsAdded"`
}

// Merge folds a room's knowledge into the global store.
// Differing artist genres are queued as conflicts, never overwritten.
// Raw tags never conflict: the first writer wins.
func (g *Global) Merge(local Knowledge, roomID string) MergeResult {
	g.Normalize()

	var res MergeResult
	for _, artistID := range sortedKeys(local.Artists) {
		roomGenre := local.Artists[artistID]
		if roomGenre == "" {
			continue
		}
		name := local.ArtistNames[artistID]

		globalGenre, ok := g.Artists[artistID]
		switch {
		case !ok:
			g.Artists[artistID] = roomGenre
			if name != "" {
				g.ArtistNames[artistID] = name
			}
			res.Added++
		case globalGenre == roomGenre:
		default:
			if !g.hasConflict(artistID, roomGenre) {
				if name == "" {
					name = g.ArtistNames[artistID]
				}
				g.Conflicts = append(g.Conflicts, Conflict{
					ArtistID:    artistID,
					Name:        name,
					GlobalGenre: globalGenre,
					RoomGenre:   roomGenre,
					FromRoom:    roomID,
				})
			}
			res.Conflicts++
		}
	}

	for _, tag := range sortedKeys(local.RawTags) {
		if _, ok := g.RawTags[tag]; ok {
			continue
		}
		g.RawTags[tag] = local.RawTags[tag]
		res.TagsAdded++
	}

	return res
}

func (g *Global) hasConflict(artistID, roomGenre string) bool {
	return slices.ContainsFunc(g.Conflicts, func(c Conflict) bool {
		return c.ArtistID == artistID && c.RoomGenre == roomGenre
	})
}

// Resolution is an administrative decision on a conflict.
type Resolution string

const (
	ResolutionKeepGlobal Resolution = "keep_global"
	ResolutionAcceptNew  Resolution = "accept_new"
	ResolutionCustom     Resolution = "custom"
)

// ResolveConflict applies a resolution to the first conflict recorded for the
// artist and removes that conflict record.
func (g *Global) ResolveConflict(artistID string, res Resolution, customGenre string) error {
	idx := slices.IndexFunc(g.Conflicts, func(c Conflict) bool { return c.ArtistID == artistID })
	if idx < 0 {
		return errors.Wrapf(ErrNoConflict, "artist %s", artistID)
	}
	c := g.Conflicts[idx]

	g.Normalize()
	switch res {
	case ResolutionKeepGlobal:
	case ResolutionAcceptNew:
		g.Artists[artistID] = c.RoomGenre
	case ResolutionCustom:
		if customGenre == "" {
			return ErrMissingCustomGenre
		}
		g.Artists[artistID] = customGenre
	default:
		return errors.Wrapf(ErrInvalidResolution, "%q", res)
	}
	if c.Name != "" {
		g.ArtistNames[artistID] = c.Name
	}

	g.Conflicts = slices.Delete(g.Conflicts, idx, idx+1)
	return nil
}

// SetArtist stores an administrative artist classification.
func (g *Global) SetArtist(artistID, genre, name string) {
	g.Normalize()
	g.Artists[artistID] = genre
	if name != "" {
		g.ArtistNames[artistID] = name
	}
}

// DeleteArtist removes an artist. It returns false if the artist is unknown.
func (g *Global) DeleteArtist(artistID string) bool {
	if _, ok := g.Artists[artistID]; !ok {
		return false
	}
	delete(g.Artists, artistID)
	delete(g.ArtistNames, artistID)
	return true
}

// SetRawTag stores an administrative raw-tag classification.
func (g *Global) SetRawTag(tag, genre string) {
	g.Normalize()
	g.RawTags[tag] = genre
}

// DeleteRawTag removes a raw tag. It returns false if the tag is unknown.
func (g *Global) DeleteRawTag(tag string) bool {
	if _, ok := g.RawTags[tag]; !ok {
		return false
	}
	delete(g.RawTags, tag)
	return true
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
