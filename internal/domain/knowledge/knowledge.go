// Package knowledge provides artist and raw-tag genre knowledge for rooms and
// for the process-wide global store.
package knowledge

import "maps"

// Knowledge maps artists and raw external tags to genre labels.
type Knowledge struct {
	Artists     map[string]string `json:"artists"`     // artistId -> genre
	RawTags     map[string]string `json:"genres"`      // raw tag -> genre
	ArtistNames map[string]string `json:"artistNames"` // artistId -> display name
}

// New returns empty knowledge.
func New() Knowledge {
	return Knowledge{
		Artists:     make(map[string]string),
		RawTags:     make(map[string]string),
		ArtistNames: make(map[string]string),
	}
}

// Normalize replaces nil maps, e.g. after decoding an old snapshot.
func (k *Knowledge) Normalize() {
	if k.Artists == nil {
		k.Artists = make(map[string]string)
	}
	if k.RawTags == nil {
		k.RawTags = make(map[string]string)
	}
	if k.ArtistNames == nil {
		k.ArtistNames = make(map[string]string)
	}
}

// Clone returns a deep copy.
func (k Knowledge) Clone() Knowledge {
	c := Knowledge{
		Artists:     maps.Clone(k.Artists),
		RawTags:     maps.Clone(k.RawTags),
		ArtistNames: maps.Clone(k.ArtistNames),
	}
	c.Normalize()
	return c
}

// ArtistGenre returns the genre known for the artist.
func (k Knowledge) ArtistGenre(artistID string) (string, bool) {
	if artistID == "" {
		return "", false
	}
	g, ok := k.Artists[artistID]
	return g, ok && g != ""
}

// TagGenre returns the genre of the first raw tag that is known, in tag order.
func (k Knowledge) TagGenre(rawTags []string) (string, bool) {
	for _, tag := range rawTags {
		if g, ok := k.RawTags[tag]; ok && g != "" {
			return g, true
		}
	}
	return "", false
}

// Learn records a confirmed genre for an artist and its raw tags.
func (k *Knowledge) Learn(artistID, genre, artistName string, rawTags []string) {
	k.Normalize()
	k.Artists[artistID] = genre
	if artistName != "" {
		k.ArtistNames[artistID] = artistName
	}
	for _, tag := range rawTags {
		if tag == "" {
			continue
		}
		k.RawTags[tag] = genre
	}
}
