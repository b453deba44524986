// Package track provides the Track domain entity.
package track

import (
	"slices"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Descriptor is what a client submits when requesting a track.
type Descriptor struct {
	URI      string `json:"uri" mapstructure:"uri" validate:"required"`   // Spotify track URI
	Name     string `json:"name" mapstructure:"name" validate:"required"` // Track name
	Artist   string `json:"artist" mapstructure:"artist"`                 // Artist display name
	ArtistID string `json:"artistId" mapstructure:"artistId"`             // Spotify artist ID
	Cover    string `json:"cover,omitempty" mapstructure:"cover"`         // Cover image URL
}

// Validate checks the required descriptor fields.
func (d Descriptor) Validate() error {
	if err := validator.New().Struct(d); err != nil {
		return errors.Wrap(err, "invalid track descriptor")
	}
	return nil
}

// Track represents a queued track of a room.
// Identity fields never change after insertion.
type Track struct {
	URI      string `json:"uri"`
	Name     string `json:"name"`
	Artist   string `json:"artist"`
	ArtistID string `json:"artistId"`
	Cover    string `json:"cover,omitempty"`

	Genre    string   `json:"genre"`    // Assigned at insertion, may be reassigned by the host
	Votes    int      `json:"votes"`    // Always len(VotedBy)
	VotedBy  []string `json:"votedBy"`  // Device IDs that upvoted this track
	UniqueID string   `json:"uniqueId"` // Queue-entry identity
}

// HistoryEntry is a played track without vote bookkeeping.
type HistoryEntry struct {
	URI    string `json:"uri"`
	Name   string `json:"name"`
	Artist string `json:"artist"`
	Cover  string `json:"cover,omitempty"`
	Genre  string `json:"genre,omitempty"`
}

// New creates a queue entry for the descriptor with a fresh unique ID.
func New(d Descriptor, genre string) Track {
	return Track{
		URI:      d.URI,
		Name:     d.Name,
		Artist:   d.Artist,
		ArtistID: d.ArtistID,
		Cover:    d.Cover,
		Genre:    genre,
		VotedBy:  []string{},
		UniqueID: uuid.New().String(),
	}
}

// HasVoted reports whether the device already upvoted the track.
func (t *Track) HasVoted(deviceID string) bool {
	return slices.Contains(t.VotedBy, deviceID)
}

// AddVote records an upvote. It returns false if the device already voted.
func (t *Track) AddVote(deviceID string) bool {
	if t.HasVoted(deviceID) {
		return false
	}
	t.VotedBy = append(t.VotedBy, deviceID)
	t.Votes = len(t.VotedBy)
	return true
}

// Matches reports whether ref identifies this entry, by unique ID or by raw URI.
func (t *Track) Matches(ref string) bool {
	return ref != "" && (t.UniqueID == ref || t.URI == ref)
}

// History converts the track into a history entry.
func (t Track) History() HistoryEntry {
	return HistoryEntry{
		URI:    t.URI,
		Name:   t.Name,
		Artist: t.Artist,
		Cover:  t.Cover,
		Genre:  t.Genre,
	}
}

// Clone returns a deep copy.
func (t Track) Clone() Track {
	t.VotedBy = slices.Clone(t.VotedBy)
	if t.VotedBy == nil {
		t.VotedBy = []string{}
	}
	return t
}
