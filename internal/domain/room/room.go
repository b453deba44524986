// Package room provides the per-room shared state: the genre-bucketed queue,
// genre and rock-the-vote tallies, local knowledge and pending suggestions.
//
// A Room is not safe for concurrent use. Callers serialize access per room.
package room

import (
	"slices"
	"time"

	"github.com/KuotenoAshiato/spotify-jukebox/internal/domain/knowledge"
	"github.com/KuotenoAshiato/spotify-jukebox/internal/domain/track"
)

const (
	// NoGenre is the currentPlayingGenre sentinel for an empty queue.
	NoGenre = "-"
	// DefaultRTVThreshold is the number of distinct devices needed to force a genre change.
	DefaultRTVThreshold = 3
	// HistoryLimit bounds the history queue.
	HistoryLimit = 30
)

// Credentials holds the room's Spotify authorization.
type Credentials struct {
	AccessToken  string    `json:"accessToken,omitempty"`
	RefreshToken string    `json:"refreshToken,omitempty"`
	Expiry       time.Time `json:"expiry,omitempty"`
	CodeVerifier string    `json:"codeVerifier,omitempty"` // PKCE verifier of a pending login
}

// Toggles are display feature flags controlled by the host.
type Toggles struct {
	ShowSearch       bool `json:"showSearch"`
	ShowSidebar      bool `json:"showSidebar"`
	ShowQR           bool `json:"showQr"`
	ShowProgress     bool `json:"showProgress"`
	EnableVisualizer bool `json:"enableVisualizer"`
}

// RTV is the rock-the-vote tally.
type RTV struct {
	Threshold int      `json:"threshold"`
	VotedBy   []string `json:"votedBy"`
}

// Room is one party session.
type Room struct {
	ID string `json:"roomId"`

	Queue               []track.Track        `json:"queue"`
	History             []track.HistoryEntry `json:"historyQueue"`
	CurrentPlayingGenre string               `json:"currentPlayingGenre"`

	Knowledge   knowledge.Knowledge `json:"db"`
	Suggestions []Suggestion        `json:"pendingSuggestions"`

	RTV        RTV                 `json:"rtv"`
	GenreVotes map[string][]string `json:"genreVotedBy"`

	AutoDJEnabled    bool        `json:"autoDjEnabled"`
	FallbackCoverURL string      `json:"fallbackCoverUrl"`
	HostSecretHash   string      `json:"hostPasswordHash,omitempty"`
	Toggles          Toggles     `json:"toggles"`
	Credentials      Credentials `json:"credentials"`

	LastActivity time.Time `json:"lastActivity"`
}

// New creates a room with empty defaults.
func New(id string, now time.Time, rtvThreshold int) *Room {
	if rtvThreshold < 1 {
		rtvThreshold = DefaultRTVThreshold
	}
	return &Room{
		ID:                  id,
		Queue:               []track.Track{},
		History:             []track.HistoryEntry{},
		CurrentPlayingGenre: NoGenre,
		Knowledge:           knowledge.New(),
		Suggestions:         []Suggestion{},
		RTV:                 RTV{Threshold: rtvThreshold, VotedBy: []string{}},
		GenreVotes:          make(map[string][]string),
		Toggles: Toggles{
			ShowSearch:       true,
			ShowSidebar:      true,
			ShowQR:           true,
			ShowProgress:     true,
			EnableVisualizer: true,
		},
		LastActivity: now,
	}
}

// Normalize repairs zero values after decoding a stored snapshot.
func (r *Room) Normalize() {
	if r.Queue == nil {
		r.Queue = []track.Track{}
	}
	if r.History == nil {
		r.History = []track.HistoryEntry{}
	}
	if r.CurrentPlayingGenre == "" {
		r.CurrentPlayingGenre = NoGenre
	}
	r.Knowledge.Normalize()
	if r.Suggestions == nil {
		r.Suggestions = []Suggestion{}
	}
	if r.RTV.Threshold < 1 {
		r.RTV.Threshold = DefaultRTVThreshold
	}
	if r.RTV.VotedBy == nil {
		r.RTV.VotedBy = []string{}
	}
	if r.GenreVotes == nil {
		r.GenreVotes = make(map[string][]string)
	}
}

// Touch records room activity.
func (r *Room) Touch(now time.Time) {
	r.LastActivity = now
}

// IdleSince reports whether the room had no activity within window before now.
func (r *Room) IdleSince(now time.Time, window time.Duration) bool {
	return now.Sub(r.LastActivity) > window
}

// Logout clears all credential fields.
func (r *Room) Logout() {
	r.Credentials = Credentials{}
}

// Clone returns a deep copy suitable for persistence.
func (r *Room) Clone() *Room {
	c := *r
	c.Queue = cloneTracks(r.Queue)
	c.History = slices.Clone(r.History)
	c.Knowledge = r.Knowledge.Clone()
	c.Suggestions = cloneSuggestions(r.Suggestions)
	c.RTV.VotedBy = slices.Clone(r.RTV.VotedBy)
	c.GenreVotes = cloneVotes(r.GenreVotes)
	c.Normalize()
	return &c
}

func cloneTracks(in []track.Track) []track.Track {
	out := make([]track.Track, len(in))
	for i, t := range in {
		out[i] = t.Clone()
	}
	return out
}

func cloneVotes(in map[string][]string) map[string][]string {
	out := make(map[string][]string, len(in))
	for g, devices := range in {
		out[g] = slices.Clone(devices)
	}
	return out
}
