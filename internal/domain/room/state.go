package room

import (
	"slices"

	"github.com/KuotenoAshiato/spotify-jukebox/internal/domain/knowledge"
	"github.com/KuotenoAshiato/spotify-jukebox/internal/domain/track"
)

// State is the client-facing view of a room. It never carries the refresh
// token, the PKCE verifier, the host secret or activity bookkeeping.
type State struct {
	RoomID              string               `json:"roomId"`
	Queue               []track.Track        `json:"queue"`
	HistoryQueue        []track.HistoryEntry `json:"historyQueue"`
	CurrentPlayingGenre string               `json:"currentPlayingGenre"`
	DB                  knowledge.Knowledge  `json:"db"`
	PendingSuggestions  []Suggestion         `json:"pendingSuggestions"`

	RTVThreshold int                 `json:"rtvThreshold"`
	RTVVotedBy   []string            `json:"rtvVotedBy"`
	GenreVotedBy map[string][]string `json:"genreVotedBy"`

	AccessToken      string `json:"accessToken"`
	AutoDJEnabled    bool   `json:"autoDjEnabled"`
	FallbackCoverURL string `json:"fallbackCoverUrl"`
	HostLocked       bool   `json:"hostLocked"`

	ShowSearch       bool `json:"showSearch"`
	ShowSidebar      bool `json:"showSidebar"`
	ShowQR           bool `json:"showQr"`
	ShowProgress     bool `json:"showProgress"`
	EnableVisualizer bool `json:"enableVisualizer"`
}

// Sanitize returns a deep-copied client view of the room.
func (r *Room) Sanitize() State {
	return State{
		RoomID:              r.ID,
		Queue:               cloneTracks(r.Queue),
		HistoryQueue:        append([]track.HistoryEntry{}, r.History...),
		CurrentPlayingGenre: r.CurrentPlayingGenre,
		DB:                  r.Knowledge.Clone(),
		PendingSuggestions:  cloneSuggestions(r.Suggestions),
		RTVThreshold:        r.RTV.Threshold,
		RTVVotedBy:          append([]string{}, r.RTV.VotedBy...),
		GenreVotedBy:        cloneVotes(r.GenreVotes),
		AccessToken:         r.Credentials.AccessToken,
		AutoDJEnabled:       r.AutoDJEnabled,
		FallbackCoverURL:    r.FallbackCoverURL,
		HostLocked:          r.HostSecretHash != "",
		ShowSearch:          r.Toggles.ShowSearch,
		ShowSidebar:         r.Toggles.ShowSidebar,
		ShowQR:              r.Toggles.ShowQR,
		ShowProgress:        r.Toggles.ShowProgress,
		EnableVisualizer:    r.Toggles.EnableVisualizer,
	}
}

// QueuedGenres returns the genres of the queue in bucket order.
func (s State) QueuedGenres() []string {
	var genres []string
	for _, t := range s.Queue {
		if len(genres) == 0 || genres[len(genres)-1] != t.Genre {
			genres = append(genres, t.Genre)
		}
	}
	return slices.Clip(genres)
}
