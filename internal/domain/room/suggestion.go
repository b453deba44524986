package room

import "slices"

// Suggestion is an unconfirmed genre guess awaiting host confirmation.
type Suggestion struct {
	TrackID        string   `json:"trackId"` // URI of the track that triggered the guess
	ArtistID       string   `json:"artistId"`
	Name           string   `json:"name"`
	Artist         string   `json:"artist"`
	SuggestedGenre string   `json:"suggestedGenre"`
	RawGenres      []string `json:"rawGenres"`
}

// AddSuggestion records a suggestion unless one exists for the artist.
func (r *Room) AddSuggestion(s Suggestion) bool {
	if slices.ContainsFunc(r.Suggestions, func(e Suggestion) bool { return e.ArtistID == s.ArtistID }) {
		return false
	}
	if s.RawGenres == nil {
		s.RawGenres = []string{}
	}
	r.Suggestions = append(r.Suggestions, s)
	return true
}

// RemoveSuggestion drops the artist's suggestion.
func (r *Room) RemoveSuggestion(artistID string) bool {
	n := len(r.Suggestions)
	r.Suggestions = slices.DeleteFunc(r.Suggestions, func(s Suggestion) bool { return s.ArtistID == artistID })
	return len(r.Suggestions) != n
}

// ClearSuggestions drops all suggestions.
func (r *Room) ClearSuggestions() {
	r.Suggestions = []Suggestion{}
}

func cloneSuggestions(in []Suggestion) []Suggestion {
	out := make([]Suggestion, len(in))
	for i, s := range in {
		s.RawGenres = slices.Clone(s.RawGenres)
		out[i] = s
	}
	return out
}
