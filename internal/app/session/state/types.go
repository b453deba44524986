// Package state provides the thread-safe holder of the global knowledge store.
package state

// Stats summarizes the global knowledge store.
type Stats struct {
	TotalArtists   int `json:"totalArtists"`
	TotalRawTags   int `json:"totalRawTags"`
	ConflictsCount int `json:"conflictsCount"`
}
