package room

import (
	"slices"
	"sort"

	"github.com/KuotenoAshiato/spotify-jukebox/internal/domain/track"
)

// Insert places the track right after the last queued track of the same genre,
// or at the tail when the genre is not queued. It returns the insertion index.
func (r *Room) Insert(t track.Track) int {
	idx := insertionIndex(r.Queue, t.Genre)
	r.Queue = slices.Insert(r.Queue, idx, t)
	return idx
}

func insertionIndex(queue []track.Track, genre string) int {
	for i := len(queue) - 1; i >= 0; i-- {
		if queue[i].Genre == genre {
			return i + 1
		}
	}
	return len(queue)
}

// FindTrack returns the index of the entry identified by unique ID, falling back
// to the raw URI. It returns -1 when nothing matches.
func (r *Room) FindTrack(ref string) int {
	if idx := slices.IndexFunc(r.Queue, func(t track.Track) bool { return t.UniqueID == ref }); idx >= 0 {
		return idx
	}
	return slices.IndexFunc(r.Queue, func(t track.Track) bool { return t.Matches(ref) })
}

// Upvote adds the device's vote to the track and re-sorts its genre bucket.
// It returns false when the track is unknown or the device already voted.
func (r *Room) Upvote(ref, deviceID string) bool {
	if deviceID == "" {
		return false
	}
	idx := r.FindTrack(ref)
	if idx < 0 {
		return false
	}
	if !r.Queue[idx].AddVote(deviceID) {
		return false
	}
	start, end := bucketBounds(r.Queue, idx)
	sortBucketByVotes(r.Queue[start:end])
	return true
}

// bucketBounds returns the half-open range of the contiguous genre run containing idx.
func bucketBounds(queue []track.Track, idx int) (int, int) {
	genre := queue[idx].Genre
	start, end := idx, idx+1
	for start > 0 && queue[start-1].Genre == genre {
		start--
	}
	for end < len(queue) && queue[end].Genre == genre {
		end++
	}
	return start, end
}

func sortBucketByVotes(bucket []track.Track) {
	sort.SliceStable(bucket, func(i, j int) bool {
		return bucket[i].Votes > bucket[j].Votes
	})
}

// ReassignGenre confirms a genre for an artist: it writes the room's knowledge,
// drops the artist's pending suggestion and migrates the artist's queued tracks
// into the target genre's bucket, keeping their relative order.
func (r *Room) ReassignGenre(artistID, genre string, rawTags []string, artistName string) {
	r.Knowledge.Learn(artistID, genre, artistName, rawTags)
	r.RemoveSuggestion(artistID)

	var moved []track.Track
	kept := r.Queue[:0:0]
	for _, t := range r.Queue {
		if t.ArtistID == artistID {
			moved = append(moved, t)
			continue
		}
		kept = append(kept, t)
	}
	r.Queue = kept

	for _, t := range moved {
		t.Genre = genre
		r.Insert(t)
	}
}

// MoveBucketAbove swaps the bucket containing targetIndex with the bucket right
// before it. It returns false when there is no preceding bucket.
func (r *Room) MoveBucketAbove(targetIndex int) bool {
	if targetIndex <= 0 || targetIndex >= len(r.Queue) {
		return false
	}
	start, end := bucketBounds(r.Queue, targetIndex)
	if start == 0 {
		return false
	}
	prevStart, _ := bucketBounds(r.Queue, start-1)

	swapped := make([]track.Track, 0, end-prevStart)
	swapped = append(swapped, r.Queue[start:end]...)
	swapped = append(swapped, r.Queue[prevStart:start]...)
	copy(r.Queue[prevStart:end], swapped)
	return true
}

// DequeueHead pops the head track into the history and promotes the next genre.
func (r *Room) DequeueHead() (track.Track, bool) {
	if len(r.Queue) == 0 {
		r.CurrentPlayingGenre = NoGenre
		return track.Track{}, false
	}
	head := r.Queue[0]
	r.Queue = slices.Delete(r.Queue, 0, 1)

	r.History = slices.Insert(r.History, 0, head.History())
	if len(r.History) > HistoryLimit {
		r.History = r.History[:HistoryLimit]
	}
	if len(r.Queue) == 0 {
		r.CurrentPlayingGenre = NoGenre
	} else {
		r.CurrentPlayingGenre = r.Queue[0].Genre
	}
	return head, true
}

// RemoveTrack deletes a queued entry. It returns false for unknown entries.
func (r *Room) RemoveTrack(ref string) bool {
	idx := r.FindTrack(ref)
	if idx < 0 {
		return false
	}
	r.Queue = slices.Delete(r.Queue, idx, idx+1)
	return true
}

// ClearQueue empties the queue.
func (r *Room) ClearQueue() {
	r.Queue = []track.Track{}
	r.CurrentPlayingGenre = NoGenre
}

// ClearHistory empties the history.
func (r *Room) ClearHistory() {
	r.History = []track.HistoryEntry{}
}
