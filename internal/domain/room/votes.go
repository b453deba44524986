package room

import (
	"slices"
	"sort"

	"github.com/KuotenoAshiato/spotify-jukebox/internal/domain/track"
)

// RTVPhase is the rock-the-vote state of a room.
type RTVPhase int

const (
	RTVIdle         RTVPhase = iota // No votes
	RTVAccumulating                 // Some votes, below the threshold
)

// String returns the string representation of the phase.
func (p RTVPhase) String() string {
	switch p {
	case RTVIdle:
		return "IDLE"
	case RTVAccumulating:
		return "ACCUMULATING"
	default:
		return "UNKNOWN"
	}
}

// RTVPhase returns the current rock-the-vote phase. The triggered state is
// transient and never observable between mutations.
func (r *Room) RTVPhase() RTVPhase {
	if len(r.RTV.VotedBy) == 0 {
		return RTVIdle
	}
	return RTVAccumulating
}

// bucket is a contiguous same-genre run of the queue.
type bucket struct {
	genre  string
	tracks []track.Track
}

// buckets splits the queue into genre runs in queue order.
func buckets(queue []track.Track) []bucket {
	var out []bucket
	for i := 0; i < len(queue); {
		_, end := bucketBounds(queue, i)
		out = append(out, bucket{genre: queue[i].Genre, tracks: queue[i:end]})
		i = end
	}
	return out
}

func flatten(bs []bucket, size int) []track.Track {
	out := make([]track.Track, 0, size)
	for _, b := range bs {
		out = append(out, b.tracks...)
	}
	return out
}

// ResortByGenreVotes orders the buckets after the head bucket by descending
// genre vote count. The head bucket is pinned. Ties keep queue order.
func (r *Room) ResortByGenreVotes() {
	bs := buckets(r.Queue)
	if len(bs) < 3 {
		return
	}
	rest := bs[1:]
	sort.SliceStable(rest, func(i, j int) bool {
		return len(r.GenreVotes[rest[i].genre]) > len(r.GenreVotes[rest[j].genre])
	})
	r.Queue = flatten(bs, len(r.Queue))
}

// RecordGenreVote moves the device's single genre vote to genre and re-sorts
// the queue.
func (r *Room) RecordGenreVote(genre, deviceID string) {
	if genre == "" || deviceID == "" {
		return
	}
	for g, devices := range r.GenreVotes {
		devices = slices.DeleteFunc(devices, func(d string) bool { return d == deviceID })
		if len(devices) == 0 {
			delete(r.GenreVotes, g)
			continue
		}
		r.GenreVotes[g] = devices
	}
	r.GenreVotes[genre] = append(r.GenreVotes[genre], deviceID)
	r.ResortByGenreVotes()
}

// RecordRtvVote adds the device to the rock-the-vote tally. When the tally
// reaches the threshold the genre change fires and all votes reset.
// It returns true if the genre change fired.
func (r *Room) RecordRtvVote(deviceID string) bool {
	if deviceID == "" {
		return false
	}
	if !slices.Contains(r.RTV.VotedBy, deviceID) {
		r.RTV.VotedBy = append(r.RTV.VotedBy, deviceID)
	}
	return r.checkRtv()
}

// SetRtvThreshold changes the threshold and fires the genre change when the
// existing tally already meets it. It returns true if the genre change fired.
func (r *Room) SetRtvThreshold(threshold int) bool {
	if threshold < 1 {
		threshold = 1
	}
	r.RTV.Threshold = threshold
	return r.checkRtv()
}

func (r *Room) checkRtv() bool {
	if len(r.RTV.VotedBy) == 0 || len(r.RTV.VotedBy) < r.RTV.Threshold {
		return false
	}
	r.TriggerGenreChange()
	r.RTV.VotedBy = []string{}
	r.GenreVotes = make(map[string][]string)
	return true
}

// TriggerGenreChange moves the winning genre's bucket to the head of the queue.
//
// The winner is the non-head genre with the most genre votes; ties go to the
// bucket that comes first in the queue. Without any votes, the first bucket
// after the head wins. Genres that have votes but no queued tracks are ignored.
// It returns false when the queue holds a single genre.
func (r *Room) TriggerGenreChange() bool {
	bs := buckets(r.Queue)
	if len(bs) < 2 {
		return false
	}

	winner := 1
	best := len(r.GenreVotes[bs[1].genre])
	for i := 2; i < len(bs); i++ {
		if n := len(r.GenreVotes[bs[i].genre]); n > best {
			winner, best = i, n
		}
	}

	reordered := make([]bucket, 0, len(bs))
	reordered = append(reordered, bs[winner])
	reordered = append(reordered, bs[:winner]...)
	reordered = append(reordered, bs[winner+1:]...)
	r.Queue = flatten(reordered, len(r.Queue))
	r.CurrentPlayingGenre = bs[winner].genre
	return true
}
