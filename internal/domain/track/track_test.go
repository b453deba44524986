package track

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrack_AddVote(t *testing.T) {
	trk := New(Descriptor{URI: "spotify:track:1", Name: "Song"}, "Rock")

	assert.True(t, trk.AddVote("device-a"))
	assert.False(t, trk.AddVote("device-a"), "second vote from same device must be ignored")
	assert.True(t, trk.AddVote("device-b"))

	assert.Equal(t, 2, trk.Votes)
	assert.Equal(t, []string{"device-a", "device-b"}, trk.VotedBy)
}

func TestTrack_Matches(t *testing.T) {
	trk := New(Descriptor{URI: "spotify:track:1", Name: "Song"}, "Rock")

	tests := []struct {
		name     string
		ref      string
		expected bool
	}{
		{name: "unique id", ref: trk.UniqueID, expected: true},
		{name: "raw uri", ref: "spotify:track:1", expected: true},
		{name: "other", ref: "spotify:track:2", expected: false},
		{name: "empty", ref: "", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, trk.Matches(tt.ref))
		})
	}
}

func TestNew_UniqueIDs(t *testing.T) {
	d := Descriptor{URI: "spotify:track:1", Name: "Song"}
	a := New(d, "Rock")
	b := New(d, "Rock")

	assert.NotEmpty(t, a.UniqueID)
	assert.NotEqual(t, a.UniqueID, b.UniqueID)
	assert.Equal(t, 0, a.Votes)
	assert.Empty(t, a.VotedBy)
}

func TestDescriptor_Validate(t *testing.T) {
	tests := []struct {
		name    string
		d       Descriptor
		wantErr bool
	}{
		{name: "valid", d: Descriptor{URI: "spotify:track:1", Name: "Song"}},
		{name: "missing uri", d: Descriptor{Name: "Song"}, wantErr: true},
		{name: "missing name", d: Descriptor{URI: "spotify:track:1"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.d.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTrack_CloneIsIndependent(t *testing.T) {
	trk := New(Descriptor{URI: "spotify:track:1", Name: "Song"}, "Rock")
	trk.AddVote("device-a")

	c := trk.Clone()
	c.AddVote("device-b")

	assert.Equal(t, 1, trk.Votes)
	assert.Equal(t, 2, c.Votes)
}
