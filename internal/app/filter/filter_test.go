package filter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KuotenoAshiato/spotify-jukebox/internal/domain/track"
)

type stubSettings map[string]bool

func (s stubSettings) IsFilterEnabled(name string) bool      { return s[name] }
func (s stubSettings) FilterSettings(string) map[string]any { return nil }

func TestRequiredFieldsFilter_Check(t *testing.T) {
	tests := []struct {
		name         string
		descriptor   track.Descriptor
		wantAccepted bool
	}{
		{
			name:         "complete",
			descriptor:   track.Descriptor{URI: "spotify:track:1", Name: "One"},
			wantAccepted: true,
		},
		{
			name:         "missing uri",
			descriptor:   track.Descriptor{Name: "One"},
			wantAccepted: false,
		},
		{
			name:         "missing name",
			descriptor:   track.Descriptor{URI: "spotify:track:1"},
			wantAccepted: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NewRequiredFieldsFilter().Check(context.Background(), Request{Descriptor: tt.descriptor})

			assert.Equal(t, tt.wantAccepted, result.Accepted)
			if !tt.wantAccepted {
				assert.Equal(t, "missing_fields", result.Code)
			}
		})
	}
}

func TestNewChainFromSettings(t *testing.T) {
	chain, err := NewChainFromSettings(stubSettings{})
	require.NoError(t, err)
	require.Len(t, chain.Filters(), 1)
	assert.Equal(t, "required_fields_filter", chain.Filters()[0].Name())

	chain, err = NewChainFromSettings(stubSettings{"duplicate_track_filter": true})
	require.NoError(t, err)
	require.Len(t, chain.Filters(), 2)
	assert.Equal(t, "duplicate_track_filter", chain.Filters()[0].Name())
}

func TestChain_ExecuteStopsAtFirstRejection(t *testing.T) {
	chain, err := NewChainFromSettings(stubSettings{"duplicate_track_filter": true})
	require.NoError(t, err)

	existing := track.New(track.Descriptor{URI: "spotify:track:1", Name: "One"}, "Rock")

	result := chain.Execute(context.Background(), Request{
		Descriptor: track.Descriptor{URI: "spotify:track:1", Name: "One"},
		Queue:      []track.Track{existing},
	})
	assert.False(t, result.Accepted)
	assert.Equal(t, "duplicate_track", result.Code)
	assert.Equal(t, "duplicate_track_filter", result.Filter)

	result = chain.Execute(context.Background(), Request{
		Descriptor: track.Descriptor{URI: "spotify:track:2", Name: "Two"},
		Queue:      []track.Track{existing},
	})
	assert.True(t, result.Accepted)
}

func TestRegisteredNames(t *testing.T) {
	assert.Equal(t, []string{"duplicate_track_filter", "required_fields_filter"}, RegisteredNames())
	assert.True(t, IsRequired("required_fields_filter"))
	assert.False(t, IsRequired("duplicate_track_filter"))
	assert.Len(t, GetRegistered(), 2)
}
