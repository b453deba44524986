// Package filter provides the admission filter chain for addTrack.
package filter

import (
	"context"
	"sort"

	"github.com/KuotenoAshiato/spotify-jukebox/internal/domain/track"
)

// Request is a track submitted to a room.
type Request struct {
	RoomID     string
	Descriptor track.Descriptor
	Queue      []track.Track // the room's queue at admission time; read-only
}

// Result represents the result of a filter check.
type Result struct {
	Accepted bool
	Code     string // e.g., "missing_fields", "duplicate_track"
	Filter   string // name of the rejecting filter
}

// Accept returns an accepted result.
func Accept() Result {
	return Result{Accepted: true}
}

// Reject returns a rejected result with the given code.
func Reject(code string) Result {
	return Result{Accepted: false, Code: code}
}

// Filter is the interface for admission filters.
type Filter interface {
	// Name returns the filter name (used in config).
	Name() string
	// Description returns a human-readable description.
	Description() string
	// ReturnCodes returns the codes this filter can return.
	ReturnCodes() []string
	// ValidateConfig validates the filter configuration.
	ValidateConfig(settings map[string]any) error
	// Check performs the filter check.
	Check(ctx context.Context, req Request) Result
}

// Factory builds a filter.
type Factory func() Filter

type registration struct {
	factory  Factory
	required bool
}

// registry holds registered filter factories.
var registry = make(map[string]registration)

// Register registers an optional filter factory, enabled through config.
func Register(name string, factory Factory) {
	registry[name] = registration{factory: factory}
}

// RegisterRequired registers a filter that is always part of the chain.
func RegisterRequired(name string, factory Factory) {
	registry[name] = registration{factory: factory, required: true}
}

// GetRegistered returns all registered filter factories.
func GetRegistered() map[string]Factory {
	out := make(map[string]Factory, len(registry))
	for name, r := range registry {
		out[name] = r.factory
	}
	return out
}

// IsRequired reports whether the named filter is always enabled.
func IsRequired(name string) bool {
	return registry[name].required
}

// RegisteredNames returns the registered filter names, sorted.
func RegisteredNames() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
