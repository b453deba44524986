package filter

import (
	"context"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
)

// Chain executes filters in sequence.
type Chain struct {
	filters []Filter
}

// NewChain creates a new filter chain.
func NewChain() *Chain {
	return &Chain{
		filters: make([]Filter, 0),
	}
}

// Add adds a filter to the chain.
func (c *Chain) Add(f Filter) {
	c.filters = append(c.filters, f)
}

// Execute runs all filters in sequence.
// Returns immediately if any filter rejects the request.
func (c *Chain) Execute(ctx context.Context, req Request) Result {
	for _, f := range c.filters {
		result := f.Check(ctx, req)
		if !result.Accepted {
			result.Filter = f.Name()
			return result
		}
	}
	return Accept()
}

// Filters returns all filters in the chain.
func (c *Chain) Filters() []Filter {
	return c.filters
}

// Settings exposes filter configuration to NewChainFromSettings.
type Settings interface {
	IsFilterEnabled(name string) bool
	FilterSettings(name string) map[string]any
}

// NewChainFromSettings builds a chain of every required filter plus the
// optional filters enabled in settings, in name order.
func NewChainFromSettings(settings Settings) (*Chain, error) {
	chain := NewChain()
	for _, name := range RegisteredNames() {
		if !IsRequired(name) && !settings.IsFilterEnabled(name) {
			continue
		}
		f := registry[name].factory()
		if err := f.ValidateConfig(settings.FilterSettings(name)); err != nil {
			return nil, errors.Wrapf(err, "invalid settings for filter %s", name)
		}
		chain.Add(f)
		zlog.Info().Msgf("registered filter: name=%s required=%t", name, IsRequired(name))
	}
	return chain, nil
}
