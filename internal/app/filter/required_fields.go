package filter

import (
	"context"

	"github.com/cockroachdb/errors"
)

// RequiredFieldsFilter rejects tracks without a URI or name.
type RequiredFieldsFilter struct{}

// NewRequiredFieldsFilter creates a new required fields filter.
func NewRequiredFieldsFilter() *RequiredFieldsFilter {
	return &RequiredFieldsFilter{}
}

// Name returns the filter name.
func (f *RequiredFieldsFilter) Name() string {
	return "required_fields_filter"
}

// Description returns the filter description.
func (f *RequiredFieldsFilter) Description() string {
	return "Rejects tracks without a URI or a name (always enabled)"
}

// ReturnCodes returns possible return codes.
func (f *RequiredFieldsFilter) ReturnCodes() []string {
	return []string{"missing_fields"}
}

// ValidateConfig validates the filter configuration.
func (f *RequiredFieldsFilter) ValidateConfig(settings map[string]any) error {
	if len(settings) > 0 {
		return errors.New("required_fields_filter takes no settings")
	}
	return nil
}

// Check checks the descriptor's required fields.
func (f *RequiredFieldsFilter) Check(ctx context.Context, req Request) Result {
	if err := req.Descriptor.Validate(); err != nil {
		return Reject("missing_fields")
	}
	return Accept()
}

func init() {
	RegisterRequired("required_fields_filter", func() Filter { return NewRequiredFieldsFilter() })
}
