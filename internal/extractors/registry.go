package extractors

import (
	"context"

	"github.com/mkim-dev/ailab-docs/internal/core/domain"
	"github.com/mkim-dev/ailab-docs/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.ExtractorRegistry = (*Registry)(nil)

// Registry dispatches extraction to the extractor registered for a
// content kind.
type Registry struct {
	byKind map[domain.ContentKind]driven.Extractor
}

// NewRegistry creates a registry over the given extractors. A later
// registration for the same kind replaces an earlier one.
func NewRegistry(extractors ...driven.Extractor) *Registry {
	r := &Registry{
		byKind: make(map[domain.ContentKind]driven.Extractor, len(extractors)),
	}
	for _, e := range extractors {
		r.byKind[e.Kind()] = e
	}
	return r
}

// Extract converts raw bytes of the declared kind into plain text.
func (r *Registry) Extract(ctx context.Context, data []byte, kind domain.ContentKind) (string, error) {
	e, ok := r.byKind[kind]
	if !ok {
		return "", domain.ErrUnsupportedKind
	}
	return e.Extract(ctx, data)
}

// Supported returns the registered content kinds.
func (r *Registry) Supported() []domain.ContentKind {
	kinds := make([]domain.ContentKind, 0, len(r.byKind))
	for k := range r.byKind {
		kinds = append(kinds, k)
	}
	return kinds
}
