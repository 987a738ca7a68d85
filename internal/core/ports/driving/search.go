package driving

import (
	"context"

	"github.com/mkim-dev/ailab-docs/internal/core/domain"
)

// SearchOptions configures a retrieval query.
type SearchOptions struct {
	// DocumentID restricts the search to one document's chunks when
	// non-empty.
	DocumentID string

	// Limit is the maximum number of results (top-k).
	Limit int
}

// SearchService performs similarity search over stored chunk vectors.
type SearchService interface {
	// Search embeds the query and returns chunks ordered by descending
	// similarity, truncated to the limit. Chunks scoring below the
	// configured minimum similarity are excluded entirely, so a query
	// with no relevant content returns an empty slice rather than weak
	// matches. Returns domain.ErrDimensionMismatch when the query vector
	// and stored vectors disagree on dimensionality.
	Search(ctx context.Context, query string, opts SearchOptions) ([]domain.ScoredChunk, error)
}
