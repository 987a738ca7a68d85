package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/mkim-dev/ailab-docs/internal/core/domain"
	"github.com/mkim-dev/ailab-docs/internal/core/ports/driven"
	"github.com/mkim-dev/ailab-docs/internal/core/ports/driving"
)

// Ensure SearchService implements the interface.
var _ driving.SearchService = (*SearchService)(nil)

// Default retrieval parameters.
const (
	// DefaultMinSimilarity excludes weak matches entirely; a query with
	// no relevant content returns nothing rather than noise.
	DefaultMinSimilarity = 0.25

	// DefaultSearchLimit is the top-k when the caller does not specify.
	DefaultSearchLimit = 5
)

// SearchService performs similarity search over stored chunk vectors.
type SearchService struct {
	docStore      driven.DocumentStore
	embedder      driven.EmbeddingService
	minSimilarity float64
	defaultLimit  int
	log           *slog.Logger
}

// SearchOption configures a SearchService.
type SearchOption func(*SearchService)

// WithMinSimilarity overrides the similarity cutoff.
func WithMinSimilarity(min float64) SearchOption {
	return func(s *SearchService) { s.minSimilarity = min }
}

// WithDefaultLimit overrides the default top-k.
func WithDefaultLimit(limit int) SearchOption {
	return func(s *SearchService) { s.defaultLimit = limit }
}

// NewSearchService creates a new search service.
func NewSearchService(docStore driven.DocumentStore, embedder driven.EmbeddingService, log *slog.Logger, opts ...SearchOption) *SearchService {
	s := &SearchService{
		docStore:      docStore,
		embedder:      embedder,
		minSimilarity: DefaultMinSimilarity,
		defaultLimit:  DefaultSearchLimit,
		log:           log,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	return s
}

// Search embeds the query and scores it against stored chunk vectors.
func (s *SearchService) Search(ctx context.Context, query string, opts driving.SearchOptions) ([]domain.ScoredChunk, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.ScoredChunk{}, nil
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = s.defaultLimit
	}

	queryVector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	chunks, err := s.docStore.ListEmbeddedChunks(ctx, opts.DocumentID)
	if err != nil {
		return nil, fmt.Errorf("loading chunks: %w", err)
	}

	scored := make([]domain.ScoredChunk, 0, len(chunks))
	for _, chunk := range chunks {
		if len(chunk.Embedding) == 0 {
			continue
		}
		if len(chunk.Embedding) != len(queryVector) {
			return nil, fmt.Errorf("%w: stored %d dimensions, query %d",
				domain.ErrDimensionMismatch, len(chunk.Embedding), len(queryVector))
		}

		similarity := cosineSimilarity(queryVector, chunk.Embedding)
		if similarity < s.minSimilarity {
			continue
		}
		scored = append(scored, domain.ScoredChunk{
			Chunk:      chunk,
			Similarity: similarity,
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Similarity > scored[j].Similarity
	})
	if len(scored) > limit {
		scored = scored[:limit]
	}

	s.log.Debug("search completed",
		"candidates", len(chunks),
		"results", len(scored),
		"document_id", opts.DocumentID)

	return scored, nil
}

// cosineSimilarity computes the cosine of the angle between two vectors
// of equal length. Zero vectors score zero.
func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
