package driving

import (
	"context"

	"github.com/mkim-dev/ailab-docs/internal/core/domain"
)

// Answer is the outcome of a question over the caller's documents.
type Answer struct {
	// Text is the generated answer.
	Text string

	// Sources are the chunks the answer was grounded on, ordered by
	// descending similarity.
	Sources []domain.ScoredChunk
}

// QuestionService answers free-text questions using retrieved chunks as
// context for the completion gateway.
type QuestionService interface {
	// Ask retrieves relevant chunks (optionally scoped to one document)
	// and generates an answer. Quota enforcement happens at the boundary,
	// not here.
	Ask(ctx context.Context, query, documentID string) (*Answer, error)
}
