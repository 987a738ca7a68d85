package driven

import (
	"context"

	"github.com/mkim-dev/ailab-docs/internal/core/domain"
)

// Extractor converts a raw uploaded byte stream into plain text.
// Each extractor handles one content kind (e.g., PDF, DOCX).
// Extractors are pure: no side effects, no suspension.
type Extractor interface {
	// Kind returns the content kind this extractor handles.
	Kind() domain.ContentKind

	// Extract converts raw bytes into plain text. An empty or
	// whitespace-only result is a failure (domain.ErrExtractionFailed),
	// not a success with zero chunks, because a document with no usable
	// text cannot be embedded.
	Extract(ctx context.Context, data []byte) (string, error)
}

// ExtractorRegistry selects the extractor for a declared content kind.
type ExtractorRegistry interface {
	// Extract dispatches to the extractor registered for kind.
	// Returns domain.ErrUnsupportedKind for unknown kinds.
	Extract(ctx context.Context, data []byte, kind domain.ContentKind) (string, error)

	// Supported returns the registered content kinds.
	Supported() []domain.ContentKind
}
