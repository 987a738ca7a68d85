package driving

import (
	"context"

	"github.com/mkim-dev/ailab-docs/internal/core/domain"
)

// IngestService runs the document ingestion pipeline:
// extract -> chunk -> embed -> persist.
type IngestService interface {
	// Accept validates an upload, creates the Document in pending state
	// and stores the raw blob. It does not start processing; callers
	// schedule Run separately so the upload response returns immediately.
	Accept(ctx context.Context, ownerID, filename string, kind domain.ContentKind, data []byte) (*domain.Document, error)

	// Run executes one ingestion attempt for a pending document. Only
	// the attempt that wins the pending->processing claim proceeds; a
	// duplicate trigger no-ops and returns nil. Any pipeline failure
	// transitions the document to error and is also returned.
	Run(ctx context.Context, documentID string) error
}
