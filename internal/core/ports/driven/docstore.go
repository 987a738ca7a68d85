package driven

import (
	"context"
	"time"

	"github.com/mkim-dev/ailab-docs/internal/core/domain"
)

// DocumentStore persists documents, chunks and processing status.
// Backed by SQLite. It is the single source of truth for document
// status; all status transitions happen here.
type DocumentStore interface {
	// CreateDocument stores a new document in pending state.
	CreateDocument(ctx context.Context, doc *domain.Document) error

	// GetDocument retrieves a document by ID.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// ListByOwner returns all documents owned by a client, newest first.
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Document, error)

	// ClaimProcessing atomically transitions a document from pending to
	// processing. Returns domain.ErrAlreadyClaimed if the document is not
	// in pending state (another attempt won the race), or
	// domain.ErrNotFound if it does not exist. This must be a conditional
	// update at the storage layer, not an in-process lock.
	ClaimProcessing(ctx context.Context, id string) error

	// MarkCompleted transitions a processing document to completed and
	// records its word and chunk counts.
	MarkCompleted(ctx context.Context, id string, wordCount, chunkCount int) error

	// MarkError transitions a document to the terminal error state with
	// a failure reason.
	MarkError(ctx context.Context, id string, reason string) error

	// SaveChunks stores all chunks for a document in one atomic batch.
	// A mid-pipeline failure must never leave a partial chunk set.
	SaveChunks(ctx context.Context, chunks []domain.Chunk) error

	// GetChunks retrieves all chunks for a document, ordered by index.
	GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error)

	// ListEmbeddedChunks returns all chunks with embeddings, optionally
	// restricted to a single document when documentID is non-empty.
	// Chunk content is included for result hydration.
	ListEmbeddedChunks(ctx context.Context, documentID string) ([]domain.Chunk, error)

	// DeleteDocument removes a document; its chunks cascade.
	DeleteDocument(ctx context.Context, id string) error

	// ListExpired returns documents whose ExpiresAt is before now.
	ListExpired(ctx context.Context, now time.Time) ([]domain.Document, error)
}
