package driving

import (
	"context"

	"github.com/mkim-dev/ailab-docs/internal/core/domain"
)

// DocumentService exposes document lookup and deletion to the API layer.
type DocumentService interface {
	// Get retrieves a document owned by the requesting client.
	// Returns domain.ErrForbidden when the owner does not match.
	Get(ctx context.Context, ownerID, documentID string) (*domain.Document, error)

	// List returns the client's documents, newest first.
	List(ctx context.Context, ownerID string) ([]domain.Document, error)

	// Delete removes a document, its chunks and its blob after verifying
	// ownership.
	Delete(ctx context.Context, ownerID, documentID string) error
}
