package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mkim-dev/ailab-docs/internal/core/domain"
	"github.com/mkim-dev/ailab-docs/internal/core/ports/driven"
	"github.com/mkim-dev/ailab-docs/internal/core/ports/driving"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// DocumentService exposes owner-scoped document lookup and deletion.
type DocumentService struct {
	docStore  driven.DocumentStore
	blobStore driven.BlobStore
	log       *slog.Logger
}

// NewDocumentService creates a new document service.
func NewDocumentService(docStore driven.DocumentStore, blobStore driven.BlobStore, log *slog.Logger) *DocumentService {
	if log == nil {
		log = slog.Default()
	}
	return &DocumentService{
		docStore:  docStore,
		blobStore: blobStore,
		log:       log,
	}
}

// Get retrieves a document after verifying ownership. A foreign
// document and a missing one are indistinguishable to the caller.
func (s *DocumentService) Get(ctx context.Context, ownerID, documentID string) (*domain.Document, error) {
	doc, err := s.docStore.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.OwnerID != ownerID {
		return nil, domain.ErrForbidden
	}
	return doc, nil
}

// List returns the client's documents, newest first.
func (s *DocumentService) List(ctx context.Context, ownerID string) ([]domain.Document, error) {
	return s.docStore.ListByOwner(ctx, ownerID)
}

// Delete removes a document, its chunks and its blob after verifying
// ownership. Blob goes first so a crash between the two steps leaves a
// record that a later delete or the retention sweep can finish off.
func (s *DocumentService) Delete(ctx context.Context, ownerID, documentID string) error {
	doc, err := s.docStore.GetDocument(ctx, documentID)
	if err != nil {
		return err
	}
	if doc.OwnerID != ownerID {
		return domain.ErrForbidden
	}

	if err := s.blobStore.Delete(ctx, documentID); err != nil {
		return fmt.Errorf("deleting blob: %w", err)
	}
	if err := s.docStore.DeleteDocument(ctx, documentID); err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}

	s.log.Info("document deleted", "document_id", documentID, "owner_id", ownerID)
	return nil
}
