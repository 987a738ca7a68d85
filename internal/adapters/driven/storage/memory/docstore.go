// Package memory provides in-memory implementations of the driven
// storage ports for testing.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mkim-dev/ailab-docs/internal/core/domain"
	"github.com/mkim-dev/ailab-docs/internal/core/ports/driven"
)

// Ensure DocumentStore implements the interface.
var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore is an in-memory implementation of driven.DocumentStore
// for testing.
type DocumentStore struct {
	mu     sync.RWMutex
	docs   map[string]domain.Document
	chunks map[string][]domain.Chunk
}

// NewDocumentStore creates a new in-memory document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		docs:   make(map[string]domain.Document),
		chunks: make(map[string][]domain.Chunk),
	}
}

// CreateDocument stores a new document in pending state.
func (s *DocumentStore) CreateDocument(_ context.Context, doc *domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if doc.Status == "" {
		doc.Status = domain.StatusPending
	}
	s.docs[doc.ID] = *doc
	return nil
}

// GetDocument retrieves a document by ID.
func (s *DocumentStore) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

// ListByOwner returns all documents owned by a client, newest first.
func (s *DocumentStore) ListByOwner(_ context.Context, ownerID string) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var docs []domain.Document
	for _, doc := range s.docs {
		if doc.OwnerID == ownerID {
			docs = append(docs, doc)
		}
	}
	sort.Slice(docs, func(i, j int) bool {
		return docs[i].CreatedAt.After(docs[j].CreatedAt)
	})
	return docs, nil
}

// ClaimProcessing atomically transitions pending -> processing.
func (s *DocumentStore) ClaimProcessing(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[id]
	if !ok {
		return domain.ErrNotFound
	}
	if doc.Status != domain.StatusPending {
		return domain.ErrAlreadyClaimed
	}
	doc.Status = domain.StatusProcessing
	s.docs[id] = doc
	return nil
}

// MarkCompleted transitions a processing document to completed.
func (s *DocumentStore) MarkCompleted(_ context.Context, id string, wordCount, chunkCount int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[id]
	if !ok || doc.Status != domain.StatusProcessing {
		return domain.ErrNotFound
	}
	doc.Status = domain.StatusCompleted
	doc.WordCount = &wordCount
	doc.ChunkCount = &chunkCount
	s.docs[id] = doc
	return nil
}

// MarkError transitions a document to the terminal error state.
func (s *DocumentStore) MarkError(_ context.Context, id string, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[id]
	if !ok || doc.Status.Terminal() {
		return domain.ErrNotFound
	}
	doc.Status = domain.StatusError
	doc.ErrorMessage = reason
	s.docs[id] = doc
	return nil
}

// SaveChunks stores all chunks for a document in one batch.
func (s *DocumentStore) SaveChunks(_ context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	docID := chunks[0].DocumentID
	s.chunks[docID] = append(s.chunks[docID], chunks...)
	return nil
}

// GetChunks retrieves all chunks for a document, ordered by index.
func (s *DocumentStore) GetChunks(_ context.Context, documentID string) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chunks := append([]domain.Chunk(nil), s.chunks[documentID]...)
	sort.Slice(chunks, func(i, j int) bool { return chunks[i].Index < chunks[j].Index })
	return chunks, nil
}

// ListEmbeddedChunks returns all chunks with embeddings, optionally
// restricted to one document.
func (s *DocumentStore) ListEmbeddedChunks(_ context.Context, documentID string) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Chunk
	for docID, chunks := range s.chunks {
		if documentID != "" && docID != documentID {
			continue
		}
		for _, chunk := range chunks {
			if len(chunk.Embedding) > 0 {
				out = append(out, chunk)
			}
		}
	}
	return out, nil
}

// DeleteDocument removes a document and its chunks.
func (s *DocumentStore) DeleteDocument(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, id)
	delete(s.chunks, id)
	return nil
}

// ListExpired returns documents whose ExpiresAt is before now.
func (s *DocumentStore) ListExpired(_ context.Context, now time.Time) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var expired []domain.Document
	for _, doc := range s.docs {
		if doc.ExpiresAt.Before(now) {
			expired = append(expired, doc)
		}
	}
	return expired, nil
}
