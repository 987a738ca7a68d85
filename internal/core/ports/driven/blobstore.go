package driven

import "context"

// BlobStore persists raw uploaded files. Blobs are written once at
// upload acceptance, read once by the ingestion pipeline, and deleted
// with their document.
type BlobStore interface {
	// Save stores the raw bytes for a document.
	Save(ctx context.Context, documentID string, data []byte) error

	// Load returns the raw bytes for a document.
	Load(ctx context.Context, documentID string) ([]byte, error)

	// Delete removes the blob for a document. Deleting a missing blob
	// is not an error.
	Delete(ctx context.Context, documentID string) error
}
