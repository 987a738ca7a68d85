package blob

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mkim-dev/ailab-docs/internal/core/domain"
	"github.com/mkim-dev/ailab-docs/internal/core/ports/driven"
)

// FileStore keeps one file per document under a flat directory, named
// by document ID. IDs are UUIDs, so the name is always filesystem-safe;
// the check in blobPath is there to fail loudly if that ever changes.
type FileStore struct {
	dataDir string
}

var _ driven.BlobStore = (*FileStore)(nil)

// NewFileStore creates the blob directory if needed.
func NewFileStore(dataDir string) (*FileStore, error) {
	if dataDir == "" {
		return nil, fmt.Errorf("blob directory is required")
	}
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating blob directory: %w", err)
	}
	return &FileStore{dataDir: dataDir}, nil
}

// Save writes the blob via a temp file and atomic rename, so a crash
// mid-write never leaves a partial blob under the final name.
func (fs *FileStore) Save(ctx context.Context, documentID string, data []byte) error {
	path, err := fs.blobPath(documentID)
	if err != nil {
		return err
	}

	tmpPath := path + ".tmp"
	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating temp blob: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing blob: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("syncing blob: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing blob: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming blob: %w", err)
	}
	return nil
}

// Load returns the raw bytes for a document.
func (fs *FileStore) Load(ctx context.Context, documentID string) ([]byte, error) {
	path, err := fs.blobPath(documentID)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading blob: %w", err)
	}
	return data, nil
}

// Delete removes the blob. A missing blob is not an error, so retrying
// a half-finished cleanup is safe.
func (fs *FileStore) Delete(ctx context.Context, documentID string) error {
	path, err := fs.blobPath(documentID)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting blob: %w", err)
	}
	return nil
}

func (fs *FileStore) blobPath(documentID string) (string, error) {
	if documentID == "" || strings.ContainsAny(documentID, "/\\") || documentID != filepath.Base(documentID) {
		return "", fmt.Errorf("%w: invalid document id", domain.ErrInvalidInput)
	}
	return filepath.Join(fs.dataDir, documentID+".blob"), nil
}
