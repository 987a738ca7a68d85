package blob

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkim-dev/ailab-docs/internal/core/domain"
)

func setupFileStore(t *testing.T) *FileStore {
	t.Helper()
	fs, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	return fs
}

func TestNewFileStore_RequiresDirectory(t *testing.T) {
	fs, err := NewFileStore("")
	assert.Error(t, err)
	assert.Nil(t, fs)
}

func TestNewFileStore_CreatesNestedDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "deep", "blobs")
	_, err := NewFileStore(dir)
	require.NoError(t, err)
	assert.DirExists(t, dir)
}

func TestFileStore_SaveAndLoad(t *testing.T) {
	fs := setupFileStore(t)
	ctx := context.Background()

	payload := []byte("raw upload bytes")
	require.NoError(t, fs.Save(ctx, "doc-1", payload))

	got, err := fs.Load(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestFileStore_Save_Overwrites(t *testing.T) {
	fs := setupFileStore(t)
	ctx := context.Background()

	require.NoError(t, fs.Save(ctx, "doc-1", []byte("first")))
	require.NoError(t, fs.Save(ctx, "doc-1", []byte("second")))

	got, err := fs.Load(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), got)
}

func TestFileStore_Save_NoTempLeftover(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFileStore(dir)
	require.NoError(t, err)

	require.NoError(t, fs.Save(context.Background(), "doc-1", []byte("data")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "doc-1.blob", entries[0].Name())
}

func TestFileStore_Load_NotFound(t *testing.T) {
	fs := setupFileStore(t)

	data, err := fs.Load(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Nil(t, data)
}

func TestFileStore_Delete(t *testing.T) {
	fs := setupFileStore(t)
	ctx := context.Background()

	require.NoError(t, fs.Save(ctx, "doc-1", []byte("data")))
	require.NoError(t, fs.Delete(ctx, "doc-1"))

	_, err := fs.Load(ctx, "doc-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// Second delete is a no-op
	assert.NoError(t, fs.Delete(ctx, "doc-1"))
}

func TestFileStore_RejectsUnsafeIDs(t *testing.T) {
	fs := setupFileStore(t)
	ctx := context.Background()

	for _, id := range []string{"", "../escape", "a/b", `a\b`} {
		err := fs.Save(ctx, id, []byte("x"))
		assert.ErrorIs(t, err, domain.ErrInvalidInput, "id %q", id)
	}
}
