package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkim-dev/ailab-docs/internal/adapters/driven/storage/memory"
	"github.com/mkim-dev/ailab-docs/internal/core/domain"
)

type documentFixture struct {
	svc       *DocumentService
	docStore  *memory.DocumentStore
	blobStore *memory.BlobStore
}

func newDocumentFixture(t *testing.T) *documentFixture {
	t.Helper()
	f := &documentFixture{
		docStore:  memory.NewDocumentStore(),
		blobStore: memory.NewBlobStore(),
	}
	f.svc = NewDocumentService(f.docStore, f.blobStore, nil)
	return f
}

func (f *documentFixture) seed(t *testing.T, id, ownerID string) {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()
	require.NoError(t, f.docStore.CreateDocument(ctx, &domain.Document{
		ID:        id,
		Filename:  id + ".txt",
		Kind:      domain.ContentKindText,
		OwnerID:   ownerID,
		Status:    domain.StatusCompleted,
		CreatedAt: now,
		ExpiresAt: now.Add(30 * 24 * time.Hour),
	}))
	require.NoError(t, f.blobStore.Save(ctx, id, []byte("raw bytes of "+id)))
}

func TestDocumentGet(t *testing.T) {
	f := newDocumentFixture(t)
	f.seed(t, "doc-1", "owner-1")

	doc, err := f.svc.Get(context.Background(), "owner-1", "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "doc-1.txt", doc.Filename)
}

func TestDocumentGet_NotFound(t *testing.T) {
	f := newDocumentFixture(t)

	_, err := f.svc.Get(context.Background(), "owner-1", "no-such-doc")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentGet_ForeignOwner(t *testing.T) {
	f := newDocumentFixture(t)
	f.seed(t, "doc-1", "owner-1")

	_, err := f.svc.Get(context.Background(), "owner-2", "doc-1")
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestDocumentList_ScopedToOwner(t *testing.T) {
	f := newDocumentFixture(t)
	f.seed(t, "doc-1", "owner-1")
	f.seed(t, "doc-2", "owner-1")
	f.seed(t, "doc-3", "owner-2")

	docs, err := f.svc.List(context.Background(), "owner-1")
	require.NoError(t, err)
	assert.Len(t, docs, 2)

	docs, err = f.svc.List(context.Background(), "owner-3")
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestDocumentDelete(t *testing.T) {
	f := newDocumentFixture(t)
	f.seed(t, "doc-1", "owner-1")
	ctx := context.Background()

	require.NoError(t, f.svc.Delete(ctx, "owner-1", "doc-1"))

	_, err := f.docStore.GetDocument(ctx, "doc-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, 0, f.blobStore.Len())
}

func TestDocumentDelete_ForeignOwnerLeavesDocument(t *testing.T) {
	f := newDocumentFixture(t)
	f.seed(t, "doc-1", "owner-1")
	ctx := context.Background()

	err := f.svc.Delete(ctx, "owner-2", "doc-1")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.docStore.GetDocument(ctx, "doc-1")
	assert.NoError(t, err)
	assert.Equal(t, 1, f.blobStore.Len())
}

func TestDocumentDelete_NotFound(t *testing.T) {
	f := newDocumentFixture(t)

	err := f.svc.Delete(context.Background(), "owner-1", "no-such-doc")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
