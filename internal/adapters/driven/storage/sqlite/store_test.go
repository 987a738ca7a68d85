package sqlite

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkim-dev/ailab-docs/internal/core/domain"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) (*Store, func()) {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "ailab-test-*")
	require.NoError(t, err)

	store, err := NewStore(tempDir)
	require.NoError(t, err)
	require.NotNil(t, store)

	cleanup := func() {
		assert.NoError(t, store.Close())
		assert.NoError(t, os.RemoveAll(tempDir))
	}

	return store, cleanup
}

// createTestDocument inserts a pending document for use by chunk and
// status tests.
func createTestDocument(t *testing.T, store *Store, docID string) *domain.Document {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)
	doc := &domain.Document{
		ID:        docID,
		Filename:  docID + ".txt",
		Kind:      domain.ContentKindText,
		SizeBytes: 128,
		OwnerID:   "client-1",
		Status:    domain.StatusPending,
		CreatedAt: now,
		ExpiresAt: now.Add(30 * 24 * time.Hour),
	}
	require.NoError(t, store.DocumentStore().CreateDocument(ctx, doc))
	return doc
}

// ==================== Store Creation and Initialization Tests ====================

func TestNewStore_ErrorHandling(t *testing.T) {
	store, err := NewStore("")
	assert.Error(t, err)
	assert.Nil(t, store)
}

func TestNewStore_Success(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	assert.NotNil(t, store.db)
	assert.FileExists(t, store.Path())
	assert.NoError(t, store.Ping())
}

func TestNewStore_DirectoryCreation(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "ailab-test-*")
	require.NoError(t, err)
	defer os.RemoveAll(tempDir)

	nested := filepath.Join(tempDir, "deep", "data")
	store, err := NewStore(nested)
	require.NoError(t, err)
	defer store.Close()

	assert.DirExists(t, nested)
}

func TestNewStore_Migrations(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	for _, table := range []string{"documents", "chunks", "usage_records", "schema_migrations"} {
		var name string
		err := store.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		assert.NoError(t, err, "table %s should exist", table)
	}

	var version int
	require.NoError(t, store.db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version))
	assert.GreaterOrEqual(t, version, 1)
}

func TestNewStore_ForeignKeysEnabled(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	var enabled int
	require.NoError(t, store.db.QueryRow("PRAGMA foreign_keys").Scan(&enabled))
	assert.Equal(t, 1, enabled)
}

// ==================== Document Store Tests ====================

func TestDocumentStore_CreateAndGet(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	created := createTestDocument(t, store, "doc-1")

	got, err := store.DocumentStore().GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, created.Filename, got.Filename)
	assert.Equal(t, domain.ContentKindText, got.Kind)
	assert.Equal(t, domain.StatusPending, got.Status)
	assert.Equal(t, "client-1", got.OwnerID)
	assert.Empty(t, got.ErrorMessage)
	assert.Nil(t, got.WordCount)
	assert.Nil(t, got.ChunkCount)
	assert.True(t, created.CreatedAt.Equal(got.CreatedAt))
	assert.True(t, created.ExpiresAt.Equal(got.ExpiresAt))
}

func TestDocumentStore_GetDocument_NotFound(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	doc, err := store.DocumentStore().GetDocument(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Nil(t, doc)
}

func TestDocumentStore_ListByOwner(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	docStore := store.DocumentStore()

	now := time.Now().UTC().Truncate(time.Second)
	for i := 0; i < 3; i++ {
		doc := &domain.Document{
			ID:        fmt.Sprintf("doc-%d", i),
			Filename:  fmt.Sprintf("file-%d.txt", i),
			Kind:      domain.ContentKindText,
			SizeBytes: 10,
			OwnerID:   "owner-a",
			Status:    domain.StatusPending,
			CreatedAt: now.Add(time.Duration(i) * time.Minute),
			ExpiresAt: now.Add(24 * time.Hour),
		}
		require.NoError(t, docStore.CreateDocument(ctx, doc))
	}
	other := &domain.Document{
		ID: "doc-other", Filename: "x.txt", Kind: domain.ContentKindText, SizeBytes: 10,
		OwnerID: "owner-b", Status: domain.StatusPending,
		CreatedAt: now, ExpiresAt: now.Add(24 * time.Hour),
	}
	require.NoError(t, docStore.CreateDocument(ctx, other))

	docs, err := docStore.ListByOwner(ctx, "owner-a")
	require.NoError(t, err)
	require.Len(t, docs, 3)
	// Newest first
	assert.Equal(t, "doc-2", docs[0].ID)
	assert.Equal(t, "doc-0", docs[2].ID)

	empty, err := docStore.ListByOwner(ctx, "owner-unknown")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestDocumentStore_ClaimProcessing(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	docStore := store.DocumentStore()

	createTestDocument(t, store, "doc-claim")

	require.NoError(t, docStore.ClaimProcessing(ctx, "doc-claim"))

	got, err := docStore.GetDocument(ctx, "doc-claim")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusProcessing, got.Status)

	// Second claim loses the race
	err = docStore.ClaimProcessing(ctx, "doc-claim")
	assert.ErrorIs(t, err, domain.ErrAlreadyClaimed)
}

func TestDocumentStore_ClaimProcessing_NotFound(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	err := store.DocumentStore().ClaimProcessing(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentStore_ClaimProcessing_Concurrent(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	docStore := store.DocumentStore()

	createTestDocument(t, store, "doc-race")

	const attempts = 8
	results := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- docStore.ClaimProcessing(ctx, "doc-race")
		}()
	}
	wg.Wait()
	close(results)

	var wins, losses int
	for err := range results {
		switch {
		case err == nil:
			wins++
		case assert.ErrorIs(t, err, domain.ErrAlreadyClaimed):
			losses++
		}
	}
	assert.Equal(t, 1, wins, "exactly one claim should succeed")
	assert.Equal(t, attempts-1, losses)
}

func TestDocumentStore_MarkCompleted(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	docStore := store.DocumentStore()

	createTestDocument(t, store, "doc-done")
	require.NoError(t, docStore.ClaimProcessing(ctx, "doc-done"))
	require.NoError(t, docStore.MarkCompleted(ctx, "doc-done", 420, 3))

	got, err := docStore.GetDocument(ctx, "doc-done")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, got.Status)
	require.NotNil(t, got.WordCount)
	require.NotNil(t, got.ChunkCount)
	assert.Equal(t, 420, *got.WordCount)
	assert.Equal(t, 3, *got.ChunkCount)
}

func TestDocumentStore_MarkCompleted_RequiresProcessing(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	docStore := store.DocumentStore()

	// Still pending, never claimed
	createTestDocument(t, store, "doc-pending")
	err := docStore.MarkCompleted(ctx, "doc-pending", 1, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentStore_MarkError(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	docStore := store.DocumentStore()

	createTestDocument(t, store, "doc-fail")
	require.NoError(t, docStore.ClaimProcessing(ctx, "doc-fail"))
	require.NoError(t, docStore.MarkError(ctx, "doc-fail", "extraction produced no text"))

	got, err := docStore.GetDocument(ctx, "doc-fail")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusError, got.Status)
	assert.Equal(t, "extraction produced no text", got.ErrorMessage)
}

func TestDocumentStore_MarkError_FromPending(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	docStore := store.DocumentStore()

	createTestDocument(t, store, "doc-early-fail")
	require.NoError(t, docStore.MarkError(ctx, "doc-early-fail", "unreadable file"))

	got, err := docStore.GetDocument(ctx, "doc-early-fail")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusError, got.Status)
}

func TestDocumentStore_MarkError_TerminalIsStable(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	docStore := store.DocumentStore()

	createTestDocument(t, store, "doc-terminal")
	require.NoError(t, docStore.ClaimProcessing(ctx, "doc-terminal"))
	require.NoError(t, docStore.MarkCompleted(ctx, "doc-terminal", 10, 1))

	// Completed is terminal; a late error report must not flip it.
	err := docStore.MarkError(ctx, "doc-terminal", "late failure")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	got, err := docStore.GetDocument(ctx, "doc-terminal")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, got.Status)
}

func TestDocumentStore_SaveAndGetChunks(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	docStore := store.DocumentStore()

	createTestDocument(t, store, "doc-chunks")

	chunks := []domain.Chunk{
		{DocumentID: "doc-chunks", Index: 0, Content: "first chunk", Start: 0, End: 11, WordCount: 2, Embedding: []float32{0.1, 0.2, 0.3}},
		{DocumentID: "doc-chunks", Index: 1, Content: "second chunk", Start: 8, End: 20, WordCount: 2, Embedding: []float32{0.4, 0.5, 0.6}},
	}
	require.NoError(t, docStore.SaveChunks(ctx, chunks))

	got, err := docStore.GetChunks(ctx, "doc-chunks")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 0, got[0].Index)
	assert.Equal(t, "first chunk", got[0].Content)
	assert.Equal(t, 0, got[0].Start)
	assert.Equal(t, 11, got[0].End)
	assert.InDeltaSlice(t, []float32{0.1, 0.2, 0.3}, got[0].Embedding, 1e-6)
	assert.Equal(t, 1, got[1].Index)
	assert.InDeltaSlice(t, []float32{0.4, 0.5, 0.6}, got[1].Embedding, 1e-6)
}

func TestDocumentStore_SaveChunks_Empty(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	assert.NoError(t, store.DocumentStore().SaveChunks(context.Background(), nil))
}

func TestDocumentStore_ListEmbeddedChunks(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	docStore := store.DocumentStore()

	createTestDocument(t, store, "doc-a")
	createTestDocument(t, store, "doc-b")
	require.NoError(t, docStore.SaveChunks(ctx, []domain.Chunk{
		{DocumentID: "doc-a", Index: 0, Content: "a0", Start: 0, End: 2, WordCount: 1, Embedding: []float32{1, 0}},
		{DocumentID: "doc-a", Index: 1, Content: "a1", Start: 2, End: 4, WordCount: 1, Embedding: []float32{0, 1}},
	}))
	require.NoError(t, docStore.SaveChunks(ctx, []domain.Chunk{
		{DocumentID: "doc-b", Index: 0, Content: "b0", Start: 0, End: 2, WordCount: 1, Embedding: []float32{1, 1}},
	}))

	all, err := docStore.ListEmbeddedChunks(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	onlyA, err := docStore.ListEmbeddedChunks(ctx, "doc-a")
	require.NoError(t, err)
	require.Len(t, onlyA, 2)
	for _, chunk := range onlyA {
		assert.Equal(t, "doc-a", chunk.DocumentID)
	}
}

func TestDocumentStore_DeleteDocument_CascadesChunks(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	docStore := store.DocumentStore()

	createTestDocument(t, store, "doc-del")
	require.NoError(t, docStore.SaveChunks(ctx, []domain.Chunk{
		{DocumentID: "doc-del", Index: 0, Content: "gone soon", Start: 0, End: 9, WordCount: 2, Embedding: []float32{0.5}},
	}))

	require.NoError(t, docStore.DeleteDocument(ctx, "doc-del"))

	_, err := docStore.GetDocument(ctx, "doc-del")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	chunks, err := docStore.GetChunks(ctx, "doc-del")
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestDocumentStore_DeleteDocument_NonExistent(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	// Idempotent: deleting a missing document is not an error.
	assert.NoError(t, store.DocumentStore().DeleteDocument(context.Background(), "missing"))
}

func TestDocumentStore_ListExpired(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	docStore := store.DocumentStore()

	now := time.Now().UTC().Truncate(time.Second)
	expired := &domain.Document{
		ID: "doc-old", Filename: "old.txt", Kind: domain.ContentKindText, SizeBytes: 10,
		OwnerID: "owner", Status: domain.StatusCompleted,
		CreatedAt: now.Add(-48 * time.Hour), ExpiresAt: now.Add(-time.Hour),
	}
	fresh := &domain.Document{
		ID: "doc-new", Filename: "new.txt", Kind: domain.ContentKindText, SizeBytes: 10,
		OwnerID: "owner", Status: domain.StatusCompleted,
		CreatedAt: now, ExpiresAt: now.Add(24 * time.Hour),
	}
	require.NoError(t, docStore.CreateDocument(ctx, expired))
	require.NoError(t, docStore.CreateDocument(ctx, fresh))

	docs, err := docStore.ListExpired(ctx, now)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "doc-old", docs[0].ID)
}

// ==================== Usage Store Tests ====================

func TestUsageStore_ConsumeIfUnder(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	usage := store.UsageStore()

	week := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	const limit = 3

	for i := 1; i <= limit; i++ {
		used, allowed, err := usage.ConsumeIfUnder(ctx, "client-1", domain.ResourceQuestion, week, limit)
		require.NoError(t, err)
		assert.True(t, allowed)
		assert.Equal(t, i, used)
	}

	used, allowed, err := usage.ConsumeIfUnder(ctx, "client-1", domain.ResourceQuestion, week, limit)
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Equal(t, limit, used, "denied attempt must not increment")
}

func TestUsageStore_ConsumeIfUnder_IndependentResources(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	usage := store.UsageStore()

	week := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)

	used, allowed, err := usage.ConsumeIfUnder(ctx, "client-1", domain.ResourceQuestion, week, 1)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, 1, used)

	// Exhausting questions leaves uploads untouched
	used, allowed, err = usage.ConsumeIfUnder(ctx, "client-1", domain.ResourceUpload, week, 1)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, 1, used)
}

func TestUsageStore_ConsumeIfUnder_IndependentWeeks(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	usage := store.UsageStore()

	week1 := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	week2 := week1.AddDate(0, 0, 7)

	_, allowed, err := usage.ConsumeIfUnder(ctx, "client-1", domain.ResourceQuestion, week1, 1)
	require.NoError(t, err)
	require.True(t, allowed)

	// New week, fresh counter
	used, allowed, err := usage.ConsumeIfUnder(ctx, "client-1", domain.ResourceQuestion, week2, 1)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, 1, used)
}

func TestUsageStore_ConsumeIfUnder_Concurrent(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	usage := store.UsageStore()

	week := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	const limit = 5
	const attempts = 20

	type outcome struct {
		used    int
		allowed bool
	}

	var wg sync.WaitGroup
	results := make(chan outcome, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			used, allowed, err := usage.ConsumeIfUnder(ctx, "client-1", domain.ResourceQuestion, week, limit)
			assert.NoError(t, err)
			results <- outcome{used: used, allowed: allowed}
		}()
	}
	wg.Wait()
	close(results)

	// Each admitted call must see the count produced by its own
	// increment, so the admitted counts are exactly 1..limit.
	counts := make(map[int]int)
	var admitted int
	for res := range results {
		if res.allowed {
			admitted++
			counts[res.used]++
		}
	}
	assert.Equal(t, limit, admitted, "exactly limit consumptions admitted under race")
	for i := 1; i <= limit; i++ {
		assert.Equal(t, 1, counts[i], "count %d claimed exactly once", i)
	}

	final, err := usage.GetUsage(ctx, "client-1", domain.ResourceQuestion, week)
	require.NoError(t, err)
	assert.Equal(t, limit, final)
}

func TestUsageStore_GetUsage_MissingRowIsZero(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	week := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	used, err := store.UsageStore().GetUsage(context.Background(), "nobody", domain.ResourceUpload, week)
	require.NoError(t, err)
	assert.Zero(t, used)
}

func TestUsageStore_PruneBefore(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	usage := store.UsageStore()

	oldWeek := time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC)
	newWeek := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)

	_, _, err := usage.ConsumeIfUnder(ctx, "client-1", domain.ResourceQuestion, oldWeek, 10)
	require.NoError(t, err)
	_, _, err = usage.ConsumeIfUnder(ctx, "client-1", domain.ResourceQuestion, newWeek, 10)
	require.NoError(t, err)

	removed, err := usage.PruneBefore(ctx, newWeek)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	// Current week survives
	used, err := usage.GetUsage(ctx, "client-1", domain.ResourceQuestion, newWeek)
	require.NoError(t, err)
	assert.Equal(t, 1, used)
}

// ==================== Helper Tests ====================

func TestFloat32SliceRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		input []float32
	}{
		{"nil slice", nil},
		{"single value", []float32{3.14}},
		{"typical embedding", []float32{0.1, -0.5, 2.75, 0, 1e-9}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := bytesToFloat32Slice(float32SliceToBytes(tt.input))
			if tt.input == nil {
				assert.Nil(t, got)
				return
			}
			assert.Equal(t, tt.input, got)
		})
	}
}

func TestWeekKey(t *testing.T) {
	ts := time.Date(2026, 8, 24, 15, 30, 0, 0, time.UTC)
	assert.Equal(t, "2026-08-24", weekKey(ts))
}
