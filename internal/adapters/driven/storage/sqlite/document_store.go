package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mkim-dev/ailab-docs/internal/core/domain"
	"github.com/mkim-dev/ailab-docs/internal/core/ports/driven"
)

// documentStore implements driven.DocumentStore.
type documentStore struct {
	store *Store
}

var _ driven.DocumentStore = (*documentStore)(nil)

const documentColumns = `id, filename, kind, size_bytes, owner_id, status,
	error_message, word_count, chunk_count, created_at, expires_at`

// CreateDocument stores a new document in pending state.
func (s *documentStore) CreateDocument(ctx context.Context, doc *domain.Document) error {
	if doc.Status == "" {
		doc.Status = domain.StatusPending
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO documents (id, filename, kind, size_bytes, owner_id, status,
			error_message, word_count, chunk_count, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, doc.ID, doc.Filename, doc.Kind.String(), doc.SizeBytes, doc.OwnerID,
		doc.Status.String(), nullString(doc.ErrorMessage),
		nullInt(doc.WordCount), nullInt(doc.ChunkCount),
		doc.CreatedAt.UTC(), doc.ExpiresAt.UTC())

	if err != nil {
		return fmt.Errorf("creating document: %w", err)
	}
	return nil
}

// GetDocument retrieves a document by ID.
func (s *documentStore) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	row := s.store.db.QueryRowContext(ctx,
		"SELECT "+documentColumns+" FROM documents WHERE id = ?", id)

	return scanDocument(row)
}

// ListByOwner returns all documents owned by a client, newest first.
func (s *documentStore) ListByOwner(ctx context.Context, ownerID string) ([]domain.Document, error) {
	rows, err := s.store.db.QueryContext(ctx,
		"SELECT "+documentColumns+" FROM documents WHERE owner_id = ? ORDER BY created_at DESC",
		ownerID)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	return collectDocuments(rows)
}

// ClaimProcessing atomically transitions a document from pending to
// processing. The conditional update is what makes ingestion
// single-flight: of two racing attempts, exactly one sees a row change.
func (s *documentStore) ClaimProcessing(ctx context.Context, id string) error {
	res, err := s.store.db.ExecContext(ctx, `
		UPDATE documents SET status = ?
		WHERE id = ? AND status = ?
	`, domain.StatusProcessing.String(), id, domain.StatusPending.String())
	if err != nil {
		return fmt.Errorf("claiming document: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("claiming document: %w", err)
	}
	if affected == 1 {
		return nil
	}

	// Distinguish a lost race from a missing document
	if _, err := s.GetDocument(ctx, id); err != nil {
		return err
	}
	return domain.ErrAlreadyClaimed
}

// MarkCompleted transitions a processing document to completed.
func (s *documentStore) MarkCompleted(ctx context.Context, id string, wordCount, chunkCount int) error {
	res, err := s.store.db.ExecContext(ctx, `
		UPDATE documents SET status = ?, word_count = ?, chunk_count = ?
		WHERE id = ? AND status = ?
	`, domain.StatusCompleted.String(), wordCount, chunkCount,
		id, domain.StatusProcessing.String())
	if err != nil {
		return fmt.Errorf("completing document: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("completing document: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// MarkError transitions a document to the terminal error state.
// Reachable from both pending and processing; terminal states are left
// untouched so status never regresses.
func (s *documentStore) MarkError(ctx context.Context, id string, reason string) error {
	res, err := s.store.db.ExecContext(ctx, `
		UPDATE documents SET status = ?, error_message = ?
		WHERE id = ? AND status IN (?, ?)
	`, domain.StatusError.String(), reason, id,
		domain.StatusPending.String(), domain.StatusProcessing.String())
	if err != nil {
		return fmt.Errorf("marking document error: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("marking document error: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SaveChunks stores all chunks for a document in one transaction, so a
// mid-batch failure leaves no partial chunk set behind.
func (s *documentStore) SaveChunks(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (document_id, idx, content, start_offset, end_offset, word_count, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, chunk := range chunks {
		embeddingBlob := float32SliceToBytes(chunk.Embedding)

		if _, err := stmt.ExecContext(ctx, chunk.DocumentID, chunk.Index,
			chunk.Content, chunk.Start, chunk.End, chunk.WordCount,
			embeddingBlob); err != nil {
			return fmt.Errorf("saving chunk %d: %w", chunk.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// GetChunks retrieves all chunks for a document, ordered by index.
func (s *documentStore) GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT document_id, idx, content, start_offset, end_offset, word_count, embedding
		FROM chunks WHERE document_id = ?
		ORDER BY idx
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	return collectChunks(rows)
}

// ListEmbeddedChunks returns all chunks with embeddings, optionally
// restricted to one document.
func (s *documentStore) ListEmbeddedChunks(ctx context.Context, documentID string) ([]domain.Chunk, error) {
	query := `
		SELECT document_id, idx, content, start_offset, end_offset, word_count, embedding
		FROM chunks
	`
	var args []any
	if documentID != "" {
		query += " WHERE document_id = ?"
		args = append(args, documentID)
	}
	query += " ORDER BY document_id, idx"

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	return collectChunks(rows)
}

// DeleteDocument removes a document; chunks cascade via foreign key.
func (s *documentStore) DeleteDocument(ctx context.Context, id string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	return nil
}

// ListExpired returns documents whose retention window has passed.
func (s *documentStore) ListExpired(ctx context.Context, now time.Time) ([]domain.Document, error) {
	rows, err := s.store.db.QueryContext(ctx,
		"SELECT "+documentColumns+" FROM documents WHERE expires_at < ?", now.UTC())
	if err != nil {
		return nil, fmt.Errorf("querying expired documents: %w", err)
	}
	defer rows.Close()

	return collectDocuments(rows)
}

// ==================== Scan helpers ====================

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocumentFields(sc rowScanner) (*domain.Document, error) {
	var doc domain.Document
	var kind, status string
	var errorMessage sql.NullString
	var wordCount, chunkCount sql.NullInt64
	var createdAt, expiresAt sql.NullTime

	if err := sc.Scan(&doc.ID, &doc.Filename, &kind, &doc.SizeBytes, &doc.OwnerID,
		&status, &errorMessage, &wordCount, &chunkCount, &createdAt, &expiresAt); err != nil {
		return nil, err
	}

	doc.Kind = domain.ContentKind(kind)
	doc.Status = domain.ProcessingStatus(status)
	doc.ErrorMessage = errorMessage.String
	if wordCount.Valid {
		v := int(wordCount.Int64)
		doc.WordCount = &v
	}
	if chunkCount.Valid {
		v := int(chunkCount.Int64)
		doc.ChunkCount = &v
	}
	if createdAt.Valid {
		doc.CreatedAt = createdAt.Time
	}
	if expiresAt.Valid {
		doc.ExpiresAt = expiresAt.Time
	}

	return &doc, nil
}

func scanDocument(row *sql.Row) (*domain.Document, error) {
	doc, err := scanDocumentFields(row)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning document: %w", err)
	}
	return doc, nil
}

func collectDocuments(rows *sql.Rows) ([]domain.Document, error) {
	var docs []domain.Document //nolint:prealloc // size unknown from query
	for rows.Next() {
		doc, err := scanDocumentFields(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		docs = append(docs, *doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}

	return docs, nil
}

func collectChunks(rows *sql.Rows) ([]domain.Chunk, error) {
	var chunks []domain.Chunk //nolint:prealloc // size unknown from query
	for rows.Next() {
		var chunk domain.Chunk
		var embeddingBlob []byte
		if err := rows.Scan(&chunk.DocumentID, &chunk.Index, &chunk.Content,
			&chunk.Start, &chunk.End, &chunk.WordCount, &embeddingBlob); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		chunk.Embedding = bytesToFloat32Slice(embeddingBlob)
		chunks = append(chunks, chunk)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	return chunks, nil
}
