package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/mkim-dev/ailab-docs/internal/chunker"
	"github.com/mkim-dev/ailab-docs/internal/core/domain"
	"github.com/mkim-dev/ailab-docs/internal/core/ports/driven"
	"github.com/mkim-dev/ailab-docs/internal/core/ports/driving"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// Default ingestion parameters.
const (
	// DefaultMaxUploadBytes caps accepted file size.
	DefaultMaxUploadBytes = 10 << 20 // 10 MiB

	// DefaultRetention is how long documents live before the sweeper
	// removes them.
	DefaultRetention = 30 * 24 * time.Hour

	// DefaultEmbedConcurrency bounds parallel embedding requests.
	DefaultEmbedConcurrency = 4

	// DefaultEmbedBatchSize is how many chunks go into one embedding
	// request.
	DefaultEmbedBatchSize = 16

	// DefaultEmbedRate limits embedding requests per second across the
	// whole pipeline.
	DefaultEmbedRate = rate.Limit(5)
)

// IngestService runs the document ingestion pipeline:
// extract -> chunk -> embed -> persist.
type IngestService struct {
	docStore   driven.DocumentStore
	blobStore  driven.BlobStore
	extractors driven.ExtractorRegistry
	chunker    *chunker.Chunker
	embedder   driven.EmbeddingService
	log        *slog.Logger

	maxUploadBytes   int64
	retention        time.Duration
	embedConcurrency int
	embedBatchSize   int
	limiter          *rate.Limiter

	now func() time.Time
}

// IngestOption configures an IngestService.
type IngestOption func(*IngestService)

// WithMaxUploadBytes overrides the accepted file size cap.
func WithMaxUploadBytes(n int64) IngestOption {
	return func(s *IngestService) { s.maxUploadBytes = n }
}

// WithRetention overrides the document lifetime.
func WithRetention(d time.Duration) IngestOption {
	return func(s *IngestService) { s.retention = d }
}

// WithEmbedConcurrency overrides the parallel embedding bound.
func WithEmbedConcurrency(n int) IngestOption {
	return func(s *IngestService) { s.embedConcurrency = n }
}

// WithEmbedRate overrides the embedding request rate limit.
func WithEmbedRate(r rate.Limit) IngestOption {
	return func(s *IngestService) { s.limiter = rate.NewLimiter(r, 1) }
}

// NewIngestService creates a new ingestion service.
func NewIngestService(
	docStore driven.DocumentStore,
	blobStore driven.BlobStore,
	extractors driven.ExtractorRegistry,
	chk *chunker.Chunker,
	embedder driven.EmbeddingService,
	log *slog.Logger,
	opts ...IngestOption,
) *IngestService {
	s := &IngestService{
		docStore:         docStore,
		blobStore:        blobStore,
		extractors:       extractors,
		chunker:          chk,
		embedder:         embedder,
		log:              log,
		maxUploadBytes:   DefaultMaxUploadBytes,
		retention:        DefaultRetention,
		embedConcurrency: DefaultEmbedConcurrency,
		embedBatchSize:   DefaultEmbedBatchSize,
		limiter:          rate.NewLimiter(DefaultEmbedRate, 1),
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	return s
}

// Accept validates an upload, stores the raw blob and creates the
// document in pending state. Processing is scheduled by the caller.
func (s *IngestService) Accept(ctx context.Context, ownerID, filename string, kind domain.ContentKind, data []byte) (*domain.Document, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("%w: owner id is required", domain.ErrInvalidInput)
	}
	if filename == "" {
		return nil, fmt.Errorf("%w: filename is required", domain.ErrInvalidInput)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty file", domain.ErrInvalidInput)
	}
	if int64(len(data)) > s.maxUploadBytes {
		return nil, fmt.Errorf("%w: %d bytes exceeds limit of %d", domain.ErrFileTooLarge, len(data), s.maxUploadBytes)
	}
	if !kind.IsValid() || !s.supportsKind(kind) {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedKind, kind)
	}

	now := s.now()
	doc := &domain.Document{
		ID:        uuid.NewString(),
		Filename:  filename,
		Kind:      kind,
		SizeBytes: int64(len(data)),
		OwnerID:   ownerID,
		Status:    domain.StatusPending,
		CreatedAt: now,
		ExpiresAt: now.Add(s.retention),
	}

	// Blob before record: a blob without a record is invisible garbage,
	// a record without a blob is a broken document.
	if err := s.blobStore.Save(ctx, doc.ID, data); err != nil {
		return nil, fmt.Errorf("saving blob: %w", err)
	}
	if err := s.docStore.CreateDocument(ctx, doc); err != nil {
		if delErr := s.blobStore.Delete(ctx, doc.ID); delErr != nil {
			s.log.Error("orphaned blob cleanup failed", "document_id", doc.ID, "error", delErr)
		}
		return nil, fmt.Errorf("creating document: %w", err)
	}

	s.log.Info("upload accepted",
		"document_id", doc.ID,
		"filename", filename,
		"kind", kind.String(),
		"size_bytes", doc.SizeBytes,
		"owner_id", ownerID)

	return doc, nil
}

func (s *IngestService) supportsKind(kind domain.ContentKind) bool {
	for _, k := range s.extractors.Supported() {
		if k == kind {
			return true
		}
	}
	return false
}

// Run executes one ingestion attempt. Only the attempt that wins the
// pending->processing claim proceeds; a duplicate trigger no-ops.
func (s *IngestService) Run(ctx context.Context, documentID string) error {
	if err := s.docStore.ClaimProcessing(ctx, documentID); err != nil {
		if errors.Is(err, domain.ErrAlreadyClaimed) {
			s.log.Debug("ingestion already claimed", "document_id", documentID)
			return nil
		}
		return err
	}

	if err := s.process(ctx, documentID); err != nil {
		s.fail(ctx, documentID, err)
		return err
	}
	return nil
}

// process runs the pipeline steps for a claimed document.
func (s *IngestService) process(ctx context.Context, documentID string) error {
	doc, err := s.docStore.GetDocument(ctx, documentID)
	if err != nil {
		return fmt.Errorf("loading document: %w", err)
	}

	data, err := s.blobStore.Load(ctx, documentID)
	if err != nil {
		return fmt.Errorf("loading blob: %w", err)
	}

	text, err := s.extractors.Extract(ctx, data, doc.Kind)
	if err != nil {
		return fmt.Errorf("extracting text: %w", err)
	}

	chunks := s.chunker.Chunk(documentID, text)
	if len(chunks) == 0 {
		return fmt.Errorf("%w: no chunks produced", domain.ErrExtractionFailed)
	}

	if err := s.embedChunks(ctx, chunks); err != nil {
		return fmt.Errorf("embedding chunks: %w", err)
	}

	if err := s.docStore.SaveChunks(ctx, chunks); err != nil {
		return fmt.Errorf("saving chunks: %w", err)
	}

	wordCount := len(strings.Fields(text))
	if err := s.docStore.MarkCompleted(ctx, documentID, wordCount, len(chunks)); err != nil {
		return fmt.Errorf("completing document: %w", err)
	}

	s.log.Info("ingestion completed",
		"document_id", documentID,
		"chunks", len(chunks),
		"words", wordCount)

	return nil
}

// embedChunks fills in chunk embeddings, batching requests and bounding
// parallelism. Batches cover disjoint index ranges, so goroutines write
// without coordination.
func (s *IngestService) embedChunks(ctx context.Context, chunks []domain.Chunk) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.embedConcurrency)

	for start := 0; start < len(chunks); start += s.embedBatchSize {
		end := start + s.embedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		g.Go(func() error {
			if err := s.limiter.Wait(gctx); err != nil {
				return err
			}

			texts := make([]string, len(batch))
			for i, chunk := range batch {
				texts[i] = chunk.Content
			}

			vectors, err := s.embedder.EmbedBatch(gctx, texts)
			if err != nil {
				return err
			}
			if len(vectors) != len(batch) {
				return fmt.Errorf("got %d embeddings for %d chunks", len(vectors), len(batch))
			}

			for i := range batch {
				batch[i].Embedding = vectors[i]
			}
			return nil
		})
	}

	return g.Wait()
}

// fail records the terminal error state. The original pipeline error is
// what callers see; a failure to record it is only logged.
func (s *IngestService) fail(ctx context.Context, documentID string, cause error) {
	s.log.Error("ingestion failed", "document_id", documentID, "error", cause)

	if err := s.docStore.MarkError(ctx, documentID, cause.Error()); err != nil {
		s.log.Error("recording ingestion failure", "document_id", documentID, "error", err)
	}
}
