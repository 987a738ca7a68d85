package httpapi

import (
	"context"
	"log/slog"
	"time"

	"github.com/mkim-dev/ailab-docs/internal/core/domain"
	"github.com/mkim-dev/ailab-docs/internal/core/ports/driving"
)

// Default handler parameters.
const (
	// defaultMaxUploadBytes caps the multipart request body.
	defaultMaxUploadBytes = 10 << 20

	// defaultIngestTimeout bounds one detached ingestion run.
	defaultIngestTimeout = 10 * time.Minute
)

// Handler holds the services behind the HTTP endpoints.
type Handler struct {
	ingest    driving.IngestService
	documents driving.DocumentService
	question  driving.QuestionService
	quota     driving.QuotaService
	log       *slog.Logger

	// ping reports storage health for /healthz; nil skips the check.
	ping func() error

	maxUploadBytes int64
	ingestTimeout  time.Duration
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithMaxUploadBytes overrides the request body cap. Keep it in sync
// with the ingestion service's own limit.
func WithMaxUploadBytes(n int64) HandlerOption {
	return func(h *Handler) { h.maxUploadBytes = n }
}

// WithPing sets the storage health check for /healthz.
func WithPing(ping func() error) HandlerOption {
	return func(h *Handler) { h.ping = ping }
}

// WithIngestTimeout overrides the detached ingestion run timeout.
func WithIngestTimeout(d time.Duration) HandlerOption {
	return func(h *Handler) { h.ingestTimeout = d }
}

// NewHandler creates the HTTP handler set.
func NewHandler(
	ingest driving.IngestService,
	documents driving.DocumentService,
	question driving.QuestionService,
	quota driving.QuotaService,
	log *slog.Logger,
	opts ...HandlerOption,
) *Handler {
	h := &Handler{
		ingest:         ingest,
		documents:      documents,
		question:       question,
		quota:          quota,
		log:            log,
		maxUploadBytes: defaultMaxUploadBytes,
		ingestTimeout:  defaultIngestTimeout,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.log == nil {
		h.log = slog.Default()
	}
	return h
}

// scheduleIngestion runs the pipeline detached from the request so the
// upload response returns immediately. Failures are already recorded on
// the document; polling surfaces them.
func (h *Handler) scheduleIngestion(documentID string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), h.ingestTimeout)
		defer cancel()
		if err := h.ingest.Run(ctx, documentID); err != nil {
			h.log.Error("detached ingestion failed", "document_id", documentID, "error", err)
		}
	}()
}

// documentJSON is the public document representation.
type documentJSON struct {
	ID           string    `json:"id"`
	Filename     string    `json:"filename"`
	Kind         string    `json:"kind"`
	SizeBytes    int64     `json:"size_bytes"`
	Status       string    `json:"status"`
	ErrorMessage string    `json:"error_message,omitempty"`
	WordCount    *int      `json:"word_count,omitempty"`
	ChunkCount   *int      `json:"chunk_count,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	ExpiresAt    time.Time `json:"expires_at"`
}

func toDocumentJSON(doc *domain.Document) documentJSON {
	return documentJSON{
		ID:           doc.ID,
		Filename:     doc.Filename,
		Kind:         doc.Kind.String(),
		SizeBytes:    doc.SizeBytes,
		Status:       doc.Status.String(),
		ErrorMessage: doc.ErrorMessage,
		WordCount:    doc.WordCount,
		ChunkCount:   doc.ChunkCount,
		CreatedAt:    doc.CreatedAt,
		ExpiresAt:    doc.ExpiresAt,
	}
}

// sourceJSON is one retrieved chunk reference in an answer.
type sourceJSON struct {
	DocumentID string  `json:"document_id"`
	ChunkIndex int     `json:"chunk_index"`
	Content    string  `json:"content"`
	Similarity float64 `json:"similarity"`
}

func toSourcesJSON(sources []domain.ScoredChunk) []sourceJSON {
	out := make([]sourceJSON, len(sources))
	for i, source := range sources {
		out[i] = sourceJSON{
			DocumentID: source.Chunk.DocumentID,
			ChunkIndex: source.Chunk.Index,
			Content:    source.Chunk.Content,
			Similarity: source.Similarity,
		}
	}
	return out
}

// quotaDeniedJSON is the 429 body carrying current usage and reset time.
type quotaDeniedJSON struct {
	Error    string    `json:"error"`
	Resource string    `json:"resource"`
	Used     int       `json:"used"`
	Limit    int       `json:"limit"`
	ResetsAt time.Time `json:"resets_at"`
}

func quotaDenied(resource domain.ResourceKind, decision domain.QuotaDecision) quotaDeniedJSON {
	return quotaDeniedJSON{
		Error:    domain.ErrQuotaExceeded.Error(),
		Resource: resource.String(),
		Used:     decision.Used,
		Limit:    decision.Limit,
		ResetsAt: decision.ResetsAt,
	}
}
