package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrForbidden indicates the requesting client does not own the
	// entity it is acting on.
	ErrForbidden = errors.New("forbidden")

	// Upload and extraction errors. These are input errors, reported
	// synchronously to the caller and never retried automatically.

	// ErrUnsupportedKind indicates an unknown or disallowed content kind.
	ErrUnsupportedKind = errors.New("unsupported content kind")

	// ErrFileTooLarge indicates the upload exceeds the configured byte limit.
	ErrFileTooLarge = errors.New("file too large")

	// ErrExtractionFailed indicates the extractor could not produce usable
	// text (corrupt input, or an empty/whitespace-only result).
	ErrExtractionFailed = errors.New("extraction failed")

	// Pipeline errors.

	// ErrAlreadyClaimed indicates another ingestion attempt won the
	// pending->processing race. The losing attempt must no-op.
	ErrAlreadyClaimed = errors.New("document already claimed for processing")

	// Quota errors. Limit exhaustion is an expected, user-visible outcome,
	// not a system fault.

	// ErrQuotaExceeded indicates the weekly limit for a resource kind is
	// exhausted.
	ErrQuotaExceeded = errors.New("quota exceeded")

	// Retrieval errors.

	// ErrDimensionMismatch indicates the query embedding's dimensionality
	// differs from stored chunk vectors. This is a configuration fault
	// (gateway/schema drift), distinct from an empty result set.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrEmbeddingUnavailable indicates the embedding service is not
	// configured or unreachable.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrLLMUnavailable indicates the completion service is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")
)
