package domain

import "time"

// ContentKind identifies the declared format of an uploaded file.
type ContentKind string

// Supported content kinds.
const (
	// ContentKindPDF is a PDF document.
	ContentKindPDF ContentKind = "pdf"

	// ContentKindDocx is a Word-processor OOXML document.
	ContentKindDocx ContentKind = "docx"

	// ContentKindText is a plain text document.
	ContentKindText ContentKind = "txt"
)

// IsValid returns true if the content kind is recognised.
func (k ContentKind) IsValid() bool {
	switch k {
	case ContentKindPDF, ContentKindDocx, ContentKindText:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (k ContentKind) String() string {
	return string(k)
}

// KindFromFilename derives a content kind from a filename extension.
// Returns false if the extension is not supported.
func KindFromFilename(name string) (ContentKind, bool) {
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] != '.' {
			continue
		}
		switch name[i+1:] {
		case "pdf":
			return ContentKindPDF, true
		case "docx":
			return ContentKindDocx, true
		case "txt", "text", "md":
			return ContentKindText, true
		default:
			return "", false
		}
	}
	return "", false
}

// Document represents an uploaded document and its processing lifecycle.
// It is created at upload acceptance, before any content is read, and is
// mutated only by the ingestion pipeline as processing advances.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// Filename is the original filename supplied at upload.
	Filename string

	// Kind is the declared content kind.
	Kind ContentKind

	// SizeBytes is the uploaded file size.
	SizeBytes int64

	// OwnerID is the opaque client identity that uploaded the document.
	OwnerID string

	// Status is the current processing state. See ProcessingStatus for
	// the allowed transitions.
	Status ProcessingStatus

	// ErrorMessage holds the failure reason when Status is StatusError.
	ErrorMessage string

	// WordCount is the total word count of the extracted text.
	// Nil until processing completes.
	WordCount *int

	// ChunkCount is the number of chunks produced. Nil until processing
	// completes.
	ChunkCount *int

	// CreatedAt is when the upload was accepted.
	CreatedAt time.Time

	// ExpiresAt is when the document becomes eligible for retention
	// sweeping. Always after CreatedAt.
	ExpiresAt time.Time
}

// Expired returns true if the document is past its retention window.
func (d *Document) Expired(now time.Time) bool {
	return now.After(d.ExpiresAt)
}

// Chunk is a bounded-size segment of a document's extracted text.
// It is the unit of embedding and retrieval. Chunks for a document form
// a dense zero-based sequence and are written in one atomic batch after
// all embeddings are computed.
type Chunk struct {
	// DocumentID links to the parent Document.
	DocumentID string

	// Index is the ordinal position within the document, starting at 0.
	Index int

	// Content is the text content of this chunk.
	Content string

	// Start is the byte offset of the chunk within the extracted text.
	Start int

	// End is the exclusive byte offset where the chunk ends, so the chunk
	// covers [Start, End) of the source text.
	End int

	// WordCount is the number of words in Content.
	WordCount int

	// Embedding is the vector representation for similarity search.
	Embedding []float32
}

// ScoredChunk pairs a chunk with its similarity score for a query.
type ScoredChunk struct {
	Chunk Chunk

	// Similarity is the cosine similarity against the query vector (0-1).
	Similarity float64
}
