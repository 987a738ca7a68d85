package domain

// ProcessingStatus tracks a document through the ingestion pipeline.
//
// The lifecycle only moves forward:
//
//	pending -> processing -> completed
//	pending -> error
//	processing -> error
//
// completed and error are terminal. A failed document is never restarted
// in place; retrying means re-running ingestion from scratch for a new
// upload.
type ProcessingStatus string

// Processing states.
const (
	// StatusPending is the initial state, set at upload acceptance before
	// any content is read.
	StatusPending ProcessingStatus = "pending"

	// StatusProcessing means one ingestion attempt has claimed the
	// document and is running the pipeline.
	StatusProcessing ProcessingStatus = "processing"

	// StatusCompleted means extraction, chunking, embedding and
	// persistence all succeeded.
	StatusCompleted ProcessingStatus = "completed"

	// StatusError means the pipeline failed at some step. The document's
	// ErrorMessage holds the reason.
	StatusError ProcessingStatus = "error"
)

// IsValid returns true if the status is recognised.
func (s ProcessingStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusError:
		return true
	default:
		return false
	}
}

// Terminal returns true if no further transitions are allowed.
func (s ProcessingStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// CanTransitionTo reports whether moving from s to next is a legal
// forward transition.
func (s ProcessingStatus) CanTransitionTo(next ProcessingStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusProcessing || next == StatusError
	case StatusProcessing:
		return next == StatusCompleted || next == StatusError
	default:
		return false
	}
}

// String returns the string representation.
func (s ProcessingStatus) String() string {
	return string(s)
}
