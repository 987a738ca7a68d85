package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/mkim-dev/ailab-docs/internal/core/domain"
)

// questionRequest is the POST /questions body.
type questionRequest struct {
	Question string `json:"question"`

	// DocumentID optionally scopes retrieval to one document.
	DocumentID string `json:"document_id,omitempty"`
}

// answerJSON is the question response.
type answerJSON struct {
	Answer  string       `json:"answer"`
	Sources []sourceJSON `json:"sources"`
}

// askQuestion consumes question quota, retrieves relevant chunks and
// returns a grounded answer.
func (h *Handler) askQuestion(w http.ResponseWriter, r *http.Request) {
	clientID := ClientID(r)

	var req questionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: malformed JSON body", domain.ErrInvalidInput))
		return
	}
	if req.Question == "" {
		writeError(w, fmt.Errorf("%w: question is required", domain.ErrInvalidInput))
		return
	}

	// Scoped questions must target the caller's own document. Checked
	// before quota so a rejected request never bills the client.
	if req.DocumentID != "" {
		if _, err := h.documents.Get(r.Context(), clientID, req.DocumentID); err != nil {
			writeError(w, err)
			return
		}
	}

	decision, err := h.quota.CheckAndConsume(r.Context(), clientID, domain.ResourceQuestion)
	if err != nil {
		writeError(w, err)
		return
	}
	if !decision.Allowed {
		writeJSON(w, http.StatusTooManyRequests, quotaDenied(domain.ResourceQuestion, decision))
		return
	}

	answer, err := h.question.Ask(r.Context(), req.Question, req.DocumentID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, answerJSON{
		Answer:  answer.Text,
		Sources: toSourcesJSON(answer.Sources),
	})
}
