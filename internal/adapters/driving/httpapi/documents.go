package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mkim-dev/ailab-docs/internal/core/domain"
)

// uploadDocument accepts a multipart upload, consumes upload quota and
// schedules ingestion. Responds 202 with the pending document; the
// client polls for status.
func (h *Handler) uploadDocument(w http.ResponseWriter, r *http.Request) {
	clientID := ClientID(r)

	// Allow some slack over the file cap for multipart framing; the
	// exact file size check happens below, before any quota is spent.
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+64<<10)

	file, header, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, fmt.Errorf("%w: request body exceeds %d bytes", domain.ErrFileTooLarge, h.maxUploadBytes))
			return
		}
		writeError(w, fmt.Errorf("%w: multipart field %q is required", domain.ErrInvalidInput, "file"))
		return
	}
	defer file.Close()

	kind, ok := domain.KindFromFilename(header.Filename)
	if !ok {
		writeError(w, fmt.Errorf("%w: %q", domain.ErrUnsupportedKind, header.Filename))
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, fmt.Errorf("%w: request body exceeds %d bytes", domain.ErrFileTooLarge, h.maxUploadBytes))
			return
		}
		writeError(w, fmt.Errorf("reading upload: %w", err))
		return
	}

	// Reject invalid uploads before touching quota so a failed request
	// never bills the client.
	if len(data) == 0 {
		writeError(w, fmt.Errorf("%w: uploaded file is empty", domain.ErrInvalidInput))
		return
	}
	if int64(len(data)) > h.maxUploadBytes {
		writeError(w, fmt.Errorf("%w: file is %d bytes, limit is %d", domain.ErrFileTooLarge, len(data), h.maxUploadBytes))
		return
	}

	decision, err := h.quota.CheckAndConsume(r.Context(), clientID, domain.ResourceUpload)
	if err != nil {
		writeError(w, err)
		return
	}
	if !decision.Allowed {
		writeJSON(w, http.StatusTooManyRequests, quotaDenied(domain.ResourceUpload, decision))
		return
	}

	doc, err := h.ingest.Accept(r.Context(), clientID, header.Filename, kind, data)
	if err != nil {
		writeError(w, err)
		return
	}

	h.scheduleIngestion(doc.ID)

	writeJSON(w, http.StatusAccepted, toDocumentJSON(doc))
}

// getDocument returns one document for status polling.
func (h *Handler) getDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := h.documents.Get(r.Context(), ClientID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDocumentJSON(doc))
}

// listDocuments returns the caller's documents, newest first.
func (h *Handler) listDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := h.documents.List(r.Context(), ClientID(r))
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]documentJSON, len(docs))
	for i := range docs {
		out[i] = toDocumentJSON(&docs[i])
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": out})
}

// deleteDocument removes a document, its chunks and its blob.
func (h *Handler) deleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := h.documents.Delete(r.Context(), ClientID(r), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
