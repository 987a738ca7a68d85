// Package plaintext extracts text from plain text uploads.
package plaintext

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/mkim-dev/ailab-docs/internal/core/domain"
	"github.com/mkim-dev/ailab-docs/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// utf8BOM is the byte order mark some editors prepend to text files.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Extractor handles plain text documents.
type Extractor struct{}

// New creates a new plain text extractor.
func New() *Extractor {
	return &Extractor{}
}

// Kind returns the content kind this extractor handles.
func (e *Extractor) Kind() domain.ContentKind {
	return domain.ContentKindText
}

// Extract converts raw bytes to text. Invalid UTF-8 sequences are
// replaced rather than rejected, since text uploads commonly carry
// stray bytes from copy-paste.
func (e *Extractor) Extract(_ context.Context, data []byte) (string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	var text string
	if utf8.Valid(data) {
		text = string(data)
	} else {
		text = strings.ToValidUTF8(string(data), "�")
	}

	text = strings.ReplaceAll(text, "\r\n", "\n")

	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: no text content", domain.ErrExtractionFailed)
	}
	return text, nil
}
