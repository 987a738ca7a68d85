// Package pdf extracts text from PDF uploads using the pdftotext tool
// from Poppler.
package pdf

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/mkim-dev/ailab-docs/internal/core/domain"
	"github.com/mkim-dev/ailab-docs/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// DefaultTimeout bounds a single pdftotext invocation so a malformed
// upload cannot hold the pipeline.
const DefaultTimeout = 30 * time.Second

// CommandRunner executes an external command and returns its stdout.
// Abstracted for testing.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// execRunner runs commands via os/exec.
type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// Extractor handles PDF documents.
type Extractor struct {
	runner  CommandRunner
	timeout time.Duration
}

// New creates a new PDF extractor using the system pdftotext binary.
func New() *Extractor {
	return &Extractor{
		runner:  execRunner{},
		timeout: DefaultTimeout,
	}
}

// NewWithRunner creates a PDF extractor with a custom command runner.
func NewWithRunner(runner CommandRunner) *Extractor {
	return &Extractor{
		runner:  runner,
		timeout: DefaultTimeout,
	}
}

// Kind returns the content kind this extractor handles.
func (e *Extractor) Kind() domain.ContentKind {
	return domain.ContentKindPDF
}

// Extract writes the PDF to a temporary file and converts it with
// pdftotext. The layout flag keeps reading order stable for columnar
// documents.
func (e *Extractor) Extract(ctx context.Context, data []byte) (string, error) {
	tmp, err := os.CreateTemp("", "ailab-*.pdf")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("closing temp file: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	out, err := e.runner.Run(ctx, "pdftotext", "-layout", "-enc", "UTF-8", tmp.Name(), "-")
	if err != nil {
		return "", fmt.Errorf("%w: pdftotext: %v", domain.ErrExtractionFailed, err)
	}

	text := strings.TrimSpace(string(out))
	if text == "" {
		return "", fmt.Errorf("%w: no text content", domain.ErrExtractionFailed)
	}
	return string(out), nil
}
