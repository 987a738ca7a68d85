// Package chunker splits extracted text into overlapping, bounded-size
// segments suitable for embedding.
package chunker

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mkim-dev/ailab-docs/internal/core/domain"
)

// DefaultMaxChars is the default maximum number of characters per chunk.
const DefaultMaxChars = 1000

// DefaultOverlapChars is the default amount of trailing context, in
// characters worth of words, carried into the next chunk.
const DefaultOverlapChars = 200

// Chunker splits text into sentence-aligned chunks with word-boundary
// overlap. Chunks are contiguous slices of the source text, so every
// chunk's [Start, End) span indexes directly into the original.
type Chunker struct {
	maxChars     int
	overlapChars int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithMaxChars sets the maximum chunk size in characters.
func WithMaxChars(n int) Option {
	return func(c *Chunker) {
		if n > 0 {
			c.maxChars = n
		}
	}
}

// WithOverlapChars sets the overlap carried between adjacent chunks.
func WithOverlapChars(n int) Option {
	return func(c *Chunker) {
		if n >= 0 {
			c.overlapChars = n
		}
	}
}

// New creates a chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		maxChars:     DefaultMaxChars,
		overlapChars: DefaultOverlapChars,
	}

	for _, opt := range opts {
		opt(c)
	}

	// Ensure overlap doesn't swallow whole chunks
	if c.overlapChars >= c.maxChars {
		c.overlapChars = c.maxChars / 4
	}

	return c
}

// Chunk splits text into chunks for the given document. Non-empty input
// always produces at least one chunk; empty or whitespace-only input
// produces none. Indices are a dense 0..N-1 sequence.
func (c *Chunker) Chunk(documentID, text string) []domain.Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	boundaries := sentenceBoundaries(text, c.maxChars)

	var chunks []domain.Chunk
	start := 0
	prevEnd := 0

	for _, end := range boundaries {
		if end-start > c.maxChars && prevEnd > start {
			// Close the current chunk before this unit
			chunks = append(chunks, c.makeChunk(documentID, len(chunks), text, start, prevEnd))

			// Seed the next chunk with the trailing overlap words of the
			// chunk just closed
			start = overlapStart(text, start, prevEnd, c.overlapChars)
		}
		prevEnd = end
	}

	if prevEnd > start {
		chunks = append(chunks, c.makeChunk(documentID, len(chunks), text, start, prevEnd))
	}

	return chunks
}

// makeChunk builds a chunk covering text[start:end).
func (c *Chunker) makeChunk(documentID string, index int, text string, start, end int) domain.Chunk {
	content := text[start:end]
	return domain.Chunk{
		DocumentID: documentID,
		Index:      index,
		Content:    content,
		Start:      start,
		End:        end,
		WordCount:  len(strings.Fields(content)),
	}
}

// sentenceBoundaries returns the ascending byte offsets at which a chunk
// may close: after each sentence-terminal rune, and at the end of the
// text. Stretches longer than maxChars without terminal punctuation get
// additional word-boundary break points so no unit can exceed maxChars.
func sentenceBoundaries(text string, maxChars int) []int {
	var bounds []int
	last := 0

	for i, r := range text {
		if !isTerminal(r) {
			continue
		}
		end := i + len(string(r))
		// Group runs of terminal punctuation ("..." or "?!") into one
		// boundary at the end of the run
		if end < len(text) && isTerminal(nextRune(text, end)) {
			continue
		}
		bounds = appendSplitLong(bounds, text, last, end, maxChars)
		last = end
	}

	if last < len(text) {
		bounds = appendSplitLong(bounds, text, last, len(text), maxChars)
	}

	return bounds
}

// appendSplitLong appends end as a boundary, inserting intermediate
// word-boundary breaks when the unit text[last:end) exceeds maxChars.
func appendSplitLong(bounds []int, text string, last, end int, maxChars int) []int {
	for end-last > maxChars {
		cut := wordBoundaryBefore(text, last+maxChars)
		if cut <= last {
			// A single word longer than maxChars; hard-split it
			cut = last + maxChars
		}
		bounds = append(bounds, cut)
		last = cut
	}
	return append(bounds, end)
}

// overlapStart walks back from end until roughly overlapChars worth of
// words are covered, snapping to a word start. The result stays within
// (chunkStart, end) so adjacent chunks always make forward progress.
func overlapStart(text string, chunkStart, end, overlapChars int) int {
	if overlapChars <= 0 {
		return end
	}

	pos := end - overlapChars
	if pos <= chunkStart {
		pos = chunkStart + 1
	}
	if pos >= end {
		return end
	}

	// Snap forward to the start of the next word so the overlap seed
	// never begins mid-word
	for pos < end && !isWordStart(text, pos) {
		pos++
	}
	return pos
}

// wordBoundaryBefore returns the last word start at or before pos.
func wordBoundaryBefore(text string, pos int) int {
	if pos >= len(text) {
		pos = len(text) - 1
	}
	for pos > 0 && !isWordStart(text, pos) {
		pos--
	}
	return pos
}

// isWordStart reports whether a word begins at byte offset pos.
func isWordStart(text string, pos int) bool {
	if pos <= 0 || pos >= len(text) {
		return false
	}
	prev := prevRune(text, pos)
	cur := nextRune(text, pos)
	return unicode.IsSpace(prev) && !unicode.IsSpace(cur)
}

// isTerminal reports whether r ends a sentence-like unit.
func isTerminal(r rune) bool {
	switch r {
	case '.', '!', '?', '\n':
		return true
	default:
		return false
	}
}

func nextRune(s string, pos int) rune {
	r, _ := utf8.DecodeRuneInString(s[pos:])
	return r
}

func prevRune(s string, pos int) rune {
	r, _ := utf8.DecodeLastRuneInString(s[:pos])
	return r
}
