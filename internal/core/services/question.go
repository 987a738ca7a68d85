package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mkim-dev/ailab-docs/internal/core/domain"
	"github.com/mkim-dev/ailab-docs/internal/core/ports/driven"
	"github.com/mkim-dev/ailab-docs/internal/core/ports/driving"
)

// Ensure QuestionService implements the interface.
var _ driving.QuestionService = (*QuestionService)(nil)

// NoRelevantContentAnswer is returned when retrieval finds nothing
// above the similarity cutoff.
const NoRelevantContentAnswer = "No relevant content was found in the uploaded documents for this question."

// answerPrompt frames retrieved chunks as the only permitted source.
const answerPrompt = `You are answering a question using only the provided document excerpts.
If the excerpts do not contain the answer, say so. Do not invent facts.

Excerpts:
%s

Question: %s

Answer:`

// QuestionService answers free-text questions over retrieved chunks.
type QuestionService struct {
	search driving.SearchService
	llm    driven.LLMService // optional; nil means sources-only answers
	log    *slog.Logger

	maxTokens   int
	temperature float64
}

// NewQuestionService creates a new question service. llm may be nil,
// in which case answers carry sources but no generated text.
func NewQuestionService(search driving.SearchService, llm driven.LLMService, log *slog.Logger) *QuestionService {
	if log == nil {
		log = slog.Default()
	}
	return &QuestionService{
		search:      search,
		llm:         llm,
		log:         log,
		maxTokens:   1024,
		temperature: 0.2,
	}
}

// Ask retrieves relevant chunks and generates an answer grounded on
// them.
func (s *QuestionService) Ask(ctx context.Context, query, documentID string) (*driving.Answer, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: question is required", domain.ErrInvalidInput)
	}

	sources, err := s.search.Search(ctx, query, driving.SearchOptions{
		DocumentID: documentID,
	})
	if err != nil {
		return nil, err
	}

	if len(sources) == 0 {
		return &driving.Answer{
			Text:    NoRelevantContentAnswer,
			Sources: []domain.ScoredChunk{},
		}, nil
	}

	if s.llm == nil {
		return &driving.Answer{Sources: sources}, nil
	}

	text, err := s.llm.Generate(ctx, s.buildPrompt(query, sources), driven.GenerateOptions{
		MaxTokens:   s.maxTokens,
		Temperature: s.temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("generating answer: %w", err)
	}

	s.log.Debug("question answered", "sources", len(sources), "document_id", documentID)

	return &driving.Answer{
		Text:    strings.TrimSpace(text),
		Sources: sources,
	}, nil
}

func (s *QuestionService) buildPrompt(query string, sources []domain.ScoredChunk) string {
	var excerpts strings.Builder
	for i, source := range sources {
		fmt.Fprintf(&excerpts, "[%d] %s\n\n", i+1, source.Chunk.Content)
	}
	return fmt.Sprintf(answerPrompt, excerpts.String(), query)
}
