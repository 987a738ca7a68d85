package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkim-dev/ailab-docs/internal/core/domain"
	"github.com/mkim-dev/ailab-docs/internal/core/ports/driven"
	"github.com/mkim-dev/ailab-docs/internal/core/ports/driving"
)

// mockSearch implements driving.SearchService with canned results.
type mockSearch struct {
	results   []domain.ScoredChunk
	err       error
	lastQuery string
	lastOpts  driving.SearchOptions
}

func (m *mockSearch) Search(_ context.Context, query string, opts driving.SearchOptions) ([]domain.ScoredChunk, error) {
	m.lastQuery = query
	m.lastOpts = opts
	if m.err != nil {
		return nil, m.err
	}
	return m.results, nil
}

// mockLLM implements driven.LLMService with a canned completion.
type mockLLM struct {
	response   string
	err        error
	lastPrompt string
	lastOpts   driven.GenerateOptions
}

func (m *mockLLM) Generate(_ context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	m.lastPrompt = prompt
	m.lastOpts = opts
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

func (m *mockLLM) ModelName() string { return "mock-llm" }

func (m *mockLLM) Ping(_ context.Context) error { return nil }

func (m *mockLLM) Close() error { return nil }

func scoredChunk(content string, score float64) domain.ScoredChunk {
	return domain.ScoredChunk{
		Chunk: domain.Chunk{DocumentID: "doc-1", Content: content},
		Similarity: score,
	}
}

func TestAsk_EmptyQuestion(t *testing.T) {
	svc := NewQuestionService(&mockSearch{}, nil, nil)

	_, err := svc.Ask(context.Background(), "   ", "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAsk_NoRelevantContent(t *testing.T) {
	svc := NewQuestionService(&mockSearch{}, &mockLLM{response: "should not be called"}, nil)

	answer, err := svc.Ask(context.Background(), "what is the refund policy?", "")
	require.NoError(t, err)
	assert.Equal(t, NoRelevantContentAnswer, answer.Text)
	assert.Empty(t, answer.Sources)
}

func TestAsk_WithoutLLMReturnsSourcesOnly(t *testing.T) {
	search := &mockSearch{results: []domain.ScoredChunk{
		scoredChunk("refunds are processed within 14 days", 0.91),
	}}
	svc := NewQuestionService(search, nil, nil)

	answer, err := svc.Ask(context.Background(), "what is the refund policy?", "")
	require.NoError(t, err)
	assert.Empty(t, answer.Text)
	require.Len(t, answer.Sources, 1)
	assert.Equal(t, 0.91, answer.Sources[0].Similarity)
}

func TestAsk_GeneratesGroundedAnswer(t *testing.T) {
	search := &mockSearch{results: []domain.ScoredChunk{
		scoredChunk("refunds are processed within 14 days", 0.91),
		scoredChunk("contact support to start a refund", 0.64),
	}}
	llm := &mockLLM{response: "  Refunds take up to 14 days.  "}
	svc := NewQuestionService(search, llm, nil)

	answer, err := svc.Ask(context.Background(), "what is the refund policy?", "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "Refunds take up to 14 days.", answer.Text)
	assert.Len(t, answer.Sources, 2)

	// The prompt carries every excerpt and the question
	assert.Contains(t, llm.lastPrompt, "refunds are processed within 14 days")
	assert.Contains(t, llm.lastPrompt, "contact support to start a refund")
	assert.Contains(t, llm.lastPrompt, "what is the refund policy?")
	assert.Equal(t, 1024, llm.lastOpts.MaxTokens)

	// The document filter reaches retrieval
	assert.Equal(t, "doc-1", search.lastOpts.DocumentID)
}

func TestAsk_SearchErrorPropagates(t *testing.T) {
	wantErr := errors.New("store unavailable")
	svc := NewQuestionService(&mockSearch{err: wantErr}, nil, nil)

	_, err := svc.Ask(context.Background(), "anything", "")
	assert.ErrorIs(t, err, wantErr)
}

func TestAsk_LLMErrorPropagates(t *testing.T) {
	search := &mockSearch{results: []domain.ScoredChunk{scoredChunk("text", 0.8)}}
	svc := NewQuestionService(search, &mockLLM{err: domain.ErrLLMUnavailable}, nil)

	_, err := svc.Ask(context.Background(), "anything", "")
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
}
