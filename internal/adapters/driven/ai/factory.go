// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"context"
	"fmt"
	"time"

	ollamaembed "github.com/mkim-dev/ailab-docs/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/mkim-dev/ailab-docs/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/mkim-dev/ailab-docs/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/mkim-dev/ailab-docs/internal/adapters/driven/llm/ollama"
	openaillm "github.com/mkim-dev/ailab-docs/internal/adapters/driven/llm/openai"
	"github.com/mkim-dev/ailab-docs/internal/core/domain"
	"github.com/mkim-dev/ailab-docs/internal/core/ports/driven"
)

// Supported providers.
const (
	ProviderOllama    = "ollama"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// Settings selects and configures a provider. One Settings value
// configures either an embedding or an LLM service.
type Settings struct {
	Provider   string
	BaseURL    string
	APIKey     string
	Model      string
	Dimensions int
}

// Configured reports whether a provider has been selected at all.
func (s Settings) Configured() bool {
	return s.Provider != ""
}

// CreateEmbeddingService creates the appropriate embedding service.
// Returns nil if no provider is configured.
func CreateEmbeddingService(settings Settings) (driven.EmbeddingService, error) {
	if !settings.Configured() {
		return nil, nil
	}

	switch settings.Provider {
	case ProviderOllama:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: settings.Dimensions,
		}), nil

	case ProviderOpenAI:
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     settings.APIKey,
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: settings.Dimensions,
		})

	case ProviderAnthropic:
		// Anthropic does not support embeddings.
		return nil, fmt.Errorf("anthropic does not support embeddings, use ollama or openai")

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", settings.Provider)
	}
}

// CreateLLMService creates the appropriate LLM service.
// Returns nil if no provider is configured.
func CreateLLMService(settings Settings) (driven.LLMService, error) {
	if !settings.Configured() {
		return nil, nil
	}

	switch settings.Provider {
	case ProviderOllama:
		return ollamallm.NewLLMService(ollamallm.Config{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		}), nil

	case ProviderOpenAI:
		return openaillm.NewLLMService(openaillm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	case ProviderAnthropic:
		return anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", settings.Provider)
	}
}

// CreateAndValidateEmbeddingService creates an embedding service and
// validates connectivity before the server starts accepting uploads.
func CreateAndValidateEmbeddingService(settings Settings) (driven.EmbeddingService, error) {
	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}
	if svc == nil {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable: %w", domain.ErrEmbeddingUnavailable, err)
	}

	return svc, nil
}

// CreateAndValidateLLMService creates an LLM service and validates
// connectivity. A missing LLM configuration is not an error; the
// question endpoint then answers with sources only.
func CreateAndValidateLLMService(settings Settings) (driven.LLMService, error) {
	svc, err := CreateLLMService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrLLMUnavailable, err)
	}
	if svc == nil {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable: %w", domain.ErrLLMUnavailable, err)
	}

	return svc, nil
}
