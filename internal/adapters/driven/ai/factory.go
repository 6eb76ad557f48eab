// Package ai builds the embedding model described by the settings.
package ai

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/embedding/cache"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/embedding/hashing"
	ollamaembed "github.com/custodia-labs/sercha-rag/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/sercha-rag/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/embedding/ratelimit"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// CreateAndValidateEmbeddingModel creates an embedding model and validates connectivity.
func CreateAndValidateEmbeddingModel(settings *domain.EmbeddingSettings) (driven.EmbeddingModel, error) {
	model, err := CreateEmbeddingModel(settings)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := model.Ping(ctx); err != nil {
		model.Close()
		return nil, fmt.Errorf("%w: %s unreachable: %w. Check embedding.base_url",
			domain.ErrEmbedding, settings.Provider, err)
	}

	return model, nil
}

// ValidateEmbeddingConfig creates a model from settings and pings it.
func ValidateEmbeddingConfig(settings *domain.EmbeddingSettings) error {
	model, err := CreateAndValidateEmbeddingModel(settings)
	if err != nil {
		return err
	}
	return model.Close()
}

// CreateEmbeddingModel creates the model for the configured provider,
// throttled by the configured rate and wrapped in the cache when a cache
// path is set.
func CreateEmbeddingModel(settings *domain.EmbeddingSettings) (driven.EmbeddingModel, error) {
	if settings == nil {
		return nil, fmt.Errorf("%w: no embedding settings", domain.ErrInvalidInput)
	}

	limiter := ratelimit.New(ratelimit.Config{
		RequestsPerSecond: settings.RequestsPerSecond,
		BurstSize:         settings.Burst,
	})

	var model driven.EmbeddingModel
	switch settings.Provider {
	case domain.EmbeddingProviderOllama:
		model = createOllamaEmbedding(settings, limiter)

	case domain.EmbeddingProviderOpenAI:
		m, err := createOpenAIEmbedding(settings, limiter)
		if err != nil {
			return nil, err
		}
		model = m

	case domain.EmbeddingProviderHashing:
		model = hashing.NewEmbeddingService(settings.Dimensions)

	default:
		return nil, fmt.Errorf("%w: unsupported embedding provider: %s", domain.ErrInvalidInput, settings.Provider)
	}

	if settings.CachePath == "" {
		return model, nil
	}
	if err := os.MkdirAll(filepath.Dir(settings.CachePath), 0700); err != nil {
		model.Close()
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	cached, err := cache.Open(settings.CachePath, model)
	if err != nil {
		model.Close()
		return nil, err
	}
	return cached, nil
}

// createOllamaEmbedding creates an Ollama embedding service.
func createOllamaEmbedding(settings *domain.EmbeddingSettings, limiter *ratelimit.Limiter) driven.EmbeddingModel {
	dimensions := settings.Dimensions
	if dimensions == 0 {
		dimensions = domain.EmbeddingDimensions()[settings.Model]
	}

	return ollamaembed.NewEmbeddingService(ollamaembed.Config{
		BaseURL:    settings.BaseURL,
		Model:      settings.Model,
		Timeout:    settings.Timeout,
		Dimensions: dimensions,
		Limiter:    limiter,
	})
}

// createOpenAIEmbedding creates an OpenAI-compatible embedding service.
func createOpenAIEmbedding(settings *domain.EmbeddingSettings, limiter *ratelimit.Limiter) (driven.EmbeddingModel, error) {
	return openaiembed.NewEmbeddingService(openaiembed.Config{
		APIKey:     settings.APIKey,
		BaseURL:    settings.BaseURL,
		Model:      settings.Model,
		Timeout:    settings.Timeout,
		Dimensions: settings.Dimensions,
		Limiter:    limiter,
	})
}
