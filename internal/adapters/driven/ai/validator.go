package ai

import (
	"context"
	"fmt"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure ConfigValidator implements the interface.
var _ driven.EmbeddingValidator = (*ConfigValidator)(nil)

const sampleText = "passage: dimension check"

// ConfigValidator checks that the configured provider is reachable and
// produces vectors of the configured length.
type ConfigValidator struct{}

// NewConfigValidator creates a new embedding config validator.
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{}
}

// ValidateEmbedding pings the provider, then embeds a sample passage. A vector
// length other than config.Dimensions is ErrDimensionMismatch, since the
// collection is created with the configured dimension.
func (v *ConfigValidator) ValidateEmbedding(config *domain.EmbeddingSettings) error {
	model, err := CreateAndValidateEmbeddingModel(config)
	if err != nil {
		return err
	}
	defer model.Close()

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	vectors, err := model.Embed(ctx, []string{sampleText})
	if err != nil {
		return fmt.Errorf("%w: sample embedding: %w", domain.ErrEmbedding, err)
	}
	if len(vectors) != 1 {
		return fmt.Errorf("%w: sample embedding returned %d vectors", domain.ErrEmbedding, len(vectors))
	}
	if got := len(vectors[0]); got != config.Dimensions {
		return fmt.Errorf("%w: %s returns %d dimensions, embedding.dimensions is %d",
			domain.ErrDimensionMismatch, config.Model, got, config.Dimensions)
	}
	return nil
}
