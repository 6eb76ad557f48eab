// Package postprocessors turns extracted content into chunks.
package postprocessors

import (
	"context"
	"fmt"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Chain runs a primary chunker and falls back to a second one when the
// primary is missing or fails. The fallback always sees flattened text.
type Chain struct {
	primary  driven.Chunker
	fallback driven.Chunker
}

// NewChain creates a chain. Either chunker may be nil, not both.
func NewChain(primary, fallback driven.Chunker) *Chain {
	return &Chain{primary: primary, fallback: fallback}
}

// Chunk splits content into chunks with positions numbered from zero.
// Blank content yields no chunks and no error.
func (c *Chain) Chunk(ctx context.Context, content domain.ExtractedContent) ([]domain.Chunk, error) {
	if content.Kind == domain.ContentUnsupported {
		return nil, fmt.Errorf("%w: no content to chunk", domain.ErrUnsupportedType)
	}
	if content.IsBlank() {
		return nil, nil
	}

	if c.primary != nil {
		chunks, err := run(ctx, c.primary, content)
		if err == nil {
			return renumber(chunks), nil
		}
		if c.fallback == nil {
			return nil, fmt.Errorf("chunker %s: %w", c.primary.Name(), err)
		}
		logger.Warn("Chunker %s failed, falling back to %s: %v", c.primary.Name(), c.fallback.Name(), err)
	}

	if c.fallback == nil {
		return nil, fmt.Errorf("%w: no chunker configured", domain.ErrInvalidInput)
	}
	chunks, err := c.fallback.ChunkPlain(ctx, content.Flatten())
	if err != nil {
		return nil, fmt.Errorf("chunker %s: %w", c.fallback.Name(), err)
	}
	return renumber(chunks), nil
}

// Names returns the configured chunker names, primary first.
func (c *Chain) Names() []string {
	var names []string
	for _, ch := range []driven.Chunker{c.primary, c.fallback} {
		if ch != nil {
			names = append(names, ch.Name())
		}
	}
	return names
}

func run(ctx context.Context, ch driven.Chunker, content domain.ExtractedContent) ([]domain.Chunk, error) {
	if content.Kind == domain.ContentStructured {
		return ch.ChunkStructured(ctx, content.Document)
	}
	return ch.ChunkPlain(ctx, content.Text)
}

func renumber(chunks []domain.Chunk) []domain.Chunk {
	for i := range chunks {
		chunks[i].Position = i
	}
	return chunks
}
