package driven

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// Chunker splits extracted content into bounded-size chunks.
// Implementations are stateless across calls and never mutate their input.
type Chunker interface {
	// Name returns the chunker name for logging and configuration.
	Name() string

	// ChunkPlain segments raw text.
	ChunkPlain(ctx context.Context, text string) ([]domain.Chunk, error)

	// ChunkStructured segments a document tree, respecting its structure.
	ChunkStructured(ctx context.Context, doc *domain.StructuredDocument) ([]domain.Chunk, error)
}

// Tokenizer counts and splits text the way the embedding model would.
type Tokenizer interface {
	// Count returns the number of model tokens in text.
	Count(text string) int

	// Split returns whitespace-delimited words with their token counts.
	Split(text string) []Token
}

// Token is a word and the number of model tokens it costs. Start and End are
// the byte offsets of Text in the string it was split from.
type Token struct {
	Text  string
	Cost  int
	Start int
	End   int
}

// ChunkingPipeline turns extracted content into chunks, choosing the
// structured or plain path and falling back when the preferred chunker fails.
type ChunkingPipeline interface {
	// Chunk segments content. Blank content yields no chunks and no error.
	Chunk(ctx context.Context, content domain.ExtractedContent) ([]domain.Chunk, error)
}
