// Package chunker provides a fixed-size sliding-window chunker.
package chunker

import (
	"context"
	"strings"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure Processor implements the interface.
var _ driven.Chunker = (*Processor)(nil)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 200

// Processor splits text into fixed-size windows of runes.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	// Ensure overlap doesn't exceed chunk size
	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "fixed"
}

// ChunkPlain splits text into windows of chunkSize runes advancing by
// chunkSize-overlap. The trailing remainder is kept even when short.
func (p *Processor) ChunkPlain(_ context.Context, text string) ([]domain.Chunk, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	return p.appendWindows(nil, text, 0), nil
}

// ChunkStructured windows each page of the document separately so chunks
// keep their page number. Structure below the page is ignored.
func (p *Processor) ChunkStructured(_ context.Context, doc *domain.StructuredDocument) ([]domain.Chunk, error) {
	if doc == nil {
		return nil, nil
	}

	var (
		chunks []domain.Chunk
		parts  []string
		page   int
	)
	flush := func() {
		if text := strings.Join(parts, "\n\n"); strings.TrimSpace(text) != "" {
			chunks = p.appendWindows(chunks, text, page)
		}
		parts = nil
	}

	for i, el := range doc.Elements {
		if i > 0 && el.Page != page {
			flush()
		}
		page = el.Page
		if t := strings.TrimSpace(el.Text); t != "" {
			parts = append(parts, t)
		}
	}
	flush()
	return chunks, nil
}

// Windows returns the raw window strings for text, one starting at every
// multiple of the stride below len(text). The window after one that reaches
// the end is still emitted and lies wholly inside the overlap.
func (p *Processor) Windows(text string) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	step := p.chunkSize - p.overlap
	out := make([]string, 0, len(runes)/step+1)
	for start := 0; start < len(runes); start += step {
		end := start + p.chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[start:end]))
	}
	return out
}

func (p *Processor) appendWindows(chunks []domain.Chunk, text string, page int) []domain.Chunk {
	for _, w := range p.Windows(text) {
		chunks = append(chunks, domain.Chunk{
			Text:     w,
			Page:     page,
			Position: len(chunks),
		})
	}
	return chunks
}
