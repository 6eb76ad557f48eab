package driven

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// Extractor converts a source file into its semantic representation.
// Failures are *domain.ExtractionError values matching domain.ErrExtraction.
type Extractor interface {
	// Extract reads the file at path and returns its content.
	Extract(ctx context.Context, path string) (domain.ExtractedContent, error)

	// Supports reports whether a file extension (with dot, any case) can be extracted.
	Supports(ext string) bool
}

// Converter handles one family of file formats.
type Converter interface {
	// Name returns the converter name for logging.
	Name() string

	// Extensions returns the lower-case extensions this converter handles, with dot.
	Extensions() []string

	// Convert transforms the raw file bytes into content.
	Convert(ctx context.Context, path string, data []byte) (domain.ExtractedContent, error)
}

// CommandRunner executes an external command and returns its stdout.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}
