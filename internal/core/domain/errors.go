package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates a file extension no converter handles.
	ErrUnsupportedType = errors.New("unsupported type")

	// Extraction Errors.

	// ErrExtraction indicates a source file could not be turned into content.
	// Recovered by the orchestrator as a per-file skip.
	ErrExtraction = errors.New("extraction failed")

	// ErrConverterUnavailable indicates the external converter for a format is missing.
	ErrConverterUnavailable = errors.New("converter unavailable")

	// Embedding Errors.

	// ErrEmbedding indicates the embedding model failed for an input.
	// Never propagated past the embedder; the input degrades to a zero vector.
	ErrEmbedding = errors.New("embedding failed")

	// Vector Store Errors.

	// ErrShapeMismatch indicates the chunk and embedding counts differ.
	// This is a programmer error and is fatal to the call.
	ErrShapeMismatch = errors.New("chunk and embedding counts differ")

	// ErrDimensionMismatch indicates a vector length differs from the collection dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrSchemaMismatch indicates an existing collection disagrees with the requested schema.
	// Schema is never migrated automatically; a new collection is required.
	ErrSchemaMismatch = errors.New("collection schema mismatch")

	// ErrStoreConnection indicates the vector store backend cannot be reached.
	ErrStoreConnection = errors.New("vector store connection failed")

	// ErrStoreWrite indicates records could not be written.
	ErrStoreWrite = errors.New("vector store write failed")

	// ErrStoreSearch indicates a search could not be executed.
	ErrStoreSearch = errors.New("vector store search failed")
)

// ExtractionError describes why a single file could not be extracted.
// It always matches ErrExtraction through errors.Is.
type ExtractionError struct {
	// Path is the file that failed.
	Path string

	// Err is the underlying cause.
	Err error
}

// NewExtractionError wraps err for the given path.
func NewExtractionError(path string, err error) *ExtractionError {
	return &ExtractionError{Path: path, Err: err}
}

func (e *ExtractionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("extract %s: %v", e.Path, ErrExtraction)
	}
	return fmt.Sprintf("extract %s: %v", e.Path, e.Err)
}

// Unwrap exposes both the sentinel and the cause to errors.Is.
func (e *ExtractionError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrExtraction}
	}
	return []error{ErrExtraction, e.Err}
}
