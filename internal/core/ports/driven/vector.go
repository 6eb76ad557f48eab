package driven

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// VectorStore persists tenant-scoped records and runs filtered nearest-neighbour search.
// Every search is filtered by tenant; a record written under one tenant is never
// returned to another.
type VectorStore interface {
	// EnsureCollection creates the collection for dimension if missing, otherwise loads it.
	// It is idempotent and safe under concurrent callers.
	EnsureCollection(ctx context.Context, dimension int) error

	// Upsert writes one record per chunk, broadcasting meta across all of them.
	// Mismatched lengths return domain.ErrShapeMismatch. Storage failures return
	// false with a nil error so batch callers can continue.
	Upsert(ctx context.Context, chunks []domain.Chunk, meta domain.DocumentMetadata, embeddings [][]float32) (bool, error)

	// Search returns the texts of the nearest records for tenant, most relevant first.
	Search(ctx context.Context, vector []float32, limit int, tenant string) ([]string, error)

	// SearchHits is Search with full records and distances.
	SearchHits(ctx context.Context, vector []float32, limit int, tenant string) ([]domain.SearchHit, error)

	// Count returns the number of records stored for tenant.
	Count(ctx context.Context, tenant string) (int, error)

	// ReplaceDocument removes the records of the document read from meta.Path
	// and writes the new ones atomically. A failed write keeps the previous
	// records and returns false with a nil error. No chunks clears the document.
	ReplaceDocument(ctx context.Context, chunks []domain.Chunk, meta domain.DocumentMetadata, embeddings [][]float32) (bool, error)

	// DeleteDocument removes the records of one document read from path for tenant.
	DeleteDocument(ctx context.Context, tenant, documentID, path string) (int, error)

	// Purge removes every record in the collection.
	Purge(ctx context.Context) error

	// Stats describes the collection.
	Stats(ctx context.Context) (domain.CollectionStats, error)

	// Ping reports whether the backend is reachable and serving.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// IndexBuilder is implemented by stores with a trainable approximate index.
type IndexBuilder interface {
	// BuildIndex trains the index on the stored vectors and assigns every record
	// to a partition. Searches before training are exact.
	BuildIndex(ctx context.Context) error
}
