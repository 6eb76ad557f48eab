package driving

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// CollectionService administers the vector collection.
type CollectionService interface {
	// Ensure creates the collection for the embedder's dimension if missing.
	Ensure(ctx context.Context) error

	// Stats describes the collection.
	Stats(ctx context.Context) (domain.CollectionStats, error)

	// Count returns the number of records stored for tenant.
	Count(ctx context.Context, tenant string) (int, error)

	// Purge removes every record.
	Purge(ctx context.Context) error

	// BuildIndex trains the approximate index when the store has one.
	BuildIndex(ctx context.Context) error
}
