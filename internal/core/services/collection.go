package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Ensure CollectionService implements the interface.
var _ driving.CollectionService = (*CollectionService)(nil)

// CollectionService administers the collection sized for one embedder.
type CollectionService struct {
	store     driven.VectorStore
	dimension int
}

// NewCollectionService creates a collection service for vectors of dimension.
func NewCollectionService(store driven.VectorStore, dimension int) *CollectionService {
	return &CollectionService{store: store, dimension: dimension}
}

// Ensure creates the collection if missing.
func (s *CollectionService) Ensure(ctx context.Context) error {
	if err := s.store.EnsureCollection(ctx, s.dimension); err != nil {
		return fmt.Errorf("ensuring collection for dimension %d: %w", s.dimension, err)
	}
	return nil
}

// Stats describes the collection.
func (s *CollectionService) Stats(ctx context.Context) (domain.CollectionStats, error) {
	return s.store.Stats(ctx)
}

// Count returns the number of records stored for tenant.
func (s *CollectionService) Count(ctx context.Context, tenant string) (int, error) {
	return s.store.Count(ctx, domain.TenantOrDefault(tenant))
}

// Purge removes every record.
func (s *CollectionService) Purge(ctx context.Context) error {
	if err := s.store.Purge(ctx); err != nil {
		return err
	}
	logger.Info("Purged vector collection")
	return nil
}

// BuildIndex trains the store's approximate index.
func (s *CollectionService) BuildIndex(ctx context.Context) error {
	builder, ok := s.store.(driven.IndexBuilder)
	if !ok {
		return fmt.Errorf("%w: store has no trainable index", domain.ErrUnsupportedType)
	}
	return builder.BuildIndex(ctx)
}
