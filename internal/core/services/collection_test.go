package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// trainableStore records BuildIndex calls.
type trainableStore struct {
	*memory.VectorStore
	built int
}

func (s *trainableStore) BuildIndex(context.Context) error {
	s.built++
	return nil
}

func TestCollectionService_EnsureAndStats(t *testing.T) {
	store := memory.NewVectorStore()
	svc := NewCollectionService(store, 8)
	ctx := context.Background()

	require.NoError(t, svc.Ensure(ctx))
	require.NoError(t, svc.Ensure(ctx))

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 8, stats.Dimension)
	assert.Equal(t, 0, stats.Records)
}

func TestCollectionService_EnsureDimensionConflict(t *testing.T) {
	store := memory.NewVectorStore()
	ctx := context.Background()
	require.NoError(t, NewCollectionService(store, 8).Ensure(ctx))

	err := NewCollectionService(store, 16).Ensure(ctx)
	assert.ErrorIs(t, err, domain.ErrSchemaMismatch)
}

func TestCollectionService_CountAndPurge(t *testing.T) {
	store := memory.NewVectorStore()
	svc := NewCollectionService(store, 2)
	ctx := context.Background()

	ok, err := store.Upsert(ctx,
		[]domain.Chunk{{Text: "a"}, {Text: "b"}},
		domain.DocumentMetadata{DocumentID: "d", TenantID: domain.DefaultTenant},
		[][]float32{{1, 0}, {0, 1}},
	)
	require.NoError(t, err)
	require.True(t, ok)

	count, err := svc.Count(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	require.NoError(t, svc.Purge(ctx))
	count, err = svc.Count(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestCollectionService_BuildIndex(t *testing.T) {
	store := &trainableStore{VectorStore: memory.NewVectorStore()}
	svc := NewCollectionService(store, 4)

	require.NoError(t, svc.BuildIndex(context.Background()))
	assert.Equal(t, 1, store.built)
}

func TestCollectionService_BuildIndex_Unsupported(t *testing.T) {
	svc := NewCollectionService(memory.NewVectorStore(), 4)

	err := svc.BuildIndex(context.Background())
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}
