package sqlite

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/storage/vecmath"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T, opts ...Option) (*Store, string) {
	t.Helper()

	dir := t.TempDir()
	store := NewStore(dir, opts...)
	require.True(t, store.Ready(context.Background()))
	t.Cleanup(func() {
		assert.NoError(t, store.Close())
	})
	return store, dir
}

func chunksOf(texts ...string) []domain.Chunk {
	chunks := make([]domain.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = domain.Chunk{Text: text, Position: i}
	}
	return chunks
}

func meta(tenant, docID string) domain.DocumentMetadata {
	return domain.DocumentMetadata{
		DocumentID:   docID,
		TenantID:     tenant,
		Source:       docID,
		LastModified: time.Unix(1700000000, 0),
		Page:         1,
	}
}

// ==================== Connection Tests ====================

func TestNewStore_CreatesDatabase(t *testing.T) {
	store, dir := setupTestStore(t)

	assert.Equal(t, filepath.Join(dir, "vectors.db"), store.Path())
	_, err := os.Stat(store.Path())
	assert.NoError(t, err)
}

func TestNewStore_UnreachableSurfacesLazily(t *testing.T) {
	// A regular file where the data directory should be.
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0600))

	store := NewStore(filepath.Join(blocker, "data"))
	require.NotNil(t, store)
	ctx := context.Background()

	assert.False(t, store.Ready(ctx))

	err := store.EnsureCollection(ctx, 4)
	assert.ErrorIs(t, err, domain.ErrStoreConnection)

	_, err = store.Search(ctx, []float32{1, 0, 0, 0}, 5, "t1")
	assert.ErrorIs(t, err, domain.ErrStoreConnection)

	ok, err := store.Upsert(ctx, chunksOf("a"), meta("t1", "doc"), [][]float32{{1, 0, 0, 0}})
	assert.False(t, ok)
	assert.ErrorIs(t, err, domain.ErrStoreConnection)

	err = store.WaitReady(ctx, 2, time.Millisecond)
	assert.ErrorIs(t, err, domain.ErrStoreConnection)
}

func TestWaitReady_Succeeds(t *testing.T) {
	store, _ := setupTestStore(t)
	assert.NoError(t, store.WaitReady(context.Background(), 3, time.Millisecond))
}

func TestClose_Idempotent(t *testing.T) {
	store := NewStore(t.TempDir())
	require.NoError(t, store.Close())
	require.NoError(t, store.Close())

	_, err := store.Count(context.Background(), "t1")
	assert.ErrorIs(t, err, domain.ErrStoreConnection)
}

// ==================== Collection Tests ====================

func TestEnsureCollection_Idempotent(t *testing.T) {
	store, _ := setupTestStore(t, WithNList(8))
	ctx := context.Background()

	require.NoError(t, store.EnsureCollection(ctx, 4))
	require.NoError(t, store.EnsureCollection(ctx, 4))

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, "documents_4", stats.Name)
	assert.Equal(t, 4, stats.Dimension)
	assert.Equal(t, SchemaVersion, stats.SchemaVersion)
	assert.Equal(t, "L2", stats.Metric)
	assert.Equal(t, "IVF_FLAT", stats.IndexType)
	assert.Equal(t, 8, stats.NList)
	assert.False(t, stats.Trained)
	assert.Zero(t, stats.Records)
}

func TestEnsureCollection_ConcurrentCreators(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	stores := make([]*Store, 4)
	for i := range stores {
		stores[i] = NewStore(dir)
		defer stores[i].Close()
	}

	var wg sync.WaitGroup
	errs := make([]error, len(stores))
	for i, s := range stores {
		wg.Add(1)
		go func(i int, s *Store) {
			defer wg.Done()
			errs[i] = s.EnsureCollection(ctx, 4)
		}(i, s)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
}

func TestEnsureCollection_InvalidDimension(t *testing.T) {
	store, _ := setupTestStore(t)
	err := store.EnsureCollection(context.Background(), 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestEnsureCollection_SchemaMismatch(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first := NewStore(dir, WithNList(8))
	require.NoError(t, first.EnsureCollection(ctx, 4))
	require.NoError(t, first.Close())

	second := NewStore(dir, WithNList(16))
	defer second.Close()
	err := second.EnsureCollection(ctx, 4)
	assert.ErrorIs(t, err, domain.ErrSchemaMismatch)
}

func TestEnsureCollection_BoundToOtherDimension(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.EnsureCollection(ctx, 4))
	err := store.EnsureCollection(ctx, 8)
	assert.ErrorIs(t, err, domain.ErrSchemaMismatch)
}

// ==================== Upsert Tests ====================

func TestUpsert_ShapeMismatch(t *testing.T) {
	store, _ := setupTestStore(t)

	ok, err := store.Upsert(context.Background(), chunksOf("a", "b"), meta("t1", "doc"),
		[][]float32{{1, 0, 0, 0}})
	assert.False(t, ok)
	assert.ErrorIs(t, err, domain.ErrShapeMismatch)
}

func TestUpsert_DimensionMismatch(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.EnsureCollection(ctx, 4))

	ok, err := store.Upsert(ctx, chunksOf("a"), meta("t1", "doc"), [][]float32{{1, 0, 0}})
	assert.False(t, ok)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestUpsert_Empty(t *testing.T) {
	store, _ := setupTestStore(t)
	ok, err := store.Upsert(context.Background(), nil, meta("t1", "doc"), nil)
	assert.NoError(t, err)
	assert.True(t, ok)
}

func TestUpsert_CreatesCollectionOnFirstWrite(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	ok, err := store.Upsert(ctx, chunksOf("a"), meta("t1", "doc"), [][]float32{{1, 0, 0, 0}})
	require.NoError(t, err)
	require.True(t, ok)

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Dimension)
	assert.Equal(t, 1, stats.Records)
}

func TestUpsert_BroadcastsMetadataAndPages(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	chunks := []domain.Chunk{
		{Text: "page three", Page: 3},
		{Text: "no page"},
	}
	m := meta("t1", "manual.pdf")
	m.Page = 1

	ok, err := store.Upsert(ctx, chunks, m, [][]float32{{1, 0, 0, 0}, {0, 1, 0, 0}})
	require.NoError(t, err)
	require.True(t, ok)

	hits, err := store.SearchHits(ctx, []float32{1, 0, 0, 0}, 10, "t1")
	require.NoError(t, err)
	require.Len(t, hits, 2)

	first := hits[0].Record
	assert.Equal(t, "page three", first.Text)
	assert.Equal(t, 3, first.Page)
	assert.Equal(t, "t1", first.TenantID)
	assert.Equal(t, "manual.pdf", first.DocumentID)
	assert.Equal(t, "manual.pdf", first.Source)
	assert.Equal(t, domain.DefaultSourceSystem, first.SourceSystem)
	assert.Equal(t, domain.DefaultLanguage, first.Language)
	assert.Equal(t, domain.DefaultVersion, first.Version)
	assert.Equal(t, domain.DefaultAccessPermissions, first.AccessPermissions)
	assert.Equal(t, int64(1700000000), first.LastModified)
	assert.Equal(t, []float32{1, 0, 0, 0}, first.Embedding)

	assert.Equal(t, 1, hits[1].Record.Page)
}

func TestUpsert_BlankTenantUsesDefault(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	ok, err := store.Upsert(ctx, chunksOf("shared"), meta("", "doc"), [][]float32{{1, 0, 0, 0}})
	require.NoError(t, err)
	require.True(t, ok)

	n, err := store.Count(ctx, domain.DefaultTenant)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestUpsert_StorageFailureReturnsFalse(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	oversized := strings.Repeat("x", 70000)
	ok, err := store.Upsert(ctx, chunksOf("fine", oversized), meta("t1", "doc"),
		[][]float32{{1, 0, 0, 0}, {0, 1, 0, 0}})
	assert.NoError(t, err)
	assert.False(t, ok)

	// The whole call is one transaction.
	n, err := store.Count(ctx, "t1")
	require.NoError(t, err)
	assert.Zero(t, n)
}

// ==================== Search Tests ====================

func seedTenants(t *testing.T, store *Store) {
	t.Helper()
	ctx := context.Background()

	ok, err := store.Upsert(ctx, chunksOf("t1 alpha", "t1 beta"), meta("t1", "one.txt"),
		[][]float32{{1, 0, 0, 0}, {0.9, 0.1, 0, 0}})
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = store.Upsert(ctx, chunksOf("t2 alpha"), meta("t2", "two.txt"),
		[][]float32{{1, 0, 0, 0}})
	require.NoError(t, err)
	require.True(t, ok)
}

func TestSearch_TenantIsolation(t *testing.T) {
	store, _ := setupTestStore(t)
	seedTenants(t, store)
	ctx := context.Background()

	got, err := store.Search(ctx, []float32{1, 0, 0, 0}, 10, "t2")
	require.NoError(t, err)
	assert.Equal(t, []string{"t2 alpha"}, got)

	got, err = store.Search(ctx, []float32{1, 0, 0, 0}, 10, "t1")
	require.NoError(t, err)
	assert.Equal(t, []string{"t1 alpha", "t1 beta"}, got)

	got, err = store.Search(ctx, []float32{1, 0, 0, 0}, 10, "t3")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSearch_LimitAndOrder(t *testing.T) {
	store, _ := setupTestStore(t)
	seedTenants(t, store)
	ctx := context.Background()

	got, err := store.Search(ctx, []float32{0.9, 0.1, 0, 0}, 1, "t1")
	require.NoError(t, err)
	assert.Equal(t, []string{"t1 beta"}, got)

	hits, err := store.SearchHits(ctx, []float32{1, 0, 0, 0}, 2, "t1")
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.InDelta(t, 0, hits[0].Distance, 1e-9)
	assert.InDelta(t, 0.02, hits[1].Distance, 1e-6)
}

func TestSearch_NonPositiveLimit(t *testing.T) {
	store, _ := setupTestStore(t)
	seedTenants(t, store)

	for _, limit := range []int{0, -3} {
		got, err := store.Search(context.Background(), []float32{1, 0, 0, 0}, limit, "t1")
		require.NoError(t, err)
		assert.Empty(t, got)
	}
}

func TestSearch_NoCollection(t *testing.T) {
	store, _ := setupTestStore(t)
	got, err := store.Search(context.Background(), []float32{1, 0, 0, 0}, 5, "t1")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSearch_DimensionMismatch(t *testing.T) {
	store, _ := setupTestStore(t)
	seedTenants(t, store)

	_, err := store.Search(context.Background(), []float32{1, 0}, 5, "t1")
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestSearch_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first := NewStore(dir)
	seedTenants(t, first)
	require.NoError(t, first.Close())

	second := NewStore(dir)
	defer second.Close()
	got, err := second.Search(ctx, []float32{1, 0, 0, 0}, 5, "t2")
	require.NoError(t, err)
	assert.Equal(t, []string{"t2 alpha"}, got)
}

// ==================== Index Tests ====================

func clusteredVectors() [][]float32 {
	var out [][]float32
	for i := 0; i < 6; i++ {
		d := float32(i) * 0.01
		out = append(out, []float32{1 + d, 0, 0, 0})
		out = append(out, []float32{0, 0, 1 + d, 0})
	}
	return out
}

func TestBuildIndex_TooFewVectors(t *testing.T) {
	store, _ := setupTestStore(t, WithNList(8))
	ctx := context.Background()
	seedTenants(t, store)

	err := store.BuildIndex(ctx)
	assert.ErrorIs(t, err, vecmath.ErrTooFewVectors)
}

func TestBuildIndex_NoCollection(t *testing.T) {
	store, _ := setupTestStore(t)
	err := store.BuildIndex(context.Background())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBuildIndex_TrainedSearch(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	store := NewStore(dir, WithNList(2), WithNProbe(1))

	vectors := clusteredVectors()
	texts := make([]string, len(vectors))
	for i := range vectors {
		texts[i] = fmt.Sprintf("chunk %d", i)
	}
	ok, err := store.Upsert(ctx, chunksOf(texts...), meta("t1", "doc"), vectors)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, store.BuildIndex(ctx))

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.True(t, stats.Trained)

	// Written after training, assigned on write.
	ok, err = store.Upsert(ctx, chunksOf("late"), meta("t1", "late"), [][]float32{{0, 0, 1.5, 0}})
	require.NoError(t, err)
	require.True(t, ok)

	got, err := store.Search(ctx, []float32{0, 0, 1.5, 0}, 1, "t1")
	require.NoError(t, err)
	assert.Equal(t, []string{"late"}, got)

	// Probing one list never reaches the other cluster.
	hits, err := store.SearchHits(ctx, []float32{1, 0, 0, 0}, 100, "t1")
	require.NoError(t, err)
	assert.Len(t, hits, 6)
	for _, h := range hits {
		assert.Greater(t, h.Record.Embedding[0], float32(0.5))
	}
	require.NoError(t, store.Close())

	reopened := NewStore(dir, WithNList(2), WithNProbe(1))
	defer reopened.Close()
	stats, err = reopened.Stats(ctx)
	require.NoError(t, err)
	assert.True(t, stats.Trained)
	assert.Equal(t, 13, stats.Records)
}

// ==================== Maintenance Tests ====================

func TestDeleteDocument(t *testing.T) {
	store, _ := setupTestStore(t)
	seedTenants(t, store)
	ctx := context.Background()

	n, err := store.DeleteDocument(ctx, "t2", "one.txt", "")
	require.NoError(t, err)
	assert.Zero(t, n, "other tenants' documents are untouched")

	n, err = store.DeleteDocument(ctx, "t1", "one.txt", "/elsewhere/one.txt")
	require.NoError(t, err)
	assert.Zero(t, n, "records read from another path are untouched")

	n, err = store.DeleteDocument(ctx, "t1", "one.txt", "")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	count, err := store.Count(ctx, "t1")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestReplaceDocument_KeysOnPath(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	a := meta("t1", "readme.txt")
	a.Path = "/docs/a/readme.txt"
	b := meta("t1", "readme.txt")
	b.Path = "/docs/b/readme.txt"

	ok, err := store.ReplaceDocument(ctx, chunksOf("a one", "a two"), a, [][]float32{{1, 0, 0, 0}, {0, 1, 0, 0}})
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = store.ReplaceDocument(ctx, chunksOf("b one"), b, [][]float32{{0, 0, 1, 0}})
	require.NoError(t, err)
	require.True(t, ok)

	count, err := store.Count(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, 3, count, "same-named files in different directories coexist")

	ok, err = store.ReplaceDocument(ctx, chunksOf("a new"), a, [][]float32{{1, 0, 0, 0}})
	require.NoError(t, err)
	require.True(t, ok)

	hits, err := store.SearchHits(ctx, []float32{1, 0, 0, 0}, 10, "t1")
	require.NoError(t, err)
	var texts []string
	for _, h := range hits {
		texts = append(texts, h.Record.Text)
	}
	assert.ElementsMatch(t, []string{"a new", "b one"}, texts)
	for _, h := range hits {
		if h.Record.Text == "a new" {
			assert.Equal(t, a.Path, h.Record.Path)
		}
	}
}

func TestReplaceDocument_FailedWriteKeepsRecords(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	m := meta("t1", "doc.txt")
	m.Path = "/docs/doc.txt"
	ok, err := store.ReplaceDocument(ctx, chunksOf("kept"), m, [][]float32{{1, 0, 0, 0}})
	require.NoError(t, err)
	require.True(t, ok)

	// The text length check rejects the insert after the delete ran.
	ok, err = store.ReplaceDocument(ctx, chunksOf(strings.Repeat("x", 70000)), m, [][]float32{{1, 0, 0, 0}})
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := store.Search(ctx, []float32{1, 0, 0, 0}, 10, "t1")
	require.NoError(t, err)
	assert.Equal(t, []string{"kept"}, got)
}

func TestReplaceDocument_EmptyClears(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	m := meta("t1", "doc.txt")
	m.Path = "/docs/doc.txt"
	ok, err := store.ReplaceDocument(ctx, chunksOf("old"), m, [][]float32{{1, 0, 0, 0}})
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = store.ReplaceDocument(ctx, nil, m, nil)
	require.NoError(t, err)
	assert.True(t, ok)

	count, err := store.Count(ctx, "t1")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestStats_Tenants(t *testing.T) {
	store, _ := setupTestStore(t)
	seedTenants(t, store)

	stats, err := store.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Records)
	assert.Equal(t, map[string]int{"t1": 2, "t2": 1}, stats.Tenants)
}

func TestStats_NoCollection(t *testing.T) {
	store, _ := setupTestStore(t)
	_, err := store.Stats(context.Background())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPurge(t *testing.T) {
	store, _ := setupTestStore(t)
	seedTenants(t, store)
	ctx := context.Background()

	require.NoError(t, store.Purge(ctx))

	got, err := store.Search(ctx, []float32{1, 0, 0, 0}, 5, "t1")
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = store.Stats(ctx)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// A purged store accepts a new collection.
	require.NoError(t, store.EnsureCollection(ctx, 8))
}
