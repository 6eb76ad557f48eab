package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/storage/vecmath"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure VectorStore implements the interface.
var _ driven.VectorStore = (*VectorStore)(nil)

// VectorStore is an in-memory implementation of driven.VectorStore.
// Search is an exact scan of the tenant's records.
type VectorStore struct {
	mu      sync.RWMutex
	dim     int
	nextID  int64
	records []domain.VectorRecord
	closed  bool
}

// NewVectorStore creates a new in-memory vector store.
func NewVectorStore() *VectorStore {
	return &VectorStore{}
}

// EnsureCollection binds the store to dimension. Binding again to the same
// dimension is a no-op.
func (s *VectorStore) EnsureCollection(_ context.Context, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("%w: dimension must be positive, got %d", domain.ErrInvalidInput, dimension)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.ErrStoreConnection
	}
	if s.dim != 0 && s.dim != dimension {
		return fmt.Errorf("%w: store has dimension %d, want %d", domain.ErrSchemaMismatch, s.dim, dimension)
	}
	s.dim = dimension
	return nil
}

// Upsert appends one record per chunk.
func (s *VectorStore) Upsert(
	_ context.Context,
	chunks []domain.Chunk,
	meta domain.DocumentMetadata,
	embeddings [][]float32,
) (bool, error) {
	if len(chunks) == 0 && len(embeddings) == 0 {
		return true, nil
	}
	meta, err := checkWrite(chunks, meta, embeddings)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.bindLocked(embeddings); err != nil {
		return false, err
	}
	s.appendLocked(chunks, meta, embeddings)
	return true, nil
}

// ReplaceDocument swaps the records of the document read from meta.Path.
func (s *VectorStore) ReplaceDocument(
	_ context.Context,
	chunks []domain.Chunk,
	meta domain.DocumentMetadata,
	embeddings [][]float32,
) (bool, error) {
	meta, err := checkWrite(chunks, meta, embeddings)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(chunks) > 0 {
		if err := s.bindLocked(embeddings); err != nil {
			return false, err
		}
	}
	s.deleteLocked(meta.TenantID, meta.DocumentID, meta.Path)
	s.appendLocked(chunks, meta, embeddings)
	return true, nil
}

func checkWrite(chunks []domain.Chunk, meta domain.DocumentMetadata, embeddings [][]float32) (domain.DocumentMetadata, error) {
	if len(chunks) != len(embeddings) {
		return meta, fmt.Errorf("%w: %d chunks, %d embeddings", domain.ErrShapeMismatch, len(chunks), len(embeddings))
	}
	meta = meta.WithDefaults()
	return meta, meta.Validate()
}

func (s *VectorStore) bindLocked(embeddings [][]float32) error {
	if s.closed {
		return domain.ErrStoreConnection
	}
	if s.dim == 0 {
		s.dim = len(embeddings[0])
	}
	for i, emb := range embeddings {
		if len(emb) != s.dim {
			return fmt.Errorf("%w: embedding %d has %d dimensions, want %d",
				domain.ErrDimensionMismatch, i, len(emb), s.dim)
		}
	}
	return nil
}

func (s *VectorStore) appendLocked(chunks []domain.Chunk, meta domain.DocumentMetadata, embeddings [][]float32) {
	var lastModified int64
	if !meta.LastModified.IsZero() {
		lastModified = meta.LastModified.Unix()
	}
	for i, chunk := range chunks {
		page := meta.Page
		if chunk.Page > 0 {
			page = chunk.Page
		}
		s.nextID++
		s.records = append(s.records, domain.VectorRecord{
			ID:                s.nextID,
			Embedding:         append([]float32(nil), embeddings[i]...),
			Text:              chunk.Text,
			TenantID:          meta.TenantID,
			DocumentID:        meta.DocumentID,
			Source:            meta.Source,
			SourceSystem:      meta.SourceSystem,
			Language:          meta.Language,
			Version:           meta.Version,
			LastModified:      lastModified,
			AccessPermissions: meta.AccessPermissions,
			Page:              page,
			Path:              meta.Path,
		})
	}
}

// Search returns the texts of the nearest records for tenant.
func (s *VectorStore) Search(ctx context.Context, vector []float32, limit int, tenant string) ([]string, error) {
	hits, err := s.SearchHits(ctx, vector, limit, tenant)
	if err != nil {
		return nil, err
	}
	texts := make([]string, len(hits))
	for i, h := range hits {
		texts[i] = h.Record.Text
	}
	return texts, nil
}

// SearchHits ranks the tenant's records by squared L2 distance.
func (s *VectorStore) SearchHits(_ context.Context, vector []float32, limit int, tenant string) ([]domain.SearchHit, error) {
	if limit <= 0 {
		return []domain.SearchHit{}, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, domain.ErrStoreConnection
	}
	if s.dim == 0 {
		return []domain.SearchHit{}, nil
	}
	if len(vector) != s.dim {
		return nil, fmt.Errorf("%w: query has %d dimensions, want %d", domain.ErrDimensionMismatch, len(vector), s.dim)
	}

	tenant = domain.TenantOrDefault(tenant)
	hits := []domain.SearchHit{}
	for _, rec := range s.records {
		if rec.TenantID != tenant {
			continue
		}
		hits = append(hits, domain.SearchHit{Record: rec, Distance: vecmath.SquaredL2(vector, rec.Embedding)})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// Count returns the number of records stored for tenant.
func (s *VectorStore) Count(_ context.Context, tenant string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tenant = domain.TenantOrDefault(tenant)
	n := 0
	for _, rec := range s.records {
		if rec.TenantID == tenant {
			n++
		}
	}
	return n, nil
}

// DeleteDocument removes the records of one document read from path for tenant.
func (s *VectorStore) DeleteDocument(_ context.Context, tenant, documentID, path string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteLocked(domain.TenantOrDefault(tenant), documentID, path), nil
}

func (s *VectorStore) deleteLocked(tenant, documentID, path string) int {
	kept := s.records[:0]
	removed := 0
	for _, rec := range s.records {
		if rec.TenantID == tenant && rec.DocumentID == documentID && rec.Path == path {
			removed++
			continue
		}
		kept = append(kept, rec)
	}
	s.records = kept
	return removed
}

// Purge removes every record and unbinds the dimension.
func (s *VectorStore) Purge(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = nil
	s.dim = 0
	return nil
}

// Stats describes the store.
func (s *VectorStore) Stats(_ context.Context) (domain.CollectionStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.dim == 0 {
		return domain.CollectionStats{}, fmt.Errorf("no collection: %w", domain.ErrNotFound)
	}
	stats := domain.CollectionStats{
		Name:          fmt.Sprintf("documents_%d", s.dim),
		Dimension:     s.dim,
		SchemaVersion: 2,
		Metric:        "L2",
		IndexType:     "FLAT",
		Records:       len(s.records),
		Tenants:       make(map[string]int),
	}
	for _, rec := range s.records {
		stats.Tenants[rec.TenantID]++
	}
	return stats, nil
}

// Ping reports whether the store is open.
func (s *VectorStore) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return domain.ErrStoreConnection
	}
	return nil
}

// Close marks the store closed.
func (s *VectorStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
