package services

import (
	"context"
	"strings"
	"sync"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockEmbeddingModel implements driven.EmbeddingModel for testing.
// Vectors are one-hot on the input length so equal texts embed equally.
type mockEmbeddingModel struct {
	mu    sync.Mutex
	dim   int
	calls [][]string

	// failOn makes any batch containing an input with this substring fail.
	failOn string
	// batchErr fails every call with more than one input.
	batchErr error
	// width overrides the returned vector width when non-zero.
	width int
}

var _ driven.EmbeddingModel = (*mockEmbeddingModel)(nil)

func newMockModel(dim int) *mockEmbeddingModel {
	return &mockEmbeddingModel{dim: dim}
}

func (m *mockEmbeddingModel) Embed(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.calls = append(m.calls, append([]string(nil), texts...))
	m.mu.Unlock()

	if m.batchErr != nil && len(texts) > 1 {
		return nil, m.batchErr
	}
	width := m.dim
	if m.width != 0 {
		width = m.width
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if m.failOn != "" && strings.Contains(text, m.failOn) {
			return nil, errModel
		}
		v := make([]float32, width)
		v[len(text)%width] = 1
		out[i] = v
	}
	return out, nil
}

func (m *mockEmbeddingModel) Calls() [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]string(nil), m.calls...)
}

func (m *mockEmbeddingModel) Dimensions() int { return m.dim }
func (m *mockEmbeddingModel) ModelName() string { return "mock" }
func (m *mockEmbeddingModel) Ping(_ context.Context) error { return nil }
func (m *mockEmbeddingModel) Close() error { return nil }

type modelError string

func (e modelError) Error() string { return string(e) }

const errModel = modelError("model unavailable")

// recordingStore wraps a store and can be told to reject writes.
type recordingStore struct {
	driven.VectorStore

	mu      sync.Mutex
	rejects map[string]bool
	upserts []domain.DocumentMetadata
}

func (s *recordingStore) Upsert(
	ctx context.Context,
	chunks []domain.Chunk,
	meta domain.DocumentMetadata,
	embeddings [][]float32,
) (bool, error) {
	if s.record(meta) {
		return false, nil
	}
	return s.VectorStore.Upsert(ctx, chunks, meta, embeddings)
}

func (s *recordingStore) ReplaceDocument(
	ctx context.Context,
	chunks []domain.Chunk,
	meta domain.DocumentMetadata,
	embeddings [][]float32,
) (bool, error) {
	if s.record(meta) {
		return false, nil
	}
	return s.VectorStore.ReplaceDocument(ctx, chunks, meta, embeddings)
}

// record notes the write and reports whether it should be rejected.
func (s *recordingStore) record(meta domain.DocumentMetadata) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upserts = append(s.upserts, meta)
	return s.rejects[meta.DocumentID]
}
