package cache

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// mockModel is a testify mock of driven.EmbeddingModel.
type mockModel struct {
	mock.Mock
}

func (m *mockModel) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	args := m.Called(ctx, texts)
	if v := args.Get(0); v != nil {
		return v.([][]float32), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockModel) Dimensions() int { return 2 }
func (m *mockModel) ModelName() string { return "mock" }
func (m *mockModel) Ping(context.Context) error { return nil }
func (m *mockModel) Close() error { return nil }

func openCache(t *testing.T, inner *mockModel) *EmbeddingService {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "cache.db"), inner)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.db.Close() })
	return s
}

func TestEmbed_HitAvoidsModel(t *testing.T) {
	inner := &mockModel{}
	inner.On("Embed", mock.Anything, []string{"a", "b"}).Return([][]float32{{1, 0}, {0, 1}}, nil).Once()
	s := openCache(t, inner)

	first, err := s.Embed(context.Background(), []string{"a", "b"})
	require.NoError(t, err)

	second, err := s.Embed(context.Background(), []string{"a", "b"})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 2, s.Len())
	inner.AssertNumberOfCalls(t, "Embed", 1)
}

func TestEmbed_OnlyMissesReachModel(t *testing.T) {
	inner := &mockModel{}
	inner.On("Embed", mock.Anything, []string{"a"}).Return([][]float32{{1, 1}}, nil).Once()
	inner.On("Embed", mock.Anything, []string{"b"}).Return([][]float32{{2, 2}}, nil).Once()
	s := openCache(t, inner)

	_, err := s.Embed(context.Background(), []string{"a"})
	require.NoError(t, err)

	vectors, err := s.Embed(context.Background(), []string{"b", "a"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{2, 2}, {1, 1}}, vectors)
	inner.AssertExpectations(t)
}

func TestEmbed_WrongWidthNotCached(t *testing.T) {
	inner := &mockModel{}
	inner.On("Embed", mock.Anything, []string{"x"}).Return([][]float32{{1, 2, 3}}, nil).Twice()
	s := openCache(t, inner)

	_, err := s.Embed(context.Background(), []string{"x"})
	require.NoError(t, err)
	_, err = s.Embed(context.Background(), []string{"x"})
	require.NoError(t, err)

	assert.Equal(t, 0, s.Len())
	inner.AssertExpectations(t)
}

func TestEmbed_ModelError(t *testing.T) {
	boom := errors.New("boom")
	inner := &mockModel{}
	inner.On("Embed", mock.Anything, mock.Anything).Return(nil, boom)
	s := openCache(t, inner)

	_, err := s.Embed(context.Background(), []string{"x"})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, s.Len())
}

func TestPersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	inner := &mockModel{}
	inner.On("Embed", mock.Anything, []string{"kept"}).Return([][]float32{{3, 4}}, nil).Once()

	s, err := Open(path, inner)
	require.NoError(t, err)
	_, err = s.Embed(context.Background(), []string{"kept"})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	reopened, err := Open(path, inner)
	require.NoError(t, err)
	defer reopened.Close()

	vectors, err := reopened.Embed(context.Background(), []string{"kept"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{3, 4}}, vectors)
	inner.AssertNumberOfCalls(t, "Embed", 1)
	assert.Equal(t, "mock", reopened.ModelName())
	assert.Equal(t, 2, reopened.Dimensions())
}
