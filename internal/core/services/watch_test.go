package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/embedding/hashing"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/normalisers"
	"github.com/custodia-labs/sercha-rag/internal/postprocessors"
)

// scriptedSource replays a fixed list of changes from Watch.
type scriptedSource struct {
	changes  []domain.FileChange
	watchErr error
}

func (s *scriptedSource) Discover(context.Context, string) ([]string, []domain.FileFailure, error) {
	return nil, nil, nil
}

func (s *scriptedSource) Matches(string) bool { return true }

func (s *scriptedSource) Watch(ctx context.Context, _ string) (<-chan domain.FileChange, error) {
	if s.watchErr != nil {
		return nil, s.watchErr
	}
	out := make(chan domain.FileChange)
	go func() {
		defer close(out)
		for _, c := range s.changes {
			select {
			case out <- c:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (s *scriptedSource) Close() error { return nil }

func newWatchOrchestrator(source *scriptedSource) (*IngestionOrchestrator, *memory.VectorStore) {
	store := memory.NewVectorStore()
	o := NewIngestionOrchestrator(
		normalisers.NewDefault(nil),
		postprocessors.NewDefaultChain(),
		NewEmbedder(hashing.NewEmbeddingService(64)),
		store,
		source,
	)
	return o, store
}

func TestWatcher_AppliesChanges(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	writeFile(t, path, "first version of the notes")

	source := &scriptedSource{changes: []domain.FileChange{
		{Type: domain.ChangeCreated, Path: path},
		{Type: domain.ChangeUpdated, Path: path},
	}}
	o, store := newWatchOrchestrator(source)

	var events []WatchEvent
	w := NewWatcher(o, func(ev WatchEvent) { events = append(events, ev) })
	require.NoError(t, w.Run(context.Background(), dir, "t1"))

	require.Len(t, events, 2)
	for _, ev := range events {
		assert.NoError(t, ev.Err)
		assert.Equal(t, 1, ev.Result.Chunks)
	}

	// Replace mode keeps one copy of the document.
	count, err := store.Count(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestWatcher_DeletesRemovedFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	writeFile(t, path, "content that will be removed")

	source := &scriptedSource{changes: []domain.FileChange{
		{Type: domain.ChangeCreated, Path: path},
		{Type: domain.ChangeDeleted, Path: path},
	}}
	o, store := newWatchOrchestrator(source)

	var events []WatchEvent
	w := NewWatcher(o, func(ev WatchEvent) { events = append(events, ev) })
	require.NoError(t, w.Run(context.Background(), dir, "t1"))

	require.Len(t, events, 2)
	assert.Equal(t, 1, events[1].Removed)

	count, err := store.Count(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestWatcher_DeleteKeepsSameNamedFile(t *testing.T) {
	dir := t.TempDir()
	kept := filepath.Join(dir, "a", "notes.txt")
	gone := filepath.Join(dir, "b", "notes.txt")
	writeFile(t, kept, "notes that stay")
	writeFile(t, gone, "notes that go")

	source := &scriptedSource{changes: []domain.FileChange{
		{Type: domain.ChangeCreated, Path: kept},
		{Type: domain.ChangeCreated, Path: gone},
		{Type: domain.ChangeDeleted, Path: gone},
	}}
	o, store := newWatchOrchestrator(source)

	var events []WatchEvent
	w := NewWatcher(o, func(ev WatchEvent) { events = append(events, ev) })
	require.NoError(t, w.Run(context.Background(), dir, "t1"))

	require.Len(t, events, 3)
	assert.Equal(t, 1, events[2].Removed)

	texts, err := store.Search(context.Background(), make([]float32, 64), 10, "t1")
	require.NoError(t, err)
	require.Len(t, texts, 1)
	assert.Contains(t, texts[0], "notes that stay")
}

func TestWatcher_ReportsFailures(t *testing.T) {
	source := &scriptedSource{changes: []domain.FileChange{
		{Type: domain.ChangeUpdated, Path: filepath.Join(t.TempDir(), "gone.txt")},
	}}
	o, _ := newWatchOrchestrator(source)

	var events []WatchEvent
	w := NewWatcher(o, func(ev WatchEvent) { events = append(events, ev) })
	require.NoError(t, w.Run(context.Background(), "/docs", "t1"))

	require.Len(t, events, 1)
	assert.Error(t, events[0].Err)
}

func TestWatcher_WatchError(t *testing.T) {
	boom := errors.New("boom")
	o, _ := newWatchOrchestrator(&scriptedSource{watchErr: boom})

	err := NewWatcher(o, nil).Run(context.Background(), "/docs", "t1")
	assert.ErrorIs(t, err, boom)
}

func TestWatcher_DoesNotChangeOrchestrator(t *testing.T) {
	o, _ := newWatchOrchestrator(&scriptedSource{})
	_ = NewWatcher(o, nil)
	assert.False(t, o.replace)
}
