package cli

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/embedding/hashing"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-rag/internal/connectors/filesystem"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-rag/internal/core/services"
	"github.com/custodia-labs/sercha-rag/internal/normalisers"
	"github.com/custodia-labs/sercha-rag/internal/postprocessors"
)

const testDimensions = 64

// testServices holds the in-memory stack wired into the package variables.
type testServices struct {
	store    *memory.VectorStore
	jobs     *services.JobRunner
	jobStore *memory.JobStore
	config   *memory.ConfigStore
	settings *services.SettingsService
	launched []string
}

// setupTestServices wires an offline stack and returns a cleanup function.
func setupTestServices() func() {
	_, cleanup := setupTestStack()
	return cleanup
}

func setupTestStack() (*testServices, func()) {
	oldOrchestrator := orchestrator
	oldRetrieval := retrievalService
	oldJobs := jobService
	oldSettings := settingsService
	oldCollection := collectionService

	store := memory.NewVectorStore()
	embedder := services.NewEmbedder(hashing.NewEmbeddingService(testDimensions))
	o := services.NewIngestionOrchestrator(
		normalisers.NewDefault(nil),
		postprocessors.NewDefaultChain(),
		embedder,
		store,
		filesystem.New(filesystem.WithDebounce(0)),
	)
	jobStore := memory.NewJobStore()
	jobs := services.NewJobRunner(o, jobStore)
	config := memory.NewConfigStore(nil)
	settings := services.NewSettingsService(config, &mockEmbeddingValidator{})

	orchestrator = o
	retrievalService = services.NewRetriever(embedder, store)
	jobService = jobs
	settingsService = settings
	collectionService = services.NewCollectionService(store, testDimensions)

	ts := &testServices{store: store, jobs: jobs, jobStore: jobStore, config: config, settings: settings}
	oldLauncher := startJobProcess
	startJobProcess = func(id string) error {
		ts.launched = append(ts.launched, id)
		return nil
	}
	return ts, func() {
		_ = jobs.Shutdown(context.Background())
		startJobProcess = oldLauncher
		orchestrator = oldOrchestrator
		retrievalService = oldRetrieval
		jobService = oldJobs
		settingsService = oldSettings
		collectionService = oldCollection
	}
}

// writeTestFile creates a file below dir and returns its path.
func writeTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// mockEmbeddingValidator is a mock implementation of driven.EmbeddingValidator.
type mockEmbeddingValidator struct {
	err error
}

func (m *mockEmbeddingValidator) ValidateEmbedding(_ *domain.EmbeddingSettings) error {
	return m.err
}

// mockRetrievalServiceError always fails.
type mockRetrievalServiceError struct{}

var _ driving.RetrievalService = (*mockRetrievalServiceError)(nil)

func (m *mockRetrievalServiceError) SearchQuery(messages []domain.Message) string {
	if len(messages) == 0 {
		return ""
	}
	return messages[len(messages)-1].Content
}

func (m *mockRetrievalServiceError) Retrieve(_ context.Context, _ string, _ int, _ string) ([]string, error) {
	return nil, errors.New("store offline")
}

func (m *mockRetrievalServiceError) RetrieveHits(_ context.Context, _ string, _ int, _ string) ([]domain.SearchHit, error) {
	return nil, errors.New("store offline")
}

func (m *mockRetrievalServiceError) GroundingContext(_ context.Context, _ []domain.Message, _ int, _ string) string {
	return ""
}
