package mcp

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// mockRetrievalService is a mock implementation of driving.RetrievalService.
type mockRetrievalService struct {
	hits    []domain.SearchHit
	query   string
	context string
	err     error

	gotLimit  int
	gotTenant string
}

func (m *mockRetrievalService) SearchQuery(_ []domain.Message) string {
	return m.query
}

func (m *mockRetrievalService) Retrieve(_ context.Context, _ string, _ int, _ string) ([]string, error) {
	texts := make([]string, len(m.hits))
	for i, h := range m.hits {
		texts[i] = h.Record.Text
	}
	return texts, m.err
}

func (m *mockRetrievalService) RetrieveHits(
	_ context.Context,
	_ string,
	limit int,
	tenant string,
) ([]domain.SearchHit, error) {
	m.gotLimit = limit
	m.gotTenant = tenant
	return m.hits, m.err
}

func (m *mockRetrievalService) GroundingContext(
	_ context.Context,
	_ []domain.Message,
	_ int,
	tenant string,
) string {
	m.gotTenant = tenant
	return m.context
}

// mockIngestionService is a mock implementation of driving.IngestionService.
type mockIngestionService struct {
	file   domain.FileResult
	report *domain.IngestReport
	err    error
}

func (m *mockIngestionService) IngestFile(_ context.Context, path, _ string) domain.FileResult {
	res := m.file
	res.Path = path
	return res
}

func (m *mockIngestionService) IngestDirectory(_ context.Context, _, _ string) (*domain.IngestReport, error) {
	return m.report, m.err
}

func (m *mockIngestionService) IngestDocument(
	_ context.Context,
	_ domain.DocumentMetadata,
	_ domain.ExtractedContent,
) (domain.FileResult, error) {
	return m.file, m.err
}

// mockJobService is a mock implementation of driving.JobService.
type mockJobService struct {
	id  string
	job domain.Job
	err error

	gotKind   domain.JobKind
	gotTarget string
}

func (m *mockJobService) Submit(_ context.Context, req domain.JobRequest) (string, error) {
	m.gotKind = req.Kind
	m.gotTarget = req.Target
	return m.id, m.err
}

func (m *mockJobService) Enqueue(ctx context.Context, req domain.JobRequest) (string, error) {
	return m.Submit(ctx, req)
}

func (m *mockJobService) RunQueued(_ context.Context, _ string) (domain.Job, error) {
	return m.job, m.err
}

func (m *mockJobService) Status(_ string) (domain.Job, error) {
	return m.job, m.err
}

func (m *mockJobService) Wait(_ context.Context, _ string) (domain.Job, error) {
	return m.job, m.err
}

func (m *mockJobService) List(_ context.Context, _ int) ([]domain.Job, error) {
	return []domain.Job{m.job}, m.err
}

// mockCollectionService is a mock implementation of driving.CollectionService.
type mockCollectionService struct {
	stats domain.CollectionStats
	err   error
}

func (m *mockCollectionService) Ensure(_ context.Context) error {
	return m.err
}

func (m *mockCollectionService) Stats(_ context.Context) (domain.CollectionStats, error) {
	return m.stats, m.err
}

func (m *mockCollectionService) Count(_ context.Context, _ string) (int, error) {
	return m.stats.Records, m.err
}

func (m *mockCollectionService) Purge(_ context.Context) error {
	return m.err
}

func (m *mockCollectionService) BuildIndex(_ context.Context) error {
	return m.err
}
