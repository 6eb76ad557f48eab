package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure JobStore implements the interface.
var _ driven.JobStore = (*JobStore)(nil)

// JobStore is an in-memory implementation of driven.JobStore.
type JobStore struct {
	mu   sync.RWMutex
	jobs map[string]domain.Job
}

// NewJobStore creates a new in-memory job store.
func NewJobStore() *JobStore {
	return &JobStore{jobs: make(map[string]domain.Job)}
}

// GetJob retrieves a job by ID, or nil if it does not exist.
func (s *JobStore) GetJob(_ context.Context, id string) (*domain.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, nil
	}
	return &job, nil
}

// ListJobs returns the most recent jobs, newest first.
func (s *JobStore) ListJobs(_ context.Context, limit int) ([]domain.Job, error) {
	s.mu.RLock()
	jobs := make([]domain.Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		jobs = append(jobs, job)
	}
	s.mu.RUnlock()

	sortNewestFirst(jobs)
	if limit > 0 && len(jobs) > limit {
		jobs = jobs[:limit]
	}
	return jobs, nil
}

// SaveJob stores or updates a job.
func (s *JobStore) SaveJob(_ context.Context, job *domain.Job) error {
	if job == nil || job.ID == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = *job
	return nil
}

// ClaimJob moves a pending job to running.
func (s *JobStore) ClaimJob(_ context.Context, id string, startedAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok || job.State != domain.JobPending {
		return false, nil
	}
	job.State = domain.JobRunning
	job.StartedAt = startedAt
	s.jobs[id] = job
	return true, nil
}

// PruneJobs keeps the most recent 'keep' finished jobs.
func (s *JobStore) PruneJobs(_ context.Context, keep int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var done []domain.Job
	for _, job := range s.jobs {
		if job.Done() {
			done = append(done, job)
		}
	}
	sortNewestFirst(done)
	if keep < 0 {
		keep = 0
	}
	for i := keep; i < len(done); i++ {
		delete(s.jobs, done[i].ID)
	}
	return nil
}

func sortNewestFirst(jobs []domain.Job) {
	sort.Slice(jobs, func(i, j int) bool {
		if !jobs[i].CreatedAt.Equal(jobs[j].CreatedAt) {
			return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
		}
		return jobs[i].ID < jobs[j].ID
	})
}
