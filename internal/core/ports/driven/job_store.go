package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// JobStore persists ingestion jobs so their outcome survives the process.
type JobStore interface {
	// GetJob retrieves a job by ID.
	// Returns nil and no error if the job does not exist.
	GetJob(ctx context.Context, id string) (*domain.Job, error)

	// ListJobs returns the most recent jobs, newest first. limit <= 0 returns all.
	ListJobs(ctx context.Context, limit int) ([]domain.Job, error)

	// SaveJob persists a job's state.
	// Creates or updates the job based on ID.
	SaveJob(ctx context.Context, job *domain.Job) error

	// ClaimJob moves a pending job to running. It returns false when the job
	// does not exist or is no longer pending, so a job runs at most once.
	ClaimJob(ctx context.Context, id string, startedAt time.Time) (bool, error)

	// PruneJobs removes finished jobs beyond the retention limit.
	// Keeps the most recent 'keep' jobs.
	PruneJobs(ctx context.Context, keep int) error
}
