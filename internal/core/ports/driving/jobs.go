package driving

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// JobService runs ingestion asynchronously behind a job identifier.
type JobService interface {
	// Submit starts an ingestion job in this process and returns its identifier.
	// The job stops when the process shuts down.
	Submit(ctx context.Context, req domain.JobRequest) (string, error)

	// Enqueue records a pending job without starting it. Another process
	// picks it up with RunQueued.
	Enqueue(ctx context.Context, req domain.JobRequest) (string, error)

	// RunQueued claims a pending job and runs it to completion in the caller.
	RunQueued(ctx context.Context, id string) (domain.Job, error)

	// Status returns a snapshot of the job.
	Status(id string) (domain.Job, error)

	// Wait blocks until the job is done or ctx is cancelled.
	Wait(ctx context.Context, id string) (domain.Job, error)

	// List returns recent jobs, newest first.
	List(ctx context.Context, limit int) ([]domain.Job, error)
}
