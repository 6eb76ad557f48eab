package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Ensure JobRunner implements the interface.
var _ driving.JobService = (*JobRunner)(nil)

// DefaultJobRetention is how many finished jobs are kept in the job store.
const DefaultJobRetention = 100

// jobPollInterval is how often Wait rereads a job run by another process.
const jobPollInterval = 250 * time.Millisecond

// ErrNoJobStore is returned by operations that need persisted jobs.
var ErrNoJobStore = errors.New("no job store configured")

// JobRunner runs ingestion in the background behind a job ID.
// Submitted jobs outlive the context they were submitted with and stop on
// Shutdown. Enqueued jobs wait in the job store for RunQueued.
type JobRunner struct {
	ingest    driving.IngestionService
	store     driven.JobStore
	retention int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu   sync.RWMutex
	live map[string]*liveJob
}

type liveJob struct {
	job  domain.Job
	done chan struct{}
}

// NewJobRunner creates a runner. A nil store keeps no record of finished
// jobs beyond the process.
func NewJobRunner(ingest driving.IngestionService, store driven.JobStore) *JobRunner {
	ctx, cancel := context.WithCancel(context.Background())
	return &JobRunner{
		ingest:    ingest,
		store:     store,
		retention: DefaultJobRetention,
		ctx:       ctx,
		cancel:    cancel,
		live:      make(map[string]*liveJob),
	}
}

// SetRetention sets how many finished jobs the store keeps. Non-positive values are ignored.
func (r *JobRunner) SetRetention(n int) {
	if n > 0 {
		r.retention = n
	}
}

// Submit validates the request, records a pending job and starts it.
func (r *JobRunner) Submit(ctx context.Context, req domain.JobRequest) (string, error) {
	if err := r.ctx.Err(); err != nil {
		return "", fmt.Errorf("job runner is shut down: %w", err)
	}
	job, err := newJob(req)
	if err != nil {
		return "", err
	}

	lj := r.track(job)
	r.persist(ctx, lj.job)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.run(r.ctx, lj)
	}()

	logger.Info("Submitted %s job %s for %s", job.Kind, job.ID, job.Target)
	return job.ID, nil
}

// Enqueue validates the request and records it as pending in the job store.
func (r *JobRunner) Enqueue(ctx context.Context, req domain.JobRequest) (string, error) {
	if r.store == nil {
		return "", ErrNoJobStore
	}
	job, err := newJob(req)
	if err != nil {
		return "", err
	}
	if err := r.store.SaveJob(ctx, &job); err != nil {
		return "", fmt.Errorf("saving job %s: %w", job.ID, err)
	}
	logger.Info("Queued %s job %s for %s", job.Kind, job.ID, job.Target)
	return job.ID, nil
}

// RunQueued claims a pending job from the job store and runs it until it
// finishes or ctx is cancelled. A job that is not pending is returned with
// domain.ErrInvalidInput.
func (r *JobRunner) RunQueued(ctx context.Context, id string) (domain.Job, error) {
	if r.store == nil {
		return domain.Job{}, ErrNoJobStore
	}
	claimed, err := r.store.ClaimJob(ctx, id, time.Now())
	if err != nil {
		return domain.Job{}, err
	}
	if !claimed {
		job, err := r.Status(id)
		if err != nil {
			return domain.Job{}, err
		}
		return job, fmt.Errorf("%w: job %s is %s", domain.ErrInvalidInput, id, job.State)
	}

	stored, err := r.store.GetJob(ctx, id)
	if err != nil {
		return domain.Job{}, err
	}
	if stored == nil {
		return domain.Job{}, fmt.Errorf("job %s: %w", id, domain.ErrNotFound)
	}

	lj := r.track(*stored)
	r.run(ctx, lj)
	return r.Status(id)
}

func newJob(req domain.JobRequest) (domain.Job, error) {
	if req.Kind != domain.JobKindFile && req.Kind != domain.JobKindDirectory {
		return domain.Job{}, fmt.Errorf("%w: unknown job kind %q", domain.ErrInvalidInput, req.Kind)
	}
	if req.Target == "" {
		return domain.Job{}, fmt.Errorf("%w: job target is empty", domain.ErrInvalidInput)
	}
	return domain.Job{
		ID:        uuid.NewString(),
		Kind:      req.Kind,
		Target:    req.Target,
		TenantID:  domain.TenantOrDefault(req.TenantID),
		Options:   req.Options,
		State:     domain.JobPending,
		CreatedAt: time.Now(),
	}, nil
}

func (r *JobRunner) track(job domain.Job) *liveJob {
	lj := &liveJob{job: job, done: make(chan struct{})}
	r.mu.Lock()
	r.live[job.ID] = lj
	r.mu.Unlock()
	return lj
}

// ingestFor applies the job's overrides to the orchestrator.
func (r *JobRunner) ingestFor(opts domain.JobOptions) driving.IngestionService {
	o, ok := r.ingest.(*IngestionOrchestrator)
	if !ok {
		return r.ingest
	}
	var overrides []IngestOption
	if opts.Replace != nil {
		overrides = append(overrides, WithReplaceExisting(*opts.Replace))
	}
	if opts.Workers > 0 {
		overrides = append(overrides, WithWorkers(opts.Workers))
	}
	return o.With(overrides...)
}

func (r *JobRunner) run(ctx context.Context, lj *liveJob) {
	defer close(lj.done)

	job := r.update(lj, func(j *domain.Job) {
		j.State = domain.JobRunning
		j.StartedAt = time.Now()
	})
	r.persist(ctx, job)

	ingest := r.ingestFor(job.Options)
	var report *domain.IngestReport
	var err error
	switch job.Kind {
	case domain.JobKindFile:
		report = domain.NewIngestReport(job.Target, job.TenantID)
		report.Add(ingest.IngestFile(ctx, job.Target, job.TenantID))
	case domain.JobKindDirectory:
		report, err = ingest.IngestDirectory(ctx, job.Target, job.TenantID)
	}

	job = r.update(lj, func(j *domain.Job) {
		j.Report = report
		j.FinishedAt = time.Now()
		switch {
		case err != nil:
			j.State = domain.JobFailed
			j.Err = err
		case report == nil || !report.Succeeded:
			j.State = domain.JobFailed
			if report != nil && len(report.Failures) > 0 {
				j.Err = fmt.Errorf("%d of %d files failed", len(report.Failures), max(len(report.Files), len(report.Failures)))
			}
		default:
			j.State = domain.JobCompleted
		}
	})

	// Persist even when shutting down.
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	r.persist(saveCtx, job)
	if r.store != nil {
		if err := r.store.PruneJobs(saveCtx, r.retention); err != nil {
			logger.Warn("Pruning jobs: %v", err)
		}
	}
	logger.Info("Job %s %s", job.ID, job.State)
}

func (r *JobRunner) update(lj *liveJob, fn func(*domain.Job)) domain.Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(&lj.job)
	return lj.job
}

func (r *JobRunner) persist(ctx context.Context, job domain.Job) {
	if r.store == nil {
		return
	}
	if err := r.store.SaveJob(ctx, &job); err != nil {
		logger.Warn("Saving job %s: %v", job.ID, err)
	}
}

// Status returns a snapshot of the job, falling back to the job store
// for jobs from earlier runs.
func (r *JobRunner) Status(id string) (domain.Job, error) {
	r.mu.RLock()
	lj, ok := r.live[id]
	if ok {
		job := lj.job
		r.mu.RUnlock()
		return job, nil
	}
	r.mu.RUnlock()

	if r.store != nil {
		job, err := r.store.GetJob(context.Background(), id)
		if err != nil {
			return domain.Job{}, err
		}
		if job != nil {
			return *job, nil
		}
	}
	return domain.Job{}, fmt.Errorf("job %s: %w", id, domain.ErrNotFound)
}

// Wait blocks until the job is done or ctx is cancelled. Jobs run by
// another process are polled through the job store.
func (r *JobRunner) Wait(ctx context.Context, id string) (domain.Job, error) {
	r.mu.RLock()
	lj, ok := r.live[id]
	r.mu.RUnlock()
	if ok {
		select {
		case <-lj.done:
			return r.Status(id)
		case <-ctx.Done():
			return domain.Job{}, ctx.Err()
		}
	}

	ticker := time.NewTicker(jobPollInterval)
	defer ticker.Stop()
	for {
		job, err := r.Status(id)
		if err != nil || job.Done() {
			return job, err
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return job, ctx.Err()
		}
	}
}

// List returns recent jobs from the job store, newest first.
func (r *JobRunner) List(ctx context.Context, limit int) ([]domain.Job, error) {
	if r.store == nil {
		return nil, nil
	}
	return r.store.ListJobs(ctx, limit)
}

// Shutdown cancels jobs started by Submit and waits for them to record
// their outcome. Enqueued jobs are not affected.
func (r *JobRunner) Shutdown(ctx context.Context) error {
	r.cancel()
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
