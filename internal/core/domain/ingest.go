package domain

import "time"

// FileResult is the outcome of ingesting one file.
type FileResult struct {
	// Path is the ingested file.
	Path string

	// DocumentID is the identifier the records were stored under.
	DocumentID string

	// Chunks is the number of records written.
	Chunks int

	// Degraded is the number of chunks stored with a zero vector.
	Degraded int

	// Err is nil on success.
	Err error
}

// OK reports whether the file was ingested.
func (r FileResult) OK() bool {
	return r.Err == nil
}

// FileFailure names a file that failed and why.
type FileFailure struct {
	Path string
	Err  error
}

// IngestReport is the aggregate of a best-effort batch ingestion.
// Succeeded is the logical AND of every per-file result.
type IngestReport struct {
	Root      string
	TenantID  string
	Succeeded bool
	Files     []FileResult
	Failures  []FileFailure
}

// NewIngestReport creates an empty report that succeeds until a failure is added.
func NewIngestReport(root, tenant string) *IngestReport {
	return &IngestReport{
		Root:      root,
		TenantID:  tenant,
		Succeeded: true,
	}
}

// Add folds a file result into the report.
func (r *IngestReport) Add(res FileResult) {
	r.Files = append(r.Files, res)
	if res.Err != nil {
		r.Succeeded = false
		r.Failures = append(r.Failures, FileFailure{Path: res.Path, Err: res.Err})
	}
}

// Fail records a failure not tied to a discovered file, such as a missing root.
func (r *IngestReport) Fail(path string, err error) {
	r.Succeeded = false
	r.Failures = append(r.Failures, FileFailure{Path: path, Err: err})
}

// Chunks returns the total number of records written.
func (r *IngestReport) Chunks() int {
	total := 0
	for _, f := range r.Files {
		total += f.Chunks
	}
	return total
}

// JobKind identifies what an ingestion job ingests.
type JobKind string

const (
	JobKindFile      JobKind = "file"
	JobKindDirectory JobKind = "directory"
)

// JobState is the lifecycle state of an ingestion job.
type JobState string

const (
	JobPending   JobState = "pending"
	JobRunning   JobState = "running"
	JobCompleted JobState = "completed"
	JobFailed    JobState = "failed"
)

// JobOptions tune how a job ingests. The zero value uses the configured defaults.
type JobOptions struct {
	// Replace overrides the configured replace mode when set.
	Replace *bool
	// Workers overrides the configured directory concurrency when positive.
	Workers int
}

// JobRequest describes a job to submit.
type JobRequest struct {
	Kind     JobKind
	Target   string
	TenantID string
	Options  JobOptions
}

// Job is an asynchronous ingestion request.
type Job struct {
	ID         string
	Kind       JobKind
	Target     string
	TenantID   string
	Options    JobOptions
	State      JobState
	Report     *IngestReport
	Err        error
	CreatedAt  time.Time
	StartedAt  time.Time
	FinishedAt time.Time
}

// Done reports whether the job reached a terminal state.
func (j Job) Done() bool {
	return j.State == JobCompleted || j.State == JobFailed
}
