package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

const jobColumns = `id, kind, target, tenant_id, replace_existing, workers, state, succeeded, error,
	created_at, started_at, finished_at`

// GetJob retrieves a job by ID.
// Returns nil and no error if the job does not exist.
func (s *Store) GetJob(ctx context.Context, id string) (*domain.Job, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}

	row := db.QueryRowContext(ctx, "SELECT "+jobColumns+" FROM jobs WHERE id = ?", id)
	job, succeeded, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil // Per interface: return nil and no error if not found
	}
	if err != nil {
		return nil, err
	}

	if err := loadJobFiles(ctx, db, job, succeeded); err != nil {
		return nil, err
	}
	return job, nil
}

// ListJobs returns the most recent jobs, newest first.
func (s *Store) ListJobs(ctx context.Context, limit int) ([]domain.Job, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := db.QueryContext(ctx,
		"SELECT "+jobColumns+" FROM jobs ORDER BY created_at DESC, id LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("querying jobs: %w", err)
	}

	type loaded struct {
		job       *domain.Job
		succeeded bool
	}
	var all []loaded
	for rows.Next() {
		job, succeeded, err := scanJob(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		all = append(all, loaded{job, succeeded})
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, fmt.Errorf("iterating jobs: %w", err)
	}

	jobs := make([]domain.Job, 0, len(all))
	for _, l := range all {
		if err := loadJobFiles(ctx, db, l.job, l.succeeded); err != nil {
			return nil, err
		}
		jobs = append(jobs, *l.job)
	}
	return jobs, nil
}

// SaveJob persists a job's state and its report.
// Creates or updates the job based on ID.
func (s *Store) SaveJob(ctx context.Context, job *domain.Job) error {
	if job == nil || job.ID == "" {
		return domain.ErrInvalidInput
	}
	db, err := s.conn()
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	succeeded := job.Report != nil && job.Report.Succeeded
	created := job.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO jobs (id, kind, target, tenant_id, replace_existing, workers, state, succeeded, error,
			created_at, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			kind = excluded.kind,
			target = excluded.target,
			tenant_id = excluded.tenant_id,
			replace_existing = excluded.replace_existing,
			workers = excluded.workers,
			state = excluded.state,
			succeeded = excluded.succeeded,
			error = excluded.error,
			started_at = excluded.started_at,
			finished_at = excluded.finished_at
	`, job.ID, string(job.Kind), job.Target, job.TenantID, nullBool(job.Options.Replace),
		job.Options.Workers, string(job.State),
		boolToInt(succeeded), nullString(errString(job.Err)), formatNullableTime(created),
		formatNullableTime(job.StartedAt), formatNullableTime(job.FinishedAt))
	if err != nil {
		return fmt.Errorf("saving job: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM job_files WHERE job_id = ?", job.ID); err != nil {
		return fmt.Errorf("clearing job files: %w", err)
	}
	if job.Report != nil {
		if err := saveJobFiles(ctx, tx, job.ID, job.Report); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing job: %w", err)
	}
	return nil
}

// ClaimJob moves a pending job to running in a single statement, so two
// processes racing for the same job cannot both win.
func (s *Store) ClaimJob(ctx context.Context, id string, startedAt time.Time) (bool, error) {
	db, err := s.conn()
	if err != nil {
		return false, err
	}
	res, err := db.ExecContext(ctx,
		"UPDATE jobs SET state = ?, started_at = ? WHERE id = ? AND state = ?",
		string(domain.JobRunning), formatNullableTime(startedAt), id, string(domain.JobPending))
	if err != nil {
		return false, fmt.Errorf("claiming job: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("claiming job: %w", err)
	}
	return n == 1, nil
}

// PruneJobs removes finished jobs beyond the retention limit.
func (s *Store) PruneJobs(ctx context.Context, keep int) error {
	db, err := s.conn()
	if err != nil {
		return err
	}
	if keep < 0 {
		keep = 0
	}

	_, err = db.ExecContext(ctx, `
		DELETE FROM jobs
		WHERE state IN (?, ?)
		AND id NOT IN (
			SELECT id FROM jobs
			WHERE state IN (?, ?)
			ORDER BY created_at DESC, id
			LIMIT ?
		)
	`, string(domain.JobCompleted), string(domain.JobFailed),
		string(domain.JobCompleted), string(domain.JobFailed), keep)
	if err != nil {
		return fmt.Errorf("pruning jobs: %w", err)
	}
	return nil
}

// saveJobFiles writes per-file results followed by failures not tied to a file.
func saveJobFiles(ctx context.Context, tx *sql.Tx, jobID string, report *domain.IngestReport) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO job_files (job_id, seq, path, document_id, chunks, degraded, error, listed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing job files: %w", err)
	}
	defer stmt.Close()

	failedFiles := make(map[string]bool)
	seq := 0
	for _, f := range report.Files {
		if f.Err != nil {
			failedFiles[f.Path] = true
		}
		if _, err := stmt.ExecContext(ctx, jobID, seq, f.Path, nullString(f.DocumentID),
			f.Chunks, f.Degraded, nullString(errString(f.Err)), 1); err != nil {
			return fmt.Errorf("saving job file: %w", err)
		}
		seq++
	}
	for _, f := range report.Failures {
		if failedFiles[f.Path] {
			continue
		}
		if _, err := stmt.ExecContext(ctx, jobID, seq, f.Path, nil, 0, 0,
			nullString(errString(f.Err)), 0); err != nil {
			return fmt.Errorf("saving job failure: %w", err)
		}
		seq++
	}
	return nil
}

// loadJobFiles rebuilds a finished job's report. Errors come back as plain messages.
func loadJobFiles(ctx context.Context, db *sql.DB, job *domain.Job, succeeded bool) error {
	rows, err := db.QueryContext(ctx, `
		SELECT path, document_id, chunks, degraded, error, listed
		FROM job_files WHERE job_id = ? ORDER BY seq
	`, job.ID)
	if err != nil {
		return fmt.Errorf("querying job files: %w", err)
	}
	defer rows.Close()

	report := domain.NewIngestReport(job.Target, job.TenantID)
	found := false
	for rows.Next() {
		var res domain.FileResult
		var docID, errMsg sql.NullString
		var listed int
		if err := rows.Scan(&res.Path, &docID, &res.Chunks, &res.Degraded, &errMsg, &listed); err != nil {
			return fmt.Errorf("scanning job file: %w", err)
		}
		found = true
		res.DocumentID = docID.String
		if errMsg.Valid {
			res.Err = errors.New(errMsg.String)
		}
		if listed == 1 {
			report.Add(res)
		} else {
			report.Fail(res.Path, res.Err)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating job files: %w", err)
	}

	if found || job.Done() {
		report.Succeeded = succeeded
		job.Report = report
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanJob scans a job row without its files.
func scanJob(row rowScanner) (*domain.Job, bool, error) {
	var job domain.Job
	var kind, state string
	var succeeded int
	var replace sql.NullBool
	var errMsg, createdAt, startedAt, finishedAt sql.NullString

	if err := row.Scan(&job.ID, &kind, &job.Target, &job.TenantID, &replace, &job.Options.Workers, &state,
		&succeeded, &errMsg, &createdAt, &startedAt, &finishedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, err
		}
		return nil, false, fmt.Errorf("scanning job: %w", err)
	}

	job.Kind = domain.JobKind(kind)
	job.State = domain.JobState(state)
	if replace.Valid {
		job.Options.Replace = &replace.Bool
	}
	if errMsg.Valid {
		job.Err = errors.New(errMsg.String)
	}
	job.CreatedAt = parseNullableTime(createdAt)
	job.StartedAt = parseNullableTime(startedAt)
	job.FinishedAt = parseNullableTime(finishedAt)

	return &job, succeeded == 1, nil
}
