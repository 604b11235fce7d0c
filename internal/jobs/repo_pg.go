package jobs

import (
	"context"
	"database/sql"
	"errors"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const jobColumns = `id, user_id, document_id, status, error, started_at, completed_at, created_at, updated_at`

// Create inserts a new job in pending status.
func (r *PGRepo) Create(ctx context.Context, job Job) error {
	const query = `
INSERT INTO processing_jobs (id, user_id, document_id, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $5)`
	status := job.Status
	if status == "" {
		status = StatusPending
	}
	_, err := r.DB.ExecContext(ctx, query, job.ID, job.UserID, job.DocumentID, string(status), job.CreatedAt)
	return err
}

// GetByID returns a job by ID.
func (r *PGRepo) GetByID(ctx context.Context, jobID string) (Job, error) {
	const query = `
SELECT ` + jobColumns + `
FROM processing_jobs
WHERE id = $1
LIMIT 1`
	job, err := scanJob(r.DB.QueryRowContext(ctx, query, jobID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Job{}, ErrNotFound
		}
		return Job{}, err
	}
	return job, nil
}

// GetLatestByDocument returns the most recently created job for a document.
func (r *PGRepo) GetLatestByDocument(ctx context.Context, userID, documentID string) (Job, error) {
	const query = `
SELECT ` + jobColumns + `
FROM processing_jobs
WHERE user_id = $1 AND document_id = $2
ORDER BY created_at DESC
LIMIT 1`
	job, err := scanJob(r.DB.QueryRowContext(ctx, query, userID, documentID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Job{}, ErrNotFound
		}
		return Job{}, err
	}
	return job, nil
}

// UpdateStatus applies a forward status transition. The WHERE clause enforces
// the state machine so concurrent workers cannot resurrect a terminal job.
func (r *PGRepo) UpdateStatus(ctx context.Context, jobID string, status Status, errMsg string) error {
	const query = `
UPDATE processing_jobs
SET status = $1,
    error = COALESCE(NULLIF($2, ''), error),
    started_at = CASE
        WHEN $1 = 'processing' AND started_at IS NULL THEN now()
        ELSE started_at
    END,
    completed_at = CASE
        WHEN ($1 = 'completed' OR $1 = 'failed') AND completed_at IS NULL THEN now()
        ELSE completed_at
    END,
    updated_at = now()
WHERE id = $3
  AND status NOT IN ('completed', 'failed')
  AND status <> $1
  AND NOT ($1 = 'pending')`

	res, err := r.DB.ExecContext(ctx, query, string(status), errMsg, jobID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, getErr := r.GetByID(ctx, jobID); errors.Is(getErr, ErrNotFound) {
			return ErrNotFound
		}
		return ErrInvalidTransition
	}
	return nil
}

func scanJob(row interface{ Scan(dest ...any) error }) (Job, error) {
	var job Job
	var status string
	var errMsg sql.NullString
	var startedAt sql.NullTime
	var completedAt sql.NullTime
	if err := row.Scan(
		&job.ID,
		&job.UserID,
		&job.DocumentID,
		&status,
		&errMsg,
		&startedAt,
		&completedAt,
		&job.CreatedAt,
		&job.UpdatedAt,
	); err != nil {
		return Job{}, err
	}
	job.Status = Status(status)
	if errMsg.Valid {
		job.Error = errMsg.String
	}
	if startedAt.Valid {
		job.StartedAt = &startedAt.Time
	}
	if completedAt.Valid {
		job.CompletedAt = &completedAt.Time
	}
	return job, nil
}

var _ Repo = (*PGRepo)(nil)
