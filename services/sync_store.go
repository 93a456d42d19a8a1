package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"prepTrackAPI/internal/db"
	"prepTrackAPI/internal/types/syncjob"
)

const syncJobColumns = `id, kind, user_id, company_id, status, attempts, last_error, scheduled_for, created_at, updated_at`

// PgJobStore keeps the outbox in the sync_jobs table.
type PgJobStore struct {
	db db.Querier
}

func NewPgJobStore(q db.Querier) *PgJobStore {
	return &PgJobStore{db: q}
}

func (s *PgJobStore) Insert(ctx context.Context, job *syncjob.Job) (*syncjob.Job, bool, error) {
	// A pending job may be waiting out a backoff; the new event needs it now.
	existing, err := scanJob(s.db.QueryRow(ctx, `
		UPDATE sync_jobs SET scheduled_for = LEAST(scheduled_for, $4::timestamptz), updated_at = NOW()
		WHERE id = (
			SELECT id FROM sync_jobs
			WHERE kind = $1::text AND user_id = $2::text
			  AND company_id IS NOT DISTINCT FROM $3::text
			  AND status = 'pending'
			ORDER BY created_at
			LIMIT 1
			FOR UPDATE
		)
		RETURNING `+syncJobColumns,
		job.Kind, job.UserID, job.CompanyID, job.ScheduledFor))
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, fmt.Errorf("failed to check pending sync jobs: %w", err)
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO sync_jobs (id, kind, user_id, company_id, status, attempts, scheduled_for, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 'pending', 0, $5, $6, $6)
	`, job.ID, job.Kind, job.UserID, job.CompanyID, job.ScheduledFor, job.CreatedAt)
	if err != nil {
		return nil, false, fmt.Errorf("failed to insert sync job: %w", err)
	}
	return job, true, nil
}

func (s *PgJobStore) Claim(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE sync_jobs SET status = 'running', updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`, id)
	if err != nil {
		return false, fmt.Errorf("failed to claim sync job: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PgJobStore) ClaimDue(ctx context.Context, limit int) ([]*syncjob.Job, error) {
	query := `
	UPDATE sync_jobs SET status = 'running', updated_at = NOW()
	WHERE id IN (
		SELECT id FROM sync_jobs
		WHERE status = 'pending' AND scheduled_for <= NOW()
		ORDER BY scheduled_for
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	)
	RETURNING ` + syncJobColumns

	rows, err := s.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to claim due sync jobs: %w", err)
	}
	return collectJobs(rows)
}

func (s *PgJobStore) MarkDone(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.Exec(ctx, `
		UPDATE sync_jobs SET status = 'done', last_error = NULL, updated_at = NOW()
		WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("failed to mark sync job done: %w", err)
	}
	return nil
}

func (s *PgJobStore) MarkFailed(ctx context.Context, id uuid.UUID, attempts int, lastErr string, retryAt *time.Time) error {
	var err error
	if retryAt == nil {
		_, err = s.db.Exec(ctx, `
			UPDATE sync_jobs SET status = 'dead', attempts = $2, last_error = $3, updated_at = NOW()
			WHERE id = $1
		`, id, attempts, lastErr)
	} else {
		_, err = s.db.Exec(ctx, `
			UPDATE sync_jobs SET status = 'pending', attempts = $2, last_error = $3, scheduled_for = $4, updated_at = NOW()
			WHERE id = $1
		`, id, attempts, lastErr, *retryAt)
	}
	if err != nil {
		return fmt.Errorf("failed to mark sync job failed: %w", err)
	}
	return nil
}

func (s *PgJobStore) RequeueStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE sync_jobs SET status = 'pending', updated_at = NOW()
		WHERE status = 'running' AND updated_at < NOW() - make_interval(secs => $1)
	`, olderThan.Seconds())
	if err != nil {
		return 0, fmt.Errorf("failed to requeue stale sync jobs: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *PgJobStore) PruneDone(ctx context.Context, olderThan time.Duration) (int64, error) {
	tag, err := s.db.Exec(ctx, `
		DELETE FROM sync_jobs
		WHERE status = 'done' AND updated_at < NOW() - make_interval(secs => $1)
	`, olderThan.Seconds())
	if err != nil {
		return 0, fmt.Errorf("failed to prune sync jobs: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *PgJobStore) List(ctx context.Context, userID string, status syncjob.Status, limit int) ([]*syncjob.Job, error) {
	query := `
	SELECT ` + syncJobColumns + `
	FROM sync_jobs
	WHERE user_id = $1 AND ($2::text = '' OR status = $2::text)
	ORDER BY created_at DESC
	LIMIT $3
	`
	rows, err := s.db.Query(ctx, query, userID, string(status), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sync jobs: %w", err)
	}
	return collectJobs(rows)
}

func scanJob(row pgx.Row) (*syncjob.Job, error) {
	j := &syncjob.Job{}
	err := row.Scan(
		&j.ID, &j.Kind, &j.UserID, &j.CompanyID, &j.Status,
		&j.Attempts, &j.LastError, &j.ScheduledFor, &j.CreatedAt, &j.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return j, nil
}

func collectJobs(rows pgx.Rows) ([]*syncjob.Job, error) {
	defer rows.Close()

	jobs := []*syncjob.Job{}
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sync job: %w", err)
		}
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sync jobs: %w", err)
	}
	return jobs, nil
}
