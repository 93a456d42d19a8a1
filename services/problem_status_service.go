package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"prepTrackAPI/internal/cache"
	"prepTrackAPI/internal/db"
	"prepTrackAPI/internal/logger"
	"prepTrackAPI/internal/types/problem"
	"prepTrackAPI/internal/types/syncjob"
)

// SyncEnqueuer hands a summary recompute to the background outbox.
type SyncEnqueuer interface {
	Enqueue(ctx context.Context, kind syncjob.Kind, userID string, companyID *string) (*syncjob.Job, error)
}

// StreakRecorder is the part of StreakService a status change drives.
type StreakRecorder interface {
	RecordSolve(ctx context.Context, userID string, solvedAt time.Time) (*StreakUpdate, error)
}

type ProblemStatusService struct {
	db      db.Querier
	log     *logger.Logger
	streaks StreakRecorder
	sync    SyncEnqueuer
	cache   cache.SummaryCache
	now     func() time.Time
}

func NewProblemStatusService(q db.Querier, log *logger.Logger, streaks StreakRecorder, sync SyncEnqueuer, c cache.SummaryCache) *ProblemStatusService {
	if c == nil {
		c = cache.Noop{}
	}
	return &ProblemStatusService{
		db:      q,
		log:     log.With("service", "ProblemStatusService"),
		streaks: streaks,
		sync:    sync,
		cache:   c,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

const statusColumns = `user_id, problem_id, status, starred, liked, saved, times_attempted, solved_at, last_attempt_at, updated_at`

func scanStatus(row pgx.Row) (*problem.ProblemStatus, error) {
	ps := &problem.ProblemStatus{}
	err := row.Scan(
		&ps.UserID,
		&ps.ProblemID,
		&ps.Status,
		&ps.Starred,
		&ps.Liked,
		&ps.Saved,
		&ps.TimesAttempted,
		&ps.SolvedAt,
		&ps.LastAttemptAt,
		&ps.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return ps, nil
}

func (s *ProblemStatusService) GetStatus(ctx context.Context, userID string, problemID int64) (*problem.ProblemStatus, error) {
	if userID == "" {
		return nil, missing("user_id")
	}
	if problemID <= 0 {
		return nil, missing("problem_id")
	}

	query := `SELECT ` + statusColumns + ` FROM problem_status WHERE user_id = $1 AND problem_id = $2`
	ps, err := scanStatus(s.db.QueryRow(ctx, query, userID, problemID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// No interaction yet reads as a fresh unsolved row.
			return &problem.ProblemStatus{UserID: userID, ProblemID: problemID, Status: problem.StatusUnsolved}, nil
		}
		return nil, fmt.Errorf("failed to get problem status: %w", err)
	}
	return ps, nil
}

func (s *ProblemStatusService) ListStatuses(ctx context.Context, userID string) ([]*problem.ProblemStatus, error) {
	if userID == "" {
		return nil, missing("user_id")
	}

	query := `SELECT ` + statusColumns + ` FROM problem_status WHERE user_id = $1 ORDER BY problem_id`
	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list problem statuses: %w", err)
	}
	defer rows.Close()

	statuses := []*problem.ProblemStatus{}
	for rows.Next() {
		ps, err := scanStatus(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan problem status: %w", err)
		}
		statuses = append(statuses, ps)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate problem statuses: %w", err)
	}
	return statuses, nil
}

// UpdateStatus persists a status change and then drives the derived
// summaries. The status write is the primary effect; streak and company
// syncs after it are best-effort and never fail the call.
func (s *ProblemStatusService) UpdateStatus(ctx context.Context, userID string, problemID int64, status problem.Status) (*problem.ProblemStatus, error) {
	if userID == "" {
		return nil, missing("user_id")
	}
	if problemID <= 0 {
		return nil, missing("problem_id")
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	now := s.now()

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var prevSolvedAt *time.Time
	err = tx.QueryRow(ctx, `
		SELECT solved_at FROM problem_status
		WHERE user_id = $1 AND problem_id = $2
		FOR UPDATE
	`, userID, problemID).Scan(&prevSolvedAt)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to read previous status: %w", err)
	}

	query := `
	INSERT INTO problem_status (user_id, problem_id, status, times_attempted, solved_at, last_attempt_at, updated_at)
	VALUES (
		$1, $2, $3,
		CASE WHEN $3 = 'attempted' THEN 1 ELSE 0 END,
		CASE WHEN $3 = 'solved' THEN $4::timestamptz END,
		CASE WHEN $3 = 'attempted' THEN $4::timestamptz END,
		$4
	)
	ON CONFLICT (user_id, problem_id)
	DO UPDATE SET
		status = EXCLUDED.status,
		times_attempted = problem_status.times_attempted + EXCLUDED.times_attempted,
		solved_at = CASE
			WHEN EXCLUDED.status = 'solved' THEN COALESCE(problem_status.solved_at, EXCLUDED.solved_at)
			ELSE NULL
		END,
		last_attempt_at = COALESCE(EXCLUDED.last_attempt_at, problem_status.last_attempt_at),
		updated_at = EXCLUDED.updated_at
	RETURNING ` + statusColumns

	ps, err := scanStatus(tx.QueryRow(ctx, query, userID, problemID, string(status), now))
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, fmt.Errorf("problem %d: %w", problemID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to update problem status: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit status update: %w", err)
	}

	newlySolved := prevSolvedAt == nil && ps.SolvedAt != nil
	unsolved := prevSolvedAt != nil && ps.SolvedAt == nil
	s.afterStatusChange(ctx, userID, problemID, ps, newlySolved, unsolved)

	return ps, nil
}

func (s *ProblemStatusService) afterStatusChange(ctx context.Context, userID string, problemID int64, ps *problem.ProblemStatus, newlySolved, unsolved bool) {
	// Attempted totals move on every write, not only on solves.
	if err := s.cache.Delete(ctx, cache.GlobalProgressKey(userID), cache.TopicStatsKey(userID)); err != nil {
		s.log.Warn("failed to invalidate progress cache", "user_id", userID, "error", err)
	}

	if !newlySolved && !unsolved {
		return
	}

	switch {
	case newlySolved && s.streaks != nil:
		if _, err := s.streaks.RecordSolve(ctx, userID, *ps.SolvedAt); err != nil {
			s.log.Error("streak update failed, scheduling recompute", "user_id", userID, "problem_id", problemID, "error", err)
			s.enqueue(ctx, syncjob.KindStreak, userID, nil)
		}
	case unsolved:
		// Removing a solve can split a run; only a full rebuild is correct.
		s.enqueue(ctx, syncjob.KindStreak, userID, nil)
	}

	companyIDs, err := s.companiesForProblem(ctx, problemID)
	if err != nil {
		s.log.Error("failed to load companies for problem", "problem_id", problemID, "error", err)
		return
	}
	for _, companyID := range companyIDs {
		id := companyID
		s.enqueue(ctx, syncjob.KindCompanyProgress, userID, &id)
	}
}

func (s *ProblemStatusService) enqueue(ctx context.Context, kind syncjob.Kind, userID string, companyID *string) {
	if s.sync == nil {
		return
	}
	if _, err := s.sync.Enqueue(ctx, kind, userID, companyID); err != nil {
		s.log.Error("failed to enqueue sync job", "kind", kind, "user_id", userID, "error", err)
	}
}

func (s *ProblemStatusService) companiesForProblem(ctx context.Context, problemID int64) ([]string, error) {
	rows, err := s.db.Query(ctx, `SELECT company_id FROM company_problems WHERE problem_id = $1`, problemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// SetFlags toggles starred/liked/saved; nil fields keep their stored value.
func (s *ProblemStatusService) SetFlags(ctx context.Context, userID string, problemID int64, req *problem.FlagsRequest) (*problem.ProblemStatus, error) {
	if userID == "" {
		return nil, missing("user_id")
	}
	if problemID <= 0 {
		return nil, missing("problem_id")
	}
	if req == nil || req.Empty() {
		return nil, fmt.Errorf("%w: no flags provided", ErrInvalidStatus)
	}

	query := `
	INSERT INTO problem_status (user_id, problem_id, starred, liked, saved, updated_at)
	VALUES ($1, $2, COALESCE($3::boolean, false), COALESCE($4::boolean, false), COALESCE($5::boolean, false), $6)
	ON CONFLICT (user_id, problem_id)
	DO UPDATE SET
		starred = COALESCE($3::boolean, problem_status.starred),
		liked = COALESCE($4::boolean, problem_status.liked),
		saved = COALESCE($5::boolean, problem_status.saved),
		updated_at = $6
	RETURNING ` + statusColumns

	ps, err := scanStatus(s.db.QueryRow(ctx, query, userID, problemID, req.Starred, req.Liked, req.Saved, s.now()))
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, fmt.Errorf("problem %d: %w", problemID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to update problem flags: %w", err)
	}

	if req.Starred != nil {
		if err := s.cache.Delete(ctx, cache.GlobalProgressKey(userID)); err != nil {
			s.log.Warn("failed to invalidate progress cache", "user_id", userID, "error", err)
		}
	}
	return ps, nil
}
