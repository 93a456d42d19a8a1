package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"prepTrackAPI/internal/db"
	"prepTrackAPI/internal/logger"
	"prepTrackAPI/internal/stats"
	"prepTrackAPI/internal/types/submission"
	"prepTrackAPI/internal/types/syncjob"
)

type SubmissionService struct {
	db   db.Querier
	log  *logger.Logger
	sync SyncEnqueuer
	now  func() time.Time
}

func NewSubmissionService(q db.Querier, log *logger.Logger, sync SyncEnqueuer) *SubmissionService {
	return &SubmissionService{
		db:   q,
		log:  log.With("service", "SubmissionService"),
		sync: sync,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func validateSubmission(userID string, req *submission.CreateSubmissionRequest) error {
	if userID == "" {
		return missing("user_id")
	}
	if req == nil {
		return fmt.Errorf("%w: empty body", ErrInvalidSubmission)
	}
	if req.ProblemID <= 0 {
		return missing("problem_id")
	}
	if strings.TrimSpace(req.Language) == "" {
		return fmt.Errorf("%w: language is required", ErrInvalidSubmission)
	}
	if strings.TrimSpace(req.FinalStatus) == "" {
		return fmt.Errorf("%w: final_status is required", ErrInvalidSubmission)
	}
	if req.PassedCount < 0 || req.TotalTests < 0 || req.PassedCount > req.TotalTests {
		return fmt.Errorf("%w: passed_count must be between 0 and total_tests", ErrInvalidSubmission)
	}
	return nil
}

// RecordSubmission appends to the submission log. A successful submission
// refreshes the stored row for its language in the same transaction, and a
// language_stats sync is queued to rebuild the user's other rows.
func (s *SubmissionService) RecordSubmission(ctx context.Context, userID string, req *submission.CreateSubmissionRequest) (*submission.Submission, error) {
	if err := validateSubmission(userID, req); err != nil {
		return nil, err
	}

	sub := &submission.Submission{
		ID:          uuid.New(),
		UserID:      userID,
		ProblemID:   req.ProblemID,
		Language:    stats.NormalizeLanguage(req.Language),
		Code:        req.Code,
		FinalStatus: strings.TrimSpace(req.FinalStatus),
		PassedCount: req.PassedCount,
		TotalTests:  req.TotalTests,
		CreatedAt:   s.now(),
		CompletedAt: req.CompletedAt,
	}
	passed := stats.IsSuccessStatus(sub.FinalStatus)

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO submissions (id, user_id, problem_id, language, code, final_status, passed_count, total_tests, created_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, sub.ID, sub.UserID, sub.ProblemID, sub.Language, sub.Code, sub.FinalStatus, sub.PassedCount, sub.TotalTests, sub.CreatedAt, sub.CompletedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, fmt.Errorf("problem %d: %w", sub.ProblemID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to insert submission: %w", err)
	}

	if passed {
		// Counts for this language only, from the log including the row
		// just inserted, so the stored row matches a full rebuild.
		_, err = tx.Exec(ctx, `
			INSERT INTO user_language_stats (user_id, language, solved_count, total_count, last_updated)
			SELECT $1::text, $2::text,
				COUNT(DISTINCT problem_id) FILTER (WHERE user_id = $1::text),
				COUNT(DISTINCT problem_id),
				$4::timestamptz
			FROM submissions
			WHERE LOWER(TRIM(language)) = $2::text
			  AND LOWER(TRIM(final_status)) = ANY($3::text[])
			ON CONFLICT (user_id, language)
			DO UPDATE SET
				solved_count = EXCLUDED.solved_count,
				total_count = EXCLUDED.total_count,
				last_updated = EXCLUDED.last_updated
		`, userID, sub.Language, stats.SuccessStatuses(), sub.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to refresh language stat: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit submission: %w", err)
	}

	if passed && s.sync != nil {
		if _, err := s.sync.Enqueue(ctx, syncjob.KindLanguageStats, userID, nil); err != nil {
			s.log.Error("failed to enqueue language stats sync", "user_id", userID, "error", err)
		}
	}
	return sub, nil
}
