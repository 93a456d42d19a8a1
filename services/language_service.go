package services

import (
	"context"
	"fmt"
	"time"

	"prepTrackAPI/internal/db"
	"prepTrackAPI/internal/logger"
	"prepTrackAPI/internal/stats"
	"prepTrackAPI/internal/types/language"
	"prepTrackAPI/internal/types/submission"
)

type LanguageService struct {
	db  db.Querier
	log *logger.Logger
	now func() time.Time
}

func NewLanguageService(q db.Querier, log *logger.Logger) *LanguageService {
	return &LanguageService{
		db:  q,
		log: log.With("service", "LanguageService"),
		now: func() time.Time { return time.Now().UTC() },
	}
}

// computeLanguageStats aggregates the submission log for userID without
// writing anything.
func (s *LanguageService) computeLanguageStats(ctx context.Context, userID string) ([]*language.Stat, error) {
	// Other users only matter as "anyone solved it", so they are folded
	// into a single blank user id before DISTINCT.
	query := `
	SELECT DISTINCT
		CASE WHEN user_id = $1 THEN user_id ELSE '' END,
		problem_id,
		LOWER(TRIM(language)),
		LOWER(TRIM(final_status))
	FROM submissions
	`
	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch submissions: %w", err)
	}
	defer rows.Close()

	var outcomes []submission.Outcome
	for rows.Next() {
		var o submission.Outcome
		if err := rows.Scan(&o.UserID, &o.ProblemID, &o.Language, &o.FinalStatus); err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		outcomes = append(outcomes, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate submissions: %w", err)
	}
	return stats.AggregateLanguages(userID, outcomes), nil
}

// SyncLanguageStats rebuilds every language row for the user from the
// submission log and drops rows for languages no longer present.
func (s *LanguageService) SyncLanguageStats(ctx context.Context, userID string) ([]*language.Stat, error) {
	if userID == "" {
		return nil, missing("user_id")
	}

	result, err := s.computeLanguageStats(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.now()

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	languages := make([]string, 0, len(result))
	for _, st := range result {
		languages = append(languages, st.Language)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM user_language_stats WHERE user_id = $1 AND NOT (language = ANY($2))`, userID, languages); err != nil {
		return nil, fmt.Errorf("failed to prune language stats: %w", err)
	}

	upsert := `
	INSERT INTO user_language_stats (user_id, language, solved_count, total_count, last_updated)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (user_id, language)
	DO UPDATE SET
		solved_count = EXCLUDED.solved_count,
		total_count = EXCLUDED.total_count,
		last_updated = EXCLUDED.last_updated
	`
	for _, st := range result {
		if _, err := tx.Exec(ctx, upsert, userID, st.Language, st.SolvedCount, st.TotalCount, now); err != nil {
			return nil, fmt.Errorf("failed to upsert language stat %s: %w", st.Language, err)
		}
		st.LastUpdated = &now
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit language stats: %w", err)
	}
	return result, nil
}

// GetLanguageStats recomputes from the submission log on every read.
// total_count follows other users' submissions, which a stored per-user row
// cannot track.
func (s *LanguageService) GetLanguageStats(ctx context.Context, userID string) ([]*language.Stat, error) {
	if userID == "" {
		return nil, missing("user_id")
	}

	result, err := s.computeLanguageStats(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	for _, st := range result {
		st.LastUpdated = &now
	}
	return result, nil
}
