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
	"prepTrackAPI/internal/stats"
	"prepTrackAPI/internal/types/problem"
	"prepTrackAPI/internal/types/progress"
	"prepTrackAPI/internal/types/topic"
)

type ProgressService struct {
	db    db.Querier
	log   *logger.Logger
	cache cache.SummaryCache
	now   func() time.Time
}

func NewProgressService(q db.Querier, log *logger.Logger, c cache.SummaryCache) *ProgressService {
	if c == nil {
		c = cache.Noop{}
	}
	return &ProgressService{
		db:    q,
		log:   log.With("service", "ProgressService"),
		cache: c,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// SyncCompanyProgress recomputes the company summary from scratch and
// overwrites the stored row.
func (s *ProgressService) SyncCompanyProgress(ctx context.Context, userID, companyID string) (*progress.CompanyProgress, error) {
	if userID == "" {
		return nil, missing("user_id")
	}
	if companyID == "" {
		return nil, missing("company_id")
	}

	var companyName string
	err := s.db.QueryRow(ctx, `SELECT name FROM companies WHERE id = $1`, companyID).Scan(&companyName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("company %s: %w", companyID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get company: %w", err)
	}

	query := `
	SELECT p.id, COALESCE(p.difficulty, ''), COALESCE(ps.status = 'solved', false)
	FROM company_problems cp
	JOIN problems p ON p.id = cp.problem_id
	LEFT JOIN problem_status ps ON ps.problem_id = p.id AND ps.user_id = $2
	WHERE cp.company_id = $1
	`
	rows, err := s.db.Query(ctx, query, companyID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch company problems: %w", err)
	}
	defer rows.Close()

	var scoped []progress.ScopedProblem
	for rows.Next() {
		var sp progress.ScopedProblem
		var difficulty string
		if err := rows.Scan(&sp.ProblemID, &difficulty, &sp.Solved); err != nil {
			return nil, fmt.Errorf("failed to scan company problem: %w", err)
		}
		sp.Difficulty = problem.ParseDifficulty(difficulty)
		scoped = append(scoped, sp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate company problems: %w", err)
	}

	result := &progress.CompanyProgress{
		UserID:      userID,
		CompanyID:   companyID,
		CompanyName: companyName,
		Counts:      stats.AggregateProgress(scoped),
	}

	upsert := `
	INSERT INTO company_progress (
		user_id, company_id, solved_total, solved_easy, solved_medium, solved_hard,
		total_easy, total_medium, total_hard, total_questions, last_updated
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	ON CONFLICT (user_id, company_id)
	DO UPDATE SET
		solved_total = EXCLUDED.solved_total,
		solved_easy = EXCLUDED.solved_easy,
		solved_medium = EXCLUDED.solved_medium,
		solved_hard = EXCLUDED.solved_hard,
		total_easy = EXCLUDED.total_easy,
		total_medium = EXCLUDED.total_medium,
		total_hard = EXCLUDED.total_hard,
		total_questions = EXCLUDED.total_questions,
		last_updated = EXCLUDED.last_updated
	RETURNING last_updated
	`
	c := result.Counts
	err = s.db.QueryRow(ctx, upsert,
		userID, companyID,
		c.SolvedTotal, c.SolvedEasy, c.SolvedMedium, c.SolvedHard,
		c.TotalEasy, c.TotalMedium, c.TotalHard, c.TotalQuestions,
		s.now(),
	).Scan(&result.LastUpdated)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert company progress: %w", err)
	}

	s.log.Debug("company progress synced", "user_id", userID, "company_id", companyID, "solved", c.SolvedTotal, "total", c.TotalQuestions)
	return result, nil
}

const companyProgressColumns = `
	cp.user_id, cp.company_id, c.name,
	cp.solved_total, cp.solved_easy, cp.solved_medium, cp.solved_hard,
	cp.total_easy, cp.total_medium, cp.total_hard, cp.total_questions, cp.last_updated
`

func scanCompanyProgress(row pgx.Row) (*progress.CompanyProgress, error) {
	p := &progress.CompanyProgress{}
	err := row.Scan(
		&p.UserID, &p.CompanyID, &p.CompanyName,
		&p.SolvedTotal, &p.SolvedEasy, &p.SolvedMedium, &p.SolvedHard,
		&p.TotalEasy, &p.TotalMedium, &p.TotalHard, &p.TotalQuestions, &p.LastUpdated,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// GetCompanyProgress serves the stored summary, computing it on first read.
func (s *ProgressService) GetCompanyProgress(ctx context.Context, userID, companyID string) (*progress.CompanyProgress, error) {
	if userID == "" {
		return nil, missing("user_id")
	}
	if companyID == "" {
		return nil, missing("company_id")
	}

	query := `SELECT ` + companyProgressColumns + `
	FROM company_progress cp
	JOIN companies c ON c.id = cp.company_id
	WHERE cp.user_id = $1 AND cp.company_id = $2`

	p, err := scanCompanyProgress(s.db.QueryRow(ctx, query, userID, companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return s.SyncCompanyProgress(ctx, userID, companyID)
		}
		return nil, fmt.Errorf("failed to get company progress: %w", err)
	}
	return p, nil
}

func (s *ProgressService) ListCompanyProgress(ctx context.Context, userID string) ([]*progress.CompanyProgress, error) {
	if userID == "" {
		return nil, missing("user_id")
	}

	query := `SELECT ` + companyProgressColumns + `
	FROM company_progress cp
	JOIN companies c ON c.id = cp.company_id
	WHERE cp.user_id = $1
	ORDER BY cp.solved_total DESC, c.name`

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list company progress: %w", err)
	}
	defer rows.Close()

	list := []*progress.CompanyProgress{}
	for rows.Next() {
		p, err := scanCompanyProgress(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan company progress: %w", err)
		}
		list = append(list, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate company progress: %w", err)
	}
	return list, nil
}

type userProblemRow struct {
	problemID  int64
	difficulty problem.Difficulty
	topics     []string
	status     problem.Status
	starred    bool
}

func (s *ProgressService) loadUserProblems(ctx context.Context, userID string) ([]userProblemRow, error) {
	query := `
	SELECT p.id, COALESCE(p.difficulty, ''), COALESCE(p.topics, '{}'),
		COALESCE(ps.status, 'unsolved'), COALESCE(ps.starred, false)
	FROM problems p
	LEFT JOIN problem_status ps ON ps.problem_id = p.id AND ps.user_id = $1
	`
	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch problems: %w", err)
	}
	defer rows.Close()

	var out []userProblemRow
	for rows.Next() {
		var r userProblemRow
		var difficulty, status string
		if err := rows.Scan(&r.problemID, &difficulty, &r.topics, &status, &r.starred); err != nil {
			return nil, fmt.Errorf("failed to scan problem row: %w", err)
		}
		r.difficulty = problem.ParseDifficulty(difficulty)
		r.status = problem.Status(status)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate problems: %w", err)
	}
	return out, nil
}

// GetGlobalProgress is recomputed on read across every problem and cached.
func (s *ProgressService) GetGlobalProgress(ctx context.Context, userID string) (*progress.GlobalProgress, error) {
	if userID == "" {
		return nil, missing("user_id")
	}

	key := cache.GlobalProgressKey(userID)
	cached := &progress.GlobalProgress{}
	if err := s.cache.Get(ctx, key, cached); err == nil {
		return cached, nil
	} else if !errors.Is(err, cache.ErrMiss) {
		s.log.Warn("progress cache read failed", "key", key, "error", err)
	}

	rows, err := s.loadUserProblems(ctx, userID)
	if err != nil {
		return nil, err
	}

	scoped := make([]progress.ScopedProblem, 0, len(rows))
	result := &progress.GlobalProgress{UserID: userID, ComputedAt: s.now()}
	for _, r := range rows {
		scoped = append(scoped, progress.ScopedProblem{
			ProblemID:  r.problemID,
			Difficulty: r.difficulty,
			Solved:     r.status == problem.StatusSolved,
		})
		if r.status == problem.StatusAttempted {
			result.AttemptedTotal++
		}
		if r.starred {
			result.StarredTotal++
		}
	}
	result.Counts = stats.AggregateProgress(scoped)

	if err := s.cache.Set(ctx, key, result); err != nil {
		s.log.Warn("progress cache write failed", "key", key, "error", err)
	}
	return result, nil
}

func (s *ProgressService) GetTopicStats(ctx context.Context, userID string) ([]topic.Stat, error) {
	if userID == "" {
		return nil, missing("user_id")
	}

	key := cache.TopicStatsKey(userID)
	var cached []topic.Stat
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		return cached, nil
	} else if !errors.Is(err, cache.ErrMiss) {
		s.log.Warn("topic cache read failed", "key", key, "error", err)
	}

	rows, err := s.loadUserProblems(ctx, userID)
	if err != nil {
		return nil, err
	}

	tagged := make([]topic.TaggedProblem, 0, len(rows))
	for _, r := range rows {
		tagged = append(tagged, topic.TaggedProblem{
			ProblemID: r.problemID,
			Topics:    r.topics,
			Solved:    r.status == problem.StatusSolved,
		})
	}
	result := stats.AggregateTopics(tagged)

	if err := s.cache.Set(ctx, key, result); err != nil {
		s.log.Warn("topic cache write failed", "key", key, "error", err)
	}
	return result, nil
}
