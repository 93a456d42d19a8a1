package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"prepTrackAPI/internal/db"
	"prepTrackAPI/internal/logger"
	"prepTrackAPI/internal/stats"
	"prepTrackAPI/internal/types/streak"
)

// MilestoneNotifier is told when a user's current streak crosses a milestone.
type MilestoneNotifier interface {
	NotifyStreakMilestone(ctx context.Context, m streak.Milestone) error
}

type StreakUpdate struct {
	Summary     streak.Summary `json:"streak"`
	Recomputed  bool           `json:"recomputed"`
	MilestoneAt int            `json:"milestone,omitempty"`
}

type StreakService struct {
	db       db.Querier
	log      *logger.Logger
	notifier MilestoneNotifier
	now      func() time.Time
}

func NewStreakService(q db.Querier, log *logger.Logger, notifier MilestoneNotifier) *StreakService {
	return &StreakService{
		db:       q,
		log:      log.With("service", "StreakService"),
		notifier: notifier,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// RecordSolve applies one solve to the stored streak. Without a stored row,
// or for a solve older than the stored last day, it rebuilds the streak
// from problem_status history instead.
func (s *StreakService) RecordSolve(ctx context.Context, userID string, solvedAt time.Time) (*StreakUpdate, error) {
	if userID == "" {
		return nil, missing("user_id")
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	prev, found, err := s.loadStreak(ctx, tx, userID, true)
	if err != nil {
		return nil, err
	}

	update := &StreakUpdate{}
	var next streak.Summary
	applied := false
	if found {
		next, applied = stats.ApplySolve(stats.SummaryFromRecord(prev), solvedAt)
	}
	if !applied {
		days, err := s.loadSolvedDates(ctx, tx, userID)
		if err != nil {
			return nil, err
		}
		next = stats.CalculateStreak(days, s.now())
		update.Recomputed = true
	}

	if err := s.upsert(ctx, tx, userID, next); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit streak update: %w", err)
	}

	prevCurrent := 0
	if found {
		prevCurrent = stats.Effective(stats.SummaryFromRecord(prev), s.now()).CurrentStreak
	}
	update.Summary = stats.Effective(next, s.now())
	update.MilestoneAt = stats.CrossedMilestone(prevCurrent, update.Summary.CurrentStreak)
	if update.MilestoneAt > 0 {
		s.notifyMilestone(userID, update.MilestoneAt)
	}

	return update, nil
}

// Recompute rebuilds the streak from the solved history and overwrites the
// stored row. This is the ground truth the incremental path must match.
func (s *StreakService) Recompute(ctx context.Context, userID string) (streak.Summary, error) {
	if userID == "" {
		return streak.Summary{}, missing("user_id")
	}

	days, err := s.loadSolvedDates(ctx, s.db, userID)
	if err != nil {
		return streak.Summary{}, err
	}
	summary := stats.CalculateStreak(days, s.now())
	if err := s.upsert(ctx, s.db, userID, summary); err != nil {
		return streak.Summary{}, err
	}
	return summary, nil
}

func (s *StreakService) GetStreak(ctx context.Context, userID string) (streak.Summary, error) {
	if userID == "" {
		return streak.Summary{}, missing("user_id")
	}

	rec, found, err := s.loadStreak(ctx, s.db, userID, false)
	if err != nil {
		return streak.Summary{}, err
	}
	if !found {
		return s.Recompute(ctx, userID)
	}
	return stats.Effective(stats.SummaryFromRecord(rec), s.now()), nil
}

func (s *StreakService) loadStreak(ctx context.Context, q queryRower, userID string, forUpdate bool) (*streak.Streak, bool, error) {
	query := `
	SELECT user_id, current_streak, longest_streak, last_solved_at, updated_at
	FROM user_streaks
	WHERE user_id = $1
	`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	rec := &streak.Streak{}
	err := q.QueryRow(ctx, query, userID).Scan(
		&rec.UserID,
		&rec.CurrentStreak,
		&rec.LongestStreak,
		&rec.LastSolvedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get streak: %w", err)
	}
	return rec, true, nil
}

func (s *StreakService) loadSolvedDates(ctx context.Context, q queryRower, userID string) ([]time.Time, error) {
	rows, err := q.Query(ctx, `
		SELECT solved_at FROM problem_status
		WHERE user_id = $1 AND status = 'solved' AND solved_at IS NOT NULL
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load solve history: %w", err)
	}
	defer rows.Close()

	var days []time.Time
	for rows.Next() {
		var ts time.Time
		if err := rows.Scan(&ts); err != nil {
			return nil, fmt.Errorf("failed to scan solve history: %w", err)
		}
		days = append(days, ts)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate solve history: %w", err)
	}
	return days, nil
}

func (s *StreakService) upsert(ctx context.Context, q execer, userID string, summary streak.Summary) error {
	var lastSolved *time.Time
	if summary.LastSolvedAt != nil {
		d, err := time.Parse(stats.DayLayout, *summary.LastSolvedAt)
		if err != nil {
			return fmt.Errorf("invalid last solved day %q: %w", *summary.LastSolvedAt, err)
		}
		lastSolved = &d
	}

	query := `
	INSERT INTO user_streaks (user_id, current_streak, longest_streak, last_solved_at, updated_at)
	VALUES ($1, $2, $3, $4, NOW())
	ON CONFLICT (user_id)
	DO UPDATE SET
		current_streak = EXCLUDED.current_streak,
		longest_streak = EXCLUDED.longest_streak,
		last_solved_at = EXCLUDED.last_solved_at,
		updated_at = NOW()
	`
	if _, err := q.Exec(ctx, query, userID, summary.CurrentStreak, summary.LongestStreak, lastSolved); err != nil {
		return fmt.Errorf("failed to upsert streak: %w", err)
	}
	return nil
}

func (s *StreakService) notifyMilestone(userID string, days int) {
	if s.notifier == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.notifier.NotifyStreakMilestone(ctx, streak.Milestone{UserID: userID, Days: days}); err != nil {
			s.log.Warn("streak milestone notification failed", "user_id", userID, "days", days, "error", err)
		}
	}()
}
