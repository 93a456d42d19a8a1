package stats

import (
	"sort"
	"time"

	"prepTrackAPI/internal/types/streak"
)

const DayLayout = "2006-01-02"

// Milestones are the streak lengths that trigger a push notification.
var Milestones = []int{3, 7, 14, 30, 50, 100, 365}

func TruncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DistinctDays collapses timestamps into ascending, de-duplicated UTC days.
func DistinctDays(timestamps []time.Time) []time.Time {
	seen := make(map[time.Time]struct{}, len(timestamps))
	days := make([]time.Time, 0, len(timestamps))
	for _, ts := range timestamps {
		if ts.IsZero() {
			continue
		}
		day := TruncateDay(ts)
		if _, ok := seen[day]; ok {
			continue
		}
		seen[day] = struct{}{}
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days
}

// CalculateStreak computes the streak summary from the full set of solve
// timestamps, evaluated at now. It depends on nothing but its arguments.
func CalculateStreak(solvedAt []time.Time, now time.Time) streak.Summary {
	days := DistinctDays(solvedAt)
	if len(days) == 0 {
		return streak.Summary{}
	}

	longest := 0
	run := 0
	for i, day := range days {
		if i > 0 && days[i-1].AddDate(0, 0, 1).Equal(day) {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}

	last := days[len(days)-1]
	current := 0
	if isTodayOrYesterday(last, now) {
		current = 1
		for i := len(days) - 1; i > 0; i-- {
			if !days[i-1].AddDate(0, 0, 1).Equal(days[i]) {
				break
			}
			current++
		}
	}

	lastSolved := last.Format(DayLayout)
	return streak.Summary{
		CurrentStreak: current,
		LongestStreak: longest,
		LastSolvedAt:  &lastSolved,
	}
}

// ApplySolve folds one solve event into a previously stored summary.
// Solving again on the last solved day is a no-op. ok is false when the
// event predates the stored last day (or the stored day is unreadable) and
// the caller must recompute from history instead.
func ApplySolve(prev streak.Summary, solvedAt time.Time) (next streak.Summary, ok bool) {
	day := TruncateDay(solvedAt)
	dayStr := day.Format(DayLayout)

	if prev.LastSolvedAt == nil {
		return streak.Summary{
			CurrentStreak: 1,
			LongestStreak: max(prev.LongestStreak, 1),
			LastSolvedAt:  &dayStr,
		}, true
	}

	last, err := time.Parse(DayLayout, *prev.LastSolvedAt)
	if err != nil {
		return prev, false
	}

	var current int
	switch {
	case day.Equal(last):
		return prev, true
	case day.Before(last):
		return prev, false
	case last.AddDate(0, 0, 1).Equal(day):
		current = prev.CurrentStreak + 1
	default:
		current = 1
	}

	return streak.Summary{
		CurrentStreak: current,
		LongestStreak: max(prev.LongestStreak, current),
		LastSolvedAt:  &dayStr,
	}, true
}

// Effective decays a stored current streak to zero once the last solved
// day is older than yesterday.
func Effective(s streak.Summary, now time.Time) streak.Summary {
	if s.LastSolvedAt == nil {
		s.CurrentStreak = 0
		return s
	}
	last, err := time.Parse(DayLayout, *s.LastSolvedAt)
	if err != nil || !isTodayOrYesterday(last, now) {
		s.CurrentStreak = 0
	}
	return s
}

// CrossedMilestone returns the highest milestone reached going from prev
// to next, or 0.
func CrossedMilestone(prev, next int) int {
	reached := 0
	for _, m := range Milestones {
		if prev < m && next >= m {
			reached = m
		}
	}
	return reached
}

func SummaryFromRecord(rec *streak.Streak) streak.Summary {
	if rec == nil {
		return streak.Summary{}
	}
	s := streak.Summary{
		CurrentStreak: rec.CurrentStreak,
		LongestStreak: rec.LongestStreak,
	}
	if rec.LastSolvedAt != nil {
		d := TruncateDay(*rec.LastSolvedAt).Format(DayLayout)
		s.LastSolvedAt = &d
	}
	return s
}

func isTodayOrYesterday(day, now time.Time) bool {
	today := TruncateDay(now)
	day = TruncateDay(day)
	return day.Equal(today) || day.Equal(today.AddDate(0, 0, -1))
}
