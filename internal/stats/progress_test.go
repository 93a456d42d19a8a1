package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"prepTrackAPI/internal/types/problem"
	"prepTrackAPI/internal/types/progress"
)

func TestAggregateProgress_CompanyScenario(t *testing.T) {
	rows := []progress.ScopedProblem{
		{ProblemID: 1, Difficulty: problem.DifficultyEasy, Solved: true},
		{ProblemID: 2, Difficulty: problem.DifficultyEasy, Solved: true},
		{ProblemID: 3, Difficulty: problem.DifficultyEasy},
		{ProblemID: 4, Difficulty: problem.DifficultyMedium, Solved: true},
		{ProblemID: 5, Difficulty: problem.DifficultyMedium},
	}

	got := AggregateProgress(rows)

	assert.Equal(t, progress.Counts{
		SolvedTotal:    3,
		SolvedEasy:     2,
		SolvedMedium:   1,
		SolvedHard:     0,
		TotalEasy:      3,
		TotalMedium:    2,
		TotalHard:      0,
		TotalQuestions: 5,
	}, got)
}

func TestAggregateProgress_CaseInsensitiveDifficulty(t *testing.T) {
	rows := []progress.ScopedProblem{
		{ProblemID: 1, Difficulty: "Easy", Solved: true},
		{ProblemID: 2, Difficulty: "MEDIUM"},
		{ProblemID: 3, Difficulty: " hard ", Solved: true},
	}

	got := AggregateProgress(rows)

	assert.Equal(t, 1, got.SolvedEasy)
	assert.Equal(t, 1, got.TotalMedium)
	assert.Equal(t, 1, got.SolvedHard)
}

func TestAggregateProgress_UnknownDifficultyExcludedFromBuckets(t *testing.T) {
	rows := []progress.ScopedProblem{
		{ProblemID: 1, Difficulty: problem.DifficultyEasy, Solved: true},
		{ProblemID: 2, Difficulty: "", Solved: true},
		{ProblemID: 3, Difficulty: "extreme"},
	}

	got := AggregateProgress(rows)

	assert.Equal(t, 1, got.TotalEasy+got.TotalMedium+got.TotalHard)
	assert.Equal(t, 1, got.SolvedEasy+got.SolvedMedium+got.SolvedHard)
	assert.Equal(t, 3, got.TotalQuestions)
	assert.Equal(t, 2, got.SolvedTotal)
}

func TestAggregateProgress_DeduplicatesProblems(t *testing.T) {
	rows := []progress.ScopedProblem{
		{ProblemID: 7, Difficulty: problem.DifficultyHard, Solved: true},
		{ProblemID: 7, Difficulty: problem.DifficultyHard, Solved: true},
		{ProblemID: 7, Difficulty: problem.DifficultyHard},
		{ProblemID: 8, Difficulty: problem.DifficultyUnknown},
		{ProblemID: 8, Difficulty: problem.DifficultyEasy},
	}

	got := AggregateProgress(rows)

	assert.Equal(t, 1, got.SolvedHard)
	assert.Equal(t, 1, got.SolvedTotal)
	assert.Equal(t, 2, got.TotalQuestions)
	assert.Equal(t, 1, got.TotalEasy)
}

func TestAggregateProgress_Partition(t *testing.T) {
	diffs := []problem.Difficulty{"easy", "Medium", "HARD", "weird", ""}
	var rows []progress.ScopedProblem
	for i := 0; i < 50; i++ {
		rows = append(rows, progress.ScopedProblem{
			ProblemID:  int64(i % 37),
			Difficulty: diffs[i%37%len(diffs)],
			Solved:     i%3 == 0,
		})
	}

	got := AggregateProgress(rows)

	assert.LessOrEqual(t, got.SolvedEasy+got.SolvedMedium+got.SolvedHard, got.SolvedTotal)
	assert.LessOrEqual(t, got.TotalEasy+got.TotalMedium+got.TotalHard, got.TotalQuestions)
	assert.Equal(t, 37, got.TotalQuestions)
}

func TestAggregateProgress_Empty(t *testing.T) {
	assert.Equal(t, progress.Counts{}, AggregateProgress(nil))
}
