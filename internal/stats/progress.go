package stats

import (
	"prepTrackAPI/internal/types/problem"
	"prepTrackAPI/internal/types/progress"
)

type scopedEntry struct {
	difficulty problem.Difficulty
	solved     bool
}

// AggregateProgress counts solved/total problems by difficulty. Rows are
// de-duplicated by problem id first; a duplicated problem counts as solved
// if any of its rows is solved. Unknown difficulties are left out of the
// per-difficulty buckets but still count towards the totals.
func AggregateProgress(rows []progress.ScopedProblem) progress.Counts {
	entries := make(map[int64]*scopedEntry, len(rows))
	for _, r := range rows {
		d := problem.ParseDifficulty(string(r.Difficulty))
		e, ok := entries[r.ProblemID]
		if !ok {
			entries[r.ProblemID] = &scopedEntry{difficulty: d, solved: r.Solved}
			continue
		}
		if e.difficulty == problem.DifficultyUnknown {
			e.difficulty = d
		}
		e.solved = e.solved || r.Solved
	}

	var c progress.Counts
	for _, e := range entries {
		c.TotalQuestions++
		if e.solved {
			c.SolvedTotal++
		}
		switch e.difficulty {
		case problem.DifficultyEasy:
			c.TotalEasy++
			if e.solved {
				c.SolvedEasy++
			}
		case problem.DifficultyMedium:
			c.TotalMedium++
			if e.solved {
				c.SolvedMedium++
			}
		case problem.DifficultyHard:
			c.TotalHard++
			if e.solved {
				c.SolvedHard++
			}
		}
	}
	return c
}
