package progress

import (
	"time"

	"prepTrackAPI/internal/types/problem"
)

// ScopedProblem is one (problem, difficulty, solved?) tuple from the
// problems x problem_status join. The join may repeat a problem.
type ScopedProblem struct {
	ProblemID  int64              `json:"problem_id"`
	Difficulty problem.Difficulty `json:"difficulty"`
	Solved     bool               `json:"solved"`
}

type Counts struct {
	SolvedTotal    int `json:"solved_total" db:"solved_total"`
	SolvedEasy     int `json:"solved_easy" db:"solved_easy"`
	SolvedMedium   int `json:"solved_medium" db:"solved_medium"`
	SolvedHard     int `json:"solved_hard" db:"solved_hard"`
	TotalEasy      int `json:"total_easy" db:"total_easy"`
	TotalMedium    int `json:"total_medium" db:"total_medium"`
	TotalHard      int `json:"total_hard" db:"total_hard"`
	TotalQuestions int `json:"total_questions" db:"total_questions"`
}

type CompanyProgress struct {
	UserID      string     `json:"user_id" db:"user_id"`
	CompanyID   string     `json:"company_id" db:"company_id"`
	CompanyName string     `json:"company_name,omitempty" db:"company_name"`
	LastUpdated *time.Time `json:"last_updated" db:"last_updated"`
	Counts
}

type GlobalProgress struct {
	UserID string `json:"user_id"`
	Counts
	AttemptedTotal int       `json:"attempted_total"`
	StarredTotal   int       `json:"starred_total"`
	ComputedAt     time.Time `json:"computed_at"`
}
