package submission

import (
	"time"

	"github.com/google/uuid"
)

type Submission struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	UserID      string     `json:"user_id" db:"user_id"`
	ProblemID   int64      `json:"problem_id" db:"problem_id"`
	Language    string     `json:"language" db:"language"`
	Code        string     `json:"code" db:"code"`
	FinalStatus string     `json:"final_status" db:"final_status"`
	PassedCount int        `json:"passed_count" db:"passed_count"`
	TotalTests  int        `json:"total_tests" db:"total_tests"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	CompletedAt *time.Time `json:"completed_at" db:"completed_at"`
}

type CreateSubmissionRequest struct {
	ProblemID   int64      `json:"problem_id" validate:"required"`
	Language    string     `json:"language" validate:"required"`
	Code        string     `json:"code"`
	FinalStatus string     `json:"final_status" validate:"required"`
	PassedCount int        `json:"passed_count"`
	TotalTests  int        `json:"total_tests"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Outcome is the slice of a submission the language aggregator reads.
type Outcome struct {
	UserID      string
	ProblemID   int64
	Language    string
	FinalStatus string
}
