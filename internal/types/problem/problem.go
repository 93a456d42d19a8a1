package problem

import (
	"strings"
	"time"
)

type Difficulty string

const (
	DifficultyEasy    Difficulty = "easy"
	DifficultyMedium  Difficulty = "medium"
	DifficultyHard    Difficulty = "hard"
	DifficultyUnknown Difficulty = "unknown"
)

// ParseDifficulty maps the free-text difficulty column onto the closed set.
// Anything unrecognised, including NULL, becomes DifficultyUnknown.
func ParseDifficulty(raw string) Difficulty {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "easy":
		return DifficultyEasy
	case "medium":
		return DifficultyMedium
	case "hard":
		return DifficultyHard
	default:
		return DifficultyUnknown
	}
}

type Status string

const (
	StatusUnsolved  Status = "unsolved"
	StatusAttempted Status = "attempted"
	StatusSolved    Status = "solved"
)

func (s Status) Valid() bool {
	switch s {
	case StatusUnsolved, StatusAttempted, StatusSolved:
		return true
	}
	return false
}

type Problem struct {
	ID             int64      `json:"id" db:"id"`
	ProblemNumber  int        `json:"problem_number" db:"problem_number"`
	Slug           string     `json:"slug" db:"slug"`
	Title          string     `json:"title" db:"title"`
	Difficulty     Difficulty `json:"difficulty" db:"difficulty"`
	Topics         []string   `json:"topics" db:"topics"`
	AcceptanceRate float64    `json:"acceptance_rate" db:"acceptance_rate"`
}

type ProblemStatus struct {
	UserID         string     `json:"user_id" db:"user_id"`
	ProblemID      int64      `json:"problem_id" db:"problem_id"`
	Status         Status     `json:"status" db:"status"`
	Starred        bool       `json:"starred" db:"starred"`
	Liked          bool       `json:"liked" db:"liked"`
	Saved          bool       `json:"saved" db:"saved"`
	TimesAttempted int        `json:"times_attempted" db:"times_attempted"`
	SolvedAt       *time.Time `json:"solved_at" db:"solved_at"`
	LastAttemptAt  *time.Time `json:"last_attempt_at" db:"last_attempt_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
}

type UpdateStatusRequest struct {
	Status Status `json:"status" validate:"required"`
}

// FlagsRequest is a partial update; nil fields are left untouched.
type FlagsRequest struct {
	Starred *bool `json:"starred,omitempty"`
	Liked   *bool `json:"liked,omitempty"`
	Saved   *bool `json:"saved,omitempty"`
}

func (r FlagsRequest) Empty() bool {
	return r.Starred == nil && r.Liked == nil && r.Saved == nil
}
