package streak

import "time"

// Streak is the persisted user_streaks row.
type Streak struct {
	UserID        string     `json:"user_id" db:"user_id"`
	CurrentStreak int        `json:"current_streak" db:"current_streak"`
	LongestStreak int        `json:"longest_streak" db:"longest_streak"`
	LastSolvedAt  *time.Time `json:"last_solved_at" db:"last_solved_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}

// Summary is the computed value, independent of storage.
type Summary struct {
	CurrentStreak int     `json:"current_streak"`
	LongestStreak int     `json:"longest_streak"`
	LastSolvedAt  *string `json:"last_solved_at"` // YYYY-MM-DD
}

type Milestone struct {
	UserID string `json:"user_id"`
	Days   int    `json:"days"`
}
