package language

import "time"

// Stat is the persisted user_language_stats row. TotalCount is the number
// of distinct problems solved by any user in the language.
type Stat struct {
	UserID      string     `json:"user_id" db:"user_id"`
	Language    string     `json:"language" db:"language"`
	SolvedCount int        `json:"solved_count" db:"solved_count"`
	TotalCount  int        `json:"total_count" db:"total_count"`
	LastUpdated *time.Time `json:"last_updated,omitempty" db:"last_updated"`
}
