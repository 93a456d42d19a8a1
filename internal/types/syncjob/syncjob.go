package syncjob

import (
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindCompanyProgress Kind = "company_progress"
	KindLanguageStats   Kind = "language_stats"
	KindStreak          Kind = "streak"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusFailed  Status = "failed"
	StatusDead    Status = "dead"
)

type Job struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Kind         Kind      `json:"kind" db:"kind"`
	UserID       string    `json:"user_id" db:"user_id"`
	CompanyID    *string   `json:"company_id,omitempty" db:"company_id"`
	Status       Status    `json:"status" db:"status"`
	Attempts     int       `json:"attempts" db:"attempts"`
	LastError    *string   `json:"last_error,omitempty" db:"last_error"`
	ScheduledFor time.Time `json:"scheduled_for" db:"scheduled_for"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

func NewJob(kind Kind, userID string, companyID *string) *Job {
	now := time.Now().UTC()
	return &Job{
		ID:           uuid.New(),
		Kind:         kind,
		UserID:       userID,
		CompanyID:    companyID,
		Status:       StatusPending,
		ScheduledFor: now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
