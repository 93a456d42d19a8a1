package services

import (
	"context"
	"fmt"

	"prepTrackAPI/internal/types/syncjob"
)

// SyncRunner maps each job kind to the recompute that serves it.
type SyncRunner struct {
	progress  *ProgressService
	streaks   *StreakService
	languages *LanguageService
}

func NewSyncRunner(progress *ProgressService, streaks *StreakService, languages *LanguageService) *SyncRunner {
	return &SyncRunner{progress: progress, streaks: streaks, languages: languages}
}

func (r *SyncRunner) Run(ctx context.Context, job *syncjob.Job) error {
	switch job.Kind {
	case syncjob.KindCompanyProgress:
		if job.CompanyID == nil {
			return missing("company_id")
		}
		_, err := r.progress.SyncCompanyProgress(ctx, job.UserID, *job.CompanyID)
		return err
	case syncjob.KindStreak:
		_, err := r.streaks.Recompute(ctx, job.UserID)
		return err
	case syncjob.KindLanguageStats:
		_, err := r.languages.SyncLanguageStats(ctx, job.UserID)
		return err
	default:
		return fmt.Errorf("%w: unknown sync job kind %q", ErrMissingIdentifier, job.Kind)
	}
}
