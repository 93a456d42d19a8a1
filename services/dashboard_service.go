package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"prepTrackAPI/internal/logger"
	"prepTrackAPI/internal/types/dashboard"
	"prepTrackAPI/internal/types/language"
	"prepTrackAPI/internal/types/progress"
	"prepTrackAPI/internal/types/streak"
	"prepTrackAPI/internal/types/topic"
)

type StreakReader interface {
	GetStreak(ctx context.Context, userID string) (streak.Summary, error)
}

type ProgressReader interface {
	GetGlobalProgress(ctx context.Context, userID string) (*progress.GlobalProgress, error)
	GetTopicStats(ctx context.Context, userID string) ([]topic.Stat, error)
	ListCompanyProgress(ctx context.Context, userID string) ([]*progress.CompanyProgress, error)
}

type LanguageReader interface {
	GetLanguageStats(ctx context.Context, userID string) ([]*language.Stat, error)
}

const (
	SectionStreak    = "streak"
	SectionProgress  = "progress"
	SectionTopics    = "topics"
	SectionLanguages = "languages"
	SectionCompanies = "companies"
)

type DashboardService struct {
	streaks   StreakReader
	progress  ProgressReader
	languages LanguageReader
	log       *logger.Logger
	now       func() time.Time
}

func NewDashboardService(streaks StreakReader, progress ProgressReader, languages LanguageReader, log *logger.Logger) *DashboardService {
	return &DashboardService{
		streaks:   streaks,
		progress:  progress,
		languages: languages,
		log:       log.With("service", "DashboardService"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// GetDashboard loads every section concurrently. A failing section is
// logged, listed in Degraded and left at its zero value; a deadline counts
// as a failing section. Only a missing user id or a cancelled ctx is
// returned as an error.
func (s *DashboardService) GetDashboard(ctx context.Context, userID string) (*dashboard.Dashboard, error) {
	if userID == "" {
		return nil, missing("user_id")
	}

	d := &dashboard.Dashboard{
		Progress:  progress.GlobalProgress{UserID: userID, ComputedAt: s.now()},
		Topics:    []topic.Stat{},
		Languages: []*language.Stat{},
		Companies: []*progress.CompanyProgress{},
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)

	// load runs one section. Errors degrade the section unless the caller
	// cancelled, which cancels the rest of the group.
	load := func(section string, fn func(ctx context.Context) error) {
		g.Go(func() error {
			err := fn(gctx)
			if err == nil {
				return nil
			}
			if ctxErr := ctx.Err(); errors.Is(ctxErr, context.Canceled) {
				return ctxErr
			}
			s.log.Warn("dashboard section degraded", "user_id", userID, "section", section, "error", err)
			mu.Lock()
			d.Degraded = append(d.Degraded, section)
			mu.Unlock()
			return nil
		})
	}

	load(SectionStreak, func(ctx context.Context) error {
		summary, err := s.streaks.GetStreak(ctx, userID)
		if err != nil {
			return err
		}
		d.Streak = summary
		return nil
	})

	load(SectionProgress, func(ctx context.Context) error {
		gp, err := s.progress.GetGlobalProgress(ctx, userID)
		if err != nil {
			return err
		}
		if gp == nil {
			return errors.New("no global progress returned")
		}
		d.Progress = *gp
		return nil
	})

	load(SectionTopics, func(ctx context.Context) error {
		topics, err := s.progress.GetTopicStats(ctx, userID)
		if err != nil {
			return err
		}
		if topics != nil {
			d.Topics = topics
		}
		return nil
	})

	load(SectionLanguages, func(ctx context.Context) error {
		langs, err := s.languages.GetLanguageStats(ctx, userID)
		if err != nil {
			return err
		}
		if langs != nil {
			d.Languages = langs
		}
		return nil
	})

	load(SectionCompanies, func(ctx context.Context) error {
		companies, err := s.progress.ListCompanyProgress(ctx, userID)
		if err != nil {
			return err
		}
		if companies != nil {
			d.Companies = companies
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	sort.Strings(d.Degraded)
	return d, nil
}
