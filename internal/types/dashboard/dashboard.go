package dashboard

import (
	"prepTrackAPI/internal/types/language"
	"prepTrackAPI/internal/types/progress"
	"prepTrackAPI/internal/types/streak"
	"prepTrackAPI/internal/types/topic"
)

type Dashboard struct {
	Streak    streak.Summary              `json:"streak"`
	Progress  progress.GlobalProgress     `json:"progress"`
	Topics    []topic.Stat                `json:"topics"`
	Languages []*language.Stat            `json:"languages"`
	Companies []*progress.CompanyProgress `json:"companies"`
	// Degraded lists the sections that fell back to defaults.
	Degraded []string `json:"degraded,omitempty"`
}
