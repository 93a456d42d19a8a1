package stats

import (
	"sort"
	"strings"

	"prepTrackAPI/internal/types/language"
	"prepTrackAPI/internal/types/submission"
)

var successStatuses = map[string]struct{}{
	"accepted": {},
	"passed":   {},
	"success":  {},
	"solved":   {},
}

func IsSuccessStatus(status string) bool {
	_, ok := successStatuses[strings.ToLower(strings.TrimSpace(status))]
	return ok
}

func NormalizeLanguage(lang string) string {
	return strings.ToLower(strings.TrimSpace(lang))
}

// AggregateLanguages derives per-language solved counts for userID from the
// submission outcomes of all users. Counts are of distinct problems, and
// every language anyone submitted in is reported, even with zero solves.
func AggregateLanguages(userID string, outcomes []submission.Outcome) []*language.Stat {
	userSolved := make(map[string]map[int64]struct{})
	anySolved := make(map[string]map[int64]struct{})
	seen := make(map[string]struct{})

	for _, o := range outcomes {
		lang := NormalizeLanguage(o.Language)
		if lang == "" {
			continue
		}
		seen[lang] = struct{}{}
		if !IsSuccessStatus(o.FinalStatus) {
			continue
		}
		addProblem(anySolved, lang, o.ProblemID)
		if o.UserID == userID {
			addProblem(userSolved, lang, o.ProblemID)
		}
	}

	out := make([]*language.Stat, 0, len(seen))
	for lang := range seen {
		out = append(out, &language.Stat{
			UserID:      userID,
			Language:    lang,
			SolvedCount: len(userSolved[lang]),
			TotalCount:  len(anySolved[lang]),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SolvedCount != out[j].SolvedCount {
			return out[i].SolvedCount > out[j].SolvedCount
		}
		if out[i].TotalCount != out[j].TotalCount {
			return out[i].TotalCount > out[j].TotalCount
		}
		return out[i].Language < out[j].Language
	})
	return out
}

func addProblem(m map[string]map[int64]struct{}, lang string, problemID int64) {
	set, ok := m[lang]
	if !ok {
		set = make(map[int64]struct{})
		m[lang] = set
	}
	set[problemID] = struct{}{}
}

// SuccessStatuses lists the lower-cased final statuses counted as solved.
func SuccessStatuses() []string {
	out := make([]string, 0, len(successStatuses))
	for s := range successStatuses {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
