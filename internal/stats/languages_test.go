package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prepTrackAPI/internal/types/language"
	"prepTrackAPI/internal/types/submission"
)

func byLanguage(stats []*language.Stat) map[string]*language.Stat {
	out := make(map[string]*language.Stat, len(stats))
	for _, s := range stats {
		out[s.Language] = s
	}
	return out
}

func TestAggregateLanguages_DistinctProblems(t *testing.T) {
	outcomes := []submission.Outcome{
		{UserID: "u1", ProblemID: 1, Language: "Python", FinalStatus: "Accepted"},
		{UserID: "u1", ProblemID: 2, Language: "python", FinalStatus: "accepted"},
		{UserID: "u1", ProblemID: 2, Language: "python", FinalStatus: "ACCEPTED"},
		{UserID: "u1", ProblemID: 3, Language: "python ", FinalStatus: "passed"},
	}

	got := byLanguage(AggregateLanguages("u1", outcomes))

	require.Contains(t, got, "python")
	assert.Equal(t, 3, got["python"].SolvedCount)
	assert.Equal(t, 3, got["python"].TotalCount)
	assert.Equal(t, "u1", got["python"].UserID)
}

func TestAggregateLanguages_ZeroSolvedLanguagesStillListed(t *testing.T) {
	outcomes := []submission.Outcome{
		{UserID: "u1", ProblemID: 1, Language: "go", FinalStatus: "Accepted"},
		{UserID: "u2", ProblemID: 1, Language: "java", FinalStatus: "Accepted"},
		{UserID: "u2", ProblemID: 2, Language: "java", FinalStatus: "Accepted"},
		{UserID: "u1", ProblemID: 2, Language: "java", FinalStatus: "Wrong Answer"},
		{UserID: "u3", ProblemID: 4, Language: "rust", FinalStatus: "Time Limit Exceeded"},
	}

	stats := AggregateLanguages("u1", outcomes)
	got := byLanguage(stats)

	require.Len(t, stats, 3)
	assert.Equal(t, 1, got["go"].SolvedCount)
	assert.Equal(t, 0, got["java"].SolvedCount)
	assert.Equal(t, 2, got["java"].TotalCount)
	assert.Equal(t, 0, got["rust"].SolvedCount)
	assert.Equal(t, 0, got["rust"].TotalCount)
	assert.Equal(t, "go", stats[0].Language)
}

func TestAggregateLanguages_SolvedNeverExceedsDistinctSuccesses(t *testing.T) {
	var outcomes []submission.Outcome
	for i := 0; i < 40; i++ {
		status := "Accepted"
		if i%4 == 0 {
			status = "Runtime Error"
		}
		outcomes = append(outcomes, submission.Outcome{
			UserID:      []string{"u1", "u2"}[i%2],
			ProblemID:   int64(i % 7),
			Language:    []string{"go", "cpp", "python"}[i%3],
			FinalStatus: status,
		})
	}

	distinct := map[string]map[int64]struct{}{}
	for _, o := range outcomes {
		if o.UserID != "u1" || !IsSuccessStatus(o.FinalStatus) {
			continue
		}
		if distinct[o.Language] == nil {
			distinct[o.Language] = map[int64]struct{}{}
		}
		distinct[o.Language][o.ProblemID] = struct{}{}
	}

	for _, s := range AggregateLanguages("u1", outcomes) {
		assert.LessOrEqual(t, s.SolvedCount, len(distinct[s.Language]), s.Language)
		assert.LessOrEqual(t, s.SolvedCount, s.TotalCount, s.Language)
	}
}

func TestIsSuccessStatus(t *testing.T) {
	assert.True(t, IsSuccessStatus("Accepted"))
	assert.True(t, IsSuccessStatus(" success "))
	assert.False(t, IsSuccessStatus("Wrong Answer"))
	assert.False(t, IsSuccessStatus(""))
}
