package services

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prepTrackAPI/internal/logger"
	"prepTrackAPI/internal/types/submission"
	"prepTrackAPI/internal/types/syncjob"
)

var languageNow = time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

// submissionLog is what the DISTINCT query returns for user_1: other users
// are folded into a blank user id.
func submissionLog() *fakeDB {
	return newFakeDB().on("FROM submissions",
		[]any{"user_1", int64(1), "python", "accepted"},
		[]any{"", int64(1), "python", "accepted"},
		[]any{"", int64(2), "python", "accepted"},
		[]any{"", int64(5), "rust", "accepted"},
		[]any{"user_1", int64(3), "go", "wrong answer"},
	)
}

func newLanguageService(q *fakeDB) *LanguageService {
	s := NewLanguageService(q, logger.Nop())
	s.now = func() time.Time { return languageNow }
	return s
}

func TestGetLanguageStats_IncludesOtherUsersLanguages(t *testing.T) {
	q := submissionLog()

	list, err := newLanguageService(q).GetLanguageStats(context.Background(), "user_1")
	require.NoError(t, err)
	require.Len(t, list, 3)

	assert.Equal(t, "python", list[0].Language)
	assert.Equal(t, 1, list[0].SolvedCount)
	assert.Equal(t, 2, list[0].TotalCount)

	assert.Equal(t, "rust", list[1].Language)
	assert.Equal(t, 0, list[1].SolvedCount)
	assert.Equal(t, 1, list[1].TotalCount)

	assert.Equal(t, "go", list[2].Language)
	assert.Equal(t, 0, list[2].SolvedCount)
	assert.Equal(t, 0, list[2].TotalCount)

	for _, st := range list {
		assert.Equal(t, "user_1", st.UserID)
		require.NotNil(t, st.LastUpdated)
		assert.True(t, st.LastUpdated.Equal(languageNow))
	}

	// Reads never touch the stored rows.
	assert.Len(t, q.queries, 1)
	assert.Empty(t, q.execs)
	assert.Zero(t, q.begun)
}

func TestSyncLanguageStats_PersistsEveryLanguage(t *testing.T) {
	q := submissionLog()

	list, err := newLanguageService(q).SyncLanguageStats(context.Background(), "user_1")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, 1, q.committed)

	prune := q.execsMatching("DELETE FROM user_language_stats")
	require.Len(t, prune, 1)
	assert.ElementsMatch(t, []string{"python", "rust", "go"}, prune[0].args[1])

	upserts := q.execsMatching("INSERT INTO user_language_stats")
	require.Len(t, upserts, 3)
	got := map[string][2]int{}
	for _, e := range upserts {
		got[e.args[1].(string)] = [2]int{e.args[2].(int), e.args[3].(int)}
	}
	assert.Equal(t, map[string][2]int{"python": {1, 2}, "rust": {0, 1}, "go": {0, 0}}, got)
}

func TestGetLanguageStats_RequiresUser(t *testing.T) {
	q := newFakeDB()
	_, err := newLanguageService(q).GetLanguageStats(context.Background(), "")
	assert.ErrorIs(t, err, ErrMissingIdentifier)
	assert.Empty(t, q.queries)
}

func TestRecordSubmission_PassRefreshesLanguageRow(t *testing.T) {
	q := newFakeDB()
	jobs := &recordingEnqueuer{}
	svc := NewSubmissionService(q, logger.Nop(), jobs)
	svc.now = func() time.Time { return languageNow }

	sub, err := svc.RecordSubmission(context.Background(), "user_1", &submission.CreateSubmissionRequest{
		ProblemID:   10,
		Language:    " Python ",
		FinalStatus: "Accepted",
		PassedCount: 3,
		TotalTests:  3,
	})
	require.NoError(t, err)
	assert.Equal(t, "python", sub.Language)
	assert.Equal(t, 1, q.committed)

	refresh := q.execsMatching("INSERT INTO user_language_stats")
	require.Len(t, refresh, 1)
	assert.Contains(t, refresh[0].sql, "FROM submissions")
	assert.Equal(t, "user_1", refresh[0].args[0])
	assert.Equal(t, "python", refresh[0].args[1])

	queued := jobs.ofKind(syncjob.KindLanguageStats)
	require.Len(t, queued, 1)
	assert.Equal(t, "user_1", queued[0].UserID)
}

func TestRecordSubmission_FailureLeavesStatsAlone(t *testing.T) {
	q := newFakeDB()
	jobs := &recordingEnqueuer{}
	svc := NewSubmissionService(q, logger.Nop(), jobs)

	_, err := svc.RecordSubmission(context.Background(), "user_1", &submission.CreateSubmissionRequest{
		ProblemID:   10,
		Language:    "go",
		FinalStatus: "Time Limit Exceeded",
		PassedCount: 1,
		TotalTests:  3,
	})
	require.NoError(t, err)

	assert.Len(t, q.execsMatching("INSERT INTO submissions"), 1)
	assert.Empty(t, q.execsMatching("user_language_stats"))
	assert.Empty(t, jobs.jobs)
}

func TestRecordSubmission_UnknownProblem(t *testing.T) {
	q := newFakeDB().fail("INSERT INTO submissions", &pgconn.PgError{Code: "23503"})
	jobs := &recordingEnqueuer{}
	svc := NewSubmissionService(q, logger.Nop(), jobs)

	_, err := svc.RecordSubmission(context.Background(), "user_1", &submission.CreateSubmissionRequest{
		ProblemID:   999,
		Language:    "go",
		FinalStatus: "Accepted",
	})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Zero(t, q.committed)
	assert.Empty(t, jobs.jobs)
}
