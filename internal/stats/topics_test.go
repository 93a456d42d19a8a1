package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prepTrackAPI/internal/types/topic"
)

func TestAggregateTopics(t *testing.T) {
	problems := []topic.TaggedProblem{
		{ProblemID: 1, Topics: []string{"Array", "Hash Table", "Two Pointers"}, Solved: true},
		{ProblemID: 2, Topics: []string{"array", "Dynamic Programming"}, Solved: true},
		{ProblemID: 3, Topics: []string{"Array", "Dynamic Programming"}},
		{ProblemID: 4, Topics: []string{"Graph"}},
	}

	got := AggregateTopics(problems)

	require.Len(t, got, 5)
	assert.Equal(t, topic.Stat{Topic: "Array", SolvedCount: 2, TotalCount: 3}, got[0])
	assert.Equal(t, topic.Stat{Topic: "Dynamic Programming", SolvedCount: 1, TotalCount: 2}, got[1])
	assert.Equal(t, topic.Stat{Topic: "Hash Table", SolvedCount: 1, TotalCount: 1}, got[2])
	assert.Equal(t, topic.Stat{Topic: "Two Pointers", SolvedCount: 1, TotalCount: 1}, got[3])
	assert.Equal(t, topic.Stat{Topic: "Graph", SolvedCount: 0, TotalCount: 1}, got[4])
}

func TestAggregateTopics_EveryTopicOnce(t *testing.T) {
	problems := []topic.TaggedProblem{
		{ProblemID: 1, Topics: []string{"Tree", "tree", " Tree "}},
		{ProblemID: 1, Topics: []string{"BFS"}, Solved: true},
		{ProblemID: 2, Topics: []string{"", "  ", "BFS"}},
	}

	got := AggregateTopics(problems)

	counts := map[string]topic.Stat{}
	for _, s := range got {
		_, dup := counts[s.Topic]
		require.False(t, dup, "topic %q listed twice", s.Topic)
		counts[s.Topic] = s
	}
	assert.Len(t, counts, 2)
	assert.Equal(t, 2, counts["BFS"].TotalCount)
	assert.Equal(t, 1, counts["BFS"].SolvedCount)
	assert.Equal(t, 1, counts["Tree"].TotalCount)
	assert.Equal(t, 1, counts["Tree"].SolvedCount)
}

func TestAggregateTopics_Empty(t *testing.T) {
	assert.Empty(t, AggregateTopics(nil))
}
