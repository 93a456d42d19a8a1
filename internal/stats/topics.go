package stats

import (
	"sort"
	"strings"

	"prepTrackAPI/internal/types/topic"
)

// AggregateTopics counts, per topic, how many in-scope problems carry it and
// how many of those are solved. Topics are matched case-insensitively; the
// first spelling seen is the one reported. Blank topics are skipped.
func AggregateTopics(problems []topic.TaggedProblem) []topic.Stat {
	type tagged struct {
		topics map[string]struct{}
		solved bool
	}

	display := make(map[string]string)
	byProblem := make(map[int64]*tagged, len(problems))
	for _, p := range problems {
		t, ok := byProblem[p.ProblemID]
		if !ok {
			t = &tagged{topics: make(map[string]struct{}, len(p.Topics))}
			byProblem[p.ProblemID] = t
		}
		t.solved = t.solved || p.Solved
		for _, raw := range p.Topics {
			name := strings.TrimSpace(raw)
			if name == "" {
				continue
			}
			key := strings.ToLower(name)
			if _, seen := display[key]; !seen {
				display[key] = name
			}
			t.topics[key] = struct{}{}
		}
	}

	counts := make(map[string]*topic.Stat, len(display))
	for _, t := range byProblem {
		for key := range t.topics {
			st, ok := counts[key]
			if !ok {
				st = &topic.Stat{Topic: display[key]}
				counts[key] = st
			}
			st.TotalCount++
			if t.solved {
				st.SolvedCount++
			}
		}
	}

	out := make([]topic.Stat, 0, len(counts))
	for _, st := range counts {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SolvedCount != out[j].SolvedCount {
			return out[i].SolvedCount > out[j].SolvedCount
		}
		if out[i].TotalCount != out[j].TotalCount {
			return out[i].TotalCount > out[j].TotalCount
		}
		return out[i].Topic < out[j].Topic
	})
	return out
}
