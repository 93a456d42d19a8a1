package topic

type Stat struct {
	Topic       string `json:"topic"`
	SolvedCount int    `json:"solved_count"`
	TotalCount  int    `json:"total_count"`
}

// TaggedProblem is the input row for topic aggregation.
type TaggedProblem struct {
	ProblemID int64
	Topics    []string
	Solved    bool
}
