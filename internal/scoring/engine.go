package scoring

// Result is the deterministic analysis of one statement.
type Result struct {
	WordCount  int           `json:"wordCount"`
	Features   Features      `json:"features"`
	Scores     Scores        `json:"scores"`
	Overall    int           `json:"overall"`
	Weaknesses Weaknesses    `json:"weaknesses"`
	Rewrites   []RewritePlan `json:"rewritePlan"`
}

// Score runs the full deterministic pipeline over text. Industry never
// affects the numbers, so it is not an input here.
func Score(text string) Result {
	f := Extract(text)
	scores := ScoreDimensions(f)
	weak := Rank(scores)
	return Result{
		WordCount:  f.WordCount,
		Features:   f,
		Scores:     scores,
		Overall:    Aggregate(scores),
		Weaknesses: weak,
		Rewrites:   PlanRewrites(weak),
	}
}
