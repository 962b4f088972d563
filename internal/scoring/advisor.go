package scoring

// Strategy is a rewrite template.
type Strategy string

const (
	ActionFocused   Strategy = "actionFocused"
	ProblemSolution Strategy = "problemSolution"
	VisionDriven    Strategy = "visionDriven"
)

// Strategies lists the rewrite templates in presentation order.
var Strategies = []Strategy{ActionFocused, ProblemSolution, VisionDriven}

var strategyBriefs = map[Strategy]string{
	ActionFocused:   "Emphasize strong verbs and concrete outcomes",
	ProblemSolution: "Highlight the problem you solve",
	VisionDriven:    "Paint a picture of the future you're creating",
}

// RewritePlan binds a strategy to the weakness it targets. Text generation
// for the plan happens elsewhere.
type RewritePlan struct {
	Strategy Strategy  `json:"strategy"`
	Target   Dimension `json:"target"`
	Brief    string    `json:"brief"`
}

// PlanRewrites selects the three strategies for w.
func PlanRewrites(w Weaknesses) []RewritePlan {
	return []RewritePlan{
		plan(ActionFocused, w.Primary),
		plan(ProblemSolution, firstPresent(w, Specificity, Impact)),
		plan(VisionDriven, firstPresent(w, Impact)),
	}
}

// firstPresent returns the first candidate found among the weaknesses, or
// the primary weakness when none is.
func firstPresent(w Weaknesses, candidates ...Dimension) Dimension {
	for _, d := range candidates {
		if w.Contains(d) {
			return d
		}
	}
	return w.Primary
}

func plan(s Strategy, target Dimension) RewritePlan {
	return RewritePlan{Strategy: s, Target: target, Brief: strategyBriefs[s]}
}
