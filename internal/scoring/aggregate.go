package scoring

import "fmt"

// Weights are whole percentages per dimension. Integer weights keep the
// aggregate free of floating point drift.
type Weights struct {
	Clarity      int `json:"clarity"`
	Specificity  int `json:"specificity"`
	Impact       int `json:"impact"`
	Authenticity int `json:"authenticity"`
	Memorability int `json:"memorability"`
}

// DefaultWeights is the fixed aggregation policy.
var DefaultWeights = Weights{
	Clarity:      25,
	Specificity:  25,
	Impact:       25,
	Authenticity: 15,
	Memorability: 10,
}

// Sum returns the total of all weights.
func (w Weights) Sum() int {
	return w.Clarity + w.Specificity + w.Impact + w.Authenticity + w.Memorability
}

// Validate checks that weights sum to 100 and none are negative.
func (w Weights) Validate() error {
	for _, v := range []int{w.Clarity, w.Specificity, w.Impact, w.Authenticity, w.Memorability} {
		if v < 0 {
			return fmt.Errorf("negative weight: %d", v)
		}
	}
	if w.Sum() != 100 {
		return fmt.Errorf("weights sum to %d, must sum to 100", w.Sum())
	}
	return nil
}

// Apply returns the weighted mean of s rounded half-up.
func (w Weights) Apply(s Scores) int {
	total := w.Clarity*s.Clarity +
		w.Specificity*s.Specificity +
		w.Impact*s.Impact +
		w.Authenticity*s.Authenticity +
		w.Memorability*s.Memorability
	sum := w.Sum()
	if sum <= 0 {
		return 0
	}
	return clamp((total+sum/2)/sum, Bounds{Min: 0, Max: 100})
}

// Aggregate computes the overall score with DefaultWeights.
func Aggregate(s Scores) int {
	return DefaultWeights.Apply(s)
}
