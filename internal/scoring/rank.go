package scoring

import "sort"

// Weaknesses are the three lowest scoring dimensions, most severe first.
type Weaknesses struct {
	Primary   Dimension `json:"primary"`
	Secondary Dimension `json:"secondary"`
	Tertiary  Dimension `json:"tertiary"`
}

// Rank orders dimensions by ascending score. Equal scores keep the order of
// Dimensions.
func Rank(s Scores) Weaknesses {
	ordered := make([]Dimension, len(Dimensions))
	copy(ordered, Dimensions)
	sort.SliceStable(ordered, func(i, j int) bool {
		return s.Get(ordered[i]) < s.Get(ordered[j])
	})
	return Weaknesses{Primary: ordered[0], Secondary: ordered[1], Tertiary: ordered[2]}
}

// List returns the ranked dimensions as a slice.
func (w Weaknesses) List() []Dimension {
	return []Dimension{w.Primary, w.Secondary, w.Tertiary}
}

// Contains reports whether d is one of the ranked weaknesses.
func (w Weaknesses) Contains(d Dimension) bool {
	return w.Primary == d || w.Secondary == d || w.Tertiary == d
}
