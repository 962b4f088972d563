package scoring

import "math"

// Dimension names one of the five quality axes.
type Dimension string

const (
	Clarity      Dimension = "clarity"
	Specificity  Dimension = "specificity"
	Impact       Dimension = "impact"
	Authenticity Dimension = "authenticity"
	Memorability Dimension = "memorability"
)

// Dimensions lists every dimension in fix-first priority order. Ranking ties
// are broken by position in this slice.
var Dimensions = []Dimension{Clarity, Specificity, Impact, Authenticity, Memorability}

// ParseDimension maps a name to a Dimension.
func ParseDimension(name string) (Dimension, bool) {
	for _, d := range Dimensions {
		if string(d) == name {
			return d, true
		}
	}
	return "", false
}

// Bounds is the inclusive clamp range of a dimension.
type Bounds struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

var bounds = map[Dimension]Bounds{
	Clarity:      {Min: 25, Max: 100},
	Specificity:  {Min: 15, Max: 100},
	Impact:       {Min: 20, Max: 100},
	Authenticity: {Min: 30, Max: 100},
	Memorability: {Min: 35, Max: 100},
}

// BoundsFor returns the clamp range of d.
func BoundsFor(d Dimension) Bounds {
	return bounds[d]
}

// Scores holds one integer per dimension.
type Scores struct {
	Clarity      int `json:"clarity"`
	Specificity  int `json:"specificity"`
	Impact       int `json:"impact"`
	Authenticity int `json:"authenticity"`
	Memorability int `json:"memorability"`
}

// Get returns the score for d, or 0 for an unknown dimension.
func (s Scores) Get(d Dimension) int {
	switch d {
	case Clarity:
		return s.Clarity
	case Specificity:
		return s.Specificity
	case Impact:
		return s.Impact
	case Authenticity:
		return s.Authenticity
	case Memorability:
		return s.Memorability
	default:
		return 0
	}
}

// ScoreDimensions runs all five scorers over f.
func ScoreDimensions(f Features) Scores {
	return Scores{
		Clarity:      scoreClarity(f),
		Specificity:  scoreSpecificity(f),
		Impact:       scoreImpact(f),
		Authenticity: scoreAuthenticity(f),
		Memorability: scoreMemorability(f),
	}
}

func scoreClarity(f Features) int {
	score := 83.0
	n := float64(f.WordCount)
	switch {
	case f.WordCount >= 8 && f.WordCount <= 30:
		score = 88
	case f.WordCount > 30:
		score = 82 - (n-30)*1.2
	case f.WordCount < 8:
		score = 65 - (8-n)*3
	}
	score -= 6 * float64(f.Buzzwords)
	return finish(score, Clarity)
}

func scoreSpecificity(f Features) int {
	score := 45.0
	score += 25 * float64(f.StrongVerbs)
	if f.Energy {
		score += 13
	}
	if f.Information {
		score += 15
	}
	if f.Planet {
		score += 20
	}
	return finish(score, Specificity)
}

func scoreImpact(f Features) int {
	score := 35.0
	score += 22 * float64(f.GlobalPhrases)
	score += 13 * float64(f.TransformVerbs)
	if f.Sustainability {
		score += 23
	}
	if f.Accessibility {
		score += 20
	}
	if f.Information {
		score += 15
	}
	if f.Organize && f.Information {
		score += 5
	}
	return finish(score, Impact)
}

func scoreAuthenticity(f Features) int {
	score := 75.0
	score -= 15 * float64(f.CorporateTerms)
	if f.WordCount < 15 && f.HypeFree {
		score += 2
	}
	if f.Commitment {
		score += 8
	}
	return finish(score, Authenticity)
}

func scoreMemorability(f Features) int {
	score := 70.0
	n := float64(f.WordCount)
	switch {
	case f.WordCount >= 6 && f.WordCount <= 12:
		score = 93
	case f.WordCount >= 13 && f.WordCount <= 20:
		score = 90
	case f.WordCount >= 21 && f.WordCount <= 30:
		score = 82
	case f.WordCount > 30:
		score = 75 - (n-30)*2
	}
	if f.MissionOpening {
		score += 5
	}
	if f.Clauses == 1 {
		score += 8
	}
	return finish(score, Memorability)
}

func finish(raw float64, d Dimension) int {
	return clamp(roundHalfUp(raw), bounds[d])
}

func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}

func clamp(v int, b Bounds) int {
	if v < b.Min {
		return b.Min
	}
	if v > b.Max {
		return b.Max
	}
	return v
}
