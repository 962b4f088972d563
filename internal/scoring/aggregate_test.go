package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultWeightsSumToOne(t *testing.T) {
	require.NoError(t, DefaultWeights.Validate())
	assert.Equal(t, 100, DefaultWeights.Sum())
}

func TestWeightsValidate(t *testing.T) {
	bad := DefaultWeights
	bad.Memorability = 20
	assert.Error(t, bad.Validate())

	neg := Weights{Clarity: 110, Memorability: -10}
	assert.Error(t, neg.Validate())
}

func TestAggregateRoundsHalfUp(t *testing.T) {
	// 22 + 20.75 + 25 + 12.75 + 10 = 90.5
	s := Scores{Clarity: 88, Specificity: 83, Impact: 100, Authenticity: 85, Memorability: 100}
	assert.Equal(t, 91, Aggregate(s))

	// 0.25 + 0.25 + 0 + 0 + 0 = 0.5
	assert.Equal(t, 1, Aggregate(Scores{Clarity: 1, Specificity: 1}))

	assert.Equal(t, 100, Aggregate(Scores{100, 100, 100, 100, 100}))
	assert.Equal(t, 0, Aggregate(Scores{}))
}

func TestRankOrdersAscending(t *testing.T) {
	s := Scores{Clarity: 88, Specificity: 40, Impact: 70, Authenticity: 30, Memorability: 95}
	got := Rank(s)
	assert.Equal(t, Weaknesses{Primary: Authenticity, Secondary: Specificity, Tertiary: Impact}, got)
}

func TestRankBreaksTiesByPriority(t *testing.T) {
	all := Scores{50, 50, 50, 50, 50}
	assert.Equal(t, Weaknesses{Primary: Clarity, Secondary: Specificity, Tertiary: Impact}, Rank(all))

	s := Scores{Clarity: 90, Specificity: 60, Impact: 90, Authenticity: 60, Memorability: 60}
	assert.Equal(t, Weaknesses{Primary: Specificity, Secondary: Authenticity, Tertiary: Memorability}, Rank(s))

	for i := 0; i < 5; i++ {
		assert.Equal(t, Rank(s), Rank(s))
	}
}

func TestPlanRewrites(t *testing.T) {
	tests := []struct {
		name string
		weak Weaknesses
		want []Dimension
	}{
		{
			name: "specificity and impact present",
			weak: Weaknesses{Primary: Clarity, Secondary: Impact, Tertiary: Specificity},
			want: []Dimension{Clarity, Specificity, Impact},
		},
		{
			name: "impact only",
			weak: Weaknesses{Primary: Authenticity, Secondary: Impact, Tertiary: Memorability},
			want: []Dimension{Authenticity, Impact, Impact},
		},
		{
			name: "neither present",
			weak: Weaknesses{Primary: Memorability, Secondary: Authenticity, Tertiary: Clarity},
			want: []Dimension{Memorability, Memorability, Memorability},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plans := PlanRewrites(tt.weak)
			require.Len(t, plans, 3)
			for i, p := range plans {
				assert.Equal(t, Strategies[i], p.Strategy)
				assert.Equal(t, tt.want[i], p.Target)
				assert.NotEmpty(t, p.Brief)
			}
		})
	}
}

func TestLabelAndBand(t *testing.T) {
	cases := []struct {
		score int
		label string
		band  string
	}{
		{100, "Excellent", "green"},
		{90, "Excellent", "green"},
		{89, "Strong", "green"},
		{80, "Strong", "green"},
		{79, "Good", "yellow"},
		{70, "Good", "yellow"},
		{60, "Fair", "yellow"},
		{59, "Needs Work", "red"},
		{0, "Needs Work", "red"},
	}
	for _, c := range cases {
		assert.Equal(t, c.label, Label(c.score), "score=%d", c.score)
		assert.Equal(t, c.band, Band(c.score), "score=%d", c.score)
	}
}

func TestParseDimension(t *testing.T) {
	d, ok := ParseDimension("impact")
	assert.True(t, ok)
	assert.Equal(t, Impact, d)

	_, ok = ParseDimension("Impact")
	assert.False(t, ok)
}
