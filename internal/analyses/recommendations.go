package analyses

import (
	"fmt"
	"strings"

	"mission-backend/internal/advisory"
	"mission-backend/internal/analyses/recommendations"
	"mission-backend/internal/scoring"
)

// Recommendation is an alias of the recommendations module type.
type Recommendation = recommendations.Recommendation

func normalizeRecommendations(value []Recommendation) []Recommendation {
	if value == nil {
		return []Recommendation{}
	}
	return value
}

// fromAdvisory converts generator recommendations into the shared shape.
// Their order is kept; severity follows the score of the category when it
// names a dimension.
func fromAdvisory(recs []advisory.Recommendation, scores scoring.Scores) []Recommendation {
	out := make([]Recommendation, 0, len(recs))
	for i, r := range recs {
		category := scoring.Dimension(strings.ToLower(strings.TrimSpace(r.Category)))
		severity := recommendations.SeverityInfo
		if _, ok := scoring.ParseDimension(string(category)); ok {
			switch score := scores.Get(category); {
			case score < 60:
				severity = recommendations.SeverityCritical
			case score < 75:
				severity = recommendations.SeverityWarning
			}
		}
		out = append(out, Recommendation{
			ID:         fmt.Sprintf("ADVISORY_%d", i+1),
			Category:   category,
			Severity:   severity,
			Issue:      strings.TrimSpace(r.Issue),
			Suggestion: strings.TrimSpace(r.Suggestion),
			Order:      i + 1,
		})
	}
	return out
}
