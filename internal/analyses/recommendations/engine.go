package recommendations

import (
	"fmt"
	"sort"

	"mission-backend/internal/scoring"
)

// MaxRecommendations caps the list returned by Generate.
const MaxRecommendations = 5

type mapper func(scoring.Result) []Recommendation

var mappers = []mapper{
	fromBuzzwords,
	fromCorporateSpeak,
	fromLength,
	fromClauses,
	fromVerbs,
	fromScope,
	fromOpening,
	fromLowScores,
}

// Generate builds recommendations for r. Output is deduplicated, ordered by
// severity then by the weakness of the dimension it addresses, and capped at
// MaxRecommendations.
func Generate(r scoring.Result) []Recommendation {
	candidates := make([]Recommendation, 0, 12)
	for _, m := range mappers {
		for _, rec := range m(r) {
			rec.Severity = severityFor(r.Scores.Get(rec.Category))
			candidates = append(candidates, rec)
		}
	}

	out := dedupe(candidates)
	sortRecommendations(out, r.Scores)
	if len(out) > MaxRecommendations {
		out = out[:MaxRecommendations]
	}
	for i := range out {
		out[i].Order = i + 1
	}
	return out
}

func fromBuzzwords(r scoring.Result) []Recommendation {
	n := r.Features.Buzzwords
	if n == 0 {
		return nil
	}
	return []Recommendation{{
		ID:         "CLARITY_BUZZWORDS",
		Category:   scoring.Clarity,
		Issue:      fmt.Sprintf("Uses %d %s", n, plural(n, "buzzword", "buzzwords")),
		Suggestion: "Replace buzzwords with the plain words you would use with a customer.",
	}}
}

func fromCorporateSpeak(r scoring.Result) []Recommendation {
	n := r.Features.CorporateTerms
	if n == 0 {
		return nil
	}
	return []Recommendation{{
		ID:         "AUTHENTICITY_CORPORATE_SPEAK",
		Category:   scoring.Authenticity,
		Issue:      fmt.Sprintf("Contains %d corporate-speak %s", n, plural(n, "term", "terms")),
		Suggestion: "Say what you actually do instead of how large or leading you are.",
	}}
}

func fromLength(r scoring.Result) []Recommendation {
	n := r.WordCount
	switch {
	case n > 30:
		return []Recommendation{
			{
				ID:         "CLARITY_TOO_LONG",
				Category:   scoring.Clarity,
				Issue:      fmt.Sprintf("Statement is %d words long", n),
				Suggestion: "Cut it to under 20 words by removing qualifiers and lists.",
			},
			{
				ID:         "MEMORABILITY_TOO_LONG",
				Category:   scoring.Memorability,
				Issue:      "Too long to repeat from memory",
				Suggestion: "Aim for 6 to 12 words that someone could quote back.",
			},
		}
	case n < 8:
		return []Recommendation{{
			ID:         "CLARITY_TOO_SHORT",
			Category:   scoring.Clarity,
			Issue:      fmt.Sprintf("Statement is only %d %s", n, plural(n, "word", "words")),
			Suggestion: "Add who you serve and the change you create.",
		}}
	default:
		return nil
	}
}

func fromClauses(r scoring.Result) []Recommendation {
	n := r.Features.Clauses
	if n <= 1 {
		return nil
	}
	return []Recommendation{{
		ID:         "MEMORABILITY_MULTIPLE_IDEAS",
		Category:   scoring.Memorability,
		Issue:      fmt.Sprintf("Splits into %d separate clauses", n),
		Suggestion: "Express a single idea without commas, dashes or semicolons.",
	}}
}

func fromVerbs(r scoring.Result) []Recommendation {
	if r.Features.StrongVerbs > 0 {
		return nil
	}
	return []Recommendation{{
		ID:         "SPECIFICITY_NO_ACTION",
		Category:   scoring.Specificity,
		Issue:      "No strong action verb",
		Suggestion: `Name the action you take, for example "accelerate", "organize" or "empower".`,
	}}
}

func fromScope(r scoring.Result) []Recommendation {
	if r.Features.GlobalPhrases > 0 || r.Features.TransformVerbs > 0 {
		return nil
	}
	return []Recommendation{{
		ID:         "IMPACT_NO_SCOPE",
		Category:   scoring.Impact,
		Issue:      "No sense of scale or change",
		Suggestion: "State who benefits and what changes for them, and how widely.",
	}}
}

func fromOpening(r scoring.Result) []Recommendation {
	if r.Features.MissionOpening {
		return nil
	}
	return []Recommendation{{
		ID:         "MEMORABILITY_OPENING",
		Category:   scoring.Memorability,
		Issue:      "Does not open like a mission",
		Suggestion: `Start with "To" followed by a verb, as in "To organize the world's information".`,
	}}
}

var dimensionAdvice = map[scoring.Dimension]string{
	scoring.Clarity:      "Use short, common words and one subject.",
	scoring.Specificity:  "Name the product area, customer or outcome.",
	scoring.Impact:       "Describe the difference you make beyond your company.",
	scoring.Authenticity: "Write it the way your team would say it out loud.",
	scoring.Memorability: "Make it short enough to fit on a t-shirt.",
}

func fromLowScores(r scoring.Result) []Recommendation {
	var out []Recommendation
	for _, d := range scoring.Dimensions {
		score := r.Scores.Get(d)
		if score >= 70 {
			continue
		}
		out = append(out, Recommendation{
			ID:         "SCORE_" + string(d),
			Category:   d,
			Issue:      fmt.Sprintf("%s scores %d (%s)", title(d), score, scoring.Label(score)),
			Suggestion: dimensionAdvice[d],
		})
	}
	return out
}

func severityFor(score int) string {
	switch {
	case score < 60:
		return SeverityCritical
	case score < 75:
		return SeverityWarning
	default:
		return SeverityInfo
	}
}

func severityRank(value string) int {
	switch value {
	case SeverityCritical:
		return 3
	case SeverityWarning:
		return 2
	default:
		return 1
	}
}

func dimensionRank(d scoring.Dimension) int {
	for i, known := range scoring.Dimensions {
		if known == d {
			return i
		}
	}
	return len(scoring.Dimensions)
}

func dedupe(items []Recommendation) []Recommendation {
	seen := make(map[string]bool, len(items))
	out := make([]Recommendation, 0, len(items))
	for _, item := range items {
		if item.ID == "" || seen[item.ID] {
			continue
		}
		seen[item.ID] = true
		out = append(out, item)
	}
	return out
}

func sortRecommendations(items []Recommendation, scores scoring.Scores) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if severityRank(a.Severity) != severityRank(b.Severity) {
			return severityRank(a.Severity) > severityRank(b.Severity)
		}
		if sa, sb := scores.Get(a.Category), scores.Get(b.Category); sa != sb {
			return sa < sb
		}
		if dimensionRank(a.Category) != dimensionRank(b.Category) {
			return dimensionRank(a.Category) < dimensionRank(b.Category)
		}
		return a.ID < b.ID
	})
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func title(d scoring.Dimension) string {
	s := string(d)
	if s == "" {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}
