package scoring

// Label returns the display label for a score.
func Label(score int) string {
	switch {
	case score >= 90:
		return "Excellent"
	case score >= 80:
		return "Strong"
	case score >= 70:
		return "Good"
	case score >= 60:
		return "Fair"
	default:
		return "Needs Work"
	}
}

// Band returns the traffic light color for a score.
func Band(score int) string {
	switch {
	case score >= 80:
		return "green"
	case score >= 60:
		return "yellow"
	default:
		return "red"
	}
}

// Tips are the fixed writing tips shown next to results.
var Tips = []string{
	"Keep it under 20 words for maximum impact",
	`Start with an action verb like "To empower" or "To transform"`,
	`Avoid buzzwords like "synergy" or "leverage"`,
	"Focus on your unique value proposition",
}
