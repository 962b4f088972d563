package recommendations

import "mission-backend/internal/scoring"

// Severities, most urgent first.
const (
	SeverityCritical = "critical"
	SeverityWarning  = "warning"
	SeverityInfo     = "info"
)

// Recommendation is a deterministic fix derived from a scored statement.
type Recommendation struct {
	ID         string            `json:"id"`
	Category   scoring.Dimension `json:"category"`
	Severity   string            `json:"severity"`
	Issue      string            `json:"issue"`
	Suggestion string            `json:"suggestion"`
	Order      int               `json:"order"`
}
