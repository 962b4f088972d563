package analyses

import (
	"time"

	"mission-backend/internal/advisory"
	"mission-backend/internal/scoring"
	"mission-backend/internal/session"
)

const (
	StatusQueued     = "queued"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Result sources.
const (
	SourceRules    = "rules"
	SourceAdvisory = "advisory"
)

// FallbackMessage is shown whenever the advisory path could not be used.
const FallbackMessage = "AI analysis not available. Using standard analysis."

// Result is what a caller sees for one analyzed statement. The deterministic
// fields are always present; the advisory fields only when a validated
// advisory result was merged in.
type Result struct {
	Text            string                `json:"text"`
	Industry        string                `json:"industry"`
	IndustryContext string                `json:"industryContext"`
	WordCount       int                   `json:"wordCount"`
	Source          string                `json:"source"`
	Scores          scoring.Scores        `json:"scores"`
	Overall         int                   `json:"overall"`
	Label           string                `json:"label"`
	Band            string                `json:"band"`
	Weaknesses      scoring.Weaknesses    `json:"weaknesses"`
	RewritePlan     []scoring.RewritePlan `json:"rewritePlan"`
	Recommendations []Recommendation      `json:"recommendations"`

	Analysis map[scoring.Dimension]advisory.DimensionAnalysis `json:"analysis,omitempty"`
	Rewrites *advisory.Rewrites                               `json:"alternativeRewrites,omitempty"`
	// Baseline holds the deterministic numbers when advisory scores replaced them.
	Baseline *Baseline `json:"baseline,omitempty"`

	Fallback       bool   `json:"fallback,omitempty"`
	FallbackReason string `json:"fallbackReason,omitempty"`
	Message        string `json:"message,omitempty"`
}

// Baseline is the rule-based score kept alongside an advisory result.
type Baseline struct {
	Scores  scoring.Scores `json:"scores"`
	Overall int            `json:"overall"`
}

// Analysis is a persisted analysis record.
type Analysis struct {
	ID                string     `json:"id"`
	UserID            string     `json:"userId"`
	Status            string     `json:"status"`
	AdvisoryRequested bool       `json:"advisoryRequested"`
	Result            Result     `json:"result"`
	Provider          string     `json:"provider,omitempty"`
	Model             string     `json:"model,omitempty"`
	PromptHash        string     `json:"promptHash,omitempty"`
	AnalysisVersion   string     `json:"analysisVersion"`
	ReportKey         string     `json:"-"`
	ErrorCode         string     `json:"errorCode,omitempty"`
	ErrorMessage      string     `json:"errorMessage,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
	StartedAt         *time.Time `json:"startedAt,omitempty"`
	CompletedAt       *time.Time `json:"completedAt,omitempty"`
}

// HistoryEntry converts a to a session history entry.
func (a Analysis) HistoryEntry() session.Entry {
	return session.Entry{
		AnalysisID: a.ID,
		Text:       a.Result.Text,
		Industry:   a.Result.Industry,
		Scores:     a.Result.Scores,
		Overall:    a.Result.Overall,
		Advisory:   a.Result.Source == SourceAdvisory,
		CreatedAt:  a.CreatedAt,
	}
}
