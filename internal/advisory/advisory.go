// Package advisory produces the narrative layer of an analysis: per-dimension
// reasoning, recommendations and rewritten statements. Output comes from an
// external generator and is validated before anything else sees it.
package advisory

import (
	"context"
	"errors"
	"strings"

	"mission-backend/internal/scoring"
)

var (
	// ErrUnavailable means no generator could be reached or none is configured.
	ErrUnavailable = errors.New("advisory generator unavailable")
	// ErrTimeout means the generator did not answer in time.
	ErrTimeout = errors.New("advisory generator timed out")
	// ErrMalformed means the generator answered with an invalid document.
	ErrMalformed = errors.New("advisory result malformed")
)

// MalformedError lists every structural problem found in a generator result.
type MalformedError struct {
	Problems []string
}

func (e *MalformedError) Error() string {
	return ErrMalformed.Error() + ": " + strings.Join(e.Problems, "; ")
}

// Is makes errors.Is(err, ErrMalformed) true.
func (e *MalformedError) Is(target error) bool {
	return target == ErrMalformed
}

// Request is the input to a generator.
type Request struct {
	Text            string
	Industry        string
	IndustryContext string
	// Scores are the deterministic scores for Text.
	Scores scoring.Scores
}

// Generator produces an advisory result for a statement.
type Generator interface {
	Generate(ctx context.Context, req Request) (Result, error)
}

// Scores are the generator's dimension scores plus the recomputed overall.
type Scores struct {
	scoring.Scores
	Overall int `json:"overall"`
}

// DimensionAnalysis is the narrative for one dimension.
type DimensionAnalysis struct {
	Score        int      `json:"score"`
	Reasoning    string   `json:"reasoning"`
	Strengths    []string `json:"strengths"`
	Improvements []string `json:"improvements"`
}

// Recommendation is one concrete fix.
type Recommendation struct {
	Category   string `json:"category"`
	Issue      string `json:"issue"`
	Suggestion string `json:"suggestion"`
}

// Rewrite is an alternative statement.
type Rewrite struct {
	Text       string              `json:"text"`
	Rationale  string              `json:"rationale"`
	ImprovesOn []scoring.Dimension `json:"improvesOn"`
}

// Rewrites holds exactly one rewrite per strategy.
type Rewrites struct {
	ActionFocused   Rewrite `json:"actionFocused"`
	ProblemSolution Rewrite `json:"problemSolution"`
	VisionDriven    Rewrite `json:"visionDriven"`
}

// Get returns the rewrite for s.
func (r Rewrites) Get(s scoring.Strategy) (Rewrite, bool) {
	switch s {
	case scoring.ActionFocused:
		return r.ActionFocused, true
	case scoring.ProblemSolution:
		return r.ProblemSolution, true
	case scoring.VisionDriven:
		return r.VisionDriven, true
	default:
		return Rewrite{}, false
	}
}

// Result is a validated advisory document.
type Result struct {
	Scores          Scores                                  `json:"scores"`
	Analysis        map[scoring.Dimension]DimensionAnalysis `json:"analysis"`
	Weaknesses      scoring.Weaknesses                      `json:"weaknesses"`
	Recommendations []Recommendation                        `json:"recommendations"`
	Rewrites        Rewrites                                `json:"alternativeRewrites"`

	Provider   string `json:"provider,omitempty"`
	Model      string `json:"model,omitempty"`
	PromptHash string `json:"promptHash,omitempty"`
	Cached     bool   `json:"cached,omitempty"`
}

// NullGenerator is used when no provider is configured.
type NullGenerator struct{}

// Generate always returns ErrUnavailable.
func (NullGenerator) Generate(context.Context, Request) (Result, error) {
	return Result{}, ErrUnavailable
}
