package advisory

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"mission-backend/internal/scoring"
)

const (
	minRewriteWords = 10
	maxRewriteWords = 25
)

//go:embed schema.json
var schemaJSON []byte

var resultSchema = mustSchema(schemaJSON)

func mustSchema(data []byte) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
	if err != nil {
		panic(fmt.Sprintf("advisory schema: %v", err))
	}
	return schema
}

type wireScores struct {
	Clarity      float64 `json:"clarity"`
	Specificity  float64 `json:"specificity"`
	Impact       float64 `json:"impact"`
	Authenticity float64 `json:"authenticity"`
	Memorability float64 `json:"memorability"`
}

type wireDimension struct {
	Score        float64  `json:"score"`
	Reasoning    string   `json:"reasoning"`
	Strengths    []string `json:"strengths"`
	Improvements []string `json:"improvements"`
}

type wireRewrite struct {
	Text       string   `json:"text"`
	Rationale  string   `json:"rationale"`
	ImprovesOn []string `json:"improvesOn"`
}

type wireResult struct {
	Scores     wireScores               `json:"scores"`
	Analysis   map[string]wireDimension `json:"analysis"`
	Weaknesses struct {
		Primary   string `json:"primary"`
		Secondary string `json:"secondary"`
		Tertiary  string `json:"tertiary"`
	} `json:"weaknesses"`
	Recommendations []Recommendation       `json:"recommendations"`
	Rewrites        map[string]wireRewrite `json:"alternativeRewrites"`
}

// Parse validates raw generator output and converts it to a Result. The
// overall score is always recomputed from the dimension scores.
func Parse(raw []byte) (Result, error) {
	if !json.Valid(raw) {
		return Result{}, &MalformedError{Problems: []string{"output is not valid JSON"}}
	}

	check, err := resultSchema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return Result{}, &MalformedError{Problems: []string{err.Error()}}
	}
	if !check.Valid() {
		problems := make([]string, 0, len(check.Errors()))
		for _, desc := range check.Errors() {
			problems = append(problems, desc.String())
		}
		return Result{}, &MalformedError{Problems: problems}
	}

	var wire wireResult
	if err := json.Unmarshal(raw, &wire); err != nil {
		return Result{}, &MalformedError{Problems: []string{err.Error()}}
	}

	var problems []string
	dim := func(field, name string) scoring.Dimension {
		d, ok := scoring.ParseDimension(strings.ToLower(strings.TrimSpace(name)))
		if !ok {
			problems = append(problems, fmt.Sprintf("%s: unknown dimension %q", field, name))
		}
		return d
	}

	out := Result{
		Analysis:        make(map[scoring.Dimension]DimensionAnalysis, len(scoring.Dimensions)),
		Recommendations: wire.Recommendations,
	}
	out.Scores.Scores = scoring.Scores{
		Clarity:      round(wire.Scores.Clarity),
		Specificity:  round(wire.Scores.Specificity),
		Impact:       round(wire.Scores.Impact),
		Authenticity: round(wire.Scores.Authenticity),
		Memorability: round(wire.Scores.Memorability),
	}
	out.Scores.Overall = scoring.Aggregate(out.Scores.Scores)

	for _, d := range scoring.Dimensions {
		w := wire.Analysis[string(d)]
		out.Analysis[d] = DimensionAnalysis{
			Score:        round(w.Score),
			Reasoning:    strings.TrimSpace(w.Reasoning),
			Strengths:    w.Strengths,
			Improvements: w.Improvements,
		}
	}

	out.Weaknesses = scoring.Weaknesses{
		Primary:   dim("weaknesses.primary", wire.Weaknesses.Primary),
		Secondary: dim("weaknesses.secondary", wire.Weaknesses.Secondary),
		Tertiary:  dim("weaknesses.tertiary", wire.Weaknesses.Tertiary),
	}

	rewrite := func(s scoring.Strategy) Rewrite {
		w := wire.Rewrites[string(s)]
		field := "alternativeRewrites." + string(s)
		if n := scoring.WordCount(w.Text); n < minRewriteWords || n > maxRewriteWords {
			problems = append(problems, fmt.Sprintf("%s.text: has %d words, want %d-%d", field, n, minRewriteWords, maxRewriteWords))
		}
		targets := make([]scoring.Dimension, 0, len(w.ImprovesOn))
		for i, name := range w.ImprovesOn {
			targets = append(targets, dim(fmt.Sprintf("%s.improvesOn.%d", field, i), name))
		}
		return Rewrite{Text: strings.TrimSpace(w.Text), Rationale: strings.TrimSpace(w.Rationale), ImprovesOn: targets}
	}
	out.Rewrites = Rewrites{
		ActionFocused:   rewrite(scoring.ActionFocused),
		ProblemSolution: rewrite(scoring.ProblemSolution),
		VisionDriven:    rewrite(scoring.VisionDriven),
	}

	if len(problems) > 0 {
		return Result{}, &MalformedError{Problems: problems}
	}
	return out, nil
}

func round(v float64) int {
	return int(math.Floor(v + 0.5))
}
