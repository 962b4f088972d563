// Package scoring implements the deterministic mission statement scorer.
//
// Every function in this package is pure: a statement goes in, integers come
// out, and nothing is cached or shared between calls. Vocabulary checks are
// lower-cased substring matches, so "organize" also matches "reorganized".
package scoring

import "strings"

type vocabulary []string

// hits counts the distinct entries of v that occur anywhere in lower.
func (v vocabulary) hits(lower string) int {
	n := 0
	for _, term := range v {
		if strings.Contains(lower, term) {
			n++
		}
	}
	return n
}

func (v vocabulary) any(lower string) bool {
	return v.hits(lower) > 0
}

var (
	buzzwords      = vocabulary{"world-class", "leading", "solutions", "synergy", "innovative", "excellence"}
	strongVerbs    = vocabulary{"accelerate", "organize", "empower", "unlock", "transform"}
	globalPhrases  = vocabulary{"world", "planet", "every person", "every organization", "humanity"}
	transformVerbs = vocabulary{"transition", "accelerate", "empower", "organize", "unlock"}
	corporateTerms = vocabulary{"stakeholders", "leverage", "optimize", "maximize", "strategically"}
	commitment     = vocabulary{"save", "transition", "empower", "organize"}
	sustainability = vocabulary{"sustainable", "planet"}
	accessibility  = vocabulary{"accessible", "universally"}
)

// Clause separators for the single-idea check. The em dash is U+2014.
const clauseSeparators = ",—;"

// Features is the lexical profile of a statement. It is computed once per
// call and read by all five dimension scorers.
type Features struct {
	WordCount int `json:"wordCount"`

	Buzzwords      int `json:"buzzwords"`
	StrongVerbs    int `json:"strongVerbs"`
	GlobalPhrases  int `json:"globalPhrases"`
	TransformVerbs int `json:"transformVerbs"`
	CorporateTerms int `json:"corporateTerms"`

	Energy         bool `json:"energy"`
	Information    bool `json:"information"`
	Planet         bool `json:"planet"`
	Organize       bool `json:"organize"`
	Sustainability bool `json:"sustainability"`
	Accessibility  bool `json:"accessibility"`
	Commitment     bool `json:"commitment"`

	// HypeFree is true when the raw text has neither "innovative" nor
	// "solutions". The check is case-sensitive.
	HypeFree bool `json:"hypeFree"`
	// MissionOpening is true for statements that open with "To " or use
	// the "We're in business to" phrasing.
	MissionOpening bool `json:"missionOpening"`
	// Clauses is the number of parts produced by splitting on commas, em
	// dashes and semicolons.
	Clauses int `json:"clauses"`
}

// Extract builds the Features for text. It never fails; empty input yields
// zero counts.
func Extract(text string) Features {
	lower := strings.ToLower(text)
	return Features{
		WordCount:      WordCount(text),
		Buzzwords:      buzzwords.hits(lower),
		StrongVerbs:    strongVerbs.hits(lower),
		GlobalPhrases:  globalPhrases.hits(lower),
		TransformVerbs: transformVerbs.hits(lower),
		CorporateTerms: corporateTerms.hits(lower),
		Energy:         strings.Contains(lower, "energy"),
		Information:    strings.Contains(lower, "information"),
		Planet:         strings.Contains(lower, "planet"),
		Organize:       strings.Contains(lower, "organize"),
		Sustainability: sustainability.any(lower),
		Accessibility:  accessibility.any(lower),
		Commitment:     commitment.any(lower),
		HypeFree:       !strings.Contains(text, "innovative") && !strings.Contains(text, "solutions"),
		MissionOpening: strings.HasPrefix(text, "To ") || strings.Contains(text, "We're in business to"),
		Clauses:        countClauses(text),
	}
}

// WordCount splits trimmed text on whitespace runs.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// countClauses mirrors a plain split: "" is one part and "a,,b" is three.
func countClauses(text string) int {
	parts := 1
	for _, r := range text {
		if strings.ContainsRune(clauseSeparators, r) {
			parts++
		}
	}
	return parts
}
