package llm

import (
	"context"
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"fmt"
	"strings"
)

var (
	//go:embed prompts/advisory_system.txt
	advisorySystem string
	//go:embed prompts/advisory_user.txt
	advisoryUser string
	//go:embed prompts/fix_system.txt
	fixSystem string
)

// Prompt is a provider-neutral system/user message pair.
type Prompt struct {
	System string
	User   string
}

// Hash fingerprints the prompt so stored analyses can be traced to it.
func (p Prompt) Hash() string {
	sum := sha256.Sum256([]byte("system: " + p.System + "\n\nuser: " + p.User))
	return hex.EncodeToString(sum[:])
}

// BuildAdvisoryPrompt renders the advisory prompt for input.
func BuildAdvisoryPrompt(input AdviseInput) Prompt {
	industry := strings.TrimSpace(input.Industry)
	if industry == "" {
		industry = "general"
	}
	replacer := strings.NewReplacer(
		"{{MISSION}}", input.Mission,
		"{{INDUSTRY}}", industry,
		"{{INDUSTRY_CONTEXT}}", input.IndustryContext,
	)
	return Prompt{
		System: strings.TrimSpace(advisorySystem),
		User:   strings.TrimSpace(replacer.Replace(advisoryUser)),
	}
}

// BuildFixPrompt asks the model to repair a previous answer.
func BuildFixPrompt(input AdviseInput, raw, hint string) Prompt {
	base := BuildAdvisoryPrompt(input)
	var b strings.Builder
	b.WriteString(base.User)
	b.WriteString("\n\nYour previous answer did not match the required structure.")
	if strings.TrimSpace(hint) != "" {
		fmt.Fprintf(&b, "\nProblems found:\n%s", hint)
	}
	fmt.Fprintf(&b, "\n\nFix this JSON. Output JSON only:\n%s", raw)
	return Prompt{System: strings.TrimSpace(fixSystem), User: b.String()}
}

// PromptFor picks the fix prompt when ctx carries a repair request.
func PromptFor(ctx context.Context, input AdviseInput) Prompt {
	if raw, ok := FixJSONFromContext(ctx); ok {
		hint, _ := RepairHintFromContext(ctx)
		return BuildFixPrompt(input, raw, hint)
	}
	return BuildAdvisoryPrompt(input)
}

// StripCodeFences removes a surrounding ```json fence some models add.
func StripCodeFences(text string) string {
	cleaned := strings.TrimSpace(text)
	if !strings.HasPrefix(cleaned, "```") {
		return cleaned
	}
	if nl := strings.IndexByte(cleaned, '\n'); nl >= 0 {
		cleaned = cleaned[nl+1:]
	} else {
		return cleaned
	}
	cleaned = strings.TrimSpace(cleaned)
	cleaned = strings.TrimSuffix(cleaned, "```")
	return strings.TrimSpace(cleaned)
}
