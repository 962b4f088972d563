package llm

import (
	"context"
	"strings"
	"testing"
)

func TestBuildAdvisoryPromptFillsPlaceholders(t *testing.T) {
	p := BuildAdvisoryPrompt(AdviseInput{
		Mission:         "To feed every town.",
		Industry:        "agriculture",
		IndustryContext: "Food security, sustainability, innovation, farmer support",
	})
	if strings.Contains(p.User, "{{") {
		t.Fatalf("unreplaced placeholder in prompt:\n%s", p.User)
	}
	if !strings.Contains(p.User, `Mission Statement: "To feed every town."`) {
		t.Fatalf("mission missing from prompt")
	}
	if !strings.Contains(p.User, "- Food security, sustainability, innovation, farmer support") {
		t.Fatalf("industry context missing from prompt")
	}
	if p.System != "You are an expert brand strategist. Always respond with valid JSON." {
		t.Fatalf("unexpected system prompt %q", p.System)
	}
}

func TestPromptHashDeterministic(t *testing.T) {
	in := AdviseInput{Mission: "To feed every town.", Industry: "agriculture"}
	h1 := BuildAdvisoryPrompt(in).Hash()
	h2 := BuildAdvisoryPrompt(in).Hash()
	if h1 != h2 {
		t.Fatalf("expected deterministic prompt hash, got %q and %q", h1, h2)
	}
	in.Mission = "To feed every city."
	if BuildAdvisoryPrompt(in).Hash() == h1 {
		t.Fatalf("expected prompt hash to change when input changes")
	}
}

func TestPromptForRepair(t *testing.T) {
	in := AdviseInput{Mission: "To feed every town.", Industry: "agriculture"}
	ctx := WithRepairHint(WithFixJSON(context.Background(), `{"scores":{}}`), "recommendations: need 3-5 items")
	p := PromptFor(ctx, in)
	if !strings.Contains(p.System, "JSON repair") {
		t.Fatalf("expected repair system prompt, got %q", p.System)
	}
	if !strings.Contains(p.User, `{"scores":{}}`) || !strings.Contains(p.User, "need 3-5 items") {
		t.Fatalf("repair prompt missing raw output or hint:\n%s", p.User)
	}

	if got := PromptFor(context.Background(), in); got != BuildAdvisoryPrompt(in) {
		t.Fatalf("expected plain advisory prompt without repair context")
	}
}

func TestStripCodeFences(t *testing.T) {
	tests := map[string]string{
		"{\"a\":1}":                      "{\"a\":1}",
		"```json\n{\"a\":1}\n```":        "{\"a\":1}",
		"```\n{\"a\":1}\n```  ":          "{\"a\":1}",
		"  ```json\n{\"a\":1}\r\n```\n": "{\"a\":1}",
	}
	for in, want := range tests {
		if got := StripCodeFences(in); got != want {
			t.Fatalf("StripCodeFences(%q) = %q, want %q", in, got, want)
		}
	}
}
