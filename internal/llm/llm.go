package llm

import (
	"context"
	"encoding/json"
	"errors"
)

// Client abstracts LLM providers for mission statement advisory.
type Client interface {
	Advise(ctx context.Context, input AdviseInput) (json.RawMessage, error)
}

// AdviseInput captures what the provider needs to build a prompt.
type AdviseInput struct {
	Mission         string
	Industry        string
	IndustryContext string
}

// Usage is the token accounting reported by a provider.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

type fixJSONKey struct{}

// WithFixJSON returns a context signaling a fix-JSON retry with the given raw output.
func WithFixJSON(ctx context.Context, raw string) context.Context {
	return context.WithValue(ctx, fixJSONKey{}, raw)
}

// FixJSONFromContext returns the raw JSON to repair, if any.
func FixJSONFromContext(ctx context.Context) (string, bool) {
	val := ctx.Value(fixJSONKey{})
	raw, ok := val.(string)
	return raw, ok
}

type repairHintKey struct{}

// WithRepairHint attaches validation feedback that providers append to the
// fix-JSON prompt.
func WithRepairHint(ctx context.Context, hint string) context.Context {
	return context.WithValue(ctx, repairHintKey{}, hint)
}

// RepairHintFromContext returns the validation feedback, if any.
func RepairHintFromContext(ctx context.Context) (string, bool) {
	hint, ok := ctx.Value(repairHintKey{}).(string)
	return hint, ok && hint != ""
}

type promptHashKey struct{}

// WithPromptHashCapture asks the provider to write the prompt hash into sink.
func WithPromptHashCapture(ctx context.Context, sink *string) context.Context {
	return context.WithValue(ctx, promptHashKey{}, sink)
}

// PromptHashSinkFromContext returns the sink set by WithPromptHashCapture.
func PromptHashSinkFromContext(ctx context.Context) (*string, bool) {
	sink, ok := ctx.Value(promptHashKey{}).(*string)
	return sink, ok
}

// CapturePromptHash stores the hash of p in the context sink when present.
func CapturePromptHash(ctx context.Context, p Prompt) {
	if sink, ok := PromptHashSinkFromContext(ctx); ok && sink != nil {
		*sink = p.Hash()
	}
}

// ErrNotConfigured is returned when a provider is missing credentials.
var ErrNotConfigured = errors.New("llm provider not configured")
