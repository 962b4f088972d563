package advisory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"mission-backend/internal/llm"
	"mission-backend/internal/shared/telemetry"
)

const tracerName = "mission-backend/advisory"

// LLMGenerator asks a language model for the advisory document. Invalid
// output gets one repair round with the validation problems attached.
type LLMGenerator struct {
	Client   llm.Client
	Provider string
	Model    string
	Timeout  time.Duration
}

// Generate implements Generator.
func (g *LLMGenerator) Generate(ctx context.Context, req Request) (Result, error) {
	if g == nil || g.Client == nil {
		return Result{}, ErrUnavailable
	}
	ctx, span := otel.Tracer(tracerName).Start(ctx, "advisory.generate")
	defer span.End()
	span.SetAttributes(
		attribute.String("advisory.provider", g.Provider),
		attribute.String("advisory.model", g.Model),
		attribute.String("mission.industry", req.Industry),
		attribute.Int("mission.words", len(strings.Fields(req.Text))),
	)

	if g.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.Timeout)
		defer cancel()
	}

	result, err := g.generate(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Result{}, err
	}
	span.SetAttributes(attribute.Int("advisory.overall", result.Scores.Overall))
	return result, nil
}

func (g *LLMGenerator) generate(ctx context.Context, req Request) (Result, error) {
	input := llm.AdviseInput{
		Mission:         req.Text,
		Industry:        req.Industry,
		IndustryContext: req.IndustryContext,
	}
	var promptHash string
	ctx = llm.WithPromptHashCapture(ctx, &promptHash)

	raw, err := g.Client.Advise(ctx, input)
	if err != nil {
		return Result{}, classify(ctx, err)
	}
	result, err := Parse(raw)
	if err != nil {
		var malformed *MalformedError
		if !errors.As(err, &malformed) {
			return Result{}, err
		}
		telemetry.Warn("advisory.validation", map[string]any{
			"attempt":  1,
			"problems": malformed.Problems,
		})
		repairCtx := llm.WithRepairHint(llm.WithFixJSON(ctx, string(raw)), strings.Join(malformed.Problems, "\n"))
		raw, err = g.Client.Advise(repairCtx, input)
		if err != nil {
			return Result{}, classify(ctx, err)
		}
		result, err = Parse(raw)
		if err != nil {
			return Result{}, err
		}
	}

	result.Provider = g.Provider
	result.Model = g.Model
	result.PromptHash = promptHash
	return result, nil
}

func classify(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, llm.ErrNotConfigured):
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(ctx.Err(), context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	case strings.Contains(strings.ToLower(err.Error()), "invalid json"):
		return &MalformedError{Problems: []string{err.Error()}}
	default:
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
}
