package advisory

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"mission-backend/internal/llm"
)

func TestLLMGeneratorSuccess(t *testing.T) {
	client := &scriptedClient{responses: []scriptedResponse{{raw: loadFixture(t)}}}
	g := &LLMGenerator{Client: client, Provider: "openai", Model: "gpt-4-turbo-preview", Timeout: time.Second}

	res, err := g.Generate(context.Background(), Request{Text: "We power villages.", Industry: "energy"})
	require.NoError(t, err)
	assert.Equal(t, "openai", res.Provider)
	assert.Equal(t, "gpt-4-turbo-preview", res.Model)
	assert.Len(t, res.PromptHash, 64)
	assert.Equal(t, 1, client.calls)
}

func TestLLMGeneratorRepairsMalformedOnce(t *testing.T) {
	bad := mutateFixture(t, func(doc map[string]any) { delete(doc, "weaknesses") })
	client := &scriptedClient{responses: []scriptedResponse{{raw: bad}, {raw: loadFixture(t)}}}
	g := &LLMGenerator{Client: client}

	res, err := g.Generate(context.Background(), Request{Text: "We power villages."})
	require.NoError(t, err)
	assert.Equal(t, 74, res.Scores.Overall)
	require.Len(t, client.fixRaw, 1)
	assert.Equal(t, string(bad), client.fixRaw[0])
	assert.Contains(t, client.hints[0], "weaknesses")
}

func TestLLMGeneratorMalformedAfterRepair(t *testing.T) {
	bad := mutateFixture(t, func(doc map[string]any) { delete(doc, "analysis") })
	client := &scriptedClient{responses: []scriptedResponse{{raw: bad}}}
	g := &LLMGenerator{Client: client}

	_, err := g.Generate(context.Background(), Request{Text: "We power villages."})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformed))
	assert.Equal(t, 2, client.calls)
}

func TestLLMGeneratorErrorClassification(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want error
	}{
		{"not configured", llm.ErrNotConfigured, ErrUnavailable},
		{"deadline", fmt.Errorf("openai request timeout: %w", context.DeadlineExceeded), ErrTimeout},
		{"http", errors.New("openai error: http status 503"), ErrUnavailable},
		{"invalid json", errors.New("invalid JSON from OpenAI"), ErrMalformed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := &scriptedClient{responses: []scriptedResponse{{err: tc.err}}}
			g := &LLMGenerator{Client: client}
			_, err := g.Generate(context.Background(), Request{Text: "x"})
			assert.True(t, errors.Is(err, tc.want), "got %v", err)
		})
	}
}

func TestLLMGeneratorNilClient(t *testing.T) {
	var g *LLMGenerator
	_, err := g.Generate(context.Background(), Request{})
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = NullGenerator{}.Generate(context.Background(), Request{})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestLLMGeneratorRecordsSpan(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr)))
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	client := &scriptedClient{responses: []scriptedResponse{{err: llm.ErrNotConfigured}}}
	g := &LLMGenerator{Client: client, Provider: "openai"}
	_, _ = g.Generate(context.Background(), Request{Text: "We power villages.", Industry: "energy"})

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "advisory.generate", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)
}
