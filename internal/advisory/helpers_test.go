package advisory

import (
	"context"
	"encoding/json"
	"os"
	"sync"
	"testing"

	"mission-backend/internal/llm"
)

func loadFixture(t *testing.T) []byte {
	t.Helper()
	data, err := os.ReadFile("testdata/valid.json")
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	return data
}

// mutateFixture decodes the fixture, applies fn and re-encodes it.
func mutateFixture(t *testing.T, fn func(doc map[string]any)) []byte {
	t.Helper()
	var doc map[string]any
	if err := json.Unmarshal(loadFixture(t), &doc); err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	fn(doc)
	out, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	return out
}

type scriptedResponse struct {
	raw json.RawMessage
	err error
}

type scriptedClient struct {
	mu        sync.Mutex
	responses []scriptedResponse
	calls     int
	fixRaw    []string
	hints     []string
}

func (c *scriptedClient) Advise(ctx context.Context, input llm.AdviseInput) (json.RawMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	llm.CapturePromptHash(ctx, llm.PromptFor(ctx, input))
	if raw, ok := llm.FixJSONFromContext(ctx); ok {
		c.fixRaw = append(c.fixRaw, raw)
		hint, _ := llm.RepairHintFromContext(ctx)
		c.hints = append(c.hints, hint)
	}
	idx := c.calls
	c.calls++
	if idx >= len(c.responses) {
		idx = len(c.responses) - 1
	}
	r := c.responses[idx]
	return r.raw, r.err
}
