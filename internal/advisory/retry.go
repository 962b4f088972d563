package advisory

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"strings"
	"time"

	"mission-backend/internal/llm"
	"mission-backend/internal/shared/telemetry"
)

const llmRetryBaseDelay = 300 * time.Millisecond

type retryingLLM struct {
	base  llm.Client
	delay time.Duration
}

// WithRetry wraps base so transient failures are retried once.
func WithRetry(base llm.Client) llm.Client {
	if base == nil {
		return nil
	}
	return retryingLLM{base: base, delay: llmRetryBaseDelay}
}

func (r retryingLLM) Advise(ctx context.Context, input llm.AdviseInput) (json.RawMessage, error) {
	resp, err := r.base.Advise(ctx, input)
	if err == nil || !shouldRetryLLM(err) {
		return resp, err
	}

	telemetry.Warn("llm.retry", map[string]any{
		"attempt":    1,
		"request_id": telemetry.RequestIDFromContext(ctx),
		"error":      err.Error(),
	})
	select {
	case <-time.After(r.delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	return r.base.Advise(ctx, input)
}

func shouldRetryLLM(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, llm.ErrNotConfigured) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "http status 5") || strings.Contains(msg, "server_error") || strings.Contains(msg, "http status 429") {
		return true
	}
	if strings.Contains(msg, "request timeout") {
		return true
	}
	if strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection closed") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "tls handshake timeout") ||
		strings.Contains(msg, "eof") {
		return true
	}

	return false
}
