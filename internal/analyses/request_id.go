package analyses

import (
	"context"

	"mission-backend/internal/shared/telemetry"
)

// WithRequestID attaches a request ID to the context for logging.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return telemetry.WithRequestID(ctx, requestID)
}

func requestIDFromContext(ctx context.Context) string {
	return telemetry.RequestIDFromContext(ctx)
}

// detached returns a background context that keeps only the request ID, for
// work that must outlive the HTTP request.
func detached(ctx context.Context) context.Context {
	return WithRequestID(context.Background(), requestIDFromContext(ctx))
}
