// Package requestctx carries per-request values that outlive the HTTP layer:
// the request ID and a logger already tagged with it.
package requestctx

import (
	"context"

	"go.uber.org/zap"
)

type ctxKey string

const requestIDKey ctxKey = "request_id"

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

func GetRequestID(ctx context.Context) string {
	if value, ok := ctx.Value(requestIDKey).(string); ok {
		return value
	}
	return ""
}

// Logger returns base tagged with the request ID, or base unchanged outside
// a request. A nil base falls back to the global logger.
func Logger(ctx context.Context, base *zap.Logger) *zap.Logger {
	if base == nil {
		base = zap.L()
	}
	if requestID := GetRequestID(ctx); requestID != "" {
		return base.With(zap.String("requestId", requestID))
	}
	return base
}
