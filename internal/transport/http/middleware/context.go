package middleware

import (
	"context"

	"regie/internal/requestctx"
)

type ctxKey string

const ctxKeyUser ctxKey = "user"

func GetRequestID(ctx context.Context) string {
	return requestctx.GetRequestID(ctx)
}
