// Package requestcontext carries request-scoped values (the request id and a
// pinned clock) through services without a net/http dependency. Commands and
// tests set them directly with WithRequestID and WithTime.
package requestcontext

import (
	"context"
	"time"
)

type ctxKey int

const (
	requestIDKey ctxKey = iota
	requestTimeKey
)

// RequestID returns the id set by the requestid middleware, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// Now returns the time pinned for this request. Outside a request (seed
// runs, background work) it is the current UTC time.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey).(time.Time); ok {
		return t
	}
	return time.Now().UTC()
}

func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey, t)
}
