// Package trace carries request and span ids through a context.
package trace

import (
	"context"
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"
)

type ctxKey string

const ctxKeyTrace ctxKey = "trace_info"

const (
	HeaderRequestID = "X-Request-Id"
	HeaderSpanID    = "X-Span-Id"
)

// Info is the trace state of one inbound request or background run.
// spanSeq increases by one for every outbound call made under it.
type Info struct {
	RequestID string
	spanSeq   int64
}

func GenerateID() string {
	return uuid.NewString()
}

// WithRequestAndSpan stores a request id and initial span sequence in ctx.
func WithRequestAndSpan(ctx context.Context, requestID string, initialSpan int64) context.Context {
	info := &Info{RequestID: requestID, spanSeq: initialSpan}
	return context.WithValue(ctx, ctxKeyTrace, info)
}

// Ensure returns ctx unchanged when it already carries a request id, otherwise
// a child context with a fresh one.
func Ensure(ctx context.Context) context.Context {
	if infoFromContext(ctx) != nil {
		return ctx
	}
	return WithRequestAndSpan(ctx, GenerateID(), 0)
}

func infoFromContext(ctx context.Context) *Info {
	if ctx == nil {
		return nil
	}
	v, _ := ctx.Value(ctxKeyTrace).(*Info)
	return v
}

func RequestIDFromContext(ctx context.Context) string {
	info := infoFromContext(ctx)
	if info == nil {
		return ""
	}
	return info.RequestID
}

// CurrentSpanID returns the current span sequence without advancing it.
func CurrentSpanID(ctx context.Context) string {
	info := infoFromContext(ctx)
	if info == nil {
		return "0"
	}
	val := atomic.LoadInt64(&info.spanSeq)
	if val <= 0 {
		return "0"
	}
	return strconv.FormatInt(val, 10)
}

// NextSpanID advances the span sequence and returns (requestID, spanID).
func NextSpanID(ctx context.Context) (string, string) {
	info := infoFromContext(ctx)
	if info == nil {
		return GenerateID(), "1"
	}
	val := atomic.AddInt64(&info.spanSeq, 1)
	if val <= 0 {
		val = 1
	}
	return info.RequestID, strconv.FormatInt(val, 10)
}
