package model

import (
	"context"
	"errors"
)

// RequestContext carries the per-request identifiers used in logs and error
// envelopes. It is immutable after construction and safe for concurrent
// reads.
type RequestContext struct {
	RequestID string
	TraceID   string
	SpanID    string
	Method    string
	Path      string
}

// Validate checks that the request id is present.
func (rc *RequestContext) Validate() error {
	if rc.RequestID == "" {
		return errors.New("RequestID is required")
	}
	return nil
}

type contextKey struct{}

// WithRequestContext attaches a RequestContext to the given context.
func WithRequestContext(ctx context.Context, rctx *RequestContext) context.Context {
	return context.WithValue(ctx, contextKey{}, rctx)
}

// RequestContextFrom extracts the RequestContext from the context, or returns nil
// if not present.
func RequestContextFrom(ctx context.Context) *RequestContext {
	rctx, _ := ctx.Value(contextKey{}).(*RequestContext)
	return rctx
}
