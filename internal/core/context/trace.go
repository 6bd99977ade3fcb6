package context

import (
	"context"
)

// TraceContext carries the identifiers of one HTTP request.
type TraceContext struct {
	TraceID   string
	SpanID    string
	RequestID string
}

type traceContextKey struct{}

// WithTrace adds TraceContext to context.
func WithTrace(ctx context.Context, trace *TraceContext) context.Context {
	return context.WithValue(ctx, traceContextKey{}, trace)
}

// GetTrace returns TraceContext from context.
func GetTrace(ctx context.Context) *TraceContext {
	if v, ok := ctx.Value(traceContextKey{}).(*TraceContext); ok {
		return v
	}
	return nil
}

// LogFields returns the request identifiers found in ctx as alternating
// key/value pairs for structured logging.
func LogFields(ctx context.Context) []any {
	var fields []any
	if t := GetTrace(ctx); t != nil {
		fields = append(fields, "trace_id", t.TraceID, "request_id", t.RequestID)
		if t.SpanID != "" {
			fields = append(fields, "span_id", t.SpanID)
		}
	}
	if a := GetAgent(ctx); a != nil && a.AgentID != "" {
		fields = append(fields, "agent_id", a.AgentID)
	}
	return fields
}
