// Package tracer is a small tracing abstraction over OpenTelemetry.
//
// Callers depend on Tracer and Span only. OTelTracer is used by the running
// binaries; NoopTracer keeps tests free of a tracer provider.
package tracer

import (
	"context"
	"time"
)

// Span represents an active trace span.
type Span interface {
	// End completes the span. A non-nil err marks it failed.
	End(err error)
	SetAttributes(attrs ...Attribute)
	AddEvent(name string, attrs ...Attribute)
}

// Tracer creates spans. Implementations must be safe for concurrent use.
//
//	ctx, span := t.Start(ctx, tracer.SpanGatewayCall,
//	    tracer.String(tracer.AttrHTTPMethod, "GET"),
//	)
//	defer span.End(err)
type Tracer interface {
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

// Attribute is a key-value pair attached to spans.
type Attribute struct {
	Key   string
	Value any
}

func String(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

func Bool(key string, value bool) Attribute {
	return Attribute{Key: key, Value: value}
}

func Int(key string, value int) Attribute {
	return Attribute{Key: key, Value: int64(value)}
}

func Int64(key string, value int64) Attribute {
	return Attribute{Key: key, Value: value}
}

// Duration records value in milliseconds.
func Duration(key string, value time.Duration) Attribute {
	return Attribute{Key: key, Value: value.Milliseconds()}
}

// Span names.
const (
	SpanGatewayCall  = "gateway.call"
	SpanListFetch    = "listquery.fetch"
	SpanBulkDelete   = "listquery.bulk_delete"
	SpanSessionLogin = "session.login"
)

// Attribute keys.
const (
	AttrHTTPMethod   = "http.method"
	AttrHTTPRoute    = "http.route"
	AttrHTTPStatus   = "http.status_code"
	AttrAuthAttached = "auth.bearer"
	AttrCacheHit     = "cache.hit"
	AttrListPage     = "list.page"
	AttrListRows     = "list.rows"
	AttrListStatus   = "list.status"
	AttrBulkCount    = "bulk.count"
	AttrBulkFailed   = "bulk.failed"
)

// Event names.
const (
	EventSessionExpired = "session.expired"
	EventResultStale    = "result.stale"
)
