package transport

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/petal-labs/anthropic/transport"

// startSpan opens the span covering one call. Stream spans stay open until the
// stream's connection is released.
func (t *Transport) startSpan(ctx context.Context, c *call) (context.Context, trace.Span) {
	name := "anthropic.request"
	if c.stream {
		name = "anthropic.stream"
	}
	return t.tracer.Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("anthropic.call_id", c.id),
			attribute.String("http.request.method", c.method),
			attribute.String("url.path", c.path),
			attribute.Bool("anthropic.stream", c.stream),
		),
	)
}

// annotateSpan records the request phase outcome.
func annotateSpan(c *call, err error) {
	c.span.SetAttributes(
		attribute.Int("anthropic.attempts", c.attempts),
		attribute.Int("http.response.status_code", c.status),
	)
	if c.requestID != "" {
		c.span.SetAttributes(attribute.String("anthropic.request_id", c.requestID))
	}
	if err != nil {
		c.span.RecordError(err)
		c.span.SetStatus(codes.Error, err.Error())
	}
}

// endStreamSpan closes a stream span with its event count and terminal error.
func endStreamSpan(span trace.Span, events int, err error) {
	span.SetAttributes(attribute.Int("anthropic.stream.events", events))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
