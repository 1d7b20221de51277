/*
Package tracing tags each control API request with a trace ID so a host UI
action can be followed through the embed host logs.

A span covers one HTTP request. The trace ID is taken from the X-Trace-ID
request header when the host UI supplies one, otherwise generated. Both IDs
are echoed in the response headers and stored in the request context, where
TraceID and SpanID read them back.

Completed spans are handed to a buffered collector that logs them through
zap. When the buffer is full the span is dropped rather than blocking the
request.

	tracer := tracing.New("embedhost", logger)
	defer tracer.Close()
	router.Use(tracing.HTTPMiddleware(tracer))
*/
package tracing
