package tracing

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// HTTPMiddleware opens a span per request and echoes the IDs in the response
func HTTPMiddleware(tracer *Tracer) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if upstream := c.GetHeader(TraceHeader); upstream != "" {
			ctx = WithTraceID(ctx, upstream)
		}

		name := c.FullPath()
		if name == "" {
			name = "unmatched"
		}
		span, ctx := tracer.StartSpan(ctx, c.Request.Method+" "+name)
		span.SetTag("http.path", c.Request.URL.Path)
		c.Request = c.Request.WithContext(ctx)

		c.Header(TraceHeader, span.TraceID)
		c.Header(SpanHeader, span.SpanID)

		c.Next()

		span.StatusCode = c.Writer.Status()
		span.SetTag("http.status", strconv.Itoa(span.StatusCode))
		if len(c.Errors) > 0 {
			span.Err = c.Errors.Last()
		} else if span.StatusCode >= http.StatusInternalServerError {
			span.Err = &statusError{code: span.StatusCode}
		}

		span.Finish()
		tracer.Submit(span)
	}
}

type statusError struct{ code int }

func (e *statusError) Error() string {
	return "http status " + strconv.Itoa(e.code)
}
