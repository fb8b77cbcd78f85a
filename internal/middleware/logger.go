package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"
)

const HeaderRequestID = "X-Request-ID"

// RequestLogger attaches a request-scoped zerolog logger to the request
// context and writes one access line per request.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(HeaderRequestID, requestID)

		logCtx := zlog.With().Str("request_id", requestID)
		if sc := trace.SpanContextFromContext(c.Request.Context()); sc.HasTraceID() {
			logCtx = logCtx.Str("trace_id", sc.TraceID().String())
		}
		logger := logCtx.Logger()
		c.Request = c.Request.WithContext(logger.WithContext(c.Request.Context()))

		c.Next()

		status := c.Writer.Status()
		event := logger.Info()
		if status >= 500 {
			event = logger.Error()
		} else if status >= 400 {
			event = logger.Warn()
		}
		event.
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}
