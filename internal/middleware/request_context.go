package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/knitworks/floortrack-backend/internal/pkg/ctxutil"
	"github.com/knitworks/floortrack-backend/internal/pkg/logger"
)

// RequestContext assigns a request ID, captures the active trace ID and logs
// one line per request.
func RequestContext(log *logger.Logger) gin.HandlerFunc {
	requestLog := log.With("Middleware", "RequestContext")

	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		td := &ctxutil.TraceData{RequestID: requestID}
		if span := trace.SpanFromContext(c.Request.Context()); span.SpanContext().HasTraceID() {
			td.TraceID = span.SpanContext().TraceID().String()
		}

		c.Request = c.Request.WithContext(ctxutil.WithTraceData(c.Request.Context(), td))
		c.Header("X-Request-ID", requestID)

		c.Next()

		requestLog.Info("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"durationMs", time.Since(start).Milliseconds(),
			"requestID", requestID,
			"traceID", td.TraceID,
		)
	}
}
