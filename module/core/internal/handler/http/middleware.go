package http

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nandanugg/fleet-routing/internal/logging"
)

const requestIDHeader = "X-Request-ID"

// RequestLogger tags each request with an id, taken from X-Request-ID when
// the caller sent one, and logs it once the handler returns.
func RequestLogger(log logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if id := c.GetHeader(requestIDHeader); id != "" {
			ctx = logging.ContextWithRequestID(ctx, id)
		}
		ctx, id := logging.EnsureRequestID(ctx)
		c.Request = c.Request.WithContext(ctx)
		c.Header(requestIDHeader, id)

		start := time.Now()
		c.Next()

		log.Info(ctx, "http request",
			logging.String("method", c.Request.Method),
			logging.String("path", c.Request.URL.Path),
			logging.Int("status", c.Writer.Status()),
			logging.Any("latency", time.Since(start).String()),
		)
	}
}
