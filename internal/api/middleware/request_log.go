package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/segmentio/ksuid"

	"parking_tickets/internal/api/response"
)

const (
	RequestIDHeader = "X-Request-ID"
	RequestIDKey    = "requestID"
)

// RequestLogger tags each request with an id, taken from X-Request-ID when
// the caller sent one, and logs it once the handler chain returns.
func RequestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = ksuid.New().String()
		}
		c.Set(RequestIDKey, requestID)
		c.Writer.Header().Set(RequestIDHeader, requestID)

		c.Next()

		attrs := []any{
			"request_id", requestID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "errors", c.Errors.String())
		}
		if c.Writer.Status() >= 500 {
			logger.ErrorContext(c.Request.Context(), "request completed", attrs...)
			return
		}
		logger.InfoContext(c.Request.Context(), "request completed", attrs...)
	}
}

// CORS sets the shared response headers and answers preflight requests.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		for k, v := range response.Headers() {
			c.Writer.Header().Set(k, v)
		}
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
