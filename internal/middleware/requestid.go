// Package middleware holds the gin middleware shared by every route.
package middleware

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/simp-lee/logger"
)

const (
	requestIDHeader     = "X-Request-ID"
	requestIDContextKey = "request_id"
)

// RequestIDConfig controls request-id reuse behavior.
type RequestIDConfig struct {
	// TrustUpstream reuses an incoming X-Request-ID when it is a UUID,
	// e.g. one assigned by a reverse proxy.
	TrustUpstream bool
}

// RequestID assigns a fresh UUID to every request.
func RequestID() gin.HandlerFunc {
	return RequestIDWithConfig(RequestIDConfig{})
}

// RequestIDWithConfig assigns a request ID, echoes it in the X-Request-ID
// response header and adds it to the request context so every log line
// written with a *Context method carries it.
func RequestIDWithConfig(cfg RequestIDConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := ""
		if cfg.TrustUpstream {
			id = upstreamRequestID(c.GetHeader(requestIDHeader))
		}
		if id == "" {
			id = uuid.NewString()
		}

		c.Set(requestIDContextKey, id)
		c.Header(requestIDHeader, id)

		ctx := logger.WithContextAttrs(c.Request.Context(), slog.String("request_id", id))
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// upstreamRequestID returns the canonical form of a UUID header value, or ""
// when the value is not a UUID.
func upstreamRequestID(v string) string {
	if len(v) != 36 {
		return ""
	}
	id, err := uuid.Parse(v)
	if err != nil {
		return ""
	}
	return id.String()
}

// GetRequestID returns the request ID, or "" outside the middleware.
func GetRequestID(c *gin.Context) string {
	if id, ok := c.Get(requestIDContextKey); ok {
		if s, ok := id.(string); ok {
			return s
		}
	}
	return ""
}
