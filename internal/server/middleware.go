// internal/server/middleware.go
package server

import (
	"strconv"
	"strings"
	"time"

	"byteplus-functions/internal/common/logger"
	"byteplus-functions/internal/common/metrics"
	"byteplus-functions/internal/identity"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	requestIDHeader = "X-Request-Id"
	uidContextKey   = "uid"
)

// RequestID assigns a request id to every request, honoring one supplied
// by the caller.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("requestId", requestID)
		c.Header(requestIDHeader, requestID)
		c.Next()
	}
}

// RequestLogger emits one structured log line per request.
func RequestLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.Info("request completed", map[string]interface{}{
			"method":    c.Request.Method,
			"path":      c.FullPath(),
			"status":    c.Writer.Status(),
			"duration":  time.Since(start).String(),
			"requestId": c.GetString("requestId"),
		})
	}
}

// RequestMetrics counts requests by route and status code.
func RequestMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.CallableRequests.WithLabelValues(path, strconv.Itoa(c.Writer.Status())).Inc()
	}
}

// Authenticate verifies a Bearer ID token when one is supplied and
// attaches the caller's uid to the request. A request without a token
// proceeds with no identity; the handlers treat the absent claim as
// their unauthenticated signal.
func Authenticate(provider identity.Provider, log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}

		token := strings.TrimPrefix(header, "Bearer ")
		if token == header || token == "" {
			c.Next()
			return
		}

		verified, err := provider.VerifyIDToken(c.Request.Context(), token)
		if err != nil {
			log.Warn("id token verification failed", map[string]interface{}{
				"requestId": c.GetString("requestId"),
				"error":     err.Error(),
			})
			c.Next()
			return
		}

		c.Set(uidContextKey, verified.UID)
		c.Next()
	}
}
