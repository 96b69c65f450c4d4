package console

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/slok/gia/internal/log"
)

const requestIDHeader = "X-Request-ID"

// requestID propagates the request ID header or generates a new one.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(requestIDHeader, id)

		ctx := log.CtxWithValues(c.Request.Context(), log.Kv{"request-id": id})
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

func accessLog(logger log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.WithCtxValues(c.Request.Context()).WithValues(log.Kv{
			"method":   c.Request.Method,
			"path":     c.FullPath(),
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		}).Debugf("Request handled")
	}
}
