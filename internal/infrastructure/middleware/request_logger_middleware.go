package middleware

import (
	"time"

	"drawboard/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const RequestIDHeader = "X-Request-ID"

// RequestLogger tags each request with an id (taken from X-Request-ID when
// the caller sent one) and logs it on completion.
func RequestLogger(cl *logger.ContextLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(RequestIDHeader, id)

		ctx := logger.WithRequestID(c.Request.Context(), id)
		c.Request = c.Request.WithContext(ctx)

		start := time.Now()
		c.Next()

		ctx = c.Request.Context()
		if userID, ok := UserID(c); ok {
			ctx = logger.WithUserID(ctx, string(userID))
		}
		cl.LogRequest(ctx, c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start).Milliseconds())
	}
}
