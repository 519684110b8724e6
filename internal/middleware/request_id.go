package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDHeader carries the request id on both sides of the exchange:
// honored when the client sends one, echoed back either way.
const RequestIDHeader = "X-Request-ID"

// ContextRequestIDKey is where the id lives in the gin context.
const ContextRequestIDKey = "request_id"

// RequestID tags every request with an id so a response can be matched
// to its log lines. Proxies that already assign one keep theirs.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(ContextRequestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}
