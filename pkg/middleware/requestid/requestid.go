package requestid

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// Header carries the request ID in and out of the service.
	Header = "X-Request-ID"

	contextKey = "request_id"
)

// Middleware tags every request with an ID. An inbound X-Request-ID is
// trusted so IDs stay stable across the gateway hop; otherwise a fresh UUID
// is minted. The ID is echoed back on the response.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(Header)
		if id == "" {
			id = uuid.NewString()
		}

		c.Set(contextKey, id)
		c.Writer.Header().Set(Header, id)

		c.Next()
	}
}

// Value returns the request ID for the current request, or "" when the
// middleware did not run.
func Value(c *gin.Context) string {
	if v, ok := c.Get(contextKey); ok {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}
