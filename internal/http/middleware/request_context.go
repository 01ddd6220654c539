package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/fundlens/fundlens-backend/internal/platform/ctxutil"
)

const headerRequestID = "X-Request-ID"

// AttachRequestContext assigns every request an id, honoring one the
// caller supplied, and echoes it back in the response.
func AttachRequestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(headerRequestID))
		if id == "" {
			id = uuid.NewString()
		}
		ctx := ctxutil.WithRequestID(c.Request.Context(), id)
		c.Request = c.Request.WithContext(ctx)
		c.Writer.Header().Set(headerRequestID, id)
		c.Next()
	}
}
