package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"cvio-backend/internal/shared/metrics"
	"cvio-backend/internal/shared/server/respond"
	"cvio-backend/internal/shared/telemetry"
)

// Recovery turns a handler panic into a 500 response. A response that has
// already started streaming, such as a document download, is aborted instead.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			metrics.IncPanics()
			cvID, _ := c.Get("cvId")
			telemetry.Error("request.panic", map[string]any{
				"request_id": RequestIDFromContext(c),
				"route":      c.FullPath(),
				"method":     c.Request.Method,
				"cv_id":      cvID,
				"panic":      fmt.Sprint(rec),
				"stack":      string(debug.Stack()),
			})
			if c.Writer.Written() {
				c.Abort()
				return
			}
			respond.Error(c, http.StatusInternalServerError, "internal", "unexpected server error", nil)
		}()
		c.Next()
	}
}
