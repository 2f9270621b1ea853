package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"cvio-backend/internal/shared/metrics"
	"cvio-backend/internal/shared/telemetry"
)

// quietRoutes are probed frequently and only logged at debug level.
var quietRoutes = map[string]bool{
	"/health":  true,
	"/metrics": true,
}

// Logging emits one structured log line and one metric sample per request.
// Server errors log at error level, client errors at warn.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)

		route := c.FullPath()
		status := c.Writer.Status()
		metrics.ObserveRequest(route, c.Request.Method, status, latency)

		cvID, _ := c.Get("cvId")
		fields := map[string]any{
			"request_id":    RequestIDFromContext(c),
			"method":        c.Request.Method,
			"path":          c.Request.URL.Path,
			"route":         route,
			"status":        status,
			"duration_ms":   float64(latency.Microseconds()) / 1000.0,
			"bytes":         c.Writer.Size(),
			"user_id":       UserIDFromContext(c),
			"authenticated": AuthenticatedFromContext(c),
			"cv_id":         cvID,
			"client_ip":     c.ClientIP(),
		}
		switch {
		case status >= http.StatusInternalServerError:
			telemetry.Error("request.complete", fields)
		case status >= http.StatusBadRequest:
			telemetry.Warn("request.complete", fields)
		case quietRoutes[route]:
			telemetry.Debug("request.complete", fields)
		default:
			telemetry.Info("request.complete", fields)
		}
	}
}
