package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cvio-backend/internal/services/health"
	"cvio-backend/internal/shared/config"
	"cvio-backend/internal/shared/metrics"
	"cvio-backend/internal/shared/server/middleware"
	"cvio-backend/internal/shared/server/respond"
	"cvio-backend/internal/shared/tracing"
)

// RouteRegistrar is implemented by feature handlers.
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// RouterDeps carries the wired handlers and cross-cutting collaborators.
type RouterDeps struct {
	Verifier    middleware.TokenVerifier
	Health      *health.Service
	Handlers    []RouteRegistrar
	RateLimiter *middleware.RateLimiter
	ExportRate  middleware.RateLimitRule
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(cfg config.Config, deps RouterDeps) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	handlers := []gin.HandlerFunc{
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
	}
	if cfg.OTelEnabled {
		handlers = append(handlers, tracing.Middleware("cvio-backend"))
	}
	r.Use(handlers...)
	r.Use(middleware.CORS(cfg.CORSAllowOrigin))

	healthSvc := deps.Health
	if healthSvc == nil {
		healthSvc = health.NewService()
	}
	r.GET("/health", func(c *gin.Context) {
		payload, ok := healthSvc.Status(c.Request.Context())
		status := http.StatusOK
		if !ok {
			status = http.StatusServiceUnavailable
		}
		respond.JSON(c, status, payload)
	})
	r.GET("/metrics", metrics.Handler())

	api := r.Group("")
	api.Use(middleware.Auth(deps.Verifier, cfg.AuthRequired))
	api.Use(middleware.RateLimit(middleware.RateLimitConfig{
		Limiter:  deps.RateLimiter,
		GroupFor: rateLimitGroup,
		Rules: map[string]middleware.RateLimitRule{
			middleware.ExportRateLimitGroup: deps.ExportRate,
		},
	}))
	registerMeRoutes(api)
	for _, h := range deps.Handlers {
		if h != nil {
			h.RegisterRoutes(api)
		}
	}

	return r
}

func rateLimitGroup(c *gin.Context) string {
	if c.FullPath() == "/cv/cvs/:id/export" {
		return middleware.ExportRateLimitGroup
	}
	return ""
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
