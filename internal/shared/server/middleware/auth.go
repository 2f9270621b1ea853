package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"cvio-backend/internal/shared/auth"
	"cvio-backend/internal/shared/server/respond"
)

const (
	userIDKey        = "userId"
	claimsKey        = "claims"
	authenticatedKey = "authenticated"
)

// TokenVerifier validates bearer tokens.
type TokenVerifier interface {
	Verify(token string) (auth.Claims, error)
}

// Auth marks requests carrying a valid bearer token as authenticated. When
// required is false anonymous and invalid tokens pass through unauthenticated;
// when required is true they are rejected with 401.
func Auth(verifier TokenVerifier, required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		c.Set(authenticatedKey, false)
		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		if authHeader == "" {
			if required {
				respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
				return
			}
			c.Next()
			return
		}

		token := ""
		if strings.HasPrefix(authHeader, "Bearer ") {
			token = strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		}
		if token == "" || verifier == nil {
			if required {
				respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
				return
			}
			c.Next()
			return
		}

		claims, err := verifier.Verify(token)
		if err != nil {
			if required {
				respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
				return
			}
			c.Next()
			return
		}

		c.Set(userIDKey, claims.Subject)
		c.Set(claimsKey, claims)
		c.Set(authenticatedKey, true)
		if span := trace.SpanFromContext(c.Request.Context()); span.IsRecording() {
			span.SetAttributes(attribute.String("enduser.id", claims.Subject))
		}
		c.Next()
	}
}

// UserIDFromContext fetches the user ID set by the auth middleware.
func UserIDFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(userIDKey)
	if id, ok := val.(string); ok {
		return id
	}
	return ""
}

// AuthenticatedFromContext reports whether the request carried a valid token.
func AuthenticatedFromContext(c *gin.Context) bool {
	if c == nil {
		return false
	}
	return c.GetBool(authenticatedKey)
}

// ClaimsFromContext returns the verified token claims, if any.
func ClaimsFromContext(c *gin.Context) (auth.Claims, bool) {
	if c == nil {
		return auth.Claims{}, false
	}
	val, ok := c.Get(claimsKey)
	if !ok {
		return auth.Claims{}, false
	}
	claims, ok := val.(auth.Claims)
	return claims, ok
}
