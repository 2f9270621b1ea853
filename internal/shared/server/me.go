package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cvio-backend/internal/shared/server/middleware"
	"cvio-backend/internal/shared/server/respond"
)

type meResponse struct {
	UserID        string `json:"userId"`
	Name          string `json:"name,omitempty"`
	Authenticated bool   `json:"authenticated"`
	ExpiresAt     int64  `json:"expiresAt,omitempty"`
}

// registerMeRoutes attaches the /me endpoint describing the caller's token.
func registerMeRoutes(rg *gin.RouterGroup) {
	rg.GET("/me", meHandler)
}

func meHandler(c *gin.Context) {
	claims, ok := middleware.ClaimsFromContext(c)
	if !ok || !middleware.AuthenticatedFromContext(c) {
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
		return
	}

	resp := meResponse{UserID: claims.Subject, Name: claims.Name, Authenticated: true}
	if claims.ExpiresAt != nil {
		resp.ExpiresAt = claims.ExpiresAt.Unix()
	}
	respond.OK(c, resp)
}
