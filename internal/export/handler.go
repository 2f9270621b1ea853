package export

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"cvio-backend/internal/shared/server/middleware"
	"cvio-backend/internal/shared/server/respond"
	"cvio-backend/internal/shared/telemetry"
)

// Handler serves document downloads.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches the export route to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/cv/cvs/:id/export", h.export)
}

func (h *Handler) export(c *gin.Context) {
	id := c.Param("id")
	c.Set("cvId", id)

	artifact, err := h.Svc.Export(c.Request.Context(), Request{
		CVID:          id,
		Authenticated: middleware.AuthenticatedFromContext(c),
		UserID:        middleware.UserIDFromContext(c),
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "cv not found", nil)
		case errors.Is(err, ErrTemplateUnavailable):
			respond.Error(c, http.StatusInternalServerError, "template_unavailable", "document template is unavailable", nil)
		case errors.Is(err, ErrRenderFailed):
			respond.Error(c, http.StatusInternalServerError, "render_failed", "failed to render document", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal", "failed to export cv", nil)
		}
		return
	}
	defer func() {
		if err := artifact.Close(); err != nil {
			telemetry.Warn("export.cleanup_failed", map[string]any{"cv_id": id, "error": err})
		}
	}()

	respond.Attachment(c, artifact.FileName, artifact.ContentType, artifact.Size, artifact.Body)
}
