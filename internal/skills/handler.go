package skills

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"cvio-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc       *Service
	URIPrefix string
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, uriPrefix string) *Handler {
	return &Handler{Svc: svc, URIPrefix: strings.TrimRight(uriPrefix, "/")}
}

// RegisterRoutes attaches skill routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/skill/skills", h.list)
	rg.POST("/skill/skills", h.create)
	rg.GET("/skill/skills/:id", h.get)
	rg.GET("/skill/categories", h.categories)
}

func (h *Handler) list(c *gin.Context) {
	list, err := h.Svc.List(c.Request.Context())
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal", "failed to list skills", nil)
		return
	}
	respond.OK(c, list)
}

func (h *Handler) get(c *gin.Context) {
	skill, err := h.Svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "skill not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal", "failed to load skill", nil)
		return
	}
	respond.OK(c, skill)
}

func (h *Handler) create(c *gin.Context) {
	var req CreateSkillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	skill, err := h.Svc.Create(c.Request.Context(), req)
	if err != nil {
		var inputErr *InputError
		switch {
		case errors.As(err, &inputErr):
			respond.Error(c, http.StatusBadRequest, "validation_error", "invalid skill", inputErr.Fields)
		case errors.Is(err, ErrConflict):
			respond.Error(c, http.StatusConflict, "conflict", "skill already exists", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal", "failed to create skill", nil)
		}
		return
	}
	respond.Created(c, h.URIPrefix+"/skill/skills/"+skill.ID, skill)
}

func (h *Handler) categories(c *gin.Context) {
	out, err := h.Svc.Categories(c.Request.Context())
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal", "failed to list categories", nil)
		return
	}
	respond.OK(c, out)
}
