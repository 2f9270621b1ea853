package cvs

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"cvio-backend/internal/shared/server/respond"
)

const maxDocumentSize = 1 << 20 // 1MB

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc       *Service
	URIPrefix string
}

// NewHandler constructs a Handler. uriPrefix is prepended to resource refs.
func NewHandler(svc *Service, uriPrefix string) *Handler {
	return &Handler{Svc: svc, URIPrefix: strings.TrimRight(uriPrefix, "/")}
}

// RegisterRoutes attaches CV routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/cv/cvs", h.list)
	rg.POST("/cv/cvs", h.create)
	rg.GET("/cv/cvs/:id", h.get)
	rg.PUT("/cv/cvs/:id", h.update)
	rg.DELETE("/cv/cvs/:id", h.delete)
	rg.GET("/cv/suggestions/:searchTerm", h.suggestions)
}

func (h *Handler) ref(id string) string {
	return h.URIPrefix + "/cv/cvs/" + id
}

func (h *Handler) list(c *gin.Context) {
	fields := c.QueryArray("fields")
	searchTerm := c.Query("searchTerm")
	if searchTerm == "" {
		// Older clients send the misspelled parameter.
		searchTerm = c.Query("seachTerm")
	}

	items, err := h.Svc.List(c.Request.Context(), fields, searchTerm)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal", "failed to list cvs", nil)
		return
	}
	for _, item := range items {
		if id, ok := item["id"].(string); ok {
			item["ref"] = h.ref(id)
		}
	}
	respond.OK(c, items)
}

func (h *Handler) suggestions(c *gin.Context) {
	out, err := h.Svc.Suggestions(c.Request.Context(), c.Param("searchTerm"))
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal", "failed to load suggestions", nil)
		return
	}
	respond.OK(c, out)
}

func (h *Handler) get(c *gin.Context) {
	id := c.Param("id")
	c.Set("cvId", id)

	doc, err := h.Svc.Get(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err, "failed to load cv")
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", doc)
}

func (h *Handler) create(c *gin.Context) {
	body, ok := readBody(c)
	if !ok {
		return
	}
	id, err := h.Svc.Create(c.Request.Context(), body)
	if err != nil {
		h.writeError(c, err, "failed to create cv")
		return
	}
	c.Set("cvId", id)
	respond.Created(c, h.ref(id), createResponse{ID: id, Ref: h.ref(id)})
}

func (h *Handler) update(c *gin.Context) {
	id := c.Param("id")
	c.Set("cvId", id)

	body, ok := readBody(c)
	if !ok {
		return
	}
	if err := h.Svc.Update(c.Request.Context(), id, body); err != nil {
		h.writeError(c, err, "failed to update cv")
		return
	}
	respond.OK(c, createResponse{ID: id, Ref: h.ref(id)})
}

func (h *Handler) delete(c *gin.Context) {
	id := c.Param("id")
	c.Set("cvId", id)

	if err := h.Svc.Delete(c.Request.Context(), id); err != nil {
		h.writeError(c, err, "failed to delete cv")
		return
	}
	respond.NoContent(c)
}

func (h *Handler) writeError(c *gin.Context, err error, fallback string) {
	var inputErr *InputError
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "cv not found", nil)
	case errors.As(err, &inputErr):
		respond.Error(c, http.StatusBadRequest, "validation_error", "cv document does not match the schema", toFieldErrors(inputErr))
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal", fallback, nil)
	}
}

func readBody(c *gin.Context) ([]byte, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxDocumentSize)
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respond.Error(c, http.StatusRequestEntityTooLarge, "too_large", "cv document is too large", nil)
			return nil, false
		}
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read body", nil)
		return nil, false
	}
	return body, true
}
