package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mkowalczyk/shop-exporter/internal/api/dto"
	"github.com/mkowalczyk/shop-exporter/internal/export/domain"
)

// TemplateHandler handles custom export template HTTP requests
type TemplateHandler struct {
	deps *Dependencies
}

func NewTemplateHandler(deps *Dependencies) *TemplateHandler {
	return &TemplateHandler{deps: deps}
}

// CreateTemplate handles POST /api/v1/templates
func (h *TemplateHandler) CreateTemplate(c *gin.Context) {
	t, ok := h.bindTemplate(c)
	if !ok {
		return
	}

	id, err := h.deps.Templates.Create(c.Request.Context(), t)
	if err != nil {
		h.deps.Logger.Error("Failed to create template", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create template"})
		return
	}

	created, err := h.deps.Templates.Get(c.Request.Context(), id)
	if err != nil {
		h.deps.Logger.Error("Failed to load created template",
			slog.Int64("template_id", id),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load created template"})
		return
	}

	c.JSON(http.StatusCreated, dto.TemplateFromDomain(created))
}

// ListTemplates handles GET /api/v1/templates
func (h *TemplateHandler) ListTemplates(c *gin.Context) {
	templates, err := h.deps.Templates.List(c.Request.Context())
	if err != nil {
		h.deps.Logger.Error("Failed to list templates", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list templates"})
		return
	}

	out := make([]dto.TemplateDTO, 0, len(templates))
	for i := range templates {
		out = append(out, dto.TemplateFromDomain(&templates[i]))
	}
	c.JSON(http.StatusOK, gin.H{"templates": out})
}

// GetTemplate handles GET /api/v1/templates/:template_id
func (h *TemplateHandler) GetTemplate(c *gin.Context) {
	t, ok := h.pathTemplate(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, dto.TemplateFromDomain(t))
}

// UpdateTemplate handles PUT /api/v1/templates/:template_id
func (h *TemplateHandler) UpdateTemplate(c *gin.Context) {
	existing, ok := h.pathTemplate(c)
	if !ok {
		return
	}

	t, ok := h.bindTemplate(c)
	if !ok {
		return
	}

	if err := h.deps.Templates.Update(c.Request.Context(), existing.ID, t); err != nil {
		h.deps.Logger.Error("Failed to update template",
			slog.Int64("template_id", existing.ID),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update template"})
		return
	}

	updated, err := h.deps.Templates.Get(c.Request.Context(), existing.ID)
	if err != nil {
		h.deps.Logger.Error("Failed to load updated template",
			slog.Int64("template_id", existing.ID),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load updated template"})
		return
	}

	c.JSON(http.StatusOK, dto.TemplateFromDomain(updated))
}

// DeleteTemplate handles DELETE /api/v1/templates/:template_id
func (h *TemplateHandler) DeleteTemplate(c *gin.Context) {
	t, ok := h.pathTemplate(c)
	if !ok {
		return
	}

	if err := h.deps.Templates.Delete(c.Request.Context(), t.ID); err != nil {
		h.deps.Logger.Error("Failed to delete template",
			slog.Int64("template_id", t.ID),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete template"})
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *TemplateHandler) bindTemplate(c *gin.Context) (*domain.Template, bool) {
	var req dto.TemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return nil, false
	}

	t := &domain.Template{
		Name:           req.Name,
		Description:    req.Description,
		SelectedFields: req.SelectedFields,
		FieldAliases:   req.FieldAliases,
		FieldOrder:     req.FieldOrder,
	}
	if err := t.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}
	return t, true
}

func (h *TemplateHandler) pathTemplate(c *gin.Context) (*domain.Template, bool) {
	id, err := strconv.ParseInt(c.Param("template_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "template_id must be an integer"})
		return nil, false
	}

	t, err := h.deps.Templates.Get(c.Request.Context(), id)
	if errors.Is(err, domain.ErrTemplateNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Template not found"})
		return nil, false
	}
	if err != nil {
		h.deps.Logger.Error("Failed to get template",
			slog.Int64("template_id", id),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get template"})
		return nil, false
	}
	return t, true
}
