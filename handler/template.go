package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/contractmind/backend/middleware"
	"github.com/contractmind/backend/model"
	"github.com/contractmind/backend/service"
)

type TemplateHandler struct {
	templates *service.TemplateService
}

func NewTemplateHandler(templates *service.TemplateService) *TemplateHandler {
	return &TemplateHandler{templates: templates}
}

// List returns templates, optionally filtered by category.
func (h *TemplateHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	templates, err := h.templates.List(c.Request.Context(), c.Query("category"), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list templates: " + err.Error()})
		return
	}
	if templates == nil {
		templates = []model.Template{}
	}

	c.JSON(http.StatusOK, gin.H{"templates": templates, "limit": limit, "offset": offset})
}

// Get returns one template by id.
func (h *TemplateHandler) Get(c *gin.Context) {
	template, err := h.templates.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Template not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load template: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, template)
}

type CreateTemplateRequest struct {
	Name        string   `json:"name" binding:"required"`
	Category    string   `json:"category"`
	Content     string   `json:"content" binding:"required"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Variables   []string `json:"variables"`
	IsPublic    bool     `json:"is_public"`
}

// Create stores a new template owned by the caller.
func (h *TemplateHandler) Create(c *gin.Context) {
	var req CreateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Name and content are required"})
		return
	}

	template := &model.Template{
		Name:        req.Name,
		Category:    req.Category,
		Content:     req.Content,
		Description: req.Description,
		Tags:        req.Tags,
		Variables:   req.Variables,
		IsPublic:    req.IsPublic,
		IsActive:    true,
		CreatedBy:   middleware.GetUserID(c),
	}

	saved, err := h.templates.Create(c.Request.Context(), template)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create template: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, saved)
}

// Delete removes a template.
func (h *TemplateHandler) Delete(c *gin.Context) {
	if err := h.templates.Delete(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Template not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete template: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": c.Param("id")})
}

type GenerateTemplateRequest struct {
	Category    string `json:"category" binding:"required"`
	Description string `json:"description" binding:"required"`
}

// Generate drafts template content with the model, memoized per
// category/description pair.
func (h *TemplateHandler) Generate(c *gin.Context) {
	var req GenerateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Category and description are required"})
		return
	}

	content, cached, err := h.templates.Generate(c.Request.Context(), req.Category, req.Description)
	if err != nil {
		writeAnalysisError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"category":    req.Category,
		"description": req.Description,
		"content":     content,
		"cached":      cached,
	})
}
