package admin

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"storefront_back_end/internal/audit"
	"storefront_back_end/internal/cache"
	"storefront_back_end/internal/catalog"
	"storefront_back_end/internal/handlers"
	"storefront_back_end/internal/models"
)

type categoryInput struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
}

func (h *Handler) bindCategory(c *gin.Context) (*models.Category, bool) {
	var input categoryInput
	if !handlers.BindJSON(c, &input) {
		return nil, false
	}
	category := &models.Category{
		Name:        strings.TrimSpace(input.Name),
		Slug:        catalog.Slugify(input.Slug),
		Description: strings.TrimSpace(input.Description),
		ImageURL:    strings.TrimSpace(input.ImageURL),
	}
	if category.Name == "" || category.Slug == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name and slug are required"})
		return nil, false
	}
	return category, true
}

// GET /api/admin/categories
func (h *Handler) ListCategories(c *gin.Context) {
	categories, err := h.Store.CategoriesWithCounts(c.Request.Context())
	if err != nil {
		handlers.Fail(c, err, "Categories")
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories, "total": len(categories)})
}

// GET /api/admin/categories/:id
func (h *Handler) GetCategory(c *gin.Context) {
	id, ok := handlers.ParamUUID(c, "id")
	if !ok {
		return
	}
	category, err := h.Store.CategoryByID(c.Request.Context(), id)
	if err != nil {
		handlers.Fail(c, err, "Category")
		return
	}
	c.JSON(http.StatusOK, gin.H{"category": category})
}

// POST /api/admin/categories
func (h *Handler) CreateCategory(c *gin.Context) {
	category, ok := h.bindCategory(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if err := h.Store.CreateCategory(ctx, category); err != nil {
		handlers.Fail(c, err, "Category")
		return
	}
	h.Cache.Invalidate(ctx, cache.CatalogKeys...)
	h.Audit.Record(c, audit.ACTION_CATEGORY_CREATE, audit.RESOURCE_CATEGORY, category.ID.String(), nil, category)
	c.JSON(http.StatusCreated, gin.H{"message": "Category created successfully", "category": category})
}

// PUT /api/admin/categories/:id
func (h *Handler) UpdateCategory(c *gin.Context) {
	id, ok := handlers.ParamUUID(c, "id")
	if !ok {
		return
	}
	category, ok := h.bindCategory(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	before, err := h.Store.CategoryByID(ctx, id)
	if err != nil {
		handlers.Fail(c, err, "Category")
		return
	}
	if err := h.Store.UpdateCategory(ctx, id, category); err != nil {
		handlers.Fail(c, err, "Category")
		return
	}
	category.CreatedAt = before.CreatedAt
	h.Cache.Invalidate(ctx, cache.CatalogKeys...)
	h.Audit.Record(c, audit.ACTION_CATEGORY_UPDATE, audit.RESOURCE_CATEGORY, id.String(), before, category)
	c.JSON(http.StatusOK, gin.H{"message": "Category updated successfully", "category": category})
}

// DELETE /api/admin/categories/:id
func (h *Handler) DeleteCategory(c *gin.Context) {
	id, ok := handlers.ParamUUID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if err := h.Store.DeleteCategory(ctx, id); err != nil {
		handlers.Fail(c, err, "Category")
		return
	}
	h.Cache.Invalidate(ctx, cache.CatalogKeys...)
	h.Audit.Record(c, audit.ACTION_CATEGORY_DELETE, audit.RESOURCE_CATEGORY, id.String(), nil, nil)
	c.JSON(http.StatusOK, gin.H{"message": "Category deleted successfully"})
}
