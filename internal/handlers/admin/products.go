package admin

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"storefront_back_end/internal/audit"
	"storefront_back_end/internal/cache"
	"storefront_back_end/internal/catalog"
	"storefront_back_end/internal/handlers"
	"storefront_back_end/internal/logging"
	"storefront_back_end/internal/models"
)

// stringList accepts either a JSON array or a comma separated string.
type stringList []string

func (l *stringList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		out := make([]string, 0, len(list))
		for _, v := range list {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
		*l = out
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.New("expected an array or a comma separated string")
	}
	*l = catalog.SplitList(raw)
	return nil
}

type productInput struct {
	Name             string           `json:"name"`
	Slug             string           `json:"slug"`
	Description      string           `json:"description"`
	Price            decimal.Decimal  `json:"price"`
	OriginalPrice    *decimal.Decimal `json:"original_price"`
	CategoryID       *uuid.UUID       `json:"category_id"`
	ImageURL         string           `json:"image_url"`
	AdditionalImages stringList       `json:"additional_images"`
	Sizes            stringList       `json:"sizes"`
	Colors           stringList       `json:"colors"`
	StockQuantity    int              `json:"stock_quantity"`
	IsFeatured       bool             `json:"is_featured"`
	IsNewArrival     bool             `json:"is_new_arrival"`
}

// product validates the input and builds the row. Slug falls back to the name.
func (in productInput) product() (*models.Product, string) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, "name is required"
	}
	slug := catalog.Slugify(in.Slug)
	if slug == "" {
		slug = catalog.Slugify(name)
	}
	if slug == "" {
		return nil, "slug could not be derived from the name"
	}
	if !in.Price.IsPositive() {
		return nil, "price must be greater than 0"
	}
	if in.OriginalPrice != nil && in.OriginalPrice.IsNegative() {
		return nil, "original_price cannot be negative"
	}
	if in.StockQuantity < 0 {
		return nil, "stock_quantity cannot be negative"
	}
	return &models.Product{
		Name:             name,
		Slug:             slug,
		Description:      strings.TrimSpace(in.Description),
		Price:            in.Price,
		OriginalPrice:    in.OriginalPrice,
		CategoryID:       in.CategoryID,
		ImageURL:         strings.TrimSpace(in.ImageURL),
		AdditionalImages: pq.StringArray(nonNil(in.AdditionalImages)),
		Sizes:            pq.StringArray(nonNil(in.Sizes)),
		Colors:           pq.StringArray(nonNil(in.Colors)),
		StockQuantity:    in.StockQuantity,
		IsFeatured:       in.IsFeatured,
		IsNewArrival:     in.IsNewArrival,
	}, ""
}

func nonNil(l stringList) []string {
	if l == nil {
		return []string{}
	}
	return l
}

func (h *Handler) bindProduct(c *gin.Context) (*models.Product, bool) {
	var input productInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return nil, false
	}
	p, problem := input.product()
	if problem != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": problem})
		return nil, false
	}
	return p, true
}

// GET /api/admin/products
func (h *Handler) ListProducts(c *gin.Context) {
	products, err := h.Store.AdminProducts(c.Request.Context())
	if err != nil {
		handlers.Fail(c, err, "Products")
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products, "total": len(products)})
}

// GET /api/admin/products/:id
func (h *Handler) GetProduct(c *gin.Context) {
	id, ok := handlers.ParamUUID(c, "id")
	if !ok {
		return
	}
	p, err := h.Store.ProductByID(c.Request.Context(), id)
	if err != nil {
		handlers.Fail(c, err, "Product")
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": p})
}

// POST /api/admin/products
func (h *Handler) CreateProduct(c *gin.Context) {
	p, ok := h.bindProduct(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if err := h.Store.CreateProduct(ctx, p); err != nil {
		h.Audit.RecordFailure(c, audit.ACTION_PRODUCT_CREATE, audit.RESOURCE_PRODUCT, "", err.Error())
		handlers.Fail(c, err, "Product")
		return
	}

	h.Search.IndexAsync(*p)
	h.Cache.Invalidate(ctx, cache.CatalogKeys...)
	h.Audit.Record(c, audit.ACTION_PRODUCT_CREATE, audit.RESOURCE_PRODUCT, p.ID.String(), nil, p)
	logging.L().Info("✅ Product created", zap.String("product_id", p.ID.String()), zap.String("slug", p.Slug))

	c.JSON(http.StatusCreated, gin.H{"message": "Product created successfully", "product": p})
}

// PUT /api/admin/products/:id
func (h *Handler) UpdateProduct(c *gin.Context) {
	id, ok := handlers.ParamUUID(c, "id")
	if !ok {
		return
	}
	p, ok := h.bindProduct(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	before, err := h.Store.UpdateProduct(ctx, id, p)
	if err != nil {
		h.Audit.RecordFailure(c, audit.ACTION_PRODUCT_UPDATE, audit.RESOURCE_PRODUCT, id.String(), err.Error())
		handlers.Fail(c, err, "Product")
		return
	}
	p.CreatedAt = before.CreatedAt

	h.Search.IndexAsync(*p)
	h.Cache.Invalidate(ctx, cache.CatalogKeys...)
	h.Audit.Record(c, audit.ACTION_PRODUCT_UPDATE, audit.RESOURCE_PRODUCT, id.String(), before, p)
	if !before.Price.Equal(p.Price) {
		h.Audit.Record(c, audit.ACTION_PRODUCT_PRICE_CHANGE, audit.RESOURCE_PRODUCT, id.String(),
			gin.H{"price": before.Price}, gin.H{"price": p.Price})
		logging.L().Info("💰 Price changed",
			zap.String("product_id", id.String()),
			zap.String("old", before.Price.String()),
			zap.String("new", p.Price.String()))
	}

	c.JSON(http.StatusOK, gin.H{"message": "Product updated successfully", "product": p})
}

// DELETE /api/admin/products/:id
func (h *Handler) DeleteProduct(c *gin.Context) {
	id, ok := handlers.ParamUUID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if err := h.Store.DeleteProduct(ctx, id); err != nil {
		handlers.Fail(c, err, "Product")
		return
	}

	h.Search.DeleteAsync(id)
	h.Cache.Invalidate(ctx, cache.CatalogKeys...)
	h.Audit.Record(c, audit.ACTION_PRODUCT_DELETE, audit.RESOURCE_PRODUCT, id.String(), nil, nil)
	c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
}
