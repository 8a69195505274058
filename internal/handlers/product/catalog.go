package product

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"storefront_back_end/internal/cache"
	"storefront_back_end/internal/catalog"
	"storefront_back_end/internal/handlers"
	"storefront_back_end/internal/logging"
	"storefront_back_end/internal/models"
	"storefront_back_end/internal/services"
	"storefront_back_end/internal/store"
)

const (
	homeSectionSize = 4
	relatedLimit    = 4
	searchLimit     = 50
)

// Catalog is the read side of the product store.
type Catalog interface {
	ListProducts(ctx context.Context, q store.ProductQuery) ([]models.Product, error)
	ProductFacets(ctx context.Context) (sizes, colors []string, err error)
	ProductBySlug(ctx context.Context, slug string) (*models.Product, error)
	RelatedProducts(ctx context.Context, categoryID, excludeID uuid.UUID, limit int) ([]models.Product, error)
	SearchProducts(ctx context.Context, term string, limit int) ([]models.Product, error)
	ProductsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
	Categories(ctx context.Context) ([]models.Category, error)
	CategoriesWithCounts(ctx context.Context) ([]models.CategoryWithCount, error)
	CategoryBySlug(ctx context.Context, slug string) (*models.Category, error)
}

type Searcher interface {
	Search(ctx context.Context, term string, limit int) ([]uuid.UUID, error)
}

type Handler struct {
	store  Catalog
	search Searcher
	cache  *cache.Cache
}

func NewHandler(s Catalog, search Searcher, c *cache.Cache) *Handler {
	return &Handler{store: s, search: search, cache: c}
}

type HomePage struct {
	Featured    []models.Product  `json:"featured"`
	Categories  []models.Category `json:"categories"`
	NewArrivals []models.Product  `json:"new_arrivals"`
}

// GET /api/home
func (h *Handler) Home(c *gin.Context) {
	page, err := cache.Remember(c.Request.Context(), h.cache, cache.KeyHome, cache.CatalogTTL, h.loadHome)
	if err != nil {
		handlers.Fail(c, err, "home page")
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *Handler) loadHome(ctx context.Context) (HomePage, error) {
	var page HomePage
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		page.Featured, err = h.store.ListProducts(ctx, store.ProductQuery{FeaturedOnly: true, Limit: homeSectionSize})
		return err
	})
	g.Go(func() (err error) {
		page.Categories, err = h.store.Categories(ctx)
		return err
	})
	g.Go(func() (err error) {
		page.NewArrivals, err = h.store.ListProducts(ctx, store.ProductQuery{NewArrivalsOnly: true, Limit: homeSectionSize})
		return err
	})
	return page, g.Wait()
}

type ShopPage struct {
	Title          string           `json:"title"`
	Description    string           `json:"description"`
	Category       *models.Category `json:"category,omitempty"`
	Products       []models.Product `json:"products"`
	Count          int              `json:"count"`
	AvailableSizes []string         `json:"available_sizes"`
	AvailableColor []string         `json:"available_colors"`
	Sort           catalog.Sort     `json:"sort"`
}

// GET /api/shop/:category
func (h *Handler) Shop(c *gin.Context) {
	ctx := c.Request.Context()
	slug := c.Param("category")
	q := store.ProductQuery{Filter: catalog.ParseFilter(c.Request.URL.Query())}
	page := ShopPage{Sort: q.Filter.Sort}

	switch slug {
	case catalog.ListingAll:
		page.Title, page.Description = "All Products", "Browse our complete collection"
	case catalog.ListingNewArrivals:
		page.Title, page.Description = "New Arrivals", "Discover our latest additions"
		q.NewArrivalsOnly = true
	default:
		category, err := h.store.CategoryBySlug(ctx, slug)
		if err != nil {
			handlers.Fail(c, err, "Category")
			return
		}
		page.Category = category
		page.Title, page.Description = category.Name, category.Description
		q.CategoryID = &category.ID
	}

	products, err := h.store.ListProducts(ctx, q)
	if err != nil {
		handlers.Fail(c, err, "Products")
		return
	}
	sizes, colors, err := h.store.ProductFacets(ctx)
	if err != nil {
		handlers.Fail(c, err, "Products")
		return
	}

	page.Products = products
	page.Count = len(products)
	page.AvailableSizes = sizes
	page.AvailableColor = colors
	c.JSON(http.StatusOK, page)
}

type ProductPage struct {
	Product         *models.Product  `json:"product"`
	Gallery         []string         `json:"gallery"`
	DiscountPercent int              `json:"discount_percent"`
	InStock         bool             `json:"in_stock"`
	DefaultSize     string           `json:"default_size"`
	DefaultColor    string           `json:"default_color"`
	Related         []models.Product `json:"related"`
}

// GET /api/products/:slug
func (h *Handler) Product(c *gin.Context) {
	ctx := c.Request.Context()
	p, err := h.store.ProductBySlug(ctx, c.Param("slug"))
	if err != nil {
		handlers.Fail(c, err, "Product")
		return
	}
	p.DescriptionHTML = services.RenderMarkdown(p.Description)

	related := []models.Product{}
	if p.CategoryID != nil {
		related, err = h.store.RelatedProducts(ctx, *p.CategoryID, p.ID, relatedLimit)
		if err != nil {
			handlers.Fail(c, err, "Product")
			return
		}
	}

	c.JSON(http.StatusOK, ProductPage{
		Product:         p,
		Gallery:         p.Gallery(),
		DiscountPercent: catalog.DiscountPercent(p.Price, p.OriginalPrice),
		InStock:         p.InStock(),
		DefaultSize:     p.DefaultSize(),
		DefaultColor:    p.DefaultColor(),
		Related:         related,
	})
}

// GET /api/categories
func (h *Handler) Categories(c *gin.Context) {
	categories, err := cache.Remember(c.Request.Context(), h.cache, cache.KeyCategories, cache.CatalogTTL, h.store.CategoriesWithCounts)
	if err != nil {
		handlers.Fail(c, err, "Categories")
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// GET /api/search?q=
func (h *Handler) Search(c *gin.Context) {
	term := strings.TrimSpace(c.Query("q"))
	if term == "" {
		c.JSON(http.StatusOK, gin.H{"query": "", "products": []models.Product{}, "count": 0})
		return
	}

	products, source, err := h.find(c.Request.Context(), term)
	if err != nil {
		handlers.Fail(c, err, "Products")
		return
	}
	c.JSON(http.StatusOK, gin.H{"query": term, "products": products, "count": len(products), "source": source})
}

// find asks the search index first and falls back to Postgres when it is down or finds nothing.
func (h *Handler) find(ctx context.Context, term string) ([]models.Product, string, error) {
	if h.search != nil {
		ids, err := h.search.Search(ctx, term, searchLimit)
		switch {
		case err == nil && len(ids) > 0:
			products, err := h.store.ProductsByIDs(ctx, ids)
			if err == nil && len(products) > 0 {
				return products, "index", nil
			}
		case err != nil && !errors.Is(err, services.ErrSearchUnavailable):
			logging.L().Warn("⚠️ Search index failed, using Postgres", zap.Error(err))
		}
	}
	products, err := h.store.SearchProducts(ctx, term, searchLimit)
	return products, "database", err
}
