package store

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"storefront_back_end/internal/catalog"
	"storefront_back_end/internal/models"
)

// ProductQuery selects products for listings.
type ProductQuery struct {
	Filter          catalog.Filter
	CategoryID      *uuid.UUID
	NewArrivalsOnly bool
	FeaturedOnly    bool
	Limit           int
}

// ProductScope applies the listing filters and ordering to a products query.
func ProductScope(q ProductQuery) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if q.CategoryID != nil {
			db = db.Where("category_id = ?", *q.CategoryID)
		}
		if q.NewArrivalsOnly {
			db = db.Where("is_new_arrival = ?", true)
		}
		if q.FeaturedOnly {
			db = db.Where("is_featured = ?", true)
		}

		f := q.Filter
		if f.MinPrice != nil {
			db = db.Where("price >= ?", *f.MinPrice)
		}
		if f.MaxPrice != nil {
			db = db.Where("price <= ?", *f.MaxPrice)
		}
		if f.Size != "" {
			db = db.Where("? = ANY(sizes)", f.Size)
		}
		if f.Color != "" {
			db = db.Where("? = ANY(colors)", f.Color)
		}

		db = db.Order(f.Sort.OrderClause())
		if q.Limit > 0 {
			db = db.Limit(q.Limit)
		}
		return db
	}
}

func (s *Store) ListProducts(ctx context.Context, q ProductQuery) ([]models.Product, error) {
	var products []models.Product
	err := s.conn(ctx).Scopes(ProductScope(q)).Find(&products).Error
	return products, translate(err)
}

// ProductFacets returns the distinct sizes and colors offered across the whole catalog.
func (s *Store) ProductFacets(ctx context.Context) (sizes, colors []string, err error) {
	var rows []models.Product
	if err := s.conn(ctx).Select("sizes", "colors").Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, nil, translate(err)
	}
	sizeLists := make([][]string, 0, len(rows))
	colorLists := make([][]string, 0, len(rows))
	for _, r := range rows {
		sizeLists = append(sizeLists, r.Sizes)
		colorLists = append(colorLists, r.Colors)
	}
	return catalog.Facets(sizeLists...), catalog.Facets(colorLists...), nil
}

func (s *Store) ProductBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var p models.Product
	if err := s.conn(ctx).Preload("Category").First(&p, "slug = ?", slug).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (s *Store) ProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var p models.Product
	if err := s.conn(ctx).Preload("Category").First(&p, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

// RelatedProducts returns other products of the same category.
func (s *Store) RelatedProducts(ctx context.Context, categoryID, excludeID uuid.UUID, limit int) ([]models.Product, error) {
	var products []models.Product
	err := s.conn(ctx).
		Where("category_id = ? AND id <> ?", categoryID, excludeID).
		Order("created_at DESC").
		Limit(limit).
		Find(&products).Error
	return products, translate(err)
}

// SearchProducts matches name or description case-insensitively, newest first.
func (s *Store) SearchProducts(ctx context.Context, term string, limit int) ([]models.Product, error) {
	pattern := "%" + escapeLike(term) + "%"
	var products []models.Product
	db := s.conn(ctx).
		Where("name ILIKE ? OR description ILIKE ?", pattern, pattern).
		Order("created_at DESC")
	if limit > 0 {
		db = db.Limit(limit)
	}
	err := db.Find(&products).Error
	return products, translate(err)
}

// ProductsByIDs loads products and returns them in the order of ids.
func (s *Store) ProductsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	if len(ids) == 0 {
		return []models.Product{}, nil
	}
	var found []models.Product
	if err := s.conn(ctx).Where("id IN ?", ids).Find(&found).Error; err != nil {
		return nil, translate(err)
	}
	byID := make(map[uuid.UUID]models.Product, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}
	out := make([]models.Product, 0, len(found))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// EachProduct walks the catalog in batches, for reindexing.
func (s *Store) EachProduct(ctx context.Context, batchSize int, fn func([]models.Product) error) error {
	var batch []models.Product
	res := s.conn(ctx).Preload("Category").FindInBatches(&batch, batchSize, func(tx *gorm.DB, _ int) error {
		return fn(batch)
	})
	return translate(res.Error)
}

func (s *Store) Categories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := s.conn(ctx).Order("name ASC").Find(&categories).Error
	return categories, translate(err)
}

// CategoriesWithCounts lists categories by name with the number of products in each.
func (s *Store) CategoriesWithCounts(ctx context.Context) ([]models.CategoryWithCount, error) {
	var out []models.CategoryWithCount
	err := s.conn(ctx).
		Table("categories").
		Select("categories.*, COUNT(products.id) AS product_count").
		Joins("LEFT JOIN products ON products.category_id = categories.id").
		Group("categories.id").
		Order("categories.name ASC").
		Scan(&out).Error
	return out, translate(err)
}

func (s *Store) CategoryBySlug(ctx context.Context, slug string) (*models.Category, error) {
	var c models.Category
	if err := s.conn(ctx).First(&c, "slug = ?", slug).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
