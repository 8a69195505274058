package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"storefront_back_end/internal/models"
)

// AdminProducts lists every product with its category, newest first.
func (s *Store) AdminProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := s.conn(ctx).Preload("Category").Order("created_at DESC").Find(&products).Error
	return products, translate(err)
}

func (s *Store) CreateProduct(ctx context.Context, p *models.Product) error {
	return translate(s.conn(ctx).Omit(clause.Associations).Create(p).Error)
}

var productColumns = []string{
	"name", "slug", "description", "price", "original_price", "category_id", "image_url",
	"additional_images", "sizes", "colors", "stock_quantity", "is_featured", "is_new_arrival", "updated_at",
}

// UpdateProduct writes the editable columns and returns the previous price.
func (s *Store) UpdateProduct(ctx context.Context, id uuid.UUID, p *models.Product) (*models.Product, error) {
	var before models.Product
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&before, "id = ?", id).Error; err != nil {
			return err
		}
		p.ID = id
		p.UpdatedAt = time.Now().UTC()
		return tx.Model(&models.Product{ID: id}).Select(productColumns).Updates(p).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return &before, nil
}

// DeleteProduct removes the product together with the cart and wishlist lines pointing at it.
func (s *Store) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	return translate(s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", id).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("product_id = ?", id).Delete(&models.WishlistItem{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.Product{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	}))
}

func (s *Store) CategoryByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var c models.Category
	if err := s.conn(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (s *Store) CreateCategory(ctx context.Context, c *models.Category) error {
	return translate(s.conn(ctx).Create(c).Error)
}

func (s *Store) UpdateCategory(ctx context.Context, id uuid.UUID, c *models.Category) error {
	res := s.conn(ctx).Model(&models.Category{}).Where("id = ?", id).
		Select("name", "slug", "description", "image_url").
		Updates(c)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	c.ID = id
	return nil
}

// DeleteCategory removes the category and detaches its products.
func (s *Store) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	return translate(s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Product{}).Where("category_id = ?", id).Update("category_id", nil).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.Category{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	}))
}
