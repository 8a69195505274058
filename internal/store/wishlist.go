package store

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm/clause"

	"storefront_back_end/internal/models"
)

// Wishlist returns the user's saved products, newest first.
func (s *Store) Wishlist(ctx context.Context, userID uuid.UUID) ([]models.WishlistItem, error) {
	var items []models.WishlistItem
	err := s.conn(ctx).
		Preload("Product").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&items).Error
	if err != nil {
		return nil, translate(err)
	}
	out := items[:0]
	for _, it := range items {
		if it.Product != nil {
			out = append(out, it)
		}
	}
	return out, nil
}

// AddToWishlist returns ErrConflict when the product is already saved.
func (s *Store) AddToWishlist(ctx context.Context, userID, productID uuid.UUID) (*models.WishlistItem, error) {
	item := models.WishlistItem{UserID: userID, ProductID: productID}
	if err := s.conn(ctx).Omit(clause.Associations).Create(&item).Error; err != nil {
		return nil, translate(err)
	}
	return &item, nil
}

func (s *Store) RemoveFromWishlist(ctx context.Context, userID, productID uuid.UUID) error {
	res := s.conn(ctx).Where("user_id = ? AND product_id = ?", userID, productID).Delete(&models.WishlistItem{})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) CountWishlist(ctx context.Context, userID uuid.UUID) (int64, error) {
	var n int64
	err := s.conn(ctx).Model(&models.WishlistItem{}).Where("user_id = ?", userID).Count(&n).Error
	return n, translate(err)
}
