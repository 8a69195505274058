package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"storefront_back_end/internal/models"
)

// CartItems returns the user's cart lines joined with their product, newest first.
// Lines whose product has been deleted are dropped.
func (s *Store) CartItems(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	var items []models.CartItem
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

func (s *Store) CartItem(ctx context.Context, userID, id uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	err := s.conn(ctx).
		Preload("Product").
		Where("id = ? AND user_id = ?", id, userID).
		First(&item).Error
	if err != nil {
		return nil, translate(err)
	}
	return &item, nil
}

// UpsertCartItem inserts the line or, when (user, product, size, color) exists,
// replaces its quantity. item.ID is the id of the stored row either way.
func (s *Store) UpsertCartItem(ctx context.Context, item *models.CartItem) error {
	return translate(upsertCartItem(s.conn(ctx), item).Error)
}

func upsertCartItem(tx *gorm.DB, item *models.CartItem) *gorm.DB {
	return tx.
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "product_id"}, {Name: "size"}, {Name: "color"}},
			DoUpdates: clause.Assignments(map[string]any{
				"quantity":   item.Quantity,
				"updated_at": time.Now().UTC(),
			}),
		}, clause.Returning{Columns: []clause.Column{{Name: "id"}, {Name: "created_at"}}}).
		Create(item)
}

// SetCartQuantity updates one of the user's lines.
func (s *Store) SetCartQuantity(ctx context.Context, userID, id uuid.UUID, quantity int) error {
	res := s.conn(ctx).
		Model(&models.CartItem{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(map[string]any{"quantity": quantity, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) DeleteCartItem(ctx context.Context, userID, id uuid.UUID) error {
	res := s.conn(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.CartItem{})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) CartCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	var n int64
	err := s.conn(ctx).Model(&models.CartItem{}).Where("user_id = ?", userID).Count(&n).Error
	return n, translate(err)
}
