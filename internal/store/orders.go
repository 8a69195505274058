package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"storefront_back_end/internal/models"
)

// PlaceOrder writes the order and its items, takes the stock and empties the
// user's cart in one transaction. Any shortage rolls everything back.
func (s *Store) PlaceOrder(ctx context.Context, order *models.Order) error {
	return s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		return placeOrder(tx, order)
	})
}

func placeOrder(tx *gorm.DB, order *models.Order) error {
	items := order.Items
	if err := tx.Omit(clause.Associations).Create(order).Error; err != nil {
		return fmt.Errorf("insert order: %w", translate(err))
	}

	for i := range items {
		items[i].OrderID = order.ID
	}
	if len(items) > 0 {
		if err := tx.Create(&items).Error; err != nil {
			return fmt.Errorf("insert order items: %w", translate(err))
		}
	}

	for _, item := range items {
		if item.ProductID == nil {
			continue
		}
		res := tx.Model(&models.Product{}).
			Where("id = ? AND stock_quantity >= ?", *item.ProductID, item.Quantity).
			UpdateColumn("stock_quantity", gorm.Expr("stock_quantity - ?", item.Quantity))
		if res.Error != nil {
			return fmt.Errorf("take stock: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: %s", ErrInsufficientStock, item.ProductName)
		}
	}

	if err := tx.Where("user_id = ?", order.UserID).Delete(&models.CartItem{}).Error; err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}

	order.Items = items
	return nil
}

// UserOrders returns the user's orders with items, newest first.
func (s *Store) UserOrders(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	var orders []models.Order
	err := s.conn(ctx).
		Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error
	return orders, translate(err)
}

func (s *Store) UserOrder(ctx context.Context, userID, id uuid.UUID) (*models.Order, error) {
	var o models.Order
	err := s.conn(ctx).Preload("Items").Where("id = ? AND user_id = ?", id, userID).First(&o).Error
	if err != nil {
		return nil, translate(err)
	}
	return &o, nil
}

func (s *Store) UserOrderByNumber(ctx context.Context, userID uuid.UUID, number string) (*models.Order, error) {
	var o models.Order
	err := s.conn(ctx).Preload("Items").Where("order_number = ? AND user_id = ?", number, userID).First(&o).Error
	if err != nil {
		return nil, translate(err)
	}
	return &o, nil
}

func (s *Store) CountUserOrders(ctx context.Context, userID uuid.UUID) (int64, error) {
	var n int64
	err := s.conn(ctx).Model(&models.Order{}).Where("user_id = ?", userID).Count(&n).Error
	return n, translate(err)
}

func (s *Store) SetPaymentIntent(ctx context.Context, orderID uuid.UUID, intentID string) error {
	res := s.conn(ctx).Model(&models.Order{}).Where("id = ?", orderID).
		Updates(map[string]any{"payment_intent_id": intentID, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetPaymentStatusByIntent settles the order paid through the given payment intent.
// A completed payment is final: later events for it return ErrPaymentSettled.
func (s *Store) SetPaymentStatusByIntent(ctx context.Context, intentID string, status models.PaymentStatus) (*models.Order, error) {
	var o models.Order
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("payment_intent_id = ?", intentID).
			First(&o).Error
		if err != nil {
			return err
		}
		if o.PaymentStatus.Settled() {
			return ErrPaymentSettled
		}
		return tx.Model(&o).
			Where("payment_status <> ?", models.PaymentCompleted).
			Updates(map[string]any{"payment_status": status, "updated_at": time.Now().UTC()}).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	o.PaymentStatus = status
	return &o, nil
}

// AllOrders lists every order with its customer, newest first.
func (s *Store) AllOrders(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	err := s.conn(ctx).Preload("Customer").Order("created_at DESC").Find(&orders).Error
	return orders, translate(err)
}

func (s *Store) OrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var o models.Order
	err := s.conn(ctx).Preload("Items").Preload("Customer").First(&o, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &o, nil
}

// UpdateOrderStatus sets the status and returns the order with items and customer.
func (s *Store) UpdateOrderStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus) (*models.Order, error) {
	res := s.conn(ctx).Model(&models.Order{}).Where("id = ?", id).
		Updates(map[string]any{"status": status, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return nil, translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return s.OrderByID(ctx, id)
}

// DashboardCounts are the headline numbers of the admin dashboard.
type DashboardCounts struct {
	Products int64           `json:"product_count"`
	Orders   int64           `json:"order_count"`
	Users    int64           `json:"user_count"`
	Revenue  decimal.Decimal `json:"total_revenue"`
}

func (s *Store) CountProducts(ctx context.Context) (int64, error) {
	var n int64
	err := s.conn(ctx).Model(&models.Product{}).Count(&n).Error
	return n, translate(err)
}

func (s *Store) CountOrders(ctx context.Context) (int64, error) {
	var n int64
	err := s.conn(ctx).Model(&models.Order{}).Count(&n).Error
	return n, translate(err)
}

func (s *Store) CountProfiles(ctx context.Context) (int64, error) {
	var n int64
	err := s.conn(ctx).Model(&models.Profile{}).Count(&n).Error
	return n, translate(err)
}

// Revenue sums total_amount over every order.
func (s *Store) Revenue(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := s.conn(ctx).Model(&models.Order{}).Select("COALESCE(SUM(total_amount), 0)").Row().Scan(&total)
	return total, translate(err)
}
