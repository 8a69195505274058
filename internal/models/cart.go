package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CartItem is one cart line. A user holds at most one line per (product, size, color).
type CartItem struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_cart_line,priority:1" json:"user_id"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_cart_line,priority:2" json:"product_id"`
	Size      string    `gorm:"not null;default:'';uniqueIndex:idx_cart_line,priority:3" json:"size"`
	Color     string    `gorm:"not null;default:'';uniqueIndex:idx_cart_line,priority:4" json:"color"`
	Quantity  int       `gorm:"not null;check:quantity > 0" json:"quantity"`
	Product   *Product  `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ci *CartItem) BeforeCreate(tx *gorm.DB) error {
	if ci.ID == uuid.Nil {
		ci.ID = uuid.New()
	}
	return nil
}

// LineTotal is price × quantity, zero when the product was not loaded.
func (ci CartItem) LineTotal() decimal.Decimal {
	if ci.Product == nil {
		return decimal.Zero
	}
	return ci.Product.Price.Mul(decimal.NewFromInt(int64(ci.Quantity)))
}
