package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	DiscountPercentage = "percentage"
	DiscountFixed      = "fixed"

	AppliesToAll      = "all"
	AppliesToCategory = "category"
	AppliesToProduct  = "product"
)

type Discount struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Name          string          `gorm:"not null" json:"name"`
	DiscountType  string          `gorm:"not null" json:"discount_type"`
	DiscountValue decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"discount_value"`
	AppliesTo     string          `gorm:"not null;default:'all'" json:"applies_to"`
	CategoryID    *uuid.UUID      `gorm:"type:uuid" json:"category_id"`
	ProductID     *uuid.UUID      `gorm:"type:uuid" json:"product_id"`
	IsActive      bool            `gorm:"not null;default:true" json:"is_active"`
	ValidUntil    *time.Time      `json:"valid_until"`
	CreatedAt     time.Time       `json:"created_at"`
}

func (d *Discount) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

// TaxRate is an admin-managed tax line. Rate is a percentage, 18 means 18%.
type TaxRate struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string          `gorm:"not null" json:"name"`
	Rate      decimal.Decimal `gorm:"type:numeric(5,2);not null" json:"rate"`
	AppliesTo string          `gorm:"not null;default:'all'" json:"applies_to"`
	IsActive  bool            `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time       `json:"created_at"`
}

func (t *TaxRate) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

type Warehouse struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Code      string    `gorm:"uniqueIndex;not null" json:"code"`
	Address   Address   `gorm:"type:jsonb" json:"address"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email"`
	IsActive  bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func (w *Warehouse) BeforeCreate(tx *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}
