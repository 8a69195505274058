package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
)

// OrderStatuses lists the accepted statuses in fulfilment order.
var OrderStatuses = []OrderStatus{OrderPending, OrderProcessing, OrderShipped, OrderDelivered, OrderCancelled}

func (s OrderStatus) Valid() bool {
	for _, known := range OrderStatuses {
		if s == known {
			return true
		}
	}
	return false
}

type PaymentMethod string

const (
	PaymentCOD    PaymentMethod = "cod"
	PaymentOnline PaymentMethod = "online"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentCOD || m == PaymentOnline
}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

// Settled reports whether the payment is final. Webhooks can arrive out of
// order, so a settled payment is never changed again.
func (s PaymentStatus) Settled() bool {
	return s == PaymentCompleted
}

type Order struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	OrderNumber     string          `gorm:"uniqueIndex;not null" json:"order_number"`
	UserID          uuid.UUID       `gorm:"type:uuid;not null;index" json:"user_id"`
	Status          OrderStatus     `gorm:"type:text;not null;default:'pending'" json:"status"`
	Subtotal        decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"subtotal"`
	ShippingAmount  decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"shipping_amount"`
	TaxAmount       decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"tax_amount"`
	DiscountAmount  decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0" json:"discount_amount"`
	TotalAmount     decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"total_amount"`
	ShippingAddress ShippingAddress `gorm:"type:jsonb" json:"shipping_address"`
	BillingAddress  ShippingAddress `gorm:"type:jsonb" json:"billing_address"`
	PaymentMethod   PaymentMethod   `gorm:"type:text;not null" json:"payment_method"`
	PaymentStatus   PaymentStatus   `gorm:"type:text;not null;default:'pending'" json:"payment_status"`
	PaymentIntentID string          `gorm:"index" json:"payment_intent_id,omitempty"`
	Notes           string          `json:"notes"`
	Items           []OrderItem     `gorm:"foreignKey:OrderID" json:"items,omitempty"`
	Customer        *Profile        `gorm:"foreignKey:UserID" json:"customer,omitempty"`
	CreatedAt       time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// ItemCount is the number of units across all items.
func (o Order) ItemCount() int {
	n := 0
	for _, item := range o.Items {
		n += item.Quantity
	}
	return n
}

// OrderItem snapshots the product as it was when the order was placed.
type OrderItem struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"order_id"`
	ProductID    *uuid.UUID      `gorm:"type:uuid" json:"product_id"`
	ProductName  string          `gorm:"not null" json:"product_name"`
	ProductImage string          `json:"product_image"`
	Quantity     int             `gorm:"not null" json:"quantity"`
	Size         string          `json:"size"`
	Color        string          `json:"color"`
	Price        decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price"`
}

func (oi *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if oi.ID == uuid.Nil {
		oi.ID = uuid.New()
	}
	return nil
}

func (oi OrderItem) LineTotal() decimal.Decimal {
	return oi.Price.Mul(decimal.NewFromInt(int64(oi.Quantity)))
}
