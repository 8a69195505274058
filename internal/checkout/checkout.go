package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"storefront_back_end/internal/models"
	"storefront_back_end/internal/pricing"
	"storefront_back_end/internal/store"
)

var (
	ErrEmptyCart         = errors.New("your cart is empty")
	ErrInvalidRequest    = errors.New("invalid checkout request")
	ErrInsufficientStock = store.ErrInsufficientStock
)

// Store is the persistence the checkout needs.
type Store interface {
	CartItems(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error)
	PlaceOrder(ctx context.Context, order *models.Order) error
}

// Service turns a user's cart into an order.
type Service struct {
	store Store
	calc  pricing.Calculator
	now   func() time.Time
}

func NewService(s Store, calc pricing.Calculator) *Service {
	return &Service{store: s, calc: calc, now: time.Now}
}

// Summary is the cart with its priced totals.
type Summary struct {
	Items  []models.CartItem `json:"items"`
	Totals pricing.Totals    `json:"summary"`
}

// Request is the checkout form.
type Request struct {
	FullName      string               `json:"full_name"`
	Phone         string               `json:"phone"`
	Address       string               `json:"address"`
	City          string               `json:"city"`
	State         string               `json:"state"`
	Pincode       string               `json:"pincode"`
	PaymentMethod models.PaymentMethod `json:"payment_method"`
	Notes         string               `json:"notes"`
}

// Validate trims the form and checks the required fields.
func (r *Request) Validate() error {
	fields := []struct {
		name  string
		value *string
	}{
		{"full_name", &r.FullName},
		{"phone", &r.Phone},
		{"address", &r.Address},
		{"city", &r.City},
		{"state", &r.State},
		{"pincode", &r.Pincode},
	}
	var missing []string
	for _, f := range fields {
		*f.value = strings.TrimSpace(*f.value)
		if *f.value == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing required fields: %s", ErrInvalidRequest, strings.Join(missing, ", "))
	}
	if r.PaymentMethod == "" {
		r.PaymentMethod = models.PaymentCOD
	}
	if !r.PaymentMethod.Valid() {
		return fmt.Errorf("%w: unknown payment method %q", ErrInvalidRequest, r.PaymentMethod)
	}
	r.Notes = strings.TrimSpace(r.Notes)
	return nil
}

// ShippingAddress is the address snapshot stored on the order.
func (r Request) ShippingAddress() models.ShippingAddress {
	return models.ShippingAddress{
		FullName: r.FullName,
		Address:  r.Address,
		City:     r.City,
		State:    r.State,
		Pincode:  r.Pincode,
		Phone:    r.Phone,
	}
}

// Summarize prices the user's current cart.
func (s *Service) Summarize(ctx context.Context, userID uuid.UUID) (*Summary, error) {
	items, err := s.store.CartItems(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	return &Summary{Items: items, Totals: s.calc.Compute(Lines(items))}, nil
}

// PlaceOrder validates the request, prices the cart and writes the order.
// The cart is emptied in the same transaction as the order insert.
func (s *Service) PlaceOrder(ctx context.Context, userID uuid.UUID, req Request) (*models.Order, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	items, err := s.store.CartItems(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	totals := s.calc.Compute(Lines(items))
	address := req.ShippingAddress()
	order := &models.Order{
		ID:              uuid.New(),
		OrderNumber:     pricing.NewOrderNumber(s.now()),
		UserID:          userID,
		Status:          models.OrderPending,
		Subtotal:        totals.Subtotal,
		ShippingAmount:  totals.Shipping,
		TaxAmount:       totals.Tax,
		DiscountAmount:  totals.Discount,
		TotalAmount:     totals.Total,
		ShippingAddress: address,
		BillingAddress:  address,
		PaymentMethod:   req.PaymentMethod,
		PaymentStatus:   models.PaymentPending,
		Notes:           req.Notes,
		Items:           OrderItems(items),
	}

	if err := s.store.PlaceOrder(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// Lines extracts the priced lines from cart rows that still have a product.
func Lines(items []models.CartItem) []pricing.Line {
	lines := make([]pricing.Line, 0, len(items))
	for _, item := range items {
		if item.Product == nil {
			continue
		}
		lines = append(lines, pricing.Line{Price: item.Product.Price, Quantity: item.Quantity})
	}
	return lines
}

// OrderItems snapshots cart rows into order items.
func OrderItems(items []models.CartItem) []models.OrderItem {
	out := make([]models.OrderItem, 0, len(items))
	for _, item := range items {
		if item.Product == nil {
			continue
		}
		productID := item.ProductID
		out = append(out, models.OrderItem{
			ProductID:    &productID,
			ProductName:  item.Product.Name,
			ProductImage: item.Product.ImageURL,
			Quantity:     item.Quantity,
			Size:         item.Size,
			Color:        item.Color,
			Price:        item.Product.Price,
		})
	}
	return out
}
