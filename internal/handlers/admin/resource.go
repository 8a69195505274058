package admin

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"storefront_back_end/internal/audit"
	"storefront_back_end/internal/handlers"
	"storefront_back_end/internal/models"
)

// Table is the CRUD repository behind a settings panel.
type Table[T any] interface {
	List(ctx context.Context) ([]T, error)
	Get(ctx context.Context, id uuid.UUID) (*T, error)
	Create(ctx context.Context, v *T) error
	Update(ctx context.Context, id uuid.UUID, v *T) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// Resource serves list/get/create/update/delete for one settings table.
type Resource[T any] struct {
	name     string
	resource string
	table    Table[T]
	audit    *audit.Recorder
	validate func(*T) error
}

func NewResource[T any](name, resource string, table Table[T], rec *audit.Recorder, validate func(*T) error) *Resource[T] {
	return &Resource[T]{name: name, resource: resource, table: table, audit: rec, validate: validate}
}

func (r *Resource[T]) bind(c *gin.Context) (*T, bool) {
	v := new(T)
	if !handlers.BindJSON(c, v) {
		return nil, false
	}
	if err := r.validate(v); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}
	return v, true
}

func (r *Resource[T]) List(c *gin.Context) {
	rows, err := r.table.List(c.Request.Context())
	if err != nil {
		handlers.Fail(c, err, r.name)
		return
	}
	if rows == nil {
		rows = []T{}
	}
	c.JSON(http.StatusOK, gin.H{"items": rows, "total": len(rows)})
}

func (r *Resource[T]) Get(c *gin.Context) {
	id, ok := handlers.ParamUUID(c, "id")
	if !ok {
		return
	}
	v, err := r.table.Get(c.Request.Context(), id)
	if err != nil {
		handlers.Fail(c, err, r.name)
		return
	}
	c.JSON(http.StatusOK, gin.H{"item": v})
}

func (r *Resource[T]) Create(c *gin.Context) {
	v, ok := r.bind(c)
	if !ok {
		return
	}
	if err := r.table.Create(c.Request.Context(), v); err != nil {
		handlers.Fail(c, err, r.name)
		return
	}
	r.audit.Record(c, audit.ACTION_SETTINGS_CREATE, r.resource, "", nil, v)
	c.JSON(http.StatusCreated, gin.H{"message": r.name + " created successfully", "item": v})
}

func (r *Resource[T]) Update(c *gin.Context) {
	id, ok := handlers.ParamUUID(c, "id")
	if !ok {
		return
	}
	v, ok := r.bind(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	before, err := r.table.Get(ctx, id)
	if err != nil {
		handlers.Fail(c, err, r.name)
		return
	}
	if err := r.table.Update(ctx, id, v); err != nil {
		handlers.Fail(c, err, r.name)
		return
	}
	r.audit.Record(c, audit.ACTION_SETTINGS_UPDATE, r.resource, id.String(), before, v)
	c.JSON(http.StatusOK, gin.H{"message": r.name + " updated successfully"})
}

func (r *Resource[T]) Delete(c *gin.Context) {
	id, ok := handlers.ParamUUID(c, "id")
	if !ok {
		return
	}
	if err := r.table.Delete(c.Request.Context(), id); err != nil {
		handlers.Fail(c, err, r.name)
		return
	}
	r.audit.Record(c, audit.ACTION_SETTINGS_DELETE, r.resource, id.String(), nil, nil)
	c.JSON(http.StatusOK, gin.H{"message": r.name + " deleted successfully"})
}

var hundred = decimal.NewFromInt(100)

func validateDiscount(d *models.Discount) error {
	d.ID = uuid.Nil
	d.Name = strings.TrimSpace(d.Name)
	if d.Name == "" {
		return errors.New("name is required")
	}
	switch d.DiscountType {
	case models.DiscountPercentage:
		if d.DiscountValue.GreaterThan(hundred) {
			return errors.New("a percentage discount cannot exceed 100")
		}
	case models.DiscountFixed:
	default:
		return errors.New("discount_type must be percentage or fixed")
	}
	if !d.DiscountValue.IsPositive() {
		return errors.New("discount_value must be greater than 0")
	}
	if d.AppliesTo == "" {
		d.AppliesTo = models.AppliesToAll
	}
	switch d.AppliesTo {
	case models.AppliesToAll:
		d.CategoryID, d.ProductID = nil, nil
	case models.AppliesToCategory:
		if d.CategoryID == nil {
			return errors.New("category_id is required when applies_to is category")
		}
		d.ProductID = nil
	case models.AppliesToProduct:
		if d.ProductID == nil {
			return errors.New("product_id is required when applies_to is product")
		}
		d.CategoryID = nil
	default:
		return errors.New("applies_to must be all, category or product")
	}
	return nil
}

func validateTaxRate(t *models.TaxRate) error {
	t.ID = uuid.Nil
	t.Name = strings.TrimSpace(t.Name)
	if t.Name == "" {
		return errors.New("name is required")
	}
	if t.Rate.IsNegative() || t.Rate.GreaterThan(hundred) {
		return errors.New("rate must be between 0 and 100")
	}
	if t.AppliesTo = strings.TrimSpace(t.AppliesTo); t.AppliesTo == "" {
		t.AppliesTo = models.AppliesToAll
	}
	return nil
}

func validateWarehouse(w *models.Warehouse) error {
	w.ID = uuid.Nil
	w.Name = strings.TrimSpace(w.Name)
	w.Code = strings.ToUpper(strings.TrimSpace(w.Code))
	if w.Name == "" || w.Code == "" {
		return errors.New("name and code are required")
	}
	if w.Email = strings.TrimSpace(w.Email); w.Email != "" && !strings.Contains(w.Email, "@") {
		return errors.New("email is invalid")
	}
	return nil
}
