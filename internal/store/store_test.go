package store

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"storefront_back_end/internal/catalog"
	"storefront_back_end/internal/models"
)

// dryRunDB renders SQL without opening a connection.
func dryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=localhost user=storefront dbname=storefront sslmode=disable",
	}), &gorm.Config{DryRun: true, DisableAutomaticPing: true, SkipDefaultTransaction: true})
	require.NoError(t, err)
	return db
}

func TestProductScopeSQL(t *testing.T) {
	db := dryRunDB(t)
	q, _ := url.ParseQuery("minPrice=500&maxPrice=3000&size=M&color=Red&sort=price-asc")
	categoryID := uuid.MustParse("5b0e3a51-7d1c-4c1e-9a4c-1f0f0f0f0f0f")

	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		return tx.Scopes(ProductScope(ProductQuery{
			Filter:     catalog.ParseFilter(q),
			CategoryID: &categoryID,
			Limit:      12,
		})).Find(&[]models.Product{})
	})

	assert.Contains(t, sql, `FROM "products"`)
	assert.Contains(t, sql, "category_id = '5b0e3a51-7d1c-4c1e-9a4c-1f0f0f0f0f0f'")
	assert.Contains(t, sql, "price >= 500")
	assert.Contains(t, sql, "price <= 3000")
	assert.Contains(t, sql, "'M' = ANY(sizes)")
	assert.Contains(t, sql, "'Red' = ANY(colors)")
	assert.Contains(t, sql, "ORDER BY price ASC")
	assert.Contains(t, sql, "LIMIT 12")
	assert.NotContains(t, sql, "is_new_arrival")
}

func TestProductScopeNewArrivalsDefaultsToNewest(t *testing.T) {
	db := dryRunDB(t)

	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		return tx.Scopes(ProductScope(ProductQuery{NewArrivalsOnly: true})).Find(&[]models.Product{})
	})

	assert.Contains(t, sql, "is_new_arrival = true")
	assert.Contains(t, sql, "ORDER BY created_at DESC")
	assert.NotContains(t, sql, "LIMIT")
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `50\% off\_now`, escapeLike("50% off_now"))
	assert.Equal(t, `a\\b`, escapeLike(`a\b`))
}

func TestTranslate(t *testing.T) {
	assert.NoError(t, translate(nil))
	assert.ErrorIs(t, translate(gorm.ErrRecordNotFound), ErrNotFound)
	assert.ErrorIs(t, translate(gorm.ErrDuplicatedKey), ErrConflict)
	assert.ErrorIs(t, translate(fmt.Errorf(`duplicate key value violates unique constraint (SQLSTATE 23505)`)), ErrConflict)

	other := errors.New("connection reset")
	assert.Equal(t, other, translate(other))
}

func TestUpsertCartItemSQL(t *testing.T) {
	db := dryRunDB(t)
	item := &models.CartItem{UserID: uuid.New(), ProductID: uuid.New(), Quantity: 3, Size: "M", Color: "Black"}

	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		return upsertCartItem(tx, item)
	})

	assert.Contains(t, sql, `INSERT INTO "cart_items"`)
	assert.Contains(t, sql, `ON CONFLICT ("user_id","product_id","size","color") DO UPDATE SET`)
	assert.Contains(t, sql, `"quantity"=3`)
	assert.Regexp(t, `RETURNING .*"id"`, sql)
}

// recordSQL captures every statement the dry-run DB renders. Updates report
// stockRows affected rows so the stock guard can be steered.
func recordSQL(t *testing.T, db *gorm.DB, stockRows int64) *[]string {
	t.Helper()
	var stmts []string
	record := func(tx *gorm.DB) {
		stmts = append(stmts, tx.Dialector.Explain(tx.Statement.SQL.String(), tx.Statement.Vars...))
	}
	require.NoError(t, db.Callback().Create().After("gorm:create").Register("test:record_create", record))
	require.NoError(t, db.Callback().Update().After("gorm:update").Register("test:record_update", func(tx *gorm.DB) {
		record(tx)
		tx.RowsAffected = stockRows
	}))
	require.NoError(t, db.Callback().Delete().After("gorm:delete").Register("test:record_delete", record))
	return &stmts
}

func sampleOrder() *models.Order {
	productID := uuid.New()
	return &models.Order{
		OrderNumber: "ORD-1-ABCDEF",
		UserID:      uuid.New(),
		Items: []models.OrderItem{
			{ProductID: &productID, ProductName: "Kurta", Quantity: 2},
		},
	}
}

func TestPlaceOrderOutOfStock(t *testing.T) {
	db := dryRunDB(t)
	stmts := recordSQL(t, db, 0)
	order := sampleOrder()

	err := placeOrder(db, order)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInsufficientStock), err)
	assert.Contains(t, err.Error(), "Kurta")

	all := strings.Join(*stmts, "\n")
	assert.Contains(t, all, `INSERT INTO "orders"`)
	assert.Contains(t, all, `INSERT INTO "order_items"`)
	assert.Contains(t, all, `UPDATE "products" SET "stock_quantity"=stock_quantity - 2`)
	assert.Contains(t, all, "stock_quantity >= 2")
	assert.NotContains(t, all, `DELETE FROM "cart_items"`)
}

func TestPlaceOrderTakesStockAndClearsCart(t *testing.T) {
	db := dryRunDB(t)
	stmts := recordSQL(t, db, 1)
	order := sampleOrder()

	require.NoError(t, placeOrder(db, order))

	require.Len(t, order.Items, 1)
	assert.Equal(t, order.ID, order.Items[0].OrderID)
	assert.NotEqual(t, uuid.Nil, order.ID)

	all := strings.Join(*stmts, "\n")
	assert.Contains(t, all, fmt.Sprintf("id = '%s' AND stock_quantity >= 2", *order.Items[0].ProductID))
	assert.Contains(t, all, fmt.Sprintf(`DELETE FROM "cart_items" WHERE user_id = '%s'`, order.UserID))
}
