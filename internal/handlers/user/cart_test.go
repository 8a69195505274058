package user

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddToCartClampsAndDefaults(t *testing.T) {
	e := newEnv(t)
	p := e.store.addProduct("kurta", 800, 3)

	w, _ := e.do(t, http.MethodPost, "/api/cart", map[string]any{"product_id": p.ID.String(), "quantity": 10})
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, e.store.cart, 1)
	assert.Equal(t, 3, e.store.cart[0].Quantity)
	assert.Equal(t, "S", e.store.cart[0].Size)
	assert.Equal(t, "Black", e.store.cart[0].Color)

	// same line again sets the quantity instead of adding to it
	w, body := e.do(t, http.MethodPost, "/api/cart", map[string]any{"product_id": p.ID.String()})
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, e.store.cart, 1)
	assert.Equal(t, 1, e.store.cart[0].Quantity)
	assert.Equal(t, e.store.cart[0].ID.String(), body["item"].(map[string]any)["id"])

	w, _ = e.do(t, http.MethodPost, "/api/cart", map[string]any{"product_id": p.ID.String(), "size": "M"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, e.store.cart, 2)
}

func TestAddToCartRejections(t *testing.T) {
	e := newEnv(t)
	soldOut := e.store.addProduct("saree", 2500, 0)

	w, body := e.do(t, http.MethodPost, "/api/cart", map[string]any{"product_id": soldOut.ID.String()})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "This product is out of stock", body["error"])

	w, _ = e.do(t, http.MethodPost, "/api/cart", map[string]any{"product_id": uuid.NewString()})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = e.do(t, http.MethodPost, "/api/cart", map[string]any{"product_id": "nope"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateAndRemoveCartItem(t *testing.T) {
	e := newEnv(t)
	p := e.store.addProduct("dupatta", 400, 4)
	_, _ = e.do(t, http.MethodPost, "/api/cart", map[string]any{"product_id": p.ID.String()})
	id := e.store.cart[0].ID.String()

	w, _ := e.do(t, http.MethodPatch, "/api/cart/"+id, map[string]any{"quantity": 9})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 4, e.store.cart[0].Quantity)

	w, _ = e.do(t, http.MethodPatch, "/api/cart/"+id, map[string]any{"quantity": -2})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, e.store.cart[0].Quantity)

	w, _ = e.do(t, http.MethodGet, "/api/cart", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = e.do(t, http.MethodDelete, "/api/cart/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, e.store.cart)

	w, _ = e.do(t, http.MethodDelete, "/api/cart/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateCartItemSoldOut(t *testing.T) {
	e := newEnv(t)
	p := e.store.addProduct("stole", 300, 2)
	_, _ = e.do(t, http.MethodPost, "/api/cart", map[string]any{"product_id": p.ID.String(), "quantity": 2})
	id := e.store.cart[0].ID.String()

	p.StockQuantity = 0
	w, body := e.do(t, http.MethodPatch, "/api/cart/"+id, map[string]any{"quantity": 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "This product is out of stock", body["error"])
	assert.Equal(t, 2, e.store.cart[0].Quantity)
}

func TestCartRowsOfOtherUsersAreHidden(t *testing.T) {
	e := newEnv(t)
	p := e.store.addProduct("scarf", 300, 5)
	_, _ = e.do(t, http.MethodPost, "/api/cart", map[string]any{"product_id": p.ID.String()})
	id := e.store.cart[0].ID.String()

	e.userID = uuid.New()
	w, _ := e.do(t, http.MethodPatch, "/api/cart/"+id, map[string]any{"quantity": 2})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestClampQuantity(t *testing.T) {
	assert.Equal(t, 1, clampQuantity(0, 5))
	assert.Equal(t, 5, clampQuantity(7, 5))
	assert.Equal(t, 3, clampQuantity(3, 5))
	assert.Equal(t, 1, clampQuantity(2, 0))
}
