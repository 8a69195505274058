package user

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"storefront_back_end/internal/handlers"
	"storefront_back_end/internal/models"
	"storefront_back_end/internal/realtime"
)

// GET /api/cart
func (h *Handler) GetCart(c *gin.Context) {
	userID, ok := handlers.CurrentUser(c)
	if !ok {
		return
	}
	summary, err := h.Checkout.Summarize(c.Request.Context(), userID)
	if err != nil {
		handlers.Fail(c, err, "Cart")
		return
	}
	c.JSON(http.StatusOK, summary)
}

type addToCartInput struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity"`
	Size      string `json:"size"`
	Color     string `json:"color"`
}

// POST /api/cart sets the quantity of the (product, size, color) line.
func (h *Handler) AddToCart(c *gin.Context) {
	userID, ok := handlers.CurrentUser(c)
	if !ok {
		return
	}
	var input addToCartInput
	if !handlers.BindJSON(c, &input) {
		return
	}
	productID, err := uuid.Parse(input.ProductID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product_id"})
		return
	}

	ctx := c.Request.Context()
	product, err := h.Store.ProductByID(ctx, productID)
	if err != nil {
		handlers.Fail(c, err, "Product")
		return
	}
	if !product.InStock() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "This product is out of stock"})
		return
	}

	item := &models.CartItem{
		UserID:    userID,
		ProductID: productID,
		Quantity:  clampQuantity(input.Quantity, product.StockQuantity),
		Size:      input.Size,
		Color:     input.Color,
	}
	if item.Size == "" {
		item.Size = product.DefaultSize()
	}
	if item.Color == "" {
		item.Color = product.DefaultColor()
	}
	if err := h.Store.UpsertCartItem(ctx, item); err != nil {
		handlers.Fail(c, err, "Cart item")
		return
	}
	h.Hub.CartChanged(ctx, userID, realtime.CartUpdated)

	item.Product = product
	c.JSON(http.StatusOK, gin.H{"message": "Added to cart", "item": item})
}

type updateCartInput struct {
	Quantity int `json:"quantity" binding:"required"`
}

// PATCH /api/cart/:id
func (h *Handler) UpdateCartItem(c *gin.Context) {
	userID, ok := handlers.CurrentUser(c)
	if !ok {
		return
	}
	id, ok := handlers.ParamUUID(c, "id")
	if !ok {
		return
	}
	var input updateCartInput
	if !handlers.BindJSON(c, &input) {
		return
	}

	ctx := c.Request.Context()
	item, err := h.Store.CartItem(ctx, userID, id)
	if err != nil {
		handlers.Fail(c, err, "Cart item")
		return
	}
	stock := 0
	if item.Product != nil {
		stock = item.Product.StockQuantity
	}
	if stock <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "This product is out of stock"})
		return
	}
	item.Quantity = clampQuantity(input.Quantity, stock)

	if err := h.Store.SetCartQuantity(ctx, userID, id, item.Quantity); err != nil {
		handlers.Fail(c, err, "Cart item")
		return
	}
	h.Hub.CartChanged(ctx, userID, realtime.CartUpdated)
	c.JSON(http.StatusOK, gin.H{"item": item})
}

// DELETE /api/cart/:id
func (h *Handler) RemoveCartItem(c *gin.Context) {
	userID, ok := handlers.CurrentUser(c)
	if !ok {
		return
	}
	id, ok := handlers.ParamUUID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if err := h.Store.DeleteCartItem(ctx, userID, id); err != nil {
		handlers.Fail(c, err, "Cart item")
		return
	}
	h.Hub.CartChanged(ctx, userID, realtime.CartUpdated)
	c.JSON(http.StatusOK, gin.H{"message": "Item removed from cart"})
}

// GET /api/cart/live streams the cart summary every time it changes.
func (h *Handler) CartLive(c *gin.Context) {
	userID, ok := handlers.CurrentUser(c)
	if !ok {
		return
	}
	if !h.Hub.Enabled() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Live updates are unavailable"})
		return
	}
	hello, err := h.Checkout.Summarize(c.Request.Context(), userID)
	if err != nil {
		handlers.Fail(c, err, "Cart")
		return
	}
	h.Hub.Serve(c, h.Upgrader, realtime.CartChannel(userID), hello, func(ctx context.Context, _ string) (any, bool) {
		summary, err := h.Checkout.Summarize(ctx, userID)
		if err != nil {
			return nil, false
		}
		return summary, true
	})
}

// clampQuantity keeps requested within [1, stock]. A missing quantity means one.
func clampQuantity(requested, stock int) int {
	if requested > stock {
		requested = stock
	}
	if requested < 1 {
		requested = 1
	}
	return requested
}
